package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type CellState int8

const (
	Todo             CellState = -10 // internal to OpenCell
	Unknown          CellState = -2
	Flagged          CellState = -1
	CorrectlyFlagged CellState = 64
	ExplodedMine     CellState = 65
	FalselyFlagged   CellState = 66
	UnflaggedMine    CellState = 67
	// 0 to 8 mean the cell is open and has that many mined neighbours
)

func (s CellState) Open() bool {
	return 0 <= s && s <= 8
}

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return "."
	case s == Flagged:
		return "*"
	case s == CorrectlyFlagged:
		return "F"
	case s == ExplodedMine:
		return "X"
	case s == FalselyFlagged:
		return "!"
	case s == UnflaggedMine:
		return "M"
	case s.Open():
		return strconv.Itoa(int(s))
	default:
		return "?"
	}
}

// Grid is the player's view of the board, row-major.
type Grid []CellState

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for row := range len(g) / width {
		for col := range width {
			i := row*width + col
			if i >= len(g) {
				break
			}
			fmt.Fprint(&b, g[i].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
