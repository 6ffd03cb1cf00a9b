package mines

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Reveal is a cell uncovered by the board together with the number of
// mines around it.
type Reveal struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Count int `json:"count"`
}

type GameState struct {
	Dead, Won  bool
	Grid       []bool /* real mine points */
	PlayerGrid Grid   /* player knowledge */
	GameParams
}

func DecodeGameState(buf []byte) (*GameState, error) {
	var game GameState
	err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&game)
	if err != nil {
		return nil, err
	}
	return &game, err
}

func (g GameState) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(g)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewGame generates a board for params and opens the starting cell.
func NewGame(params *GameParams, row, col int, r *rand.Rand) (state *GameState, err error) {
	defer func() {
		var ae AssertionError
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.As(e, &ae) {
				state, err = nil, ae
				return
			}
			panic(r)
		}
	}()

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !params.InBounds(row, col) {
		return nil, AssertionError{"starting cell out of bounds"}
	}

	grid, err := params.newGrid(row, col, r)
	if err != nil {
		return nil, err
	}
	playerGrid := make(Grid, len(grid))
	for i := range playerGrid {
		playerGrid[i] = Unknown
	}
	state = &GameState{
		GameParams: *params,
		Grid:       grid,
		PlayerGrid: playerGrid,
	}
	if state.OpenCell(row, col) == nil {
		panic(AssertionError{"mine in starting cell"})
	}

	Log.WithFields(logrus.Fields{
		"params": params.Seed(),
		"row":    row,
		"col":    col,
	}).Debug("new game")
	return state, nil
}

func (s *GameState) index(row, col int) int {
	return row*s.Width + col
}

func (s *GameState) MineAt(row, col int) bool {
	return s.Grid[s.index(row, col)]
}

// NearbyMines counts the mines in the up to 8 cells around (row, col).
func (s *GameState) NearbyMines(row, col int) int {
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if s.InBounds(row+dr, col+dc) && s.MineAt(row+dr, col+dc) {
				n++
			}
		}
	}
	return n
}

func (s *GameState) Over() bool {
	return s.Dead || s.Won
}

/*
OpenCell uncovers (row, col) and returns every cell that became visible,
in the order they were opened. Opening a cell with no mined neighbours
opens its covered neighbours as well. Opening a mine kills the player and
returns nil, as does opening a cell that is already open or flagged.
*/
func (s *GameState) OpenCell(row, col int) []Reveal {
	if s.Over() || !s.InBounds(row, col) {
		return nil
	}
	i := s.index(row, col)
	if s.PlayerGrid[i] != Unknown {
		return nil
	}
	if s.Grid[i] {
		/*
		 * The player has landed on a mine. Bad luck. Expose the
		 * mine that killed them, but not the rest.
		 */
		s.Dead = true
		s.PlayerGrid[i] = ExplodedMine
		return nil
	}

	var (
		revealed []Reveal
		todo     = []int{i}
	)
	s.PlayerGrid[i] = Todo
	for len(todo) > 0 {
		j := todo[0]
		todo = todo[1:]
		r, c := j/s.Width, j%s.Width

		v := s.NearbyMines(r, c)
		s.PlayerGrid[j] = CellState(v)
		revealed = append(revealed, Reveal{Row: r, Col: c, Count: v})
		if v != 0 {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				rr, cc := r+dr, c+dc
				if !s.InBounds(rr, cc) {
					continue
				}
				k := s.index(rr, cc)
				if s.PlayerGrid[k] == Unknown {
					s.PlayerGrid[k] = Todo
					todo = append(todo, k)
				}
			}
		}
	}

	/*
	 * Finally, scan the grid and see if exactly as many squares
	 * are still covered as there are mines. If so, set the `won'
	 * flag and fill in mine markers on all covered squares.
	 */
	var nmines, ncovered int
	for j, open := range s.PlayerGrid {
		if !open.Open() {
			ncovered++
		}
		if s.Grid[j] {
			nmines++
		}
	}
	if ncovered == nmines {
		for j := range s.PlayerGrid {
			if s.PlayerGrid[j] == Unknown {
				s.PlayerGrid[j] = UnflaggedMine
			}
		}
		s.Won = true
	}

	return revealed
}

// Revealed lists every open cell in row-major order.
func (s *GameState) Revealed() []Reveal {
	var ret []Reveal
	for i, v := range s.PlayerGrid {
		if v.Open() {
			ret = append(ret, Reveal{Row: i / s.Width, Col: i % s.Width, Count: int(v)})
		}
	}
	return ret
}

func (s *GameState) FlagCell(row, col int) {
	if !s.InBounds(row, col) {
		return
	}
	i := s.index(row, col)
	if s.PlayerGrid[i] == Unknown {
		s.PlayerGrid[i] = Flagged
	} else if s.PlayerGrid[i] == Flagged {
		s.PlayerGrid[i] = Unknown
	}
}

func (s *GameState) Flagged(row, col int) bool {
	return s.InBounds(row, col) && s.PlayerGrid[s.index(row, col)] == Flagged
}

// RevealPlayerGrid shows the whole board once the game is over.
func (s *GameState) RevealPlayerGrid() {
	if !s.Over() {
		s.Dead = true
	}
	for i := range s.Grid {
		row, col := i/s.Width, i%s.Width
		switch s.PlayerGrid[i] {
		case Flagged:
			if s.Grid[i] {
				s.PlayerGrid[i] = CorrectlyFlagged
			} else {
				s.PlayerGrid[i] = FalselyFlagged
			}
		case Unknown:
			if s.Grid[i] {
				s.PlayerGrid[i] = UnflaggedMine
			} else {
				s.PlayerGrid[i] = CellState(s.NearbyMines(row, col))
			}
		}
	}
}

// Mines lists the real mine positions as (row, col) pairs.
func (s *GameState) Mines() [][2]int {
	var ret [][2]int
	for i, m := range s.Grid {
		if m {
			ret = append(ret, [2]int{i / s.Width, i % s.Width})
		}
	}
	return ret
}
