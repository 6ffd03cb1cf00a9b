package inference

import (
	"cmp"
	"fmt"
	"slices"
)

// Cell is a (row, column) coordinate on the board. Cells are compared by
// value and are used directly as map keys.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

func (c Cell) InBounds(height, width int) bool {
	return 0 <= c.Row && c.Row < height && 0 <= c.Col && c.Col < width
}

// Neighbors returns the up to 8 cells adjacent to c that lie inside a
// height x width grid, in row-major order.
func (c Cell) Neighbors(height, width int) []Cell {
	ret := make([]Cell, 0, 8)
	for r := c.Row - 1; r <= c.Row+1; r++ {
		for col := c.Col - 1; col <= c.Col+1; col++ {
			n := Cell{r, col}
			if n == c || !n.InBounds(height, width) {
				continue
			}
			ret = append(ret, n)
		}
	}
	return ret
}

func compareCells(a, b Cell) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

type void struct{}

// CellSet is an unordered set of cells. The zero value is not usable, use
// NewCellSet.
type CellSet map[Cell]void

func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = void{}
	}
	return s
}

func (s CellSet) Add(c Cell) {
	s[c] = void{}
}

func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

func (s CellSet) Remove(c Cell) {
	delete(s, c)
}

func (s CellSet) Len() int {
	return len(s)
}

func (s CellSet) Clone() CellSet {
	ret := make(CellSet, len(s))
	for c := range s {
		ret[c] = void{}
	}
	return ret
}

// Union adds every member of x to s.
func (s CellSet) Union(x CellSet) {
	for c := range x {
		s[c] = void{}
	}
}

// Difference returns a new set holding the members of s not in x.
func (s CellSet) Difference(x CellSet) CellSet {
	ret := make(CellSet, len(s))
	for c := range s {
		if !x.Has(c) {
			ret[c] = void{}
		}
	}
	return ret
}

// SubsetOf reports whether every member of s is in x. The empty set is a
// subset of any set.
func (s CellSet) SubsetOf(x CellSet) bool {
	if len(s) > len(x) {
		return false
	}
	for c := range s {
		if !x.Has(c) {
			return false
		}
	}
	return true
}

func (s CellSet) Equal(x CellSet) bool {
	return len(s) == len(x) && s.SubsetOf(x)
}

// Sorted returns the members in row-major order.
func (s CellSet) Sorted() []Cell {
	ret := make([]Cell, 0, len(s))
	for c := range s {
		ret = append(ret, c)
	}
	slices.SortFunc(ret, compareCells)
	return ret
}

func (s CellSet) String() string {
	return fmt.Sprint(s.Sorted())
}
