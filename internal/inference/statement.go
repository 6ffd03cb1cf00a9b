package inference

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement asserts that exactly Count of Cells are mines.
//
// 0 <= Count <= len(Cells) holds as long as the board only ever reports
// true counts. Nothing here checks or clamps it: a statement built from a
// wrong count stays wrong, and that is what the caller should see.
type Statement struct {
	Cells CellSet
	Count int
}

func NewStatement(cells CellSet, count int) *Statement {
	return &Statement{Cells: cells, Count: count}
}

func (s Statement) String() string {
	return fmt.Sprintf("%s = %d", s.Cells, s.Count)
}

func (s Statement) Equal(o Statement) bool {
	return s.Count == o.Count && s.Cells.Equal(o.Cells)
}

func (s Statement) allMines() bool {
	return len(s.Cells) != 0 && len(s.Cells) == s.Count
}

func (s Statement) allSafe() bool {
	return len(s.Cells) != 0 && s.Count == 0
}

// KnownMines returns a copy of the statement's cells when every one of
// them must be a mine.
func (s Statement) KnownMines() (CellSet, bool) {
	if !s.allMines() {
		return nil, false
	}
	return s.Cells.Clone(), true
}

// KnownSafes returns a copy of the statement's cells when none of them
// can be a mine.
func (s Statement) KnownSafes() (CellSet, bool) {
	if !s.allSafe() {
		return nil, false
	}
	return s.Cells.Clone(), true
}

// key is equal for two statements exactly when Equal holds.
func (s Statement) key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.Count))
	for _, c := range s.Cells.Sorted() {
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(c.Row))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Col))
	}
	return b.String()
}

// MarkMine drops c from the statement and accounts for its mine.
func (s *Statement) MarkMine(c Cell) {
	if s.Cells.Has(c) {
		s.Cells.Remove(c)
		s.Count--
	}
}

// MarkSafe drops c from the statement.
func (s *Statement) MarkSafe(c Cell) {
	s.Cells.Remove(c)
}
