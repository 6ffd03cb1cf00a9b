package inference

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

/*
Engine keeps what the agent knows about one board: the cells it has
opened, the cells proven safe or mined, and every statement it has
collected or derived so far.

The engine trusts its input. A wrong count passed to AddKnowledge, or a
MarkMine on a cell that is in fact safe, is not detected and silently
poisons every later deduction. An Engine must not be shared between
goroutines.
*/
type Engine struct {
	height, width int
	rnd           *rand.Rand

	movesMade CellSet
	safes     CellSet
	mines     CellSet
	knowledge []*Statement
	// number of statements per key, kept in step with every in-place mark
	known map[string]int
}

// New returns an engine for a height x width board. When r is nil
// RandomMove picks the first eligible cell in row-major order, otherwise
// it picks uniformly among all eligible cells using r.
func New(height, width int, r *rand.Rand) *Engine {
	return &Engine{
		height:    height,
		width:     width,
		rnd:       r,
		movesMade: NewCellSet(),
		safes:     NewCellSet(),
		mines:     NewCellSet(),
		known:     make(map[string]int),
	}
}

func (e *Engine) Size() (height, width int) {
	return e.height, e.width
}

// MarkMine records c as a mine and removes it from every statement.
func (e *Engine) MarkMine(c Cell) {
	e.mines.Add(c)
	for _, s := range e.knowledge {
		if s.Cells.Has(c) {
			e.unindex(s)
			s.MarkMine(c)
			e.known[s.key()]++
		}
	}
}

// MarkSafe records c as safe and removes it from every statement.
func (e *Engine) MarkSafe(c Cell) {
	e.safes.Add(c)
	for _, s := range e.knowledge {
		if s.Cells.Has(c) {
			e.unindex(s)
			s.MarkSafe(c)
			e.known[s.key()]++
		}
	}
}

/*
AddKnowledge is called once the board has opened c and reported count
mines around it. It returns the cells that became known safe or known
mined during this call.

New certainties land in the engine's safe and mine sets but are not
subtracted from the statements. Callers after the strongest deduction
should pass each returned cell to MarkSafe or MarkMine before the next
observation.
*/
func (e *Engine) AddKnowledge(c Cell, count int) (newSafes, newMines CellSet) {
	e.movesMade.Add(c)
	e.safes.Add(c)

	cells := NewCellSet()
	for _, n := range c.Neighbors(e.height, e.width) {
		switch {
		case e.mines.Has(n):
			count--
		case e.safes.Has(n):
		default:
			cells.Add(n)
		}
	}
	e.add(NewStatement(cells, count))

	newSafes, newMines = e.collectCertainties()
	e.resolveSubsets()

	if len(newSafes) > 0 || len(newMines) > 0 {
		Log.WithFields(logrus.Fields{
			"cell":       c,
			"count":      count,
			"safes":      newSafes,
			"mines":      newMines,
			"statements": len(e.knowledge),
		}).Debug("new certainties")
	}
	return
}

// collectCertainties scans every statement against the same snapshot of
// the belief sets and only then merges what it found.
func (e *Engine) collectCertainties() (newSafes, newMines CellSet) {
	newSafes, newMines = e.PendingCertainties()
	e.safes.Union(newSafes)
	e.mines.Union(newMines)
	return
}

// resolveSubsets compares every pair of statements present on entry once.
// When one cell set contains the other, the cells left over hold exactly
// the difference of the two counts.
func (e *Engine) resolveSubsets() {
	n := len(e.knowledge)
	for i := range n {
		for j := i + 1; j < n; j++ {
			a, b := e.knowledge[i], e.knowledge[j]
			var s *Statement
			if a.Cells.SubsetOf(b.Cells) {
				s = NewStatement(b.Cells.Difference(a.Cells), b.Count-a.Count)
			} else if b.Cells.SubsetOf(a.Cells) {
				s = NewStatement(a.Cells.Difference(b.Cells), a.Count-b.Count)
			} else {
				continue
			}
			if !e.knows(s) {
				e.add(s)
			}
		}
	}
}

func (e *Engine) add(s *Statement) {
	e.knowledge = append(e.knowledge, s)
	e.known[s.key()]++
}

func (e *Engine) unindex(s *Statement) {
	k := s.key()
	if e.known[k] <= 1 {
		delete(e.known, k)
	} else {
		e.known[k]--
	}
}

// knows reports whether a statement equal to s is already held.
func (e *Engine) knows(s *Statement) bool {
	return e.known[s.key()] > 0
}

// PendingCertainties returns the cells some statement already proves
// safe or mined that are not yet in the belief sets. It does not change
// the engine.
func (e *Engine) PendingCertainties() (safes, mines CellSet) {
	safes, mines = NewCellSet(), NewCellSet()
	for _, s := range e.knowledge {
		switch {
		case s.allSafe():
			for c := range s.Cells {
				if !e.safes.Has(c) {
					safes.Add(c)
				}
			}
		case s.allMines():
			for c := range s.Cells {
				if !e.mines.Has(c) {
					mines.Add(c)
				}
			}
		}
	}
	return
}

// SafeMove returns a known safe cell that has not been opened yet.
func (e *Engine) SafeMove() (Cell, bool) {
	for _, c := range e.safes.Sorted() {
		if !e.movesMade.Has(c) {
			return c, true
		}
	}
	return Cell{}, false
}

// RandomMove returns a cell that has not been opened and is not known to
// be a mine.
func (e *Engine) RandomMove() (Cell, bool) {
	var candidates []Cell
	for row := range e.height {
		for col := range e.width {
			c := Cell{row, col}
			if e.movesMade.Has(c) || e.mines.Has(c) {
				continue
			}
			if e.rnd == nil {
				return c, true
			}
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Cell{}, false
	}
	return candidates[e.rnd.IntN(len(candidates))], true
}

func (e *Engine) Safes() CellSet {
	return e.safes.Clone()
}

func (e *Engine) Mines() CellSet {
	return e.mines.Clone()
}

func (e *Engine) MovesMade() CellSet {
	return e.movesMade.Clone()
}

func (e *Engine) IsSafe(c Cell) bool {
	return e.safes.Has(c)
}

func (e *Engine) IsMine(c Cell) bool {
	return e.mines.Has(c)
}

// Knowledge returns copies of the statements in the order they were
// learned.
func (e *Engine) Knowledge() []Statement {
	ret := make([]Statement, len(e.knowledge))
	for i, s := range e.knowledge {
		ret[i] = Statement{Cells: s.Cells.Clone(), Count: s.Count}
	}
	return ret
}

func (e *Engine) Len() int {
	return len(e.knowledge)
}
