package agent

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/minesweeper-agent/internal/inference"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

var Log = logrus.New()

type RandomMode string

const (
	RandomUniform RandomMode = "uniform" // uniform among eligible cells
	RandomScan    RandomMode = "scan"    // first eligible cell, row-major
)

func ParseRandomMode(s string) (RandomMode, error) {
	switch m := RandomMode(s); m {
	case RandomUniform, RandomScan:
		return m, nil
	}
	return "", fmt.Errorf("unknown random mode %q", s)
}

type Settings struct {
	// Propagate feeds every certainty found by an observation back into
	// the engine's statements before the next move.
	Propagate bool
	Random    RandomMode
}

func DefaultSettings() Settings {
	return Settings{Propagate: true, Random: RandomUniform}
}

type MoveKind string

const (
	SafeMove   MoveKind = "safe"
	RandomMove MoveKind = "random"
)

type Move struct {
	Cell     inference.Cell `json:"cell"`
	Kind     MoveKind       `json:"kind"`
	Revealed []mines.Reveal `json:"revealed,omitempty"`
	Exploded bool           `json:"exploded,omitempty"`
	NewSafes int            `json:"new_safes"`
	NewMines int            `json:"new_mines"`
}

type Outcome string

const (
	Won       Outcome = "won"
	Lost      Outcome = "lost"
	Exhausted Outcome = "exhausted"
	Cancelled Outcome = "cancelled"
)

type Result struct {
	Outcome      Outcome `json:"outcome"`
	Moves        int     `json:"moves"`
	SafeMoves    int     `json:"safe_moves"`
	RandomMoves  int     `json:"random_moves"`
	MinesFlagged int     `json:"mines_flagged"`
	Statements   int     `json:"statements"`
}

type certainty struct {
	cell inference.Cell
	mine bool
}

/*
Agent plays one game: it asks the engine for a move, opens it on the
board and reports every cell the board uncovers back to the engine.
*/
type Agent struct {
	engine   *inference.Engine
	game     *mines.GameState
	settings Settings
	pending  deque.Deque[certainty]
	queued   inference.CellSet
	result   Result

	// OnMove, when set, is called after every move.
	OnMove func(Move)
}

// New wraps a game that already has its starting cell open.
func New(game *mines.GameState, settings Settings, r *rand.Rand) *Agent {
	if settings.Random == RandomScan {
		r = nil
	}
	a := newAgent(inference.New(game.Height, game.Width, r), game, settings)
	a.observe(context.Background(), game.Revealed())
	return a
}

func newAgent(engine *inference.Engine, game *mines.GameState, settings Settings) *Agent {
	return &Agent{
		engine:   engine,
		game:     game,
		settings: settings,
		queued:   inference.NewCellSet(),
	}
}

// Start plays the opening move and generates the board around it. The
// opening cell is picked the same way RandomMove would pick it on an
// empty board.
func Start(params *mines.GameParams, settings Settings, r *rand.Rand) (*Agent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var first inference.Cell
	if settings.Random != RandomScan {
		first = inference.Cell{Row: r.IntN(params.Height), Col: r.IntN(params.Width)}
	}
	game, err := mines.NewGame(params, first.Row, first.Col, r)
	if err != nil {
		return nil, fmt.Errorf("unable to generate game %s: %w", params.Seed(), err)
	}
	a := New(game, settings, r)
	a.result.Moves, a.result.RandomMoves = 1, 1
	return a, nil
}

func (a *Agent) Engine() *inference.Engine {
	return a.engine
}

func (a *Agent) Game() *mines.GameState {
	return a.game
}

// observe feeds the cells the board revealed to the engine, stopping
// early once ctx is done.
func (a *Agent) observe(ctx context.Context, revealed []mines.Reveal) (nsafes, nmines int) {
	for _, r := range revealed {
		if ctx.Err() != nil {
			return
		}
		c := inference.Cell{Row: r.Row, Col: r.Col}
		newSafes, newMines := a.engine.AddKnowledge(c, r.Count)
		nsafes += newSafes.Len()
		nmines += newMines.Len()

		for _, m := range newMines.Sorted() {
			a.flag(m)
		}
		if !a.settings.Propagate {
			continue
		}
		a.enqueue(newSafes, newMines)
		s, m := a.propagate()
		nsafes += s
		nmines += m
	}
	return
}

// enqueue queues every cell that is not already waiting and returns how
// many were added.
func (a *Agent) enqueue(safes, mined inference.CellSet) (nsafes, nmines int) {
	for _, c := range safes.Sorted() {
		if !a.queued.Has(c) {
			a.queued.Add(c)
			a.pending.PushBack(certainty{cell: c})
			nsafes++
		}
	}
	for _, c := range mined.Sorted() {
		if !a.queued.Has(c) {
			a.queued.Add(c)
			a.pending.PushBack(certainty{cell: c, mine: true})
			nmines++
		}
	}
	return
}

/*
propagate marks the queued certainties in the engine one at a time.
Taking a cell out of the statements can leave another statement wholly
safe or wholly mined; its cells join the queue, until nothing is left.
It returns the number of certainties found on the way.
*/
func (a *Agent) propagate() (nsafes, nmines int) {
	for a.pending.Len() != 0 {
		p := a.pending.PopFront()
		a.queued.Remove(p.cell)
		if p.mine {
			a.engine.MarkMine(p.cell)
			a.flag(p.cell)
		} else {
			a.engine.MarkSafe(p.cell)
		}

		s, m := a.enqueue(a.engine.PendingCertainties())
		nsafes += s
		nmines += m
	}
	return
}

func (a *Agent) flag(c inference.Cell) {
	if !a.game.Flagged(c.Row, c.Col) {
		a.game.FlagCell(c.Row, c.Col)
		a.result.MinesFlagged++
	}
}

// Step makes one move. It returns false when the game is over or no
// eligible cell is left.
func (a *Agent) Step(ctx context.Context) (Move, bool) {
	if a.game.Over() {
		return Move{}, false
	}

	move := Move{Kind: SafeMove}
	c, ok := a.engine.SafeMove()
	if !ok {
		move.Kind = RandomMove
		if c, ok = a.engine.RandomMove(); !ok {
			return Move{}, false
		}
	}
	move.Cell = c

	a.result.Moves++
	if move.Kind == SafeMove {
		a.result.SafeMoves++
	} else {
		a.result.RandomMoves++
		Log.WithFields(logrus.Fields{
			"cell":  c,
			"known": a.engine.Safes().Len() + a.engine.Mines().Len(),
		}).Debug("no safe move, guessing")
	}

	move.Revealed = a.game.OpenCell(c.Row, c.Col)
	if a.game.Dead {
		move.Exploded = true
		a.engine.MarkMine(c)
	} else {
		move.NewSafes, move.NewMines = a.observe(ctx, move.Revealed)
	}

	if a.OnMove != nil {
		a.OnMove(move)
	}
	return move, true
}

// Play steps until the game ends or ctx is done.
func (a *Agent) Play(ctx context.Context) Result {
	for ctx.Err() == nil {
		if _, ok := a.Step(ctx); !ok {
			break
		}
	}

	switch {
	case a.game.Won:
		a.result.Outcome = Won
	case a.game.Dead:
		a.result.Outcome = Lost
	case ctx.Err() != nil:
		a.result.Outcome = Cancelled
	default:
		a.result.Outcome = Exhausted
	}
	return a.finish()
}

// finish tells the engine where the mines really were.
func (a *Agent) finish() Result {
	if a.game.Over() {
		for _, m := range a.game.Mines() {
			a.engine.MarkMine(inference.Cell{Row: m[0], Col: m[1]})
		}
	}
	a.result.Statements = a.engine.Len()

	Log.WithFields(logrus.Fields{
		"outcome": a.result.Outcome,
		"moves":   a.result.Moves,
		"random":  a.result.RandomMoves,
		"params":  a.game.Seed(),
	}).Debug("game finished")
	return a.result
}

func (a *Agent) Result() Result {
	return a.result
}
