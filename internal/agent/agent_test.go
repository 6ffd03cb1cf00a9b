package agent

import (
	"context"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-agent/internal/inference"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

func TestMain(m *testing.M) {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	os.Exit(m.Run())
}

// openedGame builds a board from rows, '*' marks a mine, and opens
// (row, col) on it.
func openedGame(t *testing.T, row, col int, rows ...string) *mines.GameState {
	t.Helper()
	height, width := len(rows), len(rows[0])
	game := &mines.GameState{
		GameParams: mines.GameParams{Width: width, Height: height},
		Grid:       make([]bool, 0, width*height),
		PlayerGrid: make(mines.Grid, width*height),
	}
	for _, r := range rows {
		for _, ch := range r {
			game.Grid = append(game.Grid, ch == '*')
			if ch == '*' {
				game.MineCount++
			}
		}
	}
	for i := range game.PlayerGrid {
		game.PlayerGrid[i] = mines.Unknown
	}
	require.NotEmpty(t, game.OpenCell(row, col))
	return game
}

var scan = Settings{Propagate: true, Random: RandomScan}

func TestAgentFlagsDeducedMine(t *testing.T) {
	game := openedGame(t, 0, 0, "..*.")
	a := New(game, scan, nil)

	assert.True(t, a.Engine().IsMine(inference.Cell{Row: 0, Col: 2}))
	assert.True(t, game.Flagged(0, 2))

	res := a.Play(context.Background())
	assert.Equal(t, Won, res.Outcome)
	assert.Equal(t, 1, res.Moves)
	assert.Equal(t, 1, res.RandomMoves)
	assert.Equal(t, 1, res.MinesFlagged)
}

func TestAgentFollowsSafeMove(t *testing.T) {
	game := openedGame(t, 0, 0, "..*..")
	a := New(game, scan, nil)

	var moves []Move
	a.OnMove = func(m Move) { moves = append(moves, m) }
	res := a.Play(context.Background())

	assert.Equal(t, Won, res.Outcome)
	require.Len(t, moves, 2)

	assert.Equal(t, RandomMove, moves[0].Kind)
	assert.Equal(t, inference.Cell{Row: 0, Col: 3}, moves[0].Cell)
	assert.Equal(t, []mines.Reveal{{Row: 0, Col: 3, Count: 1}}, moves[0].Revealed)
	assert.Equal(t, 1, moves[0].NewSafes)

	assert.Equal(t, SafeMove, moves[1].Kind)
	assert.Equal(t, inference.Cell{Row: 0, Col: 4}, moves[1].Cell)

	assert.Equal(t, 2, res.Moves)
	assert.Equal(t, 1, res.SafeMoves)
	assert.Equal(t, 1, res.RandomMoves)
}

func TestAgentLosesOnBadGuess(t *testing.T) {
	game := openedGame(t, 1, 1,
		".*",
		"..",
	)
	a := New(game, scan, nil)
	res := a.Play(context.Background())

	assert.Equal(t, Lost, res.Outcome)
	assert.True(t, game.Dead)
	assert.Equal(t, 2, res.RandomMoves)
	assert.True(t, a.Engine().IsMine(inference.Cell{Row: 0, Col: 1}))

	_, ok := a.Step(context.Background())
	assert.False(t, ok, "no moves once the game is over")
}

func TestAgentPropagation(t *testing.T) {
	mine := inference.Cell{Row: 0, Col: 2}
	contains := func(a *Agent) bool {
		for _, s := range a.Engine().Knowledge() {
			if s.Cells.Has(mine) {
				return true
			}
		}
		return false
	}

	lagging := New(openedGame(t, 0, 0, "..*.."), Settings{Random: RandomScan}, nil)
	assert.True(t, lagging.Engine().IsMine(mine))
	assert.True(t, contains(lagging), "certainty stays inside the statement")

	eager := New(openedGame(t, 0, 0, "..*.."), scan, nil)
	assert.True(t, eager.Engine().IsMine(mine))
	assert.False(t, contains(eager))
}

// A mine found by one reveal leaves its neighbor alone in a statement with
// no mines left; the neighbor is safe before any further observation.
func TestAgentPropagationChains(t *testing.T) {
	reveals := []mines.Reveal{
		{Row: 0, Col: 1, Count: 1},
		{Row: 0, Col: 3, Count: 1},
	}
	left := inference.Cell{Row: 0, Col: 0}

	for _, tc := range []struct {
		name      string
		propagate bool
		safes     int
	}{
		{"lagging", false, 0},
		{"eager", true, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			game := openedGame(t, 0, 0, "..*.")
			a := newAgent(inference.New(1, 4, nil), game, Settings{Propagate: tc.propagate, Random: RandomScan})

			nsafes, nmines := a.observe(context.Background(), reveals)
			assert.Equal(t, tc.safes, nsafes)
			assert.Equal(t, 1, nmines)
			assert.Equal(t, tc.propagate, a.Engine().IsSafe(left))
			assert.True(t, game.Flagged(0, 2))
			assert.Zero(t, a.pending.Len())
			assert.Zero(t, a.queued.Len())
		})
	}
}

func TestAgentObserveStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newAgent(inference.New(1, 4, nil), openedGame(t, 0, 0, "..*."), scan)
	nsafes, nmines := a.observe(ctx, []mines.Reveal{{Row: 0, Col: 1, Count: 1}})
	assert.Zero(t, nsafes+nmines)
	assert.Zero(t, a.Engine().Len())
}

func TestAgentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(openedGame(t, 0, 0, "..*.."), scan, nil)
	res := a.Play(ctx)
	assert.Equal(t, Cancelled, res.Outcome)
	assert.Equal(t, 0, res.Moves)
}

func TestStart(t *testing.T) {
	params := mines.GameParams{Width: 8, Height: 8, MineCount: 10}
	a, err := Start(&params, DefaultSettings(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 1, a.Result().Moves)
	assert.False(t, a.Game().Dead)
	assert.NotZero(t, a.Engine().MovesMade().Len())

	_, err = Start(&mines.GameParams{Width: 2, Height: 2, MineCount: 4}, DefaultSettings(), rand.New(rand.NewPCG(1, 2)))
	assert.ErrorIs(t, err, mines.ErrTooManyMines)
}

func TestStartScanOpensCorner(t *testing.T) {
	params := mines.GameParams{Width: 5, Height: 5, MineCount: 3}
	a, err := Start(&params, Settings{Random: RandomScan}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.True(t, a.Engine().MovesMade().Has(inference.Cell{}))
}

// Seeded games are played many times over; the agent must never flag a
// cell that is not a mine nor open a cell it knew to be one.
func TestAgentIsSound(t *testing.T) {
	params := mines.GameParams{Width: 9, Height: 9, MineCount: 10}

	for _, settings := range []Settings{
		DefaultSettings(),
		{Propagate: false, Random: RandomUniform},
		{Propagate: true, Random: RandomScan},
	} {
		won := 0
		for seed := range uint64(30) {
			a, err := Start(&params, settings, Rand(seed))
			require.NoError(t, err)

			a.OnMove = func(m Move) {
				if m.Exploded {
					assert.Equal(t, RandomMove, m.Kind, "safe move hit a mine")
				}
				if settings.Propagate {
					safes, mined := a.Engine().PendingCertainties()
					assert.Zero(t, safes.Len()+mined.Len(), "certainties left in statements")
				}
			}
			res := a.Play(context.Background())

			game := a.Game()
			for i, v := range game.PlayerGrid {
				if v == mines.Flagged {
					assert.True(t, game.Grid[i], "cell %d flagged but safe", i)
				}
			}
			assert.Equal(t, res.Moves, res.SafeMoves+res.RandomMoves)
			assert.Equal(t, game.Won, res.Outcome == Won)
			if res.Outcome == Won {
				won++
			}
		}
		assert.Positive(t, won, "settings %+v never won", settings)
	}
}

func TestParseRandomMode(t *testing.T) {
	m, err := ParseRandomMode("scan")
	require.NoError(t, err)
	assert.Equal(t, RandomScan, m)

	_, err = ParseRandomMode("bayes")
	assert.Error(t, err)
}
