package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

func TestRunBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping batch run in short mode")
	}

	p := BatchParams{
		Game:     mines.GameParams{Width: 9, Height: 9, MineCount: 10},
		Games:    40,
		Workers:  4,
		Seed:     100,
		Settings: DefaultSettings(),
	}
	results, st, err := RunBatch(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, results, p.Games)

	assert.Equal(t, p.Games, st.Games)
	assert.Equal(t, st.Games, st.Won+st.Lost+st.Exhausted+st.Cancelled)
	assert.Positive(t, st.Won)
	assert.InDelta(t, float64(st.Won)/float64(st.Games), st.WinRate, 1e-9)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, p.Seed+uint64(i), r.Seed)
		require.NotNil(t, r.Game)
		assert.True(t, r.Game.Over())
	}

	// every game of a batch can be replayed on its own
	for _, r := range results[:5] {
		_, res, err := Play(context.Background(), p.Game, p.Settings, r.Seed)
		require.NoError(t, err)
		assert.Equal(t, r.Result, res)
	}

	// and the batch as a whole does not depend on scheduling
	p.Workers = 1
	again, st2, err := RunBatch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, st, st2)
	for i := range results {
		assert.Equal(t, results[i].Result, again[i].Result)
	}
}

func TestRunBatchRejectsBadParams(t *testing.T) {
	_, _, err := RunBatch(context.Background(), BatchParams{
		Game:  mines.GameParams{Width: 9, Height: 9, MineCount: 10},
		Games: 0,
	})
	assert.Error(t, err)

	_, _, err = RunBatch(context.Background(), BatchParams{
		Game:  mines.GameParams{Width: 2, Height: 2, MineCount: 9},
		Games: 3,
	})
	assert.ErrorIs(t, err, mines.ErrTooManyMines)
}

func TestSummarize(t *testing.T) {
	st := Summarize([]GameResult{
		{Result: Result{Outcome: Won, Moves: 10}},
		{Result: Result{Outcome: Lost, Moves: 2}},
		{Result: Result{Outcome: Won, Moves: 6}},
		{Result: Result{Outcome: Exhausted, Moves: 2}},
	})
	assert.Equal(t, Stats{
		Games:     4,
		Won:       2,
		Lost:      1,
		Exhausted: 1,
		WinRate:   0.5,
		AvgMoves:  5,
	}, st)

	assert.Equal(t, Stats{}, Summarize(nil))
}
