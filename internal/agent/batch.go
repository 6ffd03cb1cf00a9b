package agent

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minesweeper-agent/internal/mines"
	"golang.org/x/sync/errgroup"
)

// Rand returns the generator used for a single seeded game. The same seed
// always produces the same board and the same guesses.
func Rand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Play generates a board from seed and lets a fresh agent play it to the
// end.
func Play(ctx context.Context, params mines.GameParams, settings Settings, seed uint64) (*Agent, Result, error) {
	a, err := Start(&params, settings, Rand(seed))
	if err != nil {
		return nil, Result{}, err
	}
	return a, a.Play(ctx), nil
}

type BatchParams struct {
	Game     mines.GameParams
	Games    int
	Workers  int
	Seed     uint64
	Settings Settings
}

type GameResult struct {
	Index int
	Seed  uint64
	Result
	Game *mines.GameState
}

type Stats struct {
	Games     int     `json:"games"`
	Won       int     `json:"won"`
	Lost      int     `json:"lost"`
	Exhausted int     `json:"exhausted"`
	Cancelled int     `json:"cancelled"`
	WinRate   float64 `json:"win_rate"`
	AvgMoves  float64 `json:"avg_moves"`
}

func Summarize(results []GameResult) Stats {
	var (
		st    Stats
		moves int
	)
	for _, r := range results {
		st.Games++
		moves += r.Moves
		switch r.Outcome {
		case Won:
			st.Won++
		case Lost:
			st.Lost++
		case Exhausted:
			st.Exhausted++
		case Cancelled:
			st.Cancelled++
		}
	}
	if st.Games > 0 {
		st.WinRate = float64(st.Won) / float64(st.Games)
		st.AvgMoves = float64(moves) / float64(st.Games)
	}
	return st
}

/*
RunBatch plays p.Games independent games, at most p.Workers at a time.
Game i is seeded with p.Seed+i so any single game of a batch can be
replayed with Play.
*/
func RunBatch(ctx context.Context, p BatchParams) ([]GameResult, Stats, error) {
	if p.Games <= 0 {
		return nil, Stats{}, fmt.Errorf("invalid number of games %d", p.Games)
	}
	if err := p.Game.Validate(); err != nil {
		return nil, Stats{}, err
	}

	results := make([]GameResult, p.Games)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i := range p.Games {
		seed := p.Seed + uint64(i)
		g.Go(func() error {
			a, res, err := Play(gCtx, p.Game, p.Settings, seed)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = GameResult{Index: i, Seed: seed, Result: res, Game: a.Game()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	st := Summarize(results)
	Log.WithFields(logrus.Fields{
		"params":   p.Game.Seed(),
		"games":    st.Games,
		"won":      st.Won,
		"win_rate": st.WinRate,
	}).Info("batch finished")
	return results, st, nil
}
