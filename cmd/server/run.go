package main

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/mines"
	"github.com/vancomm/minesweeper-agent/internal/repository"
)

type RunDTO struct {
	RunId     int64  `json:"run_id"`
	Seed      string `json:"seed"`
	RngSeed   uint64 `json:"rng_seed"`
	Propagate bool   `json:"propagate"`
	Random    string `json:"random"`
	agent.Result
	Board     string    `json:"board"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRunDTO(run repository.AgentRun) (*RunDTO, error) {
	game, err := mines.DecodeGameState(run.State)
	if err != nil {
		return nil, err
	}
	game.RevealPlayerGrid()

	params := run.GameParams()
	return &RunDTO{
		RunId:     run.AgentRunId,
		Seed:      params.Seed(),
		RngSeed:   run.RngSeed(),
		Propagate: run.Propagate,
		Random:    run.RandomMode,
		Result: agent.Result{
			Outcome:      agent.Outcome(run.Outcome),
			Moves:        run.Moves,
			SafeMoves:    run.SafeMoves,
			RandomMoves:  run.RandomMoves,
			MinesFlagged: run.MinesFlagged,
			Statements:   run.Statements,
		},
		Board:     game.PlayerGrid.ToString(game.Width),
		CreatedAt: run.CreatedAt.Time,
	}, nil
}

func (app application) replyWithRun(w http.ResponseWriter, status int, run *repository.AgentRun) {
	dto, err := NewRunDTO(*run)
	if err != nil {
		app.internalError(w, "stored game state invalid", slog.Any("error", err))
		return
	}
	app.replyWithJSON(w, status, dto)
}

func (app application) handleNewRun(w http.ResponseWriter, r *http.Request) {
	dto, err := decodeRunParams(r.URL.Query())
	if err != nil {
		app.badRequest(w, err)
		return
	}

	params := dto.GameParams()
	if err := params.Validate(); err != nil {
		app.badRequest(w, err)
		return
	}

	settings, err := dto.Settings(app.agent.Settings)
	if err != nil {
		app.badRequest(w, err)
		return
	}

	seed := rand.Uint64()
	if dto.Seed != nil {
		seed = *dto.Seed
	}
	key := repository.RunKey{GameParams: params, Seed: seed, Settings: settings}

	a, res, err := agent.Play(r.Context(), params, settings, seed)
	if err != nil {
		app.badRequest(w, err)
		return
	}
	if res.Outcome == agent.Cancelled {
		app.logger.Warn("run cancelled", slog.String("params", params.Seed()))
		return
	}

	createParams, err := repository.NewCreateRunParams(key, res, a.Game())
	if err != nil {
		app.internalError(w, "unable to serialize game state", slog.Any("error", err))
		return
	}

	run, err := app.repo.CreateRun(r.Context(), createParams)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		existing, err := app.repo.FindRun(r.Context(), key)
		if err != nil {
			app.internalError(w, "unable to find conflicting run", slog.Any("error", err))
			return
		}
		app.replyWithRun(w, http.StatusConflict, existing)
		return
	}
	if err != nil {
		app.internalError(w, "failed to store run", slog.Any("error", err))
		return
	}

	app.logger.Debug(
		"run stored",
		slog.Int64("id", run.AgentRunId),
		slog.String("outcome", run.Outcome),
	)
	app.replyWithRun(w, http.StatusCreated, run)
}

func (app application) handleFetchRun(w http.ResponseWriter, r *http.Request) {
	runId, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		app.notFound(w)
		return
	}

	run, err := app.repo.FetchRun(r.Context(), runId)
	if errors.Is(err, pgx.ErrNoRows) {
		app.notFound(w)
		return
	}
	if err != nil {
		app.internalError(w, "unable to fetch run from db", slog.Any("error", err))
		return
	}

	app.replyWithRun(w, http.StatusOK, run)
}
