package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/mines"
	"github.com/vancomm/minesweeper-agent/internal/repository"
)

type StatsDTO struct {
	repository.RunStats
	WinRate float64 `json:"win_rate"`
}

func (app application) handleFetchStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.RunFilter{}

	if query.Has("seed") {
		gameParams, err := mines.ParseSeed(query.Get("seed"))
		if err != nil {
			app.badRequest(w, err)
			return
		}
		filter.GameParams = gameParams
	}

	if query.Has("propagate") {
		propagate, err := strconv.ParseBool(query.Get("propagate"))
		if err != nil {
			app.badRequest(w, err)
			return
		}
		filter.Propagate = &propagate
	}

	if query.Has("random") {
		mode, err := agent.ParseRandomMode(query.Get("random"))
		if err != nil {
			app.badRequest(w, err)
			return
		}
		random := string(mode)
		filter.RandomMode = &random
	}

	stats, err := app.repo.GetRunStats(r.Context(), filter)
	if err != nil {
		app.internalError(w, "failed to fetch stats",
			slog.Any("err", err), slog.Any("filter", filter))
		return
	}

	app.replyWithJSON(w, http.StatusOK, StatsDTO{RunStats: *stats, WinRate: stats.WinRate()})
}
