package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vancomm/minesweeper-agent/internal/config"
	"github.com/vancomm/minesweeper-agent/internal/repository"
)

type runStore interface {
	CreateRun(context.Context, repository.CreateRunParams) (*repository.AgentRun, error)
	FetchRun(context.Context, int64) (*repository.AgentRun, error)
	FindRun(context.Context, repository.RunKey) (*repository.AgentRun, error)
	GetRunStats(context.Context, repository.RunFilter) (*repository.RunStats, error)
}

type application struct {
	logger *slog.Logger
	repo   runStore
	agent  *config.Agent
	ws     *config.WebSocket
}

func (app application) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", app.handleNewRun)
	mux.HandleFunc("GET /stats", app.handleFetchStats)
	mux.HandleFunc("GET /connect", app.wsConnect)
	mux.HandleFunc("GET /{id}", app.handleFetchRun)
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	return mux
}

func (app application) badRequest(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte("your request is invalid: " + err.Error()))
}

func (app application) notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("not found :("))
}

func (app application) internalError(w http.ResponseWriter, msg string, args ...any) {
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("internal error"))
	app.logger.Error(msg, args...)
}

func (app application) replyWithJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		app.internalError(w, "failed to marshal json", slog.Any("error", err))
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		app.logger.Error(
			"failed to send data", slog.Any("data", v), slog.Any("error", err),
		)
	}
}
