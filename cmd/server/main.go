package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/config"
	"github.com/vancomm/minesweeper-agent/internal/database"
	"github.com/vancomm/minesweeper-agent/internal/middleware"
	"github.com/vancomm/minesweeper-agent/internal/repository"
)

func main() {
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, nil)
	if config.Development() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		})
		agent.Log.SetLevel(logrus.DebugLevel)
	}
	logger := slog.New(handler)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agentCfg, err := config.NewAgent()
	if err != nil {
		logger.Error("failed to read agent config", slog.Any("error", err))
		os.Exit(1)
	}

	ws, err := config.NewWebSocket()
	if err != nil {
		logger.Error("failed to read ws config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.Connect(ctx)
	if err != nil {
		logger.Error("failed to connect to db", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	app := &application{
		logger: logger,
		repo:   repository.New(db),
		agent:  agentCfg,
		ws:     ws,
	}

	port := config.Port()
	basePath := config.BasePath()

	var h http.Handler = app.ServeMux()
	if basePath != "" {
		h = http.StripPrefix(basePath, h)
	}
	server := &http.Server{
		Addr:    port,
		Handler: middleware.Wrap(h, middleware.Logging(logger), middleware.Cors()),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	logger.Info("agent online",
		slog.String("port", port),
		slog.String("base path", basePath),
		slog.Bool("propagate", agentCfg.Settings.Propagate),
		slog.String("random", string(agentCfg.Settings.Random)),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
		defer cancel()
		return server.Shutdown(sCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("exit reason", slog.Any("error", err))
		os.Exit(1)
	}
}
