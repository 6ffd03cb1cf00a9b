package main

import (
	"context"
	"flag"
	"fmt"
	"hash/maphash"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/config"
	"github.com/vancomm/minesweeper-agent/internal/inference"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

var log = logrus.New()

type options struct {
	params    mines.GameParams
	games     int
	workers   int
	seed      uint64
	propagate bool
	random    string
	print     bool
	verbose   bool
}

func parseFlags(cfg *config.Agent) (*options, error) {
	opts := &options{}
	flag.IntVar(&opts.params.Width, "width", 9, "board width")
	flag.IntVar(&opts.params.Height, "height", 9, "board height")
	flag.IntVar(&opts.params.MineCount, "mines", 10, "number of mines")
	flag.IntVar(&opts.games, "games", 1, "number of games to play")
	flag.IntVar(&opts.workers, "workers", cfg.MaxWorkers, "games played at once")
	flag.Uint64Var(&opts.seed, "seed", new(maphash.Hash).Sum64(), "seed of the first game")
	flag.BoolVar(&opts.propagate, "propagate", cfg.Settings.Propagate, "feed new certainties back into the statements")
	flag.StringVar(&opts.random, "random", string(cfg.Settings.Random), "guessing mode (uniform|scan)")
	flag.BoolVar(&opts.print, "print", false, "print the final board of the first game")
	flag.BoolVar(&opts.verbose, "v", config.Development(), "log every deduction")
	flag.Parse()

	if opts.games <= 0 {
		return nil, fmt.Errorf("-games must be positive")
	}
	return opts, opts.params.Validate()
}

func setupLogging(verbose bool) error {
	logLevel := logrus.InfoLevel
	if verbose {
		logLevel = logrus.DebugLevel
	}
	formatter := &logrus.TextFormatter{ForceColors: true}
	for _, l := range []*logrus.Logger{log, agent.Log, inference.Log, mines.Log} {
		l.SetLevel(logLevel)
		l.SetFormatter(formatter)
	}

	logFile, err := config.NewLogFile()
	if err != nil || logFile == nil {
		return err
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   logFile.Path,
		MaxSize:    logFile.MaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      logLevel,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	for _, l := range []*logrus.Logger{log, agent.Log, inference.Log, mines.Log} {
		l.AddHook(hook)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.NewAgent()
	if err != nil {
		log.Fatal("unable to read agent config: ", err)
	}

	opts, err := parseFlags(cfg)
	if err != nil {
		log.Fatal("invalid flags: ", err)
	}

	if err := setupLogging(opts.verbose); err != nil {
		log.Fatal("unable to set up logging: ", err)
	}

	random, err := agent.ParseRandomMode(opts.random)
	if err != nil {
		log.Fatal("invalid flags: ", err)
	}

	batch := agent.BatchParams{
		Game:     opts.params,
		Games:    opts.games,
		Workers:  opts.workers,
		Seed:     opts.seed,
		Settings: agent.Settings{Propagate: opts.propagate, Random: random},
	}
	log.WithFields(logrus.Fields{
		"params":    batch.Game.Seed(),
		"games":     batch.Games,
		"workers":   batch.Workers,
		"seed":      batch.Seed,
		"propagate": batch.Settings.Propagate,
		"random":    batch.Settings.Random,
	}).Info("starting")

	results, stats, err := agent.RunBatch(ctx, batch)
	if err != nil {
		log.Fatal("batch failed: ", err)
	}

	for _, r := range results {
		log.WithFields(logrus.Fields{
			"game":       r.Index,
			"seed":       r.Seed,
			"outcome":    r.Outcome,
			"moves":      r.Moves,
			"safe":       r.SafeMoves,
			"random":     r.RandomMoves,
			"flagged":    r.MinesFlagged,
			"statements": r.Statements,
		}).Info("game over")
	}

	if opts.print {
		game := results[0].Game
		game.RevealPlayerGrid()
		fmt.Print(game.PlayerGrid.ToString(game.Width))
	}

	fmt.Printf(
		"%s: %d games, %d won, %d lost, %d exhausted, win rate %.1f%%, %.1f moves per game\n",
		batch.Game.Seed(), stats.Games, stats.Won, stats.Lost, stats.Exhausted,
		stats.WinRate*100, stats.AvgMoves,
	)
}
