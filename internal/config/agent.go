package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vancomm/minesweeper-agent/internal/agent"
)

type Agent struct {
	Settings   agent.Settings
	MaxWorkers int
}

// NewAgent reads the agent settings. Every variable is optional.
func NewAgent() (*Agent, error) {
	cfg := &Agent{
		Settings:   agent.DefaultSettings(),
		MaxWorkers: 4,
	}

	if propagateStr, ok := os.LookupEnv("AGENT_PROPAGATE"); ok {
		propagate, err := strconv.ParseBool(propagateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AGENT_PROPAGATE: %w", err)
		}
		cfg.Settings.Propagate = propagate
	}

	if randomStr, ok := os.LookupEnv("AGENT_RANDOM"); ok {
		mode, err := agent.ParseRandomMode(randomStr)
		if err != nil {
			return nil, fmt.Errorf("invalid AGENT_RANDOM: %w", err)
		}
		cfg.Settings.Random = mode
	}

	if workersStr, ok := os.LookupEnv("AGENT_MAX_WORKERS"); ok {
		workers, err := strconv.Atoi(workersStr)
		if err != nil {
			return nil, fmt.Errorf("unable to convert AGENT_MAX_WORKERS to int: %w", err)
		}
		if workers <= 0 {
			return nil, fmt.Errorf("AGENT_MAX_WORKERS must be positive, got %d", workers)
		}
		cfg.MaxWorkers = workers
	}

	return cfg, nil
}

type LogFile struct {
	Path      string
	MaxSizeMB int
}

// NewLogFile returns nil when AGENT_LOG_FILE is not set.
func NewLogFile() (*LogFile, error) {
	path, ok := os.LookupEnv("AGENT_LOG_FILE")
	if !ok || path == "" {
		return nil, nil
	}

	cfg := &LogFile{Path: path, MaxSizeMB: 10}
	if sizeStr, ok := os.LookupEnv("AGENT_LOG_MAX_SIZE_MB"); ok {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("unable to convert AGENT_LOG_MAX_SIZE_MB to int: %w", err)
		}
		cfg.MaxSizeMB = size
	}
	return cfg, nil
}
