package main

import (
	"github.com/gorilla/schema"
	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

type RunParams struct {
	Width     int     `schema:"width,required"`
	Height    int     `schema:"height,required"`
	MineCount int     `schema:"mine_count,required"`
	Seed      *uint64 `schema:"seed"`
	Propagate *bool   `schema:"propagate"`
	Random    string  `schema:"random"`
}

func decodeRunParams(src map[string][]string) (RunParams, error) {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	var dto RunParams
	err := dec.Decode(&dto, src)
	return dto, err
}

func (p RunParams) GameParams() mines.GameParams {
	return mines.GameParams{Width: p.Width, Height: p.Height, MineCount: p.MineCount}
}

// Settings overrides the server defaults with whatever the request set.
func (p RunParams) Settings(defaults agent.Settings) (agent.Settings, error) {
	settings := defaults
	if p.Propagate != nil {
		settings.Propagate = *p.Propagate
	}
	if p.Random != "" {
		mode, err := agent.ParseRandomMode(p.Random)
		if err != nil {
			return agent.Settings{}, err
		}
		settings.Random = mode
	}
	return settings, nil
}
