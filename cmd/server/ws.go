package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

type wsMessage struct {
	Type     string         `json:"type"`
	Error    string         `json:"error,omitempty"`
	RngSeed  uint64         `json:"rng_seed,omitempty"`
	Revealed []mines.Reveal `json:"revealed,omitempty"`
	Move     *agent.Move    `json:"move,omitempty"`
	Result   *agent.Result  `json:"result,omitempty"`
	Board    string         `json:"board,omitempty"`
}

// parseRunCommand reads "p <width> <height> <mine count> [seed]".
func parseRunCommand(c string) (params mines.GameParams, seed uint64, err error) {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return params, 0, fmt.Errorf("empty command")
	}
	if parts[0] != "p" {
		return params, 0, fmt.Errorf("unknown command %q", parts[0])
	}
	args := parts[1:]
	if len(args) != 3 && len(args) != 4 {
		return params, 0, fmt.Errorf("invalid number of arguments")
	}

	var dims [3]int
	for i := range dims {
		if dims[i], err = strconv.Atoi(args[i]); err != nil {
			return params, 0, fmt.Errorf("argument %d must be an int", i+1)
		}
	}
	params = mines.GameParams{Width: dims[0], Height: dims[1], MineCount: dims[2]}

	seed = rand.Uint64()
	if len(args) == 4 {
		if seed, err = strconv.ParseUint(args[3], 10, 64); err != nil {
			return params, 0, fmt.Errorf("seed must be an unsigned int")
		}
	}
	return params, seed, params.Validate()
}

func (app application) streamRun(ctx context.Context, conn *websocket.Conn, command string) error {
	params, seed, err := parseRunCommand(command)
	if err != nil {
		return conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
	}
	a, err := agent.Start(&params, app.agent.Settings, agent.Rand(seed))
	if err != nil {
		return conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
	}

	err = conn.WriteJSON(wsMessage{
		Type:     "start",
		RngSeed:  seed,
		Revealed: a.Game().Revealed(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	a.OnMove = func(m agent.Move) {
		if writeErr != nil {
			return
		}
		if writeErr = conn.WriteJSON(wsMessage{Type: "move", Move: &m}); writeErr != nil {
			cancel()
		}
	}
	res := a.Play(ctx)
	if writeErr != nil {
		return writeErr
	}

	game := a.Game()
	game.RevealPlayerGrid()
	return conn.WriteJSON(wsMessage{
		Type:    "result",
		RngSeed: seed,
		Result:  &res,
		Board:   game.PlayerGrid.ToString(game.Width),
	})
}

func (app application) wsConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := app.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		app.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	app.logger.Debug("established WS connection")

	for {
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				app.logger.Warn("abnormal ws break", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}

		for _, line := range strings.Split(strings.TrimSpace(string(buf)), "\n") {
			line = strings.TrimSpace(line)
			if line == "g" {
				continue
			}
			if err := app.streamRun(r.Context(), conn, line); err != nil {
				app.logger.Warn("unable to stream run", slog.Any("error", err))
				return
			}
		}
	}
}
