package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

type AgentRun struct {
	AgentRunId   int64
	Width        int
	Height       int
	MineCount    int
	Seed         int64
	Propagate    bool
	RandomMode   string
	Outcome      string
	Moves        int
	SafeMoves    int
	RandomMoves  int
	MinesFlagged int
	Statements   int
	State        []byte
	CreatedAt    pgtype.Timestamptz
}

func (r AgentRun) GameParams() mines.GameParams {
	return mines.GameParams{Width: r.Width, Height: r.Height, MineCount: r.MineCount}
}

// RngSeed undoes the bigint storage of the generator seed.
func (r AgentRun) RngSeed() uint64 {
	return uint64(r.Seed)
}

// RunKey identifies a seeded run. Playing the same key twice gives the
// same game, so the table keeps at most one run per key.
type RunKey struct {
	mines.GameParams
	Seed     uint64
	Settings agent.Settings
}

func (k RunKey) args() pgx.NamedArgs {
	return pgx.NamedArgs{
		"width":       k.Width,
		"height":      k.Height,
		"mine_count":  k.MineCount,
		"seed":        int64(k.Seed),
		"propagate":   k.Settings.Propagate,
		"random_mode": string(k.Settings.Random),
	}
}

type CreateRunParams struct {
	RunKey
	Result agent.Result
	State  []byte
}

func NewCreateRunParams(key RunKey, res agent.Result, game *mines.GameState) (CreateRunParams, error) {
	state, err := game.Bytes()
	if err != nil {
		return CreateRunParams{}, err
	}
	return CreateRunParams{RunKey: key, Result: res, State: state}, nil
}

func (q *Queries) CreateRun(ctx context.Context, params CreateRunParams) (*AgentRun, error) {
	args := params.args()
	args["outcome"] = string(params.Result.Outcome)
	args["moves"] = params.Result.Moves
	args["safe_moves"] = params.Result.SafeMoves
	args["random_moves"] = params.Result.RandomMoves
	args["mines_flagged"] = params.Result.MinesFlagged
	args["statements"] = params.Result.Statements
	args["state"] = params.State

	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO agent_run (
			width, height, mine_count, seed, propagate, random_mode,
			outcome, moves, safe_moves, random_moves, mines_flagged, statements, state
		)
		VALUES (
			@width, @height, @mine_count, @seed, @propagate, @random_mode,
			@outcome, @moves, @safe_moves, @random_moves, @mines_flagged, @statements, @state
		)
		RETURNING *;`,
		args,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[AgentRun])
}

func (q *Queries) FetchRun(ctx context.Context, agentRunId int64) (*AgentRun, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM agent_run WHERE agent_run_id = $1", agentRunId,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[AgentRun])
}

func (q *Queries) FindRun(ctx context.Context, key RunKey) (*AgentRun, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT * FROM agent_run
		WHERE width = @width
			AND height = @height
			AND mine_count = @mine_count
			AND seed = @seed
			AND propagate = @propagate
			AND random_mode = @random_mode`,
		key.args(),
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[AgentRun])
}
