// custom query
package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vancomm/minesweeper-agent/internal/mines"
)

type RunStats struct {
	Games     int64   `json:"games"`
	Won       int64   `json:"won"`
	Lost      int64   `json:"lost"`
	Exhausted int64   `json:"exhausted"`
	AvgMoves  float64 `json:"avg_moves"`
}

func (s RunStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Games)
}

type RunFilter struct {
	GameParams *mines.GameParams
	Propagate  *bool
	RandomMode *string
}

func (f RunFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.GameParams != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"mine_count = @mineCount",
		)
		args["width"] = f.GameParams.Width
		args["height"] = f.GameParams.Height
		args["mineCount"] = f.GameParams.MineCount
	}
	if f.Propagate != nil {
		clauses = append(clauses, "propagate = @propagate")
		args["propagate"] = *f.Propagate
	}
	if f.RandomMode != nil {
		clauses = append(clauses, "random_mode = @randomMode")
		args["randomMode"] = *f.RandomMode
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) GetRunStats(ctx context.Context, filter RunFilter) (*RunStats, error) {
	query := `
	SELECT
		count(*) games,
		count(*) FILTER (WHERE outcome = 'won') won,
		count(*) FILTER (WHERE outcome = 'lost') lost,
		count(*) FILTER (WHERE outcome = 'exhausted') exhausted,
		coalesce(avg(moves), 0)::float8 avg_moves
	FROM agent_run
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[RunStats])
}
