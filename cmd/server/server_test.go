package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-agent/internal/agent"
	"github.com/vancomm/minesweeper-agent/internal/config"
	"github.com/vancomm/minesweeper-agent/internal/repository"
)

type memoryStore struct {
	mu   sync.Mutex
	runs []repository.AgentRun
}

func (s *memoryStore) CreateRun(ctx context.Context, p repository.CreateRunParams) (*repository.AgentRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(p.RunKey); err == nil {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	run := repository.AgentRun{
		AgentRunId:   int64(len(s.runs) + 1),
		Width:        p.Width,
		Height:       p.Height,
		MineCount:    p.MineCount,
		Seed:         int64(p.Seed),
		Propagate:    p.Settings.Propagate,
		RandomMode:   string(p.Settings.Random),
		Outcome:      string(p.Result.Outcome),
		Moves:        p.Result.Moves,
		SafeMoves:    p.Result.SafeMoves,
		RandomMoves:  p.Result.RandomMoves,
		MinesFlagged: p.Result.MinesFlagged,
		Statements:   p.Result.Statements,
		State:        p.State,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	s.runs = append(s.runs, run)
	return &run, nil
}

func (s *memoryStore) FetchRun(ctx context.Context, id int64) (*repository.AgentRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.runs)) {
		return nil, pgx.ErrNoRows
	}
	run := s.runs[id-1]
	return &run, nil
}

func (s *memoryStore) find(key repository.RunKey) (*repository.AgentRun, error) {
	for _, run := range s.runs {
		if run.GameParams() == key.GameParams &&
			run.RngSeed() == key.Seed &&
			run.Propagate == key.Settings.Propagate &&
			run.RandomMode == string(key.Settings.Random) {
			return &run, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryStore) FindRun(ctx context.Context, key repository.RunKey) (*repository.AgentRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(key)
}

func (s *memoryStore) GetRunStats(ctx context.Context, f repository.RunFilter) (*repository.RunStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		st    repository.RunStats
		moves int
	)
	for _, run := range s.runs {
		if f.GameParams != nil && run.GameParams() != *f.GameParams {
			continue
		}
		if f.Propagate != nil && run.Propagate != *f.Propagate {
			continue
		}
		if f.RandomMode != nil && run.RandomMode != *f.RandomMode {
			continue
		}
		st.Games++
		moves += run.Moves
		switch agent.Outcome(run.Outcome) {
		case agent.Won:
			st.Won++
		case agent.Lost:
			st.Lost++
		case agent.Exhausted:
			st.Exhausted++
		}
	}
	if st.Games > 0 {
		st.AvgMoves = float64(moves) / float64(st.Games)
	}
	return &st, nil
}

func newTestApp(t *testing.T) (*application, *memoryStore) {
	t.Helper()
	ws, err := config.NewWebSocket()
	require.NoError(t, err)
	store := &memoryStore{}
	return &application{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo:   store,
		agent:  &config.Agent{Settings: agent.DefaultSettings(), MaxWorkers: 1},
		ws:     ws,
	}, store
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, RunDTO) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var dto RunDTO
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	}
	return rec, dto
}

func TestNewRun(t *testing.T) {
	app, store := newTestApp(t)
	h := app.ServeMux()

	rec, dto := do(t, h, http.MethodPost, "/?width=9&height=9&mine_count=10&seed=7")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), dto.RunId)
	assert.Equal(t, "9:9:10", dto.Seed)
	assert.Equal(t, uint64(7), dto.RngSeed)
	assert.True(t, dto.Propagate)
	assert.Equal(t, "uniform", dto.Random)
	assert.Contains(t, []agent.Outcome{agent.Won, agent.Lost}, dto.Outcome)
	assert.Positive(t, dto.Moves)
	assert.Len(t, strings.Split(strings.TrimSpace(dto.Board), "\n"), 9)

	_, res, err := agent.Play(context.Background(), store.runs[0].GameParams(), agent.DefaultSettings(), 7)
	require.NoError(t, err)
	assert.Equal(t, res, dto.Result, "stored run replays from its seed")

	rec, again := do(t, h, http.MethodPost, "/?width=9&height=9&mine_count=10&seed=7")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.RunId, again.RunId)
	assert.Len(t, store.runs, 1)

	rec, other := do(t, h, http.MethodPost, "/?width=9&height=9&mine_count=10&seed=7&propagate=false&random=scan")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), other.RunId)
	assert.False(t, other.Propagate)
	assert.Equal(t, "scan", other.Random)
}

func TestNewRunBadRequest(t *testing.T) {
	app, store := newTestApp(t)
	h := app.ServeMux()

	for _, target := range []string{
		"/",
		"/?width=9&height=9",
		"/?width=x&height=9&mine_count=10",
		"/?width=2&height=2&mine_count=4",
		"/?width=9&height=9&mine_count=10&random=bayes",
		"/?width=9&height=9&mine_count=10&seed=-1",
		"/?width=1000&height=1000&mine_count=1",
	} {
		rec, _ := do(t, h, http.MethodPost, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Empty(t, store.runs)
}

func TestFetchRun(t *testing.T) {
	app, _ := newTestApp(t)
	h := app.ServeMux()

	_, created := do(t, h, http.MethodPost, "/?width=8&height=8&mine_count=10&seed=3")

	rec, fetched := do(t, h, http.MethodGet, "/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Result, fetched.Result)
	assert.Equal(t, created.Board, fetched.Board)

	rec, _ = do(t, h, http.MethodGet, "/2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchStats(t *testing.T) {
	app, _ := newTestApp(t)
	h := app.ServeMux()

	for _, target := range []string{
		"/?width=8&height=8&mine_count=10&seed=1",
		"/?width=8&height=8&mine_count=10&seed=2",
		"/?width=8&height=8&mine_count=10&seed=3&propagate=false",
		"/?width=9&height=9&mine_count=10&seed=1",
	} {
		rec, _ := do(t, h, http.MethodPost, target)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	stats := func(query string) StatsDTO {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats"+query, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var dto StatsDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		return dto
	}

	all := stats("")
	assert.Equal(t, int64(4), all.Games)
	assert.Equal(t, all.Games, all.Won+all.Lost+all.Exhausted)
	assert.InDelta(t, float64(all.Won)/4, all.WinRate, 1e-9)

	assert.Equal(t, int64(3), stats("?seed=8:8:10").Games)
	assert.Equal(t, int64(2), stats("?seed=8:8:10&propagate=true").Games)
	assert.Equal(t, int64(0), stats("?random=scan").Games)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?seed=8:8", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectStreamsMoves(t *testing.T) {
	app, _ := newTestApp(t)
	srv := httptest.NewServer(app.ServeMux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/connect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("p 5 5 x\np 9 9 10 11")))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "start", msg.Type)
	assert.Equal(t, uint64(11), msg.RngSeed)
	assert.NotEmpty(t, msg.Revealed)

	moves := 0
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "result" {
			require.NotNil(t, msg.Result)
			assert.Equal(t, moves+1, msg.Result.Moves, "opening move plus streamed moves")
			assert.NotEmpty(t, msg.Board)
			break
		}
		require.Equal(t, "move", msg.Type)
		require.NotNil(t, msg.Move)
		moves++
	}
}

func TestParseRunCommand(t *testing.T) {
	params, seed, err := parseRunCommand("p 30 16 99 42")
	require.NoError(t, err)
	assert.Equal(t, "30:16:99", params.Seed())
	assert.Equal(t, uint64(42), seed)

	_, _, err = parseRunCommand("p 30 16 99")
	assert.NoError(t, err)

	for _, c := range []string{"", "o 1 1", "p 1 2", "p 2 2 4", "p 9 9 10 -3", "p 1000 1000 1"} {
		_, _, err := parseRunCommand(c)
		assert.Error(t, err, c)
	}
}
