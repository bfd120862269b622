package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memorymatch/internal/accounts"
	"github.com/robalobadob/memorymatch/internal/config"
	"github.com/robalobadob/memorymatch/internal/game"
	"github.com/robalobadob/memorymatch/internal/gateway/remote"
	"github.com/robalobadob/memorymatch/internal/scores"
	"github.com/robalobadob/memorymatch/internal/session"
	"github.com/robalobadob/memorymatch/internal/storage"
	"github.com/robalobadob/memorymatch/internal/store"
)

const testPairs = 2

func seeded() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }

type fixture struct {
	srv   *Server
	ts    *httptest.Server
	games store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg, err := config.Parse()
	require.NoError(t, err)
	cfg.Game.PairCount = testPairs
	cfg.Game.RollbackDelayMs = 20
	cfg.Game.TickIntervalMs = 60000

	games := store.NewMemoryStore(nil)
	srv := New(cfg,
		accounts.NewStore(db, accounts.WithBcryptCost(bcrypt.MinCost)),
		scores.NewStore(db, nil),
		games,
		WithRandSource(seeded),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(games.Close)
	return &fixture{srv: srv, ts: ts, games: games}
}

func (f *fixture) post(t *testing.T, path string, body any, out any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func (f *fixture) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(f.ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	var out map[string]any
	res := f.get(t, "/health", &out)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, out["ok"])
	assert.Contains(t, res.Header.Get("Content-Type"), "application/json")
}

func TestNotFoundIsJSON(t *testing.T) {
	f := newFixture(t)
	var out map[string]string
	res := f.get(t, "/nope", &out)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not_found", out["error"])
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	creds := credentialsReq{Username: "alice", Password: "password1"}

	var out map[string]string
	res := f.post(t, "/register", creds, &out)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "registered", out["msg"])

	res = f.post(t, "/register", credentialsReq{Username: "ALICE", Password: "password1"}, &out)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, accounts.ErrUsernameTaken.Error(), out["msg"])

	res = f.post(t, "/register", credentialsReq{Username: "al", Password: "password1"}, &out)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, accounts.ErrInvalidUsername.Error(), out["msg"])
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/register", credentialsReq{Username: "alice", Password: "password1"}, nil)

	var ok loginRes
	res := f.post(t, "/login", credentialsReq{Username: "alice", Password: "password1"}, &ok)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, ok.Success)
	assert.Equal(t, "alice", ok.Username)
	assert.NotEmpty(t, ok.Token)
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, f.srv.cfg.Server.CookieName, res.Cookies()[0].Name)

	var bad loginRes
	res = f.post(t, "/login", credentialsReq{Username: "alice", Password: "wrong-password"}, &bad)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.False(t, bad.Success)
	assert.Equal(t, "invalid username or password", bad.Msg)

	// Token opens /me.
	req, _ := http.NewRequest(http.MethodGet, f.ts.URL+"/me", nil)
	req.Header.Set("Authorization", "Bearer "+ok.Token)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)

	res = f.get(t, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSubmitAndLeaderboard(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.post(t, "/submit", map[string]any{"username": "bob", "ms": 42000}, nil).StatusCode)
	assert.Equal(t, http.StatusOK, f.post(t, "/submit", map[string]any{"username": "amy", "ms": 31000}, nil).StatusCode)
	assert.Equal(t, http.StatusOK, f.post(t, "/submit", map[string]any{"username": "", "ms": 50000}, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/submit", map[string]any{"username": "x", "ms": -1}, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/submit", map[string]any{"username": "x"}, nil).StatusCode)

	var rows []scores.Entry
	res := f.get(t, "/leaderboard", &rows)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, rows, 3)
	assert.Equal(t, "amy", rows[0].Username)
	assert.Equal(t, int64(31000), rows[0].ElapsedMs)
	assert.Equal(t, "bob", rows[1].Username)
	assert.Equal(t, session.GuestName, rows[2].Username)

	f.get(t, "/leaderboard?limit=1", &rows)
	assert.Len(t, rows, 1)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/leaderboard?limit=zero", nil).StatusCode)
}

func TestLeaderboardEmptyIsArray(t *testing.T) {
	f := newFixture(t)
	res, err := http.Get(f.ts.URL + "/leaderboard")
	require.NoError(t, err)
	defer res.Body.Close()
	var raw bytes.Buffer
	_, _ = raw.ReadFrom(res.Body)
	assert.Equal(t, "[]", strings.TrimSpace(raw.String()))
}

// pairsOf maps each value to its two positions on the seeded board.
func pairsOf(t *testing.T) map[int][]int {
	cards, err := game.GenerateBoard(testPairs, seeded())
	require.NoError(t, err)
	out := map[int][]int{}
	for _, c := range cards {
		out[c.Value] = append(out[c.Value], c.Position)
	}
	return out
}

func TestHostedGame_PlayToCompletion(t *testing.T) {
	f := newFixture(t)

	var g gameView
	res := f.post(t, "/game/new", struct{}{}, &g)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, session.GuestName, g.Player)
	assert.True(t, g.Running)
	require.Len(t, g.Board.Cards, 2*testPairs)
	for _, c := range g.Board.Cards {
		assert.Zero(t, c.Value, "face-down values are hidden")
		assert.Equal(t, game.FaceDown, c.Face)
	}

	var again gameView
	f.get(t, "/game/"+g.ID, &again)
	assert.Equal(t, g.ID, again.ID)

	for v, pos := range pairsOf(t) {
		var fr flipRes
		f.post(t, "/game/"+g.ID+"/flip", flipReq{Position: &pos[0]}, &fr)
		assert.Equal(t, game.OutcomeFlipped, fr.Outcome)
		assert.Equal(t, v, fr.Game.Board.Cards[pos[0]].Value)

		f.post(t, "/game/"+g.ID+"/flip", flipReq{Position: &pos[1]}, &fr)
		assert.Equal(t, game.OutcomeMatched, fr.Outcome)
	}

	var done gameView
	f.get(t, "/game/"+g.ID, &done)
	assert.False(t, done.Running)
	assert.True(t, done.Board.Complete)

	require.Eventually(t, func() bool {
		var rows []scores.Entry
		f.get(t, "/leaderboard", &rows)
		return len(rows) == 1 && rows[0].Username == session.GuestName && rows[0].ElapsedMs == done.ElapsedMs
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHostedGame_FlipErrors(t *testing.T) {
	f := newFixture(t)
	var g gameView
	f.post(t, "/game/new", struct{}{}, &g)

	bad := 99
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/game/"+g.ID+"/flip", flipReq{Position: &bad}, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/game/"+g.ID+"/flip", struct{}{}, nil).StatusCode)
	zero := 0
	assert.Equal(t, http.StatusNotFound, f.post(t, "/game/missing/flip", flipReq{Position: &zero}, nil).StatusCode)
}

func TestHostedGame_LoggedInPlayer(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/register", credentialsReq{Username: "carol", Password: "password1"}, nil)
	var lr loginRes
	f.post(t, "/login", credentialsReq{Username: "carol", Password: "password1"}, &lr)

	req, _ := http.NewRequest(http.MethodPost, f.ts.URL+"/game/new", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+lr.Token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var g gameView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&g))
	assert.Equal(t, "carol", g.Player)
}

func TestHostedGame_Stream(t *testing.T) {
	f := newFixture(t)
	var g gameView
	f.post(t, "/game/new", struct{}{}, &g)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/game/" + g.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first wsEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, session.EventBoard, first.Type)
	require.NotNil(t, first.Board)

	pos := pairsOf(t)[1][0]
	f.post(t, "/game/"+g.ID+"/flip", flipReq{Position: &pos}, nil)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev wsEvent
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type != session.EventBoard {
			continue
		}
		assert.Equal(t, game.FaceUp, ev.Board.Cards[pos].Face)
		assert.Equal(t, 1, ev.Board.Cards[pos].Value)
		assert.Equal(t, game.PhaseOneSelected, ev.Board.Phase)
		break
	}
}

func TestRemoteClientAgainstServer(t *testing.T) {
	f := newFixture(t)
	c := remote.New(f.ts.URL, remote.WithInitialBackoff(time.Millisecond))
	ctx := context.Background()

	msg, err := c.Register(ctx, "dave", "password1")
	require.NoError(t, err)
	assert.Equal(t, "registered", msg)

	msg, err = c.Register(ctx, "dave", "password1")
	require.NoError(t, err)
	assert.Equal(t, accounts.ErrUsernameTaken.Error(), msg)

	res, err := c.Login(ctx, "dave", "password1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = c.Login(ctx, "dave", "nope-nope")
	require.NoError(t, err)
	assert.False(t, res.Success)

	require.NoError(t, c.Submit(ctx, session.ScoreRecord{DisplayName: "dave", ElapsedMs: 42000}))
	top, err := c.FetchTop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []session.RankedEntry{{Username: "dave", ElapsedMs: 42000}}, top)

	err = c.Submit(ctx, session.ScoreRecord{DisplayName: "dave", ElapsedMs: -5})
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}
