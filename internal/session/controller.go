// internal/session/controller.go
//
// Session controller: one game lifecycle (start → play → end) at a time.
// Responsibilities:
//   - Start games: retire the previous board, deal a new one, restart the timer.
//   - Forward card clicks to the match engine.
//   - On completion: stop the timer, show the final time, then hand the score
//     to the leaderboard and refresh the ranking in the background.
//   - Register / login through the auth gateway and track the player identity.
//
// Notes:
//   - Gateway calls never run on the caller's goroutine during play; a slow or
//     failing leaderboard only leaves the ranking stale.
//   - Guests may play; their scores are submitted as GuestName.

package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/game"
)

// Settings tunes a Controller. Zero fields fall back to the game defaults.
type Settings struct {
	PairCount      int
	RollbackDelay  time.Duration
	TickInterval   time.Duration
	GatewayTimeout time.Duration // 0 = no deadline on background gateway calls
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clockwork.Clock) Option { return func(ct *Controller) { ct.clock = c } }
func WithRand(r *rand.Rand) Option { return func(ct *Controller) { ct.rng = r } }
func WithLogger(l zerolog.Logger) Option { return func(ct *Controller) { ct.log = l } }
func WithSettings(s Settings) Option { return func(ct *Controller) { ct.settings = s } }
func WithIdentity(username string) Option { return func(ct *Controller) { ct.identity = username } }

// Session is the one live game. It is replaced wholesale by StartGame.
type Session struct {
	ID        string
	StartedAt time.Time
	Running   bool
	Result    *ScoreRecord

	engine *game.Engine
}

// State is a read-only copy of the current session.
type State struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Running   bool          `json:"running"`
	Elapsed   time.Duration `json:"-"`
	Board     game.Snapshot `json:"board"`
	Result    *ScoreRecord  `json:"-"`
}

// Controller orchestrates timer, board generator and match engine.
type Controller struct {
	auth     AuthGateway
	board    LeaderboardGateway
	view     View
	clock    clockwork.Clock
	rng      *rand.Rand
	log      zerolog.Logger
	settings Settings

	mu       sync.Mutex
	identity string
	current  *Session
	timer    *game.Timer
	closed   bool

	wg sync.WaitGroup
}

// NewController wires a controller. view may be nil.
func NewController(auth AuthGateway, board LeaderboardGateway, view View, opts ...Option) *Controller {
	if view == nil {
		view = NopView{}
	}
	c := &Controller{
		auth:  auth,
		board: board,
		view:  view,
		clock: clockwork.NewRealClock(),
		log:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.PairCount <= 0 {
		c.settings.PairCount = game.DefaultPairCount
	}
	if c.settings.RollbackDelay <= 0 {
		c.settings.RollbackDelay = game.DefaultRollbackDelay
	}
	c.timer = game.NewTimer(c.clock, c.settings.TickInterval, c.view.ShowElapsed)
	return c
}

// Identity returns the name scores are submitted under.
func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayNameLocked()
}

func (c *Controller) displayNameLocked() string {
	if c.identity == "" {
		return GuestName
	}
	return c.identity
}

// StartGame discards the current session and deals a fresh board.
func (c *Controller) StartGame() (State, error) {
	cards, err := game.GenerateBoard(c.settings.PairCount, c.rng)
	if err != nil {
		return State{}, fmt.Errorf("generate board: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State{}, ErrClosed
	}
	if c.current != nil {
		c.current.engine.Close()
	}
	sess := &Session{ID: uuid.NewString(), Running: true}
	sess.engine = game.NewEngine(cards,
		game.WithClock(c.clock),
		game.WithRollbackDelay(c.settings.RollbackDelay),
		game.WithOnComplete(func() { c.finish(sess) }),
		game.WithOnRollback(func(_, _ int) {
			if c.isCurrent(sess) {
				c.view.ShowBoard(sess.engine.Snapshot())
			}
		}),
	)
	sess.StartedAt = c.timer.Start()
	c.current = sess
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Info().Str("game_id", sess.ID).Int("cards", len(cards)).Msg("game started")
	c.view.ShowElapsed(game.FormatElapsed(0))
	c.view.ShowBoard(st.Board)
	return st, nil
}

func (c *Controller) isCurrent(sess *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == sess
}

// CardClicked forwards a click to the match engine. Clicks the engine
// rejects are not errors.
func (c *Controller) CardClicked(position int) (game.Outcome, error) {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return game.OutcomeRejected, ErrNoGame
	}

	out, err := sess.engine.SelectCard(position)
	if err != nil {
		return out, err
	}
	if out != game.OutcomeRejected {
		c.view.ShowBoard(sess.engine.Snapshot())
	}
	return out, nil
}

// finish runs once per session when the engine reports a cleared board.
func (c *Controller) finish(sess *Session) {
	c.mu.Lock()
	if c.current != sess || !sess.Running {
		c.mu.Unlock()
		return
	}
	elapsed := c.timer.Stop()
	sess.Running = false
	rec := ScoreRecord{DisplayName: c.displayNameLocked(), ElapsedMs: elapsed.Milliseconds()}
	sess.Result = &rec
	c.mu.Unlock()

	c.view.ShowFinal(game.FormatElapsed(rec.ElapsedMs))
	c.log.Info().
		Str("game_id", sess.ID).
		Str("player", rec.DisplayName).
		Int64("elapsed_ms", rec.ElapsedMs).
		Msg("game complete")

	c.background(func(ctx context.Context) {
		if err := c.submit(ctx, rec); err != nil {
			c.log.Warn().Err(err).Str("game_id", sess.ID).Msg("submit score")
		}
	})
}

func (c *Controller) submit(ctx context.Context, rec ScoreRecord) error {
	if err := c.board.Submit(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return c.RefreshLeaderboard(ctx)
}

// RefreshLeaderboard fetches the ranking and pushes it to the view. On
// failure the view keeps its previous ranking.
func (c *Controller) RefreshLeaderboard(ctx context.Context) error {
	entries, err := c.board.FetchTop(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	c.view.ShowLeaderboard(entries)
	return nil
}

// Register creates an account and shows the gateway's message.
func (c *Controller) Register(ctx context.Context, username, password string) (string, error) {
	msg, err := c.auth.Register(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	c.view.ShowMessage(msg)
	return msg, nil
}

// Login adopts username as the player identity when the gateway accepts the
// credentials, then refreshes the leaderboard in the background.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	res, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.view.ShowMessage(res.Msg)
	if !res.Success {
		return ErrAuthRejected
	}

	c.mu.Lock()
	c.identity = username
	c.mu.Unlock()
	c.log.Info().Str("player", username).Msg("logged in")

	c.background(func(ctx context.Context) {
		if err := c.RefreshLeaderboard(ctx); err != nil {
			c.log.Warn().Err(err).Msg("refresh leaderboard after login")
		}
	})
	return nil
}

// State returns a copy of the current session, or ErrNoGame.
func (c *Controller) State() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return State{}, ErrNoGame
	}
	return c.stateLocked(), nil
}

func (c *Controller) stateLocked() State {
	s := c.current
	st := State{
		ID:        s.ID,
		StartedAt: s.StartedAt,
		Running:   s.Running,
		Board:     s.engine.Snapshot(),
		Result:    s.Result,
	}
	if s.Running {
		st.Elapsed = c.timer.Elapsed()
	} else if s.Result != nil {
		st.Elapsed = time.Duration(s.Result.ElapsedMs) * time.Millisecond
	}
	return st
}

// background runs fn off the caller's goroutine, tracked by Wait. Nothing
// is started once the controller is closed.
func (c *Controller) background(fn func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx := context.Background()
		if c.settings.GatewayTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.settings.GatewayTimeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

// Wait blocks until background gateway calls have returned.
func (c *Controller) Wait() { c.wg.Wait() }

// Close stops the timer, retires the board and waits for background work.
// A game that completes concurrently with Close is not submitted.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.timer.Stop()
	if c.current != nil {
		c.current.Running = false
		c.current.engine.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
