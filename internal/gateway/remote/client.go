// internal/gateway/remote/client.go
//
// HTTP client for the Memory Match backend, implementing both session
// gateways.
// Endpoints (JSON):
//   - POST /register    {username,password} → {msg}
//   - POST /login       {username,password} → {success,msg}
//   - POST /submit      {username,ms}       → {ok}
//   - GET  /leaderboard                     → [{username,ms}] fastest first
//
// Notes:
//   - Submit and FetchTop retry with exponential backoff; 4xx replies are final.
//   - Register and Login are single attempts; the reply message is what the
//     player sees.

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/session"
)

// StatusError is a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend replied %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Client talks to one backend base URL.
type Client struct {
	base           string
	http           *http.Client
	maxTries       uint
	initialBackoff time.Duration
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxTries caps attempts for Submit/FetchTop (1 disables retries).
func WithMaxTries(n uint) Option { return func(c *Client) { c.maxTries = n } }

func WithInitialBackoff(d time.Duration) Option { return func(c *Client) { c.initialBackoff = d } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a client for baseURL (e.g. http://localhost:5175).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:           strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: 10 * time.Second},
		maxTries:       4,
		initialBackoff: 200 * time.Millisecond,
		log:            log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxTries == 0 {
		c.maxTries = 1
	}
	return c
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type msgRes struct {
	Msg   string `json:"msg"`
	Error string `json:"error"`
}

type loginRes struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

type submitReq struct {
	Username string `json:"username"`
	Ms       int64  `json:"ms"`
}

type entryRes struct {
	Username string `json:"username"`
	Ms       int64  `json:"ms"`
}

// Register creates an account. Rejections (taken, invalid) come back as a
// message, not an error.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out msgRes
	code, err := c.do(ctx, http.MethodPost, "/register", credentials{username, password}, &out)
	if err != nil {
		return "", err
	}
	if code >= 500 {
		return "", &StatusError{Code: code, Body: out.Msg + out.Error}
	}
	if out.Msg == "" {
		out.Msg = out.Error
	}
	return out.Msg, nil
}

// Login checks credentials. A 401 is a normal, unsuccessful result.
func (c *Client) Login(ctx context.Context, username, password string) (session.LoginResult, error) {
	var out loginRes
	code, err := c.do(ctx, http.MethodPost, "/login", credentials{username, password}, &out)
	if err != nil {
		return session.LoginResult{}, err
	}
	if code >= 500 {
		return session.LoginResult{}, &StatusError{Code: code, Body: out.Msg}
	}
	return session.LoginResult{Success: out.Success && code < 300, Msg: out.Msg}, nil
}

// Submit posts a completed game.
func (c *Client) Submit(ctx context.Context, rec session.ScoreRecord) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		var out msgRes
		code, err := c.do(ctx, http.MethodPost, "/submit", submitReq{Username: rec.DisplayName, Ms: rec.ElapsedMs}, &out)
		return struct{}{}, classify(code, err, out.Error)
	}, c.retryOptions("submit")...)
	return err
}

// FetchTop reads the ranking, fastest first.
func (c *Client) FetchTop(ctx context.Context) ([]session.RankedEntry, error) {
	return backoff.Retry(ctx, func() ([]session.RankedEntry, error) {
		var rows []entryRes
		code, err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &rows)
		if err := classify(code, err, ""); err != nil {
			return nil, err
		}
		out := make([]session.RankedEntry, len(rows))
		for i, r := range rows {
			out[i] = session.RankedEntry{Username: r.Username, ElapsedMs: r.Ms}
		}
		return out, nil
	}, c.retryOptions("leaderboard")...)
}

func (c *Client) retryOptions(op string) []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = 5 * time.Second
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Debug().Err(err).Str("op", op).Dur("retry_in", wait).Msg("backend call failed")
		}),
	}
}

// classify turns a reply into nil, a retryable error or a permanent one.
func classify(code int, err error, body string) error {
	switch {
	case err != nil:
		return err
	case code >= 500 || code == http.StatusTooManyRequests:
		return &StatusError{Code: code, Body: body}
	case code >= 400:
		return backoff.Permanent(&StatusError{Code: code, Body: body})
	}
	return nil
}

// do sends one JSON request and decodes the JSON reply (when there is one)
// into out. Transport errors are returned; HTTP status is left to the caller.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, backoff.Permanent(fmt.Errorf("encode %s: %w", path, err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("build %s: %w", path, err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) > 0 && out != nil {
		if err := json.Unmarshal(raw, out); err != nil && res.StatusCode < 300 {
			return res.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return res.StatusCode, nil
}

var (
	_ session.AuthGateway        = (*Client)(nil)
	_ session.LeaderboardGateway = (*Client)(nil)
)
