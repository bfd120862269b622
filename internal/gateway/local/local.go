// Package local implements the session gateways in-process, directly on
// the accounts and scores stores. The server uses it for hosted games.
package local

import (
	"context"
	"errors"

	"github.com/robalobadob/memorymatch/internal/accounts"
	"github.com/robalobadob/memorymatch/internal/scores"
	"github.com/robalobadob/memorymatch/internal/session"
)

// Messages shared with the HTTP API.
const (
	MsgRegistered   = "registered"
	MsgLoggedIn     = "login ok"
	MsgInvalidLogin = "invalid username or password"
)

// Auth adapts accounts.Store to session.AuthGateway.
type Auth struct {
	Users *accounts.Store
}

// Register maps validation and uniqueness failures to user-facing messages.
func (a Auth) Register(ctx context.Context, username, password string) (string, error) {
	_, err := a.Users.Register(ctx, username, password)
	switch {
	case err == nil:
		return MsgRegistered, nil
	case errors.Is(err, accounts.ErrUsernameTaken),
		errors.Is(err, accounts.ErrInvalidUsername),
		errors.Is(err, accounts.ErrInvalidPassword):
		return err.Error(), nil
	default:
		return "", err
	}
}

func (a Auth) Login(ctx context.Context, username, password string) (session.LoginResult, error) {
	_, err := a.Users.Authenticate(ctx, username, password)
	switch {
	case err == nil:
		return session.LoginResult{Success: true, Msg: MsgLoggedIn}, nil
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return session.LoginResult{Success: false, Msg: MsgInvalidLogin}, nil
	default:
		return session.LoginResult{}, err
	}
}

// Leaderboard adapts scores.Store to session.LeaderboardGateway.
type Leaderboard struct {
	Scores *scores.Store
	Limit  int
}

func (l Leaderboard) Submit(ctx context.Context, rec session.ScoreRecord) error {
	return l.Scores.Insert(ctx, rec.DisplayName, rec.ElapsedMs)
}

func (l Leaderboard) FetchTop(ctx context.Context) ([]session.RankedEntry, error) {
	rows, err := l.Scores.Top(ctx, l.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]session.RankedEntry, len(rows))
	for i, r := range rows {
		out[i] = session.RankedEntry{Username: r.Username, ElapsedMs: r.ElapsedMs}
	}
	return out, nil
}

var (
	_ session.AuthGateway        = Auth{}
	_ session.LeaderboardGateway = Leaderboard{}
)
