// internal/session/gateway.go
//
// Collaborators of the session controller:
//   - AuthGateway: account registration and login.
//   - LeaderboardGateway: score submission and ranked reads.
//   - View: whatever renders the game (terminal, websocket, tests).
//
// Implementations live in internal/gateway/local (in-process, SQLite) and
// internal/gateway/remote (HTTP client).

package session

import (
	"context"

	"github.com/robalobadob/memorymatch/internal/game"
)

// GuestName is the identity used when nobody has logged in.
const GuestName = "Guest"

// ScoreRecord is one completed game. It is built once and never modified.
type ScoreRecord struct {
	DisplayName string
	ElapsedMs   int64
}

// RankedEntry is one leaderboard row; rows arrive fastest first.
type RankedEntry struct {
	Username  string `json:"username"`
	ElapsedMs int64  `json:"ms"`
}

// LoginResult mirrors the backend's login reply.
type LoginResult struct {
	Success bool
	Msg     string
}

// AuthGateway accepts credentials.
type AuthGateway interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

// LeaderboardGateway stores and ranks completed games.
type LeaderboardGateway interface {
	Submit(ctx context.Context, rec ScoreRecord) error
	FetchTop(ctx context.Context) ([]RankedEntry, error)
}

// View receives display updates. ShowElapsed is called from the timer
// goroutine, the rest from whichever goroutine caused the change, so
// implementations must be safe for concurrent use.
type View interface {
	ShowElapsed(formatted string)
	ShowFinal(formatted string)
	ShowMessage(msg string)
	ShowLeaderboard(entries []RankedEntry)
	ShowBoard(snap game.Snapshot)
}

// NopView discards every update. Embed it to implement part of View.
type NopView struct{}

func (NopView) ShowElapsed(string)            {}
func (NopView) ShowFinal(string)              {}
func (NopView) ShowMessage(string)            {}
func (NopView) ShowLeaderboard([]RankedEntry) {}
func (NopView) ShowBoard(game.Snapshot)       {}
