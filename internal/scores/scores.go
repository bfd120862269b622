// internal/scores/scores.go
//
// Leaderboard persistence: one row per completed game.
// Responsibilities:
//   - Insert a finished game (display name + elapsed milliseconds).
//   - Read the fastest games, ties broken by who finished first.
//
// Notes:
//   - Guests share the "Guest" name; rows are never merged or deduplicated.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultLimit is the leaderboard length when none is configured.
const DefaultLimit = 20

// createdLayout is fixed-width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000Z"

// Score errors
var (
	ErrEmptyName       = errors.New("username required")
	ErrNegativeElapsed = errors.New("elapsed time must not be negative")
)

// Entry is one leaderboard row.
type Entry struct {
	Username  string    `json:"username"`
	ElapsedMs int64     `json:"ms"`
	CreatedAt time.Time `json:"-"`
}

// Store reads and writes the scores table.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewStore wraps a migrated database. A nil clock uses the real one.
func NewStore(db *sql.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// Insert records one completed game.
func (s *Store) Insert(ctx context.Context, username string, elapsedMs int64) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyName
	}
	if elapsedMs < 0 {
		return ErrNegativeElapsed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores(username, elapsed_ms, created_at) VALUES(?,?,?)`,
		username, elapsedMs, s.clock.Now().UTC().Format(createdLayout),
	)
	return err
}

// Top returns the fastest games, ties broken by who finished first.
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, elapsed_ms, created_at
FROM scores
ORDER BY elapsed_ms ASC, created_at ASC, id ASC
LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Username, &e.ElapsedMs, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(createdLayout, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
