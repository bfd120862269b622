// internal/store/memory.go
//
// In-memory registry of server-hosted game sessions.
// Each hosted game owns one session.Controller (its timer, board and engine)
// and the Broadcaster that feeds its WebSocket subscribers.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Games idle longer than the TTL are swept and their controllers closed.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/session"
)

// ErrNotFound is returned for unknown game IDs.
var ErrNotFound = errors.New("not found")

// Hosted is one server-side game.
type Hosted struct {
	ID         string
	Player     string
	Controller *session.Controller
	Events     *session.Broadcaster

	lastActive time.Time
}

// Close stops the game's timer and drops its subscribers.
func (h *Hosted) Close() {
	h.Controller.Close()
	h.Events.Close()
}

// Store defines the registry interface for hosted games.
type Store interface {
	// Save adds or replaces a hosted game.
	Save(ctx context.Context, h *Hosted) error

	// Get retrieves a hosted game by ID and marks it active.
	Get(ctx context.Context, id string) (*Hosted, error)

	// Delete removes and closes a hosted game.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes games idle for longer than ttl; returns how many.
	Sweep(ctx context.Context, ttl time.Duration) int

	// Len reports how many games are hosted.
	Len() int

	// Close closes and removes every hosted game.
	Close()
}

type memory struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	games map[string]*Hosted
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore(clock clockwork.Clock) Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memory{clock: clock, games: make(map[string]*Hosted)}
}

func (m *memory) Save(ctx context.Context, h *Hosted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.games[h.ID]; ok && old != h {
		old.Close()
	}
	h.lastActive = m.clock.Now()
	m.games[h.ID] = h
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Hosted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	h.lastActive = m.clock.Now()
	return h, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	h.Close()
	return nil
}

func (m *memory) Sweep(ctx context.Context, ttl time.Duration) int {
	cutoff := m.clock.Now().Add(-ttl)

	m.mu.Lock()
	var idle []*Hosted
	for id, h := range m.games {
		if h.lastActive.Before(cutoff) {
			idle = append(idle, h)
			delete(m.games, id)
		}
	}
	m.mu.Unlock()

	for _, h := range idle {
		h.Close()
	}
	return len(idle)
}

func (m *memory) Close() {
	m.mu.Lock()
	games := m.games
	m.games = make(map[string]*Hosted)
	m.mu.Unlock()

	for _, h := range games {
		h.Close()
	}
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// RunSweeper calls Sweep every interval until ctx is done.
func RunSweeper(ctx context.Context, s Store, clock clockwork.Clock, interval, ttl time.Duration) {
	t := clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if n := s.Sweep(ctx, ttl); n > 0 {
				log.Info().Int("swept", n).Int("hosted", s.Len()).Msg("idle games closed")
			}
		}
	}
}
