// internal/session/broadcast.go
//
// Broadcaster: a View that turns display updates into Events and fans them
// out to subscribers (one per WebSocket connection on hosted games).
//
// Notes:
//   - Sends never block; a subscriber whose buffer is full misses the event.
//   - Close ends every subscription, including ones requested afterwards.

package session

import (
	"sync"

	"github.com/robalobadob/memorymatch/internal/game"
)

// EventType names a display update.
type EventType string

const (
	EventTick        EventType = "tick"
	EventBoard       EventType = "board"
	EventComplete    EventType = "complete"
	EventMessage     EventType = "message"
	EventLeaderboard EventType = "leaderboard"
)

// Event is one display update. Only the fields for its Type are set.
type Event struct {
	Type        EventType      `json:"type"`
	Elapsed     string         `json:"elapsed,omitempty"`
	Message     string         `json:"message,omitempty"`
	Board       *game.Snapshot `json:"board,omitempty"`
	Leaderboard []RankedEntry  `json:"leaderboard,omitempty"`
}

// Broadcaster is a View that fans events out to subscribers. A subscriber
// that is not keeping up loses events rather than stalling the game.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
	closed bool
}

// NewBroadcaster creates a broadcaster whose subscriber channels hold buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 32
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns an event channel and a cancel func that closes it.
// After Close the channel comes back already closed.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Close drops every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *Broadcaster) ShowElapsed(s string) { b.publish(Event{Type: EventTick, Elapsed: s}) }
func (b *Broadcaster) ShowFinal(s string)   { b.publish(Event{Type: EventComplete, Elapsed: s}) }
func (b *Broadcaster) ShowMessage(s string) { b.publish(Event{Type: EventMessage, Message: s}) }

func (b *Broadcaster) ShowLeaderboard(e []RankedEntry) {
	b.publish(Event{Type: EventLeaderboard, Leaderboard: e})
}

func (b *Broadcaster) ShowBoard(snap game.Snapshot) {
	b.publish(Event{Type: EventBoard, Board: &snap})
}

var _ View = (*Broadcaster)(nil)
