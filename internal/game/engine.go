// internal/game/engine.go
//
// Match engine for a single memory-match board.
// Responsibilities:
//   - Accept card selections and resolve them as flip / match / mismatch.
//   - Lock the board while a mismatched pair waits for its rollback.
//   - Schedule the rollback on the engine clock and flip the captured pair back.
//   - Signal completion exactly once when no card is left face down.
//
// Notes:
//   - The engine knows nothing about rendering; callers read Snapshot() and
//     subscribe through the OnComplete/OnRollback hooks.
//   - Hooks run outside the engine lock, on the caller's goroutine for
//     matches and on the rollback goroutine for rollbacks.
package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultRollbackDelay is how long a mismatched pair stays face up.
const DefaultRollbackDelay = 800 * time.Millisecond

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to schedule rollbacks.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRollbackDelay overrides DefaultRollbackDelay.
func WithRollbackDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithOnComplete registers the completion hook.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// WithOnRollback registers a hook fired after a mismatched pair is turned back down.
func WithOnRollback(fn func(first, second int)) Option {
	return func(e *Engine) { e.onRollback = fn }
}

// Engine is the selection state machine for one board.
type Engine struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	delay    time.Duration
	cards    []Card
	phase    Phase
	first    int // held position while PhaseOneSelected, else -1
	complete bool
	closed   bool

	onComplete func()
	onRollback func(first, second int)

	done      chan struct{}
	closeOnce sync.Once
}

// NewEngine takes ownership of a copy of cards and starts in PhaseIdle.
func NewEngine(cards []Card, opts ...Option) *Engine {
	e := &Engine{
		clock: clockwork.NewRealClock(),
		delay: DefaultRollbackDelay,
		cards: append([]Card(nil), cards...),
		phase: PhaseIdle,
		first: -1,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectCard applies a click on the card at position.
//
// Rules:
//   - Rejected while resolving, after Close, or when the card is not face down.
//   - Idle → flip the card, hold it (OneSelected).
//   - OneSelected → flip the card; equal values are matched on the spot and
//     the engine is Idle again, otherwise the engine enters Resolving and a
//     rollback of exactly these two positions is scheduled.
func (e *Engine) SelectCard(position int) (Outcome, error) {
	e.mu.Lock()
	if position < 0 || position >= len(e.cards) {
		e.mu.Unlock()
		return OutcomeRejected, ErrNoSuchCard
	}
	card := &e.cards[position]
	if e.closed || e.phase == PhaseResolving || card.Face != FaceDown {
		e.mu.Unlock()
		return OutcomeRejected, nil
	}

	card.Face = FaceUp
	if e.phase == PhaseIdle {
		e.phase = PhaseOneSelected
		e.first = position
		e.mu.Unlock()
		return OutcomeFlipped, nil
	}

	first := e.first
	e.first = -1
	e.phase = PhaseResolving

	if e.cards[first].Value == card.Value {
		e.cards[first].Face = FaceMatched
		card.Face = FaceMatched
		e.phase = PhaseIdle
		fire := e.markCompleteLocked()
		e.mu.Unlock()
		if fire {
			e.notifyComplete()
		}
		return OutcomeMatched, nil
	}

	e.scheduleRollback(first, position)
	e.mu.Unlock()
	return OutcomeMismatched, nil
}

// scheduleRollback arms a one-shot timer for the given pair. The timer is
// created before returning so a fake clock sees it immediately.
// Caller holds e.mu.
func (e *Engine) scheduleRollback(first, second int) {
	t := e.clock.NewTimer(e.delay)
	go func() {
		select {
		case <-t.Chan():
			e.rollback(first, second)
		case <-e.done:
			stopAndDrainTimer(t)
		}
	}()
}

// rollback turns the captured pair face down and reopens the board. A
// closed engine keeps its board as it was.
func (e *Engine) rollback(first, second int) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.cards[first].Face = FaceDown
	e.cards[second].Face = FaceDown
	e.phase = PhaseIdle
	fire := e.markCompleteLocked()
	e.mu.Unlock()

	if e.onRollback != nil {
		e.onRollback(first, second)
	}
	if fire {
		e.notifyComplete()
	}
}

// markCompleteLocked flips the completion latch when no card is face down.
// Returns true only for the transition that set it.
func (e *Engine) markCompleteLocked() bool {
	if e.complete {
		return false
	}
	for _, c := range e.cards {
		if c.Face == FaceDown {
			return false
		}
	}
	e.complete = true
	return true
}

func (e *Engine) notifyComplete() {
	if e.onComplete != nil {
		e.onComplete()
	}
}

// Snapshot returns a copy of the board and selection state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Cards:    append([]Card(nil), e.cards...),
		Phase:    e.phase,
		Complete: e.complete,
	}
}

// Phase reports the current selection state.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Complete reports whether the board has been cleared.
func (e *Engine) Complete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.complete
}

// Close retires the engine. Further selections are rejected and a rollback
// still waiting on its timer is dropped along with the board.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.done)
	})
}

// stopAndDrainTimer stops a timer and drains a tick that already landed.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
