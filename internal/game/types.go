// internal/game/types.go
//
// Core type definitions for the memory-match game engine.
// Defines:
//   - Face: visible state of a single card (down/up/matched).
//   - Card: one tile on the board.
//   - Phase: selection state of the match engine.
//   - Outcome: result of a single SelectCard call.
//   - Snapshot: copy of engine state safe to hand to renderers.

package game

import "errors"

// Face represents the visible state of a card.
type Face string

const (
	FaceDown    Face = "down"
	FaceUp      Face = "up"
	FaceMatched Face = "matched"
)

// Card is a single tile. Position is its index in board order and never
// changes for the lifetime of a board; Value identifies its pair.
type Card struct {
	Position int  `json:"position"`
	Value    int  `json:"value"`
	Face     Face `json:"face"`
}

// Phase is the selection state of the engine. Exactly one holds at a time.
type Phase string

const (
	PhaseIdle        Phase = "idle"         // no card selected
	PhaseOneSelected Phase = "one_selected" // one face-up, unmatched card held
	PhaseResolving   Phase = "resolving"    // mismatched pair waiting for rollback
)

// Outcome reports what a SelectCard call did.
type Outcome string

const (
	OutcomeRejected   Outcome = "rejected"
	OutcomeFlipped    Outcome = "flipped"
	OutcomeMatched    Outcome = "matched"
	OutcomeMismatched Outcome = "mismatched"
)

// Snapshot is a point-in-time copy of engine state.
type Snapshot struct {
	Cards    []Card `json:"cards"`
	Phase    Phase  `json:"phase"`
	Complete bool   `json:"complete"`
}

// Errors returned by the game package.
var (
	ErrInvalidPairCount = errors.New("pair count must be between 1 and 128")
	ErrNoSuchCard       = errors.New("no card at that position")
)
