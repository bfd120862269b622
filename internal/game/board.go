// internal/game/board.go
//
// Board generation: a shuffled multiset of paired values.

package game

import "math/rand/v2"

// DefaultPairCount gives the classic 4x4 board (16 tiles).
const DefaultPairCount = 8

// MaxPairCount bounds the board size.
const MaxPairCount = 128

// GenerateBoard returns 2*pairCount face-down cards holding the values
// 1..pairCount exactly twice each, in Fisher-Yates order drawn from rng.
// A nil rng uses the package-level source.
func GenerateBoard(pairCount int, rng *rand.Rand) ([]Card, error) {
	if pairCount < 1 || pairCount > MaxPairCount {
		return nil, ErrInvalidPairCount
	}

	values := make([]int, 0, pairCount*2)
	for v := 1; v <= pairCount; v++ {
		values = append(values, v, v)
	}

	swap := func(i, j int) { values[i], values[j] = values[j], values[i] }
	if rng != nil {
		rng.Shuffle(len(values), swap)
	} else {
		rand.Shuffle(len(values), swap)
	}

	cards := make([]Card, len(values))
	for i, v := range values {
		cards[i] = Card{Position: i, Value: v, Face: FaceDown}
	}
	return cards, nil
}
