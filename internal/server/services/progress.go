package services

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
)

const (
	maxInProgress = 95
	earlyStep     = 3
	lateStep      = 1
	lateThreshold = 85
)

// NextProgress advances an IN_PROGRESS session's percentage after a turn.
// It follows a saturating curve over answered pairs with a small jitter
// seeded by the session id, never moves backwards and stays at or below 95
// until completion sets 100.
func NextProgress(sessionID string, current int, messageCount int) int {
	pairs := messageCount / 2
	growth := 1 - math.Exp(-0.4*float64(max(pairs, 1)))

	jitter := 0.0
	if pairs > 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(sessionID))
		seed := h.Sum64() ^ uint64(pairs)<<8
		rng := rand.New(rand.NewPCG(seed, seed>>3|1))
		jitter = -2 + rng.Float64()*6
	}

	target := int(math.Round(maxInProgress*growth + jitter))

	step := earlyStep
	if current >= lateThreshold {
		step = lateStep
	}

	next := max(current, target)
	if next-current < step {
		next = min(current+step, maxInProgress)
	}
	next = min(next, maxInProgress)
	if pairs > 0 {
		next = max(next, 5)
	}
	return max(next, current)
}
