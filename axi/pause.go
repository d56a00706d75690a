package axi

import "math/rand"

// A PauseGenerator decides, cycle by cycle, whether a channel stalls.
type PauseGenerator interface {
	Pause() bool
}

// A CyclicPauses replays a fixed sequence of decisions forever.
type CyclicPauses struct {
	pauses []bool
	next   int
}

// NewCyclicPauses creates a generator replaying pauses.
func NewCyclicPauses(pauses []bool) *CyclicPauses {
	copied := make([]bool, len(pauses))
	copy(copied, pauses)

	return &CyclicPauses{pauses: copied}
}

// Default shape of a random pause sequence.
const (
	DefaultPauseLength       = 256
	DefaultAcceptProbability = 0.7
)

// RandomPauses draws n decisions that accept with probability accept and
// replays them cyclically.
func RandomPauses(rng *rand.Rand, n int, accept float64) *CyclicPauses {
	pauses := make([]bool, n)
	for i := range pauses {
		pauses[i] = rng.Float64() >= accept
	}

	return &CyclicPauses{pauses: pauses}
}

// Pause returns the next decision.
func (g *CyclicPauses) Pause() bool {
	if len(g.pauses) == 0 {
		return false
	}

	p := g.pauses[g.next]
	g.next = (g.next + 1) % len(g.pauses)

	return p
}
