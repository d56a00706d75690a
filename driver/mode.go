// Package driver generates stimulus on valid/enable and payload signals.
package driver

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Mode selects how an enable line is paced.
type Mode int

// Stimulus modes.
const (
	// Full keeps the line asserted.
	Full Mode = iota

	// Random asserts the line on each clock edge with a fixed probability.
	Random
)

// ErrInvalidMode is returned by ParseMode for unknown mode names.
var ErrInvalidMode = errors.New("invalid driver mode")

// ParseMode converts "full" or "random" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return Full, nil
	case "random":
		return Random, nil
	default:
		return Full, errors.Wrapf(ErrInvalidMode,
			"%q, must be \"full\" or \"random\"", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// Set implements pflag.Value so that modes can be command line flags.
func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}

func draw(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// uniform draws a value uniformly over width bits.
func uniform(rng *rand.Rand, width int) uint64 {
	if width >= 64 {
		return rng.Uint64()
	}

	return rng.Uint64() >> (64 - width)
}
