package sim

import (
	"fmt"
	"strings"
)

// A Signal is a named, time-varying logical value of 1 to 64 bits.
//
// Reads always return the committed value. Writes are non-blocking: Set
// records a pending value that becomes visible at the update phase of the
// current delta cycle.
type Signal struct {
	kernel *Kernel
	name   string
	width  int

	value uint64
	known bool

	pendingValue uint64
	hasPending   bool

	waiters []edgeWaiter
}

// SignalChange is the Detail of a HookPosSignalCommit hook.
type SignalChange struct {
	OldValue, NewValue uint64
	OldKnown           bool
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Known returns false until the signal is driven for the first time.
func (s *Signal) Known() bool {
	return s.known
}

// Int returns the integer view of the committed value. An unknown signal
// reads as 0.
func (s *Signal) Int() uint64 {
	return s.value
}

// Is returns true if the signal is known and equals v.
func (s *Signal) Is(v uint64) bool {
	return s.known && s.value == v
}

// IsHigh returns true if a 1-bit signal is known and high.
func (s *Signal) IsHigh() bool {
	return s.Is(1)
}

// BinStr returns the raw bit string view, MSB first. Unknown bits are 'x'.
func (s *Signal) BinStr() string {
	if !s.known {
		return strings.Repeat("x", s.width)
	}

	return formatBits(s.value, s.width)
}

func formatBits(v uint64, width int) string {
	return fmt.Sprintf("%0*b", width, v)
}

// String returns the name and the bit string of the signal.
func (s *Signal) String() string {
	return s.name + "=" + s.BinStr()
}

// Set schedules v to be committed at the end of the current delta cycle.
// The last Set within a delta cycle wins.
func (s *Signal) Set(v uint64) {
	if v&^s.mask() != 0 {
		panic(fmt.Sprintf(
			"sim: value %d does not fit in %d-bit signal %s", v, s.width, s.name))
	}

	s.kernel.mustBeWritable(s)

	s.pendingValue = v
	if !s.hasPending {
		s.hasPending = true
		s.kernel.pending = append(s.kernel.pending, s)
	}

	s.kernel.ensureSettle()
}

// SetBool sets a 1-bit signal to 1 if b is true and 0 otherwise.
func (s *Signal) SetBool(b bool) {
	if b {
		s.Set(1)
		return
	}

	s.Set(0)
}

// Init assigns an initial value immediately, without edges. It is meant for
// building a bench before the simulation runs.
func (s *Signal) Init(v uint64) {
	if v&^s.mask() != 0 {
		panic(fmt.Sprintf(
			"sim: value %d does not fit in %d-bit signal %s", v, s.width, s.name))
	}

	s.value = v
	s.known = true
}

func (s *Signal) mask() uint64 {
	if s.width == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << s.width) - 1
}

// commit applies the pending value and returns the change, if any.
func (s *Signal) commit() (change SignalChange, changed bool) {
	s.hasPending = false

	change = SignalChange{
		OldValue: s.value,
		NewValue: s.pendingValue,
		OldKnown: s.known,
	}

	if s.known && s.value == s.pendingValue {
		return change, false
	}

	s.value = s.pendingValue
	s.known = true

	return change, true
}

func (c SignalChange) matches(p Polarity) bool {
	switch p {
	case Rising:
		return c.NewValue == 1 && !(c.OldKnown && c.OldValue == 1)
	case Falling:
		return c.NewValue == 0 && !(c.OldKnown && c.OldValue == 0)
	default:
		return true
	}
}
