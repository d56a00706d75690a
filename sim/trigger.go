package sim

import (
	"fmt"

	"github.com/sarchlab/hwverify/timing"
)

// A Trigger is something a process can wait on.
type Trigger interface {
	arm(k *Kernel, w waiter)
}

// Polarity selects which transitions an EdgeTrigger reacts to.
type Polarity int

// Edge polarities.
const (
	AnyChange Polarity = iota
	Rising
	Falling
)

func (p Polarity) String() string {
	switch p {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "any"
	}
}

// EdgeTrigger fires when a committed value of the signal changes with the
// given polarity.
type EdgeTrigger struct {
	Signal   *Signal
	Polarity Polarity
}

// RisingEdge waits for a 1-bit signal to become 1.
func RisingEdge(s *Signal) *EdgeTrigger {
	mustBeSingleBit(s, "RisingEdge")
	return &EdgeTrigger{Signal: s, Polarity: Rising}
}

// FallingEdge waits for a 1-bit signal to become 0.
func FallingEdge(s *Signal) *EdgeTrigger {
	mustBeSingleBit(s, "FallingEdge")
	return &EdgeTrigger{Signal: s, Polarity: Falling}
}

// Edge waits for any change of the signal.
func Edge(s *Signal) *EdgeTrigger {
	return &EdgeTrigger{Signal: s, Polarity: AnyChange}
}

func mustBeSingleBit(s *Signal, what string) {
	if s.width != 1 {
		panic(fmt.Sprintf(
			"sim: %s on %d-bit signal %s", what, s.width, s.name))
	}
}

func (t *EdgeTrigger) arm(_ *Kernel, w waiter) {
	w.trigger = t
	t.Signal.waiters = append(t.Signal.waiters, edgeWaiter{waiter: w, edge: t})
}

func (t *EdgeTrigger) String() string {
	return t.Polarity.String() + " edge of " + t.Signal.name
}

// TimerTrigger fires after a fixed number of steps.
type TimerTrigger struct {
	Steps timing.VTimeInCycle
}

// Timer waits for the given number of steps. A zero-step timer resumes the
// process in the next delta cycle.
func Timer(steps timing.VTimeInCycle) *TimerTrigger {
	return &TimerTrigger{Steps: steps}
}

func (t *TimerTrigger) arm(k *Kernel, w waiter) {
	w.trigger = t
	if t.Steps == 0 {
		k.wake(w)
		return
	}

	k.engine.Schedule(timing.ScheduledEvent{
		Event:   &timerEvent{waiter: w},
		Time:    k.Now() + t.Steps,
		Handler: k,
	})
}

// ReadOnlyTrigger fires once all the delta cycles of the current time step
// have settled.
type ReadOnlyTrigger struct{}

var readOnly = &ReadOnlyTrigger{}

// ReadOnly waits for the settle point of the current time step. Writing a
// signal after resuming from ReadOnly, before waiting on another trigger, is
// a programming error.
func ReadOnly() *ReadOnlyTrigger {
	return readOnly
}

func (t *ReadOnlyTrigger) arm(k *Kernel, w waiter) {
	if k.phase == phaseReadOnly {
		panic("sim: ReadOnly awaited during the read-only phase")
	}

	w.trigger = t
	k.readOnlyWaiters = append(k.readOnlyWaiters, w)
	k.ensureSettle()
}

// FirstTrigger fires when any of its triggers fires. The process receives
// the sub-trigger that fired.
type FirstTrigger struct {
	Triggers []Trigger
}

// First waits for the first of several triggers.
func First(triggers ...Trigger) *FirstTrigger {
	return &FirstTrigger{Triggers: triggers}
}

func (t *FirstTrigger) arm(k *Kernel, w waiter) {
	for _, sub := range t.Triggers {
		sub.arm(k, w)
	}
}

// QueueTrigger fires when a queue holds at least one element.
type QueueTrigger struct {
	notify *notifier
}

func (t *QueueTrigger) arm(k *Kernel, w waiter) {
	w.trigger = t
	if t.notify.ready() {
		k.wake(w)
		return
	}

	t.notify.waiters = append(t.notify.waiters, w)
}

type notifier struct {
	kernel  *Kernel
	ready   func() bool
	waiters []waiter
}

func (n *notifier) notify() {
	waiters := n.waiters
	n.waiters = nil

	for _, w := range waiters {
		n.kernel.wake(w)
	}
}

type timerEvent struct {
	waiter waiter
}

type settleEvent struct{}
