package sim

import (
	"fmt"

	"github.com/sarchlab/hwverify/timing"
)

type clockToggleEvent struct {
	gen uint64
}

// A Clock drives a 1-bit signal with a fixed period. The signal goes high
// when the clock starts and toggles every half period.
type Clock struct {
	kernel *Kernel
	signal *Signal
	period timing.VTimeInCycle

	gen     uint64
	running bool
	level   bool
}

// NewClock creates a clock on a 1-bit signal. The period is in steps and
// must be at least 2.
func NewClock(k *Kernel, s *Signal, period timing.VTimeInCycle) *Clock {
	mustBeSingleBit(s, "Clock")

	if period < 2 {
		panic(fmt.Sprintf("sim: clock %s period %d is too short", s.name, period))
	}

	return &Clock{kernel: k, signal: s, period: period}
}

// Signal returns the driven signal.
func (c *Clock) Signal() *Signal {
	return c.signal
}

// Period returns the clock period in steps.
func (c *Clock) Period() timing.VTimeInCycle {
	return c.period
}

// Start drives the signal high now and starts toggling.
func (c *Clock) Start() {
	if c.running {
		return
	}

	c.running = true
	c.gen++
	c.level = true
	c.signal.Set(1)
	c.scheduleToggle(c.period / 2)
}

// Stop freezes the signal at its current level.
func (c *Clock) Stop() {
	c.running = false
	c.gen++
}

// Handle toggles the clock signal.
func (c *Clock) Handle(event any) error {
	e, ok := event.(*clockToggleEvent)
	if !ok {
		return fmt.Errorf("sim: clock cannot handle event type: %T", event)
	}

	if e.gen != c.gen {
		return nil
	}

	c.level = !c.level
	c.signal.SetBool(c.level)

	if c.level {
		c.scheduleToggle(c.period / 2)
	} else {
		c.scheduleToggle(c.period - c.period/2)
	}

	return nil
}

func (c *Clock) scheduleToggle(after timing.VTimeInCycle) {
	c.kernel.engine.Schedule(timing.ScheduledEvent{
		Event:   &clockToggleEvent{gen: c.gen},
		Time:    c.kernel.Now() + after,
		Handler: c,
	})
}
