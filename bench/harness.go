// Package bench assembles monitors, drivers, checkers and a device model into
// testbenches and runs their test scenarios.
package bench

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
)

// Stage is the progress of a Harness.
type Stage int

// Harness stages.
const (
	Constructed Stage = iota
	InReset
	Running
	Stopped
)

func (s Stage) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case InReset:
		return "reset"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidStage is returned when a harness operation is not allowed in
	// the current stage.
	ErrInvalidStage = errors.New("invalid bench stage")

	// ErrTimeout is returned when a scenario waits longer than its limit.
	ErrTimeout = errors.New("timed out")
)

// DefaultResetClocks is how long reset is held.
const DefaultResetClocks = 5

// A ResetLine is a reset signal held for a number of edges of its clock.
type ResetLine struct {
	Clock  *sim.Signal
	Signal *sim.Signal
}

// A Harness owns the components of a bench and starts and stops them in
// dependency order. Monitors start first so that no stimulus goes
// unobserved. Drivers stop first so that nothing is driven into a stopped
// monitor.
type Harness struct {
	name   string
	kernel *sim.Kernel
	stage  Stage

	resets   []ResetLine
	monitors []sim.Component
	drivers  []sim.Component
	checkers []sim.Component
}

// NewHarness creates an empty harness.
func NewHarness(k *sim.Kernel, name string) *Harness {
	return &Harness{name: name, kernel: k}
}

// Name returns the name of the bench.
func (h *Harness) Name() string {
	return h.name
}

// Kernel returns the kernel that runs the bench.
func (h *Harness) Kernel() *sim.Kernel {
	return h.kernel
}

// Stage returns the current stage.
func (h *Harness) Stage() Stage {
	return h.stage
}

// AddResetLine adds a reset signal that Reset asserts.
func (h *Harness) AddResetLine(clk, rst *sim.Signal) {
	h.resets = append(h.resets, ResetLine{Clock: clk, Signal: rst})
}

// AddMonitor adds monitors.
func (h *Harness) AddMonitor(c ...sim.Component) {
	h.monitors = append(h.monitors, c...)
}

// AddDriver adds drivers.
func (h *Harness) AddDriver(c ...sim.Component) {
	h.drivers = append(h.drivers, c...)
}

// AddChecker adds checkers.
func (h *Harness) AddChecker(c ...sim.Component) {
	h.checkers = append(h.checkers, c...)
}

// Components returns every component in start order.
func (h *Harness) Components() []sim.Component {
	var all []sim.Component
	all = append(all, h.monitors...)
	all = append(all, h.drivers...)
	all = append(all, h.checkers...)

	return all
}

func (h *Harness) mustBeIn(op string, stages ...Stage) error {
	for _, s := range stages {
		if h.stage == s {
			return nil
		}
	}

	return errors.Wrapf(ErrInvalidStage, "%s: cannot %s while %s",
		h.name, op, h.stage)
}

// BeginReset asserts every reset line and returns the tasks that release
// them after nClks edges of their clocks. The simulation is not advanced.
func (h *Harness) BeginReset(nClks int) ([]*sim.Task, error) {
	if err := h.mustBeIn("reset", Constructed, InReset, Stopped); err != nil {
		return nil, err
	}

	tasks := make([]*sim.Task, 0, len(h.resets))
	for _, r := range h.resets {
		tasks = append(tasks, h.kernel.Spawn(
			"reset_"+r.Signal.Name(), resetProcess(h.kernel, r, nClks)))
	}

	h.stage = InReset

	return tasks, nil
}

// Reset holds every reset line for nClks edges and returns once all of them
// are released.
func (h *Harness) Reset(nClks int) error {
	tasks, err := h.BeginReset(nClks)
	if err != nil {
		return err
	}

	return h.kernel.RunUntilDone(tasks...)
}

func resetProcess(k *sim.Kernel, r ResetLine, nClks int) sim.Process {
	count := 0

	return sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
		if fired == nil {
			k.Logger().Printf("Reset: %s", r.Signal.Name())
			r.Signal.Set(1)
		} else {
			count++
		}

		if count < nClks {
			return sim.RisingEdge(r.Clock)
		}

		r.Signal.Set(0)

		return nil
	})
}

// Start starts the monitors, then the drivers, then the checkers.
func (h *Harness) Start() error {
	if err := h.mustBeIn("start", Constructed, InReset); err != nil {
		return err
	}

	all := h.Components()
	for i, c := range all {
		if err := c.Start(); err != nil {
			h.rollback(all[:i])
			return err
		}
	}

	h.stage = Running

	return nil
}

// rollback stops the started components in reverse order. The stage is left
// unchanged so that Start can be retried.
func (h *Harness) rollback(started []sim.Component) {
	for i := len(started) - 1; i >= 0; i-- {
		c := started[i]
		if c.State() != sim.Running {
			continue
		}

		if err := c.Stop(); err != nil {
			h.kernel.Logger().Printf("%s: %v", h.name, err)
		}
	}
}

// Stop stops the drivers, then the monitors, then the checkers.
func (h *Harness) Stop() error {
	if err := h.mustBeIn("stop", Running); err != nil {
		return err
	}

	var all []sim.Component
	all = append(all, h.drivers...)
	all = append(all, h.monitors...)
	all = append(all, h.checkers...)

	for _, c := range all {
		if c.State() != sim.Running {
			continue
		}

		if err := c.Stop(); err != nil {
			return err
		}
	}

	h.stage = Stopped

	return nil
}

// Await runs the simulation until the tasks finish. If limit is positive,
// the run fails with ErrTimeout after limit rising edges of clk.
func (h *Harness) Await(clk *sim.Signal, limit int, tasks ...*sim.Task) error {
	if limit <= 0 {
		return h.kernel.RunUntilDone(tasks...)
	}

	timedOut := false
	count := 0
	watchdog := h.kernel.Spawn("watchdog", sim.ProcessFunc(
		func(fired sim.Trigger) sim.Trigger {
			if fired != nil {
				count++
			}

			if count < limit {
				return sim.RisingEdge(clk)
			}

			timedOut = true
			h.kernel.Engine().Halt()

			return nil
		}))
	defer watchdog.Kill()

	err := h.kernel.RunUntilDone(tasks...)
	if timedOut && errors.Is(err, sim.ErrNeverFinishes) {
		return errors.Wrapf(ErrTimeout, "%s: after %d clocks of %s",
			h.name, limit, clk.Name())
	}

	return err
}

// Verdict summarizes the checkers. Flag checkers report missed assertions,
// every other checker counts towards the transactions.
func (h *Harness) Verdict() Verdict {
	var v Verdict

	for _, c := range h.checkers {
		switch c := c.(type) {
		case *scoreboard.FlagChecker:
			v.addFlag(c.Flag(), c.Errors())
		case scoreboard.Checker:
			cnt := c.Counters()
			v.Transactions.Checked += cnt.Checked
			v.Transactions.Errors += cnt.Errors
		}

		if r, ok := c.(residualChecker); ok && r.Residual() > 0 {
			v.Fail(fmt.Sprintf("%d unmatched transactions left in %s",
				r.Residual(), c.Name()))
		}
	}

	h.kernel.Logger().Printf("%d transactions checked", v.Transactions.Checked)

	if v.Transactions.Errors > 0 {
		v.Failures = append([]string{fmt.Sprintf(
			"%d number of %d transactions INCORRECT!!!",
			v.Transactions.Errors, v.Transactions.Checked)}, v.Failures...)
	}

	return v
}

type residualChecker interface {
	Residual() int
}

// A Verdict is the outcome of a scenario.
type Verdict struct {
	Transactions scoreboard.Counters
	FlagMisses   map[string]int
	Failures     []string
}

func (v *Verdict) addFlag(flag string, missed int) {
	if v.FlagMisses == nil {
		v.FlagMisses = make(map[string]int)
	}

	v.FlagMisses[flag] += missed
	if missed > 0 {
		v.Failures = append(v.Failures, fmt.Sprintf(
			"%d number of %s flag assertion missed!!!",
			missed, strings.ToUpper(flag)))
	}
}

// Fail adds a failure message.
func (v *Verdict) Fail(msg string) {
	v.Failures = append(v.Failures, msg)
}

// Passed returns true if nothing failed.
func (v Verdict) Passed() bool {
	return len(v.Failures) == 0
}

// Err returns the failures as one error, or nil if the verdict passed.
func (v Verdict) Err() error {
	if v.Passed() {
		return nil
	}

	return errors.New(strings.Join(v.Failures, "; "))
}
