package scoreboard

import (
	"fmt"

	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sim"
)

// NewRefFIFO creates the reference model of an asynchronous FIFO of depth
// 2^depthLog2. A first-word-fall-through FIFO shows one more word on its
// output, so the model holds one extra entry.
func NewRefFIFO(
	k *sim.Kernel,
	name string,
	depthLog2 int,
) *sim.Queue[monitor.Transaction] {
	return sim.NewQueue[monitor.Transaction](k, name, 1<<depthLog2+1)
}

// A FlagChecker checks a status flag against a predicate of the reference
// model on every rising edge of its own clock. When the predicate holds, the
// flag must be 1.
type FlagChecker struct {
	sim.Lifecycle

	kernel    *sim.Kernel
	clk       *sim.Signal
	flag      *sim.Signal
	flagName  string
	predicate func() bool
	cmp       *Comparator
	task      *sim.Task

	passes   int
	errors   int
	asserted int
}

// NewFlagChecker creates a flag checker. flagName is used in messages, for
// example "full".
func NewFlagChecker(
	k *sim.Kernel,
	name, flagName string,
	clk, flag *sim.Signal,
	predicate func() bool,
	options Options,
) *FlagChecker {
	return &FlagChecker{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		clk:       clk,
		flag:      flag,
		flagName:  flagName,
		predicate: predicate,
		cmp:       NewComparator(k, name, options),
	}
}

// NewFullChecker checks that the full flag is up whenever the reference
// model is full. It runs on the write clock.
func NewFullChecker(
	k *sim.Kernel,
	ref *sim.Queue[monitor.Transaction],
	clk, full *sim.Signal,
	options Options,
) *FlagChecker {
	return NewFlagChecker(k, "full_checker", "full", clk, full, ref.Full, options)
}

// NewEmptyChecker checks that the empty flag is up whenever the reference
// model is empty. It runs on the read clock.
func NewEmptyChecker(
	k *sim.Kernel,
	ref *sim.Queue[monitor.Transaction],
	clk, empty *sim.Signal,
	options Options,
) *FlagChecker {
	return NewFlagChecker(k, "empty_checker", "empty", clk, empty, ref.Empty, options)
}

// Flag returns the name of the checked flag.
func (c *FlagChecker) Flag() string {
	return c.flagName
}

// Passes returns how many edges saw the predicate hold with the flag up.
func (c *FlagChecker) Passes() int {
	return c.passes
}

// Errors returns how many edges saw the predicate hold with the flag down.
func (c *FlagChecker) Errors() int {
	return c.errors
}

// Asserted returns how many edges saw the flag up.
func (c *FlagChecker) Asserted() int {
	return c.asserted
}

// Counters returns the passes plus errors as checked.
func (c *FlagChecker) Counters() Counters {
	return Counters{Checked: c.passes + c.errors, Errors: c.errors}
}

// Start spawns the checking task.
func (c *FlagChecker) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.task = c.kernel.Spawn(c.Name(), sim.ProcessFunc(c.step))

	return nil
}

// Stop kills the checking task.
func (c *FlagChecker) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()
	c.task = nil

	c.kernel.Logger().Printf(
		"%s detected %d correct assertions of the %s flag",
		c.Name(), c.passes, c.flagName)

	return nil
}

func (c *FlagChecker) step(fired sim.Trigger) sim.Trigger {
	if fired != nil {
		c.check()
	}

	return sim.RisingEdge(c.clk)
}

func (c *FlagChecker) check() {
	up := c.flag.IsHigh()
	if up {
		c.asserted++
	}

	if !c.predicate() {
		return
	}

	msg := fmt.Sprintf("FIFO is %s but %s flag is not asserted!",
		c.flagName, c.flagName)
	if c.cmp.Assert(c.flagName, up, msg) {
		c.passes++
		return
	}

	c.errors++
}
