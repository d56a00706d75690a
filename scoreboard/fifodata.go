package scoreboard

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sim"
)

// FifoReadPorts are the read side signals of an asynchronous FIFO.
type FifoReadPorts struct {
	Clock  *sim.Signal
	RdEn   *sim.Signal
	Empty  *sim.Signal
	RdData *sim.Signal
}

// A FifoDataChecker checks every word read from an asynchronous FIFO
// against the reference model. The read data is sampled at the read clock
// edge and the model is popped at the settle point of the same time step,
// together with the writes the write monitor enqueues.
type FifoDataChecker struct {
	sim.Lifecycle

	kernel *sim.Kernel
	ports  FifoReadPorts
	ref    *sim.Queue[monitor.Transaction]
	field  string
	cmp    *Comparator
	task   *sim.Task

	counters Counters
	sampled  uint64
}

// NewFifoDataChecker creates a FIFO data checker. field is the name of the
// data field in the reference transactions.
func NewFifoDataChecker(
	k *sim.Kernel,
	name string,
	ports FifoReadPorts,
	ref *sim.Queue[monitor.Transaction],
	field string,
	options Options,
) *FifoDataChecker {
	return &FifoDataChecker{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		ref:       ref,
		field:     field,
		cmp:       NewComparator(k, name, options),
	}
}

// Counters returns the number of checked words and errors.
func (c *FifoDataChecker) Counters() Counters {
	return c.counters
}

// Start spawns the checking task.
func (c *FifoDataChecker) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.task = c.kernel.Spawn(c.Name(), sim.ProcessFunc(c.step))

	return nil
}

// Stop kills the checking task.
func (c *FifoDataChecker) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()
	c.task = nil

	return nil
}

func (c *FifoDataChecker) step(fired sim.Trigger) sim.Trigger {
	switch {
	case fired == nil:
	case fired == sim.ReadOnly():
		c.check()
	case c.ports.RdEn.IsHigh() && c.ports.Empty.Is(0):
		c.sampled = c.ports.RdData.Int()
		return sim.ReadOnly()
	}

	return sim.RisingEdge(c.ports.Clock)
}

func (c *FifoDataChecker) check() {
	c.counters.Checked++

	ref, ok := c.ref.TryGet()
	if !ok {
		c.counters.Errors++
		c.cmp.Fail(errors.Errorf(
			"reference FIFO is empty but the DUT presents %d", c.sampled))

		return
	}

	expected, _ := ref.Value(c.field)
	if !c.cmp.Check("o_rd_data", expected, c.sampled) {
		c.counters.Errors++
	}
}
