package scoreboard

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"
)

// A Record is a transaction with named fields.
type Record interface {
	Value(name string) (uint64, bool)
}

// A Checker is a checking component with counters.
type Checker interface {
	sim.Component
	Counters() Counters
}

// A StreamChecker pairs each DUT transaction with the next reference
// transaction, in order, and compares the named fields. Every field is
// compared and reported; a transaction with any mismatching field counts as
// one error.
type StreamChecker[D, R Record] struct {
	sim.Lifecycle

	kernel *sim.Kernel
	dut    *sim.Queue[D]
	ref    *sim.Queue[R]
	fields []string
	cmp    *Comparator
	task   *sim.Task

	counters Counters
	current  D
	holding  bool
	residual int
}

// NewStreamChecker creates a stream checker.
func NewStreamChecker[D, R Record](
	k *sim.Kernel,
	name string,
	dut *sim.Queue[D],
	ref *sim.Queue[R],
	fields []string,
	options Options,
) *StreamChecker[D, R] {
	return &StreamChecker[D, R]{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		dut:       dut,
		ref:       ref,
		fields:    fields,
		cmp:       NewComparator(k, name, options),
	}
}

// Counters returns the number of compared transactions and errors.
func (c *StreamChecker[D, R]) Counters() Counters {
	return c.counters
}

// Residual returns the number of DUT transactions left unmatched when the
// checker stopped. Reference transactions still in flight are not counted.
func (c *StreamChecker[D, R]) Residual() int {
	return c.residual
}

// Start spawns the checking task.
func (c *StreamChecker[D, R]) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.task = c.kernel.Spawn(c.Name(), sim.ProcessFunc(c.step))

	return nil
}

// Stop kills the checking task.
func (c *StreamChecker[D, R]) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()
	c.task = nil

	c.residual = c.dut.Size()
	if c.holding {
		c.residual++
	}
	c.holding = false

	return nil
}

func (c *StreamChecker[D, R]) step(sim.Trigger) sim.Trigger {
	for {
		if !c.holding {
			d, ok := c.dut.TryGet()
			if !ok {
				return c.dut.NotEmpty()
			}

			c.current = d
			c.holding = true
		}

		r, ok := c.ref.TryGet()
		if !ok {
			return c.ref.NotEmpty()
		}

		c.compare(c.current, r)
		c.holding = false
	}
}

func (c *StreamChecker[D, R]) compare(dut D, ref R) {
	match := true

	for _, f := range c.fields {
		expected, okRef := ref.Value(f)
		actual, okDUT := dut.Value(f)

		if !okRef || !okDUT {
			c.cmp.Fail(errors.Errorf("field %s missing", f))
			match = false

			continue
		}

		if !c.cmp.Check(f, expected, actual) {
			match = false
		}
	}

	if !match {
		c.counters.Errors++
	}
	c.counters.Checked++
}
