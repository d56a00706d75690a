package scoreboard

import (
	"fmt"

	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sim"
)

// A Frame is a reference image.
type Frame interface {
	Width() int
	Height() int
	Pixel(x, y int) [3]uint64
}

// A FrameChecker compares captured pixels against a reference frame in
// raster order, wrapping around at the end of the frame. Every colour plane
// is one check.
type FrameChecker struct {
	sim.Lifecycle

	kernel *sim.Kernel
	dut    *sim.Queue[monitor.Transaction]
	frame  Frame
	planes [3]string
	cmp    *Comparator
	task   *sim.Task

	counters Counters
	x, y     int
}

// NewFrameChecker creates a frame checker. planes are the field names of the
// red, green and blue values.
func NewFrameChecker(
	k *sim.Kernel,
	name string,
	dut *sim.Queue[monitor.Transaction],
	frame Frame,
	planes [3]string,
	options Options,
) *FrameChecker {
	return &FrameChecker{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		dut:       dut,
		frame:     frame,
		planes:    planes,
		cmp:       NewComparator(k, name, options),
	}
}

// Counters returns the number of checked planes and errors.
func (c *FrameChecker) Counters() Counters {
	return c.counters
}

// Start spawns the checking task at the first pixel of the frame.
func (c *FrameChecker) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.x, c.y = 0, 0
	c.task = c.kernel.Spawn(c.Name(), sim.ProcessFunc(c.step))

	return nil
}

// Stop kills the checking task.
func (c *FrameChecker) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()
	c.task = nil

	return nil
}

func (c *FrameChecker) step(sim.Trigger) sim.Trigger {
	for {
		t, ok := c.dut.TryGet()
		if !ok {
			return c.dut.NotEmpty()
		}

		c.checkPixel(t)
		c.advance()
	}
}

func (c *FrameChecker) checkPixel(t monitor.Transaction) {
	want := c.frame.Pixel(c.x, c.y)

	for i, plane := range c.planes {
		got, _ := t.Value(plane)
		label := fmt.Sprintf("%s, x=%d, y=%d", plane, c.x, c.y)

		if !c.cmp.Check(label, want[i], got) {
			c.counters.Errors++
		}
		c.counters.Checked++
	}
}

func (c *FrameChecker) advance() {
	if c.x < c.frame.Width()-1 {
		c.x++
		return
	}

	c.x = 0
	if c.y < c.frame.Height()-1 {
		c.y++
		return
	}

	c.y = 0
}
