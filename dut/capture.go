package dut

import (
	"github.com/sarchlab/hwverify/sim"
)

// CapturePorts are the pins of a camera capture block.
type CapturePorts struct {
	PClk  *sim.Signal
	Rst   *sim.Signal
	Data  *sim.Signal
	VSync *sim.Signal
	HRef  *sim.Signal

	PxlVld *sim.Signal
	PxlR   *sim.Signal
	PxlG   *sim.Signal
	PxlB   *sim.Signal
	EOS    *sim.Signal
}

// A Capture turns the RGB565 byte stream of a camera into pixels. A pixel
// is valid for one cycle after its second byte. The end of stream strobe
// pulses with the last pixel of every frame.
type Capture struct {
	sim.Lifecycle

	kernel *sim.Kernel
	ports  CapturePorts
	pixels int
	task   *sim.Task

	first  uint64
	second bool
	count  int
}

// NewCapture creates a capture block for frames of width by height pixels.
func NewCapture(
	k *sim.Kernel,
	name string,
	width, height int,
	ports CapturePorts,
) *Capture {
	ports.PxlVld.Init(0)
	ports.EOS.Init(0)

	return &Capture{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		pixels:    width * height,
	}
}

// Start spawns the clocked process.
func (c *Capture) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.task = c.kernel.Spawn(c.Name(), clocked(c.ports.PClk, c.tick))

	return nil
}

// Stop kills the clocked process.
func (c *Capture) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()

	return nil
}

func (c *Capture) tick() {
	p := c.ports

	p.PxlVld.Set(0)
	p.EOS.Set(0)

	if p.Rst.IsHigh() || p.VSync.IsHigh() {
		c.second = false
		c.count = 0

		return
	}

	if !p.HRef.IsHigh() {
		c.second = false
		return
	}

	if !c.second {
		c.first = p.Data.Int()
		c.second = true

		return
	}

	second := p.Data.Int()
	c.second = false

	p.PxlR.Set(c.first >> 3)
	p.PxlG.Set((c.first&0x7)<<3 | second>>5)
	p.PxlB.Set(second & 0x1f)
	p.PxlVld.Set(1)

	c.count++
	if c.count == c.pixels {
		p.EOS.Set(1)
		c.count = 0
	}
}
