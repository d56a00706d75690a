package driver

import (
	"math/rand"

	"github.com/sarchlab/hwverify/sim"
)

// PayloadConfig configures a PayloadDriver.
type PayloadConfig struct {
	Name    string
	Clock   *sim.Signal
	Payload *sim.Signal

	// Enable is the valid line of the payload. The payload only moves on
	// to a new value after a clock edge where Enable was high.
	Enable *sim.Signal

	// Backpressure, if set, holds the payload while it is not low.
	Backpressure *sim.Signal

	Rng *rand.Rand
}

// A PayloadDriver puts uniformly random values on a data signal. A value is
// replaced only after it was consumed, so the value seen at a sampling edge
// is always the one the consumer takes.
type PayloadDriver struct {
	sim.Lifecycle

	kernel *sim.Kernel
	cfg    PayloadConfig
	width  int
	task   *sim.Task
}

// NewPayloadDriver creates a payload driver.
func NewPayloadDriver(k *sim.Kernel, cfg PayloadConfig) *PayloadDriver {
	return &PayloadDriver{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		cfg:       cfg,
	}
}

// Start spawns the payload task.
func (d *PayloadDriver) Start() error {
	if err := d.BeginStart(); err != nil {
		return err
	}

	d.width = len(d.cfg.Payload.BinStr())
	d.task = d.kernel.Spawn(d.Name(), sim.ProcessFunc(d.step))

	return nil
}

// Stop kills the payload task. The payload keeps its last value.
func (d *PayloadDriver) Stop() error {
	if err := d.BeginStop(); err != nil {
		return err
	}

	d.task.Kill()
	d.task = nil

	return nil
}

func (d *PayloadDriver) step(fired sim.Trigger) sim.Trigger {
	if fired == nil || d.consumed() {
		d.cfg.Payload.Set(uniform(d.cfg.Rng, d.width))
	}

	return sim.RisingEdge(d.cfg.Clock)
}

func (d *PayloadDriver) consumed() bool {
	if d.cfg.Backpressure != nil && !d.cfg.Backpressure.Is(0) {
		return false
	}

	return d.cfg.Enable.IsHigh()
}
