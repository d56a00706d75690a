package driver

import (
	"math/rand"

	"github.com/sarchlab/hwverify/sim"
)

// EnableConfig configures an EnableDriver.
type EnableConfig struct {
	Name  string
	Clock *sim.Signal
	Line  *sim.Signal

	Mode Mode

	// Probability is the chance to assert the line on a clock edge in the
	// Random mode.
	Probability float64

	// Backoff, if set, is a 1-bit signal that forbids asserting the line.
	// The line drops as soon as Backoff rises.
	Backoff *sim.Signal

	// StartLow keeps the line low until the first clock edge.
	StartLow bool

	Rng *rand.Rand
}

// An EnableDriver paces a valid or enable line.
type EnableDriver struct {
	sim.Lifecycle

	kernel *sim.Kernel
	cfg    EnableConfig
	task   *sim.Task
}

// NewEnableDriver creates an enable driver.
func NewEnableDriver(k *sim.Kernel, cfg EnableConfig) *EnableDriver {
	if cfg.Mode == Random && cfg.Rng == nil {
		panic("driver: random mode needs a random source")
	}

	return &EnableDriver{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		cfg:       cfg,
	}
}

// Line returns the driven signal.
func (d *EnableDriver) Line() *sim.Signal {
	return d.cfg.Line
}

// Mode returns the pacing mode.
func (d *EnableDriver) Mode() Mode {
	return d.cfg.Mode
}

// SetMode changes the pacing mode. It takes effect at the next clock edge.
func (d *EnableDriver) SetMode(m Mode) {
	if m == Random && d.cfg.Rng == nil {
		panic("driver: random mode needs a random source")
	}

	d.cfg.Mode = m
}

// Start spawns the pacing task.
func (d *EnableDriver) Start() error {
	if err := d.BeginStart(); err != nil {
		return err
	}

	d.task = d.kernel.Spawn(d.Name(), sim.ProcessFunc(d.step))

	return nil
}

// Stop kills the pacing task and deasserts the line.
func (d *EnableDriver) Stop() error {
	if err := d.BeginStop(); err != nil {
		return err
	}

	d.task.Kill()
	d.task = nil
	d.cfg.Line.Set(0)

	return nil
}

func (d *EnableDriver) step(fired sim.Trigger) sim.Trigger {
	switch {
	case fired == nil:
		if d.cfg.StartLow {
			d.cfg.Line.Set(0)
		} else {
			d.drive()
		}
	case d.isBackoffEdge(fired) && d.cfg.Backoff.IsHigh():
		d.cfg.Line.Set(0)
	default:
		d.drive()
	}

	if d.cfg.Backoff == nil {
		return sim.RisingEdge(d.cfg.Clock)
	}

	return sim.First(sim.RisingEdge(d.cfg.Clock), sim.Edge(d.cfg.Backoff))
}

func (d *EnableDriver) isBackoffEdge(fired sim.Trigger) bool {
	e, ok := fired.(*sim.EdgeTrigger)
	return ok && d.cfg.Backoff != nil && e.Signal == d.cfg.Backoff
}

func (d *EnableDriver) drive() {
	if d.cfg.Backoff != nil && d.cfg.Backoff.IsHigh() {
		d.cfg.Line.Set(0)
		return
	}

	switch d.cfg.Mode {
	case Random:
		d.cfg.Line.SetBool(draw(d.cfg.Rng, d.cfg.Probability))
	default:
		d.cfg.Line.Set(1)
	}
}
