package sccb

import (
	"math/rand"

	"github.com/sarchlab/hwverify/sim"
)

// DriverPorts are the parallel inputs of an SCCB master.
type DriverPorts struct {
	Clock      *sim.Signal
	Data       *sim.Signal
	SubAddress *sim.Signal
	ID         *sim.Signal
	Valid      *sim.Signal
	Ready      *sim.Signal
}

// A Driver keeps valid high and offers a new random transaction after every
// clock edge at which the master was ready.
type Driver struct {
	sim.Lifecycle

	kernel *sim.Kernel
	ports  DriverPorts
	rng    *rand.Rand
	task   *sim.Task
}

// NewDriver creates a driver.
func NewDriver(
	k *sim.Kernel,
	name string,
	ports DriverPorts,
	rng *rand.Rand,
) *Driver {
	return &Driver{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		rng:       rng,
	}
}

// Start raises valid and starts offering transactions.
func (d *Driver) Start() error {
	if err := d.BeginStart(); err != nil {
		return err
	}

	d.task = d.kernel.Spawn(d.Name(), sim.ProcessFunc(d.step))

	return nil
}

// Stop kills the driver and drops valid.
func (d *Driver) Stop() error {
	if err := d.BeginStop(); err != nil {
		return err
	}

	d.task.Kill()
	d.task = nil
	d.ports.Valid.Set(0)

	return nil
}

func (d *Driver) step(fired sim.Trigger) sim.Trigger {
	switch {
	case fired == nil:
		d.ports.Valid.Set(1)
		d.offer()
	case d.isClockEdge(fired):
		if !d.ports.Ready.IsHigh() {
			return sim.RisingEdge(d.ports.Ready)
		}

		d.offer()
	}

	return sim.RisingEdge(d.ports.Clock)
}

func (d *Driver) isClockEdge(fired sim.Trigger) bool {
	e, ok := fired.(*sim.EdgeTrigger)
	return ok && e.Signal == d.ports.Clock
}

func (d *Driver) offer() {
	var t Transaction
	t.Randomise(d.rng)

	d.ports.Data.Set(uint64(t.Data))
	d.ports.SubAddress.Set(uint64(t.SubAddress))
	d.ports.ID.Set(uint64(t.IDAddress))
}
