package dut

import (
	"github.com/sarchlab/hwverify/sccb"
	"github.com/sarchlab/hwverify/sim"
)

// SCCBPorts are the pins of an SCCB master.
type SCCBPorts struct {
	Clk        *sim.Signal
	Rst        *sim.Signal
	Valid      *sim.Signal
	Ready      *sim.Signal
	ID         *sim.Signal
	SubAddress *sim.Signal
	Data       *sim.Signal
	SioC       *sim.Signal
	SioD       *sim.Signal
}

// DefaultSCCBDivider holds each quarter bit for 2.5 us of a 100 MHz clock.
const DefaultSCCBDivider = 250

// An SCCBMaster accepts write transactions on a ready/valid interface and
// sends each one on the two wire bus. Ready is low while a transaction is
// on the bus.
type SCCBMaster struct {
	sim.Lifecycle

	kernel  *sim.Kernel
	ports   SCCBPorts
	divider int
	task    *sim.Task

	busy  bool
	wave  []sccb.Pins
	index int
	count int
}

// NewSCCBMaster creates a master that holds every quarter bit for divider
// clock cycles.
func NewSCCBMaster(
	k *sim.Kernel,
	name string,
	divider int,
	ports SCCBPorts,
) *SCCBMaster {
	if divider < 1 {
		divider = 1
	}

	ports.Ready.Init(0)
	ports.SioC.Init(sccb.Idle.C)
	ports.SioD.Init(sccb.Idle.D)

	return &SCCBMaster{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		divider:   divider,
	}
}

// Start spawns the clocked process.
func (m *SCCBMaster) Start() error {
	if err := m.BeginStart(); err != nil {
		return err
	}

	m.task = m.kernel.Spawn(m.Name(), clocked(m.ports.Clk, m.tick))

	return nil
}

// Stop kills the clocked process.
func (m *SCCBMaster) Stop() error {
	if err := m.BeginStop(); err != nil {
		return err
	}

	m.task.Kill()

	return nil
}

func (m *SCCBMaster) tick() {
	p := m.ports

	if p.Rst.IsHigh() {
		m.busy = false
		p.Ready.Set(0)
		m.drive(sccb.Idle)

		return
	}

	if !m.busy {
		m.idle()
		return
	}

	m.count++
	if m.count < m.divider {
		return
	}

	m.count = 0
	m.index++
	if m.index == len(m.wave) {
		m.busy = false
		p.Ready.Set(1)

		return
	}

	m.drive(m.wave[m.index])
}

func (m *SCCBMaster) idle() {
	p := m.ports

	if !p.Valid.IsHigh() || !p.Ready.IsHigh() {
		p.Ready.Set(1)
		return
	}

	t := sccb.Transaction{
		IDAddress:  uint8(p.ID.Int()),
		SubAddress: uint8(p.SubAddress.Int()),
		Data:       uint8(p.Data.Int()),
	}

	m.busy = true
	m.wave = sccb.Waveform(t, false)
	m.index = 0
	m.count = 0
	p.Ready.Set(0)
	m.drive(m.wave[0])
}

func (m *SCCBMaster) drive(pins sccb.Pins) {
	m.ports.SioC.Set(pins.C)
	m.ports.SioD.Set(pins.D)
}
