package sccb

import (
	"github.com/sarchlab/hwverify/sim"
)

// A Decoder rebuilds transactions from SIO_C and SIO_D.
//
// One transaction is emitted per START...STOP. Nothing is emitted for a
// START without a STOP: a new START drops the transaction in progress. A read request is a protocol error: it is logged
// and counted, and the transaction is still emitted.
type Decoder struct {
	sim.Lifecycle

	kernel *sim.Kernel
	sioC   *sim.Signal
	sioD   *sim.Signal
	out    *sim.Queue[Transaction]
	task   *sim.Task

	protocolErrors int
}

// NewDecoder creates a decoder on the two bus lines.
func NewDecoder(k *sim.Kernel, name string, sioC, sioD *sim.Signal) *Decoder {
	return &Decoder{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		sioC:      sioC,
		sioD:      sioD,
		out:       sim.NewQueue[Transaction](k, name+".values", 0),
	}
}

// Values returns the queue of decoded transactions.
func (d *Decoder) Values() *sim.Queue[Transaction] {
	return d.out
}

// ProtocolErrors returns how many read requests were decoded.
func (d *Decoder) ProtocolErrors() int {
	return d.protocolErrors
}

// Start spawns the decoding task.
func (d *Decoder) Start() error {
	if err := d.BeginStart(); err != nil {
		return err
	}

	d.task = d.kernel.Spawn(d.Name(), &decodeProcess{d: d})

	return nil
}

// Stop kills the decoding task. A partly received transaction is dropped.
func (d *Decoder) Stop() error {
	if err := d.BeginStop(); err != nil {
		return err
	}

	d.task.Kill()
	d.task = nil

	return nil
}

type decodeState int

const (
	waitStartData decodeState = iota
	waitStartClock
	receiveBits
	waitStopClock
	waitStopData
)

type decodeProcess struct {
	d     *Decoder
	state decodeState

	bit   int
	word  uint64
	words [3]uint64
}

func (p *decodeProcess) Step(fired sim.Trigger) sim.Trigger {
	d := p.d

	if fired == nil {
		return p.waitStart()
	}

	switch p.state {
	case waitStartData:
		if !d.sioC.IsHigh() {
			return sim.FallingEdge(d.sioD)
		}

		return p.restart()
	case waitStartClock:
		p.state = receiveBits
		p.bit = 0
		p.word = 0

		return p.waitClock()
	case receiveBits:
		if p.dataFell(fired) {
			return p.onDataFall()
		}

		return p.receive()
	case waitStopClock:
		if p.dataFell(fired) {
			return p.onDataFall()
		}

		p.state = waitStopData

		return sim.First(
			sim.RisingEdge(d.sioD),
			sim.FallingEdge(d.sioD),
			sim.FallingEdge(d.sioC))
	case waitStopData:
		return p.stopData(fired)
	}

	panic("sccb: unknown decoder state")
}

func (p *decodeProcess) waitStart() sim.Trigger {
	p.state = waitStartData
	return sim.FallingEdge(p.d.sioD)
}

// restart begins a new transaction after SIO_D fell while SIO_C was high.
// A transaction in progress is dropped.
func (p *decodeProcess) restart() sim.Trigger {
	p.state = waitStartClock
	return sim.FallingEdge(p.d.sioC)
}

// waitClock waits for the next rising SIO_C, or a falling SIO_D that may be
// a new START.
func (p *decodeProcess) waitClock() sim.Trigger {
	return sim.First(sim.RisingEdge(p.d.sioC), sim.FallingEdge(p.d.sioD))
}

func (p *decodeProcess) dataFell(fired sim.Trigger) bool {
	edge, ok := fired.(*sim.EdgeTrigger)
	return ok && edge.Signal == p.d.sioD
}

func (p *decodeProcess) onDataFall() sim.Trigger {
	if p.d.sioC.IsHigh() {
		return p.restart()
	}

	return p.waitClock()
}

// stopData expects SIO_D to rise while SIO_C stays high. A falling SIO_C
// means more clocks follow, so the STOP is still pending.
func (p *decodeProcess) stopData(fired sim.Trigger) sim.Trigger {
	d := p.d
	edge, _ := fired.(*sim.EdgeTrigger)

	switch {
	case edge == nil || edge.Signal == d.sioC:
		p.state = waitStopClock
		return p.waitClock()
	case edge.Polarity == sim.Falling:
		return p.onDataFall()
	case !d.sioC.IsHigh():
		p.state = waitStopClock
		return p.waitClock()
	}

	p.emit()

	return p.waitStart()
}

func (p *decodeProcess) receive() sim.Trigger {
	phase := p.bit / BitsPerPhase
	slot := p.bit % BitsPerPhase

	if slot < 8 {
		p.word = p.word<<1 | p.d.sioD.Int()&1
	}

	if slot == BitsPerPhase-1 {
		p.words[phase] = p.word
		p.word = 0
	}

	p.bit++
	if p.bit == 3*BitsPerPhase {
		p.state = waitStopClock
	}

	return p.waitClock()
}

func (p *decodeProcess) emit() {
	d := p.d

	if p.words[0]&1 == 1 {
		d.protocolErrors++
		d.kernel.Logger().Printf(
			"ERROR @%d: %s: read/write bit set to read, only writes are supported",
			d.kernel.Now(), d.Name())
	}

	t := Transaction{
		IDAddress:  uint8(p.words[0] >> 1),
		SubAddress: uint8(p.words[1]),
		Data:       uint8(p.words[2]),
	}

	if err := d.out.Put(t); err != nil {
		d.kernel.Fail(err)
	}
}
