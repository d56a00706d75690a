package sccb

import (
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// A Request is a transaction queued on an Encoder.
type Request struct {
	Transaction Transaction
	Read        bool
}

// An Encoder plays transactions on the bus lines with a fixed quarter bit
// period. It stands in for a bus master when testing decoders.
type Encoder struct {
	kernel  *sim.Kernel
	sioC    *sim.Signal
	sioD    *sim.Signal
	quarter timing.VTimeInCycle
}

// NewEncoder creates an encoder.
func NewEncoder(
	k *sim.Kernel,
	sioC, sioD *sim.Signal,
	quarter timing.VTimeInCycle,
) *Encoder {
	return &Encoder{kernel: k, sioC: sioC, sioD: sioD, quarter: quarter}
}

// Play spawns a task that sends the requests back to back.
func (e *Encoder) Play(reqs ...Request) *sim.Task {
	var pins []Pins
	for _, r := range reqs {
		pins = append(pins, Waveform(r.Transaction, r.Read)...)
	}

	i := 0

	return e.kernel.Spawn("sccb_encoder", sim.ProcessFunc(
		func(sim.Trigger) sim.Trigger {
			if i == len(pins) {
				return nil
			}

			e.sioC.Set(pins[i].C)
			e.sioD.Set(pins[i].D)
			i++

			return sim.Timer(e.quarter)
		}))
}
