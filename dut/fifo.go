// Package dut provides behavioral models of the devices the benches verify.
// Every model is clocked by its own processes on the simulation kernel and
// only talks to the bench through signals.
package dut

import (
	"github.com/sarchlab/hwverify/sim"
)

// FifoPorts are the pins of an asynchronous FIFO.
type FifoPorts struct {
	ClkWr  *sim.Signal
	RstWr  *sim.Signal
	WrEn   *sim.Signal
	WrData *sim.Signal
	Full   *sim.Signal

	ClkRd  *sim.Signal
	RstRd  *sim.Signal
	RdEn   *sim.Signal
	RdData *sim.Signal
	Empty  *sim.Signal
}

// An AsyncFIFO is a dual clock first-word-fall-through FIFO of depth
// 2^depthLog2. The output register holds one more word, so it stores up to
// 2^depthLog2+1 words.
//
// Each domain sees the pointer of the other one through a two stage
// synchronizer, so the flags are pessimistic: full may stay up and empty
// may stay up for a few cycles after the other side moved.
type AsyncFIFO struct {
	sim.Lifecycle

	kernel   *sim.Kernel
	ports    FifoPorts
	capacity uint64
	mem      []uint64

	wrPtr, rdPtr *sim.Signal

	wr     uint64
	rdSync [2]uint64
	rd     uint64
	wrSync [2]uint64

	wrTask, rdTask *sim.Task
}

// NewAsyncFIFO creates a FIFO model and drives its outputs to the reset
// values.
func NewAsyncFIFO(
	k *sim.Kernel,
	name string,
	depthLog2 int,
	ports FifoPorts,
) *AsyncFIFO {
	capacity := uint64(1)<<depthLog2 + 1

	f := &AsyncFIFO{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		capacity:  capacity,
		mem:       make([]uint64, capacity),
		wrPtr:     k.NewSignal(name+".wr_ptr_gray", 64),
		rdPtr:     k.NewSignal(name+".rd_ptr_gray", 64),
	}

	f.wrPtr.Init(0)
	f.rdPtr.Init(0)
	ports.Full.Init(0)
	ports.Empty.Init(1)
	ports.RdData.Init(0)

	return f
}

// Capacity returns the number of words the FIFO can hold.
func (f *AsyncFIFO) Capacity() uint64 {
	return f.capacity
}

// Start spawns the write and read domain processes.
func (f *AsyncFIFO) Start() error {
	if err := f.BeginStart(); err != nil {
		return err
	}

	f.wrTask = f.kernel.Spawn(f.Name()+".wr",
		clocked(f.ports.ClkWr, f.writeDomain))
	f.rdTask = f.kernel.Spawn(f.Name()+".rd",
		clocked(f.ports.ClkRd, f.readDomain))

	return nil
}

// Stop kills both domains.
func (f *AsyncFIFO) Stop() error {
	if err := f.BeginStop(); err != nil {
		return err
	}

	f.wrTask.Kill()
	f.rdTask.Kill()

	return nil
}

func (f *AsyncFIFO) writeDomain() {
	if f.ports.RstWr.IsHigh() {
		f.wr = 0
		f.rdSync = [2]uint64{}
		f.wrPtr.Set(0)
		f.ports.Full.Set(0)

		return
	}

	if f.ports.WrEn.IsHigh() && f.ports.Full.Is(0) {
		f.mem[f.wr%f.capacity] = f.ports.WrData.Int()
		f.wr++
	}

	f.rdSync[1] = f.rdSync[0]
	f.rdSync[0] = f.rdPtr.Int()

	f.wrPtr.Set(toGray(f.wr))
	f.ports.Full.SetBool(f.wr-fromGray(f.rdSync[1]) >= f.capacity)
}

func (f *AsyncFIFO) readDomain() {
	if f.ports.RstRd.IsHigh() {
		f.rd = 0
		f.wrSync = [2]uint64{}
		f.rdPtr.Set(0)
		f.ports.Empty.Set(1)
		f.ports.RdData.Set(0)

		return
	}

	if f.ports.RdEn.IsHigh() && f.ports.Empty.Is(0) {
		f.rd++
	}

	f.wrSync[1] = f.wrSync[0]
	f.wrSync[0] = f.wrPtr.Int()

	f.rdPtr.Set(toGray(f.rd))

	empty := fromGray(f.wrSync[1]) == f.rd
	f.ports.Empty.SetBool(empty)
	if !empty {
		f.ports.RdData.Set(f.mem[f.rd%f.capacity])
	}
}

func toGray(b uint64) uint64 {
	return b ^ b>>1
}

func fromGray(g uint64) uint64 {
	b := g
	for shift := uint(1); shift < 64; shift <<= 1 {
		b ^= b >> shift
	}

	return b
}

// clocked returns a process that calls f on every rising edge of clk.
func clocked(clk *sim.Signal, f func()) sim.Process {
	return sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
		if fired != nil {
			f()
		}

		return sim.RisingEdge(clk)
	})
}
