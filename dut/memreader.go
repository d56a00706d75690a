package dut

import (
	"encoding/binary"

	"github.com/sarchlab/hwverify/axi"
	"github.com/sarchlab/hwverify/sim"
)

// MemReaderPorts are the pins of a memory reader.
type MemReaderPorts struct {
	Clk         *sim.Signal
	Rst         *sim.Signal
	RdEn        *sim.Signal
	RdData      *sim.Signal
	Empty       *sim.Signal
	BasePointer *sim.Signal
}

// A MemReader streams consecutive memory words from the base pointer to the
// end of the memory. Words are prefetched into a first-word-fall-through
// FIFO, one per cycle in which both read channels accept.
type MemReader struct {
	sim.Lifecycle

	kernel   *sim.Kernel
	ports    MemReaderPorts
	mem      *axi.Memory
	depth    int
	wordSize int
	task     *sim.Task

	fifo []uint64
	next uint64
}

// NewMemReader creates a memory reader with a prefetch FIFO of fifoDepth
// words. The word size is the width of the read data.
func NewMemReader(
	k *sim.Kernel,
	name string,
	mem *axi.Memory,
	fifoDepth int,
	ports MemReaderPorts,
) *MemReader {
	if fifoDepth <= 0 {
		fifoDepth = 16
	}

	ports.Empty.Init(1)
	ports.RdData.Init(0)

	return &MemReader{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		ports:     ports,
		mem:       mem,
		depth:     fifoDepth,
		wordSize:  ports.RdData.Width() / 8,
	}
}

// WordSize returns the number of bytes loaded per word.
func (r *MemReader) WordSize() int {
	return r.wordSize
}

// Start spawns the clocked process.
func (r *MemReader) Start() error {
	if err := r.BeginStart(); err != nil {
		return err
	}

	r.task = r.kernel.Spawn(r.Name(), clocked(r.ports.Clk, r.tick))

	return nil
}

// Stop kills the clocked process.
func (r *MemReader) Stop() error {
	if err := r.BeginStop(); err != nil {
		return err
	}

	r.task.Kill()

	return nil
}

func (r *MemReader) tick() {
	p := r.ports

	if p.Rst.IsHigh() {
		r.fifo = r.fifo[:0]
		r.next = 0
		p.Empty.Set(1)
		p.RdData.Set(0)

		return
	}

	if p.RdEn.IsHigh() && p.Empty.Is(0) {
		r.fifo = r.fifo[1:]
	}

	r.fetch()

	p.Empty.SetBool(len(r.fifo) == 0)
	if len(r.fifo) > 0 {
		p.RdData.Set(r.fifo[0])
	}
}

func (r *MemReader) fetch() {
	if len(r.fifo) >= r.depth {
		return
	}

	addr := r.ports.BasePointer.Int() + r.next*uint64(r.wordSize)
	if addr+uint64(r.wordSize) > r.mem.Size() {
		return
	}

	ar := r.mem.Accept(axi.AR)
	rd := r.mem.Accept(axi.R)
	if !ar || !rd {
		return
	}

	words, err := r.mem.ReadWords(addr, 1, binary.LittleEndian, r.wordSize)
	if err != nil {
		r.kernel.Fail(err)
		return
	}

	r.fifo = append(r.fifo, words[0])
	r.next++
}
