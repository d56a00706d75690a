package dut

import (
	"encoding/binary"

	"github.com/sarchlab/hwverify/axi"
	"github.com/sarchlab/hwverify/sim"
)

// MemWriterPorts are the pins of a memory writer.
type MemWriterPorts struct {
	Clk         *sim.Signal
	Rst         *sim.Signal
	WrEn        *sim.Signal
	WrData      *sim.Signal
	FifoFull    *sim.Signal
	BasePointer *sim.Signal
	Flush       *sim.Signal
}

// MemWriterConfig configures a MemWriter.
type MemWriterConfig struct {
	Name   string
	Ports  MemWriterPorts
	Memory *axi.Memory

	// FifoDepth is the number of words the input FIFO holds.
	FifoDepth int

	// BurstLength is the number of buffered words that starts draining.
	// Flush drains whatever is buffered.
	BurstLength int
}

// A MemWriter buffers the words written to it and stores them to
// consecutive memory words from the base pointer on. One word is stored per
// cycle in which both the address and the data channel accept.
type MemWriter struct {
	sim.Lifecycle

	kernel   *sim.Kernel
	ports    MemWriterPorts
	mem      *axi.Memory
	depth    int
	burst    int
	wordSize int
	task     *sim.Task

	fifo     []uint64
	next     uint64
	draining bool
}

// NewMemWriter creates a memory writer. The word size is the width of the
// write data.
func NewMemWriter(k *sim.Kernel, cfg MemWriterConfig) *MemWriter {
	if cfg.FifoDepth <= 0 {
		cfg.FifoDepth = 16
	}

	if cfg.BurstLength <= 0 || cfg.BurstLength > cfg.FifoDepth {
		cfg.BurstLength = cfg.FifoDepth / 2
	}

	cfg.Ports.FifoFull.Init(0)

	return &MemWriter{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		ports:     cfg.Ports,
		mem:       cfg.Memory,
		depth:     cfg.FifoDepth,
		burst:     cfg.BurstLength,
		wordSize:  cfg.Ports.WrData.Width() / 8,
	}
}

// WordSize returns the number of bytes stored per word.
func (w *MemWriter) WordSize() int {
	return w.wordSize
}

// Start spawns the clocked process.
func (w *MemWriter) Start() error {
	if err := w.BeginStart(); err != nil {
		return err
	}

	w.task = w.kernel.Spawn(w.Name(), clocked(w.ports.Clk, w.tick))

	return nil
}

// Stop kills the clocked process.
func (w *MemWriter) Stop() error {
	if err := w.BeginStop(); err != nil {
		return err
	}

	w.task.Kill()

	return nil
}

func (w *MemWriter) tick() {
	p := w.ports

	if p.Rst.IsHigh() {
		w.fifo = w.fifo[:0]
		w.next = 0
		w.draining = false
		p.FifoFull.Set(0)

		return
	}

	if p.WrEn.IsHigh() && p.FifoFull.Is(0) {
		w.fifo = append(w.fifo, p.WrData.Int())
	}

	w.drain()

	p.FifoFull.SetBool(len(w.fifo) >= w.depth)
}

func (w *MemWriter) drain() {
	if len(w.fifo) >= w.burst || (w.ports.Flush.IsHigh() && len(w.fifo) > 0) {
		w.draining = true
	}

	if !w.draining || len(w.fifo) == 0 {
		w.draining = false
		return
	}

	aw := w.mem.Accept(axi.AW)
	wr := w.mem.Accept(axi.W)
	if !aw || !wr {
		return
	}

	addr := w.ports.BasePointer.Int() + w.next*uint64(w.wordSize)
	err := w.mem.WriteWords(addr, w.fifo[:1], binary.LittleEndian, w.wordSize)
	if err != nil {
		w.kernel.Fail(err)
		return
	}

	w.fifo = w.fifo[1:]
	w.next++
}
