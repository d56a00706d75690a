package driver

import (
	"math/rand"

	"github.com/sarchlab/hwverify/sim"
)

// Default assert probabilities of the Random mode.
const (
	FifoProbability       = 0.05
	ReadEnableProbability = 0.2
	StreamProbability     = 0.9
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	Name   string
	Clock  *sim.Signal
	Enable *sim.Signal
	Data   *sim.Signal

	// Full is the backpressure of the consumer.
	Full *sim.Signal

	Mode        Mode
	Probability float64

	// BackoffOnFull drops the enable while Full is high. Without it the
	// enable stays up and the consumer is trusted to ignore it.
	BackoffOnFull bool

	Rng *rand.Rand
}

// A Writer drives an enable line and a payload into a consumer with a full
// flag.
type Writer struct {
	sim.Lifecycle

	kernel  *sim.Kernel
	mode    Mode
	enable  *EnableDriver
	payload *PayloadDriver
}

// NewWriter creates a writer.
func NewWriter(k *sim.Kernel, cfg WriterConfig) *Writer {
	enableCfg := EnableConfig{
		Name:        cfg.Name + ".enable",
		Clock:       cfg.Clock,
		Line:        cfg.Enable,
		Mode:        cfg.Mode,
		Probability: cfg.Probability,
		Rng:         cfg.Rng,
	}
	if cfg.BackoffOnFull {
		enableCfg.Backoff = cfg.Full
	}

	return &Writer{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		mode:      cfg.Mode,
		enable:    NewEnableDriver(k, enableCfg),
		payload: NewPayloadDriver(k, PayloadConfig{
			Name:         cfg.Name + ".payload",
			Clock:        cfg.Clock,
			Payload:      cfg.Data,
			Enable:       cfg.Enable,
			Backpressure: cfg.Full,
			Rng:          cfg.Rng,
		}),
	}
}

// NewFifoWriter creates the writer of an asynchronous FIFO.
func NewFifoWriter(
	k *sim.Kernel,
	name string,
	clk, wrEn, wrData, full *sim.Signal,
	mode Mode,
	rng *rand.Rand,
) *Writer {
	return NewWriter(k, WriterConfig{
		Name:        name,
		Clock:       clk,
		Enable:      wrEn,
		Data:        wrData,
		Full:        full,
		Mode:        mode,
		Probability: FifoProbability,
		Rng:         rng,
	})
}

// Mode returns the pacing mode of the enable line.
func (w *Writer) Mode() Mode {
	return w.mode
}

// SetMode changes the pacing mode of the enable line.
func (w *Writer) SetMode(m Mode) {
	w.enable.SetMode(m)
	w.mode = m
}

// Start starts the enable and the payload tasks.
func (w *Writer) Start() error {
	if err := w.BeginStart(); err != nil {
		return err
	}

	w.kernel.Logger().Printf("%s started with mode: %s", w.Name(), w.mode)

	if err := w.enable.Start(); err != nil {
		return err
	}

	return w.payload.Start()
}

// Stop stops both tasks and deasserts the enable.
func (w *Writer) Stop() error {
	if err := w.BeginStop(); err != nil {
		return err
	}

	if err := w.payload.Stop(); err != nil {
		return err
	}

	return w.enable.Stop()
}

// NewFifoReader creates the read enable driver of an asynchronous FIFO.
func NewFifoReader(
	k *sim.Kernel,
	name string,
	clk, rdEn *sim.Signal,
	mode Mode,
	rng *rand.Rand,
) *EnableDriver {
	return NewEnableDriver(k, EnableConfig{
		Name:        name,
		Clock:       clk,
		Line:        rdEn,
		Mode:        mode,
		Probability: FifoProbability,
		Rng:         rng,
	})
}

// NewReadEnableDriver creates the read enable driver of a memory reader.
// The read enable stays low until the first clock edge.
func NewReadEnableDriver(
	k *sim.Kernel,
	name string,
	clk, rdEn *sim.Signal,
	mode Mode,
	rng *rand.Rand,
) *EnableDriver {
	return NewEnableDriver(k, EnableConfig{
		Name:        name,
		Clock:       clk,
		Line:        rdEn,
		Mode:        mode,
		Probability: ReadEnableProbability,
		StartLow:    true,
		Rng:         rng,
	})
}
