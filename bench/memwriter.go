package bench

import (
	"fmt"

	"github.com/sarchlab/hwverify/axi"
	"github.com/sarchlab/hwverify/driver"
	"github.com/sarchlab/hwverify/dut"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// Memory geometry shared by the memory benches.
const (
	MemorySize        = 1 << 14
	MemWriterDataSize = 16
	MemReaderDataSize = 32
)

// MemWriterBench checks that a memory writer stores every accepted word,
// in order, from its base pointer on.
type MemWriterBench struct {
	opts    Options
	harness *Harness
	kernel  *sim.Kernel
	ports   dut.MemWriterPorts
	writer  *dut.MemWriter

	Memory       *axi.Memory
	InputMonitor *monitor.Monitor
	Driver       *driver.Writer
	Checker      *scoreboard.WritePathChecker
}

// NewMemWriterBench builds the bench and starts its clock.
func NewMemWriterBench(o Options) *MemWriterBench {
	k := o.kernel()
	p := dut.MemWriterPorts{
		Clk:         k.NewSignal("clk", 1),
		Rst:         k.NewSignal("rst", 1),
		WrEn:        k.NewSignal("i_wr_en", 1),
		WrData:      k.NewSignal("i_wr_data", MemWriterDataSize),
		FifoFull:    k.NewSignal("o_fifo_full", 1),
		BasePointer: k.NewSignal("i_base_pointer", 32),
		Flush:       k.NewSignal("i_flush", 1),
	}
	p.Rst.Init(0)
	p.WrEn.Init(0)
	p.BasePointer.Init(0)
	p.Flush.Init(0)

	rng := o.rng()
	mem := axi.NewMemory(MemorySize)
	mem.SetPauseGenerator(axi.AW, axi.RandomPauses(rng,
		axi.DefaultPauseLength, axi.DefaultAcceptProbability))
	mem.SetPauseGenerator(axi.W, axi.RandomPauses(rng,
		axi.DefaultPauseLength, axi.DefaultAcceptProbability))

	writer := dut.NewMemWriter(k, dut.MemWriterConfig{
		Name:   "memory_writer",
		Ports:  p,
		Memory: mem,
	})

	notFull := monitor.Low(p.FifoFull)
	b := &MemWriterBench{
		opts:    o,
		harness: NewHarness(k, "memwriter"),
		kernel:  k,
		ports:   p,
		writer:  writer,
		Memory:  mem,
		InputMonitor: monitor.New(k, monitor.Config{
			Name:      "input_monitor",
			Clock:     p.Clk,
			Gate:      monitor.High(p.WrEn),
			Qualifier: &notFull,
			Fields:    []monitor.Field{{Name: "data_in", Signal: p.WrData}},
		}),
		Driver: driver.NewWriter(k, driver.WriterConfig{
			Name:          "memory_writer_driver",
			Clock:         p.Clk,
			Enable:        p.WrEn,
			Data:          p.WrData,
			Full:          p.FifoFull,
			Mode:          o.writerMode(driver.Random),
			Probability:   driver.StreamProbability,
			BackoffOnFull: true,
			Rng:           rng,
		}),
		Checker: scoreboard.NewWritePathChecker(k, "memory_checker",
			scoreboard.WritePathConfig{
				Memory:    mem,
				WordSize:  writer.WordSize(),
				OutputDir: o.outputDir(),
			}, o.checks()),
	}

	b.harness.AddResetLine(p.Clk, p.Rst)
	b.harness.AddMonitor(b.InputMonitor)
	b.harness.AddDriver(b.Driver)

	sim.NewClock(k, p.Clk, k.MustSteps(10, timing.NS)).Start()
	if err := writer.Start(); err != nil {
		panic(err)
	}

	return b
}

// Harness returns the harness of the bench.
func (b *MemWriterBench) Harness() *Harness {
	return b.harness
}

// Scenarios returns the scenario names.
func (b *MemWriterBench) Scenarios() []string {
	return []string{"random", "reset"}
}

// Run runs a scenario.
func (b *MemWriterBench) Run(scenario string) (Verdict, error) {
	switch scenario {
	case "random":
		return b.Random()
	case "reset":
		return b.Reset()
	default:
		return Verdict{}, unknownScenario(b.harness.Name(), scenario)
	}
}

// Random writes random words under random memory backpressure for 5000
// cycles, flushes and compares the memory.
func (b *MemWriterBench) Random() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	return b.runMain()
}

// Reset writes for 1000 cycles without checking, resets the writer and then
// runs the random test.
func (b *MemWriterBench) Reset() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.Driver.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(b.ports.Clk, 1000); err != nil {
		return Verdict{}, err
	}

	if err := b.Driver.Stop(); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	return b.runMain()
}

func (b *MemWriterBench) runMain() (Verdict, error) {
	h := b.harness
	if err := h.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(b.ports.Clk, b.opts.cycles(5000)); err != nil {
		return Verdict{}, err
	}

	if err := b.Driver.Stop(); err != nil {
		return Verdict{}, err
	}

	b.ports.Flush.Set(1)
	if err := b.kernel.RunClocks(b.ports.Clk, 500); err != nil {
		return Verdict{}, err
	}

	ref := scoreboard.FieldValues(b.InputMonitor.Values().Items(), "data_in")

	v, err := finish(h)
	if err != nil {
		return v, err
	}

	ok, err := b.Checker.Check(ref)
	if err != nil {
		return v, err
	}

	cnt := b.Checker.Counters()
	v.Transactions = cnt
	if !ok {
		v.Fail(fmt.Sprintf("End of sim memory check FAILED, %d of %d words differ",
			cnt.Errors, cnt.Checked))
	}

	return v, b.kernel.Failure()
}
