package bench

import (
	"encoding/binary"

	"github.com/sarchlab/hwverify/axi"
	"github.com/sarchlab/hwverify/driver"
	"github.com/sarchlab/hwverify/dut"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// TestDataLength is the number of words seeded for the memory reader.
const TestDataLength = 2048

// MemReaderBench checks that a memory reader streams the seeded memory
// words in order.
type MemReaderBench struct {
	opts    Options
	harness *Harness
	kernel  *sim.Kernel
	ports   dut.MemReaderPorts
	reader  *dut.MemReader

	Memory        *axi.Memory
	TestData      []uint64
	OutputMonitor *monitor.Monitor
	Driver        *driver.EnableDriver
	Checker       *scoreboard.ReadPathChecker
}

// NewMemReaderBench builds the bench, seeds the memory with 0, 1, 2, ...
// and starts the clock.
func NewMemReaderBench(o Options) *MemReaderBench {
	k := o.kernel()
	p := dut.MemReaderPorts{
		Clk:         k.NewSignal("clk", 1),
		Rst:         k.NewSignal("rst", 1),
		RdEn:        k.NewSignal("i_rd_en", 1),
		RdData:      k.NewSignal("o_rd_data", MemReaderDataSize),
		Empty:       k.NewSignal("o_empty", 1),
		BasePointer: k.NewSignal("i_base_pointer", 32),
	}
	p.Rst.Init(0)
	p.RdEn.Init(0)
	p.BasePointer.Init(0)

	rng := o.rng()
	mem := axi.NewMemory(MemorySize)
	mem.SetPauseGenerator(axi.AR, axi.RandomPauses(rng,
		axi.DefaultPauseLength, axi.DefaultAcceptProbability))
	mem.SetPauseGenerator(axi.R, axi.RandomPauses(rng,
		axi.DefaultPauseLength, axi.DefaultAcceptProbability))

	reader := dut.NewMemReader(k, "memory_reader", mem, 16, p)

	data := make([]uint64, TestDataLength)
	for i := range data {
		data[i] = uint64(i)
	}

	err := mem.WriteWords(0, data, binary.LittleEndian, reader.WordSize())
	if err != nil {
		panic(err)
	}

	notEmpty := monitor.Low(p.Empty)
	readEnabled := monitor.High(p.RdEn)
	out := monitor.New(k, monitor.Config{
		Name:      "output_monitor",
		Clock:     p.Clk,
		Gate:      notEmpty,
		Qualifier: &readEnabled,
		Fields:    []monitor.Field{{Name: "data_out", Signal: p.RdData}},
	})

	b := &MemReaderBench{
		opts:          o,
		harness:       NewHarness(k, "memreader"),
		kernel:        k,
		ports:         p,
		reader:        reader,
		Memory:        mem,
		TestData:      data,
		OutputMonitor: out,
		Driver: driver.NewReadEnableDriver(k, "memory_reader_driver",
			p.Clk, p.RdEn, o.readerMode(driver.Full), rng),
		Checker: scoreboard.NewReadPathChecker(k, "memory_checker",
			out.Values(), "data_out", data, o.checks()),
	}

	b.harness.AddResetLine(p.Clk, p.Rst)
	b.harness.AddMonitor(b.OutputMonitor)
	b.harness.AddDriver(b.Driver)
	b.harness.AddChecker(b.Checker)

	sim.NewClock(k, p.Clk, k.MustSteps(10, timing.NS)).Start()
	if err := reader.Start(); err != nil {
		panic(err)
	}

	return b
}

// Harness returns the harness of the bench.
func (b *MemReaderBench) Harness() *Harness {
	return b.harness
}

// Scenarios returns the scenario names.
func (b *MemReaderBench) Scenarios() []string {
	return []string{"random", "reset"}
}

// Run runs a scenario.
func (b *MemReaderBench) Run(scenario string) (Verdict, error) {
	switch scenario {
	case "random":
		return b.Random()
	case "reset":
		return b.Reset()
	default:
		return Verdict{}, unknownScenario(b.harness.Name(), scenario)
	}
}

// Random reads under random memory backpressure for 5000 cycles.
func (b *MemReaderBench) Random() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	return b.runMain()
}

// Reset reads for 1000 cycles without checking, resets the reader and then
// runs the random test.
func (b *MemReaderBench) Reset() (Verdict, error) {
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

func (b *MemReaderBench) runMain() (Verdict, error) {
	if err := b.harness.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(b.ports.Clk, b.opts.cycles(5000)); err != nil {
		return Verdict{}, err
	}

	return finish(b.harness)
}
