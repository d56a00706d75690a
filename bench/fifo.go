package bench

import (
	"github.com/sarchlab/hwverify/driver"
	"github.com/sarchlab/hwverify/dut"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// FIFO geometry of the bench.
const (
	FifoDepthLog2 = 4
	FifoDataWidth = 8
)

// AsyncFIFOBench checks the data and the flags of an asynchronous FIFO
// against a reference queue fed by a write side monitor.
type AsyncFIFOBench struct {
	opts    Options
	harness *Harness
	kernel  *sim.Kernel
	ports   dut.FifoPorts
	fifo    *dut.AsyncFIFO

	RefFIFO      *sim.Queue[monitor.Transaction]
	WriteMonitor *monitor.Monitor
	Writer       *driver.Writer
	Reader       *driver.EnableDriver
	FullChecker  *scoreboard.FlagChecker
	EmptyChecker *scoreboard.FlagChecker
	DataChecker  *scoreboard.FifoDataChecker
}

// NewAsyncFIFOBench builds the bench and starts both clocks. The write
// clock runs at 9 ns and the read clock at 10 ns.
func NewAsyncFIFOBench(o Options) *AsyncFIFOBench {
	k := o.kernel()
	p := dut.FifoPorts{
		ClkWr:  k.NewSignal("clk_wr", 1),
		RstWr:  k.NewSignal("rst_wr", 1),
		WrEn:   k.NewSignal("i_wr_en", 1),
		WrData: k.NewSignal("i_wr_data", FifoDataWidth),
		Full:   k.NewSignal("o_full", 1),
		ClkRd:  k.NewSignal("clk_rd", 1),
		RstRd:  k.NewSignal("rst_rd", 1),
		RdEn:   k.NewSignal("i_rd_en", 1),
		RdData: k.NewSignal("o_rd_data", FifoDataWidth),
		Empty:  k.NewSignal("o_empty", 1),
	}
	p.RstWr.Init(0)
	p.RstRd.Init(0)
	p.WrEn.Init(0)
	p.RdEn.Init(0)

	rng := o.rng()
	checks := o.checks()
	ref := scoreboard.NewRefFIFO(k, "ref_fifo", FifoDepthLog2)
	notFull := monitor.Low(p.Full)

	b := &AsyncFIFOBench{
		opts:    o,
		harness: NewHarness(k, "fifo"),
		kernel:  k,
		ports:   p,
		fifo:    dut.NewAsyncFIFO(k, "fifo_async", FifoDepthLog2, p),
		RefFIFO: ref,
		WriteMonitor: monitor.New(k, monitor.Config{
			Name:                "write_monitor",
			Clock:               p.ClkWr,
			Gate:                monitor.High(p.WrEn),
			Qualifier:           &notFull,
			Fields:              []monitor.Field{{Name: "data", Signal: p.WrData}},
			SettleBeforeEnqueue: true,
			Out:                 ref,
		}),
		Writer: driver.NewFifoWriter(k, "fifo_writer",
			p.ClkWr, p.WrEn, p.WrData, p.Full,
			o.writerMode(driver.Full), rng),
		Reader: driver.NewFifoReader(k, "fifo_reader",
			p.ClkRd, p.RdEn, o.readerMode(driver.Full), rng),
		FullChecker:  scoreboard.NewFullChecker(k, ref, p.ClkWr, p.Full, checks),
		EmptyChecker: scoreboard.NewEmptyChecker(k, ref, p.ClkRd, p.Empty, checks),
		DataChecker: scoreboard.NewFifoDataChecker(k, "rd_data_checker",
			scoreboard.FifoReadPorts{
				Clock:  p.ClkRd,
				RdEn:   p.RdEn,
				Empty:  p.Empty,
				RdData: p.RdData,
			}, ref, "data", checks),
	}

	b.harness.AddResetLine(p.ClkWr, p.RstWr)
	b.harness.AddResetLine(p.ClkRd, p.RstRd)
	b.harness.AddMonitor(b.WriteMonitor)
	b.harness.AddDriver(b.Writer, b.Reader)
	b.harness.AddChecker(b.FullChecker, b.EmptyChecker, b.DataChecker)

	sim.NewClock(k, p.ClkWr, k.MustSteps(9, timing.NS)).Start()
	sim.NewClock(k, p.ClkRd, k.MustSteps(10, timing.NS)).Start()
	if err := b.fifo.Start(); err != nil {
		panic(err)
	}

	return b
}

// Harness returns the harness of the bench.
func (b *AsyncFIFOBench) Harness() *Harness {
	return b.harness
}

// Scenarios returns the scenario names.
func (b *AsyncFIFOBench) Scenarios() []string {
	return []string{"random", "empty", "full"}
}

// Run runs a scenario. "random" uses the configured modes, "empty" writes
// slowly into a fast reader and "full" writes at full rate into a slow
// reader.
func (b *AsyncFIFOBench) Run(scenario string) (Verdict, error) {
	switch scenario {
	case "random":
	case "empty":
		b.Writer.SetMode(driver.Random)
		b.Reader.SetMode(driver.Full)
	case "full":
		b.Writer.SetMode(driver.Full)
		b.Reader.SetMode(driver.Random)
	default:
		return Verdict{}, unknownScenario(b.harness.Name(), scenario)
	}

	return b.run()
}

func (b *AsyncFIFOBench) run() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(b.ports.ClkRd, b.opts.cycles(500)); err != nil {
		return Verdict{}, err
	}

	return finish(b.harness)
}
