package bench

import (
	"github.com/sarchlab/hwverify/dut"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sccb"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// SCCBBench checks that an SCCB master sends every accepted transaction on
// the bus unchanged.
type SCCBBench struct {
	opts    Options
	harness *Harness
	kernel  *sim.Kernel
	ports   dut.SCCBPorts
	master  *dut.SCCBMaster

	InputMonitor *monitor.Monitor
	BusMonitor   *sccb.Decoder
	Driver       *sccb.Driver
	Checker      *scoreboard.StreamChecker[sccb.Transaction, monitor.Transaction]
}

// NewSCCBBench builds the bench and starts its clock.
func NewSCCBBench(o Options) *SCCBBench {
	k := o.kernel()
	b := &SCCBBench{
		opts:    o,
		harness: NewHarness(k, "sccb"),
		kernel:  k,
		ports: dut.SCCBPorts{
			Clk:        k.NewSignal("clk", 1),
			Rst:        k.NewSignal("rst", 1),
			Valid:      k.NewSignal("i_vld", 1),
			Ready:      k.NewSignal("o_rdy", 1),
			ID:         k.NewSignal("i_id", sccb.IDAddressWidth),
			SubAddress: k.NewSignal("i_subaddr", sccb.SubAddressWidth),
			Data:       k.NewSignal("i_data", sccb.DataWidth),
			SioC:       k.NewSignal("o_sio_c", 1),
			SioD:       k.NewSignal("io_sio_d", 1),
		},
	}

	p := b.ports
	p.Rst.Init(0)
	p.Valid.Init(0)

	divider := o.SCCBDivider
	if divider <= 0 {
		divider = dut.DefaultSCCBDivider
	}

	b.master = dut.NewSCCBMaster(k, "sccb_master", divider, p)

	ready := monitor.High(p.Ready)
	b.InputMonitor = monitor.New(k, monitor.Config{
		Name:      "input_monitor",
		Clock:     p.Clk,
		Gate:      monitor.High(p.Valid),
		Qualifier: &ready,
		Fields: []monitor.Field{
			{Name: "data", Signal: p.Data},
			{Name: "sub_address", Signal: p.SubAddress},
			{Name: "id_address", Signal: p.ID},
		},
	})
	b.BusMonitor = sccb.NewDecoder(k, "sccb_monitor", p.SioC, p.SioD)
	b.Driver = sccb.NewDriver(k, "sccb_driver", sccb.DriverPorts{
		Clock:      p.Clk,
		Data:       p.Data,
		SubAddress: p.SubAddress,
		ID:         p.ID,
		Valid:      p.Valid,
		Ready:      p.Ready,
	}, o.rng())
	b.Checker = scoreboard.NewStreamChecker[sccb.Transaction, monitor.Transaction](
		k, "sccb_checker",
		b.BusMonitor.Values(), b.InputMonitor.Values(),
		[]string{"id_address", "sub_address", "data"},
		o.checks())

	b.harness.AddResetLine(p.Clk, p.Rst)
	b.harness.AddMonitor(b.BusMonitor, b.InputMonitor)
	b.harness.AddDriver(b.Driver)
	b.harness.AddChecker(b.Checker)

	sim.NewClock(k, p.Clk, k.MustSteps(10, timing.NS)).Start()
	if err := b.master.Start(); err != nil {
		panic(err)
	}

	return b
}

// Harness returns the harness of the bench.
func (b *SCCBBench) Harness() *Harness {
	return b.harness
}

// Scenarios returns the scenario names.
func (b *SCCBBench) Scenarios() []string {
	return []string{"random", "reset"}
}

// Run runs a scenario.
func (b *SCCBBench) Run(scenario string) (Verdict, error) {
	switch scenario {
	case "random":
		return b.Random()
	case "reset":
		return b.Reset()
	default:
		return Verdict{}, unknownScenario(b.harness.Name(), scenario)
	}
}

// Random resets the master while the test starts and runs random
// transactions for 1 ms.
func (b *SCCBBench) Random() (Verdict, error) {
	if _, err := b.harness.BeginReset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.runMain(); err != nil {
		return Verdict{}, err
	}

	return finish(b.harness)
}

// Reset drives transactions into the master for 0.5 ms without checking,
// resets it and then runs the random test.
func (b *SCCBBench) Reset() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.Driver.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunTime(0.5, timing.MS); err != nil {
		return Verdict{}, err
	}

	if err := b.Driver.Stop(); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.runMain(); err != nil {
		return Verdict{}, err
	}

	return finish(b.harness)
}

func (b *SCCBBench) runMain() error {
	if b.opts.Cycles > 0 {
		return b.kernel.RunClocks(b.ports.Clk, b.opts.Cycles)
	}

	return b.kernel.RunTime(1, timing.MS)
}
