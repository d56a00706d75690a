package bench

import (
	"github.com/sarchlab/hwverify/dut"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/ov7670"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// CaptureBench feeds a camera frame into a capture block and checks every
// pixel it outputs.
type CaptureBench struct {
	opts    Options
	harness *Harness
	kernel  *sim.Kernel
	ports   dut.CapturePorts
	capture *dut.Capture
	timing  ov7670.Timing

	Camera       *ov7670.Bus
	PixelMonitor *monitor.Monitor
	FrameChecker *scoreboard.FrameChecker
}

// NewCaptureBench builds the bench and starts the pixel clock.
func NewCaptureBench(o Options) (*CaptureBench, error) {
	k := o.kernel()
	p := dut.CapturePorts{
		PClk:   k.NewSignal("pclk", 1),
		Rst:    k.NewSignal("rst", 1),
		Data:   k.NewSignal("i_data", 8),
		VSync:  k.NewSignal("i_vsync", 1),
		HRef:   k.NewSignal("i_href", 1),
		PxlVld: k.NewSignal("o_pxl_vld", 1),
		PxlR:   k.NewSignal("o_pxl_r", 5),
		PxlG:   k.NewSignal("o_pxl_g", 6),
		PxlB:   k.NewSignal("o_pxl_b", 5),
		EOS:    k.NewSignal("o_eos", 1),
	}
	p.Rst.Init(0)

	t := ov7670.VGA
	if o.FrameWidth > 0 {
		t.FrameWidth = o.FrameWidth
	}
	if o.FrameHeight > 0 {
		t.FrameHeight = o.FrameHeight
	}

	camera, err := ov7670.NewBus(k, ov7670.Config{
		Name: "ov7670",
		Ports: ov7670.Ports{
			PClk:  p.PClk,
			Reset: p.Rst,
			Data:  p.Data,
			VSync: p.VSync,
			HRef:  p.HRef,
		},
		Timing:  t,
		Pattern: ov7670.PatternRandom,
		Format:  ov7670.FormatRGB565,
		Depths:  [3]int{5, 6, 5},
		Rng:     o.rng(),
	})
	if err != nil {
		return nil, err
	}

	planes := [3]string{"o_pxl_r", "o_pxl_g", "o_pxl_b"}
	mon := monitor.New(k, monitor.Config{
		Name:  "pxl_out_monitor",
		Clock: p.PClk,
		Gate:  monitor.High(p.PxlVld),
		Fields: []monitor.Field{
			{Name: planes[0], Signal: p.PxlR},
			{Name: planes[1], Signal: p.PxlG},
			{Name: planes[2], Signal: p.PxlB},
		},
	})

	b := &CaptureBench{
		opts:         o,
		harness:      NewHarness(k, "capture"),
		kernel:       k,
		ports:        p,
		capture:      dut.NewCapture(k, "capture", t.FrameWidth, t.FrameHeight, p),
		timing:       t,
		Camera:       camera,
		PixelMonitor: mon,
		FrameChecker: scoreboard.NewFrameChecker(k, "frame_checker",
			mon.Values(), camera.Frame(), planes, o.checks()),
	}

	b.harness.AddResetLine(p.PClk, p.Rst)
	b.harness.AddMonitor(b.PixelMonitor)
	b.harness.AddDriver(b.Camera)
	b.harness.AddChecker(b.FrameChecker)

	sim.NewClock(k, p.PClk, k.MustSteps(10, timing.NS)).Start()
	if err := b.capture.Start(); err != nil {
		return nil, err
	}

	return b, nil
}

// Harness returns the harness of the bench.
func (b *CaptureBench) Harness() *Harness {
	return b.harness
}

// Scenarios returns the scenario names.
func (b *CaptureBench) Scenarios() []string {
	return []string{"random", "reset"}
}

// Run runs a scenario.
func (b *CaptureBench) Run(scenario string) (Verdict, error) {
	switch scenario {
	case "random":
		return b.Random()
	case "reset":
		return b.Reset()
	default:
		return Verdict{}, unknownScenario(b.harness.Name(), scenario)
	}
}

// Random resets the capture block while the camera starts and runs until
// 50 cycles after the end of the first frame.
func (b *CaptureBench) Random() (Verdict, error) {
	if _, err := b.harness.BeginReset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	return b.runMain()
}

// Reset streams half a frame without checking, resets everything and then
// runs the random test.
func (b *CaptureBench) Reset() (Verdict, error) {
	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	if err := b.Camera.Start(); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(b.ports.PClk, b.framePeriod()/2); err != nil {
		return Verdict{}, err
	}

	if err := b.Camera.Stop(); err != nil {
		return Verdict{}, err
	}

	if err := b.harness.Reset(DefaultResetClocks); err != nil {
		return Verdict{}, err
	}

	return b.runMain()
}

// framePeriod is the number of pixel clocks of one frame.
func (b *CaptureBench) framePeriod() int {
	t := b.timing
	return t.TotalLines() * (t.FrameWidth + t.HRefBlank) * 2
}

func (b *CaptureBench) runMain() (Verdict, error) {
	if err := b.harness.Start(); err != nil {
		return Verdict{}, err
	}

	p := b.ports
	waitEOS := b.kernel.Spawn("wait_eos", sim.ProcessFunc(
		func(fired sim.Trigger) sim.Trigger {
			if fired == nil {
				return sim.RisingEdge(p.EOS)
			}

			return nil
		}))

	limit := b.opts.cycles(2*b.framePeriod() + DefaultResetClocks)
	if err := b.harness.Await(p.PClk, limit, waitEOS); err != nil {
		return Verdict{}, err
	}

	if err := b.kernel.RunClocks(p.PClk, 50); err != nil {
		return Verdict{}, err
	}

	return finish(b.harness)
}
