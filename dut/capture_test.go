package dut

import (
	"math/rand"

	"github.com/sarchlab/hwverify/ov7670"
	"github.com/sarchlab/hwverify/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Capture", func() {
	var (
		k       *sim.Kernel
		ports   CapturePorts
		bus     *ov7670.Bus
		capture *Capture
	)

	small := ov7670.Timing{
		FrameWidth:  4,
		FrameHeight: 2,
		VSyncWidth:  1,
		VFrontPorch: 1,
		VBackPorch:  1,
		HRefBlank:   2,
	}

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		ports = CapturePorts{
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
		ports.Rst.Init(0)

		var err error
		bus, err = ov7670.NewBus(k, ov7670.Config{
			Name: "ov7670",
			Ports: ov7670.Ports{
				PClk:  ports.PClk,
				Reset: ports.Rst,
				Data:  ports.Data,
				VSync: ports.VSync,
				HRef:  ports.HRef,
			},
			Timing:  small,
			Pattern: ov7670.PatternRandom,
			Rng:     rand.New(rand.NewSource(2)),
		})
		Expect(err).NotTo(HaveOccurred())

		capture = NewCapture(k, "capture", small.FrameWidth, small.FrameHeight, ports)
		sim.NewClock(k, ports.PClk, 10).Start()
		Expect(capture.Start()).To(Succeed())
		Expect(bus.Start()).To(Succeed())
	})

	It("should rebuild the pixels of a frame", func() {
		var pixels [][3]uint64
		eos := 0
		k.Spawn("collect", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
			if fired != nil && ports.PxlVld.IsHigh() {
				pixels = append(pixels, [3]uint64{
					ports.PxlR.Int(), ports.PxlG.Int(), ports.PxlB.Int(),
				})
			}

			if fired != nil && ports.EOS.IsHigh() {
				eos++
			}

			return sim.RisingEdge(ports.PClk)
		}))

		Expect(k.RunFor(805)).To(Succeed())

		var want [][3]uint64
		for y := 0; y < small.FrameHeight; y++ {
			for x := 0; x < small.FrameWidth; x++ {
				want = append(want, bus.Frame().Pixel(x, y))
			}
		}

		Expect(pixels).To(Equal(want))
		Expect(eos).To(Equal(1))
	})
})
