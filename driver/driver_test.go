package driver

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseMode", func() {
	It("should parse the known modes", func() {
		m, err := ParseMode("full")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(Full))

		m, err = ParseMode("random")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(Random))
	})

	It("should reject unknown modes", func() {
		_, err := ParseMode("sometimes")

		Expect(errors.Is(err, ErrInvalidMode)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("sometimes"))
	})

	It("should work as a flag value", func() {
		var m Mode

		Expect(m.Set("random")).To(Succeed())
		Expect(m.String()).To(Equal("random"))
		Expect(m.Set("bad")).NotTo(Succeed())
	})
})

type edgeSample struct {
	line, other uint64
	otherLow    bool
	payload     uint64
}

var _ = Describe("Drivers", func() {
	var (
		k   *sim.Kernel
		clk *sim.Signal
		rng *rand.Rand
	)

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		clk = k.NewSignal("clk", 1)
		rng = rand.New(rand.NewSource(3))
		sim.NewClock(k, clk, 10).Start()
	})

	onEdges := func(f func(n int)) {
		n := 0
		k.Spawn("observer", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
			if fired != nil {
				f(n)
				n++
			}

			return sim.RisingEdge(clk)
		}))
	}

	Context("EnableDriver", func() {
		var line *sim.Signal

		BeforeEach(func() {
			line = k.NewSignal("en", 1)
		})

		It("should hold the line in full mode", func() {
			d := NewEnableDriver(k, EnableConfig{
				Name: "en_drv", Clock: clk, Line: line, Mode: Full,
			})
			var seen []uint64
			onEdges(func(int) { seen = append(seen, line.Int()) })

			Expect(d.Start()).To(Succeed())
			Expect(k.RunFor(95)).To(Succeed())

			Expect(seen).To(HaveLen(10))
			Expect(seen).To(HaveEach(uint64(1)))

			Expect(d.Stop()).To(Succeed())
			Expect(k.RunFor(10)).To(Succeed())
			Expect(line.Int()).To(Equal(uint64(0)))
		})

		It("should assert with the configured probability", func() {
			d := NewEnableDriver(k, EnableConfig{
				Name: "en_drv", Clock: clk, Line: line, Mode: Random,
				Probability: 0.05, Rng: rng,
			})
			high := 0
			onEdges(func(int) {
				if line.IsHigh() {
					high++
				}
			})

			Expect(d.Start()).To(Succeed())
			Expect(k.RunFor(20000)).To(Succeed())

			Expect(high).To(BeNumerically(">", 50))
			Expect(high).To(BeNumerically("<", 150))
		})

		It("should never assert while backing off", func() {
			backoff := k.NewSignal("full", 1)
			backoff.Init(0)
			d := NewEnableDriver(k, EnableConfig{
				Name: "en_drv", Clock: clk, Line: line, Mode: Full,
				Backoff: backoff,
			})

			var seen []edgeSample
			onEdges(func(n int) {
				seen = append(seen, edgeSample{
					line: line.Int(), other: backoff.Int(),
				})

				switch n {
				case 3:
					backoff.Set(1)
				case 6:
					backoff.Set(0)
				}
			})

			Expect(d.Start()).To(Succeed())
			Expect(k.RunFor(95)).To(Succeed())

			for _, s := range seen {
				Expect(s.line == 1 && s.other == 1).To(BeFalse())
			}
			Expect(seen[3].line).To(Equal(uint64(1)))
			Expect(seen[4].line).To(Equal(uint64(0)))
			Expect(seen[7].line).To(Equal(uint64(1)))
		})

		It("should keep a read enable low until the first edge", func() {
			d := NewReadEnableDriver(k, "rd_drv", clk, line, Full, rng)
			var seen []uint64
			onEdges(func(int) { seen = append(seen, line.Int()) })

			Expect(d.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())

			Expect(seen).To(Equal([]uint64{0, 1, 1}))
		})

		It("should enforce the lifecycle", func() {
			d := NewFifoReader(k, "rd_drv", clk, line, Full, rng)

			Expect(errors.Is(d.Stop(), sim.ErrNotStarted)).To(BeTrue())
			Expect(d.Start()).To(Succeed())
			Expect(errors.Is(d.Start(), sim.ErrAlreadyStarted)).To(BeTrue())
		})
	})

	Context("PayloadDriver", func() {
		It("should only replace consumed values", func() {
			en := k.NewSignal("en", 1)
			bp := k.NewSignal("full", 1)
			data := k.NewSignal("data", 32)
			en.Init(1)

			d := NewPayloadDriver(k, PayloadConfig{
				Name: "data_drv", Clock: clk, Payload: data,
				Enable: en, Backpressure: bp, Rng: rng,
			})

			var seen []edgeSample
			onEdges(func(n int) {
				seen = append(seen, edgeSample{
					payload: data.Int(), otherLow: bp.Is(0),
				})
				bp.SetBool(n%3 == 0)
			})

			Expect(d.Start()).To(Succeed())
			Expect(k.RunFor(295)).To(Succeed())

			Expect(seen).To(HaveLen(30))
			for n := 0; n+1 < len(seen); n++ {
				if seen[n].otherLow {
					Expect(seen[n+1].payload).NotTo(Equal(seen[n].payload))
				} else {
					Expect(seen[n+1].payload).To(Equal(seen[n].payload))
				}
			}
		})
	})

	Context("Writer", func() {
		It("should drive both lines and drop the enable on stop", func() {
			wrEn := k.NewSignal("i_wr_en", 1)
			wrData := k.NewSignal("i_wr_data", 16)
			full := k.NewSignal("o_full", 1)
			full.Init(0)

			w := NewFifoWriter(k, "fifo_writer", clk, wrEn, wrData, full, Full, rng)

			var payloads []uint64
			onEdges(func(int) { payloads = append(payloads, wrData.Int()) })

			Expect(w.Start()).To(Succeed())
			Expect(k.RunFor(45)).To(Succeed())

			Expect(wrEn.IsHigh()).To(BeTrue())
			Expect(payloads[1]).NotTo(Equal(payloads[2]))

			Expect(w.Stop()).To(Succeed())
			Expect(k.RunFor(10)).To(Succeed())
			Expect(wrEn.Int()).To(Equal(uint64(0)))

			Expect(w.Start()).To(Succeed())
		})

		It("should switch modes", func() {
			wrEn := k.NewSignal("i_wr_en", 1)
			wrData := k.NewSignal("i_wr_data", 16)
			full := k.NewSignal("o_full", 1)
			full.Init(0)

			w := NewFifoWriter(k, "fifo_writer", clk, wrEn, wrData, full, Full, rng)
			w.SetMode(Random)

			high := 0
			onEdges(func(int) {
				if wrEn.IsHigh() {
					high++
				}
			})

			Expect(w.Mode()).To(Equal(Random))
			Expect(w.Start()).To(Succeed())
			Expect(k.RunFor(20000)).To(Succeed())

			Expect(high).To(BeNumerically("<", 200))
		})
	})
})
