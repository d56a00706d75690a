package scoreboard

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sim"
	"go.uber.org/mock/gomock"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func word(field string, v uint64) monitor.Transaction {
	return monitor.NewTransaction(0, monitor.FieldValue{Name: field, Value: v})
}

type testFrame [][][3]uint64

func (f testFrame) Width() int               { return len(f[0]) }
func (f testFrame) Height() int              { return len(f) }
func (f testFrame) Pixel(x, y int) [3]uint64 { return f[y][x] }

var _ = ginkgo.Describe("Checkers", func() {
	var (
		k   *sim.Kernel
		clk *sim.Signal
	)

	ginkgo.BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		clk = k.NewSignal("clk", 1)
		sim.NewClock(k, clk, 10).Start()
	})

	ginkgo.Context("FlagChecker", func() {
		var (
			ref  *sim.Queue[monitor.Transaction]
			flag *sim.Signal
		)

		ginkgo.BeforeEach(func() {
			ref = NewRefFIFO(k, "ref", 0)
			flag = k.NewSignal("o_full", 1)
		})

		ginkgo.It("should size the model with one extra entry", func() {
			Expect(NewRefFIFO(k, "ref16", 4).Capacity()).To(Equal(17))
			Expect(ref.Capacity()).To(Equal(2))
		})

		ginkgo.It("should count a missing flag as an error", func() {
			Expect(ref.Put(word("data", 1))).To(Succeed())
			Expect(ref.Put(word("data", 2))).To(Succeed())
			flag.Init(0)

			c := NewFullChecker(k, ref, clk, flag, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())
			Expect(c.Stop()).To(Succeed())

			Expect(c.Errors()).To(Equal(3))
			Expect(c.Passes()).To(Equal(0))
			Expect(c.Counters()).To(Equal(Counters{Checked: 3, Errors: 3}))
		})

		ginkgo.It("should count correct assertions", func() {
			flag.Init(1)

			c := NewEmptyChecker(k, ref, clk, flag, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())

			Expect(c.Passes()).To(Equal(3))
			Expect(c.Errors()).To(Equal(0))
			Expect(c.Asserted()).To(Equal(3))
		})

		ginkgo.It("should not check while the predicate does not hold", func() {
			flag.Init(0)

			c := NewFullChecker(k, ref, clk, flag, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{}))
			Expect(c.Asserted()).To(Equal(0))
		})

		ginkgo.It("should stop the run in strict mode", func() {
			flag.Init(0)

			c := NewEmptyChecker(k, ref, clk, flag, Options{Strict: true})
			Expect(c.Start()).To(Succeed())

			Expect(k.RunFor(100)).To(MatchError(ContainSubstring(
				"FIFO is empty but empty flag is not asserted!")))
			Expect(k.Now()).To(BeZero())
		})
	})

	ginkgo.Context("StreamChecker", func() {
		var (
			mockCtrl *gomock.Controller
			reporter *MockReporter
			dut, ref *sim.Queue[monitor.Transaction]
		)

		ginkgo.BeforeEach(func() {
			mockCtrl = gomock.NewController(ginkgo.GinkgoT())
			reporter = NewMockReporter(mockCtrl)
			dut = sim.NewQueue[monitor.Transaction](k, "dut", 0)
			ref = sim.NewQueue[monitor.Transaction](k, "ref", 0)
		})

		ginkgo.AfterEach(func() {
			mockCtrl.Finish()
		})

		pair := func(a, b uint64) monitor.Transaction {
			return monitor.NewTransaction(0,
				monitor.FieldValue{Name: "a", Value: a},
				monitor.FieldValue{Name: "b", Value: b})
		}

		ginkgo.It("should compare every field in order", func() {
			reporter.EXPECT().Report(gomock.Any()).Times(6)

			Expect(dut.Put(pair(1, 2))).To(Succeed())
			Expect(dut.Put(pair(3, 9))).To(Succeed())
			Expect(dut.Put(pair(5, 6))).To(Succeed())
			Expect(ref.Put(pair(1, 2))).To(Succeed())
			Expect(ref.Put(pair(3, 4))).To(Succeed())
			Expect(ref.Put(pair(5, 6))).To(Succeed())

			c := NewStreamChecker(k, "checker", dut, ref,
				[]string{"a", "b"}, Options{Reporter: reporter})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(1)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{Checked: 3, Errors: 1}))
			Expect(dut.Empty()).To(BeTrue())
			Expect(ref.Empty()).To(BeTrue())
		})

		ginkgo.It("should wait for the reference", func() {
			reporter.EXPECT().Report(gomock.Any()).Times(2)

			Expect(dut.Put(pair(1, 2))).To(Succeed())

			c := NewStreamChecker(k, "checker", dut, ref,
				[]string{"a", "b"}, Options{Reporter: reporter})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(10)).To(Succeed())
			Expect(c.Counters().Checked).To(Equal(0))

			k.Spawn("late_ref", sim.ProcessFunc(func(sim.Trigger) sim.Trigger {
				Expect(ref.Put(pair(1, 2))).To(Succeed())
				return nil
			}))
			Expect(k.RunFor(10)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{Checked: 1}))
		})

		ginkgo.It("should count unmatched DUT transactions at stop", func() {
			Expect(dut.Put(pair(1, 2))).To(Succeed())
			Expect(dut.Put(pair(3, 4))).To(Succeed())

			c := NewStreamChecker(k, "checker", dut, ref,
				[]string{"a", "b"}, Options{Reporter: reporter})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(10)).To(Succeed())
			Expect(c.Stop()).To(Succeed())

			Expect(c.Residual()).To(Equal(2))
		})
	})

	ginkgo.Context("FifoDataChecker", func() {
		ginkgo.It("should pop the model on every read", func() {
			ports := FifoReadPorts{
				Clock:  clk,
				RdEn:   k.NewSignal("i_rd_en", 1),
				Empty:  k.NewSignal("o_empty", 1),
				RdData: k.NewSignal("o_rd_data", 8),
			}
			ports.RdEn.Init(1)
			ports.Empty.Init(0)
			ports.RdData.Init(5)

			ref := NewRefFIFO(k, "ref", 2)
			Expect(ref.Put(word("data", 5))).To(Succeed())
			Expect(ref.Put(word("data", 6))).To(Succeed())

			n := 0
			k.Spawn("dut", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
				if fired != nil {
					ports.RdData.Set(uint64(6 + n))
					n++
				}

				return sim.RisingEdge(clk)
			}))

			c := NewFifoDataChecker(k, "rd_data_checker", ports, ref, "data", Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{Checked: 3, Errors: 1}))
		})

		ginkgo.It("should not check while the FIFO is empty", func() {
			ports := FifoReadPorts{
				Clock:  clk,
				RdEn:   k.NewSignal("i_rd_en", 1),
				Empty:  k.NewSignal("o_empty", 1),
				RdData: k.NewSignal("o_rd_data", 8),
			}
			ports.RdEn.Init(1)
			ports.Empty.Init(1)

			c := NewFifoDataChecker(k, "rd_data_checker", ports,
				NewRefFIFO(k, "ref", 2), "data", Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(25)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{}))
		})
	})

	ginkgo.Context("ReadPathChecker", func() {
		ginkgo.It("should finish once the seeded words are exhausted", func() {
			dut := sim.NewQueue[monitor.Transaction](k, "dut", 0)
			for _, v := range []uint64{1, 2, 9} {
				Expect(dut.Put(word("data_out", v))).To(Succeed())
			}

			c := NewReadPathChecker(k, "checker", dut, "data_out",
				[]uint64{1, 2, 3}, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunUntilDone(c.Task())).To(Succeed())

			Expect(c.Task().Done()).To(BeTrue())
			Expect(c.Counters()).To(Equal(Counters{Checked: 3, Errors: 1}))
			Expect(c.Remaining()).To(BeZero())
			Expect(c.Stop()).To(Succeed())
		})

		ginkgo.It("should leave words beyond the seeded ones in the queue", func() {
			dut := sim.NewQueue[monitor.Transaction](k, "dut", 0)
			for _, v := range []uint64{1, 2, 3, 4} {
				Expect(dut.Put(word("data_out", v))).To(Succeed())
			}

			c := NewReadPathChecker(k, "checker", dut, "data_out",
				[]uint64{1, 2, 3}, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(100)).To(Succeed())

			Expect(c.Task().Done()).To(BeTrue())
			Expect(c.Counters()).To(Equal(Counters{Checked: 3}))
			Expect(dut.Size()).To(Equal(1))
		})

		ginkgo.It("should finish at once without seeded words", func() {
			dut := sim.NewQueue[monitor.Transaction](k, "dut", 0)
			Expect(dut.Put(word("data_out", 5))).To(Succeed())

			c := NewReadPathChecker(k, "checker", dut, "data_out", nil, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunUntilDone(c.Task())).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{}))
			Expect(dut.Size()).To(Equal(1))
		})

		ginkgo.It("should keep waiting while words remain", func() {
			dut := sim.NewQueue[monitor.Transaction](k, "dut", 0)
			Expect(dut.Put(word("data_out", 1))).To(Succeed())

			c := NewReadPathChecker(k, "checker", dut, "data_out",
				[]uint64{1, 2}, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(100)).To(Succeed())

			Expect(c.Task().Done()).To(BeFalse())
			Expect(c.Remaining()).To(Equal(1))
		})
	})

	ginkgo.Context("WritePathChecker", func() {
		var (
			mockCtrl *gomock.Controller
			mem      *MockWordReader
			dir      string
		)

		ginkgo.BeforeEach(func() {
			mockCtrl = gomock.NewController(ginkgo.GinkgoT())
			mem = NewMockWordReader(mockCtrl)
			dir = ginkgo.GinkgoT().TempDir()
		})

		ginkgo.AfterEach(func() {
			mockCtrl.Finish()
		})

		newChecker := func() *WritePathChecker {
			return NewWritePathChecker(k, "mem_checker", WritePathConfig{
				Memory:    mem,
				Base:      0x100,
				WordSize:  4,
				OutputDir: dir,
			}, Options{})
		}

		ginkgo.It("should pass on identical memory", func() {
			mem.EXPECT().
				ReadWords(uint64(0x100), 3, binary.LittleEndian, 4).
				Return([]uint64{1, 2, 3}, nil)

			ok, err := newChecker().Check([]uint64{1, 2, 3})

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(filepath.Join(dir, DUTMemFile)).NotTo(BeAnExistingFile())
		})

		ginkgo.It("should dump both lists on a mismatch", func() {
			mem.EXPECT().
				ReadWords(uint64(0x100), 2, binary.LittleEndian, 4).
				Return([]uint64{1, 7}, nil)

			c := newChecker()
			ok, err := c.Check([]uint64{1, 2})

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(c.Counters()).To(Equal(Counters{Checked: 2, Errors: 1}))

			dutData, err := os.ReadFile(filepath.Join(dir, DUTMemFile))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(dutData)).To(Equal("1\n7\n"))

			refData, err := os.ReadFile(filepath.Join(dir, RefMemFile))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(refData)).To(Equal("1\n2\n"))
		})
	})

	ginkgo.Context("FrameChecker", func() {
		ginkgo.It("should walk the frame in raster order and wrap", func() {
			frame := testFrame{
				{{1, 2, 3}, {4, 5, 6}},
				{{7, 8, 9}, {10, 11, 12}},
			}
			pixel := func(r, g, b uint64) monitor.Transaction {
				return monitor.NewTransaction(0,
					monitor.FieldValue{Name: "r", Value: r},
					monitor.FieldValue{Name: "g", Value: g},
					monitor.FieldValue{Name: "b", Value: b})
			}

			dut := sim.NewQueue[monitor.Transaction](k, "pixels", 0)
			for _, p := range []monitor.Transaction{
				pixel(1, 2, 3), pixel(4, 5, 6), pixel(7, 0, 9),
				pixel(10, 11, 12), pixel(1, 2, 3),
			} {
				Expect(dut.Put(p)).To(Succeed())
			}

			c := NewFrameChecker(k, "frame_checker", dut, frame,
				[3]string{"r", "g", "b"}, Options{})
			Expect(c.Start()).To(Succeed())
			Expect(k.RunFor(1)).To(Succeed())

			Expect(c.Counters()).To(Equal(Counters{Checked: 15, Errors: 1}))
		})
	})
})
