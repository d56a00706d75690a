package monitor

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Monitor", func() {
	var (
		k                 *sim.Kernel
		clk, valid, ready *sim.Signal
		data              *sim.Signal
	)

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		clk = k.NewSignal("clk", 1)
		valid = k.NewSignal("valid", 1)
		ready = k.NewSignal("ready", 1)
		data = k.NewSignal("data", 8)
		sim.NewClock(k, clk, 10).Start()
	})

	drive := func(f func(n int)) {
		n := 0
		k.Spawn("stimulus", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
			if fired != nil {
				f(n)
				n++
			}

			return sim.RisingEdge(clk)
		}))
	}

	pattern := func(bits []uint64) func(n int) uint64 {
		return func(n int) uint64 {
			if n < len(bits) {
				return bits[n]
			}

			return 0
		}
	}

	dataOf := func(q *sim.Queue[Transaction]) []uint64 {
		var values []uint64
		for _, t := range q.Items() {
			v, ok := t.Value("data")
			Expect(ok).To(BeTrue())
			values = append(values, v)
		}

		return values
	}

	It("should sample when valid is high", func() {
		v := pattern([]uint64{1, 1, 0, 0, 1, 0, 1, 1})
		drive(func(n int) {
			valid.Set(v(n))
			data.Set(uint64(n))
		})

		m := New(k, Config{
			Name:   "mon",
			Clock:  clk,
			Gate:   High(valid),
			Fields: []Field{{Name: "data", Signal: data}},
		})
		Expect(m.Start()).To(Succeed())

		Expect(k.RunFor(95)).To(Succeed())

		Expect(dataOf(m.Values())).To(Equal([]uint64{0, 1, 4, 6, 7}))

		var times []timing.VTimeInCycle
		for _, t := range m.Values().Items() {
			times = append(times, t.Time())
		}
		Expect(times).To(Equal([]timing.VTimeInCycle{10, 20, 50, 70, 80}))
	})

	It("should require the qualifier", func() {
		valid.Init(1)
		r := pattern([]uint64{1, 0, 1, 0, 0, 1})
		drive(func(n int) {
			ready.Set(r(n))
			data.Set(uint64(n))
		})

		m := New(k, Config{
			Name:      "mon",
			Clock:     clk,
			Gate:      High(valid),
			Qualifier: &Condition{Signal: ready, Active: 1},
			Fields:    []Field{{Name: "data", Signal: data}},
		})
		Expect(m.Start()).To(Succeed())

		Expect(k.RunFor(95)).To(Succeed())

		Expect(dataOf(m.Values())).To(Equal([]uint64{0, 2, 5}))
	})

	It("should enqueue at the settle point", func() {
		valid.Init(1)
		drive(func(n int) { data.Set(uint64(n)) })

		m := New(k, Config{
			Name:                "mon",
			Clock:               clk,
			Gate:                High(valid),
			Fields:              []Field{{Name: "data", Signal: data}},
			SettleBeforeEnqueue: true,
		})
		Expect(m.Start()).To(Succeed())

		atEdge := map[timing.VTimeInCycle]int{}
		settled := map[timing.VTimeInCycle]int{}
		k.Spawn("observer", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
			if fired == sim.ReadOnly() {
				settled[k.Now()] = m.Values().Size()
				return sim.RisingEdge(clk)
			}

			if fired != nil {
				atEdge[k.Now()] = m.Values().Size()
				return sim.ReadOnly()
			}

			return sim.RisingEdge(clk)
		}))

		Expect(k.RunFor(35)).To(Succeed())

		Expect(atEdge[10]).To(Equal(1))
		Expect(settled[10]).To(Equal(2))
		Expect(dataOf(m.Values())).To(Equal([]uint64{0, 0, 1, 2}))
	})

	It("should enforce the lifecycle", func() {
		m := New(k, Config{Name: "mon", Clock: clk, Gate: High(valid)})

		Expect(errors.Is(m.Stop(), sim.ErrNotStarted)).To(BeTrue())
		Expect(m.Start()).To(Succeed())
		Expect(errors.Is(m.Start(), sim.ErrAlreadyStarted)).To(BeTrue())
		Expect(m.Stop()).To(Succeed())
		Expect(m.State()).To(Equal(sim.Stopped))
	})

	It("should not sample while stopped and resume after a restart", func() {
		valid.Init(1)
		drive(func(n int) { data.Set(uint64(n)) })

		m := New(k, Config{
			Name:   "mon",
			Clock:  clk,
			Gate:   High(valid),
			Fields: []Field{{Name: "data", Signal: data}},
		})

		Expect(m.Start()).To(Succeed())
		Expect(k.RunFor(15)).To(Succeed())
		Expect(m.Stop()).To(Succeed())
		Expect(k.RunFor(20)).To(Succeed())
		Expect(m.Start()).To(Succeed())
		Expect(k.RunFor(10)).To(Succeed())

		Expect(dataOf(m.Values())).To(Equal([]uint64{0, 0, 3}))
	})

	It("should fail the run when the output queue overflows", func() {
		valid.Init(1)
		drive(func(n int) { data.Set(uint64(n)) })

		m := New(k, Config{
			Name:   "mon",
			Clock:  clk,
			Gate:   High(valid),
			Fields: []Field{{Name: "data", Signal: data}},
			Out:    sim.NewQueue[Transaction](k, "bounded", 1),
		})
		Expect(m.Start()).To(Succeed())

		err := k.RunFor(100)

		Expect(errors.Is(err, sim.ErrQueueFull)).To(BeTrue())
	})
})

var _ = Describe("Transaction", func() {
	It("should keep fields in order", func() {
		t := NewTransaction(5,
			FieldValue{Name: "b", Value: 2},
			FieldValue{Name: "a", Value: 1})

		Expect(t.Time()).To(Equal(timing.VTimeInCycle(5)))
		Expect(t.Fields()).To(Equal([]FieldValue{{"b", 2}, {"a", 1}}))
		Expect(t.String()).To(Equal("{b: 2, a: 1}"))

		_, ok := t.Value("c")
		Expect(ok).To(BeFalse())
	})
})
