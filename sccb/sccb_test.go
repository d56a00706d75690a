package sccb

import (
	"bytes"
	"log"
	"math/rand"
	"strings"

	"github.com/sarchlab/hwverify/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Waveform", func() {
	It("should start and end idle", func() {
		w := Waveform(Transaction{IDAddress: 0x12, SubAddress: 0x34, Data: 0x56}, false)

		Expect(w).To(HaveLen(3 + 3*BitsPerPhase*3 + 3))
		Expect(w[0]).To(Equal(Idle))
		Expect(w[len(w)-1]).To(Equal(Idle))
	})

	It("should change one line at a time", func() {
		w := Waveform(Transaction{IDAddress: 0x7f, SubAddress: 0xff, Data: 0xff}, true)

		for i := 1; i < len(w); i++ {
			changes := 0
			if w[i].C != w[i-1].C {
				changes++
			}
			if w[i].D != w[i-1].D {
				changes++
			}
			Expect(changes).To(BeNumerically("<=", 1))
		}
	})

	It("should only move data while the clock is low", func() {
		w := Waveform(Transaction{IDAddress: 0x55, SubAddress: 0xaa, Data: 0x0f}, false)

		for i := 3; i < len(w)-3; i++ {
			if w[i].D != w[i-1].D {
				Expect(w[i].C).To(Equal(uint64(0)))
			}
		}
	})
})

var _ = Describe("Decoder", func() {
	var (
		k          *sim.Kernel
		logBuf     bytes.Buffer
		sioC, sioD *sim.Signal
		decoder    *Decoder
		encoder    *Encoder
	)

	BeforeEach(func() {
		logBuf.Reset()
		k = sim.MakeBuilder().WithLogger(log.New(&logBuf, "", 0)).Build()
		sioC = k.NewSignal("o_sio_c", 1)
		sioD = k.NewSignal("io_sio_d", 1)
		decoder = NewDecoder(k, "sccb_mon", sioC, sioD)
		encoder = NewEncoder(k, sioC, sioD, 25)
		Expect(decoder.Start()).To(Succeed())
	})

	It("should decode a write", func() {
		want := Transaction{IDAddress: 0x12, SubAddress: 0x34, Data: 0x56}
		task := encoder.Play(Request{Transaction: want})

		Expect(k.RunUntilDone(task)).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal([]Transaction{want}))
		Expect(decoder.ProtocolErrors()).To(Equal(0))
		Expect(logBuf.String()).To(BeEmpty())
	})

	It("should flag a read but still emit it", func() {
		want := Transaction{IDAddress: 0x12, SubAddress: 0x34, Data: 0x56}
		task := encoder.Play(Request{Transaction: want, Read: true})

		Expect(k.RunUntilDone(task)).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal([]Transaction{want}))
		Expect(decoder.ProtocolErrors()).To(Equal(1))
		Expect(strings.Count(logBuf.String(), "ERROR")).To(Equal(1))
	})

	It("should decode back-to-back random transactions", func() {
		rng := rand.New(rand.NewSource(1))
		var reqs []Request
		var want []Transaction
		for i := 0; i < 20; i++ {
			var t Transaction
			t.Randomise(rng)
			reqs = append(reqs, Request{Transaction: t})
			want = append(want, t)
		}

		task := encoder.Play(reqs...)
		Expect(k.RunUntilDone(task)).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal(want))
	})

	play := func(pins []Pins) *sim.Task {
		i := 0

		return k.Spawn("pins", sim.ProcessFunc(func(sim.Trigger) sim.Trigger {
			if i == len(pins) {
				return nil
			}

			sioC.Set(pins[i].C)
			sioD.Set(pins[i].D)
			i++

			return sim.Timer(25)
		}))
	}

	It("should not emit a transaction without STOP", func() {
		w := Waveform(Transaction{IDAddress: 1, SubAddress: 2, Data: 3}, false)
		task := play(w[:len(w)-3])

		Expect(k.RunUntilDone(task)).To(Succeed())
		Expect(k.RunFor(1000)).To(Succeed())

		Expect(decoder.Values().Empty()).To(BeTrue())
	})

	It("should restart on a START before the previous STOP", func() {
		want := Transaction{IDAddress: 0x12, SubAddress: 0x34, Data: 0x56}
		full := Waveform(want, false)
		truncated := Waveform(Transaction{IDAddress: 0x7f, SubAddress: 0xff}, false)

		var pins []Pins
		pins = append(pins, truncated[:3+BitsPerPhase*3]...)
		pins = append(pins, Idle, Idle)
		pins = append(pins, full...)
		pins = append(pins, full...)

		Expect(k.RunUntilDone(play(pins))).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal([]Transaction{want, want}))
		Expect(decoder.ProtocolErrors()).To(Equal(0))
	})

	It("should drop a transaction ended by a repeated START", func() {
		want := Transaction{IDAddress: 0x21, SubAddress: 0x43, Data: 0x65}
		first := Waveform(Transaction{IDAddress: 0x01, SubAddress: 0x02, Data: 0x03}, false)

		var pins []Pins
		pins = append(pins, first[:len(first)-1]...)
		pins = append(pins,
			Pins{C: 0, D: 0},
			Pins{C: 0, D: 1},
			Pins{C: 1, D: 1},
			Pins{C: 1, D: 0},
			Pins{C: 0, D: 0})
		pins = append(pins, Waveform(want, false)[3:]...)

		Expect(k.RunUntilDone(play(pins))).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal([]Transaction{want}))
	})

	It("should drop a partial transaction when stopped", func() {
		task := encoder.Play(Request{Transaction: Transaction{IDAddress: 1}})

		Expect(k.RunFor(25 * 40)).To(Succeed())
		Expect(decoder.Stop()).To(Succeed())
		Expect(k.RunUntilDone(task)).To(Succeed())

		Expect(decoder.Values().Empty()).To(BeTrue())
	})
})

var _ = Describe("Driver", func() {
	var (
		k     *sim.Kernel
		ports DriverPorts
	)

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		ports = DriverPorts{
			Clock:      k.NewSignal("clk", 1),
			Data:       k.NewSignal("i_data", 8),
			SubAddress: k.NewSignal("i_subaddr", 8),
			ID:         k.NewSignal("i_id", 7),
			Valid:      k.NewSignal("i_vld", 1),
			Ready:      k.NewSignal("o_rdy", 1),
		}
		sim.NewClock(k, ports.Clock, 10).Start()
	})

	current := func() Transaction {
		return Transaction{
			IDAddress:  uint8(ports.ID.Int()),
			SubAddress: uint8(ports.SubAddress.Int()),
			Data:       uint8(ports.Data.Int()),
		}
	}

	It("should offer a new transaction on every ready clock edge", func() {
		ports.Ready.Init(1)
		d := NewDriver(k, "drv", ports, rand.New(rand.NewSource(7)))

		Expect(d.Start()).To(Succeed())
		Expect(k.RunFor(25)).To(Succeed())

		replica := rand.New(rand.NewSource(7))
		var want Transaction
		for i := 0; i < 4; i++ {
			want.Randomise(replica)
		}

		Expect(ports.Valid.IsHigh()).To(BeTrue())
		Expect(current()).To(Equal(want))
	})

	It("should hold the transaction while the master is busy", func() {
		ports.Ready.Init(0)
		d := NewDriver(k, "drv", ports, rand.New(rand.NewSource(7)))

		Expect(d.Start()).To(Succeed())
		Expect(k.RunFor(55)).To(Succeed())

		var want Transaction
		want.Randomise(rand.New(rand.NewSource(7)))

		Expect(current()).To(Equal(want))
	})

	It("should drop valid when stopped", func() {
		ports.Ready.Init(1)
		d := NewDriver(k, "drv", ports, rand.New(rand.NewSource(7)))

		Expect(d.Start()).To(Succeed())
		Expect(k.RunFor(25)).To(Succeed())
		Expect(d.Stop()).To(Succeed())
		Expect(k.RunFor(10)).To(Succeed())

		Expect(ports.Valid.Int()).To(Equal(uint64(0)))
	})
})
