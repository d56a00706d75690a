package dut

import (
	"github.com/sarchlab/hwverify/sccb"
	"github.com/sarchlab/hwverify/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SCCBMaster", func() {
	var (
		k       *sim.Kernel
		ports   SCCBPorts
		master  *SCCBMaster
		decoder *sccb.Decoder
	)

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		ports = SCCBPorts{
			Clk:        k.NewSignal("clk", 1),
			Rst:        k.NewSignal("rst", 1),
			Valid:      k.NewSignal("i_vld", 1),
			Ready:      k.NewSignal("o_rdy", 1),
			ID:         k.NewSignal("i_id", 7),
			SubAddress: k.NewSignal("i_subaddr", 8),
			Data:       k.NewSignal("i_data", 8),
			SioC:       k.NewSignal("o_sio_c", 1),
			SioD:       k.NewSignal("io_sio_d", 1),
		}
		ports.Rst.Init(0)
		ports.Valid.Init(0)

		master = NewSCCBMaster(k, "sccb", 2, ports)
		decoder = sccb.NewDecoder(k, "sccb_monitor", ports.SioC, ports.SioD)
		sim.NewClock(k, ports.Clk, 10).Start()

		Expect(master.Start()).To(Succeed())
		Expect(decoder.Start()).To(Succeed())
	})

	It("should send an accepted transaction on the bus", func() {
		k.Spawn("request", sim.ProcessFunc(func(fired sim.Trigger) sim.Trigger {
			if fired == nil {
				ports.ID.Set(0x12)
				ports.SubAddress.Set(0x34)
				ports.Data.Set(0x56)
				ports.Valid.Set(1)

				return sim.RisingEdge(ports.Clk)
			}

			if ports.Valid.IsHigh() && ports.Ready.IsHigh() {
				ports.Valid.Set(0)
				return nil
			}

			return sim.RisingEdge(ports.Clk)
		}))

		Expect(k.RunFor(3000)).To(Succeed())

		Expect(decoder.Values().Items()).To(Equal([]sccb.Transaction{
			{IDAddress: 0x12, SubAddress: 0x34, Data: 0x56},
		}))
		Expect(decoder.ProtocolErrors()).To(BeZero())
		Expect(ports.Ready.IsHigh()).To(BeTrue())
	})

	It("should not accept requests in reset", func() {
		ports.Rst.Init(1)
		ports.Valid.Init(1)

		Expect(k.RunFor(500)).To(Succeed())

		Expect(ports.Ready.IsHigh()).To(BeFalse())
		Expect(ports.SioC.IsHigh()).To(BeTrue())
		Expect(ports.SioD.IsHigh()).To(BeTrue())
		Expect(decoder.Values().Empty()).To(BeTrue())
	})
})
