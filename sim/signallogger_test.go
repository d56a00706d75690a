package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SignalLogger", func() {
	It("should log committed changes of the watched signals", func() {
		var buf bytes.Buffer
		k := MakeBuilder().Build()
		s := k.NewSignal("s", 1)
		other := k.NewSignal("other", 2)
		k.AcceptHook(NewSignalLogger(log.New(&buf, "", 0), s))

		k.Spawn("driver", ProcessFunc(func(t Trigger) Trigger {
			if t == nil {
				return Timer(2)
			}

			s.Set(1)
			other.Set(3)

			return nil
		}))

		Expect(k.RunFor(5)).To(Succeed())

		Expect(buf.String()).To(Equal("2, s, x -> 1\n"))
	})
})
