package tracing

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"
	"go.uber.org/mock/gomock"
)

var _ = ginkgo.Describe("QueueTracer", func() {
	var (
		mockCtrl *gomock.Controller
		k        *sim.Kernel
		q        *sim.Queue[int]
		writer   *MockWriter
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		k = sim.MakeBuilder().Build()
		q = sim.NewQueue[int](k, "ref", 0)
		writer = NewMockWriter(mockCtrl)
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should trace puts", func() {
		t := NewQueueTracer(k, writer, false)
		t.Trace(q)

		writer.EXPECT().Write(gomock.Any()).DoAndReturn(func(e Entry) error {
			Expect(e.ID).ToNot(BeEmpty())
			Expect(e.Queue).To(Equal("ref"))
			Expect(e.Kind).To(Equal(KindPut))
			Expect(e.What).To(Equal("5"))

			return nil
		})

		Expect(q.Put(5)).To(Succeed())
		_, ok := q.TryGet()
		Expect(ok).To(BeTrue())
	})

	ginkgo.It("should trace gets if asked", func() {
		t := NewQueueTracer(k, writer, true)
		t.Trace(q)

		gomock.InOrder(
			writer.EXPECT().Write(gomock.Any()).Return(nil),
			writer.EXPECT().Write(gomock.Any()).DoAndReturn(func(e Entry) error {
				Expect(e.Kind).To(Equal(KindGet))
				return nil
			}),
		)

		Expect(q.Put(5)).To(Succeed())
		q.TryGet()
	})

	ginkgo.It("should stop at the first write error", func() {
		t := NewQueueTracer(k, writer, false)
		t.Trace(q)

		writer.EXPECT().Write(gomock.Any()).Return(errors.New("disk full"))

		Expect(q.Put(1)).To(Succeed())
		Expect(q.Put(2)).To(Succeed())

		Expect(t.Err()).To(MatchError("disk full"))
		Expect(t.Flush()).To(MatchError("disk full"))
	})
})

var _ = ginkgo.Describe("CountTracer", func() {
	ginkgo.It("should count per queue and kind", func() {
		k := sim.MakeBuilder().Build()
		a := sim.NewQueue[int](k, "a", 0)
		b := sim.NewQueue[int](k, "b", 0)
		c := NewCountTracer()
		t := NewQueueTracer(k, c, true)
		t.Trace(a)
		t.Trace(b)

		Expect(a.Put(1)).To(Succeed())
		Expect(a.Put(2)).To(Succeed())
		Expect(b.Put(3)).To(Succeed())
		a.TryGet()

		Expect(c.Count("a", KindPut)).To(Equal(uint64(2)))
		Expect(c.Count("a", KindGet)).To(Equal(uint64(1)))
		Expect(c.Count("b", KindPut)).To(Equal(uint64(1)))
		Expect(c.Count("c", KindPut)).To(Equal(uint64(0)))
	})
})

var _ = ginkgo.Describe("CSVTraceWriter", func() {
	ginkgo.It("should write a header and the entries", func() {
		path := filepath.Join(ginkgo.GinkgoT().TempDir(), "trace")
		w, err := NewCSVTraceWriter(path)
		Expect(err).ToNot(HaveOccurred())

		Expect(w.Write(Entry{"id0", "ref", KindPut, 10, "data=3"})).To(Succeed())
		Expect(w.Close()).To(Succeed())

		f, err := os.Open(w.Path())
		Expect(err).ToNot(HaveOccurred())
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(Equal([][]string{
			{"ID", "Queue", "Kind", "Time", "What"},
			{"id0", "ref", "put", "10", "data=3"},
		}))
	})

	ginkgo.It("should not overwrite a file", func() {
		path := filepath.Join(ginkgo.GinkgoT().TempDir(), "trace")
		Expect(os.WriteFile(path+".csv", nil, 0o600)).To(Succeed())

		_, err := NewCSVTraceWriter(path)
		Expect(err).To(MatchError(ErrFileExists))
	})
})
