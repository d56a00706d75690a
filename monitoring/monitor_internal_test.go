package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
)

type sampleChecker struct {
	sim.Lifecycle

	queue    *sim.Queue[int]
	counters scoreboard.Counters
}

func (c *sampleChecker) Start() error {
	return c.BeginStart()
}

func (c *sampleChecker) Stop() error {
	return c.BeginStop()
}

func (c *sampleChecker) Counters() scoreboard.Counters {
	return c.counters
}

type sampleBuffer struct {
	name      string
	size, cap int
}

func (b *sampleBuffer) Name() string  { return b.name }
func (b *sampleBuffer) Size() int     { return b.size }
func (b *sampleBuffer) Capacity() int { return b.cap }

var _ = Describe("Monitor", func() {
	var (
		k       *sim.Kernel
		m       *Monitor
		checker *sampleChecker
		router  http.Handler
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	BeforeEach(func() {
		k = sim.MakeBuilder().Build()
		m = NewMonitor()
		m.RegisterEngine(k.Engine())

		checker = &sampleChecker{
			Lifecycle: sim.MakeLifecycle("checker"),
			queue:     sim.NewQueue[int](k, "checker.queue", 4),
			counters:  scoreboard.Counters{Checked: 10, Errors: 2},
		}
		m.RegisterComponent(checker)

		router = m.Router()
	})

	It("should serve the built-in page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should serve the page from an asset directory", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "index.html"),
			[]byte("<p>dev</p>"), 0o600)).To(Succeed())
		router = m.WithAssetDir(dir).Router()

		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("<p>dev</p>"))
		Expect(get("/api/now").Code).To(Equal(http.StatusOK))
	})

	It("should register the queues of a component", func() {
		clk := k.NewSignal("clk", 1)
		vld := k.NewSignal("vld", 1)
		mon := monitor.New(k, monitor.Config{
			Name:  "mon",
			Clock: clk,
			Gate:  monitor.High(vld),
		})

		m.RegisterComponent(mon)

		Expect(m.components).To(HaveLen(2))
		Expect(m.buffers).To(HaveLen(2))
		Expect(m.buffers[1].Name()).To(Equal("mon.values"))
	})

	It("should not register a buffer twice", func() {
		m.RegisterBuffer(checker.queue)

		Expect(m.buffers).To(HaveLen(1))
	})

	It("should list components with their states", func() {
		Expect(checker.Start()).To(Succeed())

		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(
			`[{"name":"checker","state":"running"}]`))
	})

	It("should list checker counters", func() {
		rec := get("/api/checkers")

		Expect(rec.Body.String()).To(MatchJSON(
			`[{"name":"checker","checked":10,"errors":2}]`))
	})

	It("should report the current time", func() {
		Expect(k.RunFor(50)).To(Succeed())

		rec := get("/api/now")

		Expect(rec.Body.String()).To(MatchJSON(`{"now":50}`))
	})

	It("should return 404 for unknown components", func() {
		rec := get("/api/component/nobody")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(m.userPaused).To(BeTrue())

		Expect(get("/api/list_components").Code).To(Equal(http.StatusOK))
		Expect(m.userPaused).To(BeTrue())

		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
		Expect(m.userPaused).To(BeFalse())
		Expect(k.RunFor(10)).To(Succeed())
	})

	Context("with buffers", func() {
		BeforeEach(func() {
			m.buffers = nil
			m.RegisterBuffer(&sampleBuffer{"a", 2, 4})
			m.RegisterBuffer(&sampleBuffer{"b", 3, 12})
			m.RegisterBuffer(&sampleBuffer{"c", 5, 0})
		})

		names := func(rec *httptest.ResponseRecorder) []string {
			var rsp []bufferRsp
			Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

			n := make([]string, 0, len(rsp))
			for _, b := range rsp {
				n = append(n, b.Buffer)
			}

			return n
		}

		It("should sort by percent", func() {
			rec := get("/api/hangdetector/buffers")
			Expect(names(rec)).To(Equal([]string{"a", "b", "c"}))
		})

		It("should sort by level", func() {
			rec := get("/api/hangdetector/buffers?sort=level")
			Expect(names(rec)).To(Equal([]string{"c", "b", "a"}))
		})

		It("should page the result", func() {
			rec := get("/api/hangdetector/buffers?sort=level&limit=1&offset=1")
			Expect(names(rec)).To(Equal([]string{"b"}))
		})

		It("should reject unknown sort methods", func() {
			rec := get("/api/hangdetector/buffers?sort=name")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("CheckProgress", func() {
	It("should count checks and mismatches", func() {
		m := NewMonitor()
		p := NewCheckProgress(m, nil)

		p.Report(scoreboard.CheckRecord{Match: true})
		p.Report(scoreboard.CheckRecord{Match: false})

		finished, _ := p.Checks.Progress()
		Expect(finished).To(Equal(uint64(2)))

		finished, _ = p.Errors.Progress()
		Expect(finished).To(Equal(uint64(1)))
		Expect(m.progressBars).To(HaveLen(2))

		m.CompleteProgressBar(p.Errors)
		Expect(m.progressBars).To(HaveLen(1))
	})
})
