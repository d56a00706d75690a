package bench

import (
	"sort"

	"github.com/pkg/errors"
)

// A Bench is a testbench with named scenarios. A bench runs one scenario;
// create a new bench for each run.
type Bench interface {
	Harness() *Harness
	Scenarios() []string
	Run(scenario string) (Verdict, error)
}

var (
	// ErrUnknownBench is returned by New for an unknown bench name.
	ErrUnknownBench = errors.New("unknown bench")

	// ErrUnknownScenario is returned by Run for an unknown scenario name.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Bench names.
const (
	SCCB      = "sccb"
	FIFO      = "fifo"
	MemWriter = "memwriter"
	MemReader = "memreader"
	Capture   = "capture"
)

var constructors = map[string]func(Options) (Bench, error){
	SCCB: func(o Options) (Bench, error) {
		return NewSCCBBench(o), nil
	},
	FIFO: func(o Options) (Bench, error) {
		return NewAsyncFIFOBench(o), nil
	},
	MemWriter: func(o Options) (Bench, error) {
		return NewMemWriterBench(o), nil
	},
	MemReader: func(o Options) (Bench, error) {
		return NewMemReaderBench(o), nil
	},
	Capture: func(o Options) (Bench, error) {
		return NewCaptureBench(o)
	},
}

// Names returns the names of all benches.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// New creates the named bench.
func New(name string, o Options) (Bench, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBench, "%q", name)
	}

	return c(o)
}

func unknownScenario(bench, scenario string) error {
	return errors.Wrapf(ErrUnknownScenario, "%s has no scenario %q",
		bench, scenario)
}

// finish stops the harness and turns its checkers into a verdict.
func finish(h *Harness) (Verdict, error) {
	if err := h.Stop(); err != nil {
		return Verdict{}, err
	}

	v := h.Verdict()
	h.Kernel().Logger().Printf("End of sim")

	return v, h.Kernel().Failure()
}
