package bench

import (
	"log"
	"math/rand"
	"os"

	"github.com/sarchlab/hwverify/driver"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// Options configure every bench.
type Options struct {
	// Seed seeds the random stimulus. Runs with the same seed are identical.
	Seed int64

	Strict  bool
	Verbose bool

	// Logger receives the bench log. Nothing is logged if it is nil.
	Logger *log.Logger

	// TraceSignals logs every signal change into Logger.
	TraceSignals bool

	// Reporter receives every comparison.
	Reporter scoreboard.Reporter

	// OutputDir receives debug dumps. The working directory is used if it
	// is empty.
	OutputDir string

	// Cycles overrides the length of the main phase of a scenario, in
	// clock cycles.
	Cycles int

	// WriterMode and ReaderMode override the stimulus modes of a scenario.
	WriterMode *driver.Mode
	ReaderMode *driver.Mode

	// SCCBDivider is the number of clock cycles per quarter SCCB bit.
	SCCBDivider int

	// FrameWidth and FrameHeight shrink the camera frame. VGA is used when
	// they are zero.
	FrameWidth  int
	FrameHeight int

	// Engine runs the simulation. A serial engine is used if it is nil.
	Engine timing.Engine
}

func (o Options) rng() *rand.Rand {
	return rand.New(rand.NewSource(o.Seed))
}

func (o Options) checks() scoreboard.Options {
	return scoreboard.Options{
		Strict:   o.Strict,
		Verbose:  o.Verbose,
		Reporter: o.Reporter,
	}
}

func (o Options) kernel() *sim.Kernel {
	k := sim.MakeBuilder().
		WithEngine(o.Engine).
		WithLogger(o.Logger).
		Build()

	if o.TraceSignals && o.Logger != nil {
		k.AcceptHook(sim.NewSignalLogger(o.Logger))
	}

	return k
}

func (o Options) cycles(def int) int {
	if o.Cycles > 0 {
		return o.Cycles
	}

	return def
}

func (o Options) writerMode(def driver.Mode) driver.Mode {
	if o.WriterMode != nil {
		return *o.WriterMode
	}

	return def
}

func (o Options) readerMode(def driver.Mode) driver.Mode {
	if o.ReaderMode != nil {
		return *o.ReaderMode
	}

	return def
}

func (o Options) outputDir() string {
	if o.OutputDir != "" {
		return o.OutputDir
	}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	return dir
}

// NewStdLogger creates the logger the command line tool uses.
func NewStdLogger() *log.Logger {
	return log.New(os.Stderr, "", log.Lmicroseconds)
}
