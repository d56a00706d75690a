package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/bench"
	"github.com/sarchlab/hwverify/config"
	"github.com/sarchlab/hwverify/datarecording"
	"github.com/sarchlab/hwverify/driver"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/monitoring"
	"github.com/sarchlab/hwverify/scoreboard"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/tracing"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrFailed is returned when a scenario ends with failures.
var ErrFailed = errors.New("verification failed")

type runFlags struct {
	envFiles    []string
	scenario    string
	seed        int64
	strict      bool
	verbose     bool
	trace       bool
	traceQueues bool
	cycles      int
	writerMode  driver.Mode
	readerMode  driver.Mode
	outputDir   string
	record      string
	monitor     bool
	monitorPort int
	openBrowser bool
	divider     int
	frameWidth  int
	frameHeight int

	monitorAssets string
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <bench>",
		Short: "Run a scenario of a bench.",
		Long: "Run a scenario of a bench. Benches: " +
			strings.Join(bench.Names(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: bench.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.envFiles...)
			if err != nil {
				return err
			}

			f.applyConfig(cmd, cfg)

			return f.run(cmd, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&f.envFiles, "env", nil,
		".env files to load, .env by default")
	fl.StringVarP(&f.scenario, "scenario", "s", "random", "scenario to run")
	fl.Int64Var(&f.seed, "seed", 1, "seed of the random stimulus")
	fl.BoolVar(&f.strict, "strict", false, "stop at the first mismatch")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every comparison")
	fl.BoolVar(&f.trace, "trace", false, "log every signal change")
	fl.BoolVar(&f.traceQueues, "trace-queues", false,
		"trace every monitored transaction, into the recording if there is one")
	fl.IntVar(&f.cycles, "cycles", 0,
		"length of the main phase in clock cycles, 0 for the default")
	fl.Var(&f.writerMode, "writer-mode", "writer pacing, full or random")
	fl.Var(&f.readerMode, "reader-mode", "reader pacing, full or random")
	fl.StringVarP(&f.outputDir, "out", "o", "", "directory of the outputs")
	fl.StringVar(&f.record, "record", "",
		"record every comparison into <out>/<record>.sqlite3")
	fl.BoolVar(&f.monitor, "monitor", false, "serve the monitoring page")
	fl.IntVar(&f.monitorPort, "monitor-port", config.DefaultMonitorPort,
		"port of the monitoring page, 0 for any")
	fl.BoolVar(&f.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	fl.StringVar(&f.monitorAssets, "monitor-assets", "",
		"serve the monitoring page from this directory")
	fl.IntVar(&f.divider, "sccb-divider", 0,
		"clock cycles per quarter SCCB bit, 0 for the default")
	fl.IntVar(&f.frameWidth, "frame-width", 0, "camera frame width")
	fl.IntVar(&f.frameHeight, "frame-height", 0, "camera frame height")

	return cmd
}

// applyConfig takes the configured values of the flags that were not given.
func (f *runFlags) applyConfig(cmd *cobra.Command, cfg config.Config) {
	changed := cmd.Flags().Changed

	if !changed("seed") {
		f.seed = cfg.Seed
	}

	if !changed("strict") {
		f.strict = cfg.Strict
	}

	if !changed("verbose") {
		f.verbose = cfg.Verbose
	}

	if !changed("out") {
		f.outputDir = cfg.OutputDir
	}

	if !changed("record") {
		f.record = cfg.Record
	}

	if !changed("monitor") {
		f.monitor = cfg.Monitor
	}

	if !changed("monitor-port") {
		f.monitorPort = cfg.MonitorPort
	}

	if !changed("open-browser") {
		f.openBrowser = cfg.OpenBrowser
	}

	if !changed("monitor-assets") {
		f.monitorAssets = cfg.MonitorAssets
	}
}

func (f *runFlags) options(cmd *cobra.Command) bench.Options {
	o := bench.Options{
		Seed:         f.seed,
		Strict:       f.strict,
		Verbose:      f.verbose,
		Logger:       bench.NewStdLogger(),
		TraceSignals: f.trace,
		OutputDir:    f.outputDir,
		Cycles:       f.cycles,
		SCCBDivider:  f.divider,
		FrameWidth:   f.frameWidth,
		FrameHeight:  f.frameHeight,
	}

	if cmd.Flags().Changed("writer-mode") {
		m := f.writerMode
		o.WriterMode = &m
	}

	if cmd.Flags().Changed("reader-mode") {
		m := f.readerMode
		o.ReaderMode = &m
	}

	return o
}

func (f *runFlags) run(cmd *cobra.Command, name string) error {
	o := f.options(cmd)
	out := cmd.OutOrStdout()

	var (
		reporter scoreboard.Reporter
		exec     *datarecording.ExecRecorder
		checks   *datarecording.CheckRecorder
		recorder datarecording.DataRecorder
	)

	if f.record != "" {
		var err error

		recorder, exec, checks, err = f.startRecording(name)
		if err != nil {
			return err
		}
		defer recorder.Close()

		reporter = checks
	}

	var mon *monitoring.Monitor
	if f.monitor {
		mon = monitoring.NewMonitor().
			WithPortNumber(f.monitorPort).
			WithAssetDir(f.monitorAssets)
		reporter = monitoring.NewCheckProgress(mon, reporter)
	}

	o.Reporter = reporter

	b, err := bench.New(name, o)
	if err != nil {
		return err
	}

	if mon != nil {
		if err := f.startMonitor(mon, b); err != nil {
			return err
		}
		defer mon.StopServer()
	}

	var tracer *tracing.QueueTracer
	if f.traceQueues {
		var closeTrace func() error

		tracer, closeTrace, err = f.startTracing(name, b, recorder)
		if err != nil {
			return err
		}
		defer closeTrace()
	}

	stopProgress := showProgress(cmd.ErrOrStderr(), b)
	v, runErr := b.Run(f.scenario)
	stopProgress()

	if tracer != nil {
		if err := tracer.Flush(); err != nil {
			return err
		}
	}

	if checks != nil && checks.Err() != nil {
		return checks.Err()
	}

	if exec != nil {
		err := exec.End(
			datarecording.ExecInfo{Property: "Verdict", Value: verdictWord(v, runErr)},
			datarecording.ExecInfo{Property: "Checked",
				Value: strconv.Itoa(v.Transactions.Checked)},
			datarecording.ExecInfo{Property: "Errors",
				Value: strconv.Itoa(v.Transactions.Errors)},
		)
		if err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}

	printVerdict(out, name, f.scenario, v)

	if !v.Passed() {
		return errors.Wrapf(ErrFailed, "%s %s", name, f.scenario)
	}

	return nil
}

func (f *runFlags) startRecording(name string) (
	datarecording.DataRecorder,
	*datarecording.ExecRecorder,
	*datarecording.CheckRecorder,
	error,
) {
	path := f.record
	if f.outputDir != "" {
		if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
			return nil, nil, nil, errors.Wrap(err, "creating output directory")
		}

		path = filepath.Join(f.outputDir, f.record)
	}

	recorder, err := datarecording.NewSQLiteRecorder(path)
	if err != nil {
		return nil, nil, nil, err
	}

	exec, err := datarecording.NewExecRecorder(recorder)
	if err != nil {
		recorder.Close()
		return nil, nil, nil, err
	}

	checks, err := datarecording.NewCheckRecorder(recorder, "")
	if err != nil {
		recorder.Close()
		return nil, nil, nil, err
	}

	exec.Start(
		datarecording.ExecInfo{Property: "Run ID", Value: checks.RunID()},
		datarecording.ExecInfo{Property: "Bench", Value: name},
		datarecording.ExecInfo{Property: "Scenario", Value: f.scenario},
		datarecording.ExecInfo{Property: "Seed",
			Value: strconv.FormatInt(f.seed, 10)},
	)

	return recorder, exec, checks, nil
}

// valueQueue is a component that puts its transactions into a queue.
type valueQueue interface {
	Values() *sim.Queue[monitor.Transaction]
}

// startTracing traces the value queues of the monitors of a bench into the
// recording, or into a CSV file if nothing is recorded.
func (f *runFlags) startTracing(
	name string,
	b bench.Bench,
	recorder datarecording.DataRecorder,
) (*tracing.QueueTracer, func() error, error) {
	var (
		w       tracing.Writer
		closeFn = func() error { return nil }
	)

	if recorder != nil {
		dbw, err := tracing.NewDBTraceWriter(recorder)
		if err != nil {
			return nil, nil, err
		}

		w = dbw
	} else {
		path := name + "_" + f.scenario + "_trace"
		if f.outputDir != "" {
			if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
				return nil, nil, errors.Wrap(err, "creating output directory")
			}

			path = filepath.Join(f.outputDir, path)
		}

		csvw, err := tracing.NewCSVTraceWriter(path)
		if err != nil {
			return nil, nil, err
		}

		w, closeFn = csvw, csvw.Close
	}

	h := b.Harness()
	tracer := tracing.NewQueueTracer(h.Kernel(), w, false)

	for _, c := range h.Components() {
		if vq, ok := c.(valueQueue); ok {
			tracer.Trace(vq.Values())
		}
	}

	return tracer, closeFn, nil
}

func (f *runFlags) startMonitor(mon *monitoring.Monitor, b bench.Bench) error {
	h := b.Harness()
	mon.RegisterEngine(h.Kernel().Engine())

	for _, c := range h.Components() {
		mon.RegisterComponent(c)
	}

	url, err := mon.StartServer()
	if err != nil {
		return err
	}

	if f.openBrowser {
		return monitoring.OpenBrowser(url)
	}

	return nil
}

// showProgress prints the simulated time on a terminal until the returned
// function is called.
func showProgress(w io.Writer, b bench.Bench) func() {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return func() {}
	}

	engine := b.Harness().Kernel().Engine()
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				fmt.Fprint(file, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(file, "\r\033[K%s: t=%d",
					b.Harness().Name(), engine.CurrentTime())
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func verdictWord(v bench.Verdict, err error) string {
	switch {
	case err != nil:
		return "ERROR"
	case v.Passed():
		return "PASS"
	default:
		return "FAIL"
	}
}

func printVerdict(w io.Writer, name, scenario string, v bench.Verdict) {
	fmt.Fprintf(w, "%s %s: %s, %d transactions checked, %d errors\n",
		name, scenario, verdictWord(v, nil),
		v.Transactions.Checked, v.Transactions.Errors)

	for _, msg := range v.Failures {
		fmt.Fprintln(w, msg)
	}
}
