package scoreboard

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/monitor"
	"github.com/sarchlab/hwverify/sim"
)

// FieldValues extracts one field of each transaction.
func FieldValues(ts []monitor.Transaction, field string) []uint64 {
	values := make([]uint64, 0, len(ts))
	for _, t := range ts {
		v, _ := t.Value(field)
		values = append(values, v)
	}

	return values
}

// A ReadPathChecker compares the words a memory reader outputs against the
// words seeded in memory before the test. It stops consuming once every
// seeded word was checked.
type ReadPathChecker struct {
	sim.Lifecycle

	kernel *sim.Kernel
	dut    *sim.Queue[monitor.Transaction]
	field  string
	truth  []uint64
	cmp    *Comparator
	task   *sim.Task

	counters Counters
}

// NewReadPathChecker creates a read path checker over the seeded words.
func NewReadPathChecker(
	k *sim.Kernel,
	name string,
	dut *sim.Queue[monitor.Transaction],
	field string,
	truth []uint64,
	options Options,
) *ReadPathChecker {
	copied := make([]uint64, len(truth))
	copy(copied, truth)

	return &ReadPathChecker{
		Lifecycle: sim.MakeLifecycle(name),
		kernel:    k,
		dut:       dut,
		field:     field,
		truth:     copied,
		cmp:       NewComparator(k, name, options),
	}
}

// Counters returns the number of checked words and errors.
func (c *ReadPathChecker) Counters() Counters {
	return c.counters
}

// Remaining returns how many seeded words are not checked yet.
func (c *ReadPathChecker) Remaining() int {
	return len(c.truth)
}

// Task returns the checking task. It finishes when the seeded words are
// exhausted.
func (c *ReadPathChecker) Task() *sim.Task {
	return c.task
}

// Start spawns the checking task.
func (c *ReadPathChecker) Start() error {
	if err := c.BeginStart(); err != nil {
		return err
	}

	c.task = c.kernel.Spawn(c.Name(), sim.ProcessFunc(c.step))

	return nil
}

// Stop kills the checking task if it is still running.
func (c *ReadPathChecker) Stop() error {
	if err := c.BeginStop(); err != nil {
		return err
	}

	c.task.Kill()

	return nil
}

func (c *ReadPathChecker) step(sim.Trigger) sim.Trigger {
	for len(c.truth) > 0 {
		t, ok := c.dut.TryGet()
		if !ok {
			return c.dut.NotEmpty()
		}

		expected := c.truth[0]
		c.truth = c.truth[1:]

		actual, _ := t.Value(c.field)
		if !c.cmp.Check("rd data", expected, actual) {
			c.counters.Errors++
		}
		c.counters.Checked++
	}

	return nil
}

// A WordReader reads words back from a memory model.
type WordReader interface {
	ReadWords(
		base uint64,
		count int,
		order binary.ByteOrder,
		wordSize int,
	) ([]uint64, error)
}

// WritePathConfig configures a WritePathChecker.
type WritePathConfig struct {
	Memory   WordReader
	Base     uint64
	WordSize int
	Order    binary.ByteOrder

	// OutputDir receives dut_mem_data.txt and ref_mem_data.txt on a
	// mismatch.
	OutputDir string
}

// A WritePathChecker compares the words a memory writer stored against
// every word the driver issued, once at the end of the test.
type WritePathChecker struct {
	name   string
	kernel *sim.Kernel
	cfg    WritePathConfig
	cmp    *Comparator

	counters Counters
}

// Names of the files written on a write path mismatch.
const (
	DUTMemFile = "dut_mem_data.txt"
	RefMemFile = "ref_mem_data.txt"
)

// NewWritePathChecker creates a write path checker.
func NewWritePathChecker(
	k *sim.Kernel,
	name string,
	cfg WritePathConfig,
	options Options,
) *WritePathChecker {
	if cfg.Order == nil {
		cfg.Order = binary.LittleEndian
	}

	return &WritePathChecker{
		name:   name,
		kernel: k,
		cfg:    cfg,
		cmp:    NewComparator(k, name, options),
	}
}

// Name returns the name of the checker.
func (c *WritePathChecker) Name() string {
	return c.name
}

// Counters returns the number of compared words and mismatching words.
func (c *WritePathChecker) Counters() Counters {
	return c.counters
}

// Check reads back len(ref) words and compares them list for list. It
// returns false on a mismatch, after dumping both lists into the output
// directory.
func (c *WritePathChecker) Check(ref []uint64) (bool, error) {
	dut, err := c.cfg.Memory.ReadWords(
		c.cfg.Base, len(ref), c.cfg.Order, c.cfg.WordSize)
	if err != nil {
		return false, errors.Wrap(err, "reading back memory")
	}

	c.counters = Counters{Checked: len(ref)}
	for i := range ref {
		if dut[i] != ref[i] {
			c.counters.Errors++
		}
	}

	if c.counters.Errors == 0 {
		c.kernel.Logger().Printf("End of sim memory check PASSED")
		return true, nil
	}

	if err := c.dump(dut, ref); err != nil {
		return false, err
	}

	c.cmp.Assert("memory", false, fmt.Sprintf(
		"End of sim memory check FAILED, %d of %d words differ",
		c.counters.Errors, c.counters.Checked))

	return false, nil
}

func (c *WritePathChecker) dump(dut, ref []uint64) error {
	dir := c.cfg.OutputDir
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	if err := writeValues(filepath.Join(dir, DUTMemFile), dut); err != nil {
		return err
	}

	return writeValues(filepath.Join(dir, RefMemFile), ref)
}

func writeValues(path string, values []uint64) error {
	var sb strings.Builder
	for _, v := range values {
		fmt.Fprintf(&sb, "%d\n", v)
	}

	err := os.WriteFile(path, []byte(sb.String()), 0o644)

	return errors.Wrapf(err, "writing %s", path)
}
