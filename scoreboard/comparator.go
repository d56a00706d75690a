// Package scoreboard checks observed DUT behavior against reference models.
//
// Mismatches are counted and logged, and the bench turns the counters into a
// verdict at the end of the test. In strict mode the first mismatch fails the
// simulation instead.
package scoreboard

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// Counters are the results of a checker.
type Counters struct {
	Checked int
	Errors  int
}

// A CheckRecord describes one comparison.
type CheckRecord struct {
	Checker  string
	Label    string
	Time     timing.VTimeInCycle
	Expected uint64
	Actual   uint64
	Match    bool
}

// A Reporter receives every comparison made by a checker.
type Reporter interface {
	Report(r CheckRecord)
}

// Options are shared by all checkers.
type Options struct {
	// Strict fails the simulation at the first mismatch.
	Strict bool

	// Verbose logs matches as well as mismatches.
	Verbose bool

	// Reporter, if set, receives every comparison.
	Reporter Reporter
}

// A Comparator compares expected and actual values and logs the outcome.
type Comparator struct {
	name    string
	kernel  *sim.Kernel
	options Options
}

// NewComparator creates a comparator for the named checker.
func NewComparator(k *sim.Kernel, name string, options Options) *Comparator {
	return &Comparator{name: name, kernel: k, options: options}
}

// Check compares one value and returns true if it matches.
func (c *Comparator) Check(label string, expected, actual uint64) bool {
	match := expected == actual
	c.report(label, expected, actual, match)

	if match {
		if c.options.Verbose {
			c.kernel.Logger().Printf("Data match, got %d - %s", actual, label)
		}

		return true
	}

	c.Fail(errors.Errorf("MISMATCH: got %d, expected %d - %s",
		actual, expected, label))

	return false
}

// Assert records a boolean check that is not a data comparison.
func (c *Comparator) Assert(label string, ok bool, msg string) bool {
	c.report(label, 1, boolValue(ok), ok)

	if !ok {
		c.Fail(errors.New(msg))
	}

	return ok
}

// Fail logs a checking error. In strict mode it also fails the simulation.
func (c *Comparator) Fail(err error) {
	c.kernel.Logger().Printf("ERROR @%d: %s: %v", c.kernel.Now(), c.name, err)

	if c.options.Strict {
		c.kernel.Fail(errors.Wrap(err, c.name))
	}
}

func (c *Comparator) report(label string, expected, actual uint64, match bool) {
	if c.options.Reporter == nil {
		return
	}

	c.options.Reporter.Report(CheckRecord{
		Checker:  c.name,
		Label:    label,
		Time:     c.kernel.Now(),
		Expected: expected,
		Actual:   actual,
		Match:    match,
	})
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}
