package datarecording

import (
	"github.com/rs/xid"
	"github.com/sarchlab/hwverify/scoreboard"
)

// CheckTable is the table of comparisons.
const CheckTable = "checks"

// A CheckEntry is one comparison of a checker.
type CheckEntry struct {
	RunID    string
	Checker  string
	Label    string
	Time     uint64
	Expected uint64
	Actual   uint64
	Match    bool
}

// A CheckRecorder stores every comparison it receives. It is a
// scoreboard.Reporter. Errors are kept and returned by Err, since reports
// cannot fail.
type CheckRecorder struct {
	recorder DataRecorder
	runID    string
	count    int
	err      error
}

// NewCheckRecorder creates the checks table. A random run ID is used if
// runID is empty.
func NewCheckRecorder(recorder DataRecorder, runID string) (*CheckRecorder, error) {
	if runID == "" {
		runID = xid.New().String()
	}

	if err := recorder.CreateTable(CheckTable, CheckEntry{}); err != nil {
		return nil, err
	}

	return &CheckRecorder{recorder: recorder, runID: runID}, nil
}

// RunID returns the ID that tags every entry.
func (c *CheckRecorder) RunID() string {
	return c.runID
}

// Count returns the number of recorded comparisons.
func (c *CheckRecorder) Count() int {
	return c.count
}

// Report buffers a comparison.
func (c *CheckRecorder) Report(r scoreboard.CheckRecord) {
	if c.err != nil {
		return
	}

	c.err = c.recorder.InsertData(CheckTable, CheckEntry{
		RunID:    c.runID,
		Checker:  r.Checker,
		Label:    r.Label,
		Time:     uint64(r.Time),
		Expected: r.Expected,
		Actual:   r.Actual,
		Match:    r.Match,
	})
	if c.err == nil {
		c.count++
	}
}

// Err returns the first error met while recording.
func (c *CheckRecorder) Err() error {
	return c.err
}
