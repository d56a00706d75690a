package monitoring

import (
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/hwverify/scoreboard"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

type progressSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

func newProgressBar(name string, total uint64) *ProgressBar {
	return &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}
}

func (b *ProgressBar) snapshot() progressSnapshot {
	b.Lock()
	defer b.Unlock()

	return progressSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

// Progress returns the finished and in-progress counts.
func (b *ProgressBar) Progress() (finished, inProgress uint64) {
	b.Lock()
	defer b.Unlock()

	return b.Finished, b.InProgress
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// CheckProgress counts comparisons into progress bars and passes them on.
// Matches finish on the checks bar, mismatches on the errors bar.
type CheckProgress struct {
	Checks *ProgressBar
	Errors *ProgressBar
	Next   scoreboard.Reporter
}

// NewCheckProgress creates the two bars in the monitor.
func NewCheckProgress(m *Monitor, next scoreboard.Reporter) *CheckProgress {
	return &CheckProgress{
		Checks: m.CreateProgressBar("checks", 0),
		Errors: m.CreateProgressBar("mismatches", 0),
		Next:   next,
	}
}

// Report counts a comparison.
func (p *CheckProgress) Report(r scoreboard.CheckRecord) {
	p.Checks.IncrementFinished(1)
	if !r.Match {
		p.Errors.IncrementFinished(1)
	}

	if p.Next != nil {
		p.Next.Report(r)
	}
}
