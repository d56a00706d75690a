package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecInfoTable is the table that describes the recorded run.
const ExecInfoTable = "exec_info"

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is a property of a run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how a run was started and when it ended.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) (*ExecRecorder, error) {
	if err := recorder.CreateTable(ExecInfoTable, ExecInfo{}); err != nil {
		return nil, err
	}

	return &ExecRecorder{recorder: recorder}, nil
}

// Start records the start time, the command line and the working directory
// followed by the given properties.
func (e *ExecRecorder) Start(props ...ExecInfo) {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(timeLayout)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if ex, err := os.Executable(); err == nil {
		e.entries = append(e.entries,
			ExecInfo{"Working Directory", filepath.Dir(ex)})
	}

	e.entries = append(e.entries, props...)
}

// End writes the recorded properties, the given results and the end time.
func (e *ExecRecorder) End(results ...ExecInfo) error {
	e.entries = append(e.entries, results...)
	e.entries = append(e.entries,
		ExecInfo{"End Time", time.Now().Format(timeLayout)})

	for _, entry := range e.entries {
		if err := e.recorder.InsertData(ExecInfoTable, entry); err != nil {
			return err
		}
	}

	e.entries = nil

	return e.recorder.Flush()
}
