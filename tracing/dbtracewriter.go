package tracing

import "github.com/sarchlab/hwverify/datarecording"

// TraceTable is the table that holds queue entries.
const TraceTable = "queue_trace"

// DBTraceWriter stores entries into a recording.
type DBTraceWriter struct {
	recorder datarecording.DataRecorder
}

// NewDBTraceWriter creates the trace table.
func NewDBTraceWriter(r datarecording.DataRecorder) (*DBTraceWriter, error) {
	if err := r.CreateTable(TraceTable, Entry{}); err != nil {
		return nil, err
	}

	return &DBTraceWriter{recorder: r}, nil
}

// Write buffers an entry in the recorder.
func (t *DBTraceWriter) Write(e Entry) error {
	return t.recorder.InsertData(TraceTable, e)
}

// Flush flushes the recorder.
func (t *DBTraceWriter) Flush() error {
	return t.recorder.Flush()
}
