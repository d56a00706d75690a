package tracing

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// ErrFileExists is returned when a trace would overwrite a file.
var ErrFileExists = errors.New("file already exists")

// CSVTraceWriter stores entries into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File
	csv  *csv.Writer

	entries    []Entry
	bufferSize int
}

// NewCSVTraceWriter creates <path>.csv and writes the header. A random name
// is used if path is empty.
func NewCSVTraceWriter(path string) (*CSVTraceWriter, error) {
	if path == "" {
		path = "hwverify_trace_" + xid.New().String()
	}

	filename := path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Wrapf(ErrFileExists, "%s", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", filename)
	}

	t := &CSVTraceWriter{
		path:       filename,
		file:       file,
		csv:        csv.NewWriter(file),
		bufferSize: 1000,
	}

	err = t.csv.Write([]string{"ID", "Queue", "Kind", "Time", "What"})
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "writing header")
	}

	return t, nil
}

// Path returns the name of the file.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Write buffers an entry.
func (t *CSVTraceWriter) Write(e Entry) error {
	t.entries = append(t.entries, e)
	if len(t.entries) >= t.bufferSize {
		return t.Flush()
	}

	return nil
}

// Flush writes the buffered entries to the file.
func (t *CSVTraceWriter) Flush() error {
	for _, e := range t.entries {
		err := t.csv.Write([]string{
			e.ID,
			e.Queue,
			e.Kind,
			strconv.FormatUint(e.Time, 10),
			e.What,
		})
		if err != nil {
			return errors.Wrapf(err, "writing %s", t.path)
		}
	}

	t.entries = nil
	t.csv.Flush()

	return t.csv.Error()
}

// Close flushes and closes the file.
func (t *CSVTraceWriter) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}

	return t.file.Close()
}
