// Package tracing records the transactions that flow through queues, such as
// the values of monitors and the contents of reference models.
package tracing

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/hwverify/instrumentation/hooking"
	"github.com/sarchlab/hwverify/sim"
)

// Entry kinds.
const (
	KindPut = "put"
	KindGet = "get"
)

// An Entry is one element entering or leaving a queue.
type Entry struct {
	ID    string
	Queue string
	Kind  string
	Time  uint64
	What  string
}

// A Writer stores trace entries.
type Writer interface {
	Write(e Entry) error
	Flush() error
}

// A QueueTracer turns queue hooks into entries for a writer.
type QueueTracer struct {
	kernel *sim.Kernel
	writer Writer
	gets   bool
	err    error
}

// NewQueueTracer creates a tracer. Gets are traced only if traceGets is set.
func NewQueueTracer(k *sim.Kernel, w Writer, traceGets bool) *QueueTracer {
	return &QueueTracer{kernel: k, writer: w, gets: traceGets}
}

// Trace attaches the tracer to a queue.
func (t *QueueTracer) Trace(q hooking.Hookable) {
	q.AcceptHook(t)
}

// Func records the element of a put or get hook.
func (t *QueueTracer) Func(ctx hooking.HookCtx) {
	var kind string

	switch ctx.Pos {
	case sim.HookPosQueuePut:
		kind = KindPut
	case sim.HookPosQueueGet:
		if !t.gets {
			return
		}

		kind = KindGet
	default:
		return
	}

	if t.err != nil {
		return
	}

	t.err = t.writer.Write(Entry{
		ID:    xid.New().String(),
		Queue: nameOf(ctx.Domain),
		Kind:  kind,
		Time:  uint64(t.kernel.Now()),
		What:  fmt.Sprint(ctx.Item),
	})
}

// Err returns the first write error.
func (t *QueueTracer) Err() error {
	return t.err
}

// Flush flushes the writer.
func (t *QueueTracer) Flush() error {
	if t.err != nil {
		return t.err
	}

	return t.writer.Flush()
}

func nameOf(d hooking.Hookable) string {
	if n, ok := d.(sim.Named); ok {
		return n.Name()
	}

	return fmt.Sprintf("%T", d)
}
