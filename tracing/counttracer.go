package tracing

import "sync"

// CountTracer counts entries per queue and kind.
type CountTracer struct {
	lock   sync.Mutex
	counts map[string]map[string]uint64
}

// NewCountTracer creates an empty counter.
func NewCountTracer() *CountTracer {
	return &CountTracer{counts: make(map[string]map[string]uint64)}
}

// Write counts an entry.
func (t *CountTracer) Write(e Entry) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	byKind, ok := t.counts[e.Queue]
	if !ok {
		byKind = make(map[string]uint64)
		t.counts[e.Queue] = byKind
	}

	byKind[e.Kind]++

	return nil
}

// Flush does nothing.
func (t *CountTracer) Flush() error {
	return nil
}

// Count returns the number of entries of a kind seen on a queue.
func (t *CountTracer) Count(queue, kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[queue][kind]
}
