package sim

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/instrumentation/hooking"
)

// HookPosQueuePut marks when an element is put into a queue.
var HookPosQueuePut = &hooking.HookPos{Name: "Queue Put"}

// HookPosQueueGet marks when an element is taken from a queue.
var HookPosQueueGet = &hooking.HookPos{Name: "Queue Get"}

// ErrQueueFull is returned when putting into a full bounded queue.
var ErrQueueFull = errors.New("queue full")

// A Queue is an insertion-ordered FIFO shared between processes.
//
// Put never blocks. Consumers suspend on NotEmpty and take elements with
// TryGet. A Put wakes the waiting consumers in the next delta cycle, so a
// producer and a consumer resumed by the same edge see the element in
// producer-then-consumer order.
type Queue[T any] struct {
	*hooking.HookableBase

	name     string
	capacity int
	elements []T
	notify   *notifier
}

// NewQueue creates a queue. A capacity of 0 makes the queue unbounded.
func NewQueue[T any](k *Kernel, name string, capacity int) *Queue[T] {
	q := &Queue[T]{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		capacity:     capacity,
	}

	q.notify = &notifier{
		kernel: k,
		ready:  func() bool { return len(q.elements) > 0 },
	}

	return q
}

// Name returns the name of the queue.
func (q *Queue[T]) Name() string {
	return q.name
}

// Capacity returns the maximum number of elements, or 0 if unbounded.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Size returns the number of elements in the queue.
func (q *Queue[T]) Size() int {
	return len(q.elements)
}

// Empty returns true if the queue holds no element.
func (q *Queue[T]) Empty() bool {
	return len(q.elements) == 0
}

// Full returns true if a bounded queue is at capacity.
func (q *Queue[T]) Full() bool {
	return q.capacity > 0 && len(q.elements) >= q.capacity
}

// Put appends an element at the tail of the queue.
func (q *Queue[T]) Put(e T) error {
	if q.Full() {
		return errors.Wrapf(ErrQueueFull, "%s (capacity %d)", q.name, q.capacity)
	}

	q.elements = append(q.elements, e)

	if q.NumHooks() > 0 {
		q.InvokeHook(hooking.HookCtx{
			Domain: q,
			Pos:    HookPosQueuePut,
			Item:   e,
		})
	}

	q.notify.notify()

	return nil
}

// TryGet removes and returns the head element. The bool is false if the
// queue is empty.
func (q *Queue[T]) TryGet() (T, bool) {
	var zero T
	if len(q.elements) == 0 {
		return zero, false
	}

	e := q.elements[0]
	q.elements[0] = zero
	q.elements = q.elements[1:]

	if q.NumHooks() > 0 {
		q.InvokeHook(hooking.HookCtx{
			Domain: q,
			Pos:    HookPosQueueGet,
			Item:   e,
		})
	}

	return e, true
}

// Peek returns the head element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.elements) == 0 {
		var zero T
		return zero, false
	}

	return q.elements[0], true
}

// Items returns a copy of the elements, head first.
func (q *Queue[T]) Items() []T {
	items := make([]T, len(q.elements))
	copy(items, q.elements)

	return items
}

// Clear drops every element.
func (q *Queue[T]) Clear() {
	q.elements = nil
}

// NotEmpty returns a trigger that fires once the queue holds an element. If
// the queue already holds one, the waiting process resumes in the next delta
// cycle.
func (q *Queue[T]) NotEmpty() *QueueTrigger {
	return &QueueTrigger{notify: q.notify}
}
