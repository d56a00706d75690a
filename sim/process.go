package sim

// A Process is a state machine resumed by the kernel.
//
// Step is called with the trigger that fired, or nil on the first step, and
// returns the next trigger to wait on. Returning nil finishes the process.
type Process interface {
	Step(fired Trigger) Trigger
}

// ProcessFunc adapts a function to the Process interface.
type ProcessFunc func(fired Trigger) Trigger

// Step calls f(fired).
func (f ProcessFunc) Step(fired Trigger) Trigger {
	return f(fired)
}

// A Task is a process spawned on a kernel.
type Task struct {
	kernel *Kernel
	name   string
	proc   Process

	gen    uint64
	done   bool
	killed bool

	onDone []func()
}

type waiter struct {
	task    *Task
	gen     uint64
	trigger Trigger
}

func (w waiter) stale() bool {
	return w.task.done || w.gen != w.task.gen
}

type edgeWaiter struct {
	waiter
	edge *EdgeTrigger
}

// Name returns the name given at spawn time.
func (t *Task) Name() string {
	return t.name
}

// Done returns true once the process finished or was killed.
func (t *Task) Done() bool {
	return t.done
}

// Killed returns true if the task was killed.
func (t *Task) Killed() bool {
	return t.killed
}

// Kill cancels the task immediately. Triggers it waits on are discarded.
// Killing a finished task does nothing.
func (t *Task) Kill() {
	if t.done {
		return
	}

	t.killed = true
	t.finish()
}

func (t *Task) finish() {
	t.done = true
	t.gen++

	callbacks := t.onDone
	t.onDone = nil
	for _, f := range callbacks {
		f()
	}
}

func (t *Task) whenDone(f func()) {
	if t.done {
		f()
		return
	}

	t.onDone = append(t.onDone, f)
}

func (t *Task) resume(fired Trigger) {
	next := t.proc.Step(fired)
	if t.done {
		return
	}

	if next == nil {
		t.finish()
		return
	}

	next.arm(t.kernel, waiter{task: t, gen: t.gen})
}
