// Package sim is an event-driven simulation kernel for verification benches.
//
// Monitors, drivers and checkers are processes: state machines that the
// kernel resumes when the trigger they wait on fires. Every time step is
// settled in delta cycles. Within one delta cycle, all resumed processes
// observe the same signal values, and their writes become visible together at
// the end of the delta cycle.
package sim

import (
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/instrumentation/hooking"
	"github.com/sarchlab/hwverify/timing"
)

// HookPosSignalCommit fires for every committed signal change. Item is the
// signal and Detail is a SignalChange.
var HookPosSignalCommit = &hooking.HookPos{Name: "SignalCommit"}

// HookPosTaskFinish fires when a task finishes or is killed.
var HookPosTaskFinish = &hooking.HookPos{Name: "TaskFinish"}

// ErrNeverFinishes is returned by RunUntilDone when the simulation runs out
// of events before the awaited tasks finish.
var ErrNeverFinishes = errors.New("sim: simulation ended before the tasks finished")

const maxDeltaCycles = 10000

type phase int

const (
	phaseIdle phase = iota
	phaseEvaluate
	phaseReadOnly
)

// A Kernel owns the signals and tasks of one simulation.
type Kernel struct {
	*hooking.HookableBase

	engine     timing.Engine
	resolution timing.TimeUnit
	logger     *log.Logger

	signals []*Signal
	pending []*Signal

	runnable        []waiter
	readOnlyWaiters []waiter

	phase         phase
	settlePending bool
	inSettle      bool

	failure error
}

// Builder builds kernels.
type Builder struct {
	engine     timing.Engine
	resolution timing.TimeUnit
	logger     *log.Logger
}

// MakeBuilder creates a builder with a serial engine, a 1 ps resolution and
// a discarding logger.
func MakeBuilder() Builder {
	return Builder{
		resolution: timing.PS,
	}
}

// WithEngine sets the engine that drives the kernel.
func (b Builder) WithEngine(e timing.Engine) Builder {
	b.engine = e
	return b
}

// WithResolution sets the duration of one step.
func (b Builder) WithResolution(u timing.TimeUnit) Builder {
	b.resolution = u
	return b
}

// WithLogger sets the logger that the kernel and its components log into.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the kernel.
func (b Builder) Build() *Kernel {
	k := &Kernel{
		HookableBase: hooking.NewHookableBase(),
		engine:       b.engine,
		resolution:   b.resolution,
		logger:       b.logger,
	}

	if k.engine == nil {
		k.engine = timing.NewSerialEngine()
	}

	if k.logger == nil {
		k.logger = log.New(io.Discard, "", 0)
	}

	return k
}

// Engine returns the engine driving the kernel.
func (k *Kernel) Engine() timing.Engine {
	return k.engine
}

// Logger returns the logger of the kernel.
func (k *Kernel) Logger() *log.Logger {
	return k.logger
}

// Resolution returns the duration of one step.
func (k *Kernel) Resolution() timing.TimeUnit {
	return k.resolution
}

// Now returns the current time in steps.
func (k *Kernel) Now() timing.VTimeInCycle {
	return k.engine.CurrentTime()
}

// Steps converts a duration into steps.
func (k *Kernel) Steps(value float64, unit timing.TimeUnit) (timing.VTimeInCycle, error) {
	return timing.Steps(value, unit, k.resolution)
}

// MustSteps converts a duration into steps and panics if the duration is
// not representable.
func (k *Kernel) MustSteps(value float64, unit timing.TimeUnit) timing.VTimeInCycle {
	steps, err := k.Steps(value, unit)
	if err != nil {
		panic(err)
	}

	return steps
}

// NewSignal creates an unknown signal of the given width.
func (k *Kernel) NewSignal(name string, width int) *Signal {
	if width < 1 || width > 64 {
		panic(fmt.Sprintf("sim: signal %s has invalid width %d", name, width))
	}

	s := &Signal{kernel: k, name: name, width: width}
	k.signals = append(k.signals, s)

	return s
}

// Signals returns all signals created by the kernel.
func (k *Kernel) Signals() []*Signal {
	return k.signals
}

// Spawn starts a process. Its first step runs in the next delta cycle of the
// current time.
func (k *Kernel) Spawn(name string, p Process) *Task {
	t := &Task{kernel: k, name: name, proc: p}
	t.whenDone(func() {
		if k.NumHooks() > 0 {
			k.InvokeHook(hooking.HookCtx{
				Domain: k,
				Pos:    HookPosTaskFinish,
				Item:   t,
			})
		}
	})

	k.wake(waiter{task: t, gen: t.gen})

	return t
}

// Fail records a fatal checking failure and halts the running simulation.
// The run method in progress returns the first recorded failure.
func (k *Kernel) Fail(err error) {
	if k.failure == nil {
		k.failure = err
		k.logger.Printf("FATAL @%d: %v", k.Now(), err)
	}

	k.engine.Halt()
}

// Failure returns the first failure recorded by Fail.
func (k *Kernel) Failure() error {
	return k.failure
}

// RunFor advances the simulation by the given number of steps.
func (k *Kernel) RunFor(steps timing.VTimeInCycle) error {
	return k.RunUntil(k.Now() + steps)
}

// RunTime advances the simulation by a duration.
func (k *Kernel) RunTime(value float64, unit timing.TimeUnit) error {
	steps, err := k.Steps(value, unit)
	if err != nil {
		return err
	}

	return k.RunFor(steps)
}

// RunUntil advances the simulation to time t.
func (k *Kernel) RunUntil(t timing.VTimeInCycle) error {
	if k.failure != nil {
		return k.failure
	}

	if err := k.engine.RunUntil(t); err != nil {
		return err
	}

	return k.failure
}

// RunUntilDone runs the simulation until all the given tasks finish.
func (k *Kernel) RunUntilDone(tasks ...*Task) error {
	if k.failure != nil {
		return k.failure
	}

	remaining := 0
	waiting := true
	for _, t := range tasks {
		if t.done {
			continue
		}

		remaining++
		t.whenDone(func() {
			remaining--
			if remaining == 0 && waiting {
				k.engine.Halt()
			}
		})
	}

	if remaining == 0 {
		return nil
	}

	err := k.engine.Run()
	waiting = false
	if err != nil {
		return err
	}

	if k.failure != nil {
		return k.failure
	}

	if remaining > 0 {
		return ErrNeverFinishes
	}

	return nil
}

// RunClocks runs the simulation for n rising edges of clk.
func (k *Kernel) RunClocks(clk *Signal, n int) error {
	return k.RunUntilDone(k.Spawn("wait_clks", WaitClocks(clk, n)))
}

// WaitClocks returns a process that finishes after n rising edges of clk.
func WaitClocks(clk *Signal, n int) Process {
	count := 0
	return ProcessFunc(func(fired Trigger) Trigger {
		if fired != nil {
			count++
		}

		if count >= n {
			return nil
		}

		return RisingEdge(clk)
	})
}

// Handle processes the kernel's own events.
func (k *Kernel) Handle(event any) error {
	switch e := event.(type) {
	case *timerEvent:
		k.wake(e.waiter)
	case *settleEvent:
		k.settle()
	default:
		return fmt.Errorf("sim: unknown event type: %T", event)
	}

	return nil
}

func (k *Kernel) wake(w waiter) {
	if w.stale() {
		return
	}

	w.task.gen++
	w.gen = w.task.gen

	if k.phase == phaseReadOnly {
		k.readOnlyWaiters = append(k.readOnlyWaiters, w)
		return
	}

	k.runnable = append(k.runnable, w)
	k.ensureSettle()
}

func (k *Kernel) ensureSettle() {
	if k.inSettle || k.settlePending {
		return
	}

	k.settlePending = true
	k.engine.Schedule(timing.ScheduledEvent{
		Event:       &settleEvent{},
		Time:        k.Now(),
		Handler:     k,
		IsSecondary: true,
	})
}

func (k *Kernel) mustBeWritable(s *Signal) {
	if k.phase == phaseReadOnly {
		panic(fmt.Sprintf(
			"sim: write to %s during the read-only phase @%d", s.name, k.Now()))
	}
}

func (k *Kernel) settle() {
	k.settlePending = false
	k.inSettle = true
	defer func() {
		k.inSettle = false
		k.phase = phaseIdle
	}()

	for delta := 0; ; delta++ {
		if delta > maxDeltaCycles {
			panic(fmt.Sprintf(
				"sim: time step %d does not settle after %d delta cycles",
				k.Now(), maxDeltaCycles))
		}

		k.phase = phaseEvaluate
		batch := k.runnable
		k.runnable = nil
		for _, w := range batch {
			if w.stale() {
				continue
			}

			w.task.resume(w.trigger)
		}

		k.commit()

		if len(k.runnable) == 0 && len(k.pending) == 0 {
			break
		}
	}

	k.phase = phaseReadOnly
	for len(k.readOnlyWaiters) > 0 {
		batch := k.readOnlyWaiters
		k.readOnlyWaiters = nil
		for _, w := range batch {
			if w.stale() {
				continue
			}

			w.task.gen++
			w.task.resume(w.trigger)
		}
	}
}

func (k *Kernel) commit() {
	pending := k.pending
	k.pending = nil

	for _, s := range pending {
		change, changed := s.commit()
		if !changed {
			continue
		}

		if k.NumHooks() > 0 {
			k.InvokeHook(hooking.HookCtx{
				Domain: k,
				Pos:    HookPosSignalCommit,
				Item:   s,
				Detail: change,
			})
		}

		k.fireEdges(s, change)
	}
}

func (k *Kernel) fireEdges(s *Signal, change SignalChange) {
	waiters := s.waiters
	s.waiters = nil

	for _, w := range waiters {
		if w.stale() {
			continue
		}

		if !change.matches(w.edge.Polarity) {
			s.waiters = append(s.waiters, w)
			continue
		}

		k.wake(w.waiter)
	}
}
