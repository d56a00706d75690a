package timing

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sarchlab/hwverify/instrumentation/hooking"
)

// HookPosBeforeEvent is a hook position that triggers before handling an event.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// SerialEngine processes scheduled events sequentially in time order.
type SerialEngine struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	now      VTimeInCycle

	queue          eventQueue
	secondaryQueue eventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	haltLock sync.Mutex
	halted   bool

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase:   hooking.NewHookableBase(),
		queue:          newScheduledEventQueue(),
		secondaryQueue: newScheduledEventQueue(),
	}
}

// Schedule registers an event to be handled in the future.
func (e *SerialEngine) Schedule(evt ScheduledEvent) {
	now := e.readNow()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"timing: cannot schedule event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt.Event), evt.Time, now,
		))
	}

	eventCopy := evt
	if evt.IsSecondary {
		e.secondaryQueue.Push(&eventCopy)
		return
	}

	e.queue.Push(&eventCopy)
}

func (e *SerialEngine) readNow() VTimeInCycle {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()
	return t
}

func (e *SerialEngine) writeNow(t VTimeInCycle) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run processes all scheduled events until completion or until halted.
func (e *SerialEngine) Run() error {
	return e.run(func(*ScheduledEvent) bool { return true })
}

// RunUntil processes all events scheduled at or before t. When it returns
// without being halted, the current time is t.
func (e *SerialEngine) RunUntil(t VTimeInCycle) error {
	if t < e.readNow() {
		panic(fmt.Sprintf(
			"timing: cannot run until %d, now is %d", t, e.readNow()))
	}

	err := e.run(func(evt *ScheduledEvent) bool { return evt.Time <= t })
	if err != nil || e.consumeHalt() {
		return err
	}

	e.writeNow(t)

	return nil
}

func (e *SerialEngine) run(canRun func(*ScheduledEvent) bool) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	e.clearHalt()

	for {
		if e.isHalted() {
			return nil
		}

		next := e.peekNextEvent()
		if next == nil || !canRun(next) {
			return nil
		}

		e.pauseLock.Lock()
		err := e.handleNext()
		e.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (e *SerialEngine) handleNext() error {
	evt := e.nextEvent()
	now := e.readNow()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"timing: cannot run event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt.Event), evt.Time, now,
		))
	}

	e.writeNow(evt.Time)

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	var err error
	if evt.Handler != nil {
		err = evt.Handler.Handle(evt.Event)
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return err
}

func (e *SerialEngine) peekNextEvent() *ScheduledEvent {
	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	switch {
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	case primary.Time <= secondary.Time:
		return primary
	default:
		return secondary
	}
}

func (e *SerialEngine) nextEvent() *ScheduledEvent {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	if primary.Time <= secondary.Time {
		e.queue.Pop()
		return primary
	}

	e.secondaryQueue.Pop()
	return secondary
}

// Halt stops the current Run or RunUntil after the event being handled.
// Events that are not handled yet stay scheduled.
func (e *SerialEngine) Halt() {
	e.haltLock.Lock()
	e.halted = true
	e.haltLock.Unlock()
}

func (e *SerialEngine) isHalted() bool {
	e.haltLock.Lock()
	defer e.haltLock.Unlock()
	return e.halted
}

func (e *SerialEngine) clearHalt() {
	e.haltLock.Lock()
	e.halted = false
	e.haltLock.Unlock()
}

func (e *SerialEngine) consumeHalt() bool {
	e.haltLock.Lock()
	defer e.haltLock.Unlock()
	h := e.halted
	e.halted = false
	return h
}

// Pause prevents the engine from dispatching more events until Continue is
// called.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes event processing after a Pause.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the time of the most recently handled event.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	return e.readNow()
}

var _ Engine = (*SerialEngine)(nil)
