// Package timing provides the discrete-event engine that drives a simulation
// kernel. Time is an unsigned number of kernel steps.
package timing

// VTimeInCycle is a point on the simulated timeline, in kernel steps.
type VTimeInCycle uint64

// Handler processes events of various types. Events are plain data; handlers
// type-switch on them:
//
//	func (h *MyHandler) Handle(event any) error {
//	    switch e := event.(type) {
//	    case *ToggleEvent:
//	        // handle ToggleEvent
//	    default:
//	        return fmt.Errorf("unknown event type: %T", event)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(event any) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(event any) error

// Handle calls f(event).
func (f HandlerFunc) Handle(event any) error {
	return f(event)
}

// TimeTeller exposes the current simulation time.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler schedules events in the simulation timeline.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent is the engine-facing wrapper for user-defined events.
type ScheduledEvent struct {
	// Event is the payload delivered to the handler.
	Event any

	// Time is the step at which the event is processed.
	Time VTimeInCycle

	// Handler is the component that processes this event.
	Handler Handler

	// IsSecondary events are processed after all primary events of the same
	// time. The simulation kernel settles signals in a secondary event.
	IsSecondary bool
}

// Engine keeps a discrete event simulation running.
type Engine interface {
	EventScheduler

	// Run processes events until no event is left or the engine is halted.
	Run() error

	// RunUntil processes every event scheduled no later than t and moves the
	// current time to t.
	RunUntil(t VTimeInCycle) error

	// Halt makes the running Run or RunUntil return after the event being
	// handled finishes.
	Halt()

	// Pause blocks event dispatching until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
