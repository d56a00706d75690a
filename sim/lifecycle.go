package sim

import "github.com/pkg/errors"

// LifecycleState is the state of a monitor, driver or checker.
type LifecycleState int

// Lifecycle states.
const (
	NotStarted LifecycleState = iota
	Running
	Stopped
)

func (s LifecycleState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted is returned when starting a running component.
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotStarted is returned when stopping a component that is not
	// running.
	ErrNotStarted = errors.New("never started")
)

// Named describes an object that has a name.
type Named interface {
	Name() string
}

// A Component is something a bench starts and stops.
type Component interface {
	Named
	Start() error
	Stop() error
	State() LifecycleState
}

// Lifecycle tracks the start/stop state of a component. Components embed it
// and call BeginStart and BeginStop first in their Start and Stop methods.
// A stopped component can be started again.
type Lifecycle struct {
	name  string
	state LifecycleState
}

// MakeLifecycle creates a lifecycle in the NotStarted state.
func MakeLifecycle(name string) Lifecycle {
	return Lifecycle{name: name}
}

// Name returns the name of the component.
func (l *Lifecycle) Name() string {
	return l.name
}

// State returns the current state.
func (l *Lifecycle) State() LifecycleState {
	return l.state
}

// IsRunning returns true between a successful start and stop.
func (l *Lifecycle) IsRunning() bool {
	return l.state == Running
}

// BeginStart moves the component to Running.
func (l *Lifecycle) BeginStart() error {
	if l.state == Running {
		return errors.Wrapf(ErrAlreadyStarted, "%s", l.name)
	}

	l.state = Running

	return nil
}

// BeginStop moves the component to Stopped.
func (l *Lifecycle) BeginStop() error {
	if l.state != Running {
		return errors.Wrapf(ErrNotStarted, "%s", l.name)
	}

	l.state = Stopped

	return nil
}
