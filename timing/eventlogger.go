package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/hwverify/instrumentation/hooking"
)

// EventLogger is a hook that prints every event the engine handles.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns an EventLogger that writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	kind := "primary"
	if evt.IsSecondary {
		kind = "secondary"
	}

	h.Printf("%d, %s, %s", evt.Time, reflect.TypeOf(evt.Event), kind)
}
