package sim

import (
	"log"

	"github.com/sarchlab/hwverify/instrumentation/hooking"
)

// SignalLogger is a hook that logs every committed signal change.
type SignalLogger struct {
	*log.Logger

	// Filter limits logging to the named signals. An empty filter logs all
	// signals.
	Filter map[string]bool
}

// NewSignalLogger returns a SignalLogger that logs the given signals, or all
// signals if none are given.
func NewSignalLogger(logger *log.Logger, signals ...*Signal) *SignalLogger {
	h := &SignalLogger{Logger: logger, Filter: make(map[string]bool)}
	for _, s := range signals {
		h.Filter[s.Name()] = true
	}

	return h
}

// Func writes the change into the logger.
func (h *SignalLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosSignalCommit {
		return
	}

	s, ok := ctx.Item.(*Signal)
	if !ok {
		return
	}

	if len(h.Filter) > 0 && !h.Filter[s.Name()] {
		return
	}

	change := ctx.Detail.(SignalChange)
	old := "x"
	if change.OldKnown {
		old = formatBits(change.OldValue, s.Width())
	}

	h.Printf("%d, %s, %s -> %s\n",
		s.kernel.Now(), s.Name(), old, s.BinStr())
}
