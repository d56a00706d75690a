// Package monitor provides the edge-triggered monitor that turns signal
// activity on a valid/ready style interface into transactions.
package monitor

import (
	"github.com/sarchlab/hwverify/sim"
)

// A Condition holds when a signal is known and equals Active.
type Condition struct {
	Signal *sim.Signal
	Active uint64
}

// High is the condition of a 1-bit signal being 1.
func High(s *sim.Signal) Condition {
	return Condition{Signal: s, Active: 1}
}

// Low is the condition of a 1-bit signal being 0.
func Low(s *sim.Signal) Condition {
	return Condition{Signal: s, Active: 0}
}

// Holds evaluates the condition on the committed signal value.
func (c Condition) Holds() bool {
	return c.Signal.Is(c.Active)
}

func (c Condition) activation() sim.Trigger {
	if c.Signal.Width() != 1 {
		return sim.Edge(c.Signal)
	}

	if c.Active == 1 {
		return sim.RisingEdge(c.Signal)
	}

	return sim.FallingEdge(c.Signal)
}

// Config selects what a monitor samples and when.
type Config struct {
	Name string

	// Clock is the signal whose rising edges are sampling points.
	Clock *sim.Signal

	// Gate must hold at the clock edge. While it does not, the monitor waits
	// for the gate to become active and then for the next clock edge.
	Gate Condition

	// Qualifier, if set, must also hold for the sample to be taken.
	Qualifier *Condition

	// Fields are sampled in order.
	Fields []Field

	// SettleBeforeEnqueue delays the enqueue to the read-only phase of the
	// sampling time step. The values are still the ones seen at the edge.
	SettleBeforeEnqueue bool

	// Out receives the transactions. If nil, the monitor creates an
	// unbounded queue.
	Out *sim.Queue[Transaction]
}

// A Monitor samples a set of signals on clock edges where its gate and
// qualifier hold.
type Monitor struct {
	sim.Lifecycle

	kernel *sim.Kernel
	cfg    Config
	out    *sim.Queue[Transaction]
	task   *sim.Task
}

// New creates a monitor.
func New(k *sim.Kernel, cfg Config) *Monitor {
	if cfg.Clock == nil || cfg.Gate.Signal == nil {
		panic("monitor: clock and gate signals are required")
	}

	out := cfg.Out
	if out == nil {
		out = sim.NewQueue[Transaction](k, cfg.Name+".values", 0)
	}

	return &Monitor{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		cfg:       cfg,
		out:       out,
	}
}

// Values returns the queue the monitor writes into.
func (m *Monitor) Values() *sim.Queue[Transaction] {
	return m.out
}

// Start spawns the sampling task.
func (m *Monitor) Start() error {
	if err := m.BeginStart(); err != nil {
		return err
	}

	m.task = m.kernel.Spawn(m.Name(), &sampler{m: m})

	return nil
}

// Stop kills the sampling task. A transaction waiting for the settle point
// is dropped.
func (m *Monitor) Stop() error {
	if err := m.BeginStop(); err != nil {
		return err
	}

	m.task.Kill()
	m.task = nil

	return nil
}

func (m *Monitor) sample() Transaction {
	values := make([]FieldValue, len(m.cfg.Fields))
	for i, f := range m.cfg.Fields {
		values[i] = FieldValue{Name: f.Name, Value: f.Signal.Int()}
	}

	return Transaction{time: m.kernel.Now(), fields: values}
}

func (m *Monitor) enqueue(t Transaction) {
	if err := m.out.Put(t); err != nil {
		m.kernel.Fail(err)
	}
}

type samplerState int

const (
	waitClock samplerState = iota
	waitGate
	waitSettle
)

type sampler struct {
	m       *Monitor
	state   samplerState
	pending Transaction
}

func (s *sampler) Step(fired sim.Trigger) sim.Trigger {
	cfg := &s.m.cfg

	if fired == nil {
		s.state = waitClock
		return sim.RisingEdge(cfg.Clock)
	}

	switch s.state {
	case waitGate:
		s.state = waitClock
	case waitSettle:
		s.m.enqueue(s.pending)
		s.state = waitClock
	default:
		if !cfg.Gate.Holds() {
			s.state = waitGate
			return cfg.Gate.activation()
		}

		if cfg.Qualifier == nil || cfg.Qualifier.Holds() {
			t := s.m.sample()
			if cfg.SettleBeforeEnqueue {
				s.pending = t
				s.state = waitSettle
				return sim.ReadOnly()
			}

			s.m.enqueue(t)
		}
	}

	return sim.RisingEdge(cfg.Clock)
}
