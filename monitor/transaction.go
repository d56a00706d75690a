package monitor

import (
	"fmt"
	"strings"

	"github.com/sarchlab/hwverify/sim"
	"github.com/sarchlab/hwverify/timing"
)

// A Field names a signal to sample.
type Field struct {
	Name   string
	Signal *sim.Signal
}

// A FieldValue is one sampled field of a Transaction.
type FieldValue struct {
	Name  string
	Value uint64
}

// A Transaction is the set of field values sampled at one clock edge. It is
// immutable once created.
type Transaction struct {
	time   timing.VTimeInCycle
	fields []FieldValue
}

// NewTransaction creates a transaction from field values, in order.
func NewTransaction(t timing.VTimeInCycle, fields ...FieldValue) Transaction {
	copied := make([]FieldValue, len(fields))
	copy(copied, fields)

	return Transaction{time: t, fields: copied}
}

// Time returns the time the transaction was sampled at.
func (t Transaction) Time() timing.VTimeInCycle {
	return t.time
}

// Value returns the value of the named field.
func (t Transaction) Value(name string) (uint64, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return 0, false
}

// Fields returns the field values in declaration order.
func (t Transaction) Fields() []FieldValue {
	fields := make([]FieldValue, len(t.fields))
	copy(fields, t.fields)

	return fields
}

func (t Transaction) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = fmt.Sprintf("%s: %d", f.Name, f.Value)
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
