package lifecycle

import (
	"fmt"
	"sort"
	"time"
)

// State is a lifecycle state within one transaction family.
type State string

// Table maps each known state to the set of states reachable in one
// transition. A state mapped to an empty set is terminal.
type Table map[State][]State

// HistoryEntry is one append-only record of a state the transaction reached.
type HistoryEntry struct {
	State State     `json:"state" bson:"state"`
	At    time.Time `json:"at" bson:"at"`
	Note  string    `json:"note,omitempty" bson:"note,omitempty"`
}

// InvalidTransitionError rejects a transition the table does not allow. It is
// a caller error: the record is untouched and the attempt must not be retried.
type InvalidTransitionError struct {
	Family    string
	Current   State
	Attempted State
	Allowed   []State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition %s -> %s (allowed: %v)", e.Family, e.Current, e.Attempted, e.Allowed)
}

// IntegrityError flags a transaction record whose current state is not in the
// family's table at all. The record is corrupt; this is fatal and must be
// surfaced to an operator, never defaulted.
type IntegrityError struct {
	Family string
	State  State
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: unknown state %q in stored record", e.Family, e.State)
}

// Machine validates transitions for one transaction family against a fixed
// table. It holds no per-transaction data; one instance serves every record
// of its family.
type Machine struct {
	family string
	table  Table
}

// NewMachine builds a machine for a family. The table is copied; transition
// targets are kept in sorted order so error messages are deterministic.
func NewMachine(family string, table Table) *Machine {
	copied := make(Table, len(table))
	for state, targets := range table {
		ts := append([]State(nil), targets...)
		sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
		copied[state] = ts
	}
	return &Machine{family: family, table: copied}
}

// Family names the transaction family this machine governs.
func (m *Machine) Family() string { return m.family }

// Known reports whether the state exists in the family's table.
func (m *Machine) Known(s State) bool {
	_, ok := m.table[s]
	return ok
}

// Terminal reports whether a state has no outgoing transitions. Unknown
// states are not terminal; they are corrupt (see CanTransition).
func (m *Machine) Terminal(s State) bool {
	targets, ok := m.table[s]
	return ok && len(targets) == 0
}

// Allowed returns the transition targets for a state, or an IntegrityError
// when the state is unknown.
func (m *Machine) Allowed(current State) ([]State, error) {
	targets, ok := m.table[current]
	if !ok {
		return nil, &IntegrityError{Family: m.family, State: current}
	}
	return append([]State(nil), targets...), nil
}

// CanTransition is a pure table lookup. An unknown current state is a fatal
// configuration or data error and is reported loudly, never treated as a
// permitted transition.
func (m *Machine) CanTransition(current, next State) (bool, error) {
	targets, ok := m.table[current]
	if !ok {
		return false, &IntegrityError{Family: m.family, State: current}
	}
	for _, t := range targets {
		if t == next {
			return true, nil
		}
	}
	return false, nil
}

// ValidateTransition returns nil when the transition is allowed, an
// InvalidTransitionError naming the allowed set when it is not, and an
// IntegrityError when the current state is unknown.
func (m *Machine) ValidateTransition(current, next State) error {
	ok, err := m.CanTransition(current, next)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidTransitionError{
			Family:    m.family,
			Current:   current,
			Attempted: next,
			Allowed:   m.table[current],
		}
	}
	return nil
}
