// Package rule implements the RuleEngine: named, predicate-gated,
// ordered action lists. Rules are not automatically invoked by the
// MonitorEngine; they are a layered abstraction that client code
// (typically an action bound to a watchpoint) evaluates explicitly.
package rule

import "github.com/deviceforge/devicesim/monitor"

// Predicate is the signature of a rule's condition function. It
// evaluates the access context and returns whether the rule's actions
// should run. An error return means the condition itself could not be
// evaluated (distinct from evaluating to false).
type Predicate func(ctx monitor.Context, userData interface{}) (bool, error)

// Rule pairs a predicate over the access context with an ordered action
// list. Its id is stable, nonzero, and never reused within a run; its
// name is unique within the owning Engine.
type Rule struct {
	ID      uint32
	Name    string
	Enabled bool

	predicate    Predicate
	predicateData interface{}

	actions   []uint32
	actionSet map[uint32]struct{}

	UserData interface{}
}

// Actions returns a snapshot of the rule's bound action ids, in
// insertion order.
func (r *Rule) Actions() []uint32 {
	out := make([]uint32, len(r.actions))
	copy(out, r.actions)
	return out
}
