package rule

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/monitor"
	"github.com/deviceforge/devicesim/simerrs"
)

// maxActionsPerEvaluation bounds how many actions a single rule
// evaluation may snapshot and run, mirroring the MonitorEngine's match
// cap for the same forward-progress reason.
const maxActionsPerEvaluation = 32

// Engine is the RuleEngine.
type Engine struct {
	mu       sync.RWMutex
	nextID   uint32
	rules    map[uint32]*Rule
	byName   map[string]uint32
	executor monitor.ActionExecutor
}

type noopExecutor struct{}

func (noopExecutor) Execute(uint32, monitor.Context) error { return nil }

// NewEngine creates a new, empty rule Engine.
func NewEngine() *Engine {
	return &Engine{
		rules:    make(map[uint32]*Rule),
		byName:   make(map[string]uint32),
		executor: noopExecutor{},
	}
}

// SetExecutor installs the ActionRegistry (or compatible executor) that
// a rule's bound actions are dispatched through.
func (e *Engine) SetExecutor(ex monitor.ActionExecutor) {
	if ex == nil {
		ex = noopExecutor{}
	}
	e.mu.Lock()
	e.executor = ex
	e.mu.Unlock()
}

// Create creates a new, disabled rule with no predicate bound. Name
// uniqueness is enforced; an empty name is rejected.
func (e *Engine) Create(name string) (uint32, error) {
	if name == "" {
		return 0, simerrs.NewInvalidArgumentError("rule name must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byName[name]; exists {
		return 0, simerrs.NewAlreadyExistsError("rule", name)
	}

	e.nextID++
	id := e.nextID
	e.rules[id] = &Rule{
		ID:        id,
		Name:      name,
		Enabled:   false,
		actionSet: make(map[uint32]struct{}),
	}
	e.byName[name] = id
	return id, nil
}

// Destroy removes a rule from the catalog.
func (e *Engine) Destroy(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	delete(e.rules, id)
	delete(e.byName, r.Name)
	return nil
}

// Enable enables a rule so that Evaluate will consider its predicate.
func (e *Engine) Enable(id uint32) error {
	return e.setEnabled(id, true)
}

// Disable disables a rule; Evaluate will no-op for it until re-enabled.
func (e *Engine) Disable(id uint32) error {
	return e.setEnabled(id, false)
}

func (e *Engine) setEnabled(id uint32, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	r.Enabled = enabled
	return nil
}

// SetCondition replaces a rule's predicate (and its bound user data).
func (e *Engine) SetCondition(id uint32, predicate Predicate, userData interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	r.predicate = predicate
	r.predicateData = userData
	return nil
}

// AddAction binds an action to a rule's ordered action list. Adding the
// same action twice is a no-op that succeeds.
func (e *Engine) AddAction(id, actionID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	if _, bound := r.actionSet[actionID]; bound {
		return nil
	}
	r.actionSet[actionID] = struct{}{}
	r.actions = append(r.actions, actionID)
	return nil
}

// RemoveAction unbinds an action from a rule's action list.
func (e *Engine) RemoveAction(id, actionID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	if _, bound := r.actionSet[actionID]; !bound {
		return simerrs.NewNotFoundError("bound action", actionID)
	}
	delete(r.actionSet, actionID)
	for i, a := range r.actions {
		if a == actionID {
			r.actions = append(r.actions[:i], r.actions[i+1:]...)
			break
		}
	}
	return nil
}

// IDs returns a snapshot slice of every currently registered rule id.
func (e *Engine) IDs() []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]uint32, 0, len(e.rules))
	for id := range e.rules {
		out = append(out, id)
	}
	return out
}

// FindByName looks up a rule id by name.
func (e *Engine) FindByName(name string) (uint32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	id, exists := e.byName[name]
	if !exists {
		return 0, simerrs.NewNotFoundError("rule", name)
	}
	return id, nil
}

// GetName returns a rule's name.
func (e *Engine) GetName(id uint32) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, exists := e.rules[id]
	if !exists {
		return "", simerrs.NewNotFoundError("rule", id)
	}
	return r.Name, nil
}

// SetUserData sets a rule's opaque user payload.
func (e *Engine) SetUserData(id uint32, data interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, exists := e.rules[id]
	if !exists {
		return simerrs.NewNotFoundError("rule", id)
	}
	r.UserData = data
	return nil
}

// GetUserData returns a rule's opaque user payload.
func (e *Engine) GetUserData(id uint32) (interface{}, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, exists := e.rules[id]
	if !exists {
		return nil, simerrs.NewNotFoundError("rule", id)
	}
	return r.UserData, nil
}

// Evaluate runs a rule against ctx. If the rule is disabled or has no
// predicate, it no-ops successfully. Otherwise its action-id list is
// snapshotted under lock (capped at maxActionsPerEvaluation), the lock
// is released, the predicate is evaluated, and -- if true -- each
// snapshotted action is executed in order. Unlike the MonitorEngine's
// dispatch, Evaluate stops and returns on the first action failure,
// since a rule's action list is semantically significant rather than
// observational.
func (e *Engine) Evaluate(id uint32, ctx monitor.Context) error {
	e.mu.RLock()
	r, exists := e.rules[id]
	if !exists {
		e.mu.RUnlock()
		return simerrs.NewNotFoundError("rule", id)
	}
	if !r.Enabled || r.predicate == nil {
		e.mu.RUnlock()
		return nil
	}

	predicate := r.predicate
	predicateData := r.predicateData
	actions := r.actions
	if len(actions) > maxActionsPerEvaluation {
		log.WithFields(log.Fields{"rule": id, "bound": len(actions)}).
			Warn("[rule] action list exceeds evaluation cap; truncating")
		actions = actions[:maxActionsPerEvaluation]
	}
	snapshot := make([]uint32, len(actions))
	copy(snapshot, actions)
	executor := e.executor
	e.mu.RUnlock()

	matched, err := predicate(ctx, predicateData)
	if err != nil {
		return simerrs.NewRuleConditionFailedError(id, err)
	}
	if !matched {
		return nil
	}

	for _, actionID := range snapshot {
		if err := executor.Execute(actionID, ctx); err != nil {
			return simerrs.NewRuleActionFailedError(id, actionID, err)
		}
	}
	return nil
}
