package action

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/metrics"
	"github.com/deviceforge/devicesim/monitor"
	"github.com/deviceforge/devicesim/simerrs"
)

// Registry is the ActionRegistry.
type Registry struct {
	mu      sync.RWMutex
	nextID  uint32
	actions map[uint32]*Action
}

// NewRegistry creates a new, empty action Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[uint32]*Action)}
}

// CreateCallback registers a CALLBACK action invoking fn with userData
// whenever it is executed. It fails if fn is nil.
func (r *Registry) CreateCallback(fn CallbackFunc, userData interface{}) (uint32, error) {
	if fn == nil {
		return 0, simerrs.NewInvalidArgumentError("callback action requires a non-nil function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.actions[id] = &Action{ID: id, Kind: Callback, fn: fn, callbackData: userData}
	return id, nil
}

// CreateScript registers a SCRIPT action that launches the binary at
// path, with positional arguments <addr> <size> <value> <access_type>,
// when executed.
func (r *Registry) CreateScript(path string) (uint32, error) {
	if path == "" {
		return 0, simerrs.NewInvalidArgumentError("script action requires a non-empty path")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.actions[id] = &Action{ID: id, Kind: Script, path: path}
	return id, nil
}

// CreateCommand registers a COMMAND action that hands cmd to the host
// shell verbatim when executed.
func (r *Registry) CreateCommand(cmd string) (uint32, error) {
	if cmd == "" {
		return 0, simerrs.NewInvalidArgumentError("command action requires a non-empty command string")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.actions[id] = &Action{ID: id, Kind: Command, cmd: cmd}
	return id, nil
}

// Destroy removes an action from the catalog. It does not cascade-unbind
// the action from any watchpoint or rule that references it; a later
// dispatch to the dead id surfaces simerrs.NotFoundError.
func (r *Registry) Destroy(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[id]; !exists {
		return simerrs.NewNotFoundError("action", id)
	}
	delete(r.actions, id)
	return nil
}

// IDs returns a snapshot slice of every currently registered action id.
func (r *Registry) IDs() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uint32, 0, len(r.actions))
	for id := range r.actions {
		out = append(out, id)
	}
	return out
}

// GetType returns an action's Kind.
func (r *Registry) GetType(id uint32) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[id]
	if !exists {
		return 0, simerrs.NewNotFoundError("action", id)
	}
	return a.Kind, nil
}

// SetUserData sets an action's opaque user payload.
func (r *Registry) SetUserData(id uint32, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.actions[id]
	if !exists {
		return simerrs.NewNotFoundError("action", id)
	}
	a.UserData = data
	return nil
}

// GetUserData returns an action's opaque user payload.
func (r *Registry) GetUserData(id uint32) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[id]
	if !exists {
		return nil, simerrs.NewNotFoundError("action", id)
	}
	return a.UserData, nil
}

// Execute dispatches action id against ctx. CALLBACK actions invoke the
// bound function directly; SCRIPT and COMMAND actions launch an
// external process and block until it exits, with a non-zero exit
// status reported as simerrs.ActionExecuteFailedError. All external
// invocations happen with the registry's lock released.
func (r *Registry) Execute(id uint32, ctx monitor.Context) error {
	r.mu.RLock()
	a, exists := r.actions[id]
	r.mu.RUnlock()

	if !exists {
		return simerrs.NewNotFoundError("action", id)
	}

	start := time.Now()
	defer func() {
		metrics.ActionExecDuration.WithLabelValues(a.Kind.String()).Observe(time.Since(start).Seconds())
	}()

	switch a.Kind {
	case Callback:
		return a.fn(ctx, a.callbackData)

	case Script:
		p := newScriptProcess(a.path, ctx)
		if err := p.run(); err != nil {
			log.WithFields(log.Fields{"action": id, "path": a.path, "stderr": p.Stderr()}).
				Warn("[action] script action failed")
			return simerrs.NewActionExecuteFailedError(id, err)
		}
		return nil

	case Command:
		p := newCommandProcess(a.cmd)
		if err := p.run(); err != nil {
			log.WithFields(log.Fields{"action": id, "stderr": p.Stderr()}).
				Warn("[action] command action failed")
			return simerrs.NewActionExecuteFailedError(id, err)
		}
		return nil

	default:
		return simerrs.NewNotSupportedError("action", a.Kind.String())
	}
}
