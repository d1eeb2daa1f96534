// Package monitor implements the MonitorEngine: the registry of
// watchpoints and the dispatcher that, on every memory access, computes
// the matching set and fans out to their bound actions.
package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/memio"
	"github.com/deviceforge/devicesim/metrics"
	"github.com/deviceforge/devicesim/simerrs"
)

// defaultMaxMatches is the safety valve bounding how many watchpoints a
// single notification may fan out to. It exists to guarantee forward
// progress under adversarial/recursive callback fan-out.
const defaultMaxMatches = 32

// fireHistoryTTL is how long a fire record is retained in the engine's
// debug history cache before expiring.
const fireHistoryTTL = 5 * time.Minute

// Context is the transient value describing one memory access, passed
// by value to actions and rule predicates. It is never retained
// across calls by the engine itself.
type Context struct {
	Region     *memio.Region
	Addr       uint64
	Size       int
	Value      uint64
	AccessType memio.AccessType
}

// ActionExecutor is implemented by the ActionRegistry. The engine
// invokes Execute once per bound action of each matching watchpoint,
// with its own lock released.
type ActionExecutor interface {
	Execute(id uint32, ctx Context) error
}

type noopExecutor struct{}

func (noopExecutor) Execute(uint32, Context) error { return nil }

// FireRecord is one entry in a Watchpoint's recent-fire history, used
// for debugging fan-out without retaining unbounded history.
type FireRecord struct {
	Context Context
	Actions []uint32
}

// Engine is the MonitorEngine.
type Engine struct {
	mu         sync.RWMutex
	nextID     uint32
	watchpoints map[uint32]*Watchpoint
	order      []uint32 // insertion order of watchpoint ids, for deterministic fan-out
	executor   ActionExecutor
	maxMatches int

	history *cache.Cache
}

// NewEngine creates a new, empty Engine with no bound ActionExecutor
// (actions simply no-op until SetExecutor is called) and the default
// match-count cap.
func NewEngine() *Engine {
	return &Engine{
		watchpoints: make(map[uint32]*Watchpoint),
		executor:    noopExecutor{},
		maxMatches:  defaultMaxMatches,
		history:     cache.New(fireHistoryTTL, 2*fireHistoryTTL),
	}
}

// SetExecutor installs the ActionRegistry (or compatible ActionExecutor)
// that bound actions are dispatched through.
func (e *Engine) SetExecutor(ex ActionExecutor) {
	if ex == nil {
		ex = noopExecutor{}
	}
	e.mu.Lock()
	e.executor = ex
	e.mu.Unlock()
}

// SetMaxMatches overrides the per-notification match cap. Implementations
// may raise it, but a bound must always be enforced.
func (e *Engine) SetMaxMatches(n int) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	e.maxMatches = n
	e.mu.Unlock()
}

// AddWatchpoint installs a new, enabled watchpoint over region in
// [addr, addr+size) for the given mode (wpvalue is only meaningful for
// ModeValueWrite). It fails on a nil region, zero size, or size > 8.
func (e *Engine) AddWatchpoint(region *memio.Region, addr uint64, size int, mode Mode, wpvalue uint64) (uint32, error) {
	if region == nil {
		return 0, simerrs.NewInvalidArgumentError("watchpoint region must not be nil")
	}
	if size <= 0 || size > 8 {
		return 0, simerrs.NewInvalidArgumentError("watchpoint size must be in 1..=8")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID

	wp := &Watchpoint{
		ID:        id,
		Region:    region,
		Addr:      addr,
		Size:      size,
		Mode:      mode,
		WPValue:   wpvalue,
		Enabled:   true,
		actionSet: make(map[uint32]struct{}),
	}
	e.watchpoints[id] = wp
	e.order = append(e.order, id)

	log.WithFields(log.Fields{
		"id": id, "region": region.Name, "addr": addr, "size": size, "mode": mode.String(),
	}).Debug("[monitor] added watchpoint")
	return id, nil
}

// RemoveWatchpoint removes a watchpoint. Removed is a terminal state;
// the id is never reused.
func (e *Engine) RemoveWatchpoint(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.watchpoints[id]; !exists {
		return simerrs.NewNotFoundError("watchpoint", id)
	}
	delete(e.watchpoints, id)
	for i, wid := range e.order {
		if wid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveWatchpointsForRegion removes every watchpoint referencing the
// given region, returning the ids removed. Used by the facade to cascade
// cleanup when a device (and therefore its regions) is destroyed.
func (e *Engine) RemoveWatchpointsForRegion(region *memio.Region) []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var removed []uint32
	var keptOrder []uint32
	for _, id := range e.order {
		wp := e.watchpoints[id]
		if wp.Region == region {
			removed = append(removed, id)
			delete(e.watchpoints, id)
			continue
		}
		keptOrder = append(keptOrder, id)
	}
	e.order = keptOrder
	return removed
}

// Enable re-enables a disabled (but not removed) watchpoint.
func (e *Engine) Enable(id uint32) error {
	return e.setEnabled(id, true)
}

// Disable disables a watchpoint without removing it; it will not fire
// again until re-enabled.
func (e *Engine) Disable(id uint32) error {
	return e.setEnabled(id, false)
}

func (e *Engine) setEnabled(id uint32, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wp, exists := e.watchpoints[id]
	if !exists {
		return simerrs.NewNotFoundError("watchpoint", id)
	}
	wp.Enabled = enabled
	return nil
}

// BindAction binds an action to a watchpoint. Binding the same action
// twice is a no-op that succeeds.
func (e *Engine) BindAction(id, actionID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wp, exists := e.watchpoints[id]
	if !exists {
		return simerrs.NewNotFoundError("watchpoint", id)
	}
	if _, bound := wp.actionSet[actionID]; bound {
		return nil
	}
	wp.actionSet[actionID] = struct{}{}
	wp.actions = append(wp.actions, actionID)
	return nil
}

// UnbindAction unbinds an action from a watchpoint. It fails with
// simerrs.NotFoundError if the action was not bound.
func (e *Engine) UnbindAction(id, actionID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wp, exists := e.watchpoints[id]
	if !exists {
		return simerrs.NewNotFoundError("watchpoint", id)
	}
	if _, bound := wp.actionSet[actionID]; !bound {
		return simerrs.NewNotFoundError("bound action", actionID)
	}
	delete(wp.actionSet, actionID)
	for i, a := range wp.actions {
		if a == actionID {
			wp.actions = append(wp.actions[:i], wp.actions[i+1:]...)
			break
		}
	}
	return nil
}

// GetInfo returns a watchpoint's (region, addr, size, mode).
func (e *Engine) GetInfo(id uint32) (*memio.Region, uint64, int, Mode, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wp, exists := e.watchpoints[id]
	if !exists {
		return nil, 0, 0, 0, simerrs.NewNotFoundError("watchpoint", id)
	}
	return wp.Region, wp.Addr, wp.Size, wp.Mode, nil
}

// match is a (watchpoint id, action id) pair buffered during the locked
// phase of Notify, to be executed against the notification's shared
// Context once the lock is released.
type match struct {
	watchpointID uint32
	actionID     uint32
}

// Notify implements memio.Notifier. It is invoked by the MemoryManager
// on every successful access. Dispatch is two-phase: the matching set is
// computed under lock and buffered, the lock is released, and only then
// are the buffered actions executed -- so that an action's own memory
// accesses (which re-enter Notify) never deadlock against this Engine's
// lock.
func (e *Engine) Notify(region *memio.Region, addr uint64, size int, value uint64, accessType memio.AccessType) {
	ctx := Context{Region: region, Addr: addr, Size: size, Value: value, AccessType: accessType}
	metrics.NotifyTotal.WithLabelValues(accessType.String()).Inc()

	e.mu.RLock()
	var matches []match
	fired := make(map[uint32][]uint32) // watchpoint id -> action ids, for history
	dropped := 0
	for _, id := range e.order {
		wp := e.watchpoints[id]
		if !wp.Enabled || wp.Region != region {
			continue
		}
		if !wp.overlaps(addr, size) {
			continue
		}
		if !wp.Mode.matches(accessType, value, wp.WPValue) {
			continue
		}
		for _, actionID := range wp.actions {
			if len(matches) >= e.maxMatches {
				dropped++
				continue
			}
			matches = append(matches, match{watchpointID: id, actionID: actionID})
			fired[id] = append(fired[id], actionID)
		}
	}
	executor := e.executor
	e.mu.RUnlock()

	if dropped > 0 {
		metrics.WatchpointMatchesDroppedTotal.Add(float64(dropped))
		log.WithFields(log.Fields{
			"region": region.Name, "addr": addr, "dropped": dropped,
		}).Warn("[monitor] match cap exceeded; dropping excess matches")
	}

	for id, actions := range fired {
		e.recordFire(id, ctx, actions)
	}

	for _, m := range matches {
		if err := executor.Execute(m.actionID, ctx); err != nil {
			log.WithFields(log.Fields{
				"watchpoint": m.watchpointID, "action": m.actionID, "error": err,
			}).Warn("[monitor] action execution failed; continuing dispatch")
		}
	}
}

// recordFire appends a FireRecord to a watchpoint's history for later
// introspection via RecentFires. The watchpoint's whole record list is
// stored as one cache entry whose expiry is reset to fireHistoryTTL on
// every fire; the number of records in the list is not capped.
func (e *Engine) recordFire(watchpointID uint32, ctx Context, actions []uint32) {
	key := historyKey(watchpointID)
	rec := FireRecord{Context: ctx, Actions: actions}

	if existing, ok := e.history.Get(key); ok {
		records := existing.([]FireRecord)
		records = append(records, rec)
		e.history.Set(key, records, cache.DefaultExpiration)
		return
	}
	e.history.Set(key, []FireRecord{rec}, cache.DefaultExpiration)
}

// RecentFires returns the watchpoint's recorded fires, oldest first. The
// list expires only once fireHistoryTTL passes without a new fire, so
// while a watchpoint keeps firing it also returns records older than
// the TTL. It is a debugging aid, not part of the dispatch contract.
func (e *Engine) RecentFires(id uint32) []FireRecord {
	if v, ok := e.history.Get(historyKey(id)); ok {
		return v.([]FireRecord)
	}
	return nil
}

func historyKey(id uint32) string {
	return "wp:" + strconv.FormatUint(uint64(id), 10)
}
