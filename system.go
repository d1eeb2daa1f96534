// Package devicesim is the Facade: it wires the DeviceRegistry,
// MemoryManager, MonitorEngine, ActionRegistry, and RuleEngine together
// in dependency order and exposes a stable entry surface for simulating
// collections of interacting hardware devices over instrumented memory.
package devicesim

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/action"
	"github.com/deviceforge/devicesim/device"
	"github.com/deviceforge/devicesim/memio"
	"github.com/deviceforge/devicesim/metrics"
	"github.com/deviceforge/devicesim/monitor"
	"github.com/deviceforge/devicesim/rule"
	"github.com/deviceforge/devicesim/simerrs"
)

// System is the Facade. A System must be constructed with New and
// initialized with Init before use; Cleanup tears it down. Every
// exported method is safe to call from multiple goroutines.
type System struct {
	runID uuid.UUID

	devices *device.Registry
	memory  *memio.Manager
	monitor *monitor.Engine
	actions *action.Registry
	rules   *rule.Engine

	debug       bool
	maxMatches  int
	metricsAddr string

	initOnce    sync.Once
	cleanupOnce sync.Once
}

// New constructs a System, wiring its components in dependency order
// (device -> memio -> monitor -> action -> rule). Apart from reading the
// machine id for the run identifier, it starts nothing (no log level
// change, no metrics server); call Init to bring it up.
func New(opts ...Option) *System {
	s := &System{
		runID:   runIdentity(uuid.New().String()),
		devices: device.NewRegistry(),
		memory:  memio.NewManager(),
		monitor: monitor.NewEngine(),
		actions: action.NewRegistry(),
		rules:   rule.NewEngine(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Wire the cross-component dependencies the spec's control flow
	// requires: MemoryManager reports accesses to the MonitorEngine,
	// and both the MonitorEngine and RuleEngine dispatch through the
	// ActionRegistry.
	s.memory.SetNotifier(s.monitor)
	s.monitor.SetExecutor(s.actions)
	s.rules.SetExecutor(s.actions)

	if s.maxMatches > 0 {
		s.monitor.SetMaxMatches(s.maxMatches)
	}

	return s
}

// Init brings the System up: it sets the log level and, if configured,
// starts the background metrics server. It is idempotent -- calling it
// more than once has no additional effect.
func (s *System) Init() error {
	var err error
	s.initOnce.Do(func() {
		SetLogLevel(s.debug)

		log.WithField("run_id", s.runID).Info("[devicesim] system initialized")

		if s.metricsAddr != "" {
			go metrics.Expose(s.metricsAddr)
		}
	})
	return err
}

// Cleanup tears the System down: every device is destroyed (cascading
// its regions and any watchpoints that referenced them, per
// DestroyDevice), then every device type, action, and rule is removed.
// Failures along the way do not stop the teardown; they are collected
// and returned together as a simerrs.MultiError. It is safe to call
// once per Init.
func (s *System) Cleanup() error {
	merr := simerrs.NewMultiError("system cleanup")
	s.cleanupOnce.Do(func() {
		for _, dev := range s.devices.Devices() {
			if dErr := s.DestroyDevice(dev.Name); dErr != nil {
				log.WithError(dErr).WithField("device", dev.Name).
					Warn("[devicesim] error destroying device during cleanup")
				merr.Add(dErr)
			}
		}

		for _, t := range s.devices.Types() {
			if tErr := s.devices.UnregisterType(t.Name); tErr != nil {
				log.WithError(tErr).WithField("type", t.Name).
					Warn("[devicesim] error unregistering device type during cleanup")
				merr.Add(tErr)
			}
		}

		for _, id := range s.actions.IDs() {
			if aErr := s.actions.Destroy(id); aErr != nil {
				log.WithError(aErr).WithField("action", id).
					Warn("[devicesim] error destroying action during cleanup")
				merr.Add(aErr)
			}
		}

		for _, id := range s.rules.IDs() {
			if rErr := s.rules.Destroy(id); rErr != nil {
				log.WithError(rErr).WithField("rule", id).
					Warn("[devicesim] error destroying rule during cleanup")
				merr.Add(rErr)
			}
		}

		log.WithField("run_id", s.runID).Info("[devicesim] system cleaned up")
	})
	return merr.Err()
}

// ProcessEvents is a reserved placeholder. All dispatch in this core is
// synchronous within the originating access; ProcessEvents performs no
// work and always returns nil. It exists for a future asynchronous mode.
func (s *System) ProcessEvents() error {
	return nil
}

// Version returns the core's (major, minor, patch) version.
func (s *System) Version() Version {
	return currentVersion
}

// RunID returns the System's run-scoped identifier, used to tag its log output.
func (s *System) RunID() uuid.UUID {
	return s.runID
}

// Devices returns the System's DeviceRegistry.
func (s *System) Devices() *device.Registry {
	return s.devices
}

// Memory returns the System's MemoryManager.
func (s *System) Memory() *memio.Manager {
	return s.memory
}

// Monitor returns the System's MonitorEngine.
func (s *System) Monitor() *monitor.Engine {
	return s.monitor
}

// Actions returns the System's ActionRegistry.
func (s *System) Actions() *action.Registry {
	return s.actions
}

// Rules returns the System's RuleEngine.
func (s *System) Rules() *rule.Engine {
	return s.rules
}

// DestroyDevice destroys a device, cascading the destruction to every
// region it owns and unbinding any watchpoint that referenced those
// regions. This is the facade-level resolution of the spec's open
// question on device teardown: the alternative (refusing to destroy a
// device while regions exist) was rejected because it pushes bookkeeping
// onto every caller that tears down a device graph. See DESIGN.md.
func (s *System) DestroyDevice(name string) error {
	regions := s.memory.DestroyRegionsForDevice(name)
	for _, r := range regions {
		removed := s.monitor.RemoveWatchpointsForRegion(r)
		if len(removed) > 0 {
			log.WithFields(log.Fields{
				"device": name, "region": r.Name, "watchpoints": removed,
			}).Debug("[devicesim] cascaded watchpoint removal for destroyed region")
		}
	}
	return s.devices.DestroyDevice(name)
}
