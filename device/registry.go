package device

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/deviceforge/devicesim/simerrs"
)

// Registry is the DeviceRegistry: the catalog of device types and
// device instances. All Ops callbacks are invoked with the Registry's
// lock released, so that they may freely call back into any component
// (including, transitively, this Registry) without deadlocking.
type Registry struct {
	mu      sync.RWMutex
	types   map[string]*Type
	devices map[string]*Device
}

// NewRegistry creates a new, empty device Registry.
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[string]*Type),
		devices: make(map[string]*Device),
	}
}

// RegisterType registers a new device type under the given name. It
// fails with simerrs.AlreadyExistsError if the name is already taken.
func (r *Registry) RegisterType(name string, ops Ops, userData interface{}) (*Type, error) {
	if name == "" {
		return nil, simerrs.NewInvalidArgumentError("device type name must not be empty")
	}

	r.mu.Lock()
	if _, exists := r.types[name]; exists {
		r.mu.Unlock()
		return nil, simerrs.NewAlreadyExistsError("device type", name)
	}
	t := &Type{Name: name, Ops: ops, UserData: userData}
	r.types[name] = t
	r.mu.Unlock()

	log.WithField("type", name).Debug("[device] registered device type")
	return t, nil
}

// UnregisterType removes a device type. It fails with simerrs.BusyError
// if any device instance still references it.
func (r *Registry) UnregisterType(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.types[name]
	if !exists {
		return simerrs.NewNotFoundError("device type", name)
	}

	for _, d := range r.devices {
		if d.Type == t {
			return simerrs.NewBusyError("device type", name, "has live device instances")
		}
	}

	delete(r.types, name)
	log.WithField("type", name).Debug("[device] unregistered device type")
	return nil
}

// FindType looks up a device type by name.
func (r *Registry) FindType(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.types[name]
	if !exists {
		return nil, simerrs.NewNotFoundError("device type", name)
	}
	return t, nil
}

// Types returns a snapshot slice of every currently registered device type.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	return out
}

// CreateDevice instantiates a new Device of the named type. The type's
// Create callback, if set, is invoked with the lock released; if it
// returns an error the partially built device is discarded and the
// error is returned verbatim.
func (r *Registry) CreateDevice(typeName, instanceName string, config map[string]interface{}) (*Device, error) {
	if instanceName == "" {
		return nil, simerrs.NewInvalidArgumentError("device instance name must not be empty")
	}

	r.mu.Lock()
	t, exists := r.types[typeName]
	if !exists {
		r.mu.Unlock()
		return nil, simerrs.NewNotFoundError("device type", typeName)
	}
	if _, exists := r.devices[instanceName]; exists {
		r.mu.Unlock()
		return nil, simerrs.NewAlreadyExistsError("device", instanceName)
	}
	r.mu.Unlock()

	dev := &Device{
		Name:   instanceName,
		Type:   t,
		Config: config,
	}

	if t.Ops.Create != nil {
		if err := t.Ops.Create(dev, config); err != nil {
			log.WithField("device", instanceName).WithError(err).Debug("[device] create callback failed")
			return nil, err
		}
	}

	r.mu.Lock()
	// Re-check for a race: another goroutine may have created the same
	// name while this Create callback ran unlocked.
	if _, exists := r.devices[instanceName]; exists {
		r.mu.Unlock()
		return nil, simerrs.NewAlreadyExistsError("device", instanceName)
	}
	r.devices[instanceName] = dev
	r.mu.Unlock()

	log.WithFields(log.Fields{"device": instanceName, "type": typeName}).Debug("[device] created device")
	return dev, nil
}

// DestroyDevice invokes the type's Destroy callback, if any, and removes
// the device from the catalog. Callers that need cascading region/
// watchpoint cleanup (see System.DestroyDevice) must perform it before
// or after calling this, outside of the Registry's lock.
func (r *Registry) DestroyDevice(name string) error {
	r.mu.Lock()
	dev, exists := r.devices[name]
	if !exists {
		r.mu.Unlock()
		return simerrs.NewNotFoundError("device", name)
	}
	r.mu.Unlock()

	if dev.Type.Ops.Destroy != nil {
		if err := dev.Type.Ops.Destroy(dev); err != nil {
			return err
		}
	}

	r.mu.Lock()
	delete(r.devices, name)
	r.mu.Unlock()

	log.WithField("device", name).Debug("[device] destroyed device")
	return nil
}

// FindByName looks up a device instance by name.
func (r *Registry) FindByName(name string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.devices[name]
	if !exists {
		return nil, simerrs.NewNotFoundError("device", name)
	}
	return d, nil
}

// Devices returns a snapshot slice of all current device instances.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// Reset forwards to the device type's Reset callback.
func (r *Registry) Reset(name string) error {
	dev, err := r.FindByName(name)
	if err != nil {
		return err
	}
	if dev.Type.Ops.Reset == nil {
		return simerrs.NewNotSupportedError(dev.Type.Name, "reset")
	}
	return dev.Type.Ops.Reset(dev)
}

// SaveState forwards to the device type's SaveState callback.
func (r *Registry) SaveState(name string) ([]byte, error) {
	dev, err := r.FindByName(name)
	if err != nil {
		return nil, err
	}
	if dev.Type.Ops.SaveState == nil {
		return nil, simerrs.NewNotSupportedError(dev.Type.Name, "save_state")
	}
	return dev.Type.Ops.SaveState(dev)
}

// LoadState forwards to the device type's LoadState callback.
func (r *Registry) LoadState(name string, data []byte) error {
	dev, err := r.FindByName(name)
	if err != nil {
		return err
	}
	if dev.Type.Ops.LoadState == nil {
		return simerrs.NewNotSupportedError(dev.Type.Name, "load_state")
	}
	return dev.Type.Ops.LoadState(dev, data)
}

// Ioctl forwards to the device type's Ioctl callback.
func (r *Registry) Ioctl(name string, cmd int, arg interface{}) (interface{}, error) {
	dev, err := r.FindByName(name)
	if err != nil {
		return nil, err
	}
	if dev.Type.Ops.Ioctl == nil {
		return nil, simerrs.NewNotSupportedError(dev.Type.Name, "ioctl")
	}
	return dev.Type.Ops.Ioctl(dev, cmd, arg)
}
