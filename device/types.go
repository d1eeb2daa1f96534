// Package device implements the DeviceRegistry: the catalog of device
// types (behavioral vtables) and device instances (named handles bound
// to a type).
package device

// Ops is a device type's capability vtable. Every slot is optional
// (nilable). A nil Reset, SaveState, LoadState, or Ioctl means the
// capability is unsupported and calling it surfaces
// simerrs.NotSupportedError; a nil Create or Destroy is simply skipped.
// This mirrors the teacher SDK's
// DeviceHandler, which likewise leaves Write/Read/BulkRead/Listen
// unset when a device kind doesn't support them.
type Ops struct {
	// Create is invoked when a Device of this type is instantiated. It
	// may return an error to abort creation; on failure no Device is
	// added to the registry.
	Create func(dev *Device, config map[string]interface{}) error

	// Destroy is invoked when a Device of this type is torn down.
	Destroy func(dev *Device) error

	// Reset restores a Device to its initial state.
	Reset func(dev *Device) error

	// SaveState serializes a Device's opaque user payload to bytes. The
	// registry treats the result as an opaque blob; it is never
	// interpreted or persisted by the core.
	SaveState func(dev *Device) ([]byte, error)

	// LoadState restores a Device's opaque user payload from bytes
	// previously produced by SaveState.
	LoadState func(dev *Device, data []byte) error

	// Ioctl performs a type-specific, out-of-band control operation.
	Ioctl func(dev *Device, cmd int, arg interface{}) (interface{}, error)
}

// Type is an immutable record describing a device behavioral template:
// a unique name, a capability vtable, and an opaque type-level user
// payload attached at registration.
type Type struct {
	// Name uniquely identifies the device type within a Registry.
	Name string

	// Ops is the type's capability vtable.
	Ops Ops

	// UserData is an opaque payload supplied at registration time. Ops
	// callbacks reach it through dev.Type.UserData; it is not copied
	// into the Device's own per-instance UserData field.
	UserData interface{}
}
