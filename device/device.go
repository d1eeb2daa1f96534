package device

// Device is a single instantiated device: a unique instance name bound
// to exactly one Type. It owns an opaque per-instance user payload set
// during Create and free to be read/mutated by later callbacks (Reset,
// SaveState, LoadState, Ioctl, and any externally-bound watchpoint/rule
// action that resolves the Device by name).
type Device struct {
	// Name uniquely identifies the device instance within a Registry.
	Name string

	// Type is the device type this instance was created from.
	Type *Type

	// Config is the configuration map passed to Create.
	Config map[string]interface{}

	// UserData is the opaque per-instance payload. The core never
	// interprets it; Ops callbacks are free to replace or mutate it.
	UserData interface{}
}
