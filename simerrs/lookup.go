package simerrs

import "fmt"

// NotFoundError is returned when a lookup by name or id fails to resolve
// to an entity (device type, device, region, watchpoint, action, or rule).
type NotFoundError struct {
	// Kind names the entity kind that was looked up, e.g. "device".
	Kind string

	// Key is the name or id that was looked up.
	Key interface{}
}

// NewNotFoundError returns a new NotFoundError for the given entity kind and key.
func NewNotFoundError(kind string, key interface{}) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Kind, e.Key)
}

// AlreadyExistsError is returned when an operation would introduce a
// duplicate unique name (device, region-within-device, or rule name).
type AlreadyExistsError struct {
	Kind string
	Key  interface{}
}

// NewAlreadyExistsError returns a new AlreadyExistsError for the given entity kind and key.
func NewAlreadyExistsError(kind string, key interface{}) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: kind, Key: key}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %v", e.Kind, e.Key)
}

// BusyError is returned when an unregister/destroy is refused because
// dependent entities still reference the target (e.g. unregistering a
// device type with live instances).
type BusyError struct {
	Kind string
	Key  interface{}
	Why  string
}

// NewBusyError returns a new BusyError for the given entity kind and key.
func NewBusyError(kind string, key interface{}, why string) *BusyError {
	return &BusyError{Kind: kind, Key: key, Why: why}
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s busy: %v (%s)", e.Kind, e.Key, e.Why)
}
