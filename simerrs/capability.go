package simerrs

import "fmt"

// NotSupportedError is returned when a device type's capability vtable
// does not implement the requested operation (the slot is nil).
type NotSupportedError struct {
	Type      string
	Operation string
}

// NewNotSupportedError returns a new NotSupportedError for the given type/operation.
func NewNotSupportedError(typ, operation string) *NotSupportedError {
	return &NotSupportedError{Type: typ, Operation: operation}
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("operation %q not supported by device type %q", e.Operation, e.Type)
}

// InvalidArgumentError is returned for plain parameter validation
// failures (nil pointers, zero sizes, empty names, and the like).
type InvalidArgumentError struct {
	Msg string
}

// NewInvalidArgumentError returns a new InvalidArgumentError with the given message.
func NewInvalidArgumentError(msg string) *InvalidArgumentError {
	return &InvalidArgumentError{Msg: msg}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Msg)
}
