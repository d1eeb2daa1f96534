// Package simerrs defines the typed error taxonomy shared across the
// device, memio, monitor, action, and rule packages.
//
// Each error type maps to one of the categories in the framework's error
// taxonomy: input validation, lookup, memory semantics, capability, and
// callback/external errors. Callers that need to branch on error kind
// should use errors.As against the concrete types here rather than
// string-matching Error().
package simerrs

import (
	"bytes"
	"fmt"
)

// MultiError is a collection of errors that also fulfils the error
// interface. It is used to aggregate independent failures (e.g. the
// teardown failures collected by System.Cleanup) into a single return
// value.
type MultiError struct {
	// Errors is the collection of errors being tracked.
	Errors []error

	// For names the operation the MultiError was collected for. Optional.
	For string
}

// NewMultiError creates a new, empty MultiError for the named operation.
func NewMultiError(source string) *MultiError {
	return &MultiError{For: source}
}

// Add appends an error to the MultiError.
func (e *MultiError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

// HasErrors reports whether any errors have been added.
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) != 0
}

// Err returns the MultiError if it has accumulated any errors, otherwise nil.
// This is the idiomatic way to fold a MultiError into a single error return.
func (e *MultiError) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Error fulfils the error interface.
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}

	src := e.For
	if src == "" {
		src = "unspecified"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d error(s) for: %s\n", len(e.Errors), src)
	for _, err := range e.Errors {
		fmt.Fprintf(&buf, "%s\n", err.Error())
	}
	return buf.String()
}
