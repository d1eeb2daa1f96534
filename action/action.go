// Package action implements the ActionRegistry: the catalog of actions
// (callback, external script, or shell command) and the executor that
// runs one given an access context.
package action

import "github.com/deviceforge/devicesim/monitor"

// Kind discriminates an Action's invocation mechanism.
type Kind int

const (
	// Callback invokes a user-supplied Go function.
	Callback Kind = iota
	// Script launches an external script, passed positional arguments.
	Script
	// Command hands a shell command string to the host shell verbatim.
	Command
)

func (k Kind) String() string {
	switch k {
	case Callback:
		return "callback"
	case Script:
		return "script"
	case Command:
		return "command"
	default:
		return "unknown"
	}
}

// CallbackFunc is the signature of a Callback action's user function.
type CallbackFunc func(ctx monitor.Context, userData interface{}) error

// Action is a named effect invoked when a watchpoint or rule fires. Its
// id is stable, nonzero, and never reused within a run.
type Action struct {
	ID   uint32
	Kind Kind

	// fn and callbackData back Kind == Callback.
	fn           CallbackFunc
	callbackData interface{}

	// path backs Kind == Script.
	path string

	// cmd backs Kind == Command.
	cmd string

	// UserData is an opaque payload independent of the callback's own
	// bound data; it is never interpreted by the registry.
	UserData interface{}
}
