package simerrs

import "fmt"

// ActionExecuteFailedError wraps the error returned by a failed action
// execution (callback, script, or command).
type ActionExecuteFailedError struct {
	ActionID uint32
	Cause    error
}

// NewActionExecuteFailedError returns a new ActionExecuteFailedError wrapping cause.
func NewActionExecuteFailedError(actionID uint32, cause error) *ActionExecuteFailedError {
	return &ActionExecuteFailedError{ActionID: actionID, Cause: cause}
}

func (e *ActionExecuteFailedError) Error() string {
	return fmt.Sprintf("action %d execution failed: %v", e.ActionID, e.Cause)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *ActionExecuteFailedError) Unwrap() error {
	return e.Cause
}

// RuleActionFailedError wraps the error returned by a rule's action list
// when one of the bound actions fails during evaluation.
type RuleActionFailedError struct {
	RuleID   uint32
	ActionID uint32
	Cause    error
}

// NewRuleActionFailedError returns a new RuleActionFailedError wrapping cause.
func NewRuleActionFailedError(ruleID, actionID uint32, cause error) *RuleActionFailedError {
	return &RuleActionFailedError{RuleID: ruleID, ActionID: actionID, Cause: cause}
}

func (e *RuleActionFailedError) Error() string {
	return fmt.Sprintf("rule %d action %d failed: %v", e.RuleID, e.ActionID, e.Cause)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *RuleActionFailedError) Unwrap() error {
	return e.Cause
}

// RuleConditionFailedError is returned when a rule's predicate returns
// an error, meaning the condition itself could not be evaluated.
// Predicates that simply evaluate to false are not an error.
type RuleConditionFailedError struct {
	RuleID uint32
	Cause  error
}

// NewRuleConditionFailedError returns a new RuleConditionFailedError wrapping cause.
func NewRuleConditionFailedError(ruleID uint32, cause error) *RuleConditionFailedError {
	return &RuleConditionFailedError{RuleID: ruleID, Cause: cause}
}

func (e *RuleConditionFailedError) Error() string {
	return fmt.Sprintf("rule %d condition failed: %v", e.RuleID, e.Cause)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *RuleConditionFailedError) Unwrap() error {
	return e.Cause
}

// LockError surfaces an infrastructure-level failure acquiring or
// releasing one of the component locks. The stdlib sync primitives used
// here cannot themselves fail, so this exists to give user code a
// defined error to return instead of panicking.
type LockError struct {
	Component string
	Cause     error
}

// NewLockError returns a new LockError for the given component.
func NewLockError(component string, cause error) *LockError {
	return &LockError{Component: component, Cause: cause}
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock error in %s: %v", e.Component, e.Cause)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *LockError) Unwrap() error {
	return e.Cause
}
