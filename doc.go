// Package devicesim simulates collections of interacting hardware
// devices by modeling their register/RAM spaces as instrumented memory
// regions.
//
// Client code registers device types (behavioral templates) via
// System.Devices(), instantiates devices, attaches named memory regions
// via System.Memory(), and installs watchpoints via System.Monitor()
// that fire when regions are accessed in specified ways. Watchpoints
// dispatch actions (System.Actions()). Rules (System.Rules()) pair a
// predicate with an ordered action list; the monitor never evaluates
// them itself, so client code (typically an action bound to a
// watchpoint) evaluates a rule to gate its actions. Action
// callbacks commonly write to other devices' regions, closing the
// feedback loop used to model device-to-device interactions, sensors,
// interrupts, and memory-mapped I/O.
package devicesim
