// Package simerr declares the typed error conditions raised by the
// simulation core: message construction, engine state-machine violations,
// and scheduling/causality failures.
package simerr

import "errors"

// Message construction.
var ErrArgumentCountMismatch = errors.New("argument count mismatch")

// Object registry.
var (
	ErrDuplicateObjectName      = errors.New("duplicate object name")
	ErrUnregisteredObject       = errors.New("unregistered object")
	ErrObjectHasPendingEvents   = errors.New("object has pending events")
)

// Stop condition.
var ErrNotCallable = errors.New("stop condition is not callable")

// Engine state machine.
var (
	ErrAlreadyInitialized = errors.New("simulation already initialized")
	ErrNotInitialized     = errors.New("simulation not initialized")
	ErrNoObjects          = errors.New("simulation has no objects")
	ErrNoEvents           = errors.New("simulation has no events")
)

// Scheduling and causality.
var (
	ErrNegativeTime       = errors.New("negative time")
	ErrCausalityViolation = errors.New("causality violation")
)

// Message dispatch surface.
var (
	ErrUnregisteredMessageType = errors.New("unregistered message type")
	ErrUnhandledMessageType    = errors.New("unhandled message type")
)
