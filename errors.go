package goShield

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the protection engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBuilderReused is an exported constant or variable used by the protection engine.
	ErrBuilderReused = errors.New("builder already used")
	// ErrInvalidSource is an exported constant or variable used by the protection engine.
	ErrInvalidSource = errors.New("invalid source address")
	// ErrInvalidAccount is an exported constant or variable used by the protection engine.
	ErrInvalidAccount = errors.New("invalid account identifier")
	// ErrMissingAccount is an exported constant or variable used by the protection engine.
	ErrMissingAccount = errors.New("account identifier required")
	// ErrUnknownActionClass is an exported constant or variable used by the protection engine.
	ErrUnknownActionClass = errors.New("unknown action class")
	// ErrInvalidOutcome is an exported constant or variable used by the protection engine.
	ErrInvalidOutcome = errors.New("invalid reported outcome")
	// ErrBackendUnavailable is an exported constant or variable used by the protection engine.
	ErrBackendUnavailable = errors.New("protection backend unavailable")
	// ErrEventLogUnavailable is an exported constant or variable used by the protection engine.
	ErrEventLogUnavailable = errors.New("event log unavailable")
	// ErrEventsDisabled is an exported constant or variable used by the protection engine.
	ErrEventsDisabled = errors.New("event log disabled")
)
