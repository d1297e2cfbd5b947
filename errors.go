package routefsm

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Machine is not in started state
	ErrCodeMachineNotStarted
	// No route exists for the event from the current state
	ErrCodeNoRoute
	// Routes exist from the current state but every guard chain rejected
	ErrCodeGuardRejected
	// An event was fired while another dispatch was still running
	ErrCodeReentrantDispatch
	// Machine configuration is invalid
	ErrCodeInvalidConfiguration
	// State is not part of the machine's enumeration
	ErrCodeUnknownState
	// Machine was already started
	ErrCodeAlreadyStarted
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeMachineNotStarted:
		return "not_started"
	case ErrCodeNoRoute:
		return "no_route"
	case ErrCodeGuardRejected:
		return "guard_rejected"
	case ErrCodeReentrantDispatch:
		return "reentrant_dispatch"
	case ErrCodeInvalidConfiguration:
		return "invalid_configuration"
	case ErrCodeUnknownState:
		return "unknown_state"
	case ErrCodeAlreadyStarted:
		return "already_started"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

var (
	ErrNotStarted           = errors.New("state machine is not started")
	ErrNoRoute              = errors.New("no route for event")
	ErrGuardRejected        = errors.New("guards rejected every route")
	ErrReentrantDispatch    = errors.New("event fired during dispatch")
	ErrInvalidConfiguration = errors.New("invalid state machine configuration")
	ErrUnknownState         = errors.New("unknown state")
	ErrAlreadyStarted       = errors.New("state machine is already started")
)

var sentinelByCode = map[ErrorCode]error{
	ErrCodeMachineNotStarted:    ErrNotStarted,
	ErrCodeNoRoute:              ErrNoRoute,
	ErrCodeGuardRejected:        ErrGuardRejected,
	ErrCodeReentrantDispatch:    ErrReentrantDispatch,
	ErrCodeInvalidConfiguration: ErrInvalidConfiguration,
	ErrCodeUnknownState:         ErrUnknownState,
	ErrCodeAlreadyStarted:       ErrAlreadyStarted,
}

// DispatchError describes why a fired event did not resolve to a route
type DispatchError struct {
	Code  ErrorCode
	Event string
	State string
}

func (e *DispatchError) Error() string {
	switch e.Code {
	case ErrCodeMachineNotStarted:
		return fmt.Sprintf("dispatch error [%s in %s]: state machine is not started", e.Event, e.State)
	case ErrCodeNoRoute:
		return fmt.Sprintf("dispatch error [%s in %s]: no route from state '%s' for event '%s'", e.Event, e.State, e.State, e.Event)
	case ErrCodeGuardRejected:
		return fmt.Sprintf("dispatch error [%s in %s]: guards rejected every route", e.Event, e.State)
	case ErrCodeReentrantDispatch:
		return fmt.Sprintf("dispatch error [%s in %s]: event fired while another event is being dispatched", e.Event, e.State)
	default:
		return fmt.Sprintf("dispatch error [%s in %s]: %s", e.Event, e.State, e.Code)
	}
}

// Is matches the sentinel error for the dispatch error code
func (e *DispatchError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}

func newDispatchError(code ErrorCode, event, state any) *DispatchError {
	return &DispatchError{
		Code:  code,
		Event: fmt.Sprint(event),
		State: fmt.Sprint(state),
	}
}

// ConfigurationError represents machine configuration issues
type ConfigurationError struct {
	Code      ErrorCode
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// Is matches the sentinel error for the configuration error code
func (e *ConfigurationError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Code:      ErrCodeInvalidConfiguration,
		Component: component,
		Issue:     issue,
	}
}

// NewUnknownStateError creates an error for a state missing from the enumeration
func NewUnknownStateError(component string, state any) *ConfigurationError {
	return &ConfigurationError{
		Code:      ErrCodeUnknownState,
		Component: component,
		Issue:     fmt.Sprintf("state '%v' is not enumerated", state),
	}
}

// MachineError represents state machine lifecycle errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// Is matches the sentinel error for the machine error code
func (e *MachineError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}

// NewMachineError creates a new machine error
func NewMachineError(code ErrorCode, operation string, message string) *MachineError {
	return &MachineError{
		Code:      code,
		Operation: operation,
		Message:   message,
	}
}

// IsDispatchError checks if an error is a DispatchError
func IsDispatchError(err error) bool {
	var e *DispatchError
	return errors.As(err, &e)
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsNoRouteError checks if dispatch failed because no route exists
func IsNoRouteError(err error) bool {
	return errors.Is(err, ErrNoRoute)
}

// IsGuardRejectedError checks if dispatch failed because guards rejected every route
func IsGuardRejectedError(err error) bool {
	return errors.Is(err, ErrGuardRejected)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Code
	}

	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return configErr.Code
	}

	var machineErr *MachineError
	if errors.As(err, &machineErr) {
		return machineErr.Code
	}

	return ErrCodeNone
}
