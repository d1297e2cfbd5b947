package routefsm

import (
	"log/slog"
	"strings"
)

// Option configures a state machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithName sets a human-readable machine name used in log records.
func WithName[S, E comparable](name string) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if strings.TrimSpace(name) == "" {
			return NewConfigurationError("Machine", "name cannot be empty")
		}
		m.name = name
		return nil
	}
}

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger[S, E comparable](logger *slog.Logger) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// WithStateChangeHandler registers the change notification callback.
func WithStateChangeHandler[S, E comparable](handler StateChangeHandler[S]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		m.stateChangeHandler = handler
		return nil
	}
}

// WithErrorHandler registers the callback invoked on failed resolution.
func WithErrorHandler[S, E comparable](handler ErrorHandler[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		m.errorHandler = handler
		return nil
	}
}

// WithObserver adds an observer to the machine.
func WithObserver[S, E comparable](observer Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		m.observers.AddObserver(observer)
		return nil
	}
}

// WithConfigure defers route registration until every other option is applied.
func WithConfigure[S, E comparable](configure func(*Machine[S, E]) error) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if configure != nil {
			m.pendingConfigure = append(m.pendingConfigure, configure)
		}
		return nil
	}
}
