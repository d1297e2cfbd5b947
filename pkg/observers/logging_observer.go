// Package observers provides observers for monitoring routefsm machines
package observers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/anggasct/routefsm"
)

// LoggingObserver writes structured records for machine notifications
type LoggingObserver[S, E comparable] struct {
	logger          *slog.Logger
	transitionLevel slog.Level
	rejectionLevel  slog.Level
	mutex           sync.RWMutex
}

// LoggingOption configures a LoggingObserver
type LoggingOption func(*loggingConfig)

type loggingConfig struct {
	transitionLevel slog.Level
	rejectionLevel  slog.Level
}

// WithTransitionLevel sets the level used for committed transitions
func WithTransitionLevel(level slog.Level) LoggingOption {
	return func(c *loggingConfig) { c.transitionLevel = level }
}

// WithRejectionLevel sets the level used for rejected events
func WithRejectionLevel(level slog.Level) LoggingOption {
	return func(c *loggingConfig) { c.rejectionLevel = level }
}

// NewLoggingObserver creates a new logging observer. A nil logger falls back to slog.Default.
func NewLoggingObserver[S, E comparable](logger *slog.Logger, opts ...LoggingOption) *LoggingObserver[S, E] {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := loggingConfig{
		transitionLevel: slog.LevelInfo,
		rejectionLevel:  slog.LevelWarn,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &LoggingObserver[S, E]{
		logger:          logger,
		transitionLevel: cfg.transitionLevel,
		rejectionLevel:  cfg.rejectionLevel,
	}
}

// SetLogger replaces the underlying logger
func (o *LoggingObserver[S, E]) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.logger = logger
}

func (o *LoggingObserver[S, E]) log(level slog.Level, msg string, attrs ...slog.Attr) {
	o.mutex.RLock()
	logger := o.logger
	o.mutex.RUnlock()

	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// OnTransition logs transitions
func (o *LoggingObserver[S, E]) OnTransition(from, to S, event E, userInfo any) {
	attrs := []slog.Attr{
		slog.Any("event", event),
		slog.Any("from", from),
		slog.Any("to", to),
	}
	if userInfo != nil {
		attrs = append(attrs, slog.Any("user_info", userInfo))
	}
	o.log(o.transitionLevel, "state transition", attrs...)
}

// OnEventRejected logs rejected events
func (o *LoggingObserver[S, E]) OnEventRejected(event E, state S, err error) {
	o.log(o.rejectionLevel, "event rejected",
		slog.Any("event", event),
		slog.Any("state", state),
		slog.String("reason", routefsm.GetErrorCode(err).String()),
		slog.Any("error", err),
	)
}

// OnMachineStarted logs machine start
func (o *LoggingObserver[S, E]) OnMachineStarted(state S) {
	o.log(slog.LevelInfo, "state machine started", slog.Any("state", state))
}

// OnError logs observer failures
func (o *LoggingObserver[S, E]) OnError(err error) {
	o.log(slog.LevelError, "observer error", slog.Any("error", err))
}
