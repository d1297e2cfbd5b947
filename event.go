package routefsm

// EventResult represents the result of firing an event
type EventResult[S, E comparable] struct {
	Event        E
	From         S
	To           S
	Processed    bool
	StateChanged bool
	Err          error
}

func newEventResult[S, E comparable](event E, from, to S) *EventResult[S, E] {
	return &EventResult[S, E]{
		Event: event,
		From:  from,
		To:    to,
	}
}

// withError marks the result as rejected
func (r *EventResult[S, E]) withError(err error) *EventResult[S, E] {
	r.Err = err
	r.Processed = false
	r.StateChanged = false
	return r
}

// Success returns true if the event resolved to a route
func (r *EventResult[S, E]) Success() bool {
	return r.Processed && r.Err == nil
}

// Code returns the error code of a rejected event, or ErrCodeNone
func (r *EventResult[S, E]) Code() ErrorCode {
	return GetErrorCode(r.Err)
}

// FireOption adjusts a single dispatch
type FireOption func(*fireConfig)

type fireConfig struct {
	triggerHandler bool
}

// SkipStateChangeHandler suppresses the state change handler for one dispatch.
// The route's post block and observers still run.
func SkipStateChangeHandler() FireOption {
	return func(cfg *fireConfig) {
		cfg.triggerHandler = false
	}
}
