package routefsm

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// StateChangeHandler is notified after every committed change of state
type StateChangeHandler[S comparable] func(from, to S, userInfo any)

// ErrorHandler is notified when a fired event does not resolve to a route
type ErrorHandler[S, E comparable] func(event E, state S)

// RouteEntry pairs a registered route with its event
type RouteEntry[S, E comparable] struct {
	Event E
	Route *Route[S, E]
}

// Machine is a finite state machine driven by routed events.
//
// A Machine is not safe for concurrent use. It is configured with routes, started
// once, and then driven with Fire or TryEvent. Every dispatch runs guards, commits
// the new state and invokes callbacks before returning. Use SyncMachine to share
// a machine between goroutines.
type Machine[S, E comparable] struct {
	id   string
	name string

	initialState  S
	currentState  S
	previousState S

	states     []S
	stateIndex map[S]int
	routes     *RouteTable[S, E]

	stateChangeHandler StateChangeHandler[S]
	errorHandler       ErrorHandler[S, E]
	observers          *ObserverManager[S, E]
	logger             *slog.Logger

	pendingConfigure []func(*Machine[S, E]) error

	initialized bool
	started     bool
	dispatching bool
}

// New creates a state machine positioned at the initial state.
//
// states is the full, ordered enumeration of S. It must be non-empty, free of
// duplicates and contain the initial state. Routes registered with
// AddRoutesFromAny follow this order.
func New[S, E comparable](initial S, states []S, opts ...Option[S, E]) (*Machine[S, E], error) {
	if len(states) == 0 {
		return nil, NewConfigurationError("Machine", "state enumeration cannot be empty")
	}

	index := make(map[S]int, len(states))
	for i, state := range states {
		if _, exists := index[state]; exists {
			return nil, NewConfigurationError("Machine", fmt.Sprintf("state '%v' is enumerated twice", state))
		}
		index[state] = i
	}

	if _, exists := index[initial]; !exists {
		return nil, NewUnknownStateError("Machine", initial)
	}

	enumerated := make([]S, len(states))
	copy(enumerated, states)

	m := &Machine[S, E]{
		id:            uuid.New().String(),
		name:          "machine",
		initialState:  initial,
		currentState:  initial,
		previousState: initial,
		states:        enumerated,
		stateIndex:    index,
		routes:        NewRouteTable[S, E](),
		observers:     NewObserverManager[S, E](),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	pending := m.pendingConfigure
	m.pendingConfigure = nil
	for _, configure := range pending {
		if err := configure(m); err != nil {
			return nil, err
		}
	}

	m.initialized = true
	return m, nil
}

// MustNew works like New but panics if the machine cannot be created.
func MustNew[S, E comparable](initial S, states []S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, states, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// ID returns the unique identifier of this machine instance
func (m *Machine[S, E]) ID() string {
	return m.id
}

// Name returns the machine name
func (m *Machine[S, E]) Name() string {
	return m.name
}

// Configure runs a batch of registrations against the machine
func (m *Machine[S, E]) Configure(configure func(*Machine[S, E]) error) error {
	if configure == nil {
		return nil
	}
	return configure(m)
}

// Start makes the machine accept events. It does not fire the state change handler.
func (m *Machine[S, E]) Start() error {
	if !m.initialized {
		return NewMachineError(ErrCodeInvalidConfiguration, "Start", "machine was not created with New")
	}

	if m.started {
		return NewMachineError(ErrCodeAlreadyStarted, "Start", "machine is already started")
	}

	m.started = true
	m.logger.Info("state machine started", m.attrs(slog.Any("state", m.currentState))...)
	m.observers.NotifyMachineStarted(m.currentState)

	return nil
}

// IsStarted reports whether Start has been called
func (m *Machine[S, E]) IsStarted() bool {
	return m.started
}

// CurrentState returns the current state
func (m *Machine[S, E]) CurrentState() S {
	return m.currentState
}

// PreviousState returns the state held before the last committed transition
func (m *Machine[S, E]) PreviousState() S {
	return m.previousState
}

// InitialState returns the state the machine was created with
func (m *Machine[S, E]) InitialState() S {
	return m.initialState
}

// States returns the enumeration of states in declared order
func (m *Machine[S, E]) States() []S {
	states := make([]S, len(m.states))
	copy(states, m.states)
	return states
}

// IsKnownState reports whether the state is part of the enumeration
func (m *Machine[S, E]) IsKnownState(state S) bool {
	_, exists := m.stateIndex[state]
	return exists
}

// OnStateChange replaces the state change handler
func (m *Machine[S, E]) OnStateChange(handler StateChangeHandler[S]) {
	m.stateChangeHandler = handler
}

// OnError replaces the error handler
func (m *Machine[S, E]) OnError(handler ErrorHandler[S, E]) {
	m.errorHandler = handler
}

// AddObserver adds an observer to the machine
func (m *Machine[S, E]) AddObserver(observer Observer[S, E]) {
	m.observers.AddObserver(observer)
}

// RemoveObserver removes an observer from the machine
func (m *Machine[S, E]) RemoveObserver(observer Observer[S, E]) {
	m.observers.RemoveObserver(observer)
}

// AddRoute registers a route for event from one state to another.
// Conditions are evaluated in the given order.
func (m *Machine[S, E]) AddRoute(event E, from, to S, conditions ...Condition[S]) error {
	return m.AddRouteWithPostBlock(event, from, to, nil, conditions...)
}

// AddRouteWithPostBlock registers a route whose post block runs after the state changes.
func (m *Machine[S, E]) AddRouteWithPostBlock(event E, from, to S, postBlock PostBlock[S, E], conditions ...Condition[S]) error {
	if err := m.validateStates("AddRoute", from, to); err != nil {
		return err
	}

	m.routes.Add(event, NewRoute(NewTransition(from, to), postBlock, conditions...))
	return nil
}

// AddRoutesFrom registers one route per source state, all leading to the same target.
func (m *Machine[S, E]) AddRoutesFrom(event E, from []S, to S, conditions ...Condition[S]) error {
	if err := m.validateStates("AddRoutesFrom", append([]S{to}, from...)...); err != nil {
		return err
	}

	for _, source := range from {
		m.routes.Add(event, NewRoute[S, E](NewTransition(source, to), nil, conditions...))
	}
	return nil
}

// AddRoutesTo registers one route per target state, all leaving the same source.
func (m *Machine[S, E]) AddRoutesTo(event E, from S, to []S, conditions ...Condition[S]) error {
	if err := m.validateStates("AddRoutesTo", append([]S{from}, to...)...); err != nil {
		return err
	}

	for _, target := range to {
		m.routes.Add(event, NewRoute[S, E](NewTransition(from, target), nil, conditions...))
	}
	return nil
}

// AddRoutesFromAny registers a route from every enumerated state to the target,
// including the target itself.
func (m *Machine[S, E]) AddRoutesFromAny(event E, to S, conditions ...Condition[S]) error {
	return m.AddRoutesFrom(event, m.states, to, conditions...)
}

// Routes returns a snapshot of every registered route, grouped by event
func (m *Machine[S, E]) Routes() []RouteEntry[S, E] {
	entries := make([]RouteEntry[S, E], 0, m.routes.Len())
	m.routes.Each(func(event E, route *Route[S, E]) bool {
		entries = append(entries, RouteEntry[S, E]{Event: event, Route: route})
		return true
	})
	return entries
}

// HasRoute reports whether a route for the event leaves the current state.
// Guards are not evaluated.
func (m *Machine[S, E]) HasRoute(event E) bool {
	for _, route := range m.routes.RoutesFor(event) {
		if route.transition.From == m.currentState {
			return true
		}
	}
	return false
}

// CanFire reports whether firing the event now would resolve to a route.
// Guards are evaluated, so guards with side effects run; no state is committed
// and no callback fires.
func (m *Machine[S, E]) CanFire(event E) bool {
	route, _ := m.resolve(event)
	return route != nil
}

// TryEvent fires an event and reports whether it resolved to a route
func (m *Machine[S, E]) TryEvent(event E, userInfo any) bool {
	return m.Fire(event, userInfo).Success()
}

// TryEventWithoutHandler fires an event without invoking the state change handler
func (m *Machine[S, E]) TryEventWithoutHandler(event E, userInfo any) bool {
	return m.Fire(event, userInfo, SkipStateChangeHandler()).Success()
}

// Fire dispatches an event synchronously.
//
// The route is resolved against the current state. On failure the error handler
// is called and the state is left untouched. On success the state is committed,
// then the route's post block runs, then the state change handler, then
// observers. A route leading back to the current state succeeds without any
// callback.
func (m *Machine[S, E]) Fire(event E, userInfo any, opts ...FireOption) *EventResult[S, E] {
	cfg := fireConfig{triggerHandler: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	fromState := m.currentState
	result := newEventResult(event, fromState, fromState)

	if !m.initialized || !m.started {
		return result.withError(newDispatchError(ErrCodeMachineNotStarted, event, fromState))
	}

	if m.dispatching {
		m.logger.Warn("reentrant dispatch rejected", m.attrs(slog.Any("event", event), slog.Any("state", fromState))...)
		return result.withError(newDispatchError(ErrCodeReentrantDispatch, event, fromState))
	}

	m.dispatching = true
	defer func() { m.dispatching = false }()

	route, code := m.resolve(event)
	if route == nil {
		err := newDispatchError(code, event, fromState)
		m.logger.Debug("event rejected",
			m.attrs(slog.Any("event", event), slog.Any("state", fromState), slog.String("reason", code.String()))...)

		if m.errorHandler != nil {
			m.errorHandler(event, fromState)
		}
		m.observers.NotifyEventRejected(event, fromState, err)

		return result.withError(err)
	}

	newState := route.transition.To
	result.Processed = true
	result.To = newState

	if newState == m.currentState {
		return result
	}

	m.previousState = fromState
	m.currentState = newState
	result.StateChanged = true

	m.logger.Debug("state changed",
		m.attrs(slog.Any("event", event), slog.Any("from", fromState), slog.Any("to", newState))...)

	if route.postBlock != nil {
		route.postBlock(event, fromState, newState)
	}

	if cfg.triggerHandler && m.stateChangeHandler != nil {
		m.stateChangeHandler(fromState, newState, userInfo)
	}

	m.observers.NotifyTransition(fromState, newState, event, userInfo)

	return result
}

// resolve selects at most one route for the event from the current state.
//
// Candidates leaving the current state are filtered by their guard chains in
// registration order. Among the survivors the first one leading back to the
// previous state wins, otherwise the first survivor does.
func (m *Machine[S, E]) resolve(event E) (*Route[S, E], ErrorCode) {
	candidates := m.routes.RoutesFor(event)
	if len(candidates) == 0 {
		return nil, ErrCodeNoRoute
	}

	current := m.currentState
	leavesCurrent := false
	passed := make([]*Route[S, E], 0, len(candidates))

	for _, route := range candidates {
		if route.transition.From != current {
			continue
		}
		leavesCurrent = true

		if route.Evaluate(current, route.transition.To) {
			passed = append(passed, route)
		}
	}

	if len(passed) == 0 {
		if leavesCurrent {
			return nil, ErrCodeGuardRejected
		}
		return nil, ErrCodeNoRoute
	}

	for _, route := range passed {
		if route.transition.To == m.previousState {
			return route, ErrCodeNone
		}
	}

	return passed[0], ErrCodeNone
}

func (m *Machine[S, E]) validateStates(component string, states ...S) error {
	for _, state := range states {
		if _, exists := m.stateIndex[state]; !exists {
			return NewUnknownStateError(component, state)
		}
	}
	return nil
}

func (m *Machine[S, E]) attrs(extra ...slog.Attr) []any {
	args := make([]any, 0, len(extra)+2)
	args = append(args, slog.String("machine_id", m.id), slog.String("machine", m.name))
	for _, attr := range extra {
		args = append(args, attr)
	}
	return args
}
