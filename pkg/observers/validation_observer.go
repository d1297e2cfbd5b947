package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/routefsm"
)

// ValidationObserver checks observed behavior against a machine's declared routes.
//
// It records a violation when a committed transition is not registered, or when
// a transition does not start where the previous one ended. It also reports
// which enumerated states were never reached.
type ValidationObserver[S, E comparable] struct {
	expectedStates     []S
	visitedStates      map[S]bool
	allowedTransitions map[E]map[routefsm.Transition[S]]bool
	lastState          S
	hasLastState       bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates a validation observer for the machine's current configuration
func NewValidationObserver[S, E comparable](machine *routefsm.Machine[S, E]) *ValidationObserver[S, E] {
	o := &ValidationObserver[S, E]{
		expectedStates:     machine.States(),
		visitedStates:      make(map[S]bool),
		allowedTransitions: make(map[E]map[routefsm.Transition[S]]bool),
		violations:         make([]string, 0),
	}

	for _, entry := range machine.Routes() {
		o.AddAllowedTransition(entry.Event, entry.Route.Transition())
	}

	o.visitedStates[machine.CurrentState()] = true
	o.lastState = machine.CurrentState()
	o.hasLastState = true

	return o
}

// AddAllowedTransition allows a transition for an event
func (o *ValidationObserver[S, E]) AddAllowedTransition(event E, transition routefsm.Transition[S]) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[event]; !exists {
		o.allowedTransitions[event] = make(map[routefsm.Transition[S]]bool)
	}
	o.allowedTransitions[event][transition] = true
}

// OnTransition validates transitions
func (o *ValidationObserver[S, E]) OnTransition(from, to S, event E, userInfo any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	transition := routefsm.NewTransition(from, to)
	if !o.allowedTransitions[event][transition] {
		o.violations = append(o.violations, fmt.Sprintf(
			"unregistered transition %s on event '%v'", transition, event))
	}

	if o.hasLastState && o.lastState != from {
		o.violations = append(o.violations, fmt.Sprintf(
			"transition %s does not continue from '%v'", transition, o.lastState))
	}

	o.visitedStates[to] = true
	o.lastState = to
	o.hasLastState = true
}

// OnEventRejected ignores rejections
func (o *ValidationObserver[S, E]) OnEventRejected(event E, state S, err error) {}

// OnMachineStarted records the starting state
func (o *ValidationObserver[S, E]) OnMachineStarted(state S) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates[state] = true
	o.lastState = state
	o.hasLastState = true
}

// OnError records observer failures as violations
func (o *ValidationObserver[S, E]) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("observer error: %v", err))
}

// GetViolations returns all validation violations
func (o *ValidationObserver[S, E]) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns enumerated states that were never reached, in declared order
func (o *ValidationObserver[S, E]) GetUnvisitedStates() []S {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []S
	for _, state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	return unvisited
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver[S, E]) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}
