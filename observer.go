package routefsm

import "fmt"

// Observer represents an entity that observes committed state changes.
// Observers run synchronously after the state change handler.
type Observer[S, E comparable] interface {
	// OnTransition is called for every committed change of state
	OnTransition(from, to S, event E, userInfo any)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver[S, E comparable] interface {
	Observer[S, E]

	// OnEventRejected is called when a fired event does not resolve to a route
	OnEventRejected(event E, state S, err error)

	// OnMachineStarted is called when the state machine starts
	OnMachineStarted(state S)

	// OnError is called when this observer panics
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver[S, E comparable] struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver[S, E]) OnTransition(from, to S, event E, userInfo any) {}

// OnEventRejected implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnEventRejected(event E, state S, err error) {}

// OnMachineStarted implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnMachineStarted(state S) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnError(err error) {}

// ObserverManager manages a collection of observers
type ObserverManager[S, E comparable] struct {
	observers []Observer[S, E]
}

// NewObserverManager creates a new observer manager
func NewObserverManager[S, E comparable]() *ObserverManager[S, E] {
	return &ObserverManager[S, E]{
		observers: make([]Observer[S, E], 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager[S, E]) AddObserver(observer Observer[S, E]) {
	if observer == nil {
		return
	}
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager[S, E]) RemoveObserver(observer Observer[S, E]) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager[S, E]) Len() int {
	return len(om.observers)
}

// NotifyTransition notifies all observers of a state transition
func (om *ObserverManager[S, E]) NotifyTransition(from, to S, event E, userInfo any) {
	for _, observer := range om.snapshot() {
		om.guard(observer, "OnTransition", func() {
			observer.OnTransition(from, to, event, userInfo)
		})
	}
}

// NotifyEventRejected notifies all observers of event rejection
func (om *ObserverManager[S, E]) NotifyEventRejected(event E, state S, err error) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
			om.guard(observer, "OnEventRejected", func() {
				extObs.OnEventRejected(event, state, err)
			})
		}
	}
}

// NotifyMachineStarted notifies all observers that the machine has started
func (om *ObserverManager[S, E]) NotifyMachineStarted(state S) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
			om.guard(observer, "OnMachineStarted", func() {
				extObs.OnMachineStarted(state)
			})
		}
	}
}

func (om *ObserverManager[S, E]) snapshot() []Observer[S, E] {
	observers := make([]Observer[S, E], len(om.observers))
	copy(observers, om.observers)
	return observers
}

// guard runs fn, reporting a panic to the observer itself when it can receive errors
func (om *ObserverManager[S, E]) guard(observer Observer[S, E], method string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
				func() {
					defer func() { _ = recover() }()
					extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
				}()
			}
		}
	}()

	fn()
}
