package routefsm

import "sync"

// SyncMachine is a mutex-guarded wrapper around a Machine.
//
// Every method takes the lock for its whole duration, so callbacks and guards
// run while it is held and must not call back into the same SyncMachine.
type SyncMachine[S, E comparable] struct {
	mu      sync.Mutex
	machine *Machine[S, E]
}

// NewSyncMachine wraps an existing machine
func NewSyncMachine[S, E comparable](machine *Machine[S, E]) *SyncMachine[S, E] {
	return &SyncMachine[S, E]{machine: machine}
}

// Start starts the wrapped machine
func (s *SyncMachine[S, E]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Start()
}

// Fire dispatches an event on the wrapped machine
func (s *SyncMachine[S, E]) Fire(event E, userInfo any, opts ...FireOption) *EventResult[S, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Fire(event, userInfo, opts...)
}

// TryEvent fires an event and reports whether it resolved to a route
func (s *SyncMachine[S, E]) TryEvent(event E, userInfo any) bool {
	return s.Fire(event, userInfo).Success()
}

// CanFire reports whether the event would resolve now
func (s *SyncMachine[S, E]) CanFire(event E) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.CanFire(event)
}

// CurrentState returns the current state
func (s *SyncMachine[S, E]) CurrentState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.CurrentState()
}

// PreviousState returns the state held before the last committed transition
func (s *SyncMachine[S, E]) PreviousState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.PreviousState()
}

// Configure runs a batch of registrations under the lock
func (s *SyncMachine[S, E]) Configure(configure func(*Machine[S, E]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Configure(configure)
}
