// Package routefsm provides a small, generic finite state machine driven by
// routed events.
//
// States and events are any comparable Go types. A caller declares the full,
// ordered set of states, registers routes (event, from, to) optionally guarded
// by conditions, starts the machine and fires events:
//
//	type State int
//	type Event string
//
//	const (
//	    Initial State = iota
//	    First
//	    Second
//	)
//
//	m := routefsm.MustNew[State, Event](Initial, []State{Initial, First, Second})
//	_ = m.AddRoute("to_first", Initial, First)
//	_ = m.AddRoute("to_second", First, Second, func(routefsm.Transition[State]) bool {
//	    return ready
//	})
//	_ = m.Start()
//	m.TryEvent("to_first", nil)
//
// # Resolution
//
// Routes for a fired event are tried in registration order. Only routes leaving
// the current state whose conditions all pass are eligible; conditions short
// circuit on the first rejection. When several routes are eligible, one that
// leads back to the previous state wins, otherwise the first eligible route.
//
// # Notification
//
// A committed change runs, in order: the state update, the route's post block,
// the state change handler and registered observers. A route that resolves to
// the current state succeeds silently. A failed resolution calls the error
// handler and leaves the state unchanged.
//
// # Concurrency
//
// Machine does no locking and rejects events fired from its own callbacks.
// SyncMachine serialises access for use across goroutines.
package routefsm
