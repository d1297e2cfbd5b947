package routefsm

import "fmt"

// Transition represents a directed edge between two states
type Transition[S comparable] struct {
	From S
	To   S
}

// NewTransition creates a new transition
func NewTransition[S comparable](from, to S) Transition[S] {
	return Transition[S]{From: from, To: to}
}

// Matches reports whether the transition connects from and to
func (t Transition[S]) Matches(from, to S) bool {
	return t.From == from && t.To == to
}

// IsSelfLoop reports whether the transition leaves the state unchanged
func (t Transition[S]) IsSelfLoop() bool {
	return t.From == t.To
}

func (t Transition[S]) String() string {
	return fmt.Sprintf("%v->%v", t.From, t.To)
}
