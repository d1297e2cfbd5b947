package routefsm

import "fmt"

// Condition evaluates whether a route may be taken for the given transition.
// Conditions may have side effects; the engine never caches their result.
type Condition[S comparable] func(t Transition[S]) bool

// PostBlock runs right after a route commits a real state change
type PostBlock[S, E comparable] func(event E, from, to S)

// Route binds a transition to an ordered guard chain and an optional post block.
// A route is immutable once created.
type Route[S, E comparable] struct {
	transition Transition[S]
	conditions []Condition[S]
	postBlock  PostBlock[S, E]
}

// NewRoute creates a route. Nil conditions are skipped.
func NewRoute[S, E comparable](transition Transition[S], postBlock PostBlock[S, E], conditions ...Condition[S]) *Route[S, E] {
	conds := make([]Condition[S], 0, len(conditions))
	for _, c := range conditions {
		if c != nil {
			conds = append(conds, c)
		}
	}

	return &Route[S, E]{
		transition: transition,
		conditions: conds,
		postBlock:  postBlock,
	}
}

// Transition returns the edge this route covers
func (r *Route[S, E]) Transition() Transition[S] {
	return r.transition
}

// HasConditions reports whether the route is guarded
func (r *Route[S, E]) HasConditions() bool {
	return len(r.conditions) > 0
}

// ConditionCount returns the number of guards attached to the route
func (r *Route[S, E]) ConditionCount() int {
	return len(r.conditions)
}

// HasPostBlock reports whether a post block is attached
func (r *Route[S, E]) HasPostBlock() bool {
	return r.postBlock != nil
}

// Evaluate reports whether the route accepts a move from one state to another.
//
// The candidate pair must equal the route's own transition. Conditions then run
// in registration order and evaluation stops at the first one that fails, so a
// later condition never runs after an earlier rejection.
func (r *Route[S, E]) Evaluate(from, to S) bool {
	if !r.transition.Matches(from, to) {
		return false
	}

	for _, condition := range r.conditions {
		if !safeEvaluateCondition(condition, r.transition) {
			return false
		}
	}

	return true
}

func (r *Route[S, E]) String() string {
	return fmt.Sprintf("route %s (guards: %d)", r.transition, len(r.conditions))
}

// safeEvaluateCondition evaluates a condition, treating a panic as rejection
func safeEvaluateCondition[S comparable](condition Condition[S], t Transition[S]) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			result = false
		}
	}()

	return condition(t)
}
