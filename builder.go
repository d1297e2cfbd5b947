package routefsm

import "fmt"

// Builder provides a fluent way to declare a machine's routes state by state
//
//	b := routefsm.NewBuilder[State, Event](Locked, Unlocked)
//	b.State(Locked).Initial().
//		To(Unlocked).On(Coin).When(paid).Do(thank)
//	b.State(Unlocked).
//		To(Locked).On(Push)
//	b.AnyState().To(Locked).On(Reset)
//	m, err := b.Build()
type Builder[S, E comparable] struct {
	states     []S
	initial    S
	hasInitial bool
	anyInitial bool
	routes     []*RouteBuilder[S, E]
}

// StateBuilder declares routes leaving one state, or every state
type StateBuilder[S, E comparable] struct {
	builder *Builder[S, E]
	source  S
	any     bool
}

// RouteBuilder configures a single declared route
type RouteBuilder[S, E comparable] struct {
	state      *StateBuilder[S, E]
	target     S
	selfLoop   bool
	event      E
	hasEvent   bool
	conditions []Condition[S]
	postBlock  PostBlock[S, E]
}

// NewBuilder creates a builder over the given state enumeration
func NewBuilder[S, E comparable](states ...S) *Builder[S, E] {
	return &Builder[S, E]{
		states: states,
		routes: make([]*RouteBuilder[S, E], 0),
	}
}

// State starts declaring routes leaving id
func (b *Builder[S, E]) State(id S) *StateBuilder[S, E] {
	return &StateBuilder[S, E]{builder: b, source: id}
}

// AnyState starts declaring routes leaving every enumerated state
func (b *Builder[S, E]) AnyState() *StateBuilder[S, E] {
	return &StateBuilder[S, E]{builder: b, any: true}
}

// Initial marks the state as the machine's initial state.
// Calling it on AnyState makes Build fail.
func (sb *StateBuilder[S, E]) Initial() *StateBuilder[S, E] {
	if sb.any {
		sb.builder.anyInitial = true
		return sb
	}
	sb.builder.initial = sb.source
	sb.builder.hasInitial = true
	return sb
}

// To declares a route from this state to target
func (sb *StateBuilder[S, E]) To(target S) *RouteBuilder[S, E] {
	rb := &RouteBuilder[S, E]{state: sb, target: target}
	sb.builder.routes = append(sb.builder.routes, rb)
	return rb
}

// ToSelf declares a route leading back to this state.
// On AnyState every enumerated state gets its own self loop.
func (sb *StateBuilder[S, E]) ToSelf() *RouteBuilder[S, E] {
	rb := sb.To(sb.source)
	rb.selfLoop = true
	return rb
}

// On sets the event for this route
func (rb *RouteBuilder[S, E]) On(event E) *RouteBuilder[S, E] {
	rb.event = event
	rb.hasEvent = true
	return rb
}

// When appends a guard condition
func (rb *RouteBuilder[S, E]) When(condition Condition[S]) *RouteBuilder[S, E] {
	if condition != nil {
		rb.conditions = append(rb.conditions, condition)
	}
	return rb
}

// Unless appends a negated guard condition
func (rb *RouteBuilder[S, E]) Unless(condition Condition[S]) *RouteBuilder[S, E] {
	if condition == nil {
		return rb
	}
	return rb.When(func(t Transition[S]) bool {
		return !condition(t)
	})
}

// Do sets the post block run after the route commits
func (rb *RouteBuilder[S, E]) Do(postBlock PostBlock[S, E]) *RouteBuilder[S, E] {
	rb.postBlock = postBlock
	return rb
}

// To declares another route from the same source state
func (rb *RouteBuilder[S, E]) To(target S) *RouteBuilder[S, E] {
	return rb.state.To(target)
}

// State starts declaring routes leaving another state
func (rb *RouteBuilder[S, E]) State(id S) *StateBuilder[S, E] {
	return rb.state.builder.State(id)
}

// Build creates an unstarted machine with every declared route registered in declaration order
func (rb *RouteBuilder[S, E]) Build(opts ...Option[S, E]) (*Machine[S, E], error) {
	return rb.state.builder.Build(opts...)
}

// Build creates an unstarted machine with every declared route registered in declaration order
func (b *Builder[S, E]) Build(opts ...Option[S, E]) (*Machine[S, E], error) {
	if b.anyInitial {
		return nil, NewConfigurationError("Builder", "AnyState cannot be the initial state")
	}
	if !b.hasInitial {
		return nil, NewConfigurationError("Builder", "no initial state defined")
	}

	m, err := New(b.initial, b.states, opts...)
	if err != nil {
		return nil, err
	}

	for _, rb := range b.routes {
		if !rb.hasEvent {
			return nil, NewConfigurationError("Builder", fmt.Sprintf("route to '%v' has no event", rb.target))
		}

		sources := []S{rb.state.source}
		if rb.state.any {
			sources = m.States()
		}

		for _, source := range sources {
			target := rb.target
			if rb.selfLoop {
				target = source
			}
			if err := m.AddRouteWithPostBlock(rb.event, source, target, rb.postBlock, rb.conditions...); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
