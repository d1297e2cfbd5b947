package routefsm

// RouteTable maps events to the routes registered for them, in registration order.
// Entries are append-only.
type RouteTable[S, E comparable] struct {
	routes map[E][]*Route[S, E]
	events []E
	size   int
}

// NewRouteTable creates an empty route table
func NewRouteTable[S, E comparable]() *RouteTable[S, E] {
	return &RouteTable[S, E]{
		routes: make(map[E][]*Route[S, E]),
	}
}

// Add appends a route to the bucket of the given event, creating the bucket when absent.
// Equal routes are kept side by side and evaluated independently.
func (rt *RouteTable[S, E]) Add(event E, route *Route[S, E]) {
	bucket, exists := rt.routes[event]
	if !exists {
		bucket = make([]*Route[S, E], 0, 1)
		rt.events = append(rt.events, event)
	}

	rt.routes[event] = append(bucket, route)
	rt.size++
}

// RoutesFor returns a snapshot of the routes registered for an event
func (rt *RouteTable[S, E]) RoutesFor(event E) []*Route[S, E] {
	bucket := rt.routes[event]
	if len(bucket) == 0 {
		return nil
	}

	snapshot := make([]*Route[S, E], len(bucket))
	copy(snapshot, bucket)
	return snapshot
}

// Has reports whether any route is registered for the event
func (rt *RouteTable[S, E]) Has(event E) bool {
	return len(rt.routes[event]) > 0
}

// Events returns the known events in first-registration order
func (rt *RouteTable[S, E]) Events() []E {
	events := make([]E, len(rt.events))
	copy(events, rt.events)
	return events
}

// Len returns the total number of registered routes
func (rt *RouteTable[S, E]) Len() int {
	return rt.size
}

// Each visits every route grouped by event, in registration order.
// Returning false from fn stops the walk.
func (rt *RouteTable[S, E]) Each(fn func(event E, route *Route[S, E]) bool) {
	for _, event := range rt.events {
		for _, route := range rt.routes[event] {
			if !fn(event, route) {
				return
			}
		}
	}
}
