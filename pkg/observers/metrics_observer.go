package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/routefsm"
)

// MetricsObserver collects counters about machine execution
type MetricsObserver[S, E comparable] struct {
	stateVisits      map[S]int
	eventCounts      map[E]int
	transitionCounts map[routefsm.Transition[S]]int
	rejectionCounts  map[routefsm.ErrorCode]int
	errorCount       int
	mutex            sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of collected metrics
type MetricsSnapshot[S, E comparable] struct {
	StateVisits      map[S]int
	EventCounts      map[E]int
	TransitionCounts map[routefsm.Transition[S]]int
	RejectionCounts  map[routefsm.ErrorCode]int
	ErrorCount       int
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver[S, E comparable]() *MetricsObserver[S, E] {
	o := &MetricsObserver[S, E]{}
	o.Reset()
	return o
}

// OnMachineStarted counts the starting state as visited
func (o *MetricsObserver[S, E]) OnMachineStarted(state S) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits[state]++
}

// OnTransition records transition metrics
func (o *MetricsObserver[S, E]) OnTransition(from, to S, event E, userInfo any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits[to]++
	o.eventCounts[event]++
	o.transitionCounts[routefsm.NewTransition(from, to)]++
}

// OnEventRejected records rejections by error code
func (o *MetricsObserver[S, E]) OnEventRejected(event E, state S, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.rejectionCounts[routefsm.GetErrorCode(err)]++
}

// OnError records observer failures
func (o *MetricsObserver[S, E]) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// GetStateVisitCount returns how many times a state was entered
func (o *MetricsObserver[S, E]) GetStateVisitCount(state S) int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.stateVisits[state]
}

// GetTransitionCount returns how many times a transition was committed
func (o *MetricsObserver[S, E]) GetTransitionCount(from, to S) int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.transitionCounts[routefsm.NewTransition(from, to)]
}

// GetRejectionCount returns how many events were rejected with the given code
func (o *MetricsObserver[S, E]) GetRejectionCount(code routefsm.ErrorCode) int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.rejectionCounts[code]
}

// Snapshot returns a copy of all metrics
func (o *MetricsObserver[S, E]) Snapshot() MetricsSnapshot[S, E] {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return MetricsSnapshot[S, E]{
		StateVisits:      copyCounts(o.stateVisits),
		EventCounts:      copyCounts(o.eventCounts),
		TransitionCounts: copyCounts(o.transitionCounts),
		RejectionCounts:  copyCounts(o.rejectionCounts),
		ErrorCount:       o.errorCount,
	}
}

// TransitionLabels returns transition counts keyed by "from->to"
func (s MetricsSnapshot[S, E]) TransitionLabels() map[string]int {
	labels := make(map[string]int, len(s.TransitionCounts))
	for t, count := range s.TransitionCounts {
		labels[fmt.Sprint(t)] = count
	}
	return labels
}

// Reset resets all metrics
func (o *MetricsObserver[S, E]) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits = make(map[S]int)
	o.eventCounts = make(map[E]int)
	o.transitionCounts = make(map[routefsm.Transition[S]]int)
	o.rejectionCounts = make(map[routefsm.ErrorCode]int)
	o.errorCount = 0
}

func copyCounts[K comparable](src map[K]int) map[K]int {
	dst := make(map[K]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
