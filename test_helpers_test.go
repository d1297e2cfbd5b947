package routefsm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testState int

const (
	stateInitial testState = iota
	stateFirst
	stateSecond
)

func (s testState) String() string {
	switch s {
	case stateInitial:
		return "Initial"
	case stateFirst:
		return "First"
	case stateSecond:
		return "Second"
	default:
		return "Unknown"
	}
}

var allTestStates = []testState{stateInitial, stateFirst, stateSecond}

type testEvent string

const (
	eventToFirst  testEvent = "to_first"
	eventToSecond testEvent = "to_second"
	eventReset    testEvent = "reset"
	eventToggle   testEvent = "toggle"
	eventUnknown  testEvent = "unknown"
)

type stateChange struct {
	From     testState
	To       testState
	UserInfo any
}

type rejection struct {
	Event testEvent
	State testState
}

type postCall struct {
	Event testEvent
	From  testState
	To    testState
}

// callbackRecorder captures every callback a machine invokes, in order
type callbackRecorder struct {
	Changes    []stateChange
	Rejections []rejection
	Posts      []postCall
	Sequence   []string
}

func (r *callbackRecorder) stateChangeHandler() StateChangeHandler[testState] {
	return func(from, to testState, userInfo any) {
		r.Changes = append(r.Changes, stateChange{From: from, To: to, UserInfo: userInfo})
		r.Sequence = append(r.Sequence, "change")
	}
}

func (r *callbackRecorder) errorHandler() ErrorHandler[testState, testEvent] {
	return func(event testEvent, state testState) {
		r.Rejections = append(r.Rejections, rejection{Event: event, State: state})
		r.Sequence = append(r.Sequence, "error")
	}
}

func (r *callbackRecorder) postBlock() PostBlock[testState, testEvent] {
	return func(event testEvent, from, to testState) {
		r.Posts = append(r.Posts, postCall{Event: event, From: from, To: to})
		r.Sequence = append(r.Sequence, "post")
	}
}

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex       sync.Mutex
	Transitions []stateChange
	Rejects     []rejection
	RejectErrs  []error
	Started     []testState
	Errors      []error
	Sequence    *[]string
}

func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) OnTransition(from, to testState, event testEvent, userInfo any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Transitions = append(o.Transitions, stateChange{From: from, To: to, UserInfo: userInfo})
	if o.Sequence != nil {
		*o.Sequence = append(*o.Sequence, "observer")
	}
}

func (o *TestObserver) OnEventRejected(event testEvent, state testState, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Rejects = append(o.Rejects, rejection{Event: event, State: state})
	o.RejectErrs = append(o.RejectErrs, err)
}

func (o *TestObserver) OnMachineStarted(state testState) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Started = append(o.Started, state)
}

func (o *TestObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

func newTestMachine(t *testing.T, opts ...Option[testState, testEvent]) *Machine[testState, testEvent] {
	t.Helper()

	m, err := New[testState, testEvent](stateInitial, allTestStates, opts...)
	require.NoError(t, err)
	return m
}

func newStartedMachine(t *testing.T, opts ...Option[testState, testEvent]) *Machine[testState, testEvent] {
	t.Helper()

	m := newTestMachine(t, opts...)
	require.NoError(t, m.Start())
	return m
}

func always(Transition[testState]) bool { return true }

func never(Transition[testState]) bool { return false }

// countingCondition returns a condition with a fixed result that counts its calls
func countingCondition(result bool, calls *int) Condition[testState] {
	return func(Transition[testState]) bool {
		*calls++
		return result
	}
}
