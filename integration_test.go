package routefsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/routefsm"
)

type State string

const (
	Initial State = "Initial"
	First   State = "First"
	Second  State = "Second"
)

type Event int

const (
	ToFirst Event = iota
	ToSecond
	ToReset
)

var allStates = []State{Initial, First, Second}

type change struct {
	from, to State
	info     any
}

type failure struct {
	event Event
	state State
}

func TestIntegration_GuardedTwoStepScenario(t *testing.T) {
	var changes []change
	var failures []failure
	ready := false

	m, err := routefsm.New[State, Event](Initial, allStates,
		routefsm.WithStateChangeHandler[State, Event](func(from, to State, info any) {
			changes = append(changes, change{from, to, info})
		}),
		routefsm.WithErrorHandler(func(event Event, state State) {
			failures = append(failures, failure{event, state})
		}),
		routefsm.WithConfigure(func(m *routefsm.Machine[State, Event]) error {
			if err := m.AddRoute(ToFirst, Initial, First); err != nil {
				return err
			}
			return m.AddRoute(ToSecond, First, Second, func(routefsm.Transition[State]) bool {
				return ready
			})
		}),
	)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	assert.True(t, m.TryEvent(ToFirst, nil))
	assert.Equal(t, First, m.CurrentState())

	assert.False(t, m.TryEvent(ToSecond, nil))
	assert.Equal(t, First, m.CurrentState())
	assert.Equal(t, []failure{{ToSecond, First}}, failures)

	ready = true
	assert.True(t, m.TryEvent(ToSecond, nil))
	assert.Equal(t, Second, m.CurrentState())

	assert.Equal(t, []change{
		{Initial, First, nil},
		{First, Second, nil},
	}, changes)
	assert.Len(t, failures, 1)
}

func TestIntegration_ResetFromEveryState(t *testing.T) {
	var changes []change

	m := routefsm.MustNew[State, Event](Initial, allStates,
		routefsm.WithStateChangeHandler[State, Event](func(from, to State, info any) {
			changes = append(changes, change{from, to, info})
		}),
	)
	require.NoError(t, m.AddRoutesFromAny(ToReset, Initial))
	require.NoError(t, m.AddRoute(ToFirst, Initial, First))
	require.NoError(t, m.AddRoute(ToSecond, First, Second))
	require.NoError(t, m.Start())

	assert.True(t, m.TryEvent(ToReset, nil), "reset from the target is a harmless self loop")
	assert.Empty(t, changes)

	for _, path := range [][]Event{{ToFirst}, {ToFirst, ToSecond}} {
		for _, event := range path {
			require.True(t, m.TryEvent(event, nil))
		}
		from := m.CurrentState()
		require.True(t, m.TryEvent(ToReset, "reset"))
		assert.Equal(t, Initial, m.CurrentState())
		assert.Equal(t, change{from, Initial, "reset"}, changes[len(changes)-1])
	}
}

func TestIntegration_ToggleReturnsToPreviousState(t *testing.T) {
	const Toggle Event = 99

	m := routefsm.MustNew[State, Event](Initial, allStates)
	require.NoError(t, m.AddRoute(ToFirst, Initial, First))
	require.NoError(t, m.AddRoute(ToSecond, Initial, Second))
	require.NoError(t, m.AddRoutesTo(Toggle, First, []State{Second, Initial}))
	require.NoError(t, m.AddRoutesTo(Toggle, Second, []State{First, Initial}))
	require.NoError(t, m.Start())

	require.True(t, m.TryEvent(ToSecond, nil))
	require.True(t, m.TryEvent(Toggle, nil))
	assert.Equal(t, Initial, m.CurrentState(), "toggle from Second goes back to Initial rather than First")
}

func TestIntegration_SyncMachineObserver(t *testing.T) {
	observer := &countingObserver{}
	m := routefsm.MustNew[State, Event](Initial, allStates, routefsm.WithObserver[State, Event](observer))
	require.NoError(t, m.AddRoute(ToFirst, Initial, First))

	sm := routefsm.NewSyncMachine(m)
	require.NoError(t, sm.Start())
	require.True(t, sm.TryEvent(ToFirst, nil))

	assert.Equal(t, 1, observer.count)
}

type countingObserver struct {
	count int
}

func (o *countingObserver) OnTransition(from, to State, event Event, userInfo any) {
	o.count++
}
