package routefsm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMachine_ConcurrentToggle(t *testing.T) {
	changes := 0
	m := newTestMachine(t, WithStateChangeHandler[testState, testEvent](func(from, to testState, _ any) {
		changes++
	}))
	require.NoError(t, m.AddRoute(eventToggle, stateInitial, stateFirst))
	require.NoError(t, m.AddRoute(eventToggle, stateFirst, stateInitial))

	sm := NewSyncMachine(m)
	require.NoError(t, sm.Start())

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				assert.True(t, sm.TryEvent(eventToggle, nil))
				_ = sm.CurrentState()
				_ = sm.CanFire(eventToggle)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, changes)
	assert.Equal(t, stateInitial, sm.CurrentState(), "an even number of toggles ends where it started")
	assert.Equal(t, stateFirst, sm.PreviousState())
}

func TestSyncMachine_ConfigureAndFire(t *testing.T) {
	sm := NewSyncMachine(newTestMachine(t))

	require.NoError(t, sm.Configure(func(m *Machine[testState, testEvent]) error {
		return m.AddRoute(eventToFirst, stateInitial, stateFirst)
	}))
	require.NoError(t, sm.Start())

	result := sm.Fire(eventToFirst, nil)
	assert.True(t, result.Success())
	assert.True(t, result.StateChanged)
	assert.Equal(t, stateFirst, sm.CurrentState())
}
