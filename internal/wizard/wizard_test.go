package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineWalksAllStates(t *testing.T) {
	t.Parallel()

	m := New()
	assert.Equal(t, Idle, m.Current())

	visited := []State{m.Current()}
	for !m.Done() {
		to, ok := m.Next()
		require.True(t, ok)
		require.NoError(t, m.Advance(to))
		visited = append(visited, m.Current())
	}

	assert.Equal(t, States(), visited)
	assert.Equal(t, RecommendationsReady, m.Current())

	_, ok := m.Next()
	assert.False(t, ok)
}

func TestMachineRejectsOutOfOrderTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from []State
		to   State
	}{
		{name: "skip", to: GapsReady},
		{name: "stay", to: Idle},
		{name: "back", from: []State{SummaryReady, BulletReady}, to: SummaryReady},
		{name: "past the end", from: []State{SummaryReady, BulletReady, GapsReady, DriversReady, RecommendationsReady}, to: State(6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var m Machine
			for _, s := range tt.from {
				require.NoError(t, m.Advance(s))
			}
			before := m.Current()

			err := m.Advance(tt.to)
			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestMachineReset(t *testing.T) {
	t.Parallel()

	m := New()
	require.NoError(t, m.Advance(SummaryReady))
	m.Reset()
	assert.Equal(t, Idle, m.Current())
	assert.NoError(t, m.Advance(SummaryReady))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gaps_ready", GapsReady.String())
	assert.Equal(t, "state(42)", State(42).String())
}
