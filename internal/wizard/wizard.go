// Package wizard tracks the progress of an analysis through its steps.
package wizard

import (
	"errors"
	"fmt"
	"sync"
)

// State is a point in the analysis flow.
type State int

const (
	Idle State = iota
	SummaryReady
	BulletReady
	GapsReady
	DriversReady
	RecommendationsReady
)

var names = map[State]string{
	Idle:                 "idle",
	SummaryReady:         "summary_ready",
	BulletReady:          "bullet_ready",
	GapsReady:            "gaps_ready",
	DriversReady:         "drivers_ready",
	RecommendationsReady: "recommendations_ready",
}

func (s State) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// States returns every state in flow order.
func States() []State {
	return []State{Idle, SummaryReady, BulletReady, GapsReady, DriversReady, RecommendationsReady}
}

// ErrInvalidTransition is returned when a state is reached out of order.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// Machine is a linear state machine. The zero value starts in Idle.
type Machine struct {
	mu      sync.Mutex
	current State
}

func New() *Machine {
	return &Machine{}
}

func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Next returns the state that follows the current one. It is false once the
// flow is finished.
func (m *Machine) Next() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return next(m.current)
}

// Done reports whether the last state was reached.
func (m *Machine) Done() bool {
	_, ok := m.Next()
	return !ok
}

// Advance moves to the given state, which must directly follow the current one.
func (m *Machine) Advance(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want, ok := next(m.current)
	if !ok || want != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}

	m.current = to
	return nil
}

// Reset returns the machine to Idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Idle
}

func next(s State) (State, bool) {
	if s < Idle || s >= RecommendationsReady {
		return s, false
	}
	return s + 1, true
}
