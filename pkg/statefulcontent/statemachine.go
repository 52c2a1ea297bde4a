package statefulcontent

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies a transition observation.
type Token string

// Transition describes a change of a StateMachine value.
type Transition[T comparable] struct {
	From T
	To   T
}

type observation[T comparable] struct {
	token Token
	fn    func(Transition[T])
}

// StateMachine holds a single value and notifies observers whenever it
// changes. Observers run synchronously, in registration order, on the
// goroutine calling Transition. An observer may stop or add observations,
// including its own, while it runs: observations added during a transition
// are first invoked on the next one, and observations stopped during a
// transition are not invoked for it.
//
// Callers are responsible for ordering concurrent transitions.
type StateMachine[T comparable] struct {
	mu           sync.Mutex
	state        T
	observations []observation[T]
}

// NewStateMachine returns a machine holding initial.
func NewStateMachine[T comparable](initial T) *StateMachine[T] {
	return &StateMachine[T]{state: initial}
}

// State returns the current value.
func (m *StateMachine[T]) State() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AddTransitionObservation registers fn for every future transition.
func (m *StateMachine[T]) AddTransitionObservation(fn func(Transition[T])) Token {
	token := Token(uuid.NewString())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, observation[T]{token: token, fn: fn})
	return token
}

// StopObserving removes the observation for token. Unknown tokens are ignored.
func (m *StateMachine[T]) StopObserving(token Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.observations {
		if o.token == token {
			m.observations = append(m.observations[:i:i], m.observations[i+1:]...)
			return
		}
	}
}

// IsObserving reports whether token is registered.
func (m *StateMachine[T]) IsObserving(token Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(token) >= 0
}

// ObservationCount returns the number of registered observations.
func (m *StateMachine[T]) ObservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observations)
}

// Transition sets the value to to and notifies observers. Transitioning to
// the current value is a no-op.
func (m *StateMachine[T]) Transition(to T) {
	m.mu.Lock()
	if m.state == to {
		m.mu.Unlock()
		return
	}
	t := Transition[T]{From: m.state, To: to}
	m.state = to
	pending := make([]observation[T], len(m.observations))
	copy(pending, m.observations)
	m.mu.Unlock()

	for _, o := range pending {
		if !m.IsObserving(o.token) {
			continue
		}
		o.fn(t)
	}
}

func (m *StateMachine[T]) indexOf(token Token) int {
	for i, o := range m.observations {
		if o.token == token {
			return i
		}
	}
	return -1
}
