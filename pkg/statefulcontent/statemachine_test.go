package statefulcontent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sc "github.com/tendant/stateful-content/pkg/statefulcontent"
)

func TestStateMachineTransition(t *testing.T) {
	m := sc.NewStateMachine(sc.APIModeDelivery)

	var seen []sc.Transition[sc.APIMode]
	m.AddTransitionObservation(func(tr sc.Transition[sc.APIMode]) {
		seen = append(seen, tr)
	})

	m.Transition(sc.APIModePreview)
	assert.Equal(t, sc.APIModePreview, m.State())
	assert.Equal(t, []sc.Transition[sc.APIMode]{{From: sc.APIModeDelivery, To: sc.APIModePreview}}, seen)
}

func TestStateMachineTransitionIsIdempotent(t *testing.T) {
	m := sc.NewStateMachine(1)
	calls := 0
	m.AddTransitionObservation(func(sc.Transition[int]) { calls++ })

	m.Transition(1)
	assert.Equal(t, 0, calls)

	m.Transition(2)
	m.Transition(2)
	assert.Equal(t, 1, calls)
}

func TestStateMachineObserversRunInRegistrationOrder(t *testing.T) {
	m := sc.NewStateMachine("a")
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		m.AddTransitionObservation(func(sc.Transition[string]) { order = append(order, i) })
	}

	m.Transition("b")
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestStateMachineStopObserving(t *testing.T) {
	m := sc.NewStateMachine(0)
	calls := 0
	token := m.AddTransitionObservation(func(sc.Transition[int]) { calls++ })

	m.StopObserving(token)
	m.StopObserving(token)
	m.StopObserving("unknown")
	m.Transition(1)

	assert.Equal(t, 0, calls)
	assert.False(t, m.IsObserving(token))
}

func TestStateMachineReentrantReregistration(t *testing.T) {
	m := sc.NewStateMachine(0)
	calls := 0

	var token sc.Token
	var observe func(sc.Transition[int])
	observe = func(sc.Transition[int]) {
		calls++
		m.StopObserving(token)
		token = m.AddTransitionObservation(observe)
	}
	token = m.AddTransitionObservation(observe)

	m.Transition(1)
	assert.Equal(t, 1, calls, "observer added during a transition must not run for it")
	assert.Equal(t, 1, m.ObservationCount())

	m.Transition(2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, m.ObservationCount())
	assert.True(t, m.IsObserving(token))
}

func TestStateMachineObserverRemovedMidTransitionIsSkipped(t *testing.T) {
	m := sc.NewStateMachine(0)
	secondCalls := 0

	var second sc.Token
	m.AddTransitionObservation(func(sc.Transition[int]) { m.StopObserving(second) })
	second = m.AddTransitionObservation(func(sc.Transition[int]) { secondCalls++ })

	m.Transition(1)
	assert.Equal(t, 0, secondCalls)
	assert.Equal(t, 1, m.ObservationCount())
}

func TestStateMachineTransitionFromObserver(t *testing.T) {
	m := sc.NewStateMachine(0)
	var states []int
	m.AddTransitionObservation(func(tr sc.Transition[int]) {
		states = append(states, tr.To)
		if tr.To == 1 {
			m.Transition(2)
		}
	})

	m.Transition(1)
	assert.Equal(t, []int{1, 2}, states)
	assert.Equal(t, 2, m.State())
}
