package phold

import (
	"math/rand"
	"testing"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRingWiresNodesIntoACycle(t *testing.T) {
	nodes := BuildRing("ring", 3, 1)
	require.Len(t, nodes, 3)
	assert.Same(t, nodes[1], nodes[0].Next)
	assert.Same(t, nodes[2], nodes[1].Next)
	assert.Same(t, nodes[0], nodes[2].Next)
}

func TestPeriodicTicksIncrementOnDispatch(t *testing.T) {
	p := NewPeriodic("clock", 1, 1)
	sched := &stubScheduler{}
	p.Attach(sched)

	e := event.New(0, 1, p, p, TickSchema.MustNew())
	require.NoError(t, p.HandleEventList([]*event.Event{e}))
	assert.Equal(t, 1, p.Ticks)
	assert.Len(t, sched.calls, 1)
}

func TestPholdForwardsToASeededNeighborDeterministically(t *testing.T) {
	build := func() []string {
		rng := rand.New(rand.NewSource(42))
		nodes := make([]*Phold, 3)
		for i := range nodes {
			nodes[i] = NewPhold(nodeName(i), 1, rng)
		}
		for i := range nodes {
			nodes[i].SetNeighbors(neighborsOf(nodes, i))
			nodes[i].Attach(&stubScheduler{})
		}

		var forwardedTo []string
		sched := &capturingScheduler{}
		nodes[0].Attach(sched)

		e := event.New(0, 1, nodes[0], nodes[0], TokenSchema.MustNew(0))
		_ = nodes[0].HandleEventList([]*event.Event{e})
		for _, c := range sched.calls {
			forwardedTo = append(forwardedTo, c)
		}
		return forwardedTo
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)
	require.Len(t, first, 1)
}

func nodeName(i int) string { return string(rune('a' + i)) }

func neighborsOf(nodes []*Phold, self int) []event.Named {
	out := make([]event.Named, 0, len(nodes)-1)
	for i, n := range nodes {
		if i != self {
			out = append(out, n)
		}
	}
	return out
}

type stubScheduler struct{ calls []string }

func (s *stubScheduler) ScheduleEvent(sendTime, delay float64, sender, receiver event.Named, msg message.Message) error {
	s.calls = append(s.calls, receiver.Name())
	return nil
}

type capturingScheduler struct{ calls []string }

func (s *capturingScheduler) ScheduleEvent(sendTime, delay float64, sender, receiver event.Named, msg message.Message) error {
	s.calls = append(s.calls, receiver.Name())
	return nil
}
