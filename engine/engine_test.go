package engine

import (
	"testing"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/phold"
	"github.com/ersantana/desim/simerr"
	"github.com/ersantana/desim/simobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateFailsBeforeInitialize(t *testing.T) {
	e := New(nil, nil)
	_, err := e.Simulate(10)
	assert.ErrorIs(t, err, simerr.ErrNotInitialized)
}

func TestSimulateFailsWithNoObjects(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.Initialize())
	_, err := e.Simulate(10)
	assert.ErrorIs(t, err, simerr.ErrNoObjects)
}

func TestSinglePeriodicObjectTenBatches(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.AddObject(phold.NewPeriodic("clock", 1, 1)))
	require.NoError(t, e.Initialize())

	batches, err := e.Simulate(10)
	require.NoError(t, err)
	assert.Equal(t, 10, batches)
	assert.Equal(t, 10.0, e.Time())
}

func TestNegativeTimeMaxYieldsZeroBatches(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.AddObject(phold.NewPeriodic("clock", 1, 1)))
	require.NoError(t, e.Initialize())

	batches, err := e.Simulate(-1)
	require.NoError(t, err)
	assert.Equal(t, 0, batches)
}

func TestThreePeriodicObjectsNineBatchesToTimeThree(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.AddObjects(
		phold.NewPeriodic("clock_0", 1, 1),
		phold.NewPeriodic("clock_1", 1, 1),
		phold.NewPeriodic("clock_2", 1, 1),
	))
	require.NoError(t, e.Initialize())

	batches, err := e.Simulate(3)
	require.NoError(t, err)
	assert.Equal(t, 9, batches)
}

func TestCyclicalRingDeliversOneMessagePerNode(t *testing.T) {
	e := New(nil, nil)
	nodes := phold.BuildRing("ring", 4, 1)
	for _, n := range nodes {
		require.NoError(t, e.AddObject(n))
	}
	require.NoError(t, e.ScheduleEvent(0, 1, nodes[0], nodes[0], phold.TickSchema.MustNew()))
	require.NoError(t, e.Initialize())

	batches, err := e.Simulate(4)
	require.NoError(t, err)
	assert.Equal(t, 4, batches)
	for _, n := range nodes {
		assert.Equal(t, 1, n.NumMsgs)
	}
}

func TestStopConditionHaltsOnceThresholdTimeIsReached(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.AddObject(phold.NewPeriodic("clock", 1, 1)))
	require.NoError(t, e.Initialize())
	e.SetStopCondition(func(time float64) bool { return time >= 3 })

	_, err := e.Simulate(10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, e.Time())
	assert.Equal(t, StateTerminated, e.State())
}

func TestStepOneDispatchesOneBatchAtATime(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.AddObject(phold.NewPeriodic("clock", 1, 1)))
	require.NoError(t, e.Initialize())

	object, dispatched, done, _, err := e.StepOne()
	require.NoError(t, err)
	assert.True(t, dispatched)
	assert.False(t, done)
	assert.Equal(t, "clock", object)
	assert.Equal(t, 1.0, e.Time())
	assert.Equal(t, StateRunning, e.State())

	_, dispatched, done, _, err = e.StepOne()
	require.NoError(t, err)
	assert.True(t, dispatched)
	assert.False(t, done)
	assert.Equal(t, 2.0, e.Time())
}

func TestStepOneReportsDoneWhenQueueDrains(t *testing.T) {
	e := New(nil, nil)
	recv := newCollector("receiver")
	require.NoError(t, e.AddObject(recv))
	require.NoError(t, e.ScheduleEvent(0, 1, namedSender("s"), recv, prioritySchema.MustNew("s")))
	require.NoError(t, e.Initialize())

	_, dispatched, done, _, err := e.StepOne()
	require.NoError(t, err)
	assert.True(t, dispatched)
	assert.False(t, done)

	_, dispatched, done, diagnostic, err := e.StepOne()
	require.NoError(t, err)
	assert.False(t, dispatched)
	assert.True(t, done)
	assert.Equal(t, NoEventsRemain, diagnostic)
	assert.Equal(t, StateTerminated, e.State())
}

func TestDeleteObjectRejectsWhilePendingEventsExist(t *testing.T) {
	e := New(nil, nil)
	p := phold.NewPeriodic("clock", 1, 1)
	require.NoError(t, e.AddObject(p))
	require.NoError(t, e.Initialize())

	err := e.DeleteObject("clock")
	assert.ErrorIs(t, err, simerr.ErrObjectHasPendingEvents)
}

func TestSimulateIsReproducibleAcrossIdenticalRuns(t *testing.T) {
	run := func() (int, float64) {
		e := New(nil, nil)
		require.NoError(t, e.AddObjects(
			phold.NewPeriodic("clock_0", 1, 1),
			phold.NewPeriodic("clock_1", 2, 1),
		))
		require.NoError(t, e.Initialize())
		batches, err := e.Simulate(10)
		require.NoError(t, err)
		return batches, e.Time()
	}

	b1, t1 := run()
	b2, t2 := run()
	assert.Equal(t, b1, b2)
	assert.Equal(t, t1, t2)
}

// prioritySchema, ordinarySchema and collector reproduce spec.md §8
// scenario 6 (TestSimultaneousBatchOrdersPriorityBeforeOrdinaryReproducibly): four objects each
// send a Priority and an Ordinary message to the same receiver at the
// same delivery time; the receiver's handler table puts Priority first,
// and the result must be identical across repeated runs regardless of
// send order.
var prioritySchema = message.Declare("Priority", "from")
var ordinarySchema = message.Declare("Ordinary", "from")

type collector struct {
	*simobject.BaseObject
	seen []string
}

func newCollector(name string) *collector {
	c := &collector{BaseObject: simobject.NewBaseObject(name, nil)}
	c.DeclareHandler("Priority", func(o *simobject.BaseObject, e *event.Event) {
		from, _ := e.Message.(*message.Record).Get("from")
		c.seen = append(c.seen, "P:"+from.(string))
	})
	c.DeclareHandler("Ordinary", func(o *simobject.BaseObject, e *event.Event) {
		from, _ := e.Message.(*message.Record).Get("from")
		c.seen = append(c.seen, "O:"+from.(string))
	})
	return c
}

func (c *collector) SendInitialEvents()                          {}
func (c *collector) HandleEventList(events []*event.Event) error { return c.Dispatch(events) }
func (c *collector) GetState() any                               { return c.seen }

func TestSimultaneousBatchOrdersPriorityBeforeOrdinaryReproducibly(t *testing.T) {
	run := func() []string {
		e := New(nil, nil)
		recv := newCollector("receiver")
		require.NoError(t, e.AddObject(recv))

		senders := []string{"d", "b", "a", "c"}
		for _, s := range senders {
			require.NoError(t, e.ScheduleEvent(0, 1, namedSender(s), recv, ordinarySchema.MustNew(s)))
			require.NoError(t, e.ScheduleEvent(0, 1, namedSender(s), recv, prioritySchema.MustNew(s)))
		}
		require.NoError(t, e.Initialize())
		_, err := e.Simulate(1)
		require.NoError(t, err)
		return recv.seen
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	require.Len(t, first, 8)
	for _, v := range first[:4] {
		assert.Contains(t, v, "P:")
	}
	for _, v := range first[4:] {
		assert.Contains(t, v, "O:")
	}
}

type namedSender string

func (n namedSender) Name() string { return string(n) }
