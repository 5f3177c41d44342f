package queue

import (
	"math"
	"testing"

	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedStub string

func (n namedStub) Name() string { return string(n) }

var tickSchema = message.Declare("Tick")

func TestScheduleRejectsNegativeTime(t *testing.T) {
	q := New()
	err := q.Schedule(-1, 0, namedStub("s"), namedStub("r"), tickSchema.MustNew())
	assert.ErrorIs(t, err, simerr.ErrNegativeTime)
}

func TestScheduleRejectsCausalityViolation(t *testing.T) {
	q := New()
	err := q.Schedule(5, 1, namedStub("s"), namedStub("r"), tickSchema.MustNew())
	assert.ErrorIs(t, err, simerr.ErrCausalityViolation)
}

func TestPeekNextTimeIsInfOnEmptyQueue(t *testing.T) {
	q := New()
	assert.True(t, math.IsInf(q.PeekNextTime(), 1))
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
}

func TestPopNextBatchGroupsByDeliveryTimeAndReceiver(t *testing.T) {
	q := New()
	require.NoError(t, q.Schedule(0, 1, namedStub("a"), namedStub("r1"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(0, 1, namedStub("b"), namedStub("r1"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(0, 1, namedStub("c"), namedStub("r2"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(0, 2, namedStub("d"), namedStub("r1"), tickSchema.MustNew()))

	batch := q.PopNextBatch()
	require.Len(t, batch, 2)
	assert.Equal(t, "r1", batch[0].Receiver.Name())
	assert.Equal(t, "a", batch[0].Sender.Name())
	assert.Equal(t, "b", batch[1].Sender.Name())

	assert.Equal(t, 2, q.Len())
}

func TestPopNextBatchSortsBySendTimeThenSenderName(t *testing.T) {
	q := New()
	require.NoError(t, q.Schedule(2, 5, namedStub("z"), namedStub("r"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(1, 5, namedStub("a"), namedStub("r"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(1, 5, namedStub("b"), namedStub("r"), tickSchema.MustNew()))

	batch := q.PopNextBatch()
	require.Len(t, batch, 3)
	assert.Equal(t, "a", batch[0].Sender.Name())
	assert.Equal(t, "b", batch[1].Sender.Name())
	assert.Equal(t, "z", batch[2].Sender.Name())
}

func TestHasPendingForReflectsQueueContents(t *testing.T) {
	q := New()
	require.NoError(t, q.Schedule(0, 1, namedStub("a"), namedStub("r1"), tickSchema.MustNew()))
	assert.True(t, q.HasPendingFor("r1"))
	assert.False(t, q.HasPendingFor("r2"))

	q.PopNextBatch()
	assert.False(t, q.HasPendingFor("r1"))
}

func TestResetClearsQueue(t *testing.T) {
	q := New()
	require.NoError(t, q.Schedule(0, 1, namedStub("a"), namedStub("r1"), tickSchema.MustNew()))
	q.Reset()
	assert.True(t, q.Empty())
}

func TestRenderFiltersByReceiver(t *testing.T) {
	q := New()
	require.NoError(t, q.Schedule(0, 1, namedStub("a"), namedStub("r1"), tickSchema.MustNew()))
	require.NoError(t, q.Schedule(0, 1, namedStub("b"), namedStub("r2"), tickSchema.MustNew()))

	rendered := q.Render("r1")
	assert.Contains(t, rendered, "r1")
	assert.NotContains(t, rendered, "r2")
}
