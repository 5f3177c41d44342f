package simobject

import (
	"testing"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	scheduled []string
	err       error
}

func (s *recordingScheduler) ScheduleEvent(sendTime, delay float64, sender, receiver event.Named, msg message.Message) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, receiver.Name())
	return nil
}

var pingSchema = message.Declare("Ping")
var pongSchema = message.Declare("Pong")

func TestSendEventFailsWhenNotAttached(t *testing.T) {
	obj := NewBaseObject("a", []string{"Ping"})
	err := obj.SendEvent(1, NewBaseObject("b", nil), pingSchema.MustNew())
	assert.ErrorIs(t, err, simerr.ErrUnregisteredObject)
}

func TestSendEventFailsForUndeclaredMessageType(t *testing.T) {
	obj := NewBaseObject("a", []string{"Ping"})
	obj.Attach(&recordingScheduler{})
	err := obj.SendEvent(1, NewBaseObject("b", nil), pongSchema.MustNew())
	assert.ErrorIs(t, err, simerr.ErrUnregisteredMessageType)
}

func TestSendEventSucceedsForDeclaredType(t *testing.T) {
	sched := &recordingScheduler{}
	obj := NewBaseObject("a", []string{"Ping"})
	obj.Attach(sched)

	err := obj.SendEvent(1, NewBaseObject("b", nil), pingSchema.MustNew())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, sched.scheduled)
}

func TestDispatchFailsOnUnhandledMessageType(t *testing.T) {
	obj := NewBaseObject("a", nil)
	e := event.New(0, 1, obj, obj, pingSchema.MustNew())
	err := obj.Dispatch([]*event.Event{e})
	assert.ErrorIs(t, err, simerr.ErrUnhandledMessageType)
}

func TestDispatchRunsHandlersInDeclarationOrderWithinABatch(t *testing.T) {
	obj := NewBaseObject("a", nil)
	var order []string
	obj.DeclareHandler("Ping", func(o *BaseObject, e *event.Event) { order = append(order, "ping") })
	obj.DeclareHandler("Pong", func(o *BaseObject, e *event.Event) { order = append(order, "pong") })

	pong := event.New(0, 1, obj, obj, pongSchema.MustNew())
	ping := event.New(0, 1, obj, obj, pingSchema.MustNew())

	require.NoError(t, obj.Dispatch([]*event.Event{pong, ping}))
	assert.Equal(t, []string{"ping", "pong"}, order)
}

func TestSetTimeAndAttachDetach(t *testing.T) {
	obj := NewBaseObject("a", nil)
	assert.False(t, obj.Attached())

	obj.Attach(&recordingScheduler{})
	assert.True(t, obj.Attached())

	obj.SetTime(3.5)
	assert.Equal(t, 3.5, obj.Time())

	obj.Detach()
	assert.False(t, obj.Attached())
}
