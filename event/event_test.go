package event

import (
	"testing"

	"github.com/ersantana/desim/message"
	"github.com/stretchr/testify/assert"
)

type namedStub string

func (n namedStub) Name() string { return string(n) }

func TestLessOrdersByDeliveryTimeFirst(t *testing.T) {
	msg := message.Declare("Tick").MustNew()
	a := New(0, 1, namedStub("s"), namedStub("r"), msg)
	b := New(0, 2, namedStub("s"), namedStub("r"), msg)
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}

func TestLessFallsBackToSendTimeOnDeliveryTie(t *testing.T) {
	msg := message.Declare("Tick").MustNew()
	a := New(1, 5, namedStub("s"), namedStub("r"), msg)
	b := New(2, 5, namedStub("s"), namedStub("r"), msg)
	assert.True(t, Less(a, b))
}

func TestLessFallsBackToSenderThenReceiverName(t *testing.T) {
	msg := message.Declare("Tick").MustNew()
	a := New(1, 5, namedStub("alpha"), namedStub("z"), msg)
	b := New(1, 5, namedStub("beta"), namedStub("a"), msg)
	assert.True(t, Less(a, b))

	c := New(1, 5, namedStub("same"), namedStub("a"), msg)
	d := New(1, 5, namedStub("same"), namedStub("b"), msg)
	assert.True(t, Less(c, d))
}

func TestLessFallsBackToMessageOrderOnFullTie(t *testing.T) {
	schema := message.Declare("Tick", "n")
	a := New(1, 5, namedStub("s"), namedStub("r"), schema.MustNew(1))
	b := New(1, 5, namedStub("s"), namedStub("r"), schema.MustNew(2))
	assert.True(t, Less(a, b))
}

func TestRenderIncludesAllFiveFields(t *testing.T) {
	msg := message.Declare("Ping", "seq").MustNew(3)
	e := New(0, 1, namedStub("sender"), namedStub("receiver"), msg)
	rendered := e.Render()
	assert.Contains(t, rendered, "sender")
	assert.Contains(t, rendered, "receiver")
	assert.Contains(t, rendered, "Ping")
	assert.Equal(t, "0\t1\tsender\treceiver\tPing\t[3]", rendered)
}
