// Package simobject defines the simulation-object lifecycle and
// per-object event-dispatch protocol from spec.md §4.4: a named
// participant holding its own simulated time, a handler table, and a
// declared set of sendable message types.
//
// Grounded on the teacher's packages/core/node.BaseNode: the same
// embed-a-base-struct-with-a-back-reference shape, the same
// mutex-guarded state, the same Send/Receive naming, generalized from
// node/inbox messaging to the engine's ordered-batch dispatch model.
package simobject

import (
	"fmt"
	"sync"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/simerr"
)

// Scheduler is the subset of the engine a simulation object needs to send
// events: enqueue a message from a sender to a receiver at a future
// delivery time. engine.SimulationEngine implements this; it is the sole
// capability an object holds on its containing engine, kept as a
// non-owning relation per spec.md Design Notes §9.
type Scheduler interface {
	ScheduleEvent(sendTime, delay float64, sender, receiver event.Named, msg message.Message) error
}

// Handler processes one event whose message matched its declared type.
// Called once per event in a batch, in handler-table order (spec.md
// §4.4's "intra-batch message priority").
type Handler func(obj *BaseObject, e *event.Event)

// handlerEntry pairs a declared message type name with its handler,
// preserving declaration order — the fifth sort key used when multiple
// message types arrive in the same batch.
type handlerEntry struct {
	typeName string
	handler  Handler
}

// Object is the interface the engine dispatches against. Implementations
// embed *BaseObject and add their own handler tables and send_initial_events logic.
type Object interface {
	Name() string
	Time() float64
	SetTime(t float64)
	SendInitialEvents()
	HandleEventList(events []*event.Event) error
	GetState() any
}

// BaseObject provides the common bookkeeping every SimulationObject
// needs: name, simulated time, engine back-reference, declared handler
// table, and declared sendable message types.
type BaseObject struct {
	mu   sync.RWMutex
	name string
	time float64

	scheduler Scheduler
	handlers  []handlerEntry
	sent      map[string]bool
}

// NewBaseObject constructs a detached BaseObject with an empty handler
// table; handlers are added afterwards with DeclareHandler, in priority
// order. sentTypes declares the message type names this object is
// permitted to send.
func NewBaseObject(name string, sentTypes []string) *BaseObject {
	sent := make(map[string]bool, len(sentTypes))
	for _, t := range sentTypes {
		sent[t] = true
	}
	return &BaseObject{name: name, sent: sent}
}

// DeclareHandler registers a handler for a message type, appended to the
// end of the priority-ordered handler table.
func (o *BaseObject) DeclareHandler(typeName string, h Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers = append(o.handlers, handlerEntry{typeName: typeName, handler: h})
}

// Name returns the object's unique, stable name.
func (o *BaseObject) Name() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

// Time returns the simulated time of the last handled event.
func (o *BaseObject) Time() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.time
}

// SetTime is called by the engine only, at step 6 of the scheduling loop,
// to advance this object's clock to the batch's delivery time.
func (o *BaseObject) SetTime(t float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.time = t
}

// Attach binds this object to an engine's scheduler, the non-owning
// relation described in spec.md Design Notes §9.
func (o *BaseObject) Attach(s Scheduler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scheduler = s
}

// Detach clears the engine back-reference, called by delete_object.
func (o *BaseObject) Detach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scheduler = nil
}

// Attached reports whether this object currently belongs to an engine.
func (o *BaseObject) Attached() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scheduler != nil
}

// SendEvent enqueues an Event from this object to receiver, delay
// simulated seconds after this object's current time. delay must be >= 0.
// Fails with UnregisteredMessageType if msg's type is not declared
// sendable, and UnregisteredObject if this object is not attached to an
// engine — exactly spec.md §4.4's send_event contract.
func (o *BaseObject) SendEvent(delay float64, receiver event.Named, msg message.Message) error {
	o.mu.RLock()
	scheduler := o.scheduler
	sendTime := o.time
	allowed := o.sent[msg.TypeName()]
	name := o.name
	o.mu.RUnlock()

	if scheduler == nil {
		return fmt.Errorf("%w: object %q is not attached to a simulation engine", simerr.ErrUnregisteredObject, name)
	}
	if !allowed {
		return fmt.Errorf("%w: object %q may not send message type %q", simerr.ErrUnregisteredMessageType, name, msg.TypeName())
	}
	return scheduler.ScheduleEvent(sendTime, delay, o, receiver, msg)
}

// Dispatch runs the declared handler for each event in a batch, ordered
// first by the handler-table priority of each event's message type and,
// among events of the same message type, in the batch's pre-sorted
// (send_time, sender name, message) order. A received message type with no declared handler is
// fatal (UnhandledMessageType), per spec.md §4.4.
func (o *BaseObject) Dispatch(events []*event.Event) error {
	o.mu.RLock()
	handlers := make(map[string]Handler, len(o.handlers))
	order := make(map[string]int, len(o.handlers))
	for i, he := range o.handlers {
		handlers[he.typeName] = he.handler
		order[he.typeName] = i
	}
	name := o.name
	o.mu.RUnlock()

	ordered := make([]*event.Event, len(events))
	copy(ordered, events)
	stableSortByHandlerPriority(ordered, order)

	for _, e := range ordered {
		h, ok := handlers[e.Message.TypeName()]
		if !ok {
			return fmt.Errorf("%w: object %q has no handler for message type %q",
				simerr.ErrUnhandledMessageType, name, e.Message.TypeName())
		}
		h(o, e)
	}
	return nil
}

// stableSortByHandlerPriority performs a stable sort by declared handler
// index, preserving pop_next_batch's (send_time, sender name, message
// order) sub-ordering within ties on handler priority.
func stableSortByHandlerPriority(events []*event.Event, order map[string]int) {
	n := len(events)
	for i := 1; i < n; i++ {
		j := i
		for j > 0 && order[events[j-1].Message.TypeName()] > order[events[j].Message.TypeName()] {
			events[j-1], events[j] = events[j], events[j-1]
			j--
		}
	}
}
