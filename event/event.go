// Package event defines Event, the record binding a scheduled delivery to
// a sender, a receiver, and a message. Ordering follows spec.md §3's
// five-level key: (delivery_time, send_time, sender name, receiver name,
// message order).
//
// Grounded on original_source/de_sim/simulation_engine.py's per-event
// tuple construction (`Event(send_time, delivery_time, sending_obj,
// receiving_obj, event_message)`) and on the teacher's
// packages/core/message.Envelope, whose routing-metadata fields
// (From/To/SentAt) this reorganizes around a strict ordering contract
// instead of JSON transport.
package event

import (
	"fmt"

	"github.com/ersantana/desim/message"
)

// Named is the minimal identity an Event needs from a simulation object:
// a stable, unique name used only for ordering and rendering. engine and
// simobject satisfy this with their object-registry entries.
type Named interface {
	Name() string
}

// Event is a single scheduled message delivery.
type Event struct {
	SendTime     float64
	DeliveryTime float64
	Sender       Named
	Receiver     Named
	Message      message.Message
}

// New constructs an Event. Callers (simobject.BaseObject.SendEvent) are
// responsible for the NegativeTime/CausalityViolation checks in spec.md
// §4.3; New itself does not validate, since the queue is the sole
// ordering authority and must accept whatever schedule() hands it after
// validation.
func New(sendTime, deliveryTime float64, sender, receiver Named, msg message.Message) *Event {
	return &Event{
		SendTime:     sendTime,
		DeliveryTime: deliveryTime,
		Sender:       sender,
		Receiver:     receiver,
		Message:      msg,
	}
}

// Less implements the five-level total order from spec.md §3:
// delivery_time, send_time, sender name, receiver name, message order.
func Less(a, b *Event) bool {
	if a.DeliveryTime != b.DeliveryTime {
		return a.DeliveryTime < b.DeliveryTime
	}
	if a.SendTime != b.SendTime {
		return a.SendTime < b.SendTime
	}
	if a.Sender.Name() != b.Sender.Name() {
		return a.Sender.Name() < b.Sender.Name()
	}
	if a.Receiver.Name() != b.Receiver.Name() {
		return a.Receiver.Name() < b.Receiver.Name()
	}
	return message.Less(a.Message, b.Message)
}

// Render produces the tab-separated log row from spec.md §4.2: send_time,
// delivery_time, sender_name, receiver_name, message type, message values.
func (e *Event) Render() string {
	return fmt.Sprintf("%g\t%g\t%s\t%s\t%s\t%v",
		e.SendTime, e.DeliveryTime, e.Sender.Name(), e.Receiver.Name(),
		e.Message.TypeName(), e.Message.Values())
}
