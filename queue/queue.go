// Package queue implements EventQueue, the global priority structure over
// Events keyed by the five-level order in spec.md §3/§4.3.
//
// Grounded on other_examples' inference-sim cluster.go, which backs its
// ClusterEventQueue with container/heap (heap.Init/heap.Push/heap.Pop) to
// get ordered extraction without hand-rolling a binary heap — the same
// idiom applies here. pop_next_batch additionally pops the canonical
// minimum out of the heap until the (delivery_time, receiver) key
// changes, then sorts the batch by the remaining three keys, matching
// original_source/de_sim/simulation_object.py's EventQueue.next_events()
// contract described in spec.md §4.3.
package queue

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/simerr"
)

// heapSlice is the container/heap.Interface implementation backing the
// queue. Its Less is exactly event.Less: the five-level order is the sole
// ordering authority, never insertion order.
type heapSlice []*event.Event

func (h heapSlice) Len() int            { return len(h) }
func (h heapSlice) Less(i, j int) bool  { return event.Less(h[i], h[j]) }
func (h heapSlice) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *heapSlice) Push(x interface{}) { *h = append(*h, x.(*event.Event)) }
func (h *heapSlice) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EventQueue is the engine's global, ordered multiset of pending events.
type EventQueue struct {
	mu sync.Mutex
	h  heapSlice
}

// New returns an empty EventQueue.
func New() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.h)
	return q
}

// Schedule enqueues an event at (sendTime, deliveryTime) from sender to
// receiver. Fails with NegativeTime if either time is negative, and
// CausalityViolation if deliveryTime < sendTime, per spec.md §4.3.
func (q *EventQueue) Schedule(sendTime, deliveryTime float64, sender, receiver event.Named, msg message.Message) error {
	if sendTime < 0 || deliveryTime < 0 {
		return fmt.Errorf("%w: send_time=%g delivery_time=%g", simerr.ErrNegativeTime, sendTime, deliveryTime)
	}
	if deliveryTime < sendTime {
		return fmt.Errorf("%w: delivery_time %g < send_time %g", simerr.ErrCausalityViolation, deliveryTime, sendTime)
	}
	e := event.New(sendTime, deliveryTime, sender, receiver, msg)
	q.mu.Lock()
	heap.Push(&q.h, e)
	q.mu.Unlock()
	return nil
}

// PeekNextTime returns the smallest delivery_time in the queue, or +Inf
// when empty.
func (q *EventQueue) PeekNextTime() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return math.Inf(1)
	}
	return q.h[0].DeliveryTime
}

// PeekNextReceiver returns the receiver of the order-minimum event, or nil
// when the queue is empty.
func (q *EventQueue) PeekNextReceiver() event.Named {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0].Receiver
}

// PopNextBatch removes and returns the maximal prefix of the ordered
// queue sharing (delivery_time, receiver) with the current minimum event,
// sorted by the remaining three keys (send_time, sender name, message
// order) so the receiver sees a canonical order.
func (q *EventQueue) PopNextBatch() []*event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return nil
	}
	deliveryTime := q.h[0].DeliveryTime
	receiver := q.h[0].Receiver.Name()

	var batch []*event.Event
	for len(q.h) > 0 && q.h[0].DeliveryTime == deliveryTime && q.h[0].Receiver.Name() == receiver {
		e := heap.Pop(&q.h).(*event.Event)
		batch = append(batch, e)
	}

	sort.Slice(batch, func(i, j int) bool {
		a, b := batch[i], batch[j]
		if a.SendTime != b.SendTime {
			return a.SendTime < b.SendTime
		}
		if a.Sender.Name() != b.Sender.Name() {
			return a.Sender.Name() < b.Sender.Name()
		}
		return message.Less(a.Message, b.Message)
	})
	return batch
}

// Empty reports whether the queue holds no events.
func (q *EventQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h) == 0
}

// Len reports the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Reset discards all pending events.
func (q *EventQueue) Reset() {
	q.mu.Lock()
	q.h = nil
	heap.Init(&q.h)
	q.mu.Unlock()
}

// HasPendingFor reports whether any event currently targets the named
// receiver; used by the engine to enforce the delete_object invariant
// (spec.md §9 Open Questions: reject deletion while pending events exist).
func (q *EventQueue) HasPendingFor(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.h {
		if e.Receiver.Name() == name {
			return true
		}
	}
	return false
}

// Render produces a human-readable listing of the queue, optionally
// filtered to events addressed to a single receiver name ("" means all).
// Mirrors EventQueue.render(sim_obj=...) in original_source.
func (q *EventQueue) Render(filterReceiver string) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ordered := make([]*event.Event, len(q.h))
	copy(ordered, q.h)
	sort.Slice(ordered, func(i, j int) bool { return event.Less(ordered[i], ordered[j]) })

	var b strings.Builder
	count := 0
	for _, e := range ordered {
		if filterReceiver != "" && e.Receiver.Name() != filterReceiver {
			continue
		}
		b.WriteString(e.Render())
		b.WriteString("\n")
		count++
	}
	if count == 0 {
		return ""
	}
	return strings.TrimRight(b.String(), "\n")
}
