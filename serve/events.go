// Package serve exposes a running SimulationEngine over a WebSocket, for
// `desim serve`'s live-state viewer (spec.md §1's "External Interfaces").
//
// Notifications are keyed by the object that triggered them and by a
// monotonic per-server sequence number, so a viewer watching one object
// can tell a gap in its own feed from a batch that simply belonged to a
// different object. There is no general-purpose event bus here: the only
// consumer is the websocket hub, and it only ever needs these two shapes.
package serve

import "time"

// BatchDispatchedEvent reports one engine dispatch made by a single
// StepOne call (the viewer's step button). Batches dispatched inside
// Simulate produce no BatchDispatchedEvent.
type BatchDispatchedEvent struct {
	Type      MessageType `json:"type"`
	Seq       uint64      `json:"seq"`
	Timestamp time.Time   `json:"timestamp"`
	SimTime   float64     `json:"simTime"`
	Object    string      `json:"object"`
	BatchSize int         `json:"batchSize"`
}

// NewBatchDispatchedEvent builds a BatchDispatchedEvent.
func NewBatchDispatchedEvent(seq uint64, simTime float64, object string, batchSize int) *BatchDispatchedEvent {
	return &BatchDispatchedEvent{
		Type:      MsgBatchDispatched,
		Seq:       seq,
		Timestamp: time.Now(),
		SimTime:   simTime,
		Object:    object,
		BatchSize: batchSize,
	}
}

// RunTerminatedEvent reports why a run ended. After a StepOne call the
// diagnostic is one of engine.go's termination strings (NoEventsRemain,
// StopConditionSatisfied); after a Simulate call it is the caller's own
// text, such as a completion note or the simulation error.
type RunTerminatedEvent struct {
	Type       MessageType `json:"type"`
	Seq        uint64      `json:"seq"`
	Timestamp  time.Time   `json:"timestamp"`
	SimTime    float64     `json:"simTime"`
	Diagnostic string      `json:"diagnostic"`
}

// NewRunTerminatedEvent builds a RunTerminatedEvent.
func NewRunTerminatedEvent(seq uint64, simTime float64, diagnostic string) *RunTerminatedEvent {
	return &RunTerminatedEvent{
		Type:       MsgRunTerminated,
		Seq:        seq,
		Timestamp:  time.Now(),
		SimTime:    simTime,
		Diagnostic: diagnostic,
	}
}
