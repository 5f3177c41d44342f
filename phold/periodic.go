// Package phold supplies the example simulation objects spec.md §8's
// end-to-end scenarios exercise: a self-clocking Periodic object, a
// cyclical Ring of objects, and the PHOLD parallel-hold benchmark that
// original_source/tests/joss_paper/test_gen_phold_space_time_plot.py
// references but spec.md's distillation dropped (see SPEC_FULL.md §4.11).
//
// Grounded on original_source/tests/test_simulation_engine.py's
// PeriodicSimulationObject/CyclicalMessagesSimulationObject fixtures and
// the teacher's core/node.BaseNode embedding idiom.
package phold

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/simobject"
)

// TickSchema declares the Tick message Periodic sends itself and Ring forwards.
var TickSchema = message.Declare("Tick")

// Periodic is a self-clocking object: it sends itself a Tick every Period
// simulated seconds, starting at StartAt. Matches spec.md §8 scenarios 1
// and 3.
type Periodic struct {
	*simobject.BaseObject
	Period  float64
	StartAt float64
	Ticks   int
}

// NewPeriodic constructs a Periodic object named name, firing every
// period seconds starting at startAt.
func NewPeriodic(name string, period, startAt float64) *Periodic {
	p := &Periodic{
		BaseObject: simobject.NewBaseObject(name, []string{TickSchema.TypeName()}),
		Period:     period,
		StartAt:    startAt,
	}
	p.DeclareHandler(TickSchema.TypeName(), func(obj *simobject.BaseObject, e *event.Event) {
		p.Ticks++
		_ = obj.SendEvent(p.Period, obj, TickSchema.MustNew())
	})
	return p
}

// SendInitialEvents schedules the first Tick at StartAt.
func (p *Periodic) SendInitialEvents() {
	_ = p.SendEvent(p.StartAt, p, TickSchema.MustNew())
}

// HandleEventList dispatches a batch through the declared handler table.
func (p *Periodic) HandleEventList(events []*event.Event) error {
	return p.Dispatch(events)
}

// GetState reports the number of ticks handled so far.
func (p *Periodic) GetState() any {
	return map[string]any{"ticks": p.Ticks}
}

// Ring is one node in a cycle of N objects: on each Tick it forwards one
// Tick to the next object in the ring, Delay simulated seconds later.
// Matches spec.md §8 scenario 4.
type Ring struct {
	*simobject.BaseObject
	Next     event.Named
	Delay    float64
	NumMsgs  int
}

// NewRing constructs a ring node; Next is wired after construction via
// SetNext, since the ring's successor is typically another Ring
// constructed in the same batch.
func NewRing(name string, delay float64) *Ring {
	r := &Ring{
		BaseObject: simobject.NewBaseObject(name, []string{TickSchema.TypeName()}),
		Delay:      delay,
	}
	r.DeclareHandler(TickSchema.TypeName(), func(obj *simobject.BaseObject, e *event.Event) {
		r.NumMsgs++
		if r.Next != nil {
			_ = obj.SendEvent(r.Delay, r.Next, TickSchema.MustNew())
		}
	})
	return r
}

// SetNext wires this ring node's successor.
func (r *Ring) SetNext(next event.Named) { r.Next = next }

// SendInitialEvents is a no-op for every ring node; callers send exactly
// one initial event to the chosen start node.
func (r *Ring) SendInitialEvents() {}

func (r *Ring) HandleEventList(events []*event.Event) error {
	return r.Dispatch(events)
}

func (r *Ring) GetState() any {
	return map[string]any{"numMsgs": r.NumMsgs}
}

// BuildRing wires N Ring nodes named prefix_0..prefix_{n-1} into a cycle
// and returns them in index order. The caller is responsible for
// registering each with the engine and sending the single initial event
// to ring[0].
func BuildRing(prefix string, n int, delay float64) []*Ring {
	nodes := make([]*Ring, n)
	for i := 0; i < n; i++ {
		nodes[i] = NewRing(fmt.Sprintf("%s_%d", prefix, i), delay)
	}
	for i := 0; i < n; i++ {
		nodes[i].SetNext(nodes[(i+1)%n])
	}
	return nodes
}

// TokenSchema is the PHOLD benchmark's forwarded-token message: it
// carries an integer hop count purely for observability.
var TokenSchema = message.Declare("Token", "hop")

// Phold is one node of a PHOLD (parallel hold) benchmark network: on
// receiving a Token it forwards a new Token to a uniformly random entry
// of Neighbors (itself only if the list includes it, or if the list is
// empty) after an exponentially distributed delay.
// This is the classic DES reproducibility stress test
// original_source/tests/joss_paper references; spec.md's distillation
// dropped it (see SPEC_FULL.md §4.11).
type Phold struct {
	*simobject.BaseObject
	Neighbors []event.Named
	MeanDelay float64
	rng       *rand.Rand
	Forwarded int
}

// NewPhold constructs a PHOLD node. rng must be a *rand.Rand seeded
// identically across a reproducibility test's two runs — the engine's
// ordering guarantees determinism of *delivery order*, not of any
// randomness an object's own handler introduces.
func NewPhold(name string, meanDelay float64, rng *rand.Rand) *Phold {
	p := &Phold{
		BaseObject: simobject.NewBaseObject(name, []string{TokenSchema.TypeName()}),
		MeanDelay:  meanDelay,
		rng:        rng,
	}
	p.DeclareHandler(TokenSchema.TypeName(), func(obj *simobject.BaseObject, e *event.Event) {
		p.Forwarded++
		hop, _ := e.Message.(*message.Record).Get("hop")
		next := p.pickNeighbor()
		delay := p.nextDelay()
		_ = obj.SendEvent(delay, next, TokenSchema.MustNew(hop.(int)+1))
	})
	return p
}

// SetNeighbors wires this node's candidate forwarding targets, including
// itself if self-loops are desired.
func (p *Phold) SetNeighbors(neighbors []event.Named) { p.Neighbors = neighbors }

func (p *Phold) pickNeighbor() event.Named {
	if len(p.Neighbors) == 0 {
		return p
	}
	return p.Neighbors[p.rng.Intn(len(p.Neighbors))]
}

func (p *Phold) nextDelay() float64 {
	if p.MeanDelay <= 0 {
		return 1
	}
	d := -p.MeanDelay * math.Log(1-p.rng.Float64())
	if d <= 0 {
		d = p.MeanDelay
	}
	return d
}

// SendInitialEvents is a no-op; callers inject the initial token
// population explicitly (PHOLD's "hold count" is a property of the whole
// network, not any one node).
func (p *Phold) SendInitialEvents() {}

func (p *Phold) HandleEventList(events []*event.Event) error {
	return p.Dispatch(events)
}

func (p *Phold) GetState() any {
	return map[string]any{"forwarded": p.Forwarded}
}
