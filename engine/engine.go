// Package engine implements SimulationEngine: the object registry, the
// global event queue, the clock, the state machine, and the scheduling
// loop from spec.md §4.5/§4.6.
//
// Grounded on the teacher's packages/simulation/engine.Engine (the
// add/remove-object registry, the mutex-guarded run loop, the injected
// emitter/observer pattern) generalized from the teacher's wall-clock
// "tick" loop to the simulated-time, priority-queue-driven loop
// original_source/de_sim/simulation_engine.py's SimulationEngine.simulate
// specifies.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/message"
	"github.com/ersantana/desim/metadata"
	"github.com/ersantana/desim/progressbar"
	"github.com/ersantana/desim/queue"
	"github.com/ersantana/desim/shared"
	"github.com/ersantana/desim/simerr"
	"github.com/ersantana/desim/simobject"
	"github.com/sirupsen/logrus"
)

// State is the engine's lifecycle state, spec.md §4.5.
type State int

const (
	StateEmpty State = iota
	StateConfigured
	StateInitialized
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Termination diagnostics, spec.md §6 — the exact strings the core writes
// to its log on exit.
const (
	NoEventsRemain            = " No events remain"
	EndTimeExceeded           = " End time exceeded"
	StopConditionSatisfied    = " Terminate with stop condition satisfied"
)

// StopCondition is a predicate over simulated time; when true, the
// simulation terminates cleanly before the next dispatch.
type StopCondition func(time float64) bool

// SimulationEngine owns the object registry, the event queue, the clock,
// the event counter, and the stop predicate.
type SimulationEngine struct {
	log *logrus.Entry

	time  float64
	state State

	objects      map[string]simobject.Object
	sharedState  []shared.Observer
	eventQueue   *queue.EventQueue
	eventCounts  map[string]int
	stopCond     StopCondition

	metadataCollector *metadata.Collector
	progress          progressbar.Reporter
}

// New constructs an empty, Configured-state-ready engine. sharedState may
// be nil; stopCondition may be nil.
func New(sharedState []shared.Observer, stopCondition StopCondition) *SimulationEngine {
	return &SimulationEngine{
		log:         logrus.WithField("component", "engine"),
		objects:     make(map[string]simobject.Object),
		sharedState: sharedState,
		eventQueue:  queue.New(),
		eventCounts: make(map[string]int),
		stopCond:    stopCondition,
		state:       StateEmpty,
	}
}

// SetProgressReporter installs the optional progress collaborator called
// once per batch during simulate (spec.md §6's "progress" parameter).
func (e *SimulationEngine) SetProgressReporter(r progressbar.Reporter) { e.progress = r }

// SetStopCondition installs or replaces the stop predicate. The engine's
// state is not checked: the predicate set here is the one the next
// Simulate or StepOne call evaluates. WithStopCondition also replaces it.
func (e *SimulationEngine) SetStopCondition(fn StopCondition) {
	e.stopCond = fn
}

// Time returns the engine's current simulated time.
func (e *SimulationEngine) Time() float64 { return e.time }

// State returns the engine's current lifecycle state.
func (e *SimulationEngine) State() State { return e.state }

// AddObject registers a simulation object. Fails with DuplicateObjectName
// if the name is already registered.
func (e *SimulationEngine) AddObject(obj simobject.Object) error {
	name := obj.Name()
	if _, exists := e.objects[name]; exists {
		return fmt.Errorf("%w: %q", simerr.ErrDuplicateObjectName, name)
	}
	if attacher, ok := obj.(interface{ Attach(simobject.Scheduler) }); ok {
		attacher.Attach(e)
	}
	e.objects[name] = obj
	if e.state == StateEmpty {
		e.state = StateConfigured
	}
	return nil
}

// AddObjects registers many objects in order, stopping at the first
// error.
func (e *SimulationEngine) AddObjects(objs ...simobject.Object) error {
	for _, obj := range objs {
		if err := e.AddObject(obj); err != nil {
			return err
		}
	}
	return nil
}

// GetObject returns a registered object by name. Fails with
// UnregisteredObject if unknown.
func (e *SimulationEngine) GetObject(name string) (simobject.Object, error) {
	obj, ok := e.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", simerr.ErrUnregisteredObject, name)
	}
	return obj, nil
}

// GetObjects returns all registered objects.
func (e *SimulationEngine) GetObjects() map[string]simobject.Object {
	return e.objects
}

// DeleteObject removes a registered object. Per spec.md §9's Open
// Question, DESIM rejects deletion while the object has pending events in
// the queue (ErrObjectHasPendingEvents) rather than silently dropping
// them, to preserve the reproducibility theorem of spec.md §4.6 for any
// caller that deletes objects mid-run.
func (e *SimulationEngine) DeleteObject(name string) error {
	obj, ok := e.objects[name]
	if !ok {
		return fmt.Errorf("%w: %q", simerr.ErrUnregisteredObject, name)
	}
	if e.eventQueue.HasPendingFor(name) {
		return fmt.Errorf("%w: %q", simerr.ErrObjectHasPendingEvents, name)
	}
	if detacher, ok := obj.(interface{ Detach() }); ok {
		detacher.Detach()
	}
	delete(e.objects, name)
	return nil
}

// ScheduleEvent implements simobject.Scheduler: it enqueues an event from
// sender to receiver, computing delivery_time = sendTime + delay.
func (e *SimulationEngine) ScheduleEvent(sendTime, delay float64, sender, receiver event.Named, msg message.Message) error {
	return e.eventQueue.Schedule(sendTime, sendTime+delay, sender, receiver, msg)
}

// Initialize asks every registered object to seed the queue via
// SendInitialEvents, then clears event_counts. Configured -> Initialized.
// Fails with AlreadyInitialized if already past Configured.
func (e *SimulationEngine) Initialize() error {
	if e.state == StateInitialized || e.state == StateRunning || e.state == StateTerminated {
		return simerr.ErrAlreadyInitialized
	}
	for _, obj := range e.objects {
		obj.SendInitialEvents()
	}
	e.eventCounts = make(map[string]int)
	e.state = StateInitialized
	return nil
}

// Reset returns the engine to Empty: time zero, object registry cleared,
// queue cleared, uninitialized.
func (e *SimulationEngine) Reset() {
	e.time = 0
	e.objects = make(map[string]simobject.Object)
	e.eventQueue.Reset()
	e.eventCounts = make(map[string]int)
	e.state = StateEmpty
}

// Run is an alias for Simulate.
func (e *SimulationEngine) Run(timeMax float64, opts ...Option) (int, error) {
	return e.Simulate(timeMax, opts...)
}

// Option configures a single Simulate call.
type Option func(*simulateConfig)

type simulateConfig struct {
	stopCondition StopCondition
	metadataDir   string
	author        metadata.Author
}

// WithStopCondition replaces the engine's stop condition, starting with
// this run; the replacement stays installed after Simulate returns.
func WithStopCondition(fn StopCondition) Option {
	return func(c *simulateConfig) { c.stopCondition = fn }
}

// WithMetadataDir directs run metadata to be written to dir on
// completion (spec.md §6's metadata_dir parameter).
func WithMetadataDir(dir string) Option {
	return func(c *simulateConfig) { c.metadataDir = dir }
}

// WithAuthor attaches operator attribution to the run's metadata record.
// There is exactly one metadata.Collector per Simulate call, owned by the
// engine; callers that want author attribution in metadata.json supply it
// here rather than running a second collector against the same directory.
func WithAuthor(a metadata.Author) Option {
	return func(c *simulateConfig) { c.author = a }
}

// Simulate runs the simulation to time_max, implementing the core
// algorithm of spec.md §4.6. Returns the number of batches handled.
//
// Preconditions: Initialized state, non-empty queue. Fails NotInitialized,
// NoObjects, or NoEvents at entry.
func (e *SimulationEngine) Simulate(timeMax float64, opts ...Option) (int, error) {
	if e.state != StateInitialized {
		return 0, simerr.ErrNotInitialized
	}
	if len(e.objects) == 0 {
		return 0, simerr.ErrNoObjects
	}
	if e.eventQueue.Empty() {
		return 0, simerr.ErrNoEvents
	}

	cfg := &simulateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	stopCond := e.stopCond
	if cfg.stopCondition != nil {
		stopCond = cfg.stopCondition
		e.stopCond = stopCond
	}

	e.state = StateRunning
	if e.progress != nil {
		e.progress.Start(timeMax)
	}
	e.metadataCollector = metadata.NewCollector().WithAuthor(cfg.author)
	e.metadataCollector.Start(timeMax)

	e.log.WithField("sim_time", e.time).Infof("Simulation to %g starting", timeMax)

	batchesHandled := 0
	for {
		if stopCond != nil && stopCond(e.time) {
			e.log.WithField("sim_time", e.time).Info(StopConditionSatisfied)
			break
		}

		nextTime := e.eventQueue.PeekNextTime()
		if math.IsInf(nextTime, 1) {
			e.log.WithField("sim_time", e.time).Info(NoEventsRemain)
			break
		}
		if nextTime > timeMax {
			e.log.WithField("sim_time", e.time).Info(EndTimeExceeded)
			break
		}

		receiverName := e.eventQueue.PeekNextReceiver()
		obj, ok := e.objects[receiverName.Name()]
		if !ok {
			return batchesHandled, fmt.Errorf("%w: %q", simerr.ErrUnregisteredObject, receiverName.Name())
		}

		if nextTime < obj.Time() {
			return batchesHandled, fmt.Errorf("%w: dispatching %q, event time (%g) < object time (%g)",
				simerr.ErrCausalityViolation, obj.Name(), nextTime, obj.Time())
		}

		e.time = nextTime
		obj.SetTime(nextTime)

		batch := e.eventQueue.PopNextBatch()
		for _, ev := range batch {
			key := eventCountKey(obj, ev)
			e.eventCounts[key]++
		}

		e.log.WithField("sim_time", e.time).Debugf("Running %q at %g", obj.Name(), obj.Time())
		if err := obj.HandleEventList(batch); err != nil {
			return batchesHandled, fmt.Errorf("simulation ended with error while dispatching %q: %w", obj.Name(), err)
		}

		if e.progress != nil {
			e.progress.Progress(nextTime)
		}
		batchesHandled++
	}

	if e.progress != nil {
		e.progress.End()
	}
	e.metadataCollector.Finish(cfg.metadataDir)
	e.state = StateTerminated
	return batchesHandled, nil
}

func eventCountKey(obj simobject.Object, ev *event.Event) string {
	return fmt.Sprintf("%T — %s — %s", obj, obj.Name(), ev.Message.TypeName())
}

// StepOne dispatches exactly one batch and returns without advancing past
// it, for external step-mode drivers such as cmd/desim serve's "step"
// message. It shares the per-batch dispatch core with Simulate but, unlike
// Simulate, does not terminate the engine after a dispatch: a caller
// stepping through a run decides when to stop. The engine transitions to
// Terminated only when done is true, i.e. no further batch could be
// dispatched (queue empty or stop condition satisfied).
//
// Preconditions: Initialized or already Running (from a prior StepOne)
// state. Fails NotInitialized or NoObjects at entry, same as Simulate.
// object names the object StepOne dispatched to; it is only meaningful
// when dispatched is true.
func (e *SimulationEngine) StepOne() (object string, dispatched bool, done bool, diagnostic string, err error) {
	if e.state != StateInitialized && e.state != StateRunning {
		return "", false, false, "", simerr.ErrNotInitialized
	}
	if len(e.objects) == 0 {
		return "", false, false, "", simerr.ErrNoObjects
	}
	if e.state == StateInitialized {
		e.state = StateRunning
	}

	if e.stopCond != nil && e.stopCond(e.time) {
		e.state = StateTerminated
		e.log.WithField("sim_time", e.time).Info(StopConditionSatisfied)
		return "", false, true, StopConditionSatisfied, nil
	}

	nextTime := e.eventQueue.PeekNextTime()
	if math.IsInf(nextTime, 1) {
		e.state = StateTerminated
		e.log.WithField("sim_time", e.time).Info(NoEventsRemain)
		return "", false, true, NoEventsRemain, nil
	}

	receiverName := e.eventQueue.PeekNextReceiver()
	obj, ok := e.objects[receiverName.Name()]
	if !ok {
		return "", false, false, "", fmt.Errorf("%w: %q", simerr.ErrUnregisteredObject, receiverName.Name())
	}
	if nextTime < obj.Time() {
		return "", false, false, "", fmt.Errorf("%w: dispatching %q, event time (%g) < object time (%g)",
			simerr.ErrCausalityViolation, obj.Name(), nextTime, obj.Time())
	}

	e.time = nextTime
	obj.SetTime(nextTime)

	batch := e.eventQueue.PopNextBatch()
	for _, ev := range batch {
		key := eventCountKey(obj, ev)
		e.eventCounts[key]++
	}

	e.log.WithField("sim_time", e.time).Debugf("Stepping %q at %g", obj.Name(), obj.Time())
	if err := obj.HandleEventList(batch); err != nil {
		return "", false, false, "", fmt.Errorf("simulation ended with error while dispatching %q: %w", obj.Name(), err)
	}

	return obj.Name(), true, false, "", nil
}

// MessageQueues returns a string listing all message queues in the
// simulation, per spec.md §6's message_queues().
func (e *SimulationEngine) MessageQueues() string {
	names := make([]string, 0, len(e.objects))
	for name := range e.objects {
		names = append(names, name)
	}
	sort.Strings(names)

	out := fmt.Sprintf("Event queues at %6.3f\n", e.time)
	for _, name := range names {
		out += name + ":\n"
		rendered := e.eventQueue.Render(name)
		if rendered == "" {
			out += "Empty event queue\n"
		} else {
			out += rendered + "\n"
		}
		out += "\n"
	}
	return out
}

// ProvideEventCounts returns the categorized event counts as a
// tab-separated table, most-common first, per spec.md §6.
func (e *SimulationEngine) ProvideEventCounts() string {
	type row struct {
		key   string
		count int
	}
	rows := make([]row, 0, len(e.eventCounts))
	for k, v := range e.eventCounts {
		rows = append(rows, row{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})

	out := "Count\tEvent type (Object type - object name - event type)\n"
	for _, r := range rows {
		out += fmt.Sprintf("%d\t%s\n", r.count, r.key)
	}
	return out
}

// EventCounts returns a copy of the raw event-count map, keyed by
// "ObjectType — objectName — MessageType".
func (e *SimulationEngine) EventCounts() map[string]int {
	out := make(map[string]int, len(e.eventCounts))
	for k, v := range e.eventCounts {
		out[k] = v
	}
	return out
}

// State snapshot types for GetSimulationState, spec.md §6.

// ObjectState summarizes one simulation object for a state snapshot.
type ObjectState struct {
	Type  string
	Name  string
	Time  float64
	State any
	Queue string
}

// SharedState summarizes one shared-state observer for a snapshot.
type SharedState struct {
	Type  string
	Name  string
	State any
}

// Snapshot is the structured state returned by GetSimulationState.
type Snapshot struct {
	Time        float64
	Objects     []ObjectState
	SharedState []SharedState
}

// GetSimulationState returns the simulation's full-state snapshot:
// simulated time, per-object state and per-object queue rendering, and
// shared-state observer snapshots — spec.md §4.5 and Design Notes §9.
func (e *SimulationEngine) GetSimulationState() Snapshot {
	names := make([]string, 0, len(e.objects))
	for name := range e.objects {
		names = append(names, name)
	}
	sort.Strings(names)

	objStates := make([]ObjectState, 0, len(names))
	for _, name := range names {
		obj := e.objects[name]
		objStates = append(objStates, ObjectState{
			Type:  fmt.Sprintf("%T", obj),
			Name:  obj.Name(),
			Time:  obj.Time(),
			State: obj.GetState(),
			Queue: e.eventQueue.Render(name),
		})
	}

	sharedStates := make([]SharedState, 0, len(e.sharedState))
	for _, s := range e.sharedState {
		sharedStates = append(sharedStates, SharedState{
			Type:  fmt.Sprintf("%T", s),
			Name:  s.Name(),
			State: s.Snapshot(e.time),
		})
	}

	return Snapshot{Time: e.time, Objects: objStates, SharedState: sharedStates}
}
