// Package shared defines SharedStateObserver, the read-only contributor
// to a simulation's full-state snapshot described in spec.md §3 and
// Design Notes §9. Observers are never written to by the engine and never
// participate in event flow.
package shared

// Observer is a read-only capability exposing a name and a point-in-time
// snapshot of some piece of global state outside the object registry.
// Grounded on original_source/de_sim/simulation_engine.py's
// `get_simulation_state`, which iterates `self.shared_state` calling
// `get_name()`/`get_shared_state(time)` on each entry.
type Observer interface {
	Name() string
	Snapshot(time float64) any
}
