// Package checkpoint implements the external, periodic-checkpoint
// collaborator spec.md §1 and §6 describe and spec.md §1's Non-goals
// explicitly keep out of THE CORE ("periodic-checkpoint serialization to
// durable storage"). The engine never imports this package; the CLI
// does: `desim run` writes checkpoints from a progress-reporter wrapper
// that calls engine.GetSimulationState() during a single simulate() call,
// and `desim replay` lists them.
//
// Adapted from the teacher's packages/failure/injector.Injector: the same
// mutex-guarded registry-of-named-records shape and ID-generation helper,
// repurposed from wall-clock failure scheduling to simulated-time
// checkpoint storage. The durable sink is a
// github.com/mattn/go-sqlite3-backed SQLite file (grounded on
// roach88-nysm's use of the same driver), one row per checkpoint, rather
// than spec.md §6's "named file under a directory" layout — a documented
// implementation choice (see DESIGN.md) since a single embedded database
// file gives the same query-by-time capability with less directory
// bookkeeping.
package checkpoint

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"
)

// Checkpoint is one persisted simulation snapshot.
type Checkpoint struct {
	ID            string
	SimulatedTime float64
	StateJSON     string
	PRNGState     string
}

// Writer persists checkpoints to a SQLite-backed store. Safe for
// concurrent use (e.g. a CLI goroutine alongside a websocket status
// reader), but never called from inside the engine's scheduling loop.
type Writer struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if absent) a SQLite checkpoint store at path.
func Open(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS checkpoints (
		id TEXT PRIMARY KEY,
		simulated_time REAL NOT NULL,
		state_json TEXT NOT NULL,
		prng_state TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint table: %w", err)
	}
	return &Writer{db: db}, nil
}

// Write persists a new checkpoint row and returns its generated ID.
func (w *Writer) Write(simulatedTime float64, stateJSON, prngState string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	_, err := w.db.Exec(
		`INSERT INTO checkpoints (id, simulated_time, state_json, prng_state) VALUES (?, ?, ?, ?)`,
		id, simulatedTime, stateJSON, prngState,
	)
	if err != nil {
		return "", fmt.Errorf("writing checkpoint: %w", err)
	}
	return id, nil
}

// Latest returns the checkpoint with the greatest simulated time, or nil
// if none exist.
func (w *Writer) Latest() (*Checkpoint, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := w.db.QueryRow(`SELECT id, simulated_time, state_json, prng_state
		FROM checkpoints ORDER BY simulated_time DESC LIMIT 1`)
	var cp Checkpoint
	if err := row.Scan(&cp.ID, &cp.SimulatedTime, &cp.StateJSON, &cp.PRNGState); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("reading latest checkpoint: %w", err)
	}
	return &cp, nil
}

// List returns all checkpoints ordered by simulated time, ascending.
func (w *Writer) List() ([]Checkpoint, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.db.Query(`SELECT id, simulated_time, state_json, prng_state
		FROM checkpoints ORDER BY simulated_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.SimulatedTime, &cp.StateJSON, &cp.PRNGState); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (w *Writer) Close() error {
	return w.db.Close()
}
