// Package metadata collects the external, peripheral run-metadata record
// spec.md §6 describes: application identity, run info (IP, start
// wall-clock, duration), author info, and the run's configured
// start/max times. The core (engine) only provides the values; this
// package owns the format.
//
// Grounded on original_source/de_sim/simulation_engine.py's
// init_metadata_collection/finish_metadata_collection, which build a
// DiscreteEventSimMetadata(application, sim_config, run, author) and
// write it out via DiscreteEventSimMetadata.write_metadata. DESIM
// replaces the Python side's wc_utils.util.git dependency (no Go
// equivalent in the pack) with a plain `git rev-parse --short HEAD`
// shellout, since no pack example imports a go-git-style library for
// pure identity metadata.
package metadata

import (
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Application identifies the code under simulation.
type Application struct {
	ModulePath string `json:"modulePath"`
	Revision   string `json:"revision"`
}

// Run records the wall-clock envelope of a single simulation run.
type Run struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
	Duration  string    `json:"duration,omitempty"`
}

// Author is freeform operator-supplied attribution for a run.
type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SimConfig records the simulate() parameters worth persisting alongside
// a run's metadata.
type SimConfig struct {
	StartTime float64 `json:"startTime"`
	TimeMax   float64 `json:"timeMax"`
}

// Record is the full metadata document written for one run.
type Record struct {
	Application Application `json:"application"`
	Run         Run         `json:"run"`
	Author      Author      `json:"author"`
	SimConfig   SimConfig   `json:"simConfig"`
}

// Collector accumulates a Record across a run's lifetime: Start records
// the application and run-start facts, Finish records the run-end facts
// and optionally persists the document.
type Collector struct {
	record Record
}

// NewCollector builds a Collector carrying the application identity,
// collected on every call (one git shellout per Collector; the engine
// builds one Collector per Simulate call).
func NewCollector() *Collector {
	return &Collector{
		record: Record{
			Application: applicationIdentity(),
		},
	}
}

// WithAuthor attaches operator attribution to the run record.
func (c *Collector) WithAuthor(a Author) *Collector {
	c.record.Author = a
	return c
}

// Start records run-start facts: IP address, start wall-clock, and the
// configured time_max.
func (c *Collector) Start(timeMax float64) {
	c.record.Run = Run{
		ID:        uuid.NewString(),
		IPAddress: localIP(),
		StartedAt: time.Now(),
	}
	c.record.SimConfig = SimConfig{StartTime: 0, TimeMax: timeMax}
}

// Finish records the run's end wall-clock and duration, and — if dir is
// non-empty — writes the completed record to <dir>/metadata.json.
func (c *Collector) Finish(dir string) {
	c.record.Run.EndedAt = time.Now()
	c.record.Run.Duration = c.record.Run.EndedAt.Sub(c.record.Run.StartedAt).String()
	if dir == "" {
		return
	}
	_ = c.Write(dir)
}

// Record returns the accumulated metadata record.
func (c *Collector) Record() Record { return c.record }

// Write marshals the record to <dir>/metadata.json, creating dir if
// needed.
func (c *Collector) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o644)
}

func applicationIdentity() Application {
	rev := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		rev = strings.TrimSpace(string(out))
	}
	return Application{
		ModulePath: "github.com/ersantana/desim",
		Revision:   rev,
	}
}

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "unknown"
}
