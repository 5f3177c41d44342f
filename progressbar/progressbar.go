// Package progressbar implements the optional progress-reporting
// collaborator referenced by spec.md §6's simulate(progress=...)
// parameter. No example repo in the pack imports a dedicated progress-bar
// library (the teacher reports state over a websocket instead), so this
// implementation is stdlib-grounded — see DESIGN.md.
//
// Grounded on original_source/de_sim/simulation_engine.py's
// SimulationProgressBar, which wraps a third-party Python progress bar
// behind the same Start/Progress/End shape this package exposes.
package progressbar

import (
	"fmt"
	"io"
	"os"
)

// Reporter is notified of simulation progress. The engine calls it once
// per batch; it never affects scheduling or dispatch.
type Reporter interface {
	Start(timeMax float64)
	Progress(time float64)
	End()
}

// TerminalBar renders a carriage-return-updated progress bar to an
// io.Writer (os.Stderr by default), matching the "enabled" mode of
// SimulationProgressBar.
type TerminalBar struct {
	out     io.Writer
	width   int
	timeMax float64
}

// NewTerminalBar returns a Reporter that writes to os.Stderr.
func NewTerminalBar() *TerminalBar {
	return &TerminalBar{out: os.Stderr, width: 40}
}

func (b *TerminalBar) Start(timeMax float64) {
	b.timeMax = timeMax
	fmt.Fprintf(b.out, "simulating to t=%g\n", timeMax)
}

func (b *TerminalBar) Progress(time float64) {
	if b.timeMax <= 0 {
		return
	}
	frac := time / b.timeMax
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(b.width))
	bar := make([]byte, b.width)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	fmt.Fprintf(b.out, "\r[%s] t=%.3f", string(bar), time)
}

func (b *TerminalBar) End() {
	fmt.Fprintln(b.out)
}

// Noop implements Reporter with no observable effect — the default when
// progress reporting is disabled.
type Noop struct{}

func (Noop) Start(float64)   {}
func (Noop) Progress(float64) {}
func (Noop) End()             {}
