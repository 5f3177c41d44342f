package cli

import (
	"fmt"
	"math/rand"

	"github.com/ersantana/desim/config"
	"github.com/ersantana/desim/engine"
	"github.com/ersantana/desim/event"
	"github.com/ersantana/desim/phold"
)

// buildEngine constructs an Initialized engine for one of desim's bundled
// example projects, selected by cfg.Project. Grounded on
// original_source/tests/test_simulation_engine.py's fixture objects
// (single periodic object, cyclical ring, PHOLD network): "periodic"
// builds spec.md §8's scenario 1, "ring" builds scenario 4 with four
// nodes, and "phold" builds an eight-node PHOLD network.
func buildEngine(cfg config.RunConfig) (*engine.SimulationEngine, error) {
	eng := engine.New(nil, nil)

	switch cfg.Project {
	case "periodic", "":
		p := phold.NewPeriodic("periodic_0", 1, 1)
		if err := eng.AddObject(p); err != nil {
			return nil, err
		}
	case "ring":
		nodes := phold.BuildRing("ring", 4, 1)
		for _, n := range nodes {
			if err := eng.AddObject(n); err != nil {
				return nil, err
			}
		}
		if err := eng.ScheduleEvent(0, 1, nodes[0], nodes[0], phold.TickSchema.MustNew()); err != nil {
			return nil, err
		}
	case "phold":
		const n = 8
		rng := rand.New(rand.NewSource(cfg.Seed))
		nodes := make([]*phold.Phold, n)
		for i := 0; i < n; i++ {
			nodes[i] = phold.NewPhold(fmt.Sprintf("phold_%d", i), 1.5, rng)
			if err := eng.AddObject(nodes[i]); err != nil {
				return nil, err
			}
		}
		for i := range nodes {
			nodes[i].SetNeighbors(neighborsExcluding(nodes, i))
			if err := eng.ScheduleEvent(0, float64(i), nodes[0], nodes[i], phold.TokenSchema.MustNew(0)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown project %q", cfg.Project)
	}

	if err := eng.Initialize(); err != nil {
		return nil, err
	}
	return eng, nil
}

func neighborsExcluding(nodes []*phold.Phold, self int) []event.Named {
	out := make([]event.Named, 0, len(nodes)-1)
	for i, n := range nodes {
		if i != self {
			out = append(out, n)
		}
	}
	return out
}
