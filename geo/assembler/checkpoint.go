package assembler

import (
	"fmt"
	"github.com/rotblauer/trajd/conceptual"
	"github.com/rotblauer/trajd/types/sample"
)

// Checkpoint is the resumable state of an engine: its counters
// and its open (unfinished) trajectories.
// It allows a feed to be assembled incrementally, across runs,
// without flushing trajectories that may yet continue.
type Checkpoint struct {
	// Config is the hash of the assembly config the state was built under.
	// Zero skips the check on resume.
	Config uint64           `json:"config"`
	Stats  Stats            `json:"stats"`
	Open   []OpenTrajectory `json:"open"`
}

type OpenTrajectory struct {
	Key     conceptual.ObjectKey `json:"key"`
	Samples []*sample.Sample     `json:"samples"`
}

// Checkpoint captures the engine's state. Samples are shared, not copied.
func (e *Engine) Checkpoint() *Checkpoint {
	c := &Checkpoint{
		Config: e.configHash,
		Stats:  e.Stats(),
		Open:   make([]OpenTrajectory, 0, len(e.order)),
	}
	for _, key := range e.order {
		p := e.open[key]
		samples := make([]*sample.Sample, len(p.samples))
		copy(samples, p.samples)
		c.Open = append(c.Open, OpenTrajectory{Key: key, Samples: samples})
	}
	return c
}

// Resume restores a checkpoint into an unused engine.
func (e *Engine) Resume(c *Checkpoint) error {
	if e.err != nil {
		return e.failed()
	}
	if e.Stats() != (Stats{}) || len(e.order) > 0 {
		return ErrResumeDirty
	}
	if c == nil {
		return fmt.Errorf("%w: nil", ErrInvalidCheckpoint)
	}
	if c.Config != 0 && c.Config != e.configHash {
		return fmt.Errorf("%w: assembled under another config", ErrInvalidCheckpoint)
	}

	open := make(map[conceptual.ObjectKey]*partial, len(c.Open))
	order := make([]conceptual.ObjectKey, 0, len(c.Open))
	for _, ot := range c.Open {
		if len(ot.Samples) == 0 {
			return fmt.Errorf("%w: empty trajectory for %q", ErrInvalidCheckpoint, ot.Key)
		}
		if _, dupe := open[ot.Key]; dupe {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidCheckpoint, ot.Key)
		}
		var p *partial
		for _, s := range ot.Samples {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("%w: %q: %w", ErrInvalidCheckpoint, ot.Key, err)
			}
			if key, _ := s.Key(); key != ot.Key {
				return fmt.Errorf("%w: sample key %q in trajectory %q", ErrInvalidCheckpoint, key, ot.Key)
			}
			if p == nil {
				p = newPartial(ot.Key, s)
				continue
			}
			p.add(s)
		}
		open[ot.Key] = p
		order = append(order, ot.Key)
	}

	e.open = open
	e.order = order
	e.pointsProcessed.Inc(c.Stats.PointsProcessed)
	e.valid.Inc(c.Stats.Valid)
	e.invalid.Inc(c.Stats.Invalid)
	return nil
}
