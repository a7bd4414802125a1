// Package assembler cuts a stream of samples into trajectories:
// maximal runs of samples of one object that are close enough in time,
// and optionally in space, to be considered one continuous movement.
//
// The engine keeps one open trajectory per object key. Every incoming sample
// either continues its object's open trajectory or breaks it; a broken trajectory
// is finalized, and emitted if it is long enough. When the input ends,
// all open trajectories are finalized in the order their keys were first seen.
//
// Input must be chronological per key. The engine does not sort,
// de-duplicate, or smooth; it only decides where to cut.
package assembler

import (
	"fmt"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trajd/conceptual"
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/rotblauer/trajd/types/trajectory"
	"log/slog"
)

const (
	MetricPointsProcessed     = "points.processed"
	MetricValidTrajectories   = "trajectories.valid"
	MetricInvalidTrajectories = "trajectories.invalid"
)

// Engine assembles trajectories from samples.
// It is single-threaded: Process, Flush, and the iterators built on them
// must be driven by one goroutine. Stats may be read from anywhere.
type Engine struct {
	config     *params.AssemblyConfig
	configHash uint64
	policy     Policy

	open  map[conceptual.ObjectKey]*partial
	order []conceptual.ObjectKey // key discovery order, for flushing
	err   error

	reg             metrics.Registry
	pointsProcessed metrics.Counter
	valid           metrics.Counter
	invalid         metrics.Counter
}

// NewEngine validates the config and returns a fresh engine.
// A nil distance function defaults to distance.Geodesic.
func NewEngine(config *params.AssemblyConfig, fn distance.Func) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cp := *config
	if cp.SeparationDistance != nil {
		d := *cp.SeparationDistance
		cp.SeparationDistance = &d
	}
	hash, err := cp.Fingerprint()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:          &cp,
		configHash:      hash,
		policy:          NewPolicy(&cp, fn),
		open:            make(map[conceptual.ObjectKey]*partial),
		order:           make([]conceptual.ObjectKey, 0),
		reg:             metrics.NewRegistry(),
		pointsProcessed: metrics.NewCounterForced(),
		valid:           metrics.NewCounterForced(),
		invalid:         metrics.NewCounterForced(),
	}
	for name, c := range map[string]metrics.Counter{
		MetricPointsProcessed:     e.pointsProcessed,
		MetricValidTrajectories:   e.valid,
		MetricInvalidTrajectories: e.invalid,
	} {
		if err := e.reg.Register(name, c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) Config() params.AssemblyConfig {
	return *e.config
}

// Registry returns the engine's private metrics registry, holding its counters.
func (e *Engine) Registry() metrics.Registry {
	return e.reg
}

// Err returns the error that failed the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

func (e *Engine) fail(err error) error {
	e.err = err
	return err
}

func (e *Engine) failed() error {
	return fmt.Errorf("%w: %w", ErrEngineFailed, e.err)
}

// Process consumes one sample.
// It returns the trajectory finalized by this sample, if its break closed a valid one.
// A sample missing its key or time (ErrMalformedSample), or older than the last
// sample of its key (ErrNonMonotonicTimestamp), fails the engine.
// Other keys' open trajectories are left as they were.
func (e *Engine) Process(s *sample.Sample) (*trajectory.Trajectory, error) {
	if e.err != nil {
		return nil, e.failed()
	}
	e.pointsProcessed.Inc(1)

	key, err := s.Key()
	if err != nil {
		return nil, e.fail(fmt.Errorf("%w: point %d: %w", ErrMalformedSample, e.pointsProcessed.Snapshot().Count(), err))
	}
	if _, err := s.Time(); err != nil {
		return nil, e.fail(fmt.Errorf("%w: point %d (%s): %w", ErrMalformedSample, e.pointsProcessed.Snapshot().Count(), key, err))
	}

	p, ok := e.open[key]
	if !ok {
		e.open[key] = newPartial(key, s)
		e.order = append(e.order, key)
		return nil, nil
	}

	decision, err := e.policy.Decide(p.last, s)
	if err != nil {
		return nil, e.fail(err)
	}
	if !decision.IsBreak() {
		p.add(s)
		return nil, nil
	}

	slog.Debug("Assembler break", "key", key, "decision", decision, "len", p.len(),
		"last", p.last.MustTime(), "next", s.MustTime())
	e.open[key] = newPartial(key, s)
	return e.finalize(p), nil
}

// finalize counts a closed partial as valid or invalid,
// and returns its trajectory if valid.
func (e *Engine) finalize(p *partial) *trajectory.Trajectory {
	if p.len() < e.config.MinimumLength {
		e.invalid.Inc(1)
		return nil
	}
	e.valid.Inc(1)
	return trajectory.New(p.key, p.samples).WithDistance(e.policy.Distance)
}

// Flush finalizes every open trajectory, in key discovery order,
// and returns those long enough to be valid. The engine is then empty,
// and may continue to process samples as if new.
func (e *Engine) Flush() ([]*trajectory.Trajectory, error) {
	if e.err != nil {
		return nil, e.failed()
	}
	out := make([]*trajectory.Trajectory, 0, len(e.order))
	for _, key := range e.order {
		if tr := e.finalize(e.open[key]); tr != nil {
			out = append(out, tr)
		}
	}
	e.open = make(map[conceptual.ObjectKey]*partial)
	e.order = e.order[:0]
	return out, nil
}

// OpenKeys returns the keys with open trajectories, in discovery order.
func (e *Engine) OpenKeys() []conceptual.ObjectKey {
	out := make([]conceptual.ObjectKey, len(e.order))
	copy(out, e.order)
	return out
}

// OpenLen returns the number of samples in the open trajectory for key.
func (e *Engine) OpenLen(key conceptual.ObjectKey) int {
	p, ok := e.open[key]
	if !ok {
		return 0
	}
	return p.len()
}

// Stats returns the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		PointsProcessed: e.pointsProcessed.Snapshot().Count(),
		Valid:           e.valid.Snapshot().Count(),
		Invalid:         e.invalid.Snapshot().Count(),
	}
}
