package assembler

import (
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/rotblauer/trajd/types/trajectory"
	"iter"
	"slices"
)

// All returns a lazy sequence of the trajectories assembled from samples.
// Pulling from it pulls from samples only as far as needed to produce the next trajectory.
// The first error ends the sequence.
// Open trajectories are flushed only once samples is exhausted;
// stopping iteration early leaves them open (and unflushed) in the engine.
func (e *Engine) All(samples iter.Seq[*sample.Sample]) iter.Seq2[*trajectory.Trajectory, error] {
	return func(yield func(*trajectory.Trajectory, error) bool) {
		for s := range samples {
			tr, err := e.Process(s)
			if err != nil {
				yield(nil, err)
				return
			}
			if tr != nil && !yield(tr, nil) {
				return
			}
		}
		flushed, err := e.Flush()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, tr := range flushed {
			if !yield(tr, nil) {
				return
			}
		}
	}
}

// Assemble runs a fresh engine over a slice of samples.
// On error, the trajectories emitted before the offending sample are returned with it.
func Assemble(config *params.AssemblyConfig, fn distance.Func, samples []*sample.Sample) ([]*trajectory.Trajectory, Stats, error) {
	e, err := NewEngine(config, fn)
	if err != nil {
		return nil, Stats{}, err
	}
	out := []*trajectory.Trajectory{}
	for tr, err := range e.All(slices.Values(samples)) {
		if err != nil {
			return out, e.Stats(), err
		}
		out = append(out, tr)
	}
	return out, e.Stats(), nil
}
