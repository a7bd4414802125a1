package assembler

import (
	"context"
	"errors"
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/rotblauer/trajd/types/trajectory"
	"golang.org/x/sync/errgroup"
	"hash/fnv"
)

// Sharded runs several engines in parallel, each owning a disjoint set of object keys.
// Keys are assigned to shards by hash, so one key's samples stay in order on one engine.
// Emission order across keys is not deterministic.
type Sharded struct {
	engines []*Engine
}

func NewSharded(n int, config *params.AssemblyConfig, fn distance.Func) (*Sharded, error) {
	if n < 1 {
		return nil, errors.New("sharded assembler needs at least one shard")
	}
	s := &Sharded{engines: make([]*Engine, 0, n)}
	for i := 0; i < n; i++ {
		e, err := NewEngine(config, fn)
		if err != nil {
			return nil, err
		}
		s.engines = append(s.engines, e)
	}
	return s, nil
}

func (s *Sharded) Engines() []*Engine {
	return s.engines
}

// shardOf returns the shard for the sample's key.
// Keyless samples go to the first shard, which will reject them.
func (s *Sharded) shardOf(smp *sample.Sample) int {
	key, err := smp.Key()
	if err != nil {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.engines)))
}

// Stats merges the counters of all shards.
func (s *Sharded) Stats() Stats {
	total := Stats{}
	for _, e := range s.engines {
		total = total.Add(e.Stats())
	}
	return total
}

// Stream dispatches samples to the shards and merges their trajectories.
// The first error from any shard stops all shards (without flushing) and is sent on the error channel.
func (s *Sharded) Stream(ctx context.Context, in <-chan *sample.Sample) (<-chan *trajectory.Trajectory, <-chan error) {
	out := make(chan *trajectory.Trajectory)
	errs := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	shardChs := make([]chan *sample.Sample, len(s.engines))
	for i := range shardChs {
		shardChs[i] = make(chan *sample.Sample, params.DefaultBufferSize)
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range shardChs {
				close(ch)
			}
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case smp, ok := <-in:
				if !ok {
					return nil
				}
				select {
				case <-gctx.Done():
					return nil
				case shardChs[s.shardOf(smp)] <- smp:
				}
			}
		}
	})

	for i, e := range s.engines {
		g.Go(func() error {
			trs, shardErrs := e.Stream(gctx, shardChs[i])
			for tr := range trs {
				select {
				case <-gctx.Done():
				case out <- tr:
				}
			}
			return <-shardErrs
		})
	}

	go func() {
		defer close(errs)
		err := g.Wait()
		close(out)
		if err != nil {
			errs <- err
		}
	}()
	return out, errs
}
