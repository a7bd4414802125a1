package assembler

import (
	"context"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/rotblauer/trajd/types/trajectory"
)

// Stream consumes a channel of samples and emits completed trajectories.
// When in is closed, the open trajectories are flushed, and out is closed.
// If the context is canceled first, open trajectories are NOT flushed;
// they are an incomplete assembly, and stay in the engine for the caller to decide on.
// The first error is sent on the error channel, and ends the stream.
func (e *Engine) Stream(ctx context.Context, in <-chan *sample.Sample) (<-chan *trajectory.Trajectory, <-chan error) {
	out := make(chan *trajectory.Trajectory)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)

		send := func(tr *trajectory.Trajectory) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- tr:
				return true
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-in:
				if !ok {
					// in may have been closed because of the cancellation.
					if ctx.Err() != nil {
						return
					}
					flushed, err := e.Flush()
					if err != nil {
						errs <- err
						return
					}
					for _, tr := range flushed {
						if !send(tr) {
							return
						}
					}
					return
				}
				tr, err := e.Process(s)
				if err != nil {
					errs <- err
					return
				}
				if tr != nil && !send(tr) {
					return
				}
			}
		}
	}()
	return out, errs
}
