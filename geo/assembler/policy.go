package assembler

import (
	"fmt"
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/sample"
	"time"
)

// Decision is what to do with an incoming sample given the tail of its object's open trajectory.
type Decision int

const (
	Continue Decision = iota
	BreakTime
	BreakDistance
)

func (d Decision) IsBreak() bool {
	return d != Continue
}

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case BreakTime:
		return "break(time)"
	case BreakDistance:
		return "break(distance)"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Policy decides where trajectories are cut.
// It is a pure function of its thresholds and the two samples compared.
type Policy struct {
	SeparationTime time.Duration

	// SeparationDistance, if not nil, enables distance breaks.
	SeparationDistance *float64

	Distance distance.Func
}

func NewPolicy(config *params.AssemblyConfig, fn distance.Func) Policy {
	if fn == nil {
		fn = distance.Geodesic
	}
	return Policy{
		SeparationTime:     config.SeparationTime,
		SeparationDistance: config.SeparationDistance,
		Distance:           fn,
	}
}

// Decide compares next against last, the tail of the open trajectory for next's key.
// Either threshold being exceeded breaks; equality does not.
// Time is checked first, and distance is only measured when time continues.
// A next sample older than last is an error (ErrNonMonotonicTimestamp).
// Distance function errors are returned as they are.
func (p Policy) Decide(last, next *sample.Sample) (Decision, error) {
	lastTime, err := last.Time()
	if err != nil {
		return Continue, fmt.Errorf("%w: %w", ErrMalformedSample, err)
	}
	nextTime, err := next.Time()
	if err != nil {
		return Continue, fmt.Errorf("%w: %w", ErrMalformedSample, err)
	}

	span := nextTime.Sub(lastTime)
	if span < 0 {
		return Continue, fmt.Errorf("%w: %s precedes %s by %s",
			ErrNonMonotonicTimestamp, nextTime.Format(time.RFC3339Nano), lastTime.Format(time.RFC3339Nano), -span)
	}
	if span > p.SeparationTime {
		return BreakTime, nil
	}

	if p.SeparationDistance != nil {
		d, err := p.Distance(last.Position(), next.Position())
		if err != nil {
			return Continue, err
		}
		if d > *p.SeparationDistance {
			return BreakDistance, nil
		}
	}
	return Continue, nil
}
