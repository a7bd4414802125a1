package assembler

import (
	"github.com/rotblauer/trajd/conceptual"
	"github.com/rotblauer/trajd/types/sample"
)

// partial is the open, unfinished trajectory of one object.
// Samples are append-only, in arrival order.
type partial struct {
	key     conceptual.ObjectKey
	samples []*sample.Sample
	last    *sample.Sample // the tail, compared with the next sample
}

func newPartial(key conceptual.ObjectKey, first *sample.Sample) *partial {
	return &partial{
		key:     key,
		samples: []*sample.Sample{first},
		last:    first,
	}
}

func (p *partial) add(s *sample.Sample) {
	p.samples = append(p.samples, s)
	p.last = s
}

func (p *partial) len() int {
	return len(p.samples)
}
