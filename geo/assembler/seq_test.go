package assembler

import (
	"context"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/testing/testdata"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"iter"
	"testing"
)

// counting yields samples, counting how many were pulled.
func counting(samples []*sample.Sample, pulled *int) iter.Seq[*sample.Sample] {
	return func(yield func(*sample.Sample) bool) {
		for _, s := range samples {
			*pulled++
			if !yield(s) {
				return
			}
		}
	}
}

func TestEngine_All_Lazy(t *testing.T) {
	e := newTestEngine(t, flightConfig(10))
	pulled := 0
	for tr, err := range e.All(counting(testdata.Flight1(), &pulled)) {
		require.NoError(t, err)
		assert.Equal(t, 180, tr.Len())
		break
	}
	// The first leg is emitted on the first sample of the second.
	assert.Equal(t, 181, pulled)

	// Stopping early does not flush.
	assert.Equal(t, Stats{PointsProcessed: 181, Valid: 1}, e.Stats())
	assert.Equal(t, 1, e.OpenLen("flight1"))
}

func TestEngine_All_Error(t *testing.T) {
	e := newTestEngine(t, params.DefaultAssemblyConfig())
	samples := []*sample.Sample{
		at("a", 0, orb.Point{}),
		at("a", 1, orb.Point{}),
		at("a", 0, orb.Point{}),
		at("a", 2, orb.Point{}),
	}
	pulled := 0
	n, errs := 0, 0
	for tr, err := range e.All(counting(samples, &pulled)) {
		if err != nil {
			errs++
			assert.ErrorIs(t, err, ErrNonMonotonicTimestamp)
			continue
		}
		assert.NotNil(t, tr)
		n++
	}
	assert.Zero(t, n)
	assert.Equal(t, 1, errs, "the first error ends the sequence")
	assert.Equal(t, 3, pulled)
}

func TestAssemble(t *testing.T) {
	got, stats, err := Assemble(flightConfig(10), nil, testdata.Flight1())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Stats{PointsProcessed: 1140, Valid: 3}, stats)

	_, _, err = Assemble(nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAssemble_TwoCats(t *testing.T) {
	samples, err := testdata.ReadSamples(context.Background(), testdata.Source_TwoCats)
	require.NoError(t, err)
	require.Len(t, samples, 10)

	got, stats, err := Assemble(params.DefaultAssemblyConfig(), nil, samples)
	require.ErrorIs(t, err, ErrMalformedSample)
	require.Len(t, got, 1, "rye's walk, broken by the nap")
	assert.Equal(t, "rye", got[0].Key().String())
	assert.Equal(t, 3, got[0].Len())
	assert.Equal(t, Stats{PointsProcessed: 10, Valid: 1}, stats)
}
