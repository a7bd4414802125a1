package assembler

import (
	"context"
	"github.com/paulmach/orb"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/stream"
	"github.com/rotblauer/trajd/testing/testdata"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestEngine_Stream(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, flightConfig(10))
	trs, errs := e.Stream(ctx, stream.Slice(ctx, testdata.Flight1()))
	got := stream.Collect(ctx, trs)
	require.NoError(t, <-errs)
	require.Len(t, got, 3)
	assert.Equal(t, []int{180, 360, 600}, []int{got[0].Len(), got[1].Len(), got[2].Len()})
	assert.Equal(t, Stats{PointsProcessed: 1140, Valid: 3}, e.Stats())
}

func TestEngine_Stream_CancelDoesNotFlush(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newTestEngine(t, params.DefaultAssemblyConfig())
	in := make(chan *sample.Sample)
	trs, errs := e.Stream(ctx, in)

	for i := 0; i < 3; i++ {
		in <- at("a", float64(i), orb.Point{})
	}
	cancel()
	for range trs {
		t.Error("nothing should be emitted")
	}
	assert.NoError(t, <-errs)
	assert.Equal(t, Stats{PointsProcessed: 3}, e.Stats())
	assert.Equal(t, 3, e.OpenLen("a"))
}

func TestEngine_Stream_Error(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, params.DefaultAssemblyConfig())
	keyless := at("b", 2, orb.Point{})
	delete(keyless.Properties, sample.PropertyKey)

	in := make(chan *sample.Sample, 4)
	in <- at("a", 0, orb.Point{})
	in <- at("a", 1, orb.Point{})
	in <- keyless
	in <- at("a", 3, orb.Point{})
	close(in)

	trs, errs := e.Stream(ctx, in)
	got := stream.Collect(ctx, trs)
	assert.Empty(t, got, "no flush after an error")
	assert.ErrorIs(t, <-errs, ErrMalformedSample)
	assert.EqualValues(t, 3, e.Stats().PointsProcessed)
}

// A canceled producer usually closes its output too. Whichever the select sees first,
// open trajectories must not be flushed as if the input had ended.
func TestEngine_Stream_CancelThenClose(t *testing.T) {
	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		e := newTestEngine(t, params.DefaultAssemblyConfig())
		in := make(chan *sample.Sample)
		trs, errs := e.Stream(ctx, in)

		in <- at("a", 0, orb.Point{})
		in <- at("a", 1, orb.Point{})
		cancel()
		close(in)

		for range trs {
			t.Fatal("nothing should be emitted")
		}
		require.NoError(t, <-errs)
		assert.Zero(t, e.Stats().Valid)
		assert.Equal(t, 2, e.OpenLen("a"))
	}
}
