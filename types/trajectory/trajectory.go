package trajectory

import (
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trajd/common"
	"github.com/rotblauer/trajd/conceptual"
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/types/sample"
	"math"
	"time"
)

// Trajectory is an ordered, immutable run of samples sharing one object key.
// Samples are kept in the order they arrived.
// Trajectories are values; downstream consumers should not mutate the samples they hold.
type Trajectory struct {
	key      conceptual.ObjectKey
	samples  []*sample.Sample
	distance distance.Func
}

// New builds a trajectory from a finalized run of samples.
// The slice is copied; it returns nil if there are no samples.
// Summary distances are geodesic meters, unless set WithDistance.
func New(key conceptual.ObjectKey, samples []*sample.Sample) *Trajectory {
	if len(samples) == 0 {
		return nil
	}
	cp := make([]*sample.Sample, len(samples))
	copy(cp, samples)
	return &Trajectory{key: key, samples: cp, distance: distance.Geodesic}
}

// WithDistance returns a copy of the trajectory that measures its summary
// distances and speeds with fn, in fn's units. A nil fn means geodesic.
func (t *Trajectory) WithDistance(fn distance.Func) *Trajectory {
	if t == nil {
		return nil
	}
	if fn == nil {
		fn = distance.Geodesic
	}
	cp := *t
	cp.distance = fn
	return &cp
}

// between measures a to b. Positions the distance function rejects count as 0.
func (t *Trajectory) between(a, b *sample.Sample) float64 {
	d, err := t.distance(a.Point(), b.Point())
	if err != nil {
		return 0
	}
	return d
}

func (t *Trajectory) Key() conceptual.ObjectKey {
	return t.key
}

func (t *Trajectory) Len() int {
	return len(t.samples)
}

func (t *Trajectory) At(i int) *sample.Sample {
	return t.samples[i]
}

// Samples returns a copy of the sample list.
func (t *Trajectory) Samples() []*sample.Sample {
	cp := make([]*sample.Sample, len(t.samples))
	copy(cp, t.samples)
	return cp
}

func (t *Trajectory) First() *sample.Sample {
	return t.samples[0]
}

func (t *Trajectory) Last() *sample.Sample {
	return t.samples[len(t.samples)-1]
}

func (t *Trajectory) Start() time.Time {
	return t.First().MustTime()
}

func (t *Trajectory) End() time.Time {
	return t.Last().MustTime()
}

func (t *Trajectory) Duration() time.Duration {
	return t.End().Sub(t.Start())
}

// LineString returns the positions of the trajectory as a linestring.
func (t *Trajectory) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(t.samples))
	for _, s := range t.samples {
		ls = append(ls, s.Point())
	}
	return ls
}

// DistanceTraversed sums the distances between consecutive samples.
func (t *Trajectory) DistanceTraversed() (traversed float64) {
	for i := 1; i < len(t.samples); i++ {
		traversed += t.between(t.samples[i-1], t.samples[i])
	}
	return
}

// Feature renders the trajectory as a GeoJSON LineString feature
// with summary properties. Distances and speeds are in the units of the
// trajectory's distance function, per second for speeds.
func (t *Trajectory) Feature() *geojson.Feature {
	f := geojson.NewFeature(t.LineString())

	first, last := t.First(), t.Last()
	firstTime, lastTime := first.MustTime(), last.MustTime()

	f.Properties[sample.PropertyKey] = t.key.String()
	f.Properties["RawPointCount"] = len(t.samples)
	f.Properties["Time_Start_Unix"] = firstTime.Unix()
	f.Properties["Time_Start_RFC3339"] = firstTime.Format(time.RFC3339)
	f.Properties["Time_End_Unix"] = lastTime.Unix()
	f.Properties["Time_End_RFC3339"] = lastTime.Format(time.RFC3339)
	f.Properties["Duration"] = lastTime.Sub(firstTime).Round(time.Second).Seconds()

	calculatedSpeeds := make([]float64, 0, len(t.samples)-1)
	distanceTraversed := 0.0
	for i := 1; i < len(t.samples); i++ {
		prev, cur := t.samples[i-1], t.samples[i]
		d := t.between(prev, cur)
		distanceTraversed += d

		seconds := cur.MustTime().Sub(prev.MustTime()).Seconds()
		if seconds <= 0 {
			continue
		}
		calculatedSpeeds = append(calculatedSpeeds, d/seconds)
	}

	statsMustFloat := func(fn func() (float64, error), def float64) float64 {
		out, err := fn()
		if err != nil {
			return def
		}
		return out
	}

	installStats := func(key string, data []float64, def float64, precision int) {
		statsData := stats.Float64Data(data)
		f.Properties[key+"_Mean"] = common.DecimalToFixed(statsMustFloat(statsData.Mean, def), precision)
		f.Properties[key+"_Median"] = common.DecimalToFixed(statsMustFloat(statsData.Median, def), precision)
		f.Properties[key+"_Min"] = common.DecimalToFixed(statsMustFloat(statsData.Min, def), precision)
		f.Properties[key+"_Max"] = common.DecimalToFixed(statsMustFloat(statsData.Max, def), precision)
	}
	installStats("Speed_Calculated", calculatedSpeeds, 0, 2)

	f.Properties["Distance_Traversed"] = math.Round(distanceTraversed)
	f.Properties["Distance_Absolute"] = math.Round(t.between(first, last))

	return f
}

// MarshalJSON encodes the trajectory as its GeoJSON feature.
func (t *Trajectory) MarshalJSON() ([]byte, error) {
	return t.Feature().MarshalJSON()
}
