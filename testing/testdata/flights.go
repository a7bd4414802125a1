package testdata

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/trajd/conceptual"
	"github.com/rotblauer/trajd/types/sample"
	"time"
)

var (
	Albuquerque = orb.Point{-106.6504, 35.0844}
	SanDiego    = orb.Point{-117.1611, 32.7157}
	Seattle     = orb.Point{-122.3321, 47.6062}
	Denver      = orb.Point{-104.9903, 39.7392}
	NewYork     = orb.Point{-74.0060, 40.7128}
)

// Noon is the day the flights fly.
var Noon = time.Date(2024, 12, 23, 12, 0, 0, 0, time.UTC)

// Leg interpolates n evenly spaced samples, from and to inclusive.
func Leg(key conceptual.ObjectKey, from orb.Point, start time.Time, to orb.Point, end time.Time, n int) []*sample.Sample {
	out := make([]*sample.Sample, 0, n)
	if n == 1 {
		return append(out, sample.New(key, start, from))
	}
	span := end.Sub(start)
	for i := 0; i < n-1; i++ {
		frac := float64(i) / float64(n-1)
		pt := orb.Point{
			from.Lon() + (to.Lon()-from.Lon())*frac,
			from.Lat() + (to.Lat()-from.Lat())*frac,
		}
		out = append(out, sample.New(key, start.Add(time.Duration(float64(span)*frac)), pt))
	}
	return append(out, sample.New(key, end, to))
}

// Flight1 is one plane's day:
//
//	Albuquerque 12:00 -> San Diego 15:00, 180 samples
//	San Diego 16:00 -> Seattle 19:00, 360 samples
//	Denver 19:01 -> New York 00:00 (next day), 600 samples
//
// With 30 minute and 100 km separations, it assembles into those three legs:
// the hour on the ground in San Diego breaks on time, and the
// one-minute "hop" from Seattle to Denver breaks on distance.
func Flight1() []*sample.Sample {
	const key = "flight1"
	out := Leg(key, Albuquerque, Noon, SanDiego, Noon.Add(3*time.Hour), 180)
	out = append(out, Leg(key, SanDiego, Noon.Add(4*time.Hour), Seattle, Noon.Add(7*time.Hour), 360)...)
	out = append(out, Leg(key, Denver, Noon.Add(7*time.Hour+time.Minute), NewYork, Noon.Add(12*time.Hour), 600)...)
	return out
}

// Interleave merges feeds round-robin, preserving each feed's own order.
func Interleave(feeds ...[]*sample.Sample) []*sample.Sample {
	out := []*sample.Sample{}
	for i := 0; ; i++ {
		added := false
		for _, feed := range feeds {
			if i < len(feed) {
				out = append(out, feed[i])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}
