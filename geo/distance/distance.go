// Package distance provides the functions used to measure the space
// between two sample positions. Assembly treats positions as opaque
// and only ever compares them through one of these.
package distance

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"strings"
)

var ErrInvalidGeometry = errors.New("invalid geometry")
var ErrUnknownFunc = errors.New("unknown distance function")

// Func measures the distance between two positions. It must be non-negative.
type Func func(a, b orb.Geometry) (float64, error)

// Geodesic is the distance in meters between two lon/lat positions,
// using the law of cosines on a spherical earth.
func Geodesic(a, b orb.Geometry) (float64, error) {
	pa, pb, err := points(a, b)
	if err != nil {
		return 0, err
	}
	return geo.Distance(pa, pb), nil
}

// Haversine is the distance in meters between two lon/lat positions,
// using the haversine formula. Better conditioned than Geodesic for tiny distances.
func Haversine(a, b orb.Geometry) (float64, error) {
	pa, pb, err := points(a, b)
	if err != nil {
		return 0, err
	}
	return geo.DistanceHaversine(pa, pb), nil
}

// Planar is the Euclidean distance between two positions, in coordinate units.
func Planar(a, b orb.Geometry) (float64, error) {
	pa, pb, err := points(a, b)
	if err != nil {
		return 0, err
	}
	return planar.Distance(pa, pb), nil
}

func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "geodesic", "geo":
		return Geodesic, nil
	case "haversine":
		return Haversine, nil
	case "planar", "euclidean":
		return Planar, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
}

func points(a, b orb.Geometry) (orb.Point, orb.Point, error) {
	pa, err := point(a)
	if err != nil {
		return orb.Point{}, orb.Point{}, err
	}
	pb, err := point(b)
	if err != nil {
		return orb.Point{}, orb.Point{}, err
	}
	return pa, pb, nil
}

func point(g orb.Geometry) (orb.Point, error) {
	if g == nil {
		return orb.Point{}, fmt.Errorf("%w: nil", ErrInvalidGeometry)
	}
	if p, ok := g.(orb.Point); ok {
		return p, nil
	}
	// Empty collections (eg. a LineString without points) have an inverted bound.
	if b := g.Bound(); !b.IsEmpty() {
		return b.Center(), nil
	}
	return orb.Point{}, fmt.Errorf("%w: empty %s", ErrInvalidGeometry, g.GeoJSONType())
}
