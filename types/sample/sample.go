package sample

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trajd/conceptual"
	"math"
	"time"
)

const (
	PropertyKey      = "Name"
	PropertyTime     = "Time"
	PropertyUnixTime = "UnixTime"
)

var (
	ErrMissingKey  = errors.New("missing object key")
	ErrMissingTime = errors.New("missing time")
	ErrInvalidTime = errors.New("invalid time")
)

// Sample is one geolocated, timestamped observation of a moving object.
// It's an alias of geojson.Feature. The geometry is the sample's position,
// which the assembler only ever hands to a distance function.
// The object key and the time live in the properties (Name, and UnixTime or Time).
// Every other property is payload, carried through assembly untouched.
type Sample geojson.Feature

// New creates a sample with the required attributes set.
func New(key conceptual.ObjectKey, t time.Time, geometry orb.Geometry) *Sample {
	s := &Sample{
		Type:       "Feature",
		Geometry:   geometry,
		Properties: make(map[string]interface{}),
	}
	s.Properties[PropertyKey] = key.String()
	s.Properties[PropertyTime] = t
	return s
}

// MarshalJSON implements the json.Marshaler interface.
func (s Sample) MarshalJSON() ([]byte, error) {
	f := geojson.Feature(s)
	return f.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Sample) UnmarshalJSON(data []byte) error {
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return err
	}
	*s = *(*Sample)(f)
	return nil
}

// Key returns the object key of the sample.
func (s *Sample) Key() (conceptual.ObjectKey, error) {
	if s == nil || s.Properties == nil {
		return "", ErrMissingKey
	}
	v, ok := s.Properties[PropertyKey]
	if !ok || v == nil {
		return "", ErrMissingKey
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: property %s is %T, not a string", ErrMissingKey, PropertyKey, v)
	}
	key := conceptual.ObjectKey(str)
	if key.Empty() {
		return "", ErrMissingKey
	}
	return key, nil
}

// Time returns the time of the sample.
// UnixTime (seconds) is preferred when present, otherwise Time is used,
// which may be a time.Time or a string in RFC3339 format.
func (s *Sample) Time() (time.Time, error) {
	if s == nil || s.Properties == nil {
		return time.Time{}, ErrMissingTime
	}
	if unix, ok := s.Properties[PropertyUnixTime]; ok && unix != nil {
		switch v := unix.(type) {
		case int64:
			return time.Unix(v, 0), nil
		case int:
			return time.Unix(int64(v), 0), nil
		case float64:
			return unixFloat(v), nil
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return time.Unix(i, 0), nil
			}
			f, err := v.Float64()
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidTime, PropertyUnixTime, err)
			}
			return unixFloat(f), nil
		}
	}
	raw, ok := s.Properties[PropertyTime]
	if !ok || raw == nil {
		return time.Time{}, ErrMissingTime
	}
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case string:
		var err error
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
		}
	default:
		return time.Time{}, fmt.Errorf("%w: property %s is %T", ErrInvalidTime, PropertyTime, raw)
	}
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero time", ErrInvalidTime)
	}
	return t, nil
}

// unixFloat keeps the fractional seconds.
func unixFloat(v float64) time.Time {
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// MustTime gets the time or panics.
func (s *Sample) MustTime() time.Time {
	t, err := s.Time()
	if err != nil {
		panic(err)
	}
	return t
}

// Validate checks the required attributes: object key and time.
func (s *Sample) Validate() error {
	if _, err := s.Key(); err != nil {
		return err
	}
	if _, err := s.Time(); err != nil {
		return err
	}
	return nil
}

// Point returns the point the object is or was at.
// Geometries other than points are reduced to the center of their bound.
func (s *Sample) Point() orb.Point {
	if s.Geometry == nil {
		return orb.Point{}
	}
	if p, ok := s.Geometry.(orb.Point); ok {
		return p
	}
	return s.Geometry.Bound().Center()
}

// Position returns the opaque position of the sample.
func (s *Sample) Position() orb.Geometry {
	return s.Geometry
}

func (s *Sample) String() string {
	key, _ := s.Key()
	t, _ := s.Time()
	return fmt.Sprintf("%s@%s%v", key, t.Format(time.RFC3339), s.Point())
}
