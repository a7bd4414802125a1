package params

import (
	"errors"
	"fmt"
	"github.com/mitchellh/hashstructure/v2"
	"math"
	"time"
)

var ErrInvalidConfig = errors.New("invalid assembly config")

// AssemblyConfig configures trajectory assembly.
// It is immutable for the lifetime of an assembler.
type AssemblyConfig struct {
	// SeparationTime is the longest gap allowed between two consecutive
	// samples of one object before its trajectory is broken.
	// Gaps equal to the separation time do not break.
	SeparationTime time.Duration

	// SeparationDistance is the longest distance allowed between two consecutive
	// samples of one object before its trajectory is broken.
	// Units are those of the distance function in use (geodesic: meters).
	// Nil disables distance breaks.
	SeparationDistance *float64

	// MinimumLength is the least number of samples a trajectory must have to be emitted.
	// Shorter trajectories are counted as invalid and dropped.
	MinimumLength int
}

func DefaultAssemblyConfig() *AssemblyConfig {
	return &AssemblyConfig{
		SeparationTime:     30 * time.Minute,
		SeparationDistance: nil,
		MinimumLength:      2,
	}
}

// WithSeparationDistance returns a copy of the config with distance breaks enabled.
func (c AssemblyConfig) WithSeparationDistance(d float64) *AssemblyConfig {
	c.SeparationDistance = &d
	return &c
}

func (c *AssemblyConfig) DistanceEnabled() bool {
	return c.SeparationDistance != nil
}

func (c *AssemblyConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if c.SeparationTime < 0 {
		return fmt.Errorf("%w: negative separation time %s", ErrInvalidConfig, c.SeparationTime)
	}
	if c.MinimumLength < 1 {
		return fmt.Errorf("%w: minimum length %d < 1", ErrInvalidConfig, c.MinimumLength)
	}
	if d := c.SeparationDistance; d != nil && (math.IsNaN(*d) || *d < 0) {
		return fmt.Errorf("%w: separation distance %v", ErrInvalidConfig, *d)
	}
	return nil
}

// Fingerprint hashes the config, so that state assembled under one config
// is not resumed under another.
// It must not be named Hash: hashstructure defers to a Hash method when it finds one.
func (c *AssemblyConfig) Fingerprint() (uint64, error) {
	return hashstructure.Hash(c, hashstructure.FormatV2, nil)
}
