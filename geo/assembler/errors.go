package assembler

import (
	"errors"
	"github.com/rotblauer/trajd/params"
)

var (
	// ErrInvalidConfig is returned by NewEngine before any input is processed.
	ErrInvalidConfig = params.ErrInvalidConfig

	// ErrMalformedSample is returned for a sample missing its object key or time.
	ErrMalformedSample = errors.New("malformed sample")

	// ErrNonMonotonicTimestamp is returned for a sample older than
	// the last sample seen for the same object key.
	ErrNonMonotonicTimestamp = errors.New("non-monotonic timestamp")

	// ErrEngineFailed is returned by any use of an engine after it has failed.
	// Engines are not reusable after an error; make a new one.
	ErrEngineFailed = errors.New("assembly engine failed")

	ErrResumeDirty       = errors.New("resume requires an unused engine")
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)
