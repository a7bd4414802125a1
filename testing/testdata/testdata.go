package testdata

import (
	"context"
	"github.com/rotblauer/trajd/catz"
	"github.com/rotblauer/trajd/stream"
	"github.com/rotblauer/trajd/types/sample"
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_TwoCats is a small interleaved feed of two cats, rye and ia.
//
//	rye: 3 samples a minute apart, a 2 hour nap, then 2 more.
//	ia:  4 samples a minute apart.
//
// The last line is not a sample key-wise: it has no Name.
var Source_TwoCats = "./two_cats.ndjson"

// ReadSamples reads all samples from an NDJSON file, gzipped or not.
func ReadSamples(ctx context.Context, path string) ([]*sample.Sample, error) {
	r, err := catz.OpenReader(Path(path))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	samples, errs := stream.ScanSamples(ctx, r)
	out := stream.Collect(ctx, samples)
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}
