package params

import (
	"compress/gzip"
	"github.com/mitchellh/go-homedir"
	"path/filepath"
)

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".trajd")
}()

var StateDBName = "state.db"
var StateBucket = []byte("state")

// StateKey_Checkpoint is the default checkpoint name in the state DB.
var StateKey_Checkpoint = "checkpoint"

var DefaultGZipCompressionLevel = gzip.BestCompression

// DefaultBatchSize is the number of trajectories buffered per export batch.
var DefaultBatchSize = 1_000

// DefaultBufferSize is the capacity of channels between pipeline stages.
var DefaultBufferSize = 1_000
