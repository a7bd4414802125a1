package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rotblauer/trajd/geo/assembler"
	"github.com/rotblauer/trajd/params"
	"go.etcd.io/bbolt"
	"log/slog"
	"os"
	"path/filepath"
)

var ErrNoCheckpoint = errors.New("no checkpoint")

// Store persists assembler checkpoints in a bbolt database,
// so that a feed can be assembled incrementally across runs.
type Store struct {
	DB    *bbolt.DB
	rOnly bool
}

// Open opens (or creates) the state database at path.
// Opening a writable DB conn will block all other writers and readers
// with essentially a file lock/flock.
func Open(path string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, rOnly: readOnly}, nil
}

// DefaultPath is the state DB in the data directory.
func DefaultPath() string {
	return filepath.Join(params.DatadirRoot, params.StateDBName)
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) storeKV(key []byte, data []byte) error {
	if s.rOnly {
		return fmt.Errorf("storeKV: read-only store")
	}
	if key == nil {
		return fmt.Errorf("storeKV: nil key")
	}
	if data == nil {
		return fmt.Errorf("storeKV: nil data")
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(params.StateBucket)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}

// readKV returns nil, nil if the key (or the bucket) does not exist.
func (s *Store) readKV(key []byte) ([]byte, error) {
	var out []byte
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.StateBucket)
		if bucket == nil {
			return nil
		}
		// Gotcha! The value returned by Get is only valid in the scope of the transaction.
		got := bucket.Get(key)
		if got == nil {
			return nil
		}
		out = bytes.Clone(got)
		return nil
	})
	return out, err
}

func (s *Store) deleteKV(key []byte) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.StateBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(key)
	})
}

// WriteCheckpoint stores the checkpoint under name.
func (s *Store) WriteCheckpoint(name string, c *assembler.Checkpoint) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.storeKV([]byte(name), b); err != nil {
		slog.Error("Failed to store checkpoint", "name", name, "error", err)
		return err
	}
	slog.Debug("Stored checkpoint", "name", name, "open", len(c.Open), "bytes", len(b))
	return nil
}

// ReadCheckpoint reads the checkpoint stored under name.
// It returns ErrNoCheckpoint if there is none.
func (s *Store) ReadCheckpoint(name string) (*assembler.Checkpoint, error) {
	got, err := s.readKV([]byte(name))
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoCheckpoint, name)
	}
	c := &assembler.Checkpoint{}
	if err := json.Unmarshal(got, c); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", assembler.ErrInvalidCheckpoint, name, err)
	}
	slog.Debug("Read checkpoint", "name", name, "open", len(c.Open), "stats", c.Stats)
	return c, nil
}

// DeleteCheckpoint removes the checkpoint stored under name, if any.
func (s *Store) DeleteCheckpoint(name string) error {
	return s.deleteKV([]byte(name))
}
