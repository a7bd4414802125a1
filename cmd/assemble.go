/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/trajd/catz"
	"github.com/rotblauer/trajd/common"
	"github.com/rotblauer/trajd/geo/assembler"
	"github.com/rotblauer/trajd/geo/distance"
	"github.com/rotblauer/trajd/metrics/influxdb"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/state"
	"github.com/rotblauer/trajd/stream"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/rotblauer/trajd/types/trajectory"
	"github.com/spf13/cobra"
	"io"
	"log"
	"log/slog"
	"time"
)

type assembleOptions struct {
	In                 string
	Out                string
	SeparationTime     time.Duration
	SeparationDistance float64
	DistanceEnabled    bool
	MinimumLength      int
	Distance           string
	Workers            int
	StatePath          string
	Checkpoint         string
	InfluxDB           bool
}

var optAssemble = assembleOptions{}

// assembleCmd represents the assemble command
var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble trajectories from NDJSON samples",
	Long: `Reads newline-delimited GeoJSON samples and writes one GeoJSON LineString
feature per valid trajectory, newline-delimited.

A trajectory breaks when consecutive samples of one object are more than
--separation-time apart, or, if --separation-distance is given, more than that
many meters apart. Trajectories shorter than --minimum-length samples are dropped.

Input must be chronological per object. An out-of-order or malformed sample stops the run.

Flags:

  --in, --out        Files to read and write; "-" is stdin/stdout. Files ending in .gz are gzipped.
  --workers          Number of engines to shard objects across. Output order across objects is then not deterministic.
  --state            Path to a state DB. With it, open trajectories are checkpointed at the end of input
                     instead of flushed, and resumed on the next run. Incremental mode uses one worker.
  --influxdb         Also export trajectory summaries to InfluxDB (configured by INFLUXDB_* env).

Examples:

  zcat samples.json.gz | trajd assemble --separation-time 10m > trajectories.ndjson
  trajd assemble --in today.ndjson --out today.traj.ndjson.gz --state ~/.trajd/state.db
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		optAssemble.DistanceEnabled = cmd.Flags().Changed("separation-distance")

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		stats, err := runAssemble(ctx, optAssemble)
		slog.Info("Assemble done", "stats", stats)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(assembleCmd)

	defaults := params.DefaultAssemblyConfig()

	flags := assembleCmd.Flags()
	flags.StringVar(&optAssemble.In, "in", "-", "Input samples (NDJSON, .gz aware)")
	flags.StringVar(&optAssemble.Out, "out", "-", "Output trajectories (NDJSON, .gz aware)")
	flags.DurationVar(&optAssemble.SeparationTime, "separation-time", defaults.SeparationTime, "Break when samples are more than this far apart in time")
	flags.Float64Var(&optAssemble.SeparationDistance, "separation-distance", 0, "Break when samples are more than this many meters apart (disabled unless set)")
	flags.IntVar(&optAssemble.MinimumLength, "minimum-length", defaults.MinimumLength, "Minimum samples for a valid trajectory")
	flags.StringVar(&optAssemble.Distance, "distance", "geodesic", "Distance function: geodesic, haversine, or planar")
	flags.IntVar(&optAssemble.Workers, "workers", 1, "Number of sharded engines")
	flags.StringVar(&optAssemble.StatePath, "state", "", "State DB for incremental assembly (eg. "+state.DefaultPath()+")")
	flags.StringVar(&optAssemble.Checkpoint, "checkpoint", params.StateKey_Checkpoint, "Checkpoint name in the state DB")
	flags.BoolVar(&optAssemble.InfluxDB, "influxdb", false, "Export trajectory summaries to InfluxDB")
	assembleCmd.MarkFlagsMutuallyExclusive("state", "workers")
}

func (o assembleOptions) assemblyConfig() *params.AssemblyConfig {
	config := params.DefaultAssemblyConfig()
	config.SeparationTime = o.SeparationTime
	config.MinimumLength = o.MinimumLength
	if o.DistanceEnabled {
		config = config.WithSeparationDistance(o.SeparationDistance)
	}
	return config
}

// runAssemble wires the reader, the assembler, and the writers.
// The counters are returned even on error.
func runAssemble(ctx context.Context, o assembleOptions) (assembler.Stats, error) {
	config := o.assemblyConfig()
	if err := config.Validate(); err != nil {
		return assembler.Stats{}, err
	}
	fn, err := distance.ByName(o.Distance)
	if err != nil {
		return assembler.Stats{}, err
	}
	if o.Workers < 1 {
		return assembler.Stats{}, fmt.Errorf("%w: workers must be at least 1", params.ErrInvalidConfig)
	}
	if o.StatePath, err = homedir.Expand(o.StatePath); err != nil {
		return assembler.Stats{}, err
	}
	if o.StatePath != "" && o.Workers > 1 {
		return assembler.Stats{}, fmt.Errorf("%w: incremental assembly uses one worker", params.ErrInvalidConfig)
	}

	r, err := catz.OpenReader(o.In)
	if err != nil {
		return assembler.Stats{}, err
	}
	defer r.Close()

	w, err := catz.OpenWriter(o.Out)
	if err != nil {
		return assembler.Stats{}, err
	}

	// A failed assembly cancels the scanner, and anything still in flight.
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := newTrajectorySink(w, o.InfluxDB)
	samples, scanErrs := stream.ScanSamples(actx, r)

	var stats assembler.Stats
	switch {
	case o.StatePath != "":
		stats, err = assembleIncremental(actx, o, config, fn, samples, sink)
	case o.Workers > 1:
		stats, err = assembleSharded(actx, o.Workers, config, fn, samples, sink)
	default:
		stats, err = assembleSingle(actx, config, fn, samples, sink)
	}
	if err != nil {
		cancel()
	}

	err = errors.Join(err, <-scanErrs, sink.Close())
	if ctx.Err() != nil {
		err = errors.Join(err, ctx.Err())
	}
	return stats, err
}

func assembleSingle(ctx context.Context, config *params.AssemblyConfig, fn distance.Func,
	samples <-chan *sample.Sample, sink *trajectorySink) (assembler.Stats, error) {

	e, err := assembler.NewEngine(config, fn)
	if err != nil {
		return assembler.Stats{}, err
	}
	trs, errs := e.Stream(ctx, samples)
	for tr := range trs {
		if err := sink.Put(tr); err != nil {
			return e.Stats(), err
		}
	}
	return e.Stats(), <-errs
}

func assembleSharded(ctx context.Context, n int, config *params.AssemblyConfig, fn distance.Func,
	samples <-chan *sample.Sample, sink *trajectorySink) (assembler.Stats, error) {

	sharded, err := assembler.NewSharded(n, config, fn)
	if err != nil {
		return assembler.Stats{}, err
	}
	trs, errs := sharded.Stream(ctx, samples)
	for tr := range trs {
		if err := sink.Put(tr); err != nil {
			return sharded.Stats(), err
		}
	}
	return sharded.Stats(), <-errs
}

// assembleIncremental resumes the engine from the named checkpoint, if any,
// and checkpoints the open trajectories at the end of input instead of flushing them.
func assembleIncremental(ctx context.Context, o assembleOptions, config *params.AssemblyConfig, fn distance.Func,
	samples <-chan *sample.Sample, sink *trajectorySink) (assembler.Stats, error) {

	e, err := assembler.NewEngine(config, fn)
	if err != nil {
		return assembler.Stats{}, err
	}
	store, err := state.Open(o.StatePath, false)
	if err != nil {
		return assembler.Stats{}, err
	}
	defer store.Close()

	c, err := store.ReadCheckpoint(o.Checkpoint)
	switch {
	case errors.Is(err, state.ErrNoCheckpoint):
		slog.Info("No checkpoint, starting fresh", "checkpoint", o.Checkpoint)
	case err != nil:
		return assembler.Stats{}, err
	default:
		if err := e.Resume(c); err != nil {
			return assembler.Stats{}, err
		}
		slog.Info("Resumed checkpoint", "checkpoint", o.Checkpoint,
			"open", len(c.Open), "stats", c.Stats)
	}

	for {
		select {
		case <-ctx.Done():
			// Whatever was consumed is lost from the checkpoint; keep the old one.
			return e.Stats(), nil
		case s, ok := <-samples:
			if !ok {
				if ctx.Err() != nil {
					return e.Stats(), nil
				}
				return e.Stats(), store.WriteCheckpoint(o.Checkpoint, e.Checkpoint())
			}
			tr, err := e.Process(s)
			if err != nil {
				return e.Stats(), err
			}
			if tr == nil {
				continue
			}
			if err := sink.Put(tr); err != nil {
				return e.Stats(), err
			}
		}
	}
}

// trajectorySink writes trajectory features as NDJSON,
// and optionally exports them to InfluxDB in batches.
// Export errors are logged as they happen, and returned by Close.
type trajectorySink struct {
	w   io.WriteCloser
	enc *json.Encoder
	n   int64

	export   func([]*trajectory.Trajectory) error
	exports  chan *trajectory.Trajectory
	exported chan error
}

func newTrajectorySink(w io.WriteCloser, influx bool) *trajectorySink {
	s := &trajectorySink{w: w, enc: json.NewEncoder(w)}
	if influx {
		config := params.DefaultInfluxDBConfig()
		s.startExport(func(batch []*trajectory.Trajectory) error {
			return influxdb.ExportTrajectories(config, batch)
		})
	}
	return s
}

func (s *trajectorySink) startExport(export func([]*trajectory.Trajectory) error) {
	s.export = export
	s.exports = make(chan *trajectory.Trajectory, params.DefaultBatchSize)
	s.exported = make(chan error, 1)
	go func() {
		var errs error
		for batch := range stream.Batch(context.Background(), params.DefaultBatchSize, s.exports) {
			if err := s.export(batch); err != nil {
				slog.Error("Failed to export trajectories", "error", err, "len", len(batch))
				errs = errors.Join(errs, err)
				continue
			}
			slog.Debug("Exported trajectories", "len", len(batch))
		}
		s.exported <- errs
	}()
}

func (s *trajectorySink) Put(tr *trajectory.Trajectory) error {
	if err := s.enc.Encode(tr); err != nil {
		return err
	}
	s.n++
	if s.exports != nil {
		s.exports <- tr
	}
	return nil
}

func (s *trajectorySink) Close() error {
	slog.Info("Wrote trajectories", "n", humanize.Comma(s.n))
	var err error
	if s.exports != nil {
		close(s.exports)
		err = <-s.exported
	}
	return errors.Join(err, s.w.Close())
}
