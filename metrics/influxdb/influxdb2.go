package influxdb

import (
	"errors"
	"fmt"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/types/trajectory"
	"sync"
	"time"
)

var ErrNotConfigured = errors.New("influxdb not configured")

// TrajectoryPoint renders one trajectory as a point in measurement,
// stamped with the trajectory's end time.
func TrajectoryPoint(measurement string, tr *trajectory.Trajectory) *write.Point {
	f := tr.Feature()
	return influxdb2.NewPointWithMeasurement(measurement).
		SetTime(tr.End()).
		AddTag("name", tr.Key().String()).
		AddField("count", tr.Len()).
		AddField("start", tr.Start().Unix()).
		AddField("duration", f.Properties["Duration"]).
		AddField("distance_traversed", f.Properties["Distance_Traversed"]).
		AddField("distance_absolute", f.Properties["Distance_Absolute"]).
		AddField("speed_mean", f.Properties["Speed_Calculated_Mean"]).
		AddField("speed_max", f.Properties["Speed_Calculated_Max"]).
		AddField("start_latitude", tr.First().Point().Lat()).
		AddField("start_longitude", tr.First().Point().Lon()).
		AddField("end_latitude", tr.Last().Point().Lat()).
		AddField("end_longitude", tr.Last().Point().Lon())
}

// ExportTrajectories posts trajectory summaries to an InfluxDB Write API.
// Because it accepts a slice, use batches. The Write API will buffer and flush.
// The last error encountered is returned.
func ExportTrajectories(config *params.InfluxDBConfig, trajectories []*trajectory.Trajectory) error {
	if !config.Enabled() {
		return ErrNotConfigured
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// Errors returns a channel for reading errors which occurs during async writes.
	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	// https://github.com/influxdata/influxdb-client-go?tab=readme-ov-file#reading-async-errors
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = fmt.Errorf("influxdb write: %w", e)
			}
		}
	}()

	for _, tr := range trajectories {
		if tr == nil {
			continue
		}
		writeAPI.WritePoint(TrajectoryPoint(config.Measurement, tr))
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
