package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trajd/types/sample"
	"github.com/tidwall/gjson"
	"io"
	"log/slog"
	"time"
)

const AttrTime = "properties." + sample.PropertyTime
const AttrUnixTime = "properties." + sample.PropertyUnixTime

// ScanMeterInterval is how often read progress is logged.
var ScanMeterInterval = 5 * time.Second

// ScanSamples decodes a stream of newline-delimited GeoJSON samples.
// Samples are sent as they are read, in input order, and are not validated here:
// a sample missing its key or time is the assembler's to reject.
// A line that is not a GeoJSON feature is an error, which ends the scan.
func ScanSamples(ctx context.Context, reader io.Reader) (<-chan *sample.Sample, <-chan error) {
	out := make(chan *sample.Sample)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)

		met := newTickScanMeter(ScanMeterInterval)
		defer met.stop()
		defer func() {
			slog.Debug("Scanner done", "lines", humanize.Comma(met.count()),
				"running", time.Since(met.started).Round(time.Second))
		}()

		dec := json.NewDecoder(reader)
		for line := 1; ; line++ {
			msg := json.RawMessage{}
			if err := dec.Decode(&msg); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				errs <- fmt.Errorf("scanner line %d: %w", line, err)
				return
			}
			met.mark(labelTime(msg), len(msg))

			s := &sample.Sample{}
			if err := s.UnmarshalJSON(msg); err != nil {
				errs <- fmt.Errorf("scanner line %d: %w: %s", line, err, string(msg))
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- s:
			}
		}
	}()
	return out, errs
}

// labelTime peeks the time of a raw sample for progress logging.
func labelTime(msg []byte) time.Time {
	if v := gjson.GetBytes(msg, AttrUnixTime); v.Exists() {
		return time.Unix(v.Int(), 0)
	}
	if v := gjson.GetBytes(msg, AttrTime); v.Exists() {
		return v.Time()
	}
	return time.Time{}
}
