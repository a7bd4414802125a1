package stream

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestSliceCollect(t *testing.T) {
	ctx := context.Background()
	result := Collect(ctx, Slice(ctx, []int{1, 2, 3, 4}))
	if !slices.Equal([]int{1, 2, 3, 4}, result) {
		t.Errorf("Expected [1, 2, 3, 4], got %v", result)
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	batches := Collect(ctx, Batch(ctx, 2, Slice(ctx, []int{1, 2, 3, 4, 5})))
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	if !slices.Equal([]int{5}, batches[2]) {
		t.Errorf("Expected short last batch [5], got %v", batches[2])
	}
}

const scanInput = `{"type":"Feature","geometry":{"type":"Point","coordinates":[-93.2554,44.9889]},"properties":{"Name":"rye","UnixTime":1734955200}}
{"type":"Feature","geometry":{"type":"Point","coordinates":[-113.4730,47.1787]},"properties":{"Name":"ia","Time":"2024-12-23T12:00:00Z"}}
{"type":"Feature","geometry":{"type":"Point","coordinates":[-93.2556,44.9890]},"properties":{"Time":"2024-12-23T12:01:00Z"}}
`

func TestScanSamples(t *testing.T) {
	ctx := context.Background()
	out, errs := ScanSamples(ctx, strings.NewReader(scanInput))
	samples := Collect(ctx, out)
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	key, err := samples[1].Key()
	if err != nil || key != "ia" {
		t.Errorf("Expected key ia, got %q (%v)", key, err)
	}
	// Keyless samples are passed through for the assembler to reject.
	if _, err := samples[2].Key(); err == nil {
		t.Errorf("Expected missing key on sample 3")
	}
}

func TestScanSamples_BadLine(t *testing.T) {
	ctx := context.Background()
	in := strings.NewReader(strings.SplitN(scanInput, "\n", 2)[0] + "\n{\"type\":\"Feature\",\n")
	out, errs := ScanSamples(ctx, in)
	samples := Collect(ctx, out)
	if len(samples) != 1 {
		t.Errorf("Expected 1 sample before the bad line, got %d", len(samples))
	}
	err := <-errs
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected error to name line 2, got %v", err)
	}
}

func TestLabelTime(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(scanInput), "\n")
	if got := labelTime([]byte(lines[0])); got.Unix() != 1734955200 {
		t.Errorf("Expected UnixTime label, got %v", got)
	}
	want := time.Date(2024, 12, 23, 12, 0, 0, 0, time.UTC)
	if got := labelTime([]byte(lines[1])); !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got := labelTime([]byte(`{}`)); !got.IsZero() {
		t.Errorf("Expected zero time, got %v", got)
	}
}

func TestTickScanMeter(t *testing.T) {
	met := newTickScanMeter(time.Hour)
	defer met.stop()
	label := time.Date(2024, 12, 23, 12, 0, 0, 0, time.UTC)
	met.mark(label, 10)
	met.mark(time.Time{}, 5)
	if got := met.count(); got != 2 {
		t.Errorf("Expected 2 marks counted, got %d", got)
	}
	if got := met.sizeMeter.Snapshot().Count(); got != 15 {
		t.Errorf("Expected 15 bytes metered, got %d", got)
	}
	if !met.label.Equal(label) {
		t.Errorf("Expected a zero label to keep %v, got %v", label, met.label)
	}
	met.log()
	met.stop()
}
