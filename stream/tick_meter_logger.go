package stream

import (
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trajd/common"
	"log/slog"
	"sync"
	"time"
)

// tickScanMeter logs read progress every interval.
type tickScanMeter struct {
	mu         sync.Mutex
	label      time.Time // any value, eg sample.time
	interval   time.Duration
	started    time.Time
	ticker     *time.Ticker
	done       chan struct{}
	stopOnce   sync.Once
	reg        metrics.Registry
	countMeter metrics.Meter
	sizeMeter  metrics.Meter
}

func newTickScanMeter(interval time.Duration) *tickScanMeter {
	// Meters are no-ops unless the metrics package is enabled.
	metrics.Enabled = true

	reg := metrics.NewRegistry()
	rl := &tickScanMeter{
		reg:        reg,
		interval:   interval,
		started:    time.Now(),
		done:       make(chan struct{}),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
	}
	if err := reg.Register("line.meter", rl.countMeter); err != nil {
		panic(err)
	}
	if err := reg.Register("size.meter", rl.sizeMeter); err != nil {
		panic(err)
	}
	rl.ticker = time.NewTicker(rl.interval)
	go rl.run()
	return rl
}

func (rl *tickScanMeter) mark(label time.Time, size int) {
	rl.mu.Lock()
	if !label.IsZero() {
		rl.label = label
	}
	rl.mu.Unlock()
	rl.countMeter.Mark(1)
	rl.sizeMeter.Mark(int64(size))
}

func (rl *tickScanMeter) count() int64 {
	return rl.countMeter.Snapshot().Count()
}

func (rl *tickScanMeter) run() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.ticker.C:
			rl.log()
		}
	}
}

func (rl *tickScanMeter) log() {
	countSnap := rl.countMeter.Snapshot()
	sizeSnap := rl.sizeMeter.Snapshot()
	rl.mu.Lock()
	label := rl.label
	rl.mu.Unlock()

	slog.Info("Read samples", "n", humanize.Comma(countSnap.Count()),
		"read.last", label.Format(time.DateTime),
		"sps", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(rl.started).Round(time.Second))
}

func (rl *tickScanMeter) stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
		rl.countMeter.Stop()
		rl.sizeMeter.Stop()
	})
}
