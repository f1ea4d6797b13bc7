// Package metrics implements the Metrics Collector (C9): a ticking
// sampler over queue depths and cumulative counters, grounded on the
// teacher's periodic zlog-instrumented status reporting, generalized into
// a small ticking goroutine with a rolling sample window.
package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

const windowSize = 100

// QueueDepths is satisfied by *queue.Queue's Depth method.
type QueueDepths interface {
	Depth(ctx context.Context, channel model.Channel) (ready, delayed, active int64, err error)
}

// Sample is a single 10s snapshot of pipeline health.
type Sample struct {
	Timestamp         time.Time
	QueueDepth        int64
	ActiveWorkers     int64
	TotalProcessed    int64
	TotalErrors       int64
	ThroughputPerSec  float64
	ErrorRate         float64
}

// Collector periodically samples channel queue depths and its own
// cumulative counters, retaining the last windowSize samples.
type Collector struct {
	queues   QueueDepths
	channels []model.Channel
	interval time.Duration

	totalProcessed atomic.Int64
	totalErrors    atomic.Int64

	mu      sync.Mutex
	samples []Sample
	started time.Time
}

// New constructs a Collector sampling every interval across channels.
func New(queues QueueDepths, channels []model.Channel, interval time.Duration) *Collector {
	return &Collector{queues: queues, channels: channels, interval: interval}
}

// RecordSent increments the processed counter; call once per successful delivery.
func (c *Collector) RecordSent() { c.totalProcessed.Add(1) }

// RecordFailure increments both processed and error counters; the channel
// workers call it once per failed delivery attempt.
func (c *Collector) RecordFailure() {
	c.totalProcessed.Add(1)
	c.totalErrors.Add(1)
}

// Run samples on a ticker until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	c.started = time.Now()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample(ctx)
		}
	}
}

func (c *Collector) sample(ctx context.Context) {
	var totalReady, totalDelayed, totalActive int64
	for _, ch := range c.channels {
		ready, delayed, active, err := c.queues.Depth(ctx, ch)
		if err != nil {
			continue
		}
		totalReady += ready
		totalDelayed += delayed
		totalActive += active
	}

	processed := c.totalProcessed.Load()
	errs := c.totalErrors.Load()

	elapsed := time.Since(c.started).Seconds()
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(processed) / elapsed
	}
	errorRate := 0.0
	if processed > 0 {
		errorRate = float64(errs) / float64(processed)
	}

	s := Sample{
		Timestamp:        time.Now(),
		QueueDepth:       totalReady + totalDelayed,
		ActiveWorkers:    totalActive,
		TotalProcessed:   processed,
		TotalErrors:      errs,
		ThroughputPerSec: throughput,
		ErrorRate:        errorRate,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
	if len(c.samples) > windowSize {
		c.samples = c.samples[len(c.samples)-windowSize:]
	}
}

// Current returns the most recent sample, or the zero Sample if none has
// been taken yet.
func (c *Collector) Current() Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.samples) == 0 {
		return Sample{}
	}
	return c.samples[len(c.samples)-1]
}

// AverageThroughput returns the mean throughputPerSecond across the
// retained window.
func (c *Collector) AverageThroughput() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.samples {
		sum += s.ThroughputPerSec
	}
	return sum / float64(len(c.samples))
}

// PeakThroughput returns the maximum throughputPerSecond across the
// retained window.
func (c *Collector) PeakThroughput() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var peak float64
	for _, s := range c.samples {
		if s.ThroughputPerSec > peak {
			peak = s.ThroughputPerSec
		}
	}
	return peak
}

// Healthy reports whether the pipeline meets the health predicate:
// errorRate < 5%, total queue depth < 1000, and at least one active
// worker somewhere in the fleet.
func (c *Collector) Healthy() bool {
	s := c.Current()
	if s.Timestamp.IsZero() {
		return true
	}
	return s.ErrorRate < 0.05 && s.QueueDepth < 1000 && s.ActiveWorkers > 0
}
