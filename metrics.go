package flow

import (
	"math"
	"sync"
	"time"
)

// Metrics describes a single step taken by a node: how long it took, how
// deep its queue was left, and whether it produced a broadcast or merely
// drained toward a close.
type Metrics struct {
	Node     string
	Start    time.Time
	Duration time.Duration

	QueueDepth  int
	Broadcasted bool
	Final       bool
}

// MetricsCollector receives one Metrics value per step a node takes.
type MetricsCollector func(m *Metrics)

// Stats holds min/max/avg over an integer-valued sample.
type Stats struct {
	Min int
	Max int
	Avg float64
}

// DurationStats holds min/max/avg over a duration-valued sample.
type DurationStats struct {
	Min time.Duration
	Max time.Duration
	Avg time.Duration
}

// SnapshotMetrics aggregates every step reported during one window.
type SnapshotMetrics struct {
	StartTime time.Time
	Duration  time.Duration

	Total      int
	Broadcasts int
	Closes     int

	QueueDepthStats Stats
	StepDuration    DurationStats
}

// SnapshotMetricsCollector receives one SnapshotMetrics per completed window.
type SnapshotMetricsCollector func(s *SnapshotMetrics)

// NewSnapshotMetricsCollector returns a MetricsCollector that buffers
// incoming Metrics and flushes an aggregated SnapshotMetrics to collect
// whenever maxSize steps have accumulated, and also on every tick of a
// ticker with period maxDuration (the ticker is not reset by a size-triggered
// flush; an empty batch is not reported). The returned stop function flushes
// any remainder and stops the flush timer; call it when the pipeline this
// collector is attached to is torn down.
func NewSnapshotMetricsCollector(collect SnapshotMetricsCollector, maxSize int, maxDuration time.Duration) (collector MetricsCollector, stop func()) {
	var (
		mu        sync.Mutex
		batch     []*Metrics
		startTime = time.Now()
	)

	flush := func() {
		mu.Lock()
		if len(batch) == 0 {
			startTime = time.Now()
			mu.Unlock()
			return
		}
		items := batch
		batch = nil
		begin := startTime
		startTime = time.Now()
		mu.Unlock()

		s := &SnapshotMetrics{
			StartTime:       begin,
			Duration:        time.Since(begin),
			Total:           len(items),
			QueueDepthStats: Stats{Min: math.MaxInt64},
			StepDuration:    DurationStats{Min: math.MaxInt64},
		}
		var depthTotal int
		var durationTotal time.Duration
		for _, m := range items {
			depthTotal += m.QueueDepth
			s.QueueDepthStats.Max = max(s.QueueDepthStats.Max, m.QueueDepth)
			s.QueueDepthStats.Min = min(s.QueueDepthStats.Min, m.QueueDepth)

			durationTotal += m.Duration
			s.StepDuration.Max = max(s.StepDuration.Max, m.Duration)
			s.StepDuration.Min = min(s.StepDuration.Min, m.Duration)

			if m.Broadcasted {
				s.Broadcasts++
			}
			if m.Final {
				s.Closes++
			}
		}
		s.QueueDepthStats.Avg = float64(depthTotal) / float64(len(items))
		s.StepDuration.Avg = durationTotal / time.Duration(len(items))
		collect(s)
	}

	ticker := time.NewTicker(maxDuration)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				flush()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func(m *Metrics) {
			mu.Lock()
			batch = append(batch, m)
			full := len(batch) >= maxSize
			mu.Unlock()
			if full {
				flush()
			}
		}, func() {
			close(done)
			flush()
		}
}

// newMetricsDistributor fans a single node's reports out to several
// collectors, so WithMetricsCollector can be supplied more than once.
func newMetricsDistributor(collectors ...MetricsCollector) MetricsCollector {
	return func(m *Metrics) {
		for _, c := range collectors {
			c(m)
		}
	}
}
