package main

import (
	"fmt"
	"sync"
	"time"
)

// maxWindow is the widest window RateTracker can answer for; older buckets
// are dropped.
const maxWindow = 60

// RateTracker tracks records received per second.
type RateTracker struct {
	mu      sync.RWMutex
	now     func() time.Time
	counts  map[int64]int // unix second to record count
	start   time.Time
	total   int
	oldest  int64
	invalid int
}

func NewRateTracker() *RateTracker {
	return newRateTrackerWithClock(time.Now)
}

func newRateTrackerWithClock(now func() time.Time) *RateTracker {
	start := now()
	return &RateTracker{
		now:    now,
		counts: make(map[int64]int),
		start:  start,
		oldest: start.Unix(),
	}
}

// Track adds count records to the current second.
func (t *RateTracker) Track(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sec := t.now().Unix()
	t.counts[sec] += count
	t.total += count

	for ; t.oldest <= sec-maxWindow; t.oldest++ {
		delete(t.counts, t.oldest)
	}
}

// TrackInvalid counts a record that failed validation. Invalid records are
// still counted by Track.
func (t *RateTracker) TrackInvalid() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalid++
}

// Rate returns the average records/second over the last seconds seconds,
// counting the current one. Before that much time has passed it averages
// over what there is.
func (t *RateTracker) Rate(seconds int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rate(seconds, t.now().Unix())
}

func (t *RateTracker) rate(seconds int, now int64) float64 {
	if seconds > maxWindow {
		seconds = maxWindow
	}
	cutoff := now - int64(seconds) + 1

	var total int
	for ts, count := range t.counts {
		if ts >= cutoff && ts <= now {
			total += count
		}
	}

	span := int64(seconds)
	if elapsed := now - t.start.Unix() + 1; elapsed < span {
		span = elapsed
	}
	if span < 1 {
		span = 1
	}
	return float64(total) / float64(span)
}

type RateSummary struct {
	Rate1s  float64
	Rate10s float64
	Rate60s float64
	Total   int
	Invalid int
	Running time.Duration
	Average float64
}

func (s RateSummary) String() string {
	return fmt.Sprintf("records per second: %.2f (1s) | %.2f (10s) | %.2f (60s) | total: %d | invalid: %d",
		s.Rate1s, s.Rate10s, s.Rate60s, s.Total, s.Invalid)
}

// Summary returns the rate statistics as of now.
func (t *RateTracker) Summary() RateSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	sec := now.Unix()
	running := now.Sub(t.start)
	s := RateSummary{
		Rate1s:  t.rate(1, sec),
		Rate10s: t.rate(10, sec),
		Rate60s: t.rate(60, sec),
		Total:   t.total,
		Invalid: t.invalid,
		Running: running,
	}
	if running > 0 {
		s.Average = float64(t.total) / running.Seconds()
	}
	return s
}
