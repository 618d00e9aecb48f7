package textsearch

import (
	"sort"
	"sync"
	"time"
)

// QueryMetrics records one search's timing, for ConcurrencyController's
// rolling history.
type QueryMetrics struct {
	Query      string
	StartedAt  time.Time
	Duration   time.Duration
	ResultRows int
	CacheHit   bool
}

// IsSlow reports whether the query ran past a fixed 100ms threshold, the
// one Stats and SlowQueries count slow queries by.
func (m QueryMetrics) IsSlow() bool { return m.Duration > 100*time.Millisecond }

func (m QueryMetrics) latencyMs() float64 { return float64(m.Duration) / float64(time.Millisecond) }

// ConcurrencyController enforces the engine's reader/writer discipline over
// one text index: readers run concurrently, writers exclude every reader
// and every other writer, and every query's timing is retained (capped at
// the last 1000) for QueryStats.
type ConcurrencyController struct {
	lock sync.RWMutex

	historyMu sync.Mutex
	history   []QueryMetrics

	activeMu sync.Mutex
	active   int
}

const maxQueryHistory = 1000

// NewConcurrencyController returns a controller with empty history.
func NewConcurrencyController() *ConcurrencyController {
	return &ConcurrencyController{}
}

// AcquireRead takes the shared lock for a read query; call the returned
// func to release it.
func (c *ConcurrencyController) AcquireRead() func() {
	c.lock.RLock()
	c.incActive()
	return func() {
		c.decActive()
		c.lock.RUnlock()
	}
}

// AcquireWrite takes the exclusive lock for an index mutation; call the
// returned func to release it.
func (c *ConcurrencyController) AcquireWrite() func() {
	c.lock.Lock()
	c.incActive()
	return func() {
		c.decActive()
		c.lock.Unlock()
	}
}

func (c *ConcurrencyController) incActive() {
	c.activeMu.Lock()
	c.active++
	c.activeMu.Unlock()
}

func (c *ConcurrencyController) decActive() {
	c.activeMu.Lock()
	if c.active > 0 {
		c.active--
	}
	c.activeMu.Unlock()
}

// ActiveQueryCount reports how many queries currently hold the lock.
func (c *ConcurrencyController) ActiveQueryCount() int {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	return c.active
}

// RecordQuery appends m to the rolling history, evicting the oldest entry
// once the history reaches maxQueryHistory.
func (c *ConcurrencyController) RecordQuery(m QueryMetrics) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	if len(c.history) >= maxQueryHistory {
		c.history = c.history[1:]
	}
	c.history = append(c.history, m)
}

// QueryStats summarizes the rolling query history.
type QueryStats struct {
	TotalQueries int
	SlowQueries  int
	CacheHits    int
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// Stats computes QueryStats over the current history.
func (c *ConcurrencyController) Stats() QueryStats {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	if len(c.history) == 0 {
		return QueryStats{}
	}

	latencies := make([]float64, len(c.history))
	var total float64
	var slow, hits int
	for i, q := range c.history {
		l := q.latencyMs()
		latencies[i] = l
		total += l
		if q.IsSlow() {
			slow++
		}
		if q.CacheHit {
			hits++
		}
	}
	sort.Float64s(latencies)

	pct := func(p float64) float64 {
		idx := int(float64(len(latencies)) * p)
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return QueryStats{
		TotalQueries: len(c.history),
		SlowQueries:  slow,
		CacheHits:    hits,
		AvgLatencyMs: total / float64(len(latencies)),
		P50LatencyMs: pct(0.50),
		P95LatencyMs: pct(0.95),
		P99LatencyMs: pct(0.99),
	}
}

// SlowQueries returns every query in history that exceeded the slow
// threshold.
func (c *ConcurrencyController) SlowQueries() []QueryMetrics {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	var out []QueryMetrics
	for _, q := range c.history {
		if q.IsSlow() {
			out = append(out, q)
		}
	}
	return out
}
