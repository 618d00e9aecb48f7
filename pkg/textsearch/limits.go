package textsearch

import (
	"fmt"
	"sync"
	"time"
)

// LimitKind identifies which resource a Violation exceeded, spec.md §4.7's
// "type" field on a recorded violation.
type LimitKind int

const (
	LimitQueryTimeout LimitKind = iota
	LimitQueryMemory
	LimitResultSize
	LimitIndexSize
)

func (k LimitKind) String() string {
	switch k {
	case LimitQueryTimeout:
		return "query_timeout"
	case LimitQueryMemory:
		return "query_memory"
	case LimitResultSize:
		return "result_size"
	case LimitIndexSize:
		return "index_size"
	default:
		return "unknown"
	}
}

// ResourceLimits bounds what a single query against a text index may
// consume, mirroring config.ResourceLimits' fields so a Coordinator can
// hand its own configured limits straight to a ResourceMonitor without a
// separate text-search-only config struct.
type ResourceLimits struct {
	QueryTimeout      time.Duration
	MaxMemoryBytes    int64
	MaxResultRows     int
	MaxIndexSizeBytes int64
}

// DefaultResourceLimits matches spec.md §4.7's stated defaults: 30s query
// timeout, 1GB per-query memory, 100,000-row result cap, 10GB index size.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		QueryTimeout:      30 * time.Second,
		MaxMemoryBytes:    1 << 30,
		MaxResultRows:     100_000,
		MaxIndexSizeBytes: 10 << 30,
	}
}

// Violation records one resource limit that was exceeded: which kind, the
// value that triggered it, the configured limit, and a human message.
type Violation struct {
	Kind    LimitKind
	Current int64
	Limit   int64
	Message string
}

func (v Violation) Error() string { return v.Message }

// ResourceMonitor enforces ResourceLimits against a single text index and
// keeps the violations it has observed for diagnostics, the way
// ConcurrencyController keeps QueryMetrics. One ResourceMonitor is created
// per index when it is registered (see Registry.Register in registry.go).
type ResourceMonitor struct {
	limits ResourceLimits

	mu         sync.Mutex
	violations []Violation
}

// NewResourceMonitor returns a monitor enforcing limits.
func NewResourceMonitor(limits ResourceLimits) *ResourceMonitor {
	return &ResourceMonitor{limits: limits}
}

// CheckTimeout reports a Violation if elapsed has already exceeded the
// configured QueryTimeout; callers poll this between operator boundaries
// the same way pkg/engine's dispatchWithTimeout races a whole statement
// against the timeout rather than every individual scan step.
func (m *ResourceMonitor) CheckTimeout(elapsed time.Duration) error {
	if m.limits.QueryTimeout <= 0 || elapsed <= m.limits.QueryTimeout {
		return nil
	}
	return m.record(Violation{
		Kind:    LimitQueryTimeout,
		Current: elapsed.Milliseconds(),
		Limit:   m.limits.QueryTimeout.Milliseconds(),
		Message: fmt.Sprintf("query ran %s, exceeding the %s timeout", elapsed, m.limits.QueryTimeout),
	})
}

// CheckMemory reports a Violation if estimatedBytes exceeds MaxMemoryBytes.
func (m *ResourceMonitor) CheckMemory(estimatedBytes int64) error {
	if m.limits.MaxMemoryBytes <= 0 || estimatedBytes <= m.limits.MaxMemoryBytes {
		return nil
	}
	return m.record(Violation{
		Kind:    LimitQueryMemory,
		Current: estimatedBytes,
		Limit:   m.limits.MaxMemoryBytes,
		Message: fmt.Sprintf("query estimated at %d bytes, exceeding the %d byte memory limit", estimatedBytes, m.limits.MaxMemoryBytes),
	})
}

// CheckResultSize reports a Violation if rowCount exceeds MaxResultRows.
// Spec.md §8: "result size at the configured limit is accepted; one above
// is rejected" — this is a strict greater-than check, not
// greater-than-or-equal.
func (m *ResourceMonitor) CheckResultSize(rowCount int) error {
	if m.limits.MaxResultRows <= 0 || rowCount <= m.limits.MaxResultRows {
		return nil
	}
	return m.record(Violation{
		Kind:    LimitResultSize,
		Current: int64(rowCount),
		Limit:   int64(m.limits.MaxResultRows),
		Message: fmt.Sprintf("result set of %d rows exceeds the %d row limit", rowCount, m.limits.MaxResultRows),
	})
}

// CheckIndexSize reports a Violation if sizeBytes exceeds MaxIndexSizeBytes.
func (m *ResourceMonitor) CheckIndexSize(sizeBytes int64) error {
	if m.limits.MaxIndexSizeBytes <= 0 || sizeBytes <= m.limits.MaxIndexSizeBytes {
		return nil
	}
	return m.record(Violation{
		Kind:    LimitIndexSize,
		Current: sizeBytes,
		Limit:   m.limits.MaxIndexSizeBytes,
		Message: fmt.Sprintf("index is %d bytes, exceeding the %d byte index size limit", sizeBytes, m.limits.MaxIndexSizeBytes),
	})
}

func (m *ResourceMonitor) record(v Violation) error {
	m.mu.Lock()
	m.violations = append(m.violations, v)
	if len(m.violations) > 1000 {
		m.violations = m.violations[len(m.violations)-1000:]
	}
	m.mu.Unlock()
	return v
}

// Violations returns every recorded violation, oldest first.
func (m *ResourceMonitor) Violations() []Violation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Violation, len(m.violations))
	copy(out, m.violations)
	return out
}
