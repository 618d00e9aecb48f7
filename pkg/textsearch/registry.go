package textsearch

import (
	"sort"
	"sync"
	"time"
)

// Registry is the per-database-directory lookup of active text indexes by
// name, guarded by a single reader-writer lock (reads scale with readers,
// writes exclude readers) — the same shape as the catalog and session
// registries above it in the lock order. It also holds the resource and
// recovery machinery spec.md §4.7 describes as part of the text-search
// subsystem: one ResourceMonitor per index (since index size limits are
// naturally per-index) and one shared IndexRecoveryManager (classification
// needs no per-index state).
type Registry struct {
	mu          sync.RWMutex
	indexes     map[string]*InvertedIndex
	monitors    map[string]*ResourceMonitor
	concurrency map[string]*ConcurrencyController
	limits      ResourceLimits
	recovery    *IndexRecoveryManager
}

// NewRegistry returns an empty registry enforcing DefaultResourceLimits.
func NewRegistry() *Registry {
	return NewRegistryWithLimits(DefaultResourceLimits())
}

// NewRegistryWithLimits returns an empty registry enforcing limits on every
// index it goes on to register — used by pkg/engine to hand the registry
// the same config.ResourceLimits the rest of the engine was opened with.
func NewRegistryWithLimits(limits ResourceLimits) *Registry {
	return &Registry{
		indexes:     make(map[string]*InvertedIndex),
		monitors:    make(map[string]*ResourceMonitor),
		concurrency: make(map[string]*ConcurrencyController),
		limits:      limits,
		recovery:    NewIndexRecoveryManager(),
	}
}

// Register adds ix under its own name. ErrIndexExists if the name is taken.
func (r *Registry) Register(ix *InvertedIndex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.indexes[ix.name]; exists {
		return ErrIndexExists
	}
	r.indexes[ix.name] = ix
	r.monitors[ix.name] = NewResourceMonitor(r.limits)
	r.concurrency[ix.name] = NewConcurrencyController()
	return nil
}

// Get returns the index registered under name.
func (r *Registry) Get(name string) (*InvertedIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ix, ok := r.indexes[name]
	if !ok {
		return nil, ErrIndexNotFound
	}
	return ix, nil
}

// Unregister removes name from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indexes[name]; !ok {
		return ErrIndexNotFound
	}
	delete(r.indexes, name)
	delete(r.monitors, name)
	delete(r.concurrency, name)
	return nil
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.indexes[name]
	return ok
}

// Names lists every registered index name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indexes))
	for name := range r.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search runs query against the named index, enforcing this registry's
// ResourceLimits (result-row count, elapsed time), arbitrating against
// concurrent writers via the index's ConcurrencyController, and recording
// the query's QueryMetrics for Stats. A caller that wants to decide whether
// an error is worth retrying, falling back to a full scan, or surfacing to
// the user can route it through Recovery().Classify — the search entry
// point spec.md §4.7 describes, layered in front of InvertedIndex.Search
// the way PerformanceOptimizedIndex layers batching and caching in front
// of the same method.
func (r *Registry) Search(name, query string, limit int) ([]Result, error) {
	r.mu.RLock()
	ix, ok := r.indexes[name]
	mon := r.monitors[name]
	cc := r.concurrency[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrIndexNotFound
	}

	release := cc.AcquireRead()
	defer release()

	start := time.Now()
	results := ix.Search(query, limit)
	elapsed := time.Since(start)
	cc.RecordQuery(QueryMetrics{Query: query, StartedAt: start, Duration: elapsed, ResultRows: len(results)})

	if err := mon.CheckTimeout(elapsed); err != nil {
		return results, err
	}
	if err := mon.CheckResultSize(len(results)); err != nil {
		return results, err
	}
	return results, nil
}

// IndexDocument (re)indexes text under docID in the named index, holding
// the index's ConcurrencyController exclusive lock for the duration so it
// excludes any concurrent Search/IndexDocument/RemoveDocument call against
// the same index.
func (r *Registry) IndexDocument(name, docID, text string) error {
	r.mu.RLock()
	ix, ok := r.indexes[name]
	cc := r.concurrency[name]
	r.mu.RUnlock()
	if !ok {
		return ErrIndexNotFound
	}
	release := cc.AcquireWrite()
	defer release()
	ix.Index(docID, text)
	return nil
}

// RemoveDocument drops docID from the named index under the same exclusive
// lock IndexDocument takes.
func (r *Registry) RemoveDocument(name, docID string) error {
	r.mu.RLock()
	ix, ok := r.indexes[name]
	cc := r.concurrency[name]
	r.mu.RUnlock()
	if !ok {
		return ErrIndexNotFound
	}
	release := cc.AcquireWrite()
	defer release()
	ix.Remove(docID)
	return nil
}

// Stats returns the query-latency/slow-query/cache-hit statistics
// ConcurrencyController tracks for name, or the zero QueryStats if name
// isn't registered.
func (r *Registry) Stats(name string) QueryStats {
	r.mu.RLock()
	cc, ok := r.concurrency[name]
	r.mu.RUnlock()
	if !ok {
		return QueryStats{}
	}
	return cc.Stats()
}

// Recovery returns the registry's shared IndexRecoveryManager, for a
// caller that wants to classify a lower-level textsearch error (e.g. an
// *Error or ErrIndexExists) itself.
func (r *Registry) Recovery() *IndexRecoveryManager { return r.recovery }

// Monitor returns the ResourceMonitor tracking name, or nil if name isn't
// registered.
func (r *Registry) Monitor(name string) *ResourceMonitor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.monitors[name]
}

