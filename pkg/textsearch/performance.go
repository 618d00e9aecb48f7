package textsearch

import (
	"container/list"
	"sync"
	"time"
)

// PerformanceConfig tunes PerformanceOptimizedIndex's batching and caching.
type PerformanceConfig struct {
	BatchCommitSize  int
	CacheSize        int
	CacheTTL         time.Duration
	EarlyTermination bool
	EnableQueryCache bool
}

// DefaultPerformanceConfig matches the original's tuned defaults: commit
// every 1000 documents, cache 1000 queries for 5 minutes.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		BatchCommitSize:  1000,
		CacheSize:        1000,
		CacheTTL:         5 * time.Minute,
		EarlyTermination: true,
		EnableQueryCache: true,
	}
}

type cacheKey struct {
	query string
	limit int
}

type cacheEntry struct {
	key        cacheKey
	results    []Result
	insertedAt time.Time
}

func (e *cacheEntry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.insertedAt) > ttl
}

// PerformanceOptimizedIndex wraps an InvertedIndex with a buffered writer
// (batched commits) and an LRU query-result cache with TTL eviction, so
// repeated identical queries against a hot index skip re-scoring.
type PerformanceOptimizedIndex struct {
	index *InvertedIndex
	cfg   PerformanceConfig

	cacheMu   sync.Mutex
	cacheMap  map[cacheKey]*list.Element
	cacheList *list.List // front = most recently used

	bufMu  sync.Mutex
	buffer []pendingDoc
}

type pendingDoc struct {
	docID string
	text  string
}

// NewPerformanceOptimizedIndex wraps index with cfg's batching/caching
// policy.
func NewPerformanceOptimizedIndex(index *InvertedIndex, cfg PerformanceConfig) *PerformanceOptimizedIndex {
	return &PerformanceOptimizedIndex{
		index:     index,
		cfg:       cfg,
		cacheMap:  make(map[cacheKey]*list.Element),
		cacheList: list.New(),
	}
}

// AddDocumentBatched buffers a document and flushes automatically once
// BatchCommitSize documents have accumulated.
func (p *PerformanceOptimizedIndex) AddDocumentBatched(docID, text string) {
	p.bufMu.Lock()
	p.buffer = append(p.buffer, pendingDoc{docID: docID, text: text})
	shouldFlush := len(p.buffer) >= p.cfg.BatchCommitSize
	p.bufMu.Unlock()

	if shouldFlush {
		p.FlushBatch()
	}
}

// FlushBatch commits every buffered document to the underlying index and
// returns how many were flushed.
func (p *PerformanceOptimizedIndex) FlushBatch() int {
	p.bufMu.Lock()
	pending := p.buffer
	p.buffer = nil
	p.bufMu.Unlock()

	for _, d := range pending {
		p.index.Index(d.docID, d.text)
	}
	return len(pending)
}

// SearchOptimized serves query/limit from the query cache when present and
// unexpired, otherwise searches the underlying index (with early
// termination against limit when enabled) and populates the cache.
func (p *PerformanceOptimizedIndex) SearchOptimized(query string, limit int) []Result {
	key := cacheKey{query: query, limit: limit}

	if p.cfg.EnableQueryCache {
		if results, ok := p.cacheGet(key); ok {
			return results
		}
	}

	effectiveLimit := limit
	if !p.cfg.EarlyTermination {
		effectiveLimit = 0 // 0 means unbounded in InvertedIndex.Search
	}
	results := p.index.Search(query, effectiveLimit)

	if p.cfg.EnableQueryCache && len(results) > 0 {
		p.cachePut(key, results)
	}
	return results
}

func (p *PerformanceOptimizedIndex) cacheGet(key cacheKey) ([]Result, bool) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	el, ok := p.cacheMap[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if entry.expired(p.cfg.CacheTTL, time.Now()) {
		p.cacheList.Remove(el)
		delete(p.cacheMap, key)
		return nil, false
	}
	p.cacheList.MoveToFront(el)
	return entry.results, true
}

func (p *PerformanceOptimizedIndex) cachePut(key cacheKey, results []Result) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	if el, ok := p.cacheMap[key]; ok {
		el.Value.(*cacheEntry).results = results
		el.Value.(*cacheEntry).insertedAt = time.Now()
		p.cacheList.MoveToFront(el)
		return
	}

	el := p.cacheList.PushFront(&cacheEntry{key: key, results: results, insertedAt: time.Now()})
	p.cacheMap[key] = el

	for p.cacheList.Len() > p.cfg.CacheSize {
		oldest := p.cacheList.Back()
		if oldest == nil {
			break
		}
		p.cacheList.Remove(oldest)
		delete(p.cacheMap, oldest.Value.(*cacheEntry).key)
	}
}

// ClearQueryCache evicts every cached query result.
func (p *PerformanceOptimizedIndex) ClearQueryCache() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cacheMap = make(map[cacheKey]*list.Element)
	p.cacheList = list.New()
}

// CacheStats summarizes the query cache's current occupancy.
type CacheStats struct {
	CachedQueries      int
	CacheCapacity      int
	UtilizationPercent float64
}

func (p *PerformanceOptimizedIndex) CacheStats() CacheStats {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	n := p.cacheList.Len()
	util := 0.0
	if p.cfg.CacheSize > 0 {
		util = float64(n) / float64(p.cfg.CacheSize) * 100
	}
	return CacheStats{CachedQueries: n, CacheCapacity: p.cfg.CacheSize, UtilizationPercent: util}
}

// BufferStats summarizes the write buffer's current occupancy.
type BufferStats struct {
	BufferedDocuments int
	BatchSizeConfig   int
}

func (p *PerformanceOptimizedIndex) BufferStats() BufferStats {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()
	return BufferStats{BufferedDocuments: len(p.buffer), BatchSizeConfig: p.cfg.BatchCommitSize}
}

// Index returns the wrapped index.
func (p *PerformanceOptimizedIndex) Index() *InvertedIndex { return p.index }
