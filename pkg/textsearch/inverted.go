package textsearch

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// BM25 parameters (standard Okapi BM25 values).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Result is one scored document from Search/PhraseSearch.
type Result struct {
	DocID string
	Score float64
}

// InvertedIndex is a named BM25 full-text index over a set of documents
// keyed by an opaque doc id (a node id, stringified).
type InvertedIndex struct {
	name string

	mu            sync.RWMutex
	cfg           AnalyzerConfig
	documents     map[string]string
	invertedIndex map[string]map[string]int // term -> docID -> term freq
	docLengths    map[string]int
	avgDocLength  float64
	docCount      int
}

// NewInvertedIndex creates an empty index named name.
func NewInvertedIndex(name string, cfg AnalyzerConfig) *InvertedIndex {
	return &InvertedIndex{
		name:          name,
		cfg:           cfg,
		documents:     make(map[string]string),
		invertedIndex: make(map[string]map[string]int),
		docLengths:    make(map[string]int),
	}
}

func (ix *InvertedIndex) Name() string { return ix.name }

// Index adds or replaces a document's content.
func (ix *InvertedIndex) Index(docID, text string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docID)

	tokens := Analyze(text, ix.cfg)
	if len(tokens) == 0 {
		return
	}

	ix.documents[docID] = text
	ix.docLengths[docID] = len(tokens)
	ix.docCount++

	termFreq := make(map[string]int)
	for _, t := range tokens {
		termFreq[t.Text]++
	}
	for term, freq := range termFreq {
		if ix.invertedIndex[term] == nil {
			ix.invertedIndex[term] = make(map[string]int)
		}
		ix.invertedIndex[term][docID] = freq
	}
	ix.updateAvgDocLengthLocked()
}

// Remove deletes a document from the index.
func (ix *InvertedIndex) Remove(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docID)
}

func (ix *InvertedIndex) removeLocked(docID string) {
	text, exists := ix.documents[docID]
	if !exists {
		return
	}
	for _, t := range Analyze(text, ix.cfg) {
		if docs, ok := ix.invertedIndex[t.Text]; ok {
			delete(docs, docID)
			if len(docs) == 0 {
				delete(ix.invertedIndex, t.Text)
			}
		}
	}
	delete(ix.documents, docID)
	delete(ix.docLengths, docID)
	ix.docCount--
	ix.updateAvgDocLengthLocked()
}

// Search runs a BM25 keyword search over the index, plus a reduced-weight
// prefix match for partial-term queries. Results are sorted highest score
// first and truncated to limit.
func (ix *InvertedIndex) Search(query string, limit int) []Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.docCount == 0 {
		return nil
	}
	queryTokens := Analyze(query, ix.cfg)
	if len(queryTokens) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, qt := range queryTokens {
		term := qt.Text
		if docs, ok := ix.invertedIndex[term]; ok {
			idf := ix.idfLocked(term)
			for docID, tf := range docs {
				scores[docID] += idf * ix.bm25TermScoreLocked(docID, tf)
			}
		}
		for indexedTerm, docs := range ix.invertedIndex {
			if indexedTerm == term || !strings.HasPrefix(indexedTerm, term) {
				continue
			}
			idf := ix.idfLocked(indexedTerm) * 0.8
			for docID, tf := range docs {
				scores[docID] += idf * ix.bm25TermScoreLocked(docID, tf)
			}
		}
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Result{DocID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// PhraseSearch finds documents containing the literal phrase, scored by how
// early it appears.
func (ix *InvertedIndex) PhraseSearch(phrase string, limit int) []Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	needle := strings.ToLower(phrase)
	var results []Result
	for docID, text := range ix.documents {
		hay := strings.ToLower(text)
		idx := strings.Index(hay, needle)
		if idx < 0 {
			continue
		}
		results = append(results, Result{DocID: docID, Score: 1.0 / (1.0 + float64(idx)/100.0)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (ix *InvertedIndex) bm25TermScoreLocked(docID string, tf int) float64 {
	docLen := float64(ix.docLengths[docID])
	f := float64(tf)
	numerator := f * (bm25K1 + 1)
	denominator := f + bm25K1*(1-bm25B+bm25B*(docLen/ix.avgDocLength))
	return numerator / denominator
}

// idfLocked computes BM25's +1-smoothed IDF, which floors at zero rather
// than going negative for terms appearing in most documents.
func (ix *InvertedIndex) idfLocked(term string) float64 {
	df := float64(len(ix.invertedIndex[term]))
	n := float64(ix.docCount)
	idf := math.Log(1 + (n-df+0.5)/(df+0.5))
	if idf < 0 {
		return 0
	}
	return idf
}

func (ix *InvertedIndex) updateAvgDocLengthLocked() {
	if ix.docCount == 0 {
		ix.avgDocLength = 0
		return
	}
	var total int
	for _, l := range ix.docLengths {
		total += l
	}
	ix.avgDocLength = float64(total) / float64(ix.docCount)
}

// Count returns the number of indexed documents.
func (ix *InvertedIndex) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docCount
}

// Document returns the original text stored for docID.
func (ix *InvertedIndex) Document(docID string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	text, ok := ix.documents[docID]
	return text, ok
}

// SizeBytes estimates the index's in-memory footprint, in the unit
// ResourceMonitor.CheckIndexSize takes. Nothing in this module passes it to
// CheckIndexSize, so MaxIndexSizeBytes is not enforced on indexing.
func (ix *InvertedIndex) SizeBytes() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var total int64
	for _, text := range ix.documents {
		total += int64(len(text))
	}
	for term, docs := range ix.invertedIndex {
		total += int64(len(term)) * int64(len(docs))
	}
	return total
}
