package engine

import (
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/textsearch"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// rehydrateTextIndexes rebuilds every CREATE INDEX name TEXT ON ... index the
// catalog remembers, by re-scanning the graph it belongs to. Called once at
// FromPath, since the InvertedIndex itself lives only in memory — the
// catalog durably records that the index exists, not its postings.
func (co *Coordinator) rehydrateTextIndexes() {
	for _, ix := range co.catalog.IndexesByKind("text") {
		inv := textsearch.NewInvertedIndex(ix.Name, textsearch.DefaultAnalyzerConfig())
		_ = co.textIndexes.Register(inv)

		gc, err := co.graph(ix.GraphPath)
		if err != nil {
			continue
		}
		gc.RLock()
		nodes := gc.NodesByLabel(ix.Label)
		gc.RUnlock()
		for _, n := range nodes {
			if v, ok := n.Properties[ix.Property]; ok && v.Kind == storage.KindString {
				_ = co.textIndexes.IndexDocument(ix.Name, string(n.ID), v.Str)
			}
		}
	}
}

// createTextIndex registers a fresh InvertedIndex for a just-created CREATE
// INDEX name TEXT ON ... statement and backfills it from the graph's current
// nodes, so a text search run immediately after CREATE INDEX sees existing
// data, not just future writes.
func (co *Coordinator) createTextIndex(name, graphPath, label, property string) error {
	inv := textsearch.NewInvertedIndex(name, textsearch.DefaultAnalyzerConfig())
	if err := co.textIndexes.Register(inv); err != nil {
		return err
	}

	gc, err := co.graph(graphPath)
	if err != nil {
		return nil
	}
	gc.RLock()
	nodes := gc.NodesByLabel(label)
	gc.RUnlock()
	for _, n := range nodes {
		if v, ok := n.Properties[property]; ok && v.Kind == storage.KindString {
			_ = co.textIndexes.IndexDocument(name, string(n.ID), v.Str)
		}
	}
	return nil
}

// TextSearch runs a BM25 query against the named CREATE INDEX name TEXT ON ...
// index, the embedding API's entry point into the text-search subsystem
// (spec.md §4.7) alongside Coordinator.ProcessQuery's GQL surface. Result-
// size and latency violations come back as ExecResourceExhausted; an
// unknown index name is classified through the registry's
// IndexRecoveryManager and reported as ExecNotFound. The classification
// recommends a full-scan fallback for NotFound, but this engine has no
// fallback scan path, so every NotFound is terminal.
func (co *Coordinator) TextSearch(indexName, query string, limit int) ([]textsearch.Result, error) {
	results, err := co.textIndexes.Search(indexName, query, limit)
	if err == nil {
		return results, nil
	}
	if v, ok := err.(textsearch.Violation); ok {
		return nil, execError(ExecResourceExhausted, "%s", v.Message)
	}
	class := co.textIndexes.Recovery().Classify(err)
	if class.Class == textsearch.ClassNotFound {
		return nil, execError(ExecNotFound, "text index %q not found", indexName)
	}
	return nil, newError(CategoryExecution, err)
}

// syncTextIndexes updates every registered text index affected by a just-
// committed set of forward payloads: a node whose label carries a text
// index gets its indexed property re-indexed (or removed, on delete).
func (co *Coordinator) syncTextIndexes(graphPath string, payloads []txn.StmtPayload) {
	for _, p := range payloads {
		switch p.Action {
		case txn.ActionPutNode:
			if p.Node == nil {
				continue
			}
			for _, label := range p.Node.Labels {
				for _, ix := range co.catalog.IndexesFor(graphPath, "text", label) {
					if !co.textIndexes.Exists(ix.Name) {
						continue
					}
					if v, ok := p.Node.Properties[ix.Property]; ok && v.Kind == storage.KindString {
						_ = co.textIndexes.IndexDocument(ix.Name, string(p.Node.ID), v.Str)
					} else {
						_ = co.textIndexes.RemoveDocument(ix.Name, string(p.Node.ID))
					}
				}
			}
		case txn.ActionDeleteNode:
			// The node's labels are gone by the time we see this payload, so
			// every text index defined on this graph is asked to drop the
			// id; RemoveDocument on an id it never indexed is a harmless
			// no-op.
			for _, ix := range co.catalog.IndexesByKind("text") {
				if ix.GraphPath != graphPath {
					continue
				}
				_ = co.textIndexes.RemoveDocument(ix.Name, string(p.NodeID))
			}
		}
	}
}
