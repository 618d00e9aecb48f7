// Package engine is the embedding application's single entry point: a
// Coordinator opens a database directory, hands out sessions, and runs
// every statement a session submits through the parser, planner, executor,
// catalog, and transaction layers underneath it — the role
// nornicdb/pkg/nornicdb's DB type plays for its own subsystems, generalized
// here to GQL's five statement families instead of Cypher's one.
//
// Lock order, enforced by construction rather than by a single giant lock:
// catalog -> session -> graph -> text-index -> storage. No code path in
// this package acquires a session's lock while holding a graph's, or a
// graph's while holding the catalog's.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/orneryd/gqlgraph/pkg/catalog"
	"github.com/orneryd/gqlgraph/pkg/config"
	"github.com/orneryd/gqlgraph/pkg/session"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/textsearch"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// Coordinator owns every subsystem a running database needs: the storage
// driver, the catalog, the session registry, the write-ahead log, and a
// GraphCache per graph the process has touched so far. One Coordinator
// corresponds to one database directory, the same one-process-one-DB shape
// nornicdb's DB assumes.
type Coordinator struct {
	dir string
	cfg *config.Config

	storageMgr  *storage.StorageManager
	catalog     *catalog.Catalog
	sessions    *session.Manager
	wal         *txn.WAL
	textIndexes *textsearch.Registry

	graphsMu sync.RWMutex
	graphs   map[string]*storage.GraphCache

	closed bool
	mu     sync.Mutex
}

// FromPath opens (or initializes) the database directory at dir, recovering
// from an unclean prior shutdown if the clean-shutdown marker is absent.
//
// Mirrors nornicdb's Open: pick a driver, wrap it with a WAL, bring the
// catalog and every known graph's cache up to date, then — only if the
// previous process never got to call Close — replay the WAL's committed
// tail against those caches.
func FromPath(dir string) (*Coordinator, error) {
	cfg := config.LoadFromEnv()
	cfg.Database.DataDir = dir
	if err := cfg.Validate(); err != nil {
		return nil, newError(CategoryStorage, fmt.Errorf("engine: %w", err))
	}
	return openWithConfig(cfg)
}

// FromPathWithConfig is FromPath for a caller that has already built (and
// possibly tuned) its own *config.Config rather than relying on
// environment variables — a test harness wanting storage.DriverMemory is
// the usual reason.
func FromPathWithConfig(cfg *config.Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(CategoryStorage, fmt.Errorf("engine: %w", err))
	}
	return openWithConfig(cfg)
}

func openWithConfig(cfg *config.Config) (*Coordinator, error) {
	dir := cfg.Database.DataDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(CategoryStorage, fmt.Errorf("engine: create data dir: %w", err))
	}

	wasClean, err := txn.ConsumeCleanShutdownMarker(dir)
	if err != nil {
		return nil, newError(CategoryStorage, fmt.Errorf("engine: check clean shutdown marker: %w", err))
	}

	driverKind := storage.DriverBadger
	if cfg.Database.Driver == "memory" {
		driverKind = storage.DriverMemory
	}

	if driverKind == storage.DriverBadger {
		fmt.Printf("📂 Using persistent storage at %s (WAL enabled)\n", dir)
	} else {
		fmt.Printf("⚠️  Using in-memory storage (data will not persist)\n")
	}

	mgr, err := storage.OpenManager(driverKind, dir)
	if err != nil {
		return nil, newError(CategoryStorage, fmt.Errorf("engine: open storage: %w", err))
	}

	cat, err := catalog.Open(mgr, 0)
	if err != nil {
		_ = mgr.Close()
		return nil, newError(CategoryStorage, fmt.Errorf("engine: open catalog: %w", err))
	}

	wal, err := txn.OpenWAL(filepath.Join(dir, "wal"))
	if err != nil {
		_ = mgr.Close()
		return nil, newError(CategoryStorage, fmt.Errorf("engine: open wal: %w", err))
	}

	co := &Coordinator{
		dir:        dir,
		cfg:        cfg,
		storageMgr: mgr,
		catalog:    cat,
		sessions:   session.NewManager(),
		wal:        wal,
		textIndexes: textsearch.NewRegistryWithLimits(textsearch.ResourceLimits{
			QueryTimeout:      cfg.Limits.QueryTimeout,
			MaxMemoryBytes:    cfg.Limits.MaxMemoryBytes,
			MaxResultRows:     cfg.Limits.MaxResultRows,
			MaxIndexSizeBytes: cfg.Limits.MaxIndexSizeBytes,
		}),
		graphs: make(map[string]*storage.GraphCache),
	}

	for _, path := range cat.GraphPaths() {
		gc, err := mgr.LoadGraph(path)
		if err != nil {
			_ = wal.Close()
			_ = mgr.Close()
			return nil, newError(CategoryStorage, fmt.Errorf("engine: load graph %s: %w", path, err))
		}
		co.graphs[path] = gc
	}

	if !wasClean {
		fmt.Printf("🔁 Unclean shutdown detected, replaying WAL at %s\n", wal.Path())
		if err := txn.Recover(wal.Path(), co.graphs, mgr); err != nil {
			_ = wal.Close()
			_ = mgr.Close()
			return nil, newError(CategoryStorage, fmt.Errorf("engine: recover wal: %w", err))
		}
	}

	co.rehydrateTextIndexes()

	return co, nil
}

// graph returns the GraphCache for path, loading it from storage on first
// use within this process. Returns ExecNotFound if the catalog has no such
// graph.
func (co *Coordinator) graph(path string) (*storage.GraphCache, error) {
	co.graphsMu.RLock()
	gc, ok := co.graphs[path]
	co.graphsMu.RUnlock()
	if ok {
		return gc, nil
	}

	if !co.catalog.HasGraph(path) {
		return nil, execError(ExecNotFound, "graph %q does not exist", path)
	}

	co.graphsMu.Lock()
	defer co.graphsMu.Unlock()
	if gc, ok := co.graphs[path]; ok {
		return gc, nil
	}
	gc, err := co.storageMgr.LoadGraph(path)
	if err != nil {
		return nil, newError(CategoryStorage, err)
	}
	co.graphs[path] = gc
	return gc, nil
}

func (co *Coordinator) registerEmptyGraph(path string) {
	co.graphsMu.Lock()
	defer co.graphsMu.Unlock()
	co.graphs[path] = storage.NewGraphCache()
}

func (co *Coordinator) forgetGraph(path string) {
	co.graphsMu.Lock()
	defer co.graphsMu.Unlock()
	delete(co.graphs, path)
}

// CreateSimpleSession opens a session for user with no authentication
// check, implementing Coordinator.create_simple_session — the embedding
// caller is trusted to have authenticated user itself, or to be running in
// a single-tenant process where authentication is out of scope.
func (co *Coordinator) CreateSimpleSession(user string) (session.ID, error) {
	s, err := co.sessions.Create(user)
	if err != nil {
		return "", newError(CategoryExecution, err)
	}
	return s.ID(), nil
}

// SessionManager exposes the underlying registry, for
// Coordinator.session_manager().shutdown()-style callers that want to
// manage sessions directly.
func (co *Coordinator) SessionManager() *session.Manager { return co.sessions }

// Close performs an orderly shutdown: drain every session, close the WAL,
// flush and close the storage driver, then write the clean-shutdown marker
// so the next FromPath skips recovery. The in-memory text-index registry is
// not closed here; it is simply dropped with the Coordinator.
//
// Idempotent: a second Close call is a no-op, matching nornicdb's DB.Close.
func (co *Coordinator) Close() error {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.closed {
		return nil
	}
	co.closed = true

	co.sessions.Shutdown()

	var errs []error
	if err := co.wal.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := co.storageMgr.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return newError(CategoryStorage, fmt.Errorf("engine: close errors: %v", errs))
	}

	if err := txn.WriteCleanShutdownMarker(co.dir); err != nil {
		return newError(CategoryStorage, fmt.Errorf("engine: write clean shutdown marker: %w", err))
	}
	return nil
}
