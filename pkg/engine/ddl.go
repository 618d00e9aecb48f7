package engine

import (
	"errors"

	"github.com/orneryd/gqlgraph/pkg/catalog"
	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/session"
)

// runDDL executes one DDLStatement, then applies the in-memory side effects
// catalog.ExecuteDDL itself can't — CREATE/DROP GRAPH need a GraphCache
// registered or forgotten, CREATE INDEX name TEXT ON ... needs an
// InvertedIndex built, and DROP INDEX tears a text index down.
//
// DDL never goes through the WAL: the catalog persists each change
// synchronously to its own storage.StorageTree the moment the call
// returns, so there is nothing left for recovery to replay.
func (co *Coordinator) runDDL(stmt *gql.DDLStatement, sess *session.Session) (*QueryResult, error) {
	if co.cfg.Database.ReadOnly {
		return nil, execError(ExecPermissionDenied, "database is open read-only")
	}

	graphPath := stmt.Path
	if graphPath == "" {
		graphPath = sess.CurrentGraph()
	}

	if err := catalog.ExecuteDDL(stmt, co.catalog, graphPath); err != nil {
		return nil, classifyDDLError(err)
	}

	switch stmt.Kind {
	case gql.DDLCreateGraph:
		co.registerEmptyGraph(stmt.Path)
	case gql.DDLDropGraph:
		co.forgetGraph(stmt.Path)
	case gql.DDLTruncateGraph, gql.DDLClearGraph:
		if gc, err := co.graph(stmt.Path); err == nil {
			gc.Lock()
			for _, n := range gc.AllNodes() {
				_, _ = gc.DeleteNode(n.ID, true)
			}
			gc.Unlock()
		}
	case gql.DDLCreateIndex:
		if stmt.IndexKind == gql.IndexText {
			if err := co.createTextIndex(stmt.Name, graphPath, stmt.Label, stmt.Property); err != nil {
				return nil, newError(CategoryExecution, err)
			}
		}
	case gql.DDLDropIndex:
		_ = co.textIndexes.Unregister(stmt.Name)
	}

	return &QueryResult{Status: StatusOK}, nil
}

// classifyDDLError maps the catalog's sentinel errors onto the engine's
// execution-subkind taxonomy so callers can branch on Category/Subkind
// without importing pkg/catalog themselves.
func classifyDDLError(err error) error {
	notFound := []error{
		catalog.ErrSchemaNotFound, catalog.ErrGraphNotFound, catalog.ErrTypeNotFound,
		catalog.ErrRoleNotFound, catalog.ErrUserNotFound, catalog.ErrIndexNotFound,
	}
	for _, sentinel := range notFound {
		if errors.Is(err, sentinel) {
			return execError(ExecNotFound, "%s", err.Error())
		}
	}
	exists := []error{
		catalog.ErrSchemaExists, catalog.ErrGraphExists, catalog.ErrTypeExists,
		catalog.ErrRoleExists, catalog.ErrUserExists, catalog.ErrIndexExists,
	}
	for _, sentinel := range exists {
		if errors.Is(err, sentinel) {
			return execError(ExecConflict, "%s", err.Error())
		}
	}
	if errors.Is(err, catalog.ErrInvalidPassword) {
		return execError(ExecPermissionDenied, "%s", err.Error())
	}
	return newError(CategoryExecution, err)
}
