package engine

import (
	"testing"
	"time"

	"github.com/orneryd/gqlgraph/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.DataDir = t.TempDir()
	cfg.Database.Driver = "memory"
	co, err := FromPathWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = co.Close() })
	return co
}

func TestCreateGraphSelectInsertAndMatch(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)

	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	res, err := co.ProcessQuery(`INSERT (a:Person {name: "Ada", age: 30})`, id, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)

	res, err = co.ProcessQuery(`MATCH (n:Person) WHERE n.age > 21 RETURN n.name AS name`, id, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Ada", res.Rows[0][0].Str)
}

func TestInsertRequiresSelectedGraph(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)

	_, err = co.ProcessQuery(`INSERT (a:Person {name: "Ada"})`, id, Options{})
	require.Error(t, err)
	engErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CategoryExecution, engErr.Category)
	assert.Equal(t, ExecInvalidQuery, engErr.Subkind)
}

func TestExplicitTransactionCommit(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)
	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	_, err = co.ProcessQuery(`START TRANSACTION`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`INSERT (a:Person {name: "Bob"})`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`COMMIT`, id, Options{})
	require.NoError(t, err)

	res, err := co.ProcessQuery(`MATCH (n:Person) RETURN n.name AS name`, id, Options{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Bob", res.Rows[0][0].Str)
}

func TestExplicitTransactionRollback(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)
	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	_, err = co.ProcessQuery(`START TRANSACTION`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`INSERT (a:Person {name: "Carol"})`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`ROLLBACK`, id, Options{})
	require.NoError(t, err)

	res, err := co.ProcessQuery(`MATCH (n:Person) RETURN n.name AS name`, id, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestDDLConflictIsReportedAsConflict(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)

	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.Error(t, err)
	engErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ExecConflict, engErr.Subkind)
}

func TestTextIndexSearchAfterInsert(t *testing.T) {
	co := openTestCoordinator(t)
	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)

	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`CREATE INDEX bios TEXT ON Person(bio)`, id, Options{})
	require.NoError(t, err)

	_, err = co.ProcessQuery(`INSERT (a:Person {name: "Ada", bio: "pioneer of computing"})`, id, Options{})
	require.NoError(t, err)

	results, err := co.TextSearch("bios", "computing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = co.TextSearch("missing_index", "computing", 10)
	require.Error(t, err)
	engErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ExecNotFound, engErr.Subkind)
}

func TestReadOnlyModeRejectsMutation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.DataDir = t.TempDir()
	cfg.Database.Driver = "memory"
	co, err := FromPathWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = co.Close() })

	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)
	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	// Flip the same coordinator's config read-only, as if an operator
	// reconfigured it between statements, rather than reopening the memory
	// driver (which starts empty again and would never reach the mutation
	// check this test is after).
	cfg.Database.ReadOnly = true

	_, err = co.ProcessQuery(`INSERT (a:Person {name: "Ada"})`, id, Options{})
	require.Error(t, err)
	engErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ExecPermissionDenied, engErr.Subkind)
}

func TestQueryTimeoutFiresAsCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.DataDir = t.TempDir()
	cfg.Database.Driver = "memory"
	co, err := FromPathWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = co.Close() })

	id, err := co.CreateSimpleSession("alice")
	require.NoError(t, err)
	_, err = co.ProcessQuery(`CREATE GRAPH /app/social`, id, Options{})
	require.NoError(t, err)
	_, err = co.ProcessQuery(`SESSION SET GRAPH /app/social`, id, Options{})
	require.NoError(t, err)

	// Tighten the timeout only for the statement under test, as if an
	// operator reconfigured it mid-session rather than at open.
	cfg.Limits.QueryTimeout = time.Nanosecond

	start := time.Now()
	_, err = co.ProcessQuery(`MATCH (n) RETURN n`, id, Options{})
	elapsed := time.Since(start)

	require.Error(t, err)
	engErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ExecCancelled, engErr.Subkind)
	assert.Less(t, elapsed, 500*time.Millisecond)
}
