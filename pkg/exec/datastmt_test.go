package exec

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDataStmt(t *testing.T, text string) gql.Statement {
	t.Helper()
	stmt, err := gql.Parse(text)
	require.NoError(t, err)
	return stmt
}

func TestInsertCreatesConnectedNodesAndEdge(t *testing.T) {
	cache := storage.NewGraphCache()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `INSERT (a:Person {name: "Ada"})-[:KNOWS]->(b:Person {name: "Bob"})`)
	undo, count, err := ExecuteDataStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count) // 2 node inserts + 1 edge insert
	assert.Equal(t, 2, cache.NodeCount())
	assert.Equal(t, 1, cache.EdgeCount())

	require.NoError(t, txn.Apply(cache, undo))
	assert.Equal(t, 0, cache.NodeCount())
	assert.Equal(t, 0, cache.EdgeCount())
}

func TestMatchSetUpdatesProperty(t *testing.T) {
	cache := storage.NewGraphCache()
	cache.Lock()
	cache.PutNode(&storage.Node{ID: "ada", Labels: []string{"Person"}, Properties: map[string]storage.Value{"age": storage.NumberValue(30)}})
	cache.Unlock()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `MATCH (n:Person) SET n.age = 31`)
	undo, count, err := ExecuteDataStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cache.RLock()
	got := cache.GetNode("ada").Properties["age"]
	cache.RUnlock()
	assert.Equal(t, storage.NumberValue(31), got)

	require.NoError(t, txn.Apply(cache, undo))
	cache.RLock()
	got = cache.GetNode("ada").Properties["age"]
	cache.RUnlock()
	assert.Equal(t, storage.NumberValue(30), got)
}

func TestMatchDetachDeleteRemovesNodeAndEdges(t *testing.T) {
	cache := storage.NewGraphCache()
	cache.Lock()
	cache.PutNode(&storage.Node{ID: "ada", Labels: []string{"Person"}})
	cache.PutNode(&storage.Node{ID: "fido", Labels: []string{"Pet"}})
	require.NoError(t, cache.PutEdge(&storage.Edge{ID: "e1", FromNode: "ada", ToNode: "fido", Label: "OWNS"}))
	cache.Unlock()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `MATCH (n:Person) DETACH DELETE n`)
	_, count, err := ExecuteDataStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count) // 1 node + 1 incident edge
	assert.Equal(t, 1, cache.NodeCount())
	assert.Equal(t, 0, cache.EdgeCount())
}

func TestMatchDeleteWithoutDetachFailsOnIncidentEdges(t *testing.T) {
	cache := storage.NewGraphCache()
	cache.Lock()
	cache.PutNode(&storage.Node{ID: "ada", Labels: []string{"Person"}})
	cache.PutNode(&storage.Node{ID: "fido", Labels: []string{"Pet"}})
	require.NoError(t, cache.PutEdge(&storage.Edge{ID: "e1", FromNode: "ada", ToNode: "fido", Label: "OWNS"}))
	cache.Unlock()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `MATCH (n:Person) DELETE n`)
	_, _, err := ExecuteDataStatement(stmt, ctx)
	assert.ErrorIs(t, err, storage.ErrHasIncidentEdges)
	assert.Equal(t, 2, cache.NodeCount())
}

func TestMatchRemoveClearsProperty(t *testing.T) {
	cache := storage.NewGraphCache()
	cache.Lock()
	cache.PutNode(&storage.Node{ID: "ada", Labels: []string{"Person"}, Properties: map[string]storage.Value{"nickname": storage.StringValue("Ace")}})
	cache.Unlock()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `MATCH (n:Person) REMOVE n.nickname`)
	_, count, err := ExecuteDataStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cache.RLock()
	_, ok := cache.GetNode("ada").Properties["nickname"]
	cache.RUnlock()
	assert.False(t, ok)
}

func TestMatchInsertAddsEdgeBetweenMatchedNodes(t *testing.T) {
	cache := storage.NewGraphCache()
	cache.Lock()
	cache.PutNode(&storage.Node{ID: "ada", Labels: []string{"Person"}, Properties: map[string]storage.Value{"name": storage.StringValue("Ada")}})
	cache.PutNode(&storage.Node{ID: "bob", Labels: []string{"Person"}, Properties: map[string]storage.Value{"name": storage.StringValue("Bob")}})
	cache.Unlock()
	ctx := &ModContext{Cache: cache, GraphPath: "/g/people"}

	stmt := parseDataStmt(t, `MATCH (a:Person {name: "Ada"}), (b:Person {name: "Bob"}) INSERT (a)-[:KNOWS]->(b)`)
	_, count, err := ExecuteDataStatement(stmt, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count) // only the edge is new; both nodes reused
	assert.Equal(t, 2, cache.NodeCount())
	assert.Equal(t, 1, cache.EdgeCount())
}
