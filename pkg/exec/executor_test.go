package exec

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestGraph creates:
//
//	Ada  :Person {name: "Ada", age: 36}  -[:OWNS]-> Fido :Pet {name: "Fido"}
//	Bob  :Person {name: "Bob", age: 40}  (no pets)
func buildTestGraph(t *testing.T) *storage.GraphCache {
	t.Helper()
	cache := storage.NewGraphCache()
	cache.Lock()
	defer cache.Unlock()

	ada := &storage.Node{ID: "ada", Labels: []string{"Person"}, Properties: map[string]storage.Value{
		"name": storage.StringValue("Ada"), "age": storage.NumberValue(36),
	}}
	bob := &storage.Node{ID: "bob", Labels: []string{"Person"}, Properties: map[string]storage.Value{
		"name": storage.StringValue("Bob"), "age": storage.NumberValue(40),
	}}
	fido := &storage.Node{ID: "fido", Labels: []string{"Pet"}, Properties: map[string]storage.Value{
		"name": storage.StringValue("Fido"),
	}}
	cache.PutNode(ada)
	cache.PutNode(bob)
	cache.PutNode(fido)
	require.NoError(t, cache.PutEdge(&storage.Edge{ID: "e1", FromNode: "ada", ToNode: "fido", Label: "OWNS"}))
	return cache
}

func runQuery(t *testing.T, cache *storage.GraphCache, text string) []Row {
	t.Helper()
	stmt, err := gql.Parse(text)
	require.NoError(t, err)
	bq, ok := stmt.(*gql.BasicQuery)
	require.True(t, ok)

	lp := plan.Plan(bq)
	require.NotNil(t, lp)
	pp := plan.Build(lp, nil)
	rows, err := Execute(pp.Root, cache, nil)
	require.NoError(t, err)
	return rows
}

func TestExecuteSimpleScanAndProject(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (n:Person) RETURN n.name`)
	assert.Len(t, rows, 2)
	names := []string{}
	for _, r := range rows {
		names = append(names, r["n.name"].Str)
	}
	assert.ElementsMatch(t, []string{"Ada", "Bob"}, names)
}

func TestExecuteWhereFilters(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (n:Person) WHERE n.age > 38 RETURN n.name`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["n.name"].Str)
}

func TestExecuteExpandFollowsEdges(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (p:Person)-[:OWNS]->(pet:Pet) RETURN p.name, pet.name`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0]["p.name"].Str)
	assert.Equal(t, "Fido", rows[0]["pet.name"].Str)
}

func TestExecuteCorrelatedOptionalMatchEmitsNullRow(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (p:Person) OPTIONAL MATCH (p)-[:OWNS]->(pet:Pet) RETURN p.name, pet`)
	require.Len(t, rows, 2)

	byName := map[string]Row{}
	for _, r := range rows {
		byName[r["p.name"].Str] = r
	}
	assert.False(t, byName["Ada"]["pet"].IsNull())
	assert.True(t, byName["Bob"]["pet"].IsNull())
}

func TestExecuteDisconnectedPatternsCartesianProduct(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (p:Person), (pet:Pet) RETURN p.name, pet.name`)
	assert.Len(t, rows, 2) // 2 people x 1 pet
}

func TestExecuteOrderByAndLimit(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (n:Person) WITH n ORDER BY n.age DESC LIMIT 1 RETURN n.name`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["n.name"].Str)
}

func TestExecuteLimitZeroReturnsNoRows(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (n:Person) WITH n LIMIT 0 RETURN n.name`)
	assert.Len(t, rows, 0)
}

func TestExecuteAggregateCount(t *testing.T) {
	cache := buildTestGraph(t)
	rows := runQuery(t, cache, `MATCH (n:Person) RETURN COUNT(n) AS total`)
	require.Len(t, rows, 1)
	assert.Equal(t, storage.NumberValue(2), rows[0]["total"])
}
