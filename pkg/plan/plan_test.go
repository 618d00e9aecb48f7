package plan

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBasicQuery(t *testing.T, text string) *gql.BasicQuery {
	t.Helper()
	stmt, err := gql.Parse(text)
	require.NoError(t, err)
	bq, ok := stmt.(*gql.BasicQuery)
	require.True(t, ok)
	return bq
}

func TestPlanSimpleNodeScan(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person) RETURN n`)
	lp := Plan(bq)
	require.NotNil(t, lp)
	scan, ok := lp.Root.(*NodeScan)
	require.True(t, ok)
	assert.Equal(t, "n", scan.Variable)
	assert.Equal(t, []string{"Person"}, scan.Labels)
}

func TestPlanExpandChain(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (a:Person)-[r:KNOWS]->(b:Person) RETURN a, b`)
	lp := Plan(bq)
	exp, ok := lp.Root.(*Expand)
	require.True(t, ok)
	assert.Equal(t, "a", exp.From)
	assert.Equal(t, "b", exp.To)
	_, ok = exp.Input.(*NodeScan)
	assert.True(t, ok)
}

func TestPlanDisconnectedPatternsInnerJoin(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (a:Person), (b:Company) RETURN a, b`)
	lp := Plan(bq)
	join, ok := lp.Root.(*Join)
	require.True(t, ok)
	assert.Equal(t, JoinInner, join.Kind)
}

func TestPlanCorrelatedOptionalMatchBecomesLeftOuterOnSharedVar(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (p:Person) OPTIONAL MATCH (p)-[:OWNS]->(f:Pet) RETURN p, f`)
	lp := Plan(bq)
	join, ok := lp.Root.(*Join)
	require.True(t, ok)
	assert.Equal(t, JoinLeftOuter, join.Kind)
	assert.Equal(t, "p", join.On)
}

func TestPlanWhereBecomesFilter(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person) WHERE n.age > 21 RETURN n`)
	lp := Plan(bq)
	_, ok := lp.Root.(*Filter)
	assert.True(t, ok)
}

func TestPlanWithProjectsAndSorts(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person) WITH n.name AS name ORDER BY name LIMIT 3 RETURN name`)
	lp := Plan(bq)
	limit, ok := lp.Root.(*Limit)
	require.True(t, ok)
	_, ok = limit.Input.(*Sort)
	assert.True(t, ok)
}

func TestPlanReturnAloneAppliesOrderByAndLimit(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person) RETURN n.name ORDER BY n.name LIMIT 5`)
	lp := Plan(bq)
	limit, ok := lp.Root.(*Limit)
	require.True(t, ok)
	sortNode, ok := limit.Input.(*Sort)
	require.True(t, ok)
	_, ok = sortNode.Input.(*Project)
	assert.True(t, ok)
}

func TestPlanNoMatchNoWhereNoWithReturnsNil(t *testing.T) {
	bq := parseBasicQuery(t, `RETURN 1`)
	assert.Nil(t, Plan(bq))
}

func TestBuildDefaultEstimates(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person) RETURN n`)
	pp := Build(Plan(bq), nil)
	scan, ok := pp.Root.(*NodeSeqScan)
	require.True(t, ok)
	assert.Equal(t, 1000, scan.Rows)
	assert.Equal(t, 100.0, scan.Cost)
}

func TestBuildExpandEstimates(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a, b`)
	pp := Build(Plan(bq), nil)
	exp, ok := pp.Root.(*IndexedExpand)
	require.True(t, ok)
	assert.Equal(t, 1000, exp.Rows)
	assert.Equal(t, 200.0, exp.Cost)
}

func TestBuildSingleRowEstimate(t *testing.T) {
	pp := Build(&LogicalPlan{Root: &SingleRow{}}, nil)
	sr, ok := pp.Root.(*SingleRowPhysical)
	require.True(t, ok)
	assert.Equal(t, 1, sr.Rows)
	assert.Equal(t, 1.0, sr.Cost)
}

type fakeIndex struct{ label, prop string }

func (f fakeIndex) HasPropertyIndex(label, prop string) bool { return label == f.label && prop == f.prop }

func TestBuildUsesIndexScanWhenCatalogHasIndex(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person {name: "Ada"}) RETURN n`)
	pp := Build(Plan(bq), fakeIndex{label: "Person", prop: "name"})
	idxScan, ok := pp.Root.(*NodeIndexScan)
	require.True(t, ok)
	assert.Equal(t, "Person", idxScan.Label)
	assert.Equal(t, "name", idxScan.Property)
}

func TestBuildFallsBackToSeqScanWithoutMatchingIndex(t *testing.T) {
	bq := parseBasicQuery(t, `MATCH (n:Person {name: "Ada"}) RETURN n`)
	pp := Build(Plan(bq), fakeIndex{label: "Company", prop: "name"})
	_, ok := pp.Root.(*NodeSeqScan)
	assert.True(t, ok)
}
