package gql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicMatchReturn(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) WHERE n.age > 21 RETURN n.name AS name`)
	require.NoError(t, err)
	bq, ok := stmt.(*BasicQuery)
	require.True(t, ok)
	require.Len(t, bq.Match, 1)
	require.Len(t, bq.Match[0].Paths, 1)
	require.NotNil(t, bq.Where)
	require.NotNil(t, bq.Return)
	require.Len(t, bq.Return.Items, 1)
	assert.Equal(t, "name", bq.Return.Items[0].Alias)
}

func TestParseCorrelatedOptionalMatchProducesTwoClauses(t *testing.T) {
	stmt, err := Parse(`MATCH (p:Person) OPTIONAL MATCH (p)-[:OWNS]->(f:Pet) RETURN p, f`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	require.Len(t, bq.Match, 2)
	assert.False(t, bq.Match[0].Optional)
	assert.True(t, bq.Match[1].Optional)
}

func TestParseBracketedOptionalMatch(t *testing.T) {
	stmt, err := Parse(`MATCH (p:Person) OPTIONAL { MATCH (p)-[:OWNS]->(f:Pet) } RETURN p`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	require.Len(t, bq.Match, 2)
	assert.True(t, bq.Match[1].Optional)
}

func TestParseInsertPath(t *testing.T) {
	stmt, err := Parse(`INSERT (a:Person {name: "Ada"})-[:KNOWS]->(b:Person {name: "Bob"})`)
	require.NoError(t, err)
	ins, ok := stmt.(*InsertStatement)
	require.True(t, ok)
	require.Len(t, ins.Paths, 1)
	assert.Len(t, ins.Paths[0].Nodes(), 2)
	assert.Len(t, ins.Paths[0].Edges(), 1)
}

func TestParseMatchSetStatement(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) WHERE n.name = "Ada" SET n.age = 30, n:Notable`)
	require.NoError(t, err)
	ms, ok := stmt.(*MatchSetStatement)
	require.True(t, ok)
	require.Len(t, ms.Set.Items, 2)
	assert.Equal(t, "Notable", ms.Set.Items[1].AddLabel)
}

func TestParseMatchDetachDelete(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) DETACH DELETE n`)
	require.NoError(t, err)
	md, ok := stmt.(*MatchDeleteStatement)
	require.True(t, ok)
	assert.True(t, md.Delete.Detach)
}

func TestParseRemove(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) REMOVE n.age, n:Notable`)
	require.NoError(t, err)
	mr, ok := stmt.(*MatchRemoveStatement)
	require.True(t, ok)
	require.Len(t, mr.Remove.Items, 2)
	assert.Equal(t, "age", mr.Remove.Items[0].Prop)
	assert.Equal(t, "Notable", mr.Remove.Items[1].RemoveLabel)
}

func TestParseDDLCreateGraph(t *testing.T) {
	stmt, err := Parse(`CREATE GRAPH /app/social`)
	require.NoError(t, err)
	d, ok := stmt.(*DDLStatement)
	require.True(t, ok)
	assert.Equal(t, DDLCreateGraph, d.Kind)
	assert.Equal(t, "/app/social", d.Path)
}

func TestParseDDLCreateTextIndex(t *testing.T) {
	stmt, err := Parse(`CREATE INDEX bios TEXT ON Person(bio)`)
	require.NoError(t, err)
	d := stmt.(*DDLStatement)
	assert.Equal(t, DDLCreateIndex, d.Kind)
	assert.Equal(t, IndexText, d.IndexKind)
	assert.Equal(t, "Person", d.Label)
	assert.Equal(t, "bio", d.Property)
}

func TestParseDDLCreateUserWithPassword(t *testing.T) {
	stmt, err := Parse(`CREATE USER ada SET PASSWORD "hunter2"`)
	require.NoError(t, err)
	d := stmt.(*DDLStatement)
	assert.Equal(t, DDLCreateUser, d.Kind)
	assert.Equal(t, "hunter2", d.Password)
}

func TestParseGrantRole(t *testing.T) {
	stmt, err := Parse(`GRANT ROLE admin TO ada`)
	require.NoError(t, err)
	d := stmt.(*DDLStatement)
	assert.Equal(t, DDLGrantRole, d.Kind)
	assert.Equal(t, "admin", d.Role)
	assert.Equal(t, "ada", d.User)
}

func TestParseTransactionStatements(t *testing.T) {
	for _, tc := range []struct {
		text string
		kind TxnKind
	}{
		{"START TRANSACTION", TxnStart},
		{"COMMIT", TxnCommit},
		{"ROLLBACK", TxnRollback},
	} {
		stmt, err := Parse(tc.text)
		require.NoError(t, err)
		txn := stmt.(*TransactionStatement)
		assert.Equal(t, tc.kind, txn.Kind)
	}
}

func TestParseSessionStatements(t *testing.T) {
	stmt, err := Parse(`SESSION SET SCHEMA /app`)
	require.NoError(t, err)
	ss := stmt.(*SessionStatement)
	assert.Equal(t, SessionSet, ss.Kind)
	assert.Equal(t, "/app", ss.Path)

	stmt, err = Parse(`SESSION CLOSE`)
	require.NoError(t, err)
	assert.Equal(t, SessionClose, stmt.(*SessionStatement).Kind)
}

func TestParseWithOrderBySkipLimit(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) RETURN n.name ORDER BY n.name DESC SKIP 1 LIMIT 10`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	require.Len(t, bq.Return.OrderBy, 1)
	assert.True(t, bq.Return.OrderBy[0].Descending)
	assert.NotNil(t, bq.Return.Skip)
	assert.NotNil(t, bq.Return.Limit)
}

func TestParseCaseExpression(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) RETURN CASE WHEN n.age > 18 THEN "adult" ELSE "minor" END AS bucket`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	_, ok := bq.Return.Items[0].Expr.(*CaseExpr)
	assert.True(t, ok)
}

func TestParseCountStar(t *testing.T) {
	stmt, err := Parse(`MATCH (n) RETURN COUNT(*) AS total`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	fc, ok := bq.Return.Items[0].Expr.(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "COUNT", fc.Name)
}

func TestParseUnwind(t *testing.T) {
	stmt, err := Parse(`UNWIND [1, 2, 3] AS x RETURN x`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	require.NotNil(t, bq.Unwind)
	assert.Equal(t, "x", bq.Unwind.Alias)
}

func TestParseErrorOnDanglingPattern(t *testing.T) {
	_, err := Parse(`MATCH (n:Person)-[:KNOWS]-> RETURN n`)
	require.Error(t, err)
}

func TestParsePrecedenceArithmeticAndLogical(t *testing.T) {
	stmt, err := Parse(`MATCH (n) WHERE n.a + 1 * 2 = 5 AND NOT n.b RETURN n`)
	require.NoError(t, err)
	bq := stmt.(*BasicQuery)
	top, ok := bq.Where.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", top.Op)
	cmp, ok := top.Left.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "=", cmp.Op)
}
