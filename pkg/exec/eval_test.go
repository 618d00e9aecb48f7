package exec

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, text string) gql.Expr {
	t.Helper()
	stmt, err := gql.Parse("RETURN " + text)
	require.NoError(t, err)
	bq := stmt.(*gql.BasicQuery)
	require.Len(t, bq.Return.Items, 1)
	return bq.Return.Items[0].Expr
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	v, err := Eval(parseExpr(t, "1 + 2 * 3"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.NumberValue(7), v)

	v, err = Eval(parseExpr(t, "1 + 2 > 2"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)
}

func TestEvalPropertyAccessMissingIsNull(t *testing.T) {
	n := &storage.Node{ID: "n1", Labels: []string{"Person"}, Properties: map[string]storage.Value{"name": storage.StringValue("Ada")}}
	row := Row{"n": storage.NodeValue(n)}

	v, err := Eval(parseExpr(t, "n.name"), row, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.StringValue("Ada"), v)

	v, err = Eval(parseExpr(t, "n.unknown"), row, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalIsNullCheck(t *testing.T) {
	v, err := Eval(parseExpr(t, "null IS NULL"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)

	v, err = Eval(parseExpr(t, "1 IS NOT NULL"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)
}

func TestEvalAndOrThreeValuedLogic(t *testing.T) {
	v, err := Eval(parseExpr(t, "false AND null"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(false), v)

	v, err = Eval(parseExpr(t, "true OR null"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)

	v, err = Eval(parseExpr(t, "true AND null"), Row{}, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalStringFunctionsAndPredicates(t *testing.T) {
	v, err := Eval(parseExpr(t, "UPPER('abc')"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.StringValue("ABC"), v)

	v, err = Eval(parseExpr(t, "'hello world' CONTAINS 'world'"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)

	v, err = Eval(parseExpr(t, "SUBSTRING('hello', 1, 3)"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.StringValue("ell"), v)
}

func TestEvalMathFunctions(t *testing.T) {
	v, err := Eval(parseExpr(t, "SQRT(9)"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.NumberValue(3), v)

	v, err = Eval(parseExpr(t, "ABS(-4)"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.NumberValue(4), v)
}

func TestEvalCaseExpression(t *testing.T) {
	v, err := Eval(parseExpr(t, "CASE WHEN 1 > 2 THEN 'a' WHEN 2 > 1 THEN 'b' ELSE 'c' END"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.StringValue("b"), v)
}

func TestEvalListIndexAndIn(t *testing.T) {
	v, err := Eval(parseExpr(t, "[1, 2, 3][1]"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.NumberValue(2), v)

	v, err = Eval(parseExpr(t, "2 IN [1, 2, 3]"), Row{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.BooleanValue(true), v)
}

func TestEvalParameterRef(t *testing.T) {
	params := map[string]storage.Value{"minAge": storage.NumberValue(21)}
	v, err := Eval(parseExpr(t, "$minAge"), Row{}, params)
	require.NoError(t, err)
	assert.Equal(t, storage.NumberValue(21), v)
}

func TestEvalUnboundVariableErrors(t *testing.T) {
	_, err := Eval(parseExpr(t, "missing"), Row{}, nil)
	assert.Error(t, err)
}
