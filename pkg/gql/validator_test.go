package gql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) Statement {
	t.Helper()
	stmt, err := Parse(text)
	require.NoError(t, err)
	return stmt
}

func TestValidateAcceptsBoundVariables(t *testing.T) {
	stmt := mustParse(t, `MATCH (n:Person) WHERE n.age > 21 RETURN n.name`)
	assert.NoError(t, Validate(stmt))
}

func TestValidateRejectsUnboundVariableInWhere(t *testing.T) {
	stmt := mustParse(t, `MATCH (n:Person) RETURN n.name`)
	// Tamper with the WHERE clause to reference an unbound variable, the
	// way a hand-built AST (not the parser) could.
	bq := stmt.(*BasicQuery)
	bq.Where = &PropertyAccess{Var: "ghost", Prop: "x"}
	err := Validate(bq)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestValidateOptionalMatchBindsSecondClauseVariable(t *testing.T) {
	stmt := mustParse(t, `MATCH (p:Person) OPTIONAL MATCH (p)-[:OWNS]->(f:Pet) RETURN p, f.name`)
	assert.NoError(t, Validate(stmt))
}

func TestValidateInsertBindsNewVariables(t *testing.T) {
	stmt := mustParse(t, `INSERT (a:Person {name: "Ada"})`)
	assert.NoError(t, Validate(stmt))
}

func TestValidateSetRequiresMatchedVariable(t *testing.T) {
	stmt := mustParse(t, `MATCH (n:Person) SET n.age = 30`)
	assert.NoError(t, Validate(stmt))
}

func TestValidateWithRescopesBindings(t *testing.T) {
	stmt := mustParse(t, `MATCH (n:Person) WITH n.name AS name RETURN name`)
	assert.NoError(t, Validate(stmt))
}

func TestValidateUnwindBindsAlias(t *testing.T) {
	stmt := mustParse(t, `UNWIND [1, 2, 3] AS x RETURN x`)
	assert.NoError(t, Validate(stmt))
}
