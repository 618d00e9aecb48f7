package gql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip parses text, prints it, reparses the printed text, and requires
// both parses to succeed; it returns both ASTs for the caller to compare.
func roundTrip(t *testing.T, text string) (Statement, Statement) {
	t.Helper()
	first, err := Parse(text)
	require.NoError(t, err)
	printed := Print(first)
	second, err := Parse(printed)
	require.NoErrorf(t, err, "reparsing printed text %q", printed)
	return first, second
}

func TestPrintRoundTripsBasicQuery(t *testing.T) {
	a, b := roundTrip(t, `MATCH (n:Person) WHERE n.age > 21 RETURN n.name AS name ORDER BY name LIMIT 5`)
	assert.IsType(t, a, b)
	assert.Equal(t, Print(a), Print(b))
}

func TestPrintRoundTripsCorrelatedOptionalMatch(t *testing.T) {
	a, b := roundTrip(t, `MATCH (p:Person) OPTIONAL MATCH (p)-[:OWNS]->(f:Pet) RETURN p, f`)
	assert.Equal(t, Print(a), Print(b))
	bq := b.(*BasicQuery)
	require.Len(t, bq.Match, 2)
	assert.True(t, bq.Match[1].Optional)
}

func TestPrintRoundTripsInsert(t *testing.T) {
	a, b := roundTrip(t, `INSERT (a:Person {name: "Ada", age: 30})-[:KNOWS]->(b:Person {name: "Bob"})`)
	assert.Equal(t, Print(a), Print(b))
}

func TestPrintRoundTripsMatchSetDetachDelete(t *testing.T) {
	a, b := roundTrip(t, `MATCH (n:Person) WHERE n.name = "Ada" SET n.age = 31, n:Notable`)
	assert.Equal(t, Print(a), Print(b))

	a, b = roundTrip(t, `MATCH (n:Person) DETACH DELETE n`)
	assert.Equal(t, Print(a), Print(b))
}

func TestPrintRoundTripsDDL(t *testing.T) {
	for _, text := range []string{
		`CREATE SCHEMA /app`,
		`CREATE GRAPH /app/social`,
		`CREATE INDEX bios TEXT ON Person(bio)`,
		`DROP INDEX bios`,
		`GRANT ROLE admin TO ada`,
	} {
		a, b := roundTrip(t, text)
		assert.Equal(t, Print(a), Print(b), text)
	}
}

func TestPrintRoundTripsCaseExpression(t *testing.T) {
	a, b := roundTrip(t, `MATCH (n:Person) RETURN CASE WHEN n.age > 18 THEN "adult" ELSE "minor" END AS bucket`)
	assert.Equal(t, Print(a), Print(b))
}

func TestPrintRoundTripsTransactionAndSession(t *testing.T) {
	for _, text := range []string{
		`START TRANSACTION`,
		`COMMIT`,
		`ROLLBACK`,
		`SESSION SET SCHEMA /app`,
		`SESSION CLOSE`,
	} {
		a, b := roundTrip(t, text)
		assert.Equal(t, Print(a), Print(b), text)
	}
}
