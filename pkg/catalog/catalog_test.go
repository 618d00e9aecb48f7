package catalog

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	mgr, err := storage.OpenManager(storage.DriverMemory, t.TempDir())
	require.NoError(t, err)
	c, err := Open(mgr, 4) // low bcrypt cost keeps tests fast
	require.NoError(t, err)
	return c
}

func parseDDL(t *testing.T, text string) *gql.DDLStatement {
	t.Helper()
	stmt, err := gql.Parse(text)
	require.NoError(t, err)
	ddl, ok := stmt.(*gql.DDLStatement)
	require.True(t, ok)
	return ddl
}

func TestCreateAndDropSchema(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateSchema("/prod"))
	assert.True(t, c.HasSchema("/prod"))
	assert.ErrorIs(t, c.CreateSchema("/prod"), ErrSchemaExists)

	require.NoError(t, c.DropSchema("/prod"))
	assert.False(t, c.HasSchema("/prod"))
	assert.ErrorIs(t, c.DropSchema("/prod"), ErrSchemaNotFound)
}

func TestCreateGraphAndTruncate(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateGraph("/prod/social", ""))
	assert.True(t, c.HasGraph("/prod/social"))

	require.NoError(t, c.TruncateGraph("/prod/social"))
	assert.True(t, c.HasGraph("/prod/social")) // catalog entry survives truncate

	require.NoError(t, c.DropGraph("/prod/social"))
	assert.False(t, c.HasGraph("/prod/social"))
}

func TestUserLifecycleAndAuthentication(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateUser("alice", "correct-horse"))
	assert.ErrorIs(t, c.CreateUser("alice", "anything"), ErrUserExists)

	u, err := c.Authenticate("alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)

	_, err = c.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, c.DropUser("alice"))
	_, err = c.Authenticate("alice", "correct-horse")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGrantAndRevokeRole(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateRole("editor"))
	require.NoError(t, c.CreateUser("bob", "hunter22"))

	require.NoError(t, c.GrantRole("editor", "bob"))
	u, err := c.Authenticate("bob", "hunter22")
	require.NoError(t, err)
	assert.True(t, u.HasRole("editor"))

	require.NoError(t, c.RevokeRole("editor", "bob"))
	assert.False(t, u.HasRole("editor"))
}

func TestCreateIndexSatisfiesIndexCatalog(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateGraph("/prod/social", ""))
	require.NoError(t, c.CreateIndex("by_name", "/prod/social", "graph", "Person", "name"))

	assert.True(t, c.HasPropertyIndex("Person", "name"))
	assert.False(t, c.HasPropertyIndex("Person", "age"))

	assert.ErrorIs(t, c.CreateIndex("by_name", "/prod/social", "graph", "Person", "name"), ErrIndexExists)
	require.NoError(t, c.DropIndex("by_name"))
	assert.False(t, c.HasPropertyIndex("Person", "name"))
}

func TestExecuteDDLCreateSchemaAndGraph(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, ExecuteDDL(parseDDL(t, `CREATE SCHEMA /prod`), c, ""))
	require.NoError(t, ExecuteDDL(parseDDL(t, `CREATE GRAPH /prod/social`), c, ""))
	assert.True(t, c.HasGraph("/prod/social"))

	require.NoError(t, ExecuteDDL(parseDDL(t, `CREATE INDEX by_name ON Person (name)`), c, "/prod/social"))
	assert.True(t, c.HasPropertyIndex("Person", "name"))
}

func TestExecuteDDLCreateUserWithPassword(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, ExecuteDDL(parseDDL(t, `CREATE USER alice SET PASSWORD "s3cret!!"`), c, ""))
	u, err := c.Authenticate("alice", "s3cret!!")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
}

func TestExecuteDDLGrantAndRevokeRole(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.CreateRole("admin"))
	require.NoError(t, c.CreateUser("carol", "topsecret"))

	require.NoError(t, ExecuteDDL(parseDDL(t, `GRANT ROLE admin TO carol`), c, ""))
	u, err := c.Authenticate("carol", "topsecret")
	require.NoError(t, err)
	assert.True(t, u.HasRole("admin"))

	require.NoError(t, ExecuteDDL(parseDDL(t, `REVOKE ROLE admin FROM carol`), c, ""))
	assert.False(t, u.HasRole("admin"))
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	mgr, err := storage.OpenManager(storage.DriverMemory, t.TempDir())
	require.NoError(t, err)
	c, err := Open(mgr, 4)
	require.NoError(t, err)
	require.NoError(t, c.CreateSchema("/prod"))
	require.NoError(t, c.CreateUser("dave", "hunter22"))

	reopened, err := Open(mgr, 4)
	require.NoError(t, err)
	assert.True(t, reopened.HasSchema("/prod"))
	_, err = reopened.Authenticate("dave", "hunter22")
	assert.NoError(t, err)
}
