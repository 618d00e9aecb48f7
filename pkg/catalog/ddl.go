package catalog

import (
	"errors"
	"fmt"

	"github.com/orneryd/gqlgraph/pkg/gql"
)

// indexKindName maps gql's IndexKind to the catalog's string encoding, so
// the catalog package itself never needs to import gql's enum elsewhere.
func indexKindName(k gql.IndexKind) string {
	switch k {
	case gql.IndexText:
		return "text"
	case gql.IndexVector:
		return "vector"
	default:
		return "graph"
	}
}

// ExecuteDDL runs one DDLStatement against c. graphPath is the session's
// current graph, used as the target for CREATE INDEX (the grammar names
// the index and its label/property but not which graph it indexes).
func ExecuteDDL(stmt *gql.DDLStatement, c *Catalog, graphPath string) error {
	switch stmt.Kind {
	case gql.DDLCreateSchema:
		return ifExistsGuard(c.CreateSchema(stmt.Path), stmt.IfNotExists, ErrSchemaExists)
	case gql.DDLDropSchema:
		return ifExistsGuard(c.DropSchema(stmt.Path), stmt.IfExists, ErrSchemaNotFound)
	case gql.DDLCreateGraph:
		return ifExistsGuard(c.CreateGraph(stmt.Path, ""), stmt.IfNotExists, ErrGraphExists)
	case gql.DDLDropGraph:
		return ifExistsGuard(c.DropGraph(stmt.Path), stmt.IfExists, ErrGraphNotFound)
	case gql.DDLTruncateGraph:
		return c.TruncateGraph(stmt.Path)
	case gql.DDLClearGraph:
		return c.ClearGraph(stmt.Path)
	case gql.DDLCreateGraphType:
		return ifExistsGuard(c.CreateGraphType(stmt.Name), stmt.IfNotExists, ErrTypeExists)
	case gql.DDLDropGraphType:
		return ifExistsGuard(c.DropGraphType(stmt.Name), stmt.IfExists, ErrTypeNotFound)
	case gql.DDLCreateRole:
		return ifExistsGuard(c.CreateRole(stmt.Name), stmt.IfNotExists, ErrRoleExists)
	case gql.DDLDropRole:
		return ifExistsGuard(c.DropRole(stmt.Name), stmt.IfExists, ErrRoleNotFound)
	case gql.DDLCreateUser:
		return ifExistsGuard(c.CreateUser(stmt.Name, stmt.Password), stmt.IfNotExists, ErrUserExists)
	case gql.DDLDropUser:
		return ifExistsGuard(c.DropUser(stmt.Name), stmt.IfExists, ErrUserNotFound)
	case gql.DDLGrantRole:
		return c.GrantRole(stmt.Role, stmt.User)
	case gql.DDLRevokeRole:
		return c.RevokeRole(stmt.Role, stmt.User)
	case gql.DDLCreateIndex:
		return ifExistsGuard(
			c.CreateIndex(stmt.Name, graphPath, indexKindName(stmt.IndexKind), stmt.Label, stmt.Property),
			stmt.IfNotExists, ErrIndexExists)
	case gql.DDLDropIndex:
		return ifExistsGuard(c.DropIndex(stmt.Name), stmt.IfExists, ErrIndexNotFound)
	}
	return fmt.Errorf("catalog: unsupported DDL kind %v", stmt.Kind)
}

// ifExistsGuard swallows the "already exists"/"not found" sentinel when the
// statement carried IF NOT EXISTS / IF EXISTS, matching the usual SQL/DDL
// idempotency convention.
func ifExistsGuard(err error, guard bool, sentinel error) error {
	if guard && errors.Is(err, sentinel) {
		return nil
	}
	return err
}
