package engine

import (
	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// Status reports how a statement finished.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "ok"
}

// QueryResult is what ProcessQuery returns for every statement kind: a read
// query and SESSION SHOW populate Columns/Rows, a data-modification
// statement populates RowsAffected and leaves Rows empty, and DDL and the
// remaining transaction/session statements populate neither.
type QueryResult struct {
	Status Status

	Columns []string
	Rows    [][]storage.Value

	RowsAffected int

	ExecutionTimeMs float64

	// Plan and AST are populated only when the caller asked for them (see
	// Options.Explain/ReturnAST), since most callers have no use for
	// either and building both costs real allocation on every statement.
	Plan *plan.PhysicalPlan
	AST  gql.Statement
}

// Options tunes what ProcessQuery attaches to the result beyond rows.
type Options struct {
	Explain bool // attach the physical plan for a read statement
	ReturnAST bool // attach the parsed statement
}
