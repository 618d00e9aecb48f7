package engine

import (
	"sort"
	"time"

	"github.com/orneryd/gqlgraph/pkg/exec"
	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/session"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// ProcessQuery parses, validates, plans, and runs one statement against the
// graph/schema the session currently has selected, implementing
// Coordinator.process_query. Statement families dispatch to their own file
// in this package, mirroring how pkg/exec splits read execution
// (executor.go) from data-modification execution (datastmt.go).
func (co *Coordinator) ProcessQuery(text string, sessionID session.ID, opts Options) (*QueryResult, error) {
	start := time.Now()

	sess, err := co.sessions.Get(sessionID)
	if err != nil {
		return nil, execError(ExecNotFound, "session %s not found", sessionID)
	}

	stmt, err := gql.Parse(text)
	if err != nil {
		return nil, newError(CategoryParse, err)
	}
	if err := gql.Validate(stmt); err != nil {
		return nil, newError(CategoryValidation, err)
	}

	result, err := co.dispatchWithTimeout(stmt, sess, sessionID, opts)
	if err != nil {
		return nil, err
	}

	result.ExecutionTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	if opts.ReturnAST {
		result.AST = stmt
	}
	return result, nil
}

// dispatchWithTimeout runs the parsed statement's family-specific handler
// under the session's query timeout (spec.md §5: cancellation polled at
// operator boundaries, default 30s). This engine's plan trees are small
// enough that a single dispatch call is the natural suspension granularity
// (see pkg/exec.Execute's own doc comment), so the timeout races the whole
// dispatch against a timer rather than threading a context through every
// operator. The dispatch goroutine is not forcibly killed on timeout — it
// finishes (or fails) on its own and its result is discarded — matching the
// cooperative-polling model: nothing holds a lock across the timeout point
// that a late-finishing dispatch wouldn't release itself.
func (co *Coordinator) dispatchWithTimeout(stmt gql.Statement, sess *session.Session, sessionID session.ID, opts Options) (*QueryResult, error) {
	type outcome struct {
		result *QueryResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := co.dispatch(stmt, sess, sessionID, opts)
		done <- outcome{r, err}
	}()

	timeout := co.cfg.Limits.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case o := <-done:
		return o.result, o.err
	case <-time.After(timeout):
		return nil, execError(ExecCancelled, "query exceeded timeout of %s", timeout)
	}
}

func (co *Coordinator) dispatch(stmt gql.Statement, sess *session.Session, sessionID session.ID, opts Options) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *gql.BasicQuery:
		return co.runRead(s, sess, opts)
	case *gql.InsertStatement, *gql.SetStatement, *gql.DeleteStatement, *gql.RemoveStatement,
		*gql.MatchInsertStatement, *gql.MatchSetStatement, *gql.MatchDeleteStatement, *gql.MatchRemoveStatement:
		return co.runDataStatement(stmt, sess)
	case *gql.DDLStatement:
		return co.runDDL(s, sess)
	case *gql.TransactionStatement:
		return co.runTransaction(s, sess)
	case *gql.SessionStatement:
		return co.runSession(s, sess, sessionID)
	default:
		return nil, execError(ExecInvalidQuery, "unrecognized statement type %T", stmt)
	}
}

// runRead plans and executes a BasicQuery against the session's current
// graph, returning the projected columns in RETURN/WITH order.
func (co *Coordinator) runRead(bq *gql.BasicQuery, sess *session.Session, opts Options) (*QueryResult, error) {
	gc, err := co.graphForRead(sess)
	if err != nil {
		return nil, err
	}

	lp := plan.Plan(bq)
	if lp == nil {
		return &QueryResult{Status: StatusOK}, nil
	}
	pp := plan.Build(lp, co.catalog)

	gc.RLock()
	rows, err := exec.Execute(pp.Root, gc, sess.Parameters())
	gc.RUnlock()
	if err != nil {
		return nil, newError(CategoryExecution, err)
	}

	if limit := co.cfg.Limits.MaxResultRows; limit > 0 && len(rows) > limit {
		return nil, execError(ExecResourceExhausted, "result set of %d rows exceeds the %d row limit", len(rows), limit)
	}

	cols := returnColumns(bq)
	out := make([][]storage.Value, len(rows))
	for i, r := range rows {
		vals := make([]storage.Value, len(cols))
		for j, c := range cols {
			if v, ok := r[c]; ok {
				vals[j] = v
			} else {
				vals[j] = storage.NullValue()
			}
		}
		out[i] = vals
	}

	result := &QueryResult{Status: StatusOK, Columns: cols, Rows: out}
	if opts.Explain {
		result.Plan = pp
	}
	return result, nil
}

// graphForRead resolves the session's current graph, reporting
// ExecInvalidQuery if none is selected.
func (co *Coordinator) graphForRead(sess *session.Session) (*storage.GraphCache, error) {
	path := sess.CurrentGraph()
	if path == "" {
		return nil, execError(ExecInvalidQuery, "no graph selected; run SESSION SET GRAPH <path> first")
	}
	return co.graph(path)
}

// returnColumns derives the ordered output column names from a BasicQuery's
// terminal RETURN (or, lacking one, its WITH), the same default-naming rule
// pkg/exec's unexported columnName applies per item: an explicit alias,
// else a bare variable or var.prop name, else the expression's printed
// form.
func returnColumns(bq *gql.BasicQuery) []string {
	switch {
	case bq.Return != nil:
		return columnNames(bq.Return.Items)
	case bq.With != nil:
		return columnNames(bq.With.Items)
	}
	return nil
}

func columnNames(items []gql.ProjectionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = columnNameFor(it)
	}
	return out
}

func columnNameFor(item gql.ProjectionItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch e := item.Expr.(type) {
	case *gql.Variable:
		return e.Name
	case *gql.PropertyAccess:
		return e.Var + "." + e.Prop
	default:
		return gql.PrintExpr(e)
	}
}

// sortedStrings is a tiny helper shared by the session-facing SHOW handler
// in sessionstmt.go, kept here since it's a one-liner used only for
// presenting columns in a stable order.
func sortedStrings(ss []string) []string {
	out := append([]string{}, ss...)
	sort.Strings(out)
	return out
}
