package engine

import (
	"strings"

	"github.com/orneryd/gqlgraph/pkg/exec"
	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/session"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// runSession executes a SESSION SET|RESET|SHOW|CLOSE statement.
func (co *Coordinator) runSession(stmt *gql.SessionStatement, sess *session.Session, id session.ID) (*QueryResult, error) {
	switch stmt.Kind {
	case gql.SessionSet:
		return co.sessionSet(stmt, sess)
	case gql.SessionReset:
		sess.Reset(stmt.Target)
		return &QueryResult{Status: StatusOK}, nil
	case gql.SessionShow:
		return co.sessionShow(stmt, sess)
	case gql.SessionClose:
		if err := co.sessions.Close(id); err != nil {
			return nil, newError(CategoryExecution, err)
		}
		return &QueryResult{Status: StatusOK}, nil
	}
	return nil, execError(ExecInvalidQuery, "unsupported session statement kind %v", stmt.Kind)
}

func (co *Coordinator) sessionSet(stmt *gql.SessionStatement, sess *session.Session) (*QueryResult, error) {
	switch strings.ToUpper(stmt.Target) {
	case "SCHEMA":
		sess.SetSchema(stmt.Path)
	case "GRAPH":
		if !co.catalog.HasGraph(stmt.Path) {
			return nil, execError(ExecNotFound, "graph %q does not exist", stmt.Path)
		}
		sess.SetGraph(stmt.Path)
	case "PARAMETER":
		v, err := exec.Eval(stmt.Value, exec.Row{}, sess.Parameters())
		if err != nil {
			return nil, newError(CategoryExecution, err)
		}
		sess.SetParameter(stmt.ParamName, v)
	default:
		return nil, execError(ExecInvalidQuery, "unknown SESSION SET target %q", stmt.Target)
	}
	return &QueryResult{Status: StatusOK}, nil
}

// sessionShow reports the current schema/graph, or every bound parameter,
// as a single-row (or one-row-per-parameter) result set depending on
// target.
func (co *Coordinator) sessionShow(stmt *gql.SessionStatement, sess *session.Session) (*QueryResult, error) {
	switch strings.ToUpper(stmt.Target) {
	case "SCHEMA":
		return &QueryResult{
			Status:  StatusOK,
			Columns: []string{"schema"},
			Rows:    [][]storage.Value{{storage.StringValue(sess.CurrentSchema())}},
		}, nil
	case "GRAPH":
		return &QueryResult{
			Status:  StatusOK,
			Columns: []string{"graph"},
			Rows:    [][]storage.Value{{storage.StringValue(sess.CurrentGraph())}},
		}, nil
	case "PARAMETER", "":
		params := sess.Parameters()
		names := make([]string, 0, len(params))
		for k := range params {
			names = append(names, k)
		}
		names = sortedStrings(names)
		rows := make([][]storage.Value, len(names))
		for i, n := range names {
			rows[i] = []storage.Value{storage.StringValue(n), params[n]}
		}
		return &QueryResult{Status: StatusOK, Columns: []string{"name", "value"}, Rows: rows}, nil
	}
	return nil, execError(ExecInvalidQuery, "unknown SESSION SHOW target %q", stmt.Target)
}
