// Package exec walks a physical plan over a storage.GraphCache, evaluating
// expressions row by row and applying data-modification statements through
// the transaction engine's undo-log recipe.
package exec

import "github.com/orneryd/gqlgraph/pkg/storage"

// Row is one binding of pattern variables (and projected columns, once a
// Project has run) to values.
type Row map[string]storage.Value

// clone returns a shallow copy so callers can extend a row without mutating
// the one a sibling branch of the plan still holds a reference to.
func (r Row) clone() Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// merge returns a new row with every binding from r and then other, other
// taking precedence on key collision.
func (r Row) merge(other Row) Row {
	out := r.clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}
