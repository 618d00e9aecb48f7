// Package plan lowers a parsed gql.BasicQuery into a logical plan and then
// a physical plan, mirroring a classic two-stage query planner: a logical
// stage that only decides shape (scan, expand, join, filter, project) and a
// physical stage that attaches row/cost estimates and picks between
// alternative scan strategies.
package plan

import "github.com/orneryd/gqlgraph/pkg/gql"

// LogicalNode is one node of a logical query plan tree.
type LogicalNode interface{ logicalNode() }

// NodeScan scans every node carrying Labels (or every node if Labels is
// empty), optionally pre-filtered by a property-equality map attached
// directly to the pattern (`(n:Person {name: "Ada"})`).
type NodeScan struct {
	Variable   string
	Labels     []string
	Properties map[string]gql.Expr
}

func (*NodeScan) logicalNode() {}

// Expand walks edges out of (or into, or either direction of) From,
// binding EdgeVar and To for each one found.
type Expand struct {
	From       string
	EdgeVar    string
	To         string
	EdgeLabels []string
	Direction  gql.Direction
	Properties map[string]gql.Expr
	Input      LogicalNode
}

func (*Expand) logicalNode() {}

// JoinKind distinguishes an inner Cartesian join (disconnected patterns)
// from a left-outer join (a correlated OPTIONAL MATCH against the spine).
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
)

// Join combines two logical subtrees. For JoinLeftOuter, On names the
// variable the right side must correlate against; every binding that
// variable carries on the left is available to the right subtree, and a
// left row with no right match still emits once, with Null for every
// variable the right side would have bound.
type Join struct {
	Kind  JoinKind
	On    string
	Left  LogicalNode
	Right LogicalNode
}

func (*Join) logicalNode() {}

// Filter keeps only rows where Predicate evaluates truthy.
type Filter struct {
	Predicate gql.Expr
	Input     LogicalNode
}

func (*Filter) logicalNode() {}

// ProjectItem is one projected column: Expr evaluated and bound to Alias.
type ProjectItem struct {
	Expr  gql.Expr
	Alias string
}

// Project narrows/renames the row to a fixed set of columns, optionally
// folding into groups when any item is an aggregate call.
type Project struct {
	Items     []ProjectItem
	Distinct  bool
	Aggregate bool
	Input     LogicalNode
}

func (*Project) logicalNode() {}

// Sort orders rows by Items in sequence.
type Sort struct {
	Items []SortItem
	Input LogicalNode
}

// SortItem is one ORDER BY key.
type SortItem struct {
	Expr       gql.Expr
	Descending bool
}

func (*Sort) logicalNode() {}

// Limit bounds the row count, optionally skipping a prefix first.
type Limit struct {
	Skip  gql.Expr
	Count gql.Expr
	Input LogicalNode
}

func (*Limit) logicalNode() {}

// Unwind expands a list-valued expression into one row per element,
// binding Alias to each element in turn.
type Unwind struct {
	List  gql.Expr
	Alias string
	Input LogicalNode
}

func (*Unwind) logicalNode() {}

// SingleRow is the unit plan: exactly one row with no bindings, the base
// case for a query with no MATCH clause at all.
type SingleRow struct{}

func (*SingleRow) logicalNode() {}

// LogicalPlan wraps a root node. Root is nil when the input query has no
// MATCH, WHERE, or WITH at all (the planner returns a nil *LogicalPlan in
// that case; see Plan).
type LogicalPlan struct {
	Root LogicalNode
}
