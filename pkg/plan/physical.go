package plan

import "github.com/orneryd/gqlgraph/pkg/gql"

// PhysicalNode is one node of a physical execution plan: same shape as its
// logical counterpart plus row/cost estimates. The executor ignores these
// estimates for correctness; they only feed an informative EXPLAIN-style
// surface.
type PhysicalNode interface{ physicalNode() }

type estimate struct {
	Rows int
	Cost float64
}

// NodeSeqScan scans every node, filtering by label/property as it goes.
type NodeSeqScan struct {
	estimate
	Variable   string
	Labels     []string
	Properties map[string]gql.Expr
}

func (*NodeSeqScan) physicalNode() {}

// NodeIndexScan is chosen over NodeSeqScan when the node pattern has one
// label, its inline property map has exactly one entry, and a property
// index exists for that label and property. WHERE predicates are not
// inspected when choosing between the two.
type NodeIndexScan struct {
	estimate
	Variable   string
	Label      string
	Property   string
	Properties map[string]gql.Expr
}

func (*NodeIndexScan) physicalNode() {}

// IndexedExpand walks the adjacency index for From.
type IndexedExpand struct {
	estimate
	From       string
	EdgeVar    string
	To         string
	EdgeLabels []string
	Direction  gql.Direction
	Properties map[string]gql.Expr
	Input      PhysicalNode
}

func (*IndexedExpand) physicalNode() {}

// PhysicalJoin mirrors the logical Join, carrying the same correlation key.
type PhysicalJoin struct {
	estimate
	Kind  JoinKind
	On    string
	Left  PhysicalNode
	Right PhysicalNode
}

func (*PhysicalJoin) physicalNode() {}

type PhysicalFilter struct {
	estimate
	Predicate gql.Expr
	Input     PhysicalNode
}

func (*PhysicalFilter) physicalNode() {}

type PhysicalProject struct {
	estimate
	Items     []ProjectItem
	Distinct  bool
	Aggregate bool
	Input     PhysicalNode
}

func (*PhysicalProject) physicalNode() {}

type PhysicalSort struct {
	estimate
	Items []SortItem
	Input PhysicalNode
}

func (*PhysicalSort) physicalNode() {}

type PhysicalLimit struct {
	estimate
	Skip  gql.Expr
	Count gql.Expr
	Input PhysicalNode
}

func (*PhysicalLimit) physicalNode() {}

type PhysicalUnwind struct {
	estimate
	List  gql.Expr
	Alias string
	Input PhysicalNode
}

func (*PhysicalUnwind) physicalNode() {}

// SingleRowPhysical is the cheapest possible operation: exactly one row.
type SingleRowPhysical struct{ estimate }

func (*SingleRowPhysical) physicalNode() {}

// PhysicalPlan wraps a root physical node.
type PhysicalPlan struct {
	Root PhysicalNode
}
