package plan

import "github.com/orneryd/gqlgraph/pkg/gql"

// Plan lowers a parsed BasicQuery's MATCH(es), WHERE, and WITH into a
// logical plan tree, returning nil when all three are absent (e.g. a bare
// `RETURN 1`, which the caller should still wrap in a single-row
// projection itself).
func Plan(bq *gql.BasicQuery) *LogicalPlan {
	if len(bq.Match) == 0 && bq.Where == nil && bq.With == nil && bq.Unwind == nil && bq.Return == nil {
		return nil
	}

	var spine LogicalNode = &SingleRow{}
	bound := map[string]bool{}

	if len(bq.Match) == 0 {
		// WHERE/WITH with no MATCH still plans against the unit row.
	}

	for i, mc := range bq.Match {
		clause := lowerMatchClause(mc)
		if i == 0 && !mc.Optional {
			spine = clause
			bindClauseVars(mc, bound)
			continue
		}
		correlated := correlatingVariable(mc, bound)
		if mc.Optional {
			spine = &Join{Kind: JoinLeftOuter, On: correlated, Left: spine, Right: clause}
		} else if correlated != "" {
			spine = &Join{Kind: JoinInner, On: correlated, Left: spine, Right: clause}
		} else {
			spine = &Join{Kind: JoinInner, Left: spine, Right: clause}
		}
		bindClauseVars(mc, bound)
	}

	if bq.Where != nil {
		spine = &Filter{Predicate: bq.Where, Input: spine}
	}

	if bq.Unwind != nil {
		spine = &Unwind{List: bq.Unwind.List, Alias: bq.Unwind.Alias, Input: spine}
	}

	if bq.With != nil {
		spine = projectFromWith(bq.With, spine)
	}

	if bq.Return != nil {
		spine = projectFromReturn(bq.Return, spine)
	}

	return &LogicalPlan{Root: spine}
}

// lowerMatchClause lowers one MatchClause's pattern paths into a spine:
// NodeScan for the first node of each path, Expand for every subsequent
// edge+node pair, disconnected paths composed with an inner Join.
func lowerMatchClause(mc *gql.MatchClause) LogicalNode {
	var clauseSpine LogicalNode
	for _, path := range mc.Paths {
		pathSpine := lowerPath(path)
		if clauseSpine == nil {
			clauseSpine = pathSpine
		} else {
			clauseSpine = &Join{Kind: JoinInner, Left: clauseSpine, Right: pathSpine}
		}
	}
	if clauseSpine == nil {
		clauseSpine = &SingleRow{}
	}
	return clauseSpine
}

func lowerPath(path *gql.PatternPath) LogicalNode {
	elems := path.Elements
	first := elems[0].Node
	var spine LogicalNode = &NodeScan{
		Variable:   first.Var,
		Labels:     first.Labels,
		Properties: propExprs(first.Properties),
	}
	from := first.Var
	for i := 1; i < len(elems); i += 2 {
		edge := elems[i].Edge
		to := elems[i+1].Node
		spine = &Expand{
			From:       from,
			EdgeVar:    edge.Var,
			To:         to.Var,
			EdgeLabels: edge.Labels,
			Direction:  edge.Direction,
			Properties: propExprs(edge.Properties),
			Input:      spine,
		}
		from = to.Var
	}
	return spine
}

func propExprs(pm *gql.PropertyMap) map[string]gql.Expr {
	if pm == nil {
		return nil
	}
	return pm.Entries
}

// bindClauseVars records every variable a MatchClause introduces.
func bindClauseVars(mc *gql.MatchClause, bound map[string]bool) {
	for _, path := range mc.Paths {
		for _, n := range path.Nodes() {
			if n.Var != "" {
				bound[n.Var] = true
			}
		}
		for _, e := range path.Edges() {
			if e.Var != "" {
				bound[e.Var] = true
			}
		}
	}
}

// correlatingVariable returns the first variable referenced by mc that the
// spine already bound, so an OPTIONAL MATCH keyed on it lowers as a
// LeftOuter join rather than an unrelated Cartesian product.
func correlatingVariable(mc *gql.MatchClause, bound map[string]bool) string {
	for _, path := range mc.Paths {
		for _, n := range path.Nodes() {
			if n.Var != "" && bound[n.Var] {
				return n.Var
			}
		}
	}
	return ""
}

func projectFromWith(wc *gql.WithClause, input LogicalNode) LogicalNode {
	return projectItems(wc.Items, wc.Distinct, wc.Where, wc.OrderBy, wc.Skip, wc.Limit, input)
}

// projectFromReturn lowers the terminal RETURN clause the same way WITH is
// lowered: RETURN carries its own ORDER BY/SKIP/LIMIT/DISTINCT, applied
// after whatever WITH already projected.
func projectFromReturn(rc *gql.ReturnClause, input LogicalNode) LogicalNode {
	return projectItems(rc.Items, rc.Distinct, nil, rc.OrderBy, rc.Skip, rc.Limit, input)
}

func projectItems(items []gql.ProjectionItem, distinct bool, where gql.Expr, orderBy []gql.OrderItem, skip, limitExpr gql.Expr, input LogicalNode) LogicalNode {
	cols := make([]ProjectItem, len(items))
	aggregate := false
	for i, it := range items {
		cols[i] = ProjectItem{Expr: it.Expr, Alias: it.Alias}
		if fc, ok := it.Expr.(*gql.FunctionCall); ok && isAggregateCall(fc) {
			aggregate = true
		}
	}
	node := LogicalNode(&Project{Items: cols, Distinct: distinct, Aggregate: aggregate, Input: input})
	if where != nil {
		node = &Filter{Predicate: where, Input: node}
	}
	if len(orderBy) > 0 {
		sortItems := make([]SortItem, len(orderBy))
		for i, o := range orderBy {
			sortItems[i] = SortItem{Expr: o.Expr, Descending: o.Descending}
		}
		node = &Sort{Items: sortItems, Input: node}
	}
	if skip != nil || limitExpr != nil {
		node = &Limit{Skip: skip, Count: limitExpr, Input: node}
	}
	return node
}

var aggregateFuncNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true, "COLLECT": true,
}

func isAggregateCall(fc *gql.FunctionCall) bool { return aggregateFuncNames[fc.Name] }
