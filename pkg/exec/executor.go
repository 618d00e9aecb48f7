package exec

import (
	"fmt"
	"sort"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// Execute runs a physical plan to completion against cache, returning every
// resulting row. Callers wanting cancellation mid-scan should check ctx at
// their own call sites around repeated Execute calls; plan trees in this
// engine are small enough that a single Execute call completing is the
// natural suspension granularity.
func Execute(root plan.PhysicalNode, cache *storage.GraphCache, params map[string]storage.Value) ([]Row, error) {
	return execNode(root, cache, params, nil)
}

// execNode evaluates one physical node. seed carries bindings a correlated
// join has already fixed (e.g. the shared variable of an OPTIONAL MATCH);
// a leaf scan whose variable appears in seed returns that single bound
// entity instead of scanning the whole graph.
func execNode(n plan.PhysicalNode, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	switch node := n.(type) {
	case *plan.SingleRowPhysical:
		return []Row{{}}, nil
	case *plan.NodeSeqScan:
		return scanNodes(node.Variable, node.Labels, node.Properties, cache, params, seed)
	case *plan.NodeIndexScan:
		return scanNodes(node.Variable, []string{node.Label}, node.Properties, cache, params, seed)
	case *plan.IndexedExpand:
		return execExpand(node, cache, params, seed)
	case *plan.PhysicalJoin:
		return execJoin(node, cache, params, seed)
	case *plan.PhysicalFilter:
		return execFilter(node, cache, params, seed)
	case *plan.PhysicalProject:
		return execProject(node, cache, params, seed)
	case *plan.PhysicalSort:
		return execSort(node, cache, params, seed)
	case *plan.PhysicalLimit:
		return execLimit(node, cache, params, seed)
	case *plan.PhysicalUnwind:
		return execUnwind(node, cache, params, seed)
	}
	return nil, fmt.Errorf("unsupported physical node %T", n)
}

func scanNodes(variable string, labels []string, props map[string]gql.Expr, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	cache.RLock()
	defer cache.RUnlock()

	if seed != nil {
		if bound, ok := seed[variable]; ok {
			if bound.Kind != storage.KindNode || bound.Node == nil {
				return nil, nil
			}
			if !nodeMatches(bound.Node, labels) {
				return nil, nil
			}
			if !propsMatchNode(bound.Node, props, Row{variable: bound}, params) {
				return nil, nil
			}
			return []Row{{variable: bound}}, nil
		}
	}

	var candidates []*storage.Node
	if len(labels) == 1 {
		candidates = cache.NodesByLabel(labels[0])
	} else {
		candidates = cache.AllNodes()
	}

	rows := make([]Row, 0, len(candidates))
	for _, node := range candidates {
		if !nodeMatches(node, labels) {
			continue
		}
		row := Row{variable: storage.NodeValue(node)}
		if !propsMatchNode(node, props, row, params) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func nodeMatches(n *storage.Node, labels []string) bool {
	for _, l := range labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	return true
}

func propsMatchNode(n *storage.Node, props map[string]gql.Expr, row Row, params map[string]storage.Value) bool {
	for key, expr := range props {
		want, err := Eval(expr, row, params)
		if err != nil {
			return false
		}
		got, ok := n.Properties[key]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func propsMatchEdge(e *storage.Edge, props map[string]gql.Expr, row Row, params map[string]storage.Value) bool {
	for key, expr := range props {
		want, err := Eval(expr, row, params)
		if err != nil {
			return false
		}
		got, ok := e.Properties[key]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func execExpand(node *plan.IndexedExpand, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	inputRows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}

	cache.RLock()
	defer cache.RUnlock()

	var out []Row
	for _, in := range inputRows {
		fromVal, ok := in[node.From]
		if !ok || fromVal.Kind != storage.KindNode || fromVal.Node == nil {
			continue
		}
		fromID := fromVal.Node.ID

		var edges []*storage.Edge
		switch node.Direction {
		case gql.DirOut:
			edges = cache.OutgoingEdges(fromID)
		case gql.DirIn:
			edges = cache.IncomingEdges(fromID)
		default:
			edges = append(append([]*storage.Edge{}, cache.OutgoingEdges(fromID)...), cache.IncomingEdges(fromID)...)
		}

		for _, e := range edges {
			if !edgeLabelMatches(e, node.EdgeLabels) {
				continue
			}
			row := in.clone()
			if !propsMatchEdge(e, node.Properties, row, params) {
				continue
			}
			var toID storage.NodeID
			if node.Direction == gql.DirIn {
				toID = e.FromNode
			} else if e.FromNode == fromID {
				toID = e.ToNode
			} else {
				toID = e.FromNode
			}
			toNode := cache.GetNode(toID)
			if toNode == nil {
				continue
			}
			if node.EdgeVar != "" {
				row[node.EdgeVar] = storage.EdgeValue(e)
			}
			row[node.To] = storage.NodeValue(toNode)
			out = append(out, row)
		}
	}
	return out, nil
}

func edgeLabelMatches(e *storage.Edge, labels []string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if e.Label == l {
			return true
		}
	}
	return false
}

func execJoin(node *plan.PhysicalJoin, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	leftRows, err := execNode(node.Left, cache, params, seed)
	if err != nil {
		return nil, err
	}

	if node.On == "" {
		rightRows, err := execNode(node.Right, cache, params, seed)
		if err != nil {
			return nil, err
		}
		var out []Row
		for _, l := range leftRows {
			if len(rightRows) == 0 {
				if node.Kind == plan.JoinLeftOuter {
					out = append(out, l.merge(nullRow(collectVars(node.Right), "")))
				}
				continue
			}
			for _, r := range rightRows {
				out = append(out, l.merge(r))
			}
		}
		return out, nil
	}

	var out []Row
	for _, l := range leftRows {
		rightSeed := Row{node.On: l[node.On]}
		rightRows, err := execNode(node.Right, cache, params, rightSeed)
		if err != nil {
			return nil, err
		}
		if len(rightRows) == 0 {
			if node.Kind == plan.JoinLeftOuter {
				out = append(out, l.merge(nullRow(collectVars(node.Right), node.On)))
			}
			continue
		}
		for _, r := range rightRows {
			out = append(out, l.merge(r))
		}
	}
	return out, nil
}

// nullRow binds every name in vars to Null, used to fill in the variables
// a left-outer join's right side would have bound when it matched nothing.
// except is the correlation variable the left side already bound — the
// right subtree re-scans it from the seed, so it must not be nulled out.
func nullRow(vars []string, except string) Row {
	row := make(Row, len(vars))
	for _, v := range vars {
		if v == except {
			continue
		}
		row[v] = storage.NullValue()
	}
	return row
}

// collectVars walks a physical subtree collecting every variable name it
// binds, so a failed left-outer match can still emit Null for each of them.
func collectVars(n plan.PhysicalNode) []string {
	var vars []string
	var walk func(n plan.PhysicalNode)
	walk = func(n plan.PhysicalNode) {
		switch node := n.(type) {
		case *plan.NodeSeqScan:
			vars = append(vars, node.Variable)
		case *plan.NodeIndexScan:
			vars = append(vars, node.Variable)
		case *plan.IndexedExpand:
			walk(node.Input)
			if node.EdgeVar != "" {
				vars = append(vars, node.EdgeVar)
			}
			vars = append(vars, node.To)
		case *plan.PhysicalJoin:
			walk(node.Left)
			walk(node.Right)
		case *plan.PhysicalFilter:
			walk(node.Input)
		case *plan.PhysicalProject:
			walk(node.Input)
		case *plan.PhysicalSort:
			walk(node.Input)
		case *plan.PhysicalLimit:
			walk(node.Input)
		case *plan.PhysicalUnwind:
			walk(node.Input)
			vars = append(vars, node.Alias)
		}
	}
	walk(n)
	return vars
}

func execFilter(node *plan.PhysicalFilter, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	rows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		v, err := Eval(node.Predicate, r, params)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			out = append(out, r)
		}
	}
	return out, nil
}

func execUnwind(node *plan.PhysicalUnwind, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	rows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, r := range rows {
		listVal, err := Eval(node.List, r, params)
		if err != nil {
			return nil, err
		}
		if listVal.Kind != storage.KindList {
			continue
		}
		for _, item := range listVal.List {
			row := r.clone()
			row[node.Alias] = item
			out = append(out, row)
		}
	}
	return out, nil
}

func execSort(node *plan.PhysicalSort, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	rows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for _, item := range node.Items {
			vi, err := Eval(item.Expr, rows[i], params)
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := Eval(item.Expr, rows[j], params)
			if err != nil {
				sortErr = err
				return false
			}
			cmp := compareValues(vi, vj)
			if cmp == 0 {
				continue
			}
			if item.Descending && !vi.IsNull() && !vj.IsNull() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return rows, nil
}

// compareValues orders Null last regardless of ascending/descending, then
// numbers and strings by natural order.
func compareValues(a, b storage.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}
	switch {
	case a.Kind == storage.KindNumber && b.Kind == storage.KindNumber:
		return cmpFloat(a.Num, b.Num)
	case a.Kind == storage.KindString && b.Kind == storage.KindString:
		if a.Str < b.Str {
			return -1
		}
		if a.Str > b.Str {
			return 1
		}
		return 0
	}
	return 0
}

func execLimit(node *plan.PhysicalLimit, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	rows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}
	skip := 0
	if node.Skip != nil {
		v, err := Eval(node.Skip, Row{}, params)
		if err != nil {
			return nil, err
		}
		skip = int(v.Num)
	}
	if skip > len(rows) {
		skip = len(rows)
	}
	rows = rows[skip:]

	if node.Count == nil {
		return rows, nil
	}
	v, err := Eval(node.Count, Row{}, params)
	if err != nil {
		return nil, err
	}
	limit := int(v.Num)
	if limit < 0 {
		limit = 0
	}
	if limit > len(rows) {
		limit = len(rows)
	}
	return rows[:limit], nil
}
