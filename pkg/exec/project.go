package exec

import (
	"fmt"
	"sort"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

func execProject(node *plan.PhysicalProject, cache *storage.GraphCache, params map[string]storage.Value, seed Row) ([]Row, error) {
	rows, err := execNode(node.Input, cache, params, seed)
	if err != nil {
		return nil, err
	}

	var out []Row
	if node.Aggregate {
		out, err = foldAggregates(node.Items, rows, params)
	} else {
		out, err = projectRows(node.Items, rows, params)
	}
	if err != nil {
		return nil, err
	}

	if node.Distinct {
		out = dedupe(out)
	}
	return out, nil
}

func columnName(item plan.ProjectItem) string {
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

func projectRows(items []plan.ProjectItem, rows []Row, params map[string]storage.Value) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		projected := make(Row, len(items))
		for _, item := range items {
			v, err := Eval(item.Expr, r, params)
			if err != nil {
				return nil, err
			}
			projected[columnName(item)] = v
		}
		out = append(out, projected)
	}
	return out, nil
}

// aggGroup accumulates one row per distinct combination of the
// non-aggregate projection items (the implicit GROUP BY key).
type aggGroup struct {
	keyRow Row // the non-aggregate item values, to emit alongside the aggregate results
	accums map[string]*accumulator
}

func foldAggregates(items []plan.ProjectItem, rows []Row, params map[string]storage.Value) ([]Row, error) {
	order := []string{}
	groups := map[string]*aggGroup{}

	for _, r := range rows {
		keyParts := make([]string, 0, len(items))
		keyRow := Row{}
		for _, item := range items {
			if _, isAgg := aggregateCall(item.Expr); isAgg {
				continue
			}
			v, err := Eval(item.Expr, r, params)
			if err != nil {
				return nil, err
			}
			keyRow[columnName(item)] = v
			keyParts = append(keyParts, v.String())
		}
		key := fmt.Sprint(keyParts)

		g, ok := groups[key]
		if !ok {
			g = &aggGroup{keyRow: keyRow, accums: map[string]*accumulator{}}
			groups[key] = g
			order = append(order, key)
		}

		for _, item := range items {
			fc, isAgg := aggregateCall(item.Expr)
			if !isAgg {
				continue
			}
			name := columnName(item)
			acc, ok := g.accums[name]
			if !ok {
				acc = newAccumulator(fc.Name)
				g.accums[name] = acc
			}
			if fc.Name == "COUNT" && len(fc.Args) == 1 {
				if v, ok := fc.Args[0].(*gql.Variable); ok && v.Name == "*" {
					acc.add(storage.BooleanValue(true))
					continue
				}
			}
			var arg storage.Value
			if len(fc.Args) == 1 {
				v, err := Eval(fc.Args[0], r, params)
				if err != nil {
					return nil, err
				}
				arg = v
			}
			acc.add(arg)
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := g.keyRow.clone()
		for _, item := range items {
			fc, isAgg := aggregateCall(item.Expr)
			if !isAgg {
				continue
			}
			name := columnName(item)
			row[name] = g.accums[name].result()
		}
		out = append(out, row)
	}
	return out, nil
}

func aggregateCall(e gql.Expr) (*gql.FunctionCall, bool) {
	fc, ok := e.(*gql.FunctionCall)
	if !ok {
		return nil, false
	}
	return fc, aggregateNames[fc.Name]
}

type accumulator struct {
	kind    string
	count   int
	sum     float64
	min     *storage.Value
	max     *storage.Value
	collect []storage.Value
}

func newAccumulator(kind string) *accumulator { return &accumulator{kind: kind} }

func (a *accumulator) add(v storage.Value) {
	switch a.kind {
	case "COUNT":
		if !v.IsNull() {
			a.count++
		}
	case "SUM", "AVG":
		if v.Kind == storage.KindNumber {
			a.sum += v.Num
			a.count++
		}
	case "MIN":
		if v.IsNull() {
			return
		}
		if a.min == nil || compareValues(v, *a.min) < 0 {
			cp := v
			a.min = &cp
		}
	case "MAX":
		if v.IsNull() {
			return
		}
		if a.max == nil || compareValues(v, *a.max) > 0 {
			cp := v
			a.max = &cp
		}
	case "COLLECT":
		if !v.IsNull() {
			a.collect = append(a.collect, v)
		}
	}
}

func (a *accumulator) result() storage.Value {
	switch a.kind {
	case "COUNT":
		return storage.NumberValue(float64(a.count))
	case "SUM":
		return storage.NumberValue(a.sum)
	case "AVG":
		if a.count == 0 {
			return storage.NullValue()
		}
		return storage.NumberValue(a.sum / float64(a.count))
	case "MIN":
		if a.min == nil {
			return storage.NullValue()
		}
		return *a.min
	case "MAX":
		if a.max == nil {
			return storage.NullValue()
		}
		return *a.max
	case "COLLECT":
		return storage.ListValue(a.collect)
	}
	return storage.NullValue()
}

// dedupe keeps only the first occurrence of each distinct row, by the
// string form of every value in the (now-uniform) column set.
func dedupe(rows []Row) []Row {
	seen := map[string]bool{}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		key := rowKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func rowKey(r Row) string {
	// Column sets are uniform after projection, but map iteration order
	// isn't; sort keys so equal rows produce equal strings.
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := ""
	for _, k := range keys {
		key += k + "=" + r[k].String() + "|"
	}
	return key
}
