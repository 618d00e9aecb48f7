package exec

import (
	"fmt"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/plan"
	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// ModContext carries everything a data-modification statement needs beyond
// its own AST: the graph it mutates, session parameters, the graph's path
// (stamped onto every UndoOperation so a crash-recovery replay knows which
// cache to apply it to), and the index catalog the planner consults for any
// MATCH prefix.
type ModContext struct {
	Cache     *storage.GraphCache
	Params    map[string]storage.Value
	GraphPath string
	Catalog   plan.IndexCatalog
}

// ExecuteDataStatement runs one insert/set/delete/remove statement (bare or
// MATCH-qualified) to completion, returning a single UndoOperation — via
// txn.Collapse — that reverses every change it made, plus the count of
// entities it touched.
//
// Mutation always happens under the cache's exclusive lock; any MATCH
// prefix is planned and executed first, under whatever locking Execute
// itself takes, so the two phases never nest a write lock inside a read
// lock.
func ExecuteDataStatement(stmt gql.Statement, ctx *ModContext) (txn.UndoOperation, int, error) {
	switch s := stmt.(type) {
	case *gql.InsertStatement:
		return execInsertRows(s.Paths, []Row{{}}, ctx)
	case *gql.SetStatement:
		return execSetRows(s.Items, []Row{{}}, ctx)
	case *gql.DeleteStatement:
		return execDeleteRows(s.Exprs, s.Detach, []Row{{}}, ctx)
	case *gql.RemoveStatement:
		return execRemoveRows(s.Items, []Row{{}}, ctx)
	case *gql.MatchInsertStatement:
		rows, err := matchBindings(s.Match, s.Where, ctx)
		if err != nil {
			return txn.NoOp, 0, err
		}
		return execInsertRows(s.Insert.Paths, rows, ctx)
	case *gql.MatchSetStatement:
		rows, err := matchBindings(s.Match, s.Where, ctx)
		if err != nil {
			return txn.NoOp, 0, err
		}
		return execSetRows(s.Set.Items, rows, ctx)
	case *gql.MatchDeleteStatement:
		rows, err := matchBindings(s.Match, s.Where, ctx)
		if err != nil {
			return txn.NoOp, 0, err
		}
		return execDeleteRows(s.Delete.Exprs, s.Delete.Detach, rows, ctx)
	case *gql.MatchRemoveStatement:
		rows, err := matchBindings(s.Match, s.Where, ctx)
		if err != nil {
			return txn.NoOp, 0, err
		}
		return execRemoveRows(s.Remove.Items, rows, ctx)
	}
	return txn.NoOp, 0, fmt.Errorf("not a data-modification statement: %T", stmt)
}

func matchBindings(matches []*gql.MatchClause, where gql.Expr, ctx *ModContext) ([]Row, error) {
	lp := plan.Plan(&gql.BasicQuery{Match: matches, Where: where})
	if lp == nil {
		return []Row{{}}, nil
	}
	idx := ctx.Catalog
	if idx == nil {
		idx = plan.NoIndexes
	}
	pp := plan.Build(lp, idx)
	return Execute(pp.Root, ctx.Cache, ctx.Params)
}

func execInsertRows(paths []*gql.PatternPath, rows []Row, ctx *ModContext) (txn.UndoOperation, int, error) {
	ctx.Cache.Lock()
	defer ctx.Cache.Unlock()

	var ops []txn.UndoOperation
	for _, row := range rows {
		for _, path := range paths {
			pathOps, err := insertPath(path, row, ctx)
			ops = append(ops, pathOps...)
			if err != nil {
				return txn.Collapse(ctx.GraphPath, ops), len(ops), err
			}
		}
	}
	return txn.Collapse(ctx.GraphPath, ops), len(ops), nil
}

// insertPath creates the nodes/edges a single pattern path describes,
// reusing an already-bound variable (one a MATCH prefix supplied) rather
// than creating a new entity for it.
func insertPath(path *gql.PatternPath, row Row, ctx *ModContext) ([]txn.UndoOperation, error) {
	var ops []txn.UndoOperation
	elems := path.Elements
	fromID, fromOps, err := resolveOrCreateNode(elems[0].Node, row, ctx)
	ops = append(ops, fromOps...)
	if err != nil {
		return ops, err
	}

	for i := 1; i < len(elems); i += 2 {
		edge := elems[i].Edge
		toID, toOps, err := resolveOrCreateNode(elems[i+1].Node, row, ctx)
		ops = append(ops, toOps...)
		if err != nil {
			return ops, err
		}

		edgeFrom, edgeTo := fromID, toID
		if edge.Direction == gql.DirIn {
			edgeFrom, edgeTo = toID, fromID
		}
		label := ""
		if len(edge.Labels) > 0 {
			label = edge.Labels[0]
		}
		props, err := evalPropertyMap(edge.Properties, row, ctx.Params)
		if err != nil {
			return ops, err
		}
		eid := newEdgeID()
		e := &storage.Edge{ID: eid, FromNode: edgeFrom, ToNode: edgeTo, Label: label, Properties: props}
		if err := ctx.Cache.PutEdge(e); err != nil {
			return ops, err
		}
		if edge.Var != "" {
			row[edge.Var] = storage.EdgeValue(e)
		}
		ops = append(ops, txn.InsertEdgeOp(ctx.GraphPath, eid))
		fromID = toID
	}
	return ops, nil
}

func resolveOrCreateNode(np *gql.NodePattern, row Row, ctx *ModContext) (storage.NodeID, []txn.UndoOperation, error) {
	if np.Var != "" {
		if existing, ok := row[np.Var]; ok && existing.Kind == storage.KindNode && existing.Node != nil {
			return existing.Node.ID, nil, nil
		}
	}
	props, err := evalPropertyMap(np.Properties, row, ctx.Params)
	if err != nil {
		return "", nil, err
	}
	id := newNodeID()
	n := &storage.Node{ID: id, Labels: append([]string{}, np.Labels...), Properties: props}
	ctx.Cache.PutNode(n)
	if np.Var != "" {
		row[np.Var] = storage.NodeValue(n)
	}
	return id, []txn.UndoOperation{txn.InsertNodeOp(ctx.GraphPath, id)}, nil
}

func evalPropertyMap(pm *gql.PropertyMap, row Row, params map[string]storage.Value) (map[string]storage.Value, error) {
	if pm == nil {
		return map[string]storage.Value{}, nil
	}
	out := make(map[string]storage.Value, len(pm.Order))
	for _, k := range pm.Order {
		v, err := Eval(pm.Entries[k], row, params)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func execSetRows(items []gql.SetItem, rows []Row, ctx *ModContext) (txn.UndoOperation, int, error) {
	ctx.Cache.Lock()
	defer ctx.Cache.Unlock()

	var ops []txn.UndoOperation
	for _, row := range rows {
		for _, item := range items {
			op, err := applySetItem(item, row, ctx)
			if err != nil {
				return txn.Collapse(ctx.GraphPath, ops), len(ops), err
			}
			if op != nil {
				ops = append(ops, *op)
			}
		}
	}
	return txn.Collapse(ctx.GraphPath, ops), len(ops), nil
}

func applySetItem(item gql.SetItem, row Row, ctx *ModContext) (*txn.UndoOperation, error) {
	bound, ok := row[item.Var]
	if !ok {
		return nil, nil
	}
	switch bound.Kind {
	case storage.KindNode:
		n := bound.Node
		oldProps := cloneValues(n.Properties)
		oldLabels := append([]string{}, n.Labels...)
		changed, err := applyNodeSet(item, n, row, ctx.Params)
		if err != nil || !changed {
			return nil, err
		}
		ctx.Cache.PutNode(n)
		op := txn.UpdateNodeOp(ctx.GraphPath, n.ID, oldProps, oldLabels)
		return &op, nil
	case storage.KindEdge:
		e := bound.Edge
		if item.Prop == "" {
			return nil, nil
		}
		oldProps := cloneValues(e.Properties)
		v, err := Eval(item.Value, row, ctx.Params)
		if err != nil {
			return nil, err
		}
		if e.Properties == nil {
			e.Properties = map[string]storage.Value{}
		}
		e.Properties[item.Prop] = v
		if err := ctx.Cache.PutEdge(e); err != nil {
			return nil, err
		}
		op := txn.UpdateEdgeOp(ctx.GraphPath, e.ID, oldProps)
		return &op, nil
	}
	return nil, nil
}

func applyNodeSet(item gql.SetItem, n *storage.Node, row Row, params map[string]storage.Value) (bool, error) {
	switch {
	case item.Prop != "":
		v, err := Eval(item.Value, row, params)
		if err != nil {
			return false, err
		}
		if n.Properties == nil {
			n.Properties = map[string]storage.Value{}
		}
		n.Properties[item.Prop] = v
		return true, nil
	case item.AddLabel != "":
		if n.HasLabel(item.AddLabel) {
			return false, nil
		}
		n.Labels = append(n.Labels, item.AddLabel)
		return true, nil
	case item.Value != nil:
		pm, ok := item.Value.(*gql.PropertyMap)
		if !ok {
			return false, fmt.Errorf("SET %s = ... requires a property map literal", item.Var)
		}
		props, err := evalPropertyMap(pm, row, params)
		if err != nil {
			return false, err
		}
		n.Properties = props
		return true, nil
	}
	return false, nil
}

func execRemoveRows(items []gql.RemoveItem, rows []Row, ctx *ModContext) (txn.UndoOperation, int, error) {
	ctx.Cache.Lock()
	defer ctx.Cache.Unlock()

	var ops []txn.UndoOperation
	for _, row := range rows {
		for _, item := range items {
			op, err := applyRemoveItem(item, row, ctx)
			if err != nil {
				return txn.Collapse(ctx.GraphPath, ops), len(ops), err
			}
			if op != nil {
				ops = append(ops, *op)
			}
		}
	}
	return txn.Collapse(ctx.GraphPath, ops), len(ops), nil
}

func applyRemoveItem(item gql.RemoveItem, row Row, ctx *ModContext) (*txn.UndoOperation, error) {
	bound, ok := row[item.Var]
	if !ok {
		return nil, nil
	}
	switch bound.Kind {
	case storage.KindNode:
		n := bound.Node
		oldProps := cloneValues(n.Properties)
		oldLabels := append([]string{}, n.Labels...)
		changed := false
		switch {
		case item.Prop != "":
			if _, ok := n.Properties[item.Prop]; ok {
				delete(n.Properties, item.Prop)
				changed = true
			}
		case item.RemoveLabel != "":
			for i, l := range n.Labels {
				if l == item.RemoveLabel {
					n.Labels = append(n.Labels[:i], n.Labels[i+1:]...)
					changed = true
					break
				}
			}
		}
		if !changed {
			return nil, nil
		}
		ctx.Cache.PutNode(n)
		op := txn.UpdateNodeOp(ctx.GraphPath, n.ID, oldProps, oldLabels)
		return &op, nil
	case storage.KindEdge:
		e := bound.Edge
		if item.Prop == "" {
			return nil, nil
		}
		if _, ok := e.Properties[item.Prop]; !ok {
			return nil, nil
		}
		oldProps := cloneValues(e.Properties)
		delete(e.Properties, item.Prop)
		if err := ctx.Cache.PutEdge(e); err != nil {
			return nil, err
		}
		op := txn.UpdateEdgeOp(ctx.GraphPath, e.ID, oldProps)
		return &op, nil
	}
	return nil, nil
}

func execDeleteRows(exprs []gql.Expr, detach bool, rows []Row, ctx *ModContext) (txn.UndoOperation, int, error) {
	ctx.Cache.Lock()
	defer ctx.Cache.Unlock()

	var ops []txn.UndoOperation
	for _, row := range rows {
		for _, e := range exprs {
			v, err := Eval(e, row, ctx.Params)
			if err != nil {
				return txn.Collapse(ctx.GraphPath, ops), len(ops), err
			}
			switch v.Kind {
			case storage.KindNode:
				if v.Node == nil {
					continue
				}
				removed, err := ctx.Cache.DeleteNode(v.Node.ID, detach)
				if err != nil {
					return txn.Collapse(ctx.GraphPath, ops), len(ops), err
				}
				for _, re := range removed {
					ops = append(ops, txn.DeleteEdgeOp(ctx.GraphPath, re))
				}
				ops = append(ops, txn.DeleteNodeOp(ctx.GraphPath, v.Node))
			case storage.KindEdge:
				if v.Edge == nil {
					continue
				}
				if removed := ctx.Cache.DeleteEdge(v.Edge.ID); removed != nil {
					ops = append(ops, txn.DeleteEdgeOp(ctx.GraphPath, removed))
				}
			}
		}
	}
	return txn.Collapse(ctx.GraphPath, ops), len(ops), nil
}

func cloneValues(m map[string]storage.Value) map[string]storage.Value {
	out := make(map[string]storage.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
