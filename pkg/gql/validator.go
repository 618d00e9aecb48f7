package gql

import "fmt"

// ValidationError reports a semantic problem found after parsing: a
// reference to a variable that nothing in scope binds. It is the only kind
// of error Validate produces.
type ValidationError struct {
	Pos Position
	Msg string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// aggregateNames are the function names the planner treats as row-folding
// aggregates rather than per-row scalar functions.
var aggregateNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"COLLECT": true,
}

// Validate walks a parsed Statement and reports the first semantic error
// found: a reference to a variable no pattern or WITH/UNWIND binds.
// Aggregate and non-aggregate items in one RETURN/WITH projection are not
// checked against each other; any mix of them passes validation.
func Validate(stmt Statement) error {
	v := &validator{bound: map[string]bool{}}
	return v.statement(stmt)
}

type validator struct {
	bound map[string]bool
}

func (v *validator) bind(name string) {
	if name != "" {
		v.bound[name] = true
	}
}

func (v *validator) bindMatches(matches []*MatchClause) error {
	for _, mc := range matches {
		for _, path := range mc.Paths {
			for _, n := range path.Nodes() {
				v.bind(n.Var)
				if n.Properties != nil {
					if err := v.exprsInMap(n.Properties); err != nil {
						return err
					}
				}
			}
			for _, e := range path.Edges() {
				v.bind(e.Var)
				if e.Properties != nil {
					if err := v.exprsInMap(e.Properties); err != nil {
						return err
					}
				}
			}
		}
		if mc.Optional {
			// An optional clause's variables are bound (possibly to Null)
			// in every downstream row, same as a required one.
			continue
		}
	}
	return nil
}

func (v *validator) exprsInMap(pm *PropertyMap) error {
	for _, e := range pm.Entries {
		if err := v.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) statement(stmt Statement) error {
	switch s := stmt.(type) {
	case *BasicQuery:
		return v.basicQuery(s)
	case *InsertStatement:
		return v.insertPaths(s.Paths)
	case *SetStatement:
		return v.setItems(s.Items)
	case *DeleteStatement:
		for _, e := range s.Exprs {
			if err := v.expr(e); err != nil {
				return err
			}
		}
		return nil
	case *RemoveStatement:
		for _, it := range s.Items {
			if !v.bound[it.Var] {
				return &ValidationError{Pos: s.Pos(), Msg: fmt.Sprintf("REMOVE references unbound variable %q", it.Var)}
			}
		}
		return nil
	case *MatchInsertStatement:
		if err := v.bindMatches(s.Match); err != nil {
			return err
		}
		if s.Where != nil {
			if err := v.expr(s.Where); err != nil {
				return err
			}
		}
		return v.insertPaths(s.Insert.Paths)
	case *MatchSetStatement:
		if err := v.bindMatches(s.Match); err != nil {
			return err
		}
		if s.Where != nil {
			if err := v.expr(s.Where); err != nil {
				return err
			}
		}
		return v.setItems(s.Set.Items)
	case *MatchDeleteStatement:
		if err := v.bindMatches(s.Match); err != nil {
			return err
		}
		if s.Where != nil {
			if err := v.expr(s.Where); err != nil {
				return err
			}
		}
		for _, e := range s.Delete.Exprs {
			if err := v.expr(e); err != nil {
				return err
			}
		}
		return nil
	case *MatchRemoveStatement:
		if err := v.bindMatches(s.Match); err != nil {
			return err
		}
		if s.Where != nil {
			if err := v.expr(s.Where); err != nil {
				return err
			}
		}
		for _, it := range s.Remove.Items {
			if !v.bound[it.Var] {
				return &ValidationError{Pos: s.Pos(), Msg: fmt.Sprintf("REMOVE references unbound variable %q", it.Var)}
			}
		}
		return nil
	case *DDLStatement, *TransactionStatement, *SessionStatement:
		return nil // no pattern-bound variables to check
	}
	return nil
}

func (v *validator) insertPaths(paths []*PatternPath) error {
	for _, path := range paths {
		for _, n := range path.Nodes() {
			v.bind(n.Var)
			if n.Properties != nil {
				if err := v.exprsInMap(n.Properties); err != nil {
					return err
				}
			}
		}
		for _, e := range path.Edges() {
			v.bind(e.Var)
			if e.Properties != nil {
				if err := v.exprsInMap(e.Properties); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (v *validator) setItems(items []SetItem) error {
	for _, it := range items {
		if !v.bound[it.Var] {
			return &ValidationError{Msg: fmt.Sprintf("SET references unbound variable %q", it.Var)}
		}
		if it.Value != nil {
			if err := v.expr(it.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) basicQuery(bq *BasicQuery) error {
	if err := v.bindMatches(bq.Match); err != nil {
		return err
	}
	if bq.Where != nil {
		if err := v.expr(bq.Where); err != nil {
			return err
		}
	}
	if bq.Unwind != nil {
		if err := v.expr(bq.Unwind.List); err != nil {
			return err
		}
		v.bind(bq.Unwind.Alias)
	}
	if bq.With != nil {
		if err := v.projection(bq.With.Items, bq.With.Pos_); err != nil {
			return err
		}
		if bq.With.Where != nil {
			if err := v.expr(bq.With.Where); err != nil {
				return err
			}
		}
		for _, o := range bq.With.OrderBy {
			if err := v.expr(o.Expr); err != nil {
				return err
			}
		}
		// WITH re-scopes bindings to its own projection aliases.
		next := map[string]bool{}
		for _, it := range bq.With.Items {
			name := it.Alias
			if name == "" {
				if vr, ok := it.Expr.(*Variable); ok {
					name = vr.Name
				}
			}
			if name != "" {
				next[name] = true
			}
		}
		v.bound = next
	}
	if bq.Return != nil {
		if err := v.projection(bq.Return.Items, bq.Return.Pos_); err != nil {
			return err
		}
		for _, o := range bq.Return.OrderBy {
			if err := v.expr(o.Expr); err != nil {
				return err
			}
		}
	}
	return nil
}

// projection checks every item's expression for unbound variable
// references. It does not reject any mix of aggregate and non-aggregate
// items.
func (v *validator) projection(items []ProjectionItem, pos Position) error {
	for _, it := range items {
		if err := v.expr(it.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) expr(e Expr) error {
	switch ex := e.(type) {
	case *Literal, *ParameterRef:
		return nil
	case *ListLiteral:
		for _, item := range ex.Items {
			if err := v.expr(item); err != nil {
				return err
			}
		}
		return nil
	case *Variable:
		if ex.Name == "*" {
			return nil // COUNT(*)
		}
		if !v.bound[ex.Name] {
			return &ValidationError{Pos: ex.Pos(), Msg: fmt.Sprintf("reference to unbound variable %q", ex.Name)}
		}
		return nil
	case *PropertyAccess:
		if !v.bound[ex.Var] {
			return &ValidationError{Pos: ex.Pos(), Msg: fmt.Sprintf("reference to unbound variable %q", ex.Var)}
		}
		return nil
	case *LabelCheck:
		if !v.bound[ex.Var] {
			return &ValidationError{Pos: ex.Pos(), Msg: fmt.Sprintf("reference to unbound variable %q", ex.Var)}
		}
		return nil
	case *BinaryOp:
		if err := v.expr(ex.Left); err != nil {
			return err
		}
		return v.expr(ex.Right)
	case *UnaryOp:
		return v.expr(ex.Operand)
	case *IsNullCheck:
		return v.expr(ex.Operand)
	case *ListIndex:
		if err := v.expr(ex.List); err != nil {
			return err
		}
		return v.expr(ex.Index)
	case *FunctionCall:
		if ex.Name != "" && !aggregateNames[ex.Name] {
			// scalar/user function: fall through to validating args below
		}
		for _, a := range ex.Args {
			if err := v.expr(a); err != nil {
				return err
			}
		}
		return nil
	case *CaseExpr:
		if ex.Subject != nil {
			if err := v.expr(ex.Subject); err != nil {
				return err
			}
		}
		for _, w := range ex.Whens {
			if err := v.expr(w.Cond); err != nil {
				return err
			}
			if err := v.expr(w.Then); err != nil {
				return err
			}
		}
		if ex.Else != nil {
			return v.expr(ex.Else)
		}
		return nil
	case *PropertyMap:
		return v.exprsInMap(ex)
	}
	return nil
}
