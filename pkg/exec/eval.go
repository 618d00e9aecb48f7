package exec

import (
	"fmt"
	"strings"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// EvalError reports a failure evaluating a scalar expression against a row.
type EvalError struct {
	Pos gql.Position
	Msg string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

func evalErr(e gql.Expr, format string, args ...interface{}) error {
	return &EvalError{Pos: e.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// Eval computes the value of e against row, resolving $name parameters
// against params. Missing properties evaluate to Null rather than erroring;
// everything else that cannot be computed (an unbound variable, a call to
// an unknown function, a type mismatch in arithmetic) is an error, since
// the validator should have already ruled out unbound variables.
func Eval(e gql.Expr, row Row, params map[string]storage.Value) (storage.Value, error) {
	switch ex := e.(type) {
	case *gql.Literal:
		return evalLiteral(ex), nil
	case *gql.ListLiteral:
		items := make([]storage.Value, len(ex.Items))
		for i, it := range ex.Items {
			v, err := Eval(it, row, params)
			if err != nil {
				return storage.Value{}, err
			}
			items[i] = v
		}
		return storage.ListValue(items), nil
	case *gql.ParameterRef:
		if v, ok := params[ex.Name]; ok {
			return v, nil
		}
		return storage.NullValue(), nil
	case *gql.Variable:
		if ex.Name == "*" {
			return storage.NullValue(), nil
		}
		v, ok := row[ex.Name]
		if !ok {
			return storage.Value{}, evalErr(e, "unbound variable %q", ex.Name)
		}
		return v, nil
	case *gql.PropertyAccess:
		v, ok := row[ex.Var]
		if !ok {
			return storage.Value{}, evalErr(e, "unbound variable %q", ex.Var)
		}
		return propertyOf(v, ex.Prop), nil
	case *gql.LabelCheck:
		v, ok := row[ex.Var]
		if !ok {
			return storage.Value{}, evalErr(e, "unbound variable %q", ex.Var)
		}
		if v.Kind != storage.KindNode || v.Node == nil {
			return storage.BooleanValue(false), nil
		}
		return storage.BooleanValue(v.Node.HasLabel(ex.Label)), nil
	case *gql.BinaryOp:
		return evalBinary(ex, row, params)
	case *gql.UnaryOp:
		return evalUnary(ex, row, params)
	case *gql.IsNullCheck:
		v, err := Eval(ex.Operand, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		result := v.IsNull()
		if ex.Negated {
			result = !result
		}
		return storage.BooleanValue(result), nil
	case *gql.ListIndex:
		listVal, err := Eval(ex.List, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		idxVal, err := Eval(ex.Index, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if listVal.IsNull() || idxVal.IsNull() {
			return storage.NullValue(), nil
		}
		if listVal.Kind != storage.KindList {
			return storage.Value{}, evalErr(e, "cannot index a %v", listVal.Kind)
		}
		i := int(idxVal.Num)
		if i < 0 {
			i += len(listVal.List)
		}
		if i < 0 || i >= len(listVal.List) {
			return storage.NullValue(), nil
		}
		return listVal.List[i], nil
	case *gql.FunctionCall:
		return evalFunction(ex, row, params)
	case *gql.CaseExpr:
		return evalCase(ex, row, params)
	case *gql.PropertyMap:
		props := make(map[string]storage.Value, len(ex.Order))
		for _, k := range ex.Order {
			v, err := Eval(ex.Entries[k], row, params)
			if err != nil {
				return storage.Value{}, err
			}
			props[k] = v
		}
		return mapAsValue(props), nil
	}
	return storage.Value{}, evalErr(e, "unsupported expression %T", e)
}

func evalLiteral(l *gql.Literal) storage.Value {
	switch l.Kind {
	case gql.LitString:
		return storage.StringValue(l.Str)
	case gql.LitNumber:
		return storage.NumberValue(l.Num)
	case gql.LitBoolean:
		return storage.BooleanValue(l.Bool)
	default:
		return storage.NullValue()
	}
}

// propertyOf reads a named property off a node or edge value, or falls back
// to a handful of structural pseudo-properties (id). A missing property is
// Null, never an error.
func propertyOf(v storage.Value, prop string) storage.Value {
	switch v.Kind {
	case storage.KindNode:
		if v.Node == nil {
			return storage.NullValue()
		}
		if prop == "id" {
			return storage.StringValue(string(v.Node.ID))
		}
		if pv, ok := v.Node.Properties[prop]; ok {
			return pv
		}
		return storage.NullValue()
	case storage.KindEdge:
		if v.Edge == nil {
			return storage.NullValue()
		}
		if prop == "id" {
			return storage.StringValue(string(v.Edge.ID))
		}
		if pv, ok := v.Edge.Properties[prop]; ok {
			return pv
		}
		return storage.NullValue()
	}
	return storage.NullValue()
}

// mapAsValue stores a literal property map as a List of key/value pairs
// encoded as two-element Lists, since Value has no dedicated map kind; this
// is only reachable when a PropertyMap is evaluated directly as an
// expression value (e.g. a RETURN item), not when attached to a pattern.
func mapAsValue(props map[string]storage.Value) storage.Value {
	items := make([]storage.Value, 0, len(props))
	for k, v := range props {
		items = append(items, storage.ListValue([]storage.Value{storage.StringValue(k), v}))
	}
	return storage.ListValue(items)
}

func truthy(v storage.Value) bool {
	return v.Kind == storage.KindBoolean && v.Bool
}

func evalUnary(ex *gql.UnaryOp, row Row, params map[string]storage.Value) (storage.Value, error) {
	v, err := Eval(ex.Operand, row, params)
	if err != nil {
		return storage.Value{}, err
	}
	switch ex.Op {
	case "NOT":
		if v.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(!truthy(v)), nil
	case "-":
		if v.IsNull() {
			return storage.NullValue(), nil
		}
		if v.Kind != storage.KindNumber {
			return storage.Value{}, evalErr(ex, "cannot negate a %v", v.Kind)
		}
		return storage.NumberValue(-v.Num), nil
	}
	return storage.Value{}, evalErr(ex, "unknown unary operator %q", ex.Op)
}

func evalBinary(ex *gql.BinaryOp, row Row, params map[string]storage.Value) (storage.Value, error) {
	switch ex.Op {
	case "AND":
		l, err := Eval(ex.Left, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if !l.IsNull() && !truthy(l) {
			return storage.BooleanValue(false), nil
		}
		r, err := Eval(ex.Right, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if !r.IsNull() && !truthy(r) {
			return storage.BooleanValue(false), nil
		}
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(true), nil
	case "OR":
		l, err := Eval(ex.Left, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if truthy(l) {
			return storage.BooleanValue(true), nil
		}
		r, err := Eval(ex.Right, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if truthy(r) {
			return storage.BooleanValue(true), nil
		}
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(false), nil
	case "XOR":
		l, err := Eval(ex.Left, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		r, err := Eval(ex.Right, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(truthy(l) != truthy(r)), nil
	}

	l, err := Eval(ex.Left, row, params)
	if err != nil {
		return storage.Value{}, err
	}
	r, err := Eval(ex.Right, row, params)
	if err != nil {
		return storage.Value{}, err
	}

	switch ex.Op {
	case "=":
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(l.Equal(r)), nil
	case "<>":
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		return storage.BooleanValue(!l.Equal(r)), nil
	case "<", ">", "<=", ">=":
		return compareOrdered(ex, l, r)
	case "+", "-", "*", "/", "%", "^":
		return arith(ex, l, r)
	case "IN":
		if l.IsNull() || r.IsNull() {
			return storage.NullValue(), nil
		}
		if r.Kind != storage.KindList {
			return storage.Value{}, evalErr(ex, "IN requires a list on the right")
		}
		for _, item := range r.List {
			if l.Equal(item) {
				return storage.BooleanValue(true), nil
			}
		}
		return storage.BooleanValue(false), nil
	case "CONTAINS":
		return stringPredicate(ex, l, r, strings.Contains)
	case "STARTS WITH":
		return stringPredicate(ex, l, r, strings.HasPrefix)
	case "ENDS WITH":
		return stringPredicate(ex, l, r, strings.HasSuffix)
	}
	return storage.Value{}, evalErr(ex, "unknown binary operator %q", ex.Op)
}

func stringPredicate(ex *gql.BinaryOp, l, r storage.Value, pred func(s, substr string) bool) (storage.Value, error) {
	if l.IsNull() || r.IsNull() {
		return storage.NullValue(), nil
	}
	if l.Kind != storage.KindString || r.Kind != storage.KindString {
		return storage.Value{}, evalErr(ex, "%s requires strings", ex.Op)
	}
	return storage.BooleanValue(pred(l.Str, r.Str)), nil
}

func compareOrdered(ex *gql.BinaryOp, l, r storage.Value) (storage.Value, error) {
	if l.IsNull() || r.IsNull() {
		return storage.NullValue(), nil
	}
	var cmp int
	switch {
	case l.Kind == storage.KindNumber && r.Kind == storage.KindNumber:
		cmp = cmpFloat(l.Num, r.Num)
	case l.Kind == storage.KindString && r.Kind == storage.KindString:
		cmp = strings.Compare(l.Str, r.Str)
	default:
		return storage.Value{}, evalErr(ex, "cannot compare %v and %v", l.Kind, r.Kind)
	}
	switch ex.Op {
	case "<":
		return storage.BooleanValue(cmp < 0), nil
	case ">":
		return storage.BooleanValue(cmp > 0), nil
	case "<=":
		return storage.BooleanValue(cmp <= 0), nil
	case ">=":
		return storage.BooleanValue(cmp >= 0), nil
	}
	return storage.Value{}, evalErr(ex, "unreachable comparison operator %q", ex.Op)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func arith(ex *gql.BinaryOp, l, r storage.Value) (storage.Value, error) {
	if ex.Op == "+" && l.Kind == storage.KindString && r.Kind == storage.KindString {
		return storage.StringValue(l.Str + r.Str), nil
	}
	if ex.Op == "+" && l.Kind == storage.KindList && r.Kind == storage.KindList {
		out := make([]storage.Value, 0, len(l.List)+len(r.List))
		out = append(out, l.List...)
		out = append(out, r.List...)
		return storage.ListValue(out), nil
	}
	if l.IsNull() || r.IsNull() {
		return storage.NullValue(), nil
	}
	if l.Kind != storage.KindNumber || r.Kind != storage.KindNumber {
		return storage.Value{}, evalErr(ex, "%s requires numbers, got %v and %v", ex.Op, l.Kind, r.Kind)
	}
	switch ex.Op {
	case "+":
		return storage.NumberValue(l.Num + r.Num), nil
	case "-":
		return storage.NumberValue(l.Num - r.Num), nil
	case "*":
		return storage.NumberValue(l.Num * r.Num), nil
	case "/":
		if r.Num == 0 {
			return storage.Value{}, evalErr(ex, "division by zero")
		}
		return storage.NumberValue(l.Num / r.Num), nil
	case "%":
		if r.Num == 0 {
			return storage.Value{}, evalErr(ex, "division by zero")
		}
		return storage.NumberValue(float64(int64(l.Num) % int64(r.Num))), nil
	case "^":
		return storage.NumberValue(powFloat(l.Num, r.Num)), nil
	}
	return storage.Value{}, evalErr(ex, "unreachable arithmetic operator %q", ex.Op)
}

func evalCase(ex *gql.CaseExpr, row Row, params map[string]storage.Value) (storage.Value, error) {
	var subject storage.Value
	hasSubject := ex.Subject != nil
	if hasSubject {
		v, err := Eval(ex.Subject, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		subject = v
	}
	for _, when := range ex.Whens {
		if hasSubject {
			cv, err := Eval(when.Cond, row, params)
			if err != nil {
				return storage.Value{}, err
			}
			if !subject.Equal(cv) {
				continue
			}
		} else {
			cv, err := Eval(when.Cond, row, params)
			if err != nil {
				return storage.Value{}, err
			}
			if !truthy(cv) {
				continue
			}
		}
		return Eval(when.Then, row, params)
	}
	if ex.Else != nil {
		return Eval(ex.Else, row, params)
	}
	return storage.NullValue(), nil
}
