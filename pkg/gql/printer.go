package gql

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a Statement back to GQL text. Print is the inverse of
// Parse modulo whitespace and literal spelling (numbers are rendered
// canonically, strings always double-quoted): re-parsing the output
// produces an AST equal to the input up to source position.
func Print(stmt Statement) string {
	var sb strings.Builder
	printStatement(&sb, stmt)
	return sb.String()
}

// PrintExpr renders a single expression the same way Print renders a
// statement's expressions, for callers (e.g. the executor, deriving a
// default projection column name) that need expression text without a
// surrounding statement.
func PrintExpr(e Expr) string {
	var sb strings.Builder
	printExpr(&sb, e)
	return sb.String()
}

func printStatement(sb *strings.Builder, stmt Statement) {
	switch s := stmt.(type) {
	case *BasicQuery:
		printBasicQuery(sb, s)
	case *InsertStatement:
		sb.WriteString("INSERT ")
		printPaths(sb, s.Paths)
	case *SetStatement:
		sb.WriteString("SET ")
		printSetItems(sb, s.Items)
	case *DeleteStatement:
		if s.Detach {
			sb.WriteString("DETACH ")
		}
		sb.WriteString("DELETE ")
		printExprList(sb, s.Exprs)
	case *RemoveStatement:
		sb.WriteString("REMOVE ")
		printRemoveItems(sb, s.Items)
	case *MatchInsertStatement:
		printMatchPrefix(sb, s.Match, s.Where)
		sb.WriteString("INSERT ")
		printPaths(sb, s.Insert.Paths)
	case *MatchSetStatement:
		printMatchPrefix(sb, s.Match, s.Where)
		sb.WriteString("SET ")
		printSetItems(sb, s.Set.Items)
	case *MatchDeleteStatement:
		printMatchPrefix(sb, s.Match, s.Where)
		if s.Delete.Detach {
			sb.WriteString("DETACH ")
		}
		sb.WriteString("DELETE ")
		printExprList(sb, s.Delete.Exprs)
	case *MatchRemoveStatement:
		printMatchPrefix(sb, s.Match, s.Where)
		sb.WriteString("REMOVE ")
		printRemoveItems(sb, s.Remove.Items)
	case *DDLStatement:
		printDDL(sb, s)
	case *TransactionStatement:
		printTransaction(sb, s)
	case *SessionStatement:
		printSession(sb, s)
	default:
		sb.WriteString(fmt.Sprintf("/* unprintable statement %T */", stmt))
	}
}

func printMatchPrefix(sb *strings.Builder, matches []*MatchClause, where Expr) {
	for i, mc := range matches {
		if i > 0 {
			sb.WriteString(" ")
		}
		printMatchClause(sb, mc)
	}
	if len(matches) > 0 {
		sb.WriteString(" ")
	}
	if where != nil {
		sb.WriteString("WHERE ")
		printExpr(sb, where)
		sb.WriteString(" ")
	}
}

func printMatchClause(sb *strings.Builder, mc *MatchClause) {
	if mc.Optional {
		sb.WriteString("OPTIONAL MATCH ")
	} else {
		sb.WriteString("MATCH ")
	}
	printPaths(sb, mc.Paths)
}

func printBasicQuery(sb *strings.Builder, bq *BasicQuery) {
	parts := 0
	for _, mc := range bq.Match {
		if parts > 0 {
			sb.WriteString(" ")
		}
		printMatchClause(sb, mc)
		parts++
	}
	if bq.Where != nil {
		if parts > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("WHERE ")
		printExpr(sb, bq.Where)
		parts++
	}
	if bq.Unwind != nil {
		if parts > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("UNWIND ")
		printExpr(sb, bq.Unwind.List)
		sb.WriteString(" AS ")
		sb.WriteString(bq.Unwind.Alias)
		parts++
	}
	if bq.With != nil {
		if parts > 0 {
			sb.WriteString(" ")
		}
		printWith(sb, bq.With)
		parts++
	}
	if bq.Return != nil {
		if parts > 0 {
			sb.WriteString(" ")
		}
		printReturn(sb, bq.Return)
		parts++
	}
}

func printWith(sb *strings.Builder, wc *WithClause) {
	sb.WriteString("WITH ")
	if wc.Distinct {
		sb.WriteString("DISTINCT ")
	}
	printProjection(sb, wc.Items)
	if wc.Where != nil {
		sb.WriteString(" WHERE ")
		printExpr(sb, wc.Where)
	}
	printOrderSkipLimit(sb, wc.OrderBy, wc.Skip, wc.Limit)
}

func printReturn(sb *strings.Builder, rc *ReturnClause) {
	sb.WriteString("RETURN ")
	if rc.Distinct {
		sb.WriteString("DISTINCT ")
	}
	printProjection(sb, rc.Items)
	printOrderSkipLimit(sb, rc.OrderBy, rc.Skip, rc.Limit)
}

func printProjection(sb *strings.Builder, items []ProjectionItem) {
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		printExpr(sb, it.Expr)
		if it.Alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(it.Alias)
		}
	}
}

func printOrderSkipLimit(sb *strings.Builder, order []OrderItem, skip, limit Expr) {
	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range order {
			if i > 0 {
				sb.WriteString(", ")
			}
			printExpr(sb, o.Expr)
			if o.Descending {
				sb.WriteString(" DESC")
			}
		}
	}
	if skip != nil {
		sb.WriteString(" SKIP ")
		printExpr(sb, skip)
	}
	if limit != nil {
		sb.WriteString(" LIMIT ")
		printExpr(sb, limit)
	}
}

func printPaths(sb *strings.Builder, paths []*PatternPath) {
	for i, path := range paths {
		if i > 0 {
			sb.WriteString(", ")
		}
		for _, el := range path.Elements {
			if el.Node != nil {
				printNodePattern(sb, el.Node)
			} else {
				printEdgePattern(sb, el.Edge)
			}
		}
	}
}

func printNodePattern(sb *strings.Builder, n *NodePattern) {
	sb.WriteString("(")
	sb.WriteString(n.Var)
	for _, l := range n.Labels {
		sb.WriteString(":")
		sb.WriteString(l)
	}
	if n.Properties != nil {
		sb.WriteString(" ")
		printPropertyMap(sb, n.Properties)
	}
	sb.WriteString(")")
}

func printEdgePattern(sb *strings.Builder, e *EdgePattern) {
	if e.Direction == DirIn {
		sb.WriteString("<-")
	} else {
		sb.WriteString("-")
	}
	if e.Var != "" || len(e.Labels) > 0 || e.Properties != nil {
		sb.WriteString("[")
		sb.WriteString(e.Var)
		for i, l := range e.Labels {
			if i == 0 {
				sb.WriteString(":")
			} else {
				sb.WriteString("|")
			}
			sb.WriteString(l)
		}
		if e.Properties != nil {
			sb.WriteString(" ")
			printPropertyMap(sb, e.Properties)
		}
		sb.WriteString("]")
	}
	if e.Direction == DirOut {
		sb.WriteString("->")
	} else {
		sb.WriteString("-")
	}
}

func printPropertyMap(sb *strings.Builder, pm *PropertyMap) {
	sb.WriteString("{")
	for i, k := range pm.Order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		printExpr(sb, pm.Entries[k])
	}
	sb.WriteString("}")
}

func printSetItems(sb *strings.Builder, items []SetItem) {
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		if it.AddLabel != "" {
			sb.WriteString(it.Var)
			sb.WriteString(":")
			sb.WriteString(it.AddLabel)
			continue
		}
		sb.WriteString(it.Var)
		if it.Prop != "" {
			sb.WriteString(".")
			sb.WriteString(it.Prop)
		}
		sb.WriteString(" = ")
		printExpr(sb, it.Value)
	}
}

func printRemoveItems(sb *strings.Builder, items []RemoveItem) {
	for i, it := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(it.Var)
		if it.RemoveLabel != "" {
			sb.WriteString(":")
			sb.WriteString(it.RemoveLabel)
		} else {
			sb.WriteString(".")
			sb.WriteString(it.Prop)
		}
	}
}

func printExprList(sb *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(", ")
		}
		printExpr(sb, e)
	}
}

func printExpr(sb *strings.Builder, e Expr) {
	switch ex := e.(type) {
	case *Literal:
		switch ex.Kind {
		case LitString:
			sb.WriteString(strconv.Quote(ex.Str))
		case LitNumber:
			sb.WriteString(strconv.FormatFloat(ex.Num, 'g', -1, 64))
		case LitBoolean:
			if ex.Bool {
				sb.WriteString("TRUE")
			} else {
				sb.WriteString("FALSE")
			}
		case LitNull:
			sb.WriteString("NULL")
		}
	case *ListLiteral:
		sb.WriteString("[")
		printExprList(sb, ex.Items)
		sb.WriteString("]")
	case *ParameterRef:
		sb.WriteString("$")
		sb.WriteString(ex.Name)
	case *Variable:
		sb.WriteString(ex.Name)
	case *PropertyAccess:
		sb.WriteString(ex.Var)
		sb.WriteString(".")
		sb.WriteString(ex.Prop)
	case *LabelCheck:
		sb.WriteString(ex.Var)
		sb.WriteString(":")
		sb.WriteString(ex.Label)
	case *BinaryOp:
		sb.WriteString("(")
		printExpr(sb, ex.Left)
		sb.WriteString(" ")
		sb.WriteString(ex.Op)
		sb.WriteString(" ")
		printExpr(sb, ex.Right)
		sb.WriteString(")")
	case *UnaryOp:
		if ex.Op == "NOT" {
			sb.WriteString("NOT ")
			printExpr(sb, ex.Operand)
		} else {
			sb.WriteString("-")
			printExpr(sb, ex.Operand)
		}
	case *IsNullCheck:
		printExpr(sb, ex.Operand)
		sb.WriteString(" IS ")
		if ex.Negated {
			sb.WriteString("NOT ")
		}
		sb.WriteString("NULL")
	case *ListIndex:
		printExpr(sb, ex.List)
		sb.WriteString("[")
		printExpr(sb, ex.Index)
		sb.WriteString("]")
	case *FunctionCall:
		sb.WriteString(ex.Name)
		sb.WriteString("(")
		if ex.Distinct {
			sb.WriteString("DISTINCT ")
		}
		for i, a := range ex.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if v, ok := a.(*Variable); ok && v.Name == "*" {
				sb.WriteString("*")
				continue
			}
			printExpr(sb, a)
		}
		sb.WriteString(")")
	case *CaseExpr:
		sb.WriteString("CASE")
		if ex.Subject != nil {
			sb.WriteString(" ")
			printExpr(sb, ex.Subject)
		}
		for _, w := range ex.Whens {
			sb.WriteString(" WHEN ")
			printExpr(sb, w.Cond)
			sb.WriteString(" THEN ")
			printExpr(sb, w.Then)
		}
		if ex.Else != nil {
			sb.WriteString(" ELSE ")
			printExpr(sb, ex.Else)
		}
		sb.WriteString(" END")
	case *PropertyMap:
		printPropertyMap(sb, ex)
	default:
		sb.WriteString(fmt.Sprintf("/* unprintable expr %T */", e))
	}
}

func ddlKindWord(k DDLKind) (verb, noun string) {
	switch k {
	case DDLCreateSchema:
		return "CREATE", "SCHEMA"
	case DDLDropSchema:
		return "DROP", "SCHEMA"
	case DDLCreateGraph:
		return "CREATE", "GRAPH"
	case DDLDropGraph:
		return "DROP", "GRAPH"
	case DDLTruncateGraph:
		return "TRUNCATE", "GRAPH"
	case DDLClearGraph:
		return "CLEAR", "GRAPH"
	case DDLCreateGraphType:
		return "CREATE", "GRAPH TYPE"
	case DDLDropGraphType:
		return "DROP", "GRAPH TYPE"
	case DDLCreateRole:
		return "CREATE", "ROLE"
	case DDLDropRole:
		return "DROP", "ROLE"
	case DDLCreateUser:
		return "CREATE", "USER"
	case DDLDropUser:
		return "DROP", "USER"
	case DDLCreateIndex:
		return "CREATE", "INDEX"
	case DDLDropIndex:
		return "DROP", "INDEX"
	}
	return "", ""
}

func printDDL(sb *strings.Builder, d *DDLStatement) {
	switch d.Kind {
	case DDLGrantRole:
		fmt.Fprintf(sb, "GRANT ROLE %s TO %s", d.Role, d.User)
		return
	case DDLRevokeRole:
		fmt.Fprintf(sb, "REVOKE ROLE %s FROM %s", d.Role, d.User)
		return
	}
	verb, noun := ddlKindWord(d.Kind)
	sb.WriteString(verb)
	sb.WriteString(" ")
	sb.WriteString(noun)
	sb.WriteString(" ")
	switch d.Kind {
	case DDLCreateSchema, DDLDropSchema, DDLCreateGraph, DDLDropGraph, DDLTruncateGraph, DDLClearGraph:
		sb.WriteString(d.Path)
	case DDLCreateGraphType, DDLDropGraphType, DDLCreateRole, DDLDropRole, DDLCreateUser, DDLDropUser, DDLDropIndex:
		sb.WriteString(d.Name)
		if d.Kind == DDLCreateUser && d.Password != "" {
			fmt.Fprintf(sb, " SET PASSWORD %s", strconv.Quote(d.Password))
		}
	case DDLCreateIndex:
		sb.WriteString(d.Name)
		switch d.IndexKind {
		case IndexText:
			sb.WriteString(" TEXT")
		case IndexVector:
			sb.WriteString(" VECTOR")
		}
		fmt.Fprintf(sb, " ON %s(%s)", d.Label, d.Property)
	}
}

func printTransaction(sb *strings.Builder, t *TransactionStatement) {
	switch t.Kind {
	case TxnStart:
		sb.WriteString("START TRANSACTION")
		if mode, ok := t.Characteristics["access_mode"]; ok {
			sb.WriteString(" ")
			sb.WriteString(strings.Replace(mode, "_", " ", 1))
		}
	case TxnCommit:
		sb.WriteString("COMMIT")
	case TxnRollback:
		sb.WriteString("ROLLBACK")
	case TxnSetCharacteristics:
		sb.WriteString("SET TRANSACTION CHARACTERISTICS")
		if mode, ok := t.Characteristics["access_mode"]; ok {
			sb.WriteString(" ")
			sb.WriteString(strings.Replace(mode, "_", " ", 1))
		}
	}
}

func printSession(sb *strings.Builder, s *SessionStatement) {
	sb.WriteString("SESSION ")
	switch s.Kind {
	case SessionSet:
		sb.WriteString("SET ")
		switch s.Target {
		case "SCHEMA", "GRAPH":
			sb.WriteString(s.Target)
			sb.WriteString(" ")
			sb.WriteString(s.Path)
		case "PARAMETER":
			sb.WriteString("PARAMETER ")
			sb.WriteString(s.ParamName)
			sb.WriteString(" = ")
			printExpr(sb, s.Value)
		}
	case SessionReset:
		sb.WriteString("RESET")
		if s.Target != "" {
			sb.WriteString(" ")
			sb.WriteString(s.Target)
		}
	case SessionShow:
		sb.WriteString("SHOW")
		if s.Target != "" {
			sb.WriteString(" ")
			sb.WriteString(s.Target)
		}
	case SessionClose:
		sb.WriteString("CLOSE")
	}
}
