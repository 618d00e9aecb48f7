package gql

// Statement is any top-level GQL statement: read, data-modification, DDL,
// transaction control, or session commands.
type Statement interface {
	stmtNode()
	Pos() Position
}

// Direction is the traversal direction of an edge pattern glyph.
type Direction int

const (
	DirEither Direction = iota
	DirOut
	DirIn
)

// ---- Expressions ----

// Expr is any scalar or aggregate expression appearing in WHERE, RETURN,
// WITH, property maps, or SET/REMOVE targets.
type Expr interface {
	exprNode()
	Pos() Position
}

type base struct{ P Position }

func (b base) Pos() Position { return b.P }

// Literal is a parsed scalar constant: string, number, boolean, or null.
type Literal struct {
	base
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
}
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitNull
)

func (*Literal) exprNode() {}

// ListLiteral is a bracketed expression list: [1, 2, 3].
type ListLiteral struct {
	base
	Items []Expr
}

func (*ListLiteral) exprNode() {}

// ParameterRef is a $name reference resolved against session parameters.
type ParameterRef struct {
	base
	Name string
}

func (*ParameterRef) exprNode() {}

// Variable references a pattern-bound variable directly (e.g. in RETURN p).
type Variable struct {
	base
	Name string
}

func (*Variable) exprNode() {}

// PropertyAccess is v.prop.
type PropertyAccess struct {
	base
	Var  string
	Prop string
}

func (*PropertyAccess) exprNode() {}

// LabelCheck is v:Label, true iff v carries Label.
type LabelCheck struct {
	base
	Var   string
	Label string
}

func (*LabelCheck) exprNode() {}

// BinaryOp covers arithmetic, comparison, and boolean connectives.
type BinaryOp struct {
	base
	Op    string // "+","-","*","/","%","^","=","<>","<",">","<=",">=","AND","OR","XOR","IN","CONTAINS","STARTS WITH","ENDS WITH"
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}

// UnaryOp covers NOT and unary minus.
type UnaryOp struct {
	base
	Op      string // "NOT", "-"
	Operand Expr
}

func (*UnaryOp) exprNode() {}

// IsNullCheck is `expr IS [NOT] NULL`.
type IsNullCheck struct {
	base
	Operand  Expr
	Negated  bool
}

func (*IsNullCheck) exprNode() {}

// ListIndex is list[index].
type ListIndex struct {
	base
	List  Expr
	Index Expr
}

func (*ListIndex) exprNode() {}

// FunctionCall covers string/math/aggregate functions (§4.4): UPPER,
// LOWER, SUBSTRING, CONTAINS, STARTS_WITH, ENDS_WITH, FT_CONTAINS,
// FT_FUZZY (there is no regex FT_* function), SQRT, ABS, POW, COUNT, SUM, AVG, MIN, MAX, and user-extensible
// names the executor doesn't recognize (reported at execution, not parse).
type FunctionCall struct {
	base
	Name     string
	Args     []Expr
	Distinct bool // COUNT(DISTINCT x)
}

func (*FunctionCall) exprNode() {}

// CaseExpr is a CASE WHEN ... THEN ... ELSE ... END expression.
type CaseExpr struct {
	base
	Subject    Expr // optional: CASE x WHEN ... form; nil for CASE WHEN ... form
	Whens      []CaseWhen
	Else       Expr
}
type CaseWhen struct {
	Cond Expr
	Then Expr
}

func (*CaseExpr) exprNode() {}

// PropertyMap is a {k: expr, ...} literal attached to a node/edge pattern.
type PropertyMap struct {
	base
	Entries map[string]Expr
	Order   []string // preserves source order for pretty-printing
}

func (*PropertyMap) exprNode() {}

// ---- Patterns ----

// NodePattern is (var:Label1:Label2 {props}).
type NodePattern struct {
	Pos_       Position
	Var        string
	Labels     []string
	Properties *PropertyMap
}

// EdgePattern is -[var:LABEL {props}]-> (or <- / undirected).
type EdgePattern struct {
	Pos_       Position
	Var        string
	Labels     []string
	Properties *PropertyMap
	Direction  Direction
}

// PatternElement alternates Node/Edge in a PatternPath: a path of n nodes
// has exactly n-1 edges interleaved between them.
type PatternElement struct {
	Node *NodePattern // set when this element is a node
	Edge *EdgePattern // set when this element is an edge
}

// PatternPath is one connected (node)-[edge]->(node)-... chain.
type PatternPath struct {
	Elements []PatternElement
}

// Nodes returns every NodePattern in path order.
func (p *PatternPath) Nodes() []*NodePattern {
	var out []*NodePattern
	for _, e := range p.Elements {
		if e.Node != nil {
			out = append(out, e.Node)
		}
	}
	return out
}

// Edges returns every EdgePattern in path order.
func (p *PatternPath) Edges() []*EdgePattern {
	var out []*EdgePattern
	for _, e := range p.Elements {
		if e.Edge != nil {
			out = append(out, e.Edge)
		}
	}
	return out
}

// MatchClause is one MATCH (optionally OPTIONAL), admitting several
// disconnected PatternPaths (composed with a Cartesian join).
//
// Multiple sequential MatchClauses are admitted in BasicQuery.Match so a
// correlated `MATCH (p) OPTIONAL MATCH (p)-[r]->(f)` lowers as a LeftOuter
// join keyed on the shared variable `p`, rather than an unrelated Cartesian
// product.
type MatchClause struct {
	Pos_     Position
	Optional bool
	Paths    []*PatternPath
}

// ---- Clauses ----

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// ProjectionItem is one `expr [AS alias]` entry in RETURN or WITH.
type ProjectionItem struct {
	Expr  Expr
	Alias string // "" if no AS given; executor derives a default column name
}

// WithClause projects a prior spine's bindings forward, optionally
// aggregating, filtering (post-WITH WHERE), sorting, and limiting.
type WithClause struct {
	Pos_     Position
	Distinct bool
	Items    []ProjectionItem
	Where    Expr // WITH ... WHERE — filters after projection
	OrderBy  []OrderItem
	Skip     Expr
	Limit    Expr
}

// ReturnClause is the terminal projection of a read statement.
type ReturnClause struct {
	Pos_     Position
	Distinct bool
	Items    []ProjectionItem
	OrderBy  []OrderItem
	Skip     Expr
	Limit    Expr
}

// UnwindClause expands a list expression into one row per element.
type UnwindClause struct {
	Pos_  Position
	List  Expr
	Alias string
}

// ---- Statements: read ----

// BasicQuery is MATCH(es)? WHERE? UNWIND? WITH? RETURN? — the read
// statement family, and also the MATCH-bearing half of every
// data-modification statement that qualifies its mutation with a pattern.
type BasicQuery struct {
	base
	Match  []*MatchClause
	Where  Expr
	With   *WithClause
	Unwind *UnwindClause
	Return *ReturnClause
}

func (*BasicQuery) stmtNode() {}

// ---- Statements: data modification ----

// InsertStatement creates nodes/edges described by Paths with no MATCH
// qualifier.
type InsertStatement struct {
	base
	Paths []*PatternPath
}

func (*InsertStatement) stmtNode() {}

// SetItem is one `v.prop = expr` or `v:Label` or `v = {map}` target.
type SetItem struct {
	Var      string
	Prop     string // "" when this item sets labels or the whole map
	AddLabel string // "" unless this item is `v:Label`
	Value    Expr
}

// SetStatement applies SetItems unconditionally (paired with a MATCH only
// via MatchSetStatement).
type SetStatement struct {
	base
	Items []SetItem
}

func (*SetStatement) stmtNode() {}

// DeleteStatement removes the entities Exprs evaluate to. Detach removes
// incident edges first; without it, a node with incident edges fails.
type DeleteStatement struct {
	base
	Detach bool
	Exprs  []Expr
}

func (*DeleteStatement) stmtNode() {}

// RemoveItem clears one property or label.
type RemoveItem struct {
	Var         string
	Prop        string // "" unless this item removes a property
	RemoveLabel string // "" unless this item removes a label
}

// RemoveStatement clears properties/labels named by Items.
type RemoveStatement struct {
	base
	Items []RemoveItem
}

func (*RemoveStatement) stmtNode() {}

// MatchInsertStatement is `MATCH ... [WHERE ...] INSERT ...`.
type MatchInsertStatement struct {
	base
	Match  []*MatchClause
	Where  Expr
	Insert *InsertStatement
}

func (*MatchInsertStatement) stmtNode() {}

// MatchSetStatement is `MATCH ... [WHERE ...] SET ...`.
type MatchSetStatement struct {
	base
	Match []*MatchClause
	Where Expr
	Set   *SetStatement
}

func (*MatchSetStatement) stmtNode() {}

// MatchDeleteStatement is `MATCH ... [WHERE ...] [DETACH] DELETE ...`.
type MatchDeleteStatement struct {
	base
	Match  []*MatchClause
	Where  Expr
	Delete *DeleteStatement
}

func (*MatchDeleteStatement) stmtNode() {}

// MatchRemoveStatement is `MATCH ... [WHERE ...] REMOVE ...`.
type MatchRemoveStatement struct {
	base
	Match  []*MatchClause
	Where  Expr
	Remove *RemoveStatement
}

func (*MatchRemoveStatement) stmtNode() {}

// ---- Statements: DDL ----

// DDLKind enumerates every DDL verb: schema/graph/graph-type lifecycle,
// TRUNCATE/CLEAR GRAPH as first-class verbs alongside CREATE/DROP, role and
// user management, and index operations.
type DDLKind int

const (
	DDLCreateSchema DDLKind = iota
	DDLDropSchema
	DDLCreateGraph
	DDLDropGraph
	DDLTruncateGraph
	DDLClearGraph
	DDLCreateGraphType
	DDLDropGraphType
	DDLCreateRole
	DDLDropRole
	DDLCreateUser
	DDLDropUser
	DDLGrantRole
	DDLRevokeRole
	DDLCreateIndex
	DDLDropIndex
)

// IndexKind distinguishes the three index flavors: graph property, text,
// and vector.
type IndexKind int

const (
	IndexGraph IndexKind = iota
	IndexText
	IndexVector
)

// DDLStatement is any schema/graph/graph-type/role/user/index/grant verb.
type DDLStatement struct {
	base
	Kind DDLKind

	Path string // /schema or /schema/graph, for schema/graph targets
	Name string // graph-type/role/user/index name, not path-shaped

	// CREATE INDEX specifics.
	IndexKind  IndexKind
	Label      string
	Property   string

	// CREATE USER specifics.
	Password string

	// GRANT/REVOKE specifics.
	Role string
	User string

	IfNotExists bool
	IfExists    bool
}

func (*DDLStatement) stmtNode() {}

// ---- Statements: transaction control ----

type TxnKind int

const (
	TxnStart TxnKind = iota
	TxnCommit
	TxnRollback
	TxnSetCharacteristics
)

// TransactionStatement is START TRANSACTION | COMMIT | ROLLBACK | SET
// TRANSACTION CHARACTERISTICS ...
type TransactionStatement struct {
	base
	Kind            TxnKind
	Characteristics map[string]string
}

func (*TransactionStatement) stmtNode() {}

// ---- Statements: session ----

type SessionKind int

const (
	SessionSet SessionKind = iota
	SessionReset
	SessionShow
	SessionClose
)

// SessionStatement is SESSION SET|RESET|SHOW|CLOSE ...
type SessionStatement struct {
	base
	Kind SessionKind

	// SET SCHEMA/GRAPH target, or RESET/SHOW target ("SCHEMA", "GRAPH",
	// "PARAMETER", "" for "everything").
	Target string

	// SET PARAMETER name = value.
	ParamName string
	Value     Expr

	// SET SCHEMA/GRAPH path.
	Path string
}

func (*SessionStatement) stmtNode() {}
