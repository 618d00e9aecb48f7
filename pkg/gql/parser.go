package gql

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a syntax error with its source location, as returned
// by Parse/ParseAll. No retry is expected for a ParseError.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg) }

// Parser is a hand-written recursive-descent parser over a token stream
// produced by Lexer. It accepts both `OPTIONAL MATCH` and the bracketed
// `OPTIONAL { MATCH ... }` / `OPTIONAL ( MATCH ... )` forms, and admits a
// sequence of MatchClauses per statement so a correlated OPTIONAL MATCH
// lowers against the preceding spine.
type Parser struct {
	toks []Token
	pos  int
}

// NewParser wraps a pre-tokenized stream.
func NewParser(toks []Token) *Parser { return &Parser{toks: toks} }

// Parse tokenizes and parses a single statement, ignoring one optional
// trailing semicolon.
func Parse(text string) (Statement, error) {
	toks, err := NewLexer("", text).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(toks)
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	p.skipOptional(Semicolon)
	if !p.at(EOF) {
		return nil, &ParseError{Pos: p.peek().Pos, Msg: fmt.Sprintf("unexpected trailing token %q", p.peek().Text)}
	}
	return stmt, nil
}

// ParseAll tokenizes and parses every semicolon-separated statement in
// text, for embedding callers that submit a script rather than one
// statement at a time.
func ParseAll(text string) ([]Statement, error) {
	toks, err := NewLexer("", text).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(toks)
	var out []Statement
	for !p.at(EOF) {
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		p.skipOptional(Semicolon)
	}
	return out, nil
}

// ---- token stream helpers ----

func (p *Parser) peek() Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() Token { t := p.toks[p.pos]; if p.pos < len(p.toks)-1 { p.pos++ }; return t }
func (p *Parser) at(k Kind) bool { return p.peek().Kind == k }
func (p *Parser) atEOF() bool    { return p.peek().Kind == EOF }

func (p *Parser) atKeyword(word string) bool {
	t := p.peek()
	return t.Kind == Keyword && t.Text == word
}

func (p *Parser) atKeywordAt(n int, word string) bool {
	t := p.peekAt(n)
	return t.Kind == Keyword && t.Text == word
}

func (p *Parser) expectKeyword(word string) (Token, error) {
	if !p.atKeyword(word) {
		return Token{}, &ParseError{Pos: p.peek().Pos, Msg: fmt.Sprintf("expected %s, got %q", word, p.peek().Text)}
	}
	return p.advance(), nil
}

func (p *Parser) expect(k Kind) (Token, error) {
	if !p.at(k) {
		return Token{}, &ParseError{Pos: p.peek().Pos, Msg: fmt.Sprintf("unexpected token %q", p.peek().Text)}
	}
	return p.advance(), nil
}

func (p *Parser) skipOptional(k Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// identText accepts an Ident or any Keyword token used as a bare word
// (label names, property keys, path segments), returning its text.
func (p *Parser) identText() (string, error) {
	if p.at(Ident) {
		return p.advance().Text, nil
	}
	if p.at(Keyword) {
		return p.advance().Text, nil
	}
	return "", &ParseError{Pos: p.peek().Pos, Msg: fmt.Sprintf("expected identifier, got %q", p.peek().Text)}
}

// ---- statement dispatch ----

// ParseStatement parses exactly one statement starting at the parser's
// current position, without consuming a trailing semicolon.
func (p *Parser) ParseStatement() (Statement, error) {
	switch {
	case p.atKeyword("INSERT"):
		return p.parseInsert()
	case p.atKeyword("SET") && p.atKeywordAt(1, "TRANSACTION"):
		return p.parseTransaction()
	case p.atKeyword("SET"):
		return p.parseSet()
	case p.atKeyword("DELETE") || p.atKeyword("DETACH"):
		return p.parseDelete()
	case p.atKeyword("REMOVE"):
		return p.parseRemove()
	case p.atKeyword("CREATE") || p.atKeyword("DROP") || p.atKeyword("TRUNCATE") || p.atKeyword("CLEAR"):
		return p.parseDDL()
	case p.atKeyword("GRANT") || p.atKeyword("REVOKE"):
		return p.parseGrantRevoke()
	case p.atKeyword("START") || p.atKeyword("COMMIT") || p.atKeyword("ROLLBACK"):
		return p.parseTransaction()
	case p.atKeyword("SESSION"):
		return p.parseSession()
	case p.atKeyword("MATCH") || p.atKeyword("OPTIONAL") || p.atKeyword("WHERE") ||
		p.atKeyword("WITH") || p.atKeyword("UNWIND") || p.atKeyword("RETURN"):
		return p.parseMatchFamily()
	default:
		return nil, &ParseError{Pos: p.peek().Pos, Msg: fmt.Sprintf("unexpected token %q at start of statement", p.peek().Text)}
	}
}

// parseMatchFamily parses the shared MATCH(es)? WHERE? prefix and then
// dispatches on what follows: INSERT/SET/DELETE/DETACH/REMOVE produce the
// matching Match*Statement; anything else (UNWIND, WITH, RETURN, or end of
// input) produces a BasicQuery.
func (p *Parser) parseMatchFamily() (Statement, error) {
	pos := p.peek().Pos
	var matches []*MatchClause
	for p.atKeyword("MATCH") || p.atKeyword("OPTIONAL") {
		mc, err := p.parseMatchClause()
		if err != nil {
			return nil, err
		}
		matches = append(matches, mc)
	}

	var where Expr
	if p.atKeyword("WHERE") {
		p.advance()
		var err error
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	switch {
	case p.atKeyword("INSERT"):
		ins, err := p.parseInsert()
		if err != nil {
			return nil, err
		}
		return &MatchInsertStatement{base: base{pos}, Match: matches, Where: where, Insert: ins}, nil
	case p.atKeyword("SET"):
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		return &MatchSetStatement{base: base{pos}, Match: matches, Where: where, Set: set}, nil
	case p.atKeyword("DELETE") || p.atKeyword("DETACH"):
		del, err := p.parseDelete()
		if err != nil {
			return nil, err
		}
		return &MatchDeleteStatement{base: base{pos}, Match: matches, Where: where, Delete: del}, nil
	case p.atKeyword("REMOVE"):
		rem, err := p.parseRemove()
		if err != nil {
			return nil, err
		}
		return &MatchRemoveStatement{base: base{pos}, Match: matches, Where: where, Remove: rem}, nil
	}

	bq := &BasicQuery{base: base{pos}, Match: matches, Where: where}

	if p.atKeyword("UNWIND") {
		p.advance()
		listExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		alias, err := p.identText()
		if err != nil {
			return nil, err
		}
		bq.Unwind = &UnwindClause{Pos_: pos, List: listExpr, Alias: alias}
	}

	if p.atKeyword("WITH") {
		wc, err := p.parseWith()
		if err != nil {
			return nil, err
		}
		bq.With = wc
	}

	if p.atKeyword("RETURN") {
		rc, err := p.parseReturn()
		if err != nil {
			return nil, err
		}
		bq.Return = rc
	}

	return bq, nil
}

// ---- MATCH / patterns ----

func (p *Parser) parseMatchClause() (*MatchClause, error) {
	pos := p.peek().Pos
	optional := false
	if p.atKeyword("OPTIONAL") {
		optional = true
		p.advance()
		if p.at(LBrace) {
			p.advance()
			if _, err := p.expectKeyword("MATCH"); err != nil {
				return nil, err
			}
			paths, err := p.parsePatternPaths()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBrace); err != nil {
				return nil, err
			}
			return &MatchClause{Pos_: pos, Optional: true, Paths: paths}, nil
		}
		if p.at(LParen) && p.atKeywordAt(1, "MATCH") {
			p.advance()
			p.advance()
			paths, err := p.parsePatternPaths()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RParen); err != nil {
				return nil, err
			}
			return &MatchClause{Pos_: pos, Optional: true, Paths: paths}, nil
		}
	}
	if _, err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	paths, err := p.parsePatternPaths()
	if err != nil {
		return nil, err
	}
	return &MatchClause{Pos_: pos, Optional: optional, Paths: paths}, nil
}

func (p *Parser) parsePatternPaths() ([]*PatternPath, error) {
	var paths []*PatternPath
	for {
		path, err := p.parsePatternPath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if !p.skipOptional(Comma) {
			break
		}
	}
	return paths, nil
}

func (p *Parser) parsePatternPath() (*PatternPath, error) {
	node, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	path := &PatternPath{Elements: []PatternElement{{Node: node}}}
	for p.at(Dash) || p.at(BackArrow) {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return nil, err
		}
		next, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		path.Elements = append(path.Elements, PatternElement{Edge: edge}, PatternElement{Node: next})
	}
	return path, nil
}

func (p *Parser) parseNodePattern() (*NodePattern, error) {
	pos := p.peek().Pos
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	n := &NodePattern{Pos_: pos}
	if p.at(Ident) {
		n.Var = p.advance().Text
	}
	for p.at(Colon) {
		p.advance()
		label, err := p.identText()
		if err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.at(LBrace) {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseEdgePattern() (*EdgePattern, error) {
	pos := p.peek().Pos
	e := &EdgePattern{Pos_: pos}
	leftIn := false
	if p.at(BackArrow) {
		leftIn = true
		p.advance()
	} else if p.at(Dash) {
		p.advance()
	} else {
		return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected edge pattern"}
	}

	if p.at(LBracket) {
		p.advance()
		if p.at(Ident) {
			e.Var = p.advance().Text
		}
		for p.at(Colon) {
			p.advance()
			label, err := p.identText()
			if err != nil {
				return nil, err
			}
			e.Labels = append(e.Labels, label)
			for p.at(Pipe) {
				p.advance()
				label, err := p.identText()
				if err != nil {
					return nil, err
				}
				e.Labels = append(e.Labels, label)
			}
		}
		if p.at(LBrace) {
			props, err := p.parsePropertyMap()
			if err != nil {
				return nil, err
			}
			e.Properties = props
		}
		if _, err := p.expect(RBracket); err != nil {
			return nil, err
		}
	}

	rightOut := false
	if p.at(Arrow) {
		rightOut = true
		p.advance()
	} else if p.at(Dash) {
		p.advance()
	} else {
		return nil, &ParseError{Pos: p.peek().Pos, Msg: "unterminated edge pattern"}
	}

	switch {
	case leftIn && !rightOut:
		e.Direction = DirIn
	case !leftIn && rightOut:
		e.Direction = DirOut
	case !leftIn && !rightOut:
		e.Direction = DirEither
	default:
		return nil, &ParseError{Pos: pos, Msg: "edge pattern cannot point both directions"}
	}
	return e, nil
}

func (p *Parser) parsePropertyMap() (*PropertyMap, error) {
	pos := p.peek().Pos
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	pm := &PropertyMap{base: base{pos}, Entries: map[string]Expr{}}
	if p.at(RBrace) {
		p.advance()
		return pm, nil
	}
	for {
		key, err := p.identText()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		pm.Entries[key] = val
		pm.Order = append(pm.Order, key)
		if !p.skipOptional(Comma) {
			break
		}
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return pm, nil
}

// ---- WITH / RETURN ----

func (p *Parser) parseProjectionItems() ([]ProjectionItem, bool, error) {
	distinct := false
	if p.atKeyword("DISTINCT") {
		distinct = true
		p.advance()
	}
	var items []ProjectionItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		alias := ""
		if p.atKeyword("AS") {
			p.advance()
			alias, err = p.identText()
			if err != nil {
				return nil, false, err
			}
		}
		items = append(items, ProjectionItem{Expr: e, Alias: alias})
		if !p.skipOptional(Comma) {
			break
		}
	}
	return items, distinct, nil
}

func (p *Parser) parseOrderBySkipLimit() ([]OrderItem, Expr, Expr, error) {
	var order []OrderItem
	var skip, limit Expr
	if p.atKeyword("ORDER") {
		p.advance()
		if _, err := p.expectKeyword("BY"); err != nil {
			return nil, nil, nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, nil, nil, err
			}
			desc := false
			if p.atKeyword("DESC") {
				desc = true
				p.advance()
			} else if p.atKeyword("ASC") {
				p.advance()
			}
			order = append(order, OrderItem{Expr: e, Descending: desc})
			if !p.skipOptional(Comma) {
				break
			}
		}
	}
	if p.atKeyword("SKIP") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		skip = e
	}
	if p.atKeyword("LIMIT") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, nil, nil, err
		}
		limit = e
	}
	return order, skip, limit, nil
}

func (p *Parser) parseWith() (*WithClause, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	items, distinct, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	wc := &WithClause{Pos_: pos, Distinct: distinct, Items: items}
	if p.atKeyword("WHERE") {
		p.advance()
		wc.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	wc.OrderBy, wc.Skip, wc.Limit, err = p.parseOrderBySkipLimit()
	if err != nil {
		return nil, err
	}
	return wc, nil
}

func (p *Parser) parseReturn() (*ReturnClause, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	items, distinct, err := p.parseProjectionItems()
	if err != nil {
		return nil, err
	}
	rc := &ReturnClause{Pos_: pos, Distinct: distinct, Items: items}
	rc.OrderBy, rc.Skip, rc.Limit, err = p.parseOrderBySkipLimit()
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// ---- INSERT / SET / DELETE / REMOVE ----

func (p *Parser) parseInsert() (*InsertStatement, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	paths, err := p.parsePatternPaths()
	if err != nil {
		return nil, err
	}
	return &InsertStatement{base: base{pos}, Paths: paths}, nil
}

func (p *Parser) parseSetItem() (SetItem, error) {
	v, err := p.identText()
	if err != nil {
		return SetItem{}, err
	}
	if p.at(Colon) {
		p.advance()
		label, err := p.identText()
		if err != nil {
			return SetItem{}, err
		}
		return SetItem{Var: v, AddLabel: label}, nil
	}
	if p.at(Dot) {
		p.advance()
		prop, err := p.identText()
		if err != nil {
			return SetItem{}, err
		}
		if _, err := p.expect(Eq); err != nil {
			return SetItem{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return SetItem{}, err
		}
		return SetItem{Var: v, Prop: prop, Value: val}, nil
	}
	if _, err := p.expect(Eq); err != nil {
		return SetItem{}, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return SetItem{}, err
	}
	return SetItem{Var: v, Value: val}, nil
}

func (p *Parser) parseSet() (*SetStatement, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	var items []SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.skipOptional(Comma) {
			break
		}
	}
	return &SetStatement{base: base{pos}, Items: items}, nil
}

func (p *Parser) parseDelete() (*DeleteStatement, error) {
	pos := p.peek().Pos
	detach := false
	if p.atKeyword("DETACH") {
		detach = true
		p.advance()
	}
	if _, err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	var exprs []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.skipOptional(Comma) {
			break
		}
	}
	return &DeleteStatement{base: base{pos}, Detach: detach, Exprs: exprs}, nil
}

func (p *Parser) parseRemove() (*RemoveStatement, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("REMOVE"); err != nil {
		return nil, err
	}
	var items []RemoveItem
	for {
		v, err := p.identText()
		if err != nil {
			return nil, err
		}
		if p.at(Colon) {
			p.advance()
			label, err := p.identText()
			if err != nil {
				return nil, err
			}
			items = append(items, RemoveItem{Var: v, RemoveLabel: label})
		} else if p.at(Dot) {
			p.advance()
			prop, err := p.identText()
			if err != nil {
				return nil, err
			}
			items = append(items, RemoveItem{Var: v, Prop: prop})
		} else {
			return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected '.' or ':' after REMOVE target"}
		}
		if !p.skipOptional(Comma) {
			break
		}
	}
	return &RemoveStatement{base: base{pos}, Items: items}, nil
}

// ---- transaction / session ----

func (p *Parser) parseTransaction() (*TransactionStatement, error) {
	pos := p.peek().Pos
	switch {
	case p.atKeyword("START"):
		p.advance()
		if _, err := p.expectKeyword("TRANSACTION"); err != nil {
			return nil, err
		}
		chars, err := p.parseOptionalCharacteristics()
		if err != nil {
			return nil, err
		}
		return &TransactionStatement{base: base{pos}, Kind: TxnStart, Characteristics: chars}, nil
	case p.atKeyword("COMMIT"):
		p.advance()
		return &TransactionStatement{base: base{pos}, Kind: TxnCommit}, nil
	case p.atKeyword("ROLLBACK"):
		p.advance()
		return &TransactionStatement{base: base{pos}, Kind: TxnRollback}, nil
	case p.atKeyword("SET"):
		p.advance()
		if _, err := p.expectKeyword("TRANSACTION"); err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("CHARACTERISTICS"); err != nil {
			return nil, err
		}
		chars, err := p.parseOptionalCharacteristics()
		if err != nil {
			return nil, err
		}
		return &TransactionStatement{base: base{pos}, Kind: TxnSetCharacteristics, Characteristics: chars}, nil
	}
	return nil, &ParseError{Pos: pos, Msg: "expected START, COMMIT, or ROLLBACK"}
}

func (p *Parser) parseOptionalCharacteristics() (map[string]string, error) {
	if !p.atKeyword("READ") && !p.atKeyword("WRITE") {
		return nil, nil
	}
	chars := map[string]string{}
	for p.atKeyword("READ") || p.atKeyword("WRITE") {
		mode := p.advance().Text
		if p.atKeyword("ONLY") {
			p.advance()
			chars["access_mode"] = mode + "_ONLY"
		} else {
			chars["access_mode"] = mode
		}
		if !p.skipOptional(Comma) {
			break
		}
	}
	return chars, nil
}

func (p *Parser) parsePath() (string, error) {
	if !p.at(Slash) {
		return "", &ParseError{Pos: p.peek().Pos, Msg: "expected a path literal beginning with '/'"}
	}
	var sb strings.Builder
	for p.at(Slash) {
		sb.WriteRune('/')
		p.advance()
		name, err := p.identText()
		if err != nil {
			return "", err
		}
		sb.WriteString(name)
	}
	return sb.String(), nil
}

func (p *Parser) parseSession() (*SessionStatement, error) {
	pos := p.peek().Pos
	if _, err := p.expectKeyword("SESSION"); err != nil {
		return nil, err
	}
	switch {
	case p.atKeyword("SET"):
		p.advance()
		switch {
		case p.atKeyword("SCHEMA"):
			p.advance()
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			return &SessionStatement{base: base{pos}, Kind: SessionSet, Target: "SCHEMA", Path: path}, nil
		case p.atKeyword("GRAPH"):
			p.advance()
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			return &SessionStatement{base: base{pos}, Kind: SessionSet, Target: "GRAPH", Path: path}, nil
		case p.atKeyword("PARAMETER"):
			p.advance()
			name, err := p.identText()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(Eq); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &SessionStatement{base: base{pos}, Kind: SessionSet, Target: "PARAMETER", ParamName: name, Value: val}, nil
		}
		return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected SCHEMA, GRAPH, or PARAMETER after SESSION SET"}
	case p.atKeyword("RESET"):
		p.advance()
		target := ""
		if p.at(Ident) || p.at(Keyword) {
			target, _ = p.identText()
		}
		return &SessionStatement{base: base{pos}, Kind: SessionReset, Target: strings.ToUpper(target)}, nil
	case p.atKeyword("SHOW"):
		p.advance()
		target := ""
		if p.at(Ident) || p.at(Keyword) {
			target, _ = p.identText()
		}
		return &SessionStatement{base: base{pos}, Kind: SessionShow, Target: strings.ToUpper(target)}, nil
	case p.atKeyword("CLOSE"):
		p.advance()
		return &SessionStatement{base: base{pos}, Kind: SessionClose}, nil
	}
	return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected SET, RESET, SHOW, or CLOSE after SESSION"}
}

// ---- DDL ----

func (p *Parser) parseDDL() (*DDLStatement, error) {
	pos := p.peek().Pos
	switch {
	case p.atKeyword("CREATE"):
		p.advance()
		return p.parseCreateDDL(pos)
	case p.atKeyword("DROP"):
		p.advance()
		return p.parseDropDDL(pos)
	case p.atKeyword("TRUNCATE"):
		p.advance()
		if _, err := p.expectKeyword("GRAPH"); err != nil {
			return nil, err
		}
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLTruncateGraph, Path: path}, nil
	case p.atKeyword("CLEAR"):
		p.advance()
		if _, err := p.expectKeyword("GRAPH"); err != nil {
			return nil, err
		}
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLClearGraph, Path: path}, nil
	}
	return nil, &ParseError{Pos: pos, Msg: "expected CREATE, DROP, TRUNCATE, or CLEAR"}
}

func (p *Parser) parseCreateDDL(pos Position) (*DDLStatement, error) {
	switch {
	case p.atKeyword("SCHEMA"):
		p.advance()
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLCreateSchema, Path: path}, nil
	case p.atKeyword("GRAPH"):
		p.advance()
		if p.atKeyword("TYPE") {
			p.advance()
			name, err := p.identText()
			if err != nil {
				return nil, err
			}
			return &DDLStatement{base: base{pos}, Kind: DDLCreateGraphType, Name: name}, nil
		}
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLCreateGraph, Path: path}, nil
	case p.atKeyword("ROLE"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLCreateRole, Name: name}, nil
	case p.atKeyword("USER"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		d := &DDLStatement{base: base{pos}, Kind: DDLCreateUser, Name: name}
		if p.atKeyword("SET") {
			p.advance()
			if _, err := p.expectKeyword("PASSWORD"); err != nil {
				return nil, err
			}
			pw, err := p.expect(String)
			if err != nil {
				return nil, err
			}
			d.Password = pw.Text
		}
		return d, nil
	case p.atKeyword("INDEX"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		d := &DDLStatement{base: base{pos}, Kind: DDLCreateIndex, Name: name, IndexKind: IndexGraph}
		if p.atKeyword("TEXT") {
			d.IndexKind = IndexText
			p.advance()
		} else if p.atKeyword("VECTOR") {
			d.IndexKind = IndexVector
			p.advance()
		}
		if _, err := p.expectKeyword("ON"); err != nil {
			return nil, err
		}
		label, err := p.identText()
		if err != nil {
			return nil, err
		}
		d.Label = label
		if _, err := p.expect(LParen); err != nil {
			return nil, err
		}
		prop, err := p.identText()
		if err != nil {
			return nil, err
		}
		d.Property = prop
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected SCHEMA, GRAPH, ROLE, USER, or INDEX after CREATE"}
}

// parseGrantRevoke handles `GRANT ROLE role TO user` and
// `REVOKE ROLE role FROM user`.
func (p *Parser) parseGrantRevoke() (*DDLStatement, error) {
	pos := p.peek().Pos
	grant := p.atKeyword("GRANT")
	p.advance()
	if _, err := p.expectKeyword("ROLE"); err != nil {
		return nil, err
	}
	role, err := p.identText()
	if err != nil {
		return nil, err
	}
	if grant {
		if _, err := p.expectKeyword("TO"); err != nil {
			return nil, err
		}
	} else {
		if !p.atKeyword("TO") { // accept either preposition spelling
			if _, err := p.identText(); err != nil {
				return nil, err
			}
		} else {
			p.advance()
		}
	}
	user, err := p.identText()
	if err != nil {
		return nil, err
	}
	kind := DDLGrantRole
	if !grant {
		kind = DDLRevokeRole
	}
	return &DDLStatement{base: base{pos}, Kind: kind, Role: role, User: user}, nil
}

func (p *Parser) parseDropDDL(pos Position) (*DDLStatement, error) {
	switch {
	case p.atKeyword("SCHEMA"):
		p.advance()
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLDropSchema, Path: path}, nil
	case p.atKeyword("GRAPH"):
		p.advance()
		if p.atKeyword("TYPE") {
			p.advance()
			name, err := p.identText()
			if err != nil {
				return nil, err
			}
			return &DDLStatement{base: base{pos}, Kind: DDLDropGraphType, Name: name}, nil
		}
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLDropGraph, Path: path}, nil
	case p.atKeyword("ROLE"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLDropRole, Name: name}, nil
	case p.atKeyword("USER"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLDropUser, Name: name}, nil
	case p.atKeyword("INDEX"):
		p.advance()
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		return &DDLStatement{base: base{pos}, Kind: DDLDropIndex, Name: name}, nil
	}
	return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected SCHEMA, GRAPH, ROLE, USER, or INDEX after DROP"}
}

// ---- expressions ----
//
// Precedence, low to high: OR, XOR, AND, NOT, comparison, additive,
// multiplicative, power, unary, postfix, primary.

func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("OR") {
		pos := p.advance().Pos
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{base: base{pos}, Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("XOR") {
		pos := p.advance().Pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{base: base{pos}, Op: "XOR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("AND") {
		pos := p.advance().Pos
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{base: base{pos}, Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.atKeyword("NOT") {
		pos := p.advance().Pos
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{base: base{pos}, Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atKeyword("IS"):
			pos := p.advance().Pos
			negated := false
			if p.atKeyword("NOT") {
				negated = true
				p.advance()
			}
			if _, err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = &IsNullCheck{base: base{pos}, Operand: left, Negated: negated}
		case p.atKeyword("IN"):
			pos := p.advance().Pos
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{base: base{pos}, Op: "IN", Left: left, Right: right}
		case p.atKeyword("CONTAINS"):
			pos := p.advance().Pos
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{base: base{pos}, Op: "CONTAINS", Left: left, Right: right}
		case p.atKeyword("STARTS"):
			pos := p.advance().Pos
			if _, err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{base: base{pos}, Op: "STARTS WITH", Left: left, Right: right}
		case p.atKeyword("ENDS"):
			pos := p.advance().Pos
			if _, err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{base: base{pos}, Op: "ENDS WITH", Left: left, Right: right}
		case p.at(Eq), p.at(Neq), p.at(LAngle), p.at(RAngle), p.at(Lte), p.at(Gte):
			tok := p.advance()
			op := map[Kind]string{Eq: "=", Neq: "<>", LAngle: "<", RAngle: ">", Lte: "<=", Gte: ">="}[tok.Kind]
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{base: base{tok.Pos}, Op: op, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(Plus) || p.at(Dash) {
		tok := p.advance()
		op := "+"
		if tok.Kind == Dash {
			op = "-"
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{base: base{tok.Pos}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.at(Star) || p.at(Slash) || p.at(Percent) {
		tok := p.advance()
		op := map[Kind]string{Star: "*", Slash: "/", Percent: "%"}[tok.Kind]
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{base: base{tok.Pos}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePower() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.at(Caret) {
		tok := p.advance()
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return &BinaryOp{base: base{tok.Pos}, Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.at(Dash) {
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{base: base{pos}, Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(Dot):
			p.advance()
			prop, err := p.identText()
			if err != nil {
				return nil, err
			}
			if v, ok := expr.(*Variable); ok {
				expr = &PropertyAccess{base: base{v.P}, Var: v.Name, Prop: prop}
			} else {
				return nil, &ParseError{Pos: p.peek().Pos, Msg: "property access requires a variable on the left"}
			}
		case p.at(Colon):
			if v, ok := expr.(*Variable); ok {
				pos := p.advance().Pos
				label, err := p.identText()
				if err != nil {
					return nil, err
				}
				expr = &LabelCheck{base: base{pos}, Var: v.Name, Label: label}
			} else {
				return expr, nil
			}
		case p.at(LBracket):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBracket); err != nil {
				return nil, err
			}
			expr = &ListIndex{base: base{expr.Pos()}, List: expr, Index: idx}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case String:
		p.advance()
		return &Literal{base: base{tok.Pos}, Kind: LitString, Str: tok.Text}, nil
	case Number:
		p.advance()
		n, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("invalid number literal %q", tok.Text)}
		}
		return &Literal{base: base{tok.Pos}, Kind: LitNumber, Num: n}, nil
	case Boolean:
		p.advance()
		return &Literal{base: base{tok.Pos}, Kind: LitBoolean, Bool: tok.Text == "TRUE"}, nil
	case Null:
		p.advance()
		return &Literal{base: base{tok.Pos}, Kind: LitNull}, nil
	case Parameter:
		p.advance()
		return &ParameterRef{base: base{tok.Pos}, Name: tok.Text}, nil
	case LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return e, nil
	case LBracket:
		p.advance()
		var items []Expr
		if !p.at(RBracket) {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				items = append(items, e)
				if !p.skipOptional(Comma) {
					break
				}
			}
		}
		if _, err := p.expect(RBracket); err != nil {
			return nil, err
		}
		return &ListLiteral{base: base{tok.Pos}, Items: items}, nil
	case Keyword:
		if tok.Text == "CASE" {
			return p.parseCase()
		}
		return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected keyword %q in expression", tok.Text)}
	case Ident:
		p.advance()
		if p.at(LParen) {
			return p.parseFunctionCall(tok)
		}
		return &Variable{base: base{tok.Pos}, Name: tok.Text}, nil
	}
	return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q in expression", tok.Text)}
}

func (p *Parser) parseFunctionCall(name Token) (Expr, error) {
	p.advance() // (
	fc := &FunctionCall{base: base{name.Pos}, Name: strings.ToUpper(name.Text)}
	if p.atKeyword("DISTINCT") {
		fc.Distinct = true
		p.advance()
	}
	if !p.at(RParen) {
		for {
			if p.at(Star) { // COUNT(*)
				p.advance()
				fc.Args = append(fc.Args, &Variable{base: base{p.peek().Pos}, Name: "*"})
			} else {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				fc.Args = append(fc.Args, e)
			}
			if !p.skipOptional(Comma) {
				break
			}
		}
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	return fc, nil
}

func (p *Parser) parseCase() (Expr, error) {
	pos := p.advance().Pos // CASE
	ce := &CaseExpr{base: base{pos}}
	if !p.atKeyword("WHEN") {
		subj, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Subject = subj
	}
	for p.atKeyword("WHEN") {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, CaseWhen{Cond: cond, Then: then})
	}
	if p.atKeyword("ELSE") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = e
	}
	if _, err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}
