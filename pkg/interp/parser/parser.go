// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser is a hand-rolled recursive-descent parser over the
// token stream from pkg/interp/lexer, producing pkg/interp/ast nodes for
// the documented subset of spec.md §4.A. It does not attempt to parse
// full Python; unsupported syntax surfaces as a parse error rather than
// being silently accepted.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/interp/ast"
	"github.com/kadirpekel/tcoagent/pkg/interp/lexer"
)

// Parser holds parse state over a pre-tokenized source.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses src into a Module.
func Parse(src string) (*ast.Module, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseModule()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) isOp(text string) bool {
	t := p.cur()
	return t.Kind == lexer.OP && t.Text == text
}

func (p *Parser) isKeyword(text string) bool {
	t := p.cur()
	return t.Kind == lexer.KEYWORD && t.Text == text
}

func (p *Parser) expectOp(text string) error {
	if !p.isOp(text) {
		return p.errorf("expected %q, got %q", text, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectKeyword(text string) error {
	if !p.isKeyword(text) {
		return p.errorf("expected keyword %q, got %q", text, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parse error at line %d: %s", p.cur().Line, fmt.Sprintf(format, args...))
}

func (p *Parser) skipNewlines() {
	for p.cur().Kind == lexer.NEWLINE {
		p.advance()
	}
}

// ---- Module & blocks ----

func (p *Parser) parseModule() (*ast.Module, error) {
	mod := &ast.Module{}
	p.skipNewlines()
	for !p.atEOF() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		mod.Body = append(mod.Body, stmt...)
		p.skipNewlines()
	}
	return mod, nil
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.cur().Kind == lexer.NEWLINE {
		p.advance()
		p.skipNewlines()
		if p.cur().Kind != lexer.INDENT {
			return nil, p.errorf("expected indented block")
		}
		p.advance()
		var body []ast.Stmt
		p.skipNewlines()
		for p.cur().Kind != lexer.DEDENT && !p.atEOF() {
			stmts, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, stmts...)
			p.skipNewlines()
		}
		if p.cur().Kind == lexer.DEDENT {
			p.advance()
		}
		return body, nil
	}
	// simple statement on the same line: `if x: y = 1`
	stmts, err := p.parseSimpleStatementLine()
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

// ---- Statements ----

func (p *Parser) parseStatement() ([]ast.Stmt, error) {
	tok := p.cur()
	if tok.Kind == lexer.KEYWORD {
		switch tok.Text {
		case "if":
			s, err := p.parseIf()
			return []ast.Stmt{s}, err
		case "for":
			s, err := p.parseFor(false)
			return []ast.Stmt{s}, err
		case "while":
			s, err := p.parseWhile()
			return []ast.Stmt{s}, err
		case "def":
			s, err := p.parseFunctionDef(false)
			return []ast.Stmt{s}, err
		case "async":
			return p.parseAsyncStatement()
		case "try":
			s, err := p.parseTry()
			return []ast.Stmt{s}, err
		case "with":
			s, err := p.parseWith(false)
			return []ast.Stmt{s}, err
		case "class":
			return nil, p.errorf("class definitions are not supported")
		}
	}
	return p.parseSimpleStatementLine()
}

func (p *Parser) parseAsyncStatement() ([]ast.Stmt, error) {
	p.advance() // async
	switch {
	case p.isKeyword("def"):
		s, err := p.parseFunctionDef(true)
		return []ast.Stmt{s}, err
	case p.isKeyword("for"):
		s, err := p.parseFor(true)
		return []ast.Stmt{s}, err
	case p.isKeyword("with"):
		s, err := p.parseWith(true)
		return []ast.Stmt{s}, err
	default:
		return nil, p.errorf("expected def/for/with after async")
	}
}

// parseSimpleStatementLine parses one or more ';'-separated simple
// statements terminated by NEWLINE or EOF/DEDENT (for inline blocks).
func (p *Parser) parseSimpleStatementLine() ([]ast.Stmt, error) {
	var out []ast.Stmt
	for {
		s, err := p.parseSimpleStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.isOp(";") {
			p.advance()
			if p.cur().Kind == lexer.NEWLINE || p.atEOF() {
				break
			}
			continue
		}
		break
	}
	if p.cur().Kind == lexer.NEWLINE {
		p.advance()
	}
	return out, nil
}

func (p *Parser) parseSimpleStatement() (ast.Stmt, error) {
	pos := p.cur().Pos
	if p.cur().Kind == lexer.KEYWORD {
		switch p.cur().Text {
		case "pass":
			p.advance()
			return &ast.Pass{}, nil
		case "break":
			p.advance()
			return &ast.Break{}, nil
		case "continue":
			p.advance()
			return &ast.Continue{}, nil
		case "return":
			p.advance()
			if p.atEndOfSimpleStmt() {
				return &ast.Return{}, nil
			}
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			return &ast.Return{Value: v}, nil
		case "raise":
			p.advance()
			if p.atEndOfSimpleStmt() {
				return &ast.Raise{}, nil
			}
			exc, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			var cause ast.Expr
			if p.isKeyword("from") {
				p.advance()
				cause, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			return &ast.Raise{Exc: exc, Cause: cause}, nil
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		case "global":
			p.advance()
			names, err := p.parseNameList()
			return &ast.Global{Names: names}, err
		case "nonlocal":
			p.advance()
			names, err := p.parseNameList()
			return &ast.Nonlocal{Names: names}, err
		case "del":
			p.advance()
			// modeled as an expression statement calling __del__ on the
			// target; the evaluator defines no __del__, so evaluating a del
			// statement raises NameError.
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.ExprStmt{X: &ast.Call{Func: &ast.Name{Ident: "__del__"}, Args: []ast.Expr{x}}}, nil
		}
	}
	return p.parseExprOrAssign(pos)
}

func (p *Parser) atEndOfSimpleStmt() bool {
	return p.cur().Kind == lexer.NEWLINE || p.isOp(";") || p.atEOF() || p.cur().Kind == lexer.DEDENT
}

func (p *Parser) parseNameList() ([]string, error) {
	var names []string
	for {
		if p.cur().Kind != lexer.NAME {
			return nil, p.errorf("expected name")
		}
		names = append(names, p.advance().Text)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	return names, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	p.advance() // import
	var mods []ast.ImportAlias
	for {
		name := p.parseDottedName()
		alias := ""
		if p.isKeyword("as") {
			p.advance()
			alias = p.advance().Text
		}
		mods = append(mods, ast.ImportAlias{Name: name, Alias: alias})
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.Import{Modules: mods}, nil
}

func (p *Parser) parseImportFrom() (ast.Stmt, error) {
	p.advance() // from
	module := p.parseDottedName()
	if err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	var names []ast.ImportAlias
	paren := p.isOp("(")
	if paren {
		p.advance()
	}
	for {
		name := p.advance().Text
		alias := ""
		if p.isKeyword("as") {
			p.advance()
			alias = p.advance().Text
		}
		names = append(names, ast.ImportAlias{Name: name, Alias: alias})
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	if paren && p.isOp(")") {
		p.advance()
	}
	return &ast.ImportFrom{Module: module, Names: names}, nil
}

func (p *Parser) parseDottedName() string {
	var sb strings.Builder
	sb.WriteString(p.advance().Text)
	for p.isOp(".") {
		p.advance()
		sb.WriteString(".")
		sb.WriteString(p.advance().Text)
	}
	return sb.String()
}

// parseExprOrAssign handles expression statements, plain assignment
// (including chained `a = b = 1` and tuple/list unpacking targets), and
// augmented assignment.
func (p *Parser) parseExprOrAssign(pos int) (ast.Stmt, error) {
	first, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if aug := p.curAugOp(); aug != "" {
		p.advance()
		val, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &ast.AugAssign{Target: first, Op: aug, Value: val}, nil
	}
	if p.isOp("=") {
		targets := []ast.Expr{first}
		var value ast.Expr
		for p.isOp("=") {
			p.advance()
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			value = v
			if p.isOp("=") {
				targets = append(targets, value)
			}
		}
		return &ast.Assign{Targets: targets, Value: value}, nil
	}
	return &ast.ExprStmt{X: first}, nil
}

func (p *Parser) curAugOp() string {
	t := p.cur()
	if t.Kind != lexer.OP {
		return ""
	}
	switch t.Text {
	case "+=", "-=", "*=", "/=", "//=", "%=", "**=", "&=", "|=", "^=", "<<=", ">>=":
		return strings.TrimSuffix(t.Text, "=")
	}
	return ""
}

// parseExprList parses a comma-separated expression list, yielding a
// TupleExpr when more than one element is present (covers both tuple
// literals without parens and multi-target assignment).
func (p *Parser) parseExprList() (ast.Expr, error) {
	first, err := p.parseStarOrExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.advance()
		if p.atEndOfSimpleStmt() || p.isOp("=") || p.isOp(":") {
			break
		}
		e, err := p.parseStarOrExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &ast.TupleExpr{Elts: elts}, nil
}

func (p *Parser) parseStarOrExpr() (ast.Expr, error) {
	if p.isOp("*") {
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Starred{Value: v}, nil
	}
	return p.parseExpr()
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // if
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Test: test, Body: body}
	p.skipNewlines()
	if p.isKeyword("elif") {
		p.advance()
		// treat elif as nested if in Else, without consuming trailing newline logic twice
		test2, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body2, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		inner := &ast.If{Test: test2, Body: body2}
		p.skipNewlines()
		elseBody, err := p.parseElifChainTail()
		if err != nil {
			return nil, err
		}
		inner.Else = elseBody
		node.Else = []ast.Stmt{inner}
		return node, nil
	}
	if p.isKeyword("else") {
		p.advance()
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (p *Parser) parseElifChainTail() ([]ast.Stmt, error) {
	if p.isKeyword("elif") {
		p.advance()
		test, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		inner := &ast.If{Test: test, Body: body}
		p.skipNewlines()
		tail, err := p.parseElifChainTail()
		if err != nil {
			return nil, err
		}
		inner.Else = tail
		return []ast.Stmt{inner}, nil
	}
	if p.isKeyword("else") {
		p.advance()
		return p.parseBlock()
	}
	return nil, nil
}

func (p *Parser) parseFor(isAsync bool) (ast.Stmt, error) {
	p.advance() // for
	target, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.For{Target: target, Iter: iter, Body: body, IsAsync: isAsync}
	p.skipNewlines()
	if p.isKeyword("else") {
		p.advance()
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance()
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.While{Test: test, Body: body}
	p.skipNewlines()
	if p.isKeyword("else") {
		p.advance()
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (p *Parser) parseFunctionDef(isAsync bool) (ast.Stmt, error) {
	p.advance() // def
	if p.cur().Kind != lexer.NAME {
		return nil, p.errorf("expected function name")
	}
	name := p.advance().Text
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.isOp("->") {
		p.advance()
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Name: name, Params: params, Body: body, IsAsync: isAsync}, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	for !p.isOp(")") {
		pm := ast.Param{}
		if p.isOp("*") {
			p.advance()
			pm.IsArgs = true
		} else if p.isOp("**") {
			p.advance()
			pm.IsKwargs = true
		}
		if p.cur().Kind != lexer.NAME {
			return nil, p.errorf("expected parameter name")
		}
		pm.Name = p.advance().Text
		if p.isOp(":") {
			p.advance()
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
		}
		if p.isOp("=") {
			p.advance()
			def, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pm.Default = def
		}
		params = append(params, pm)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.Try{Body: body}
	p.skipNewlines()
	for p.isKeyword("except") {
		p.advance()
		var h ast.ExceptHandler
		if !p.isOp(":") {
			t, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			h.Type = t
			if p.isKeyword("as") {
				p.advance()
				h.Name = p.advance().Text
			}
		}
		hb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		h.Body = hb
		node.Handlers = append(node.Handlers, h)
		p.skipNewlines()
	}
	if p.isKeyword("else") {
		p.advance()
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = eb
		p.skipNewlines()
	}
	if p.isKeyword("finally") {
		p.advance()
		fb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Finally = fb
	}
	return node, nil
}

func (p *Parser) parseWith(isAsync bool) (ast.Stmt, error) {
	p.advance()
	var items []ast.WithItem
	for {
		ctx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := ast.WithItem{Context: ctx}
		if p.isKeyword("as") {
			p.advance()
			tgt, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item.Target = tgt
		}
		items = append(items, item)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.With{Items: items, Body: body, IsAsync: isAsync}, nil
}

// ---- Expressions (precedence climbing) ----

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, error) {
	if p.isKeyword("lambda") {
		return p.parseLambda()
	}
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("if") {
		p.advance()
		test, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("else"); err != nil {
			return nil, err
		}
		orelse, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.IfExp{Test: test, Body: body, Orelse: orelse}, nil
	}
	return body, nil
}

func (p *Parser) parseLambda() (ast.Expr, error) {
	p.advance()
	var params []ast.Param
	for !p.isOp(":") {
		pm := ast.Param{}
		if p.isOp("*") {
			p.advance()
			pm.IsArgs = true
		} else if p.isOp("**") {
			p.advance()
			pm.IsKwargs = true
		}
		pm.Name = p.advance().Text
		if p.isOp("=") {
			p.advance()
			def, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pm.Default = def
		}
		params = append(params, pm)
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Params: params, Body: body}, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("or") {
		vals := []ast.Expr{left}
		for p.isKeyword("or") {
			p.advance()
			v, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return &ast.BoolOp{Op: "or", Values: vals}, nil
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("and") {
		vals := []ast.Expr{left}
		for p.isKeyword("and") {
			p.advance()
			v, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return &ast.BoolOp{Op: "and", Values: vals}, nil
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.isKeyword("not") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []string
	var comps []ast.Expr
	for {
		op := ""
		switch {
		case p.isOp("=="):
			op = "=="
		case p.isOp("!="):
			op = "!="
		case p.isOp("<="):
			op = "<="
		case p.isOp(">="):
			op = ">="
		case p.isOp("<"):
			op = "<"
		case p.isOp(">"):
			op = ">"
		case p.isKeyword("in"):
			op = "in"
		case p.isKeyword("is"):
			p.advance()
			if p.isKeyword("not") {
				p.advance()
				c, err := p.parseBitOr()
				if err != nil {
					return nil, err
				}
				ops = append(ops, "is not")
				comps = append(comps, c)
				continue
			}
			c, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			ops = append(ops, "is")
			comps = append(comps, c)
			continue
		case p.isKeyword("not") && p.peekAt(1).Kind == lexer.KEYWORD && p.peekAt(1).Text == "in":
			p.advance()
			p.advance()
			c, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			ops = append(ops, "not in")
			comps = append(comps, c)
			continue
		default:
			if len(ops) == 0 {
				return left, nil
			}
			return &ast.Compare{Left: left, Ops: ops, Comps: comps}, nil
		}
		p.advance()
		c, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comps = append(comps, c)
	}
}

func (p *Parser) binaryLevel(next func() (ast.Expr, error), ops ...string) func() (ast.Expr, error) {
	return func() (ast.Expr, error) {
		left, err := next()
		if err != nil {
			return nil, err
		}
		for {
			matched := ""
			for _, op := range ops {
				if p.isOp(op) {
					matched = op
					break
				}
			}
			if matched == "" {
				return left, nil
			}
			p.advance()
			right, err := next()
			if err != nil {
				return nil, err
			}
			left = &ast.BinOp{Op: matched, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.binaryLevel(p.parseBitXor, "|")()
}
func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.binaryLevel(p.parseBitAnd, "^")()
}
func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.binaryLevel(p.parseShift, "&")()
}
func (p *Parser) parseShift() (ast.Expr, error) {
	return p.binaryLevel(p.parseAddSub, "<<", ">>")()
}
func (p *Parser) parseAddSub() (ast.Expr, error) {
	return p.binaryLevel(p.parseMulDiv, "+", "-")()
}
func (p *Parser) parseMulDiv() (ast.Expr, error) {
	return p.binaryLevel(p.parseUnary, "*", "/", "//", "%")()
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isOp("-") || p.isOp("+") || p.isOp("~") {
		op := p.advance().Text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, X: x}, nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseAwait()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.advance()
		right, err := p.parseUnary() // right-associative, binds tighter than unary on the right
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Op: "**", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAwait() (ast.Expr, error) {
	if p.isKeyword("await") {
		p.advance()
		x, err := p.parseAwait()
		if err != nil {
			return nil, err
		}
		return &ast.Await{Value: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			p.advance()
			name := p.advance().Text
			x = &ast.Attribute{Value: x, Attr: name}
		case p.isOp("("):
			p.advance()
			args, kwargs, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			x = &ast.Call{Func: x, Args: args, Kwargs: kwargs}
		case p.isOp("["):
			p.advance()
			sub, err := p.parseSubscript()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = sub(x)
		default:
			return x, nil
		}
	}
}

func (p *Parser) parseCallArgs() ([]ast.Expr, []ast.Keyword, error) {
	var args []ast.Expr
	var kwargs []ast.Keyword
	for !p.isOp(")") {
		if p.isOp("**") {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kwargs = append(kwargs, ast.Keyword{Value: v})
		} else if p.isOp("*") {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, &ast.Starred{Value: v})
		} else if p.cur().Kind == lexer.NAME && p.peekAt(1).Kind == lexer.OP && p.peekAt(1).Text == "=" {
			name := p.advance().Text
			p.advance() // =
			v, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kwargs = append(kwargs, ast.Keyword{Name: name, Value: v})
		} else {
			v, err := p.parseComprehensibleExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, v)
		}
		if p.isOp(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, nil, err
	}
	return args, kwargs, nil
}

// parseComprehensibleExpr parses an expression that might be the lone
// element of a generator expression passed directly as a call argument,
// e.g. sum(x for x in xs).
func (p *Parser) parseComprehensibleExpr() (ast.Expr, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		return &ast.Comp{Kind: ast.CompGenerator, Elt: e, Clauses: clauses}, nil
	}
	return e, nil
}

func (p *Parser) parseSubscript() (func(ast.Expr) ast.Expr, error) {
	var lower, upper, step ast.Expr
	var err error
	isSlice := false
	if !p.isOp(":") {
		lower, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.isOp(":") {
		isSlice = true
		p.advance()
		if !p.isOp(":") && !p.isOp("]") {
			upper, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if p.isOp(":") {
			p.advance()
			if !p.isOp("]") {
				step, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
		}
	}
	if isSlice {
		return func(x ast.Expr) ast.Expr {
			return &ast.Subscript{Value: x, Index: &ast.Slice{Lower: lower, Upper: upper, Step: step}}
		}, nil
	}
	return func(x ast.Expr) ast.Expr {
		return &ast.Subscript{Value: x, Index: lower}
	}, nil
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.NUMBER:
		p.advance()
		return parseNumberLit(tok)
	case lexer.STRING:
		p.advance()
		s := tok.Text
		// adjacent string literal concatenation
		for p.cur().Kind == lexer.STRING {
			s += p.advance().Text
		}
		return &ast.StringLit{Value: s}, nil
	case lexer.FSTRING:
		p.advance()
		return parseFString(tok.Text)
	case lexer.NAME:
		p.advance()
		return &ast.Name{Ident: tok.Text}, nil
	case lexer.KEYWORD:
		switch tok.Text {
		case "True":
			p.advance()
			return &ast.BoolLit{Value: true}, nil
		case "False":
			p.advance()
			return &ast.BoolLit{Value: false}, nil
		case "None":
			p.advance()
			return &ast.NoneLit{}, nil
		case "lambda":
			return p.parseLambda()
		case "await":
			return p.parseAwait()
		case "yield":
			p.advance()
			if p.atEndOfSimpleStmt() || p.isOp(")") {
				return &ast.Yield{}, nil
			}
			v, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			return &ast.Yield{Value: v}, nil
		}
	case lexer.OP:
		switch tok.Text {
		case "(":
			return p.parseParenOrTupleOrGenerator()
		case "[":
			return p.parseListOrComprehension()
		case "{":
			return p.parseSetOrDictOrComprehension()
		}
	}
	return nil, p.errorf("unexpected token %q", tok.Text)
}

func parseNumberLit(tok lexer.Token) (ast.Expr, error) {
	text := tok.Text
	if strings.HasSuffix(text, "F") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(text, "F"), 64)
		if err != nil {
			return nil, err
		}
		return &ast.NumberLit{IsFloat: true, Float: f}, nil
	}
	return &ast.NumberLit{IntText: text}, nil
}

func (p *Parser) parseParenOrTupleOrGenerator() (ast.Expr, error) {
	p.advance() // (
	if p.isOp(")") {
		p.advance()
		return &ast.TupleExpr{}, nil
	}
	first, err := p.parseStarOrExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &ast.Comp{Kind: ast.CompGenerator, Elt: first, Clauses: clauses}, nil
	}
	if p.isOp(",") {
		elts := []ast.Expr{first}
		for p.isOp(",") {
			p.advance()
			if p.isOp(")") {
				break
			}
			e, err := p.parseStarOrExpr()
			if err != nil {
				return nil, err
			}
			elts = append(elts, e)
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &ast.TupleExpr{Elts: elts}, nil
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return first, nil
}

func (p *Parser) parseListOrComprehension() (ast.Expr, error) {
	p.advance() // [
	if p.isOp("]") {
		p.advance()
		return &ast.ListExpr{}, nil
	}
	first, err := p.parseStarOrExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &ast.Comp{Kind: ast.CompList, Elt: first, Clauses: clauses}, nil
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.advance()
		if p.isOp("]") {
			break
		}
		e, err := p.parseStarOrExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &ast.ListExpr{Elts: elts}, nil
}

func (p *Parser) parseSetOrDictOrComprehension() (ast.Expr, error) {
	p.advance() // {
	if p.isOp("}") {
		p.advance()
		return &ast.DictExpr{}, nil
	}
	if p.isOp("**") {
		p.advance()
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		keys := []ast.Expr{nil}
		vals := []ast.Expr{v}
		for p.isOp(",") {
			p.advance()
			if p.isOp("}") {
				break
			}
			k, v, err := p.parseDictEntry()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &ast.DictExpr{Keys: keys, Values: vals}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isOp(":") {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("for") {
			clauses, err := p.parseCompClauses()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return &ast.Comp{Kind: ast.CompDict, Key: first, Value: val, Clauses: clauses}, nil
		}
		keys := []ast.Expr{first}
		vals := []ast.Expr{val}
		for p.isOp(",") {
			p.advance()
			if p.isOp("}") {
				break
			}
			k, v, err := p.parseDictEntry()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &ast.DictExpr{Keys: keys, Values: vals}, nil
	}
	if p.isKeyword("for") {
		clauses, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &ast.Comp{Kind: ast.CompSet, Elt: first, Clauses: clauses}, nil
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.advance()
		if p.isOp("}") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &ast.SetExpr{Elts: elts}, nil
}

func (p *Parser) parseDictEntry() (ast.Expr, ast.Expr, error) {
	if p.isOp("**") {
		p.advance()
		v, err := p.parseOr()
		return nil, v, err
	}
	k, err := p.parseExpr()
	if err != nil {
		return nil, nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, nil, err
	}
	v, err := p.parseExpr()
	return k, v, err
}

func (p *Parser) parseCompClauses() ([]ast.Comprehension, error) {
	var clauses []ast.Comprehension
	for p.isKeyword("for") || (p.isKeyword("async") && p.peekAt(1).Text == "for") {
		isAsync := false
		if p.isKeyword("async") {
			p.advance()
			isAsync = true
		}
		p.advance() // for
		target, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("in"); err != nil {
			return nil, err
		}
		iter, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		clause := ast.Comprehension{Target: target, Iter: iter, IsAsync: isAsync}
		for p.isKeyword("if") {
			p.advance()
			cond, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			clause.Ifs = append(clause.Ifs, cond)
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func parseFString(raw string) (ast.Expr, error) {
	fs := &ast.FString{}
	var lit strings.Builder
	i := 0
	flush := func() {
		if lit.Len() > 0 {
			fs.Parts = append(fs.Parts, ast.FStringPart{Text: lit.String()})
			lit.Reset()
		}
	}
	for i < len(raw) {
		c := raw[i]
		if c == '{' && i+1 < len(raw) && raw[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' && i+1 < len(raw) && raw[i+1] == '}' {
			lit.WriteByte('}')
			i += 2
			continue
		}
		if c == '{' {
			flush()
			depth := 1
			start := i + 1
			j := start
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto found
					}
				}
				j++
			}
		found:
			inner := raw[start:j]
			spec := ""
			if idx := strings.LastIndex(inner, ":"); idx >= 0 && !strings.ContainsAny(inner[idx:], "()[]") {
				spec = inner[idx+1:]
				inner = inner[:idx]
			}
			expr, err := Parse(inner)
			if err != nil {
				return nil, fmt.Errorf("invalid f-string expression %q: %w", inner, err)
			}
			if len(expr.Body) != 1 {
				return nil, fmt.Errorf("invalid f-string expression %q", inner)
			}
			es, ok := expr.Body[0].(*ast.ExprStmt)
			if !ok {
				return nil, fmt.Errorf("invalid f-string expression %q", inner)
			}
			fs.Parts = append(fs.Parts, ast.FStringPart{Expr: es.X, Spec: spec})
			i = j + 1
			continue
		}
		lit.WriteByte(c)
		i++
	}
	flush()
	return fs, nil
}
