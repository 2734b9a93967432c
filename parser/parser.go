// Package parser implements the recursive-descent parser: a token stream
// goes in, an AST plus a list of syntax errors comes out. The parser never
// aborts early -- on a mismatch it records a diagnostic, resynchronizes on
// a fixed token set, and keeps going.
package parser

import (
	"fmt"

	"github.com/skx/cscc/ast"
	"github.com/skx/cscc/token"
)

// Error describes a single syntax problem discovered while parsing.
type Error struct {
	Line        int
	Column      int
	Description string
}

func (e Error) String() string {
	return fmt.Sprintf("Linea %d, columna %d: %s", e.Line, e.Column, e.Description)
}

// synchronizers is the fixed panic-mode recovery set.
var synchronizers = map[string]bool{
	";": true, "}": true, "end": true, "while": true, "do": true,
	"if": true, "else": true, "cin": true, "cout": true, "then": true,
	"main": true, "int": true, "float": true, "bool": true, "until": true,
}

// Parser holds our object-state: a left-to-right scan over a filtered
// token slice.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []Error
}

// New creates a Parser over tokens, filtering out Comment and Error kinds
// exactly once -- downstream grammar productions never see them.
func New(tokens []token.Token) *Parser {
	filtered := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == token.Comment || t.Kind == token.Error {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Parser{tokens: filtered}
}

// Parse runs the parser over a scanner token stream (Comment and Error
// tokens are dropped first, see New) and returns the resulting AST plus
// syntax errors.
func Parse(tokens []token.Token) (*ast.Node, []Error) {
	p := New(tokens)
	root := p.programa()
	return root, p.errors
}

func (p *Parser) current() *token.Token {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) addError(description string) {
	cur := p.current()
	if cur != nil {
		p.errors = append(p.errors, Error{Line: cur.Line, Column: cur.Column, Description: description})
		return
	}
	last := Error{Description: description}
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		prev := p.tokens[p.pos-1]
		last.Line, last.Column = prev.Line, prev.Column
	}
	p.errors = append(p.errors, last)
}

// match consumes and returns the current token if it has the expected kind
// (and, when lexeme is non-empty, the expected lexeme). On mismatch it
// records a diagnostic and resynchronizes on the fixed synchronizing set.
func (p *Parser) match(kind token.Kind, lexeme string) *token.Token {
	cur := p.current()
	if cur != nil && cur.Kind == kind && (lexeme == "" || cur.Lexeme == lexeme) {
		p.advance()
		return cur
	}

	if cur != nil {
		expected := lexeme
		if expected == "" {
			expected = string(kind)
		}
		p.addError(fmt.Sprintf("expected '%s' but found '%s' (%s)", expected, cur.Lexeme, cur.Kind))
		for p.current() != nil && !synchronizers[p.current().Lexeme] {
			p.advance()
		}
		if p.current() != nil && synchronizers[p.current().Lexeme] {
			p.advance()
		}
	} else {
		expected := lexeme
		if expected == "" {
			expected = string(kind)
		}
		p.addError(fmt.Sprintf("unexpected end of input, expected '%s'", expected))
	}
	return nil
}

func nodeFromToken(t *token.Token, kind, grammar string) *ast.Node {
	return &ast.Node{Kind: kind, Value: t.Lexeme, Line: t.Line, Column: t.Column, Grammar: grammar}
}

func (p *Parser) programa() *ast.Node {
	node := &ast.Node{Kind: "programa", Grammar: "programa"}

	mainTok := p.match(token.Reserved, "main")
	if mainTok == nil {
		return node
	}
	node.AddChild(nodeFromToken(mainTok, "main", "programa"))

	open := p.match(token.Delimiter, "{")
	if open == nil {
		return node
	}
	node.AddChild(nodeFromToken(open, "{", "programa"))

	node.AddChild(p.listaDeclaracion())

	close_ := p.match(token.Delimiter, "}")
	if close_ == nil {
		return node
	}
	node.AddChild(nodeFromToken(close_, "}", "programa"))
	return node
}

func (p *Parser) listaDeclaracion() *ast.Node {
	node := &ast.Node{Kind: "lista_declaracion"}
	for {
		cur := p.current()
		if cur == nil || cur.Lexeme == "}" {
			break
		}

		var child *ast.Node
		if cur.Kind == token.Reserved && (cur.Lexeme == "int" || cur.Lexeme == "float" || cur.Lexeme == "bool") {
			child = p.declaracionVariable()
		} else {
			child = p.sentencia()
		}

		if child != nil {
			node.AddChild(child)
		} else {
			break
		}
	}
	return node
}

func (p *Parser) declaracionVariable() *ast.Node {
	tipo := p.match(token.Reserved, "")
	if tipo == nil {
		return nil
	}
	node := &ast.Node{Kind: tipo.Lexeme, Line: tipo.Line, Column: tipo.Column}

	if id := p.match(token.Identifier, ""); id != nil {
		node.AddChild(nodeFromToken(id, "ID", ""))
	}

	for p.current() != nil && p.current().Lexeme == "," {
		p.match(token.Delimiter, ",")
		if id := p.match(token.Identifier, ""); id != nil {
			node.AddChild(nodeFromToken(id, "ID", ""))
		}
	}

	p.match(token.Delimiter, ";")
	return node
}

func (p *Parser) sentencia() *ast.Node {
	cur := p.current()
	if cur == nil {
		return nil
	}
	switch cur.Kind {
	case token.Identifier:
		return p.asignacion()
	case token.Reserved:
		switch cur.Lexeme {
		case "if":
			return p.seleccion()
		case "while":
			return p.iteracion()
		case "do":
			return p.repeticion()
		case "cin":
			return p.sentIn()
		case "cout":
			return p.sentOut()
		}
	}
	return nil
}

func (p *Parser) seleccion() *ast.Node {
	node := &ast.Node{Kind: "seleccion", Grammar: "seleccion"}
	if tok := p.match(token.Reserved, "if"); tok != nil {
		node.AddChild(nodeFromToken(tok, "if", "seleccion"))
	}
	if expr := p.expresion(); expr != nil {
		node.AddChild(expr)
	}
	if tok := p.match(token.Reserved, "then"); tok != nil {
		node.AddChild(nodeFromToken(tok, "then", "seleccion"))
	}
	node.AddChild(p.listaSentencias())

	if cur := p.current(); cur != nil && cur.Lexeme == "else" {
		if tok := p.match(token.Reserved, "else"); tok != nil {
			node.AddChild(nodeFromToken(tok, "else", "seleccion"))
			node.AddChild(p.listaSentencias())
		}
	}
	if tok := p.match(token.Reserved, "end"); tok != nil {
		node.AddChild(nodeFromToken(tok, "end", "seleccion"))
	}
	return node
}

func (p *Parser) iteracion() *ast.Node {
	node := &ast.Node{Kind: "iteracion", Grammar: "iteracion"}
	if tok := p.match(token.Reserved, "while"); tok != nil {
		node.AddChild(nodeFromToken(tok, "while", "iteracion"))
	}
	if expr := p.expresion(); expr != nil {
		node.AddChild(expr)
	}
	node.AddChild(p.listaSentencias())
	if tok := p.match(token.Reserved, "end"); tok != nil {
		node.AddChild(nodeFromToken(tok, "end", "iteracion"))
	}
	return node
}

func (p *Parser) repeticion() *ast.Node {
	node := &ast.Node{Kind: "repeticion", Grammar: "repeticion"}
	if tok := p.match(token.Reserved, "do"); tok != nil {
		node.AddChild(nodeFromToken(tok, "do", "repeticion"))
	}
	node.AddChild(p.listaSentencias())
	if tok := p.match(token.Reserved, "until"); tok != nil {
		node.AddChild(nodeFromToken(tok, "until", "repeticion"))
	}
	if expr := p.expresion(); expr != nil {
		node.AddChild(expr)
	}
	return node
}

func (p *Parser) sentIn() *ast.Node {
	node := &ast.Node{Kind: "sent_in", Grammar: "sent_in"}
	if tok := p.match(token.Reserved, "cin"); tok != nil {
		node.AddChild(nodeFromToken(tok, "cin", "sent_in"))
	}
	if tok := p.match(token.IoOp, ">>"); tok != nil {
		node.AddChild(nodeFromToken(tok, ">>", "sent_in"))
	}
	if id := p.match(token.Identifier, ""); id != nil {
		node.AddChild(nodeFromToken(id, "id", "sent_in"))
	}
	if tok := p.match(token.Delimiter, ";"); tok != nil {
		node.AddChild(nodeFromToken(tok, ";", "sent_in"))
	}
	return node
}

// sentOut parses 'cout' ('<<' (string | expresion))+ ';'. At least one
// '<<' item is required -- a bare 'cout ;' is a syntax error.
func (p *Parser) sentOut() *ast.Node {
	node := &ast.Node{Kind: "sent_out", Grammar: "sent_out"}
	coutTok := p.match(token.Reserved, "cout")
	if coutTok != nil {
		node.AddChild(nodeFromToken(coutTok, "cout", "sent_out"))
	}

	items := 0
	for p.current() != nil && p.current().Lexeme == "<<" {
		op := p.match(token.IoOp, "<<")
		if op != nil {
			node.AddChild(nodeFromToken(op, "<<", "salida"))
		}
		cur := p.current()
		if cur != nil && cur.Kind == token.StringLit {
			node.AddChild(nodeFromToken(cur, "cadena", "salida"))
			p.advance()
		} else if expr := p.expresion(); expr != nil {
			node.AddChild(expr)
		}
		items++
	}
	if items == 0 {
		p.addError("expected at least one '<<' item after 'cout'")
	}

	if tok := p.match(token.Delimiter, ";"); tok != nil {
		node.AddChild(nodeFromToken(tok, ";", "sent_out"))
	}
	return node
}

// asignacion parses 'ID' ('=' expresion | '++' | '--') ';'. ++/-- desugar
// to an ASIGNACION over arit_op(id, 1) per the normalized AST shape.
func (p *Parser) asignacion() *ast.Node {
	idTok := p.match(token.Identifier, "")
	if idTok == nil {
		return nil
	}

	opTok := p.current()
	if opTok == nil || opTok.Kind != token.Assign {
		p.addError(fmt.Sprintf("expected assignment operator after '%s'", idTok.Lexeme))
		return nil
	}
	p.advance()

	if opTok.Lexeme == "++" || opTok.Lexeme == "--" {
		aritOp := "+"
		if opTok.Lexeme == "--" {
			aritOp = "-"
		}
		aritNode := &ast.Node{Kind: "arit_op", Value: aritOp, Line: opTok.Line, Column: opTok.Column}
		aritNode.AddChild(nodeFromToken(idTok, "ID", ""))
		aritNode.AddChild(&ast.Node{Kind: "num_entero", Value: "1", Line: opTok.Line, Column: opTok.Column})

		assignNode := &ast.Node{Kind: "ASIGNACION", Value: "=", Line: opTok.Line, Column: opTok.Column}
		assignNode.AddChild(nodeFromToken(idTok, "ID", ""))
		assignNode.AddChild(aritNode)

		p.match(token.Delimiter, ";")
		return assignNode
	}

	node := &ast.Node{Kind: "ASIGNACION", Value: opTok.Lexeme, Line: opTok.Line, Column: opTok.Column}
	node.AddChild(nodeFromToken(idTok, "ID", ""))
	if expr := p.expresion(); expr != nil {
		node.AddChild(expr)
	}
	p.match(token.Delimiter, ";")
	return node
}

func (p *Parser) listaSentencias() *ast.Node {
	node := &ast.Node{Kind: "lista_sentencias", Grammar: "lista_sentencias"}
	for {
		cur := p.current()
		if cur == nil || cur.Lexeme == "end" || cur.Lexeme == "else" || cur.Lexeme == "until" || cur.Lexeme == "}" {
			break
		}
		sent := p.sentencia()
		if sent != nil {
			node.AddChild(sent)
		} else {
			break
		}
	}
	return node
}

// expresion → expr_rel (LOG_OP expr_rel)*, left-associative.
func (p *Parser) expresion() *ast.Node {
	node := p.expresionRelacional()
	if node == nil {
		return nil
	}
	for cur := p.current(); cur != nil && cur.Kind == token.LogicOp && cur.Lexeme != "!"; cur = p.current() {
		opTok := *cur
		p.advance()
		right := p.expresionRelacional()
		if right == nil {
			p.addError(fmt.Sprintf("expected an expression after logical operator '%s'", opTok.Lexeme))
			break
		}
		opNode := nodeFromToken(&opTok, "op_logico", "expresion")
		opNode.AddChild(node)
		opNode.AddChild(right)
		node = opNode
	}
	return node
}

// expresionRelacional → expr_add (REL_OP expr_add)?, non-associative.
func (p *Parser) expresionRelacional() *ast.Node {
	node := p.expresionSimple()
	if node == nil {
		return nil
	}
	if cur := p.current(); cur != nil && cur.Kind == token.RelOp {
		opTok := *cur
		p.advance()
		right := p.expresionSimple()
		if right == nil {
			p.addError(fmt.Sprintf("expected an expression after relational operator '%s'", opTok.Lexeme))
			return node
		}
		opNode := nodeFromToken(&opTok, "rel_op", "expresion_relacional")
		opNode.AddChild(node)
		opNode.AddChild(right)
		return opNode
	}
	return node
}

// expresionSimple → termino (('+'|'-') termino)*, left-associative.
func (p *Parser) expresionSimple() *ast.Node {
	node := p.termino()
	if node == nil {
		return nil
	}
	for cur := p.current(); cur != nil && cur.Kind == token.ArithOp && (cur.Lexeme == "+" || cur.Lexeme == "-"); cur = p.current() {
		opTok := *cur
		p.advance()
		right := p.termino()
		if right == nil {
			p.addError(fmt.Sprintf("expected a term after operator '%s'", opTok.Lexeme))
			break
		}
		opNode := nodeFromToken(&opTok, "arit_op", "expresion_simple")
		opNode.AddChild(node)
		opNode.AddChild(right)
		node = opNode
	}
	return node
}

// termino → factor (('*'|'/'|'%') factor)*, left-associative.
func (p *Parser) termino() *ast.Node {
	node := p.factor()
	if node == nil {
		return nil
	}
	for cur := p.current(); cur != nil && cur.Kind == token.ArithOp && (cur.Lexeme == "*" || cur.Lexeme == "/" || cur.Lexeme == "%"); cur = p.current() {
		opTok := *cur
		p.advance()
		right := p.factor()
		if right == nil {
			p.addError(fmt.Sprintf("expected a component after operator '%s'", opTok.Lexeme))
			break
		}
		opNode := nodeFromToken(&opTok, "arit_op", "termino")
		opNode.AddChild(node)
		opNode.AddChild(right)
		node = opNode
	}
	return node
}

// factor → componente ('^' componente)*, built right-associatively: '^'
// is the only right-associative operator in the grammar.
func (p *Parser) factor() *ast.Node {
	node := p.componente()
	if node == nil {
		return nil
	}
	if cur := p.current(); cur != nil && cur.Lexeme == "^" {
		opTok := *cur
		p.advance()
		right := p.factor()
		if right == nil {
			p.addError("expected a component after operator '^'")
			return node
		}
		opNode := nodeFromToken(&opTok, "pot_op", "factor")
		opNode.AddChild(node)
		opNode.AddChild(right)
		return opNode
	}
	return node
}

func (p *Parser) componente() *ast.Node {
	cur := p.current()
	if cur == nil {
		return nil
	}

	switch {
	case cur.Lexeme == "(":
		p.advance()
		node := p.expresion()
		if p.match(token.Delimiter, ")") == nil {
			if c := p.current(); c != nil {
				p.addError(fmt.Sprintf("expected ')' but found '%s'", c.Lexeme))
			}
		}
		return node

	case cur.Kind == token.IntLit:
		node := nodeFromToken(cur, "num_entero", "componente")
		p.advance()
		return node

	case cur.Kind == token.FloatLit:
		node := nodeFromToken(cur, "num_flotante", "componente")
		p.advance()
		return node

	case cur.Kind == token.Identifier:
		node := nodeFromToken(cur, "id", "componente")
		p.advance()
		return node

	case cur.Kind == token.Reserved && (cur.Lexeme == "true" || cur.Lexeme == "false"):
		node := nodeFromToken(cur, "bool_val", "componente")
		p.advance()
		return node

	case cur.Kind == token.LogicOp && cur.Lexeme == "!":
		opTok := *cur
		p.advance()
		node := nodeFromToken(&opTok, "log_op", "componente")
		comp := p.componente()
		if comp != nil {
			node.AddChild(comp)
		} else {
			p.addError("expected a component after logical operator '!'")
		}
		return node
	}

	return nil
}
