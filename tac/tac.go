// Package tac lowers an annotated AST to three-address code: a flat,
// linear instruction sequence ready for the register-machine interpreter.
package tac

import (
	"fmt"
	"strings"

	"github.com/skx/cscc/ast"
)

// Op is the closed set of three-address opcodes the generator emits.
type Op string

const (
	// Declare records a variable's declared type; result is the name.
	Declare Op = "declare"

	// Assign copies arg1 (a literal or another name) into result.
	Assign Op = "="

	// Add through Pow are binary arithmetic operators: result := arg1 <op> arg2.
	Add Op = "+"
	Sub Op = "-"
	Mul Op = "*"
	Div Op = "/"
	Mod Op = "%"
	Pow Op = "^"

	// Lt through Ne are binary relational operators, boolean-valued.
	Lt Op = "<"
	Le Op = "<="
	Gt Op = ">"
	Ge Op = ">="
	Eq Op = "=="
	Ne Op = "!="

	// And and Or are binary logical operators.
	And Op = "&&"
	Or  Op = "||"

	// Not is the unary logical negation: result := not arg1.
	Not Op = "!"

	// Label marks a jump destination; result holds the label name.
	Label Op = "label"

	// Goto is an unconditional jump to result.
	Goto Op = "goto"

	// IfFalse jumps to result when arg1 is falsy, else falls through.
	IfFalse Op = "if_false"

	// Input reads a value into result.
	Input Op = "input"

	// Print emits arg1 to the output stream.
	Print Op = "print"

	// PrintNl emits a trailing newline, always issued once per cout statement.
	PrintNl Op = "print_nl"
)

// Instruction is one TAC quadruple. Fields unused by an opcode are left
// as the empty string.
type Instruction struct {
	Op     Op
	Arg1   string
	Arg2   string
	Result string
}

// Format renders a single instruction the way a listing shows it, mirroring
// the reference implementation's per-opcode formatting rules.
func (i Instruction) Format() string {
	switch i.Op {
	case Label:
		return i.Result + ":"
	case Goto:
		return "goto " + i.Result
	case IfFalse:
		return fmt.Sprintf("ifFalse %s goto %s", i.Arg1, i.Result)
	case Input:
		return "input -> " + i.Result
	case Print:
		return "print " + i.Arg1
	case Declare:
		return fmt.Sprintf("declare %s : %s", i.Result, i.Arg1)
	case PrintNl:
		return "print_nl"
	}
	if i.Arg2 == "" {
		if i.Op == Assign {
			return fmt.Sprintf("%s = %s", i.Result, i.Arg1)
		}
		return fmt.Sprintf("%s = %s %s", i.Result, i.Op, i.Arg1)
	}
	return fmt.Sprintf("%s = %s %s %s", i.Result, i.Arg1, i.Op, i.Arg2)
}

// Format renders a full instruction listing, one line per instruction,
// numbered except for labels which print as bare "Lxx:" lines.
func Format(instructions []Instruction) string {
	if len(instructions) == 0 {
		return "no intermediate code."
	}
	var sb strings.Builder
	for idx, inst := range instructions {
		if inst.Op == Label {
			sb.WriteString(inst.Format())
		} else {
			fmt.Fprintf(&sb, "%03d: %s", idx, inst.Format())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// expressionKinds lists the AST node kinds the generator knows how to
// lower as an expression, used to pick expression children out from
// sibling keyword/punctuation nodes.
var expressionKinds = map[string]bool{
	"arit_op": true, "rel_op": true, "op_logico": true, "log_op": true,
	"num_entero": true, "num_flotante": true, "bool_val": true,
	"cadena": true, "id": true, "ID": true, "pot_op": true,
}

// Generator walks an AST in source order, emitting one instruction
// sequence for the whole program.
type Generator struct {
	instructions []Instruction
	tempCounter  int
	labelCounter int
}

// NewGenerator creates an empty Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate lowers root to a TAC instruction sequence. A nil root yields no
// instructions.
func Generate(root *ast.Node) []Instruction {
	g := NewGenerator()
	g.genNode(root)
	return g.instructions
}

func (g *Generator) newTemp() string {
	g.tempCounter++
	return fmt.Sprintf("_t%d", g.tempCounter)
}

func (g *Generator) newLabel(hint string) string {
	g.labelCounter++
	return fmt.Sprintf("%s%d", hint, g.labelCounter)
}

func (g *Generator) emit(op Op, arg1, arg2, result string) {
	g.instructions = append(g.instructions, Instruction{Op: op, Arg1: arg1, Arg2: arg2, Result: result})
}

func (g *Generator) genNode(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case "programa", "lista_declaracion", "lista_sentencias":
		for _, c := range n.Children {
			g.genNode(c)
		}
	case "int", "float", "bool":
		g.genDeclaration(n, n.Kind)
	case "ASIGNACION":
		g.genAsignacion(n)
	case "seleccion":
		g.genSeleccion(n)
	case "iteracion":
		g.genIteracion(n)
	case "repeticion":
		g.genRepeticion(n)
	case "sent_in":
		g.genSentIn(n)
	case "sent_out":
		g.genSentOut(n)
	default:
		for _, c := range n.Children {
			g.genNode(c)
		}
	}
}

func (g *Generator) genDeclaration(n *ast.Node, declaredType string) {
	for _, child := range n.Children {
		if child.Kind == "ID" {
			g.emit(Declare, declaredType, "", child.Value)
		}
	}
}

func (g *Generator) genAsignacion(n *ast.Node) {
	if len(n.Children) == 0 {
		return
	}
	target := n.Children[0]
	var expr *ast.Node
	if len(n.Children) > 1 {
		expr = n.Children[1]
	}
	value := g.genExpr(expr)
	g.emit(Assign, value, "", target.Value)
}

func firstExprChild(children []*ast.Node, skip map[string]bool) *ast.Node {
	for _, c := range children {
		if c.Kind == "lista_sentencias" {
			continue
		}
		if !skip[c.Kind] {
			return c
		}
	}
	return nil
}

func (g *Generator) genSeleccion(n *ast.Node) {
	skip := map[string]bool{"if": true, "then": true, "else": true, "end": true}
	expr := firstExprChild(n.Children, skip)

	var thenBlock, elseBlock *ast.Node
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			if thenBlock == nil {
				thenBlock = c
			} else if elseBlock == nil {
				elseBlock = c
			}
		}
	}

	cond := g.genExpr(expr)
	labelElse := g.newLabel("Lelse")
	labelEnd := labelElse
	if elseBlock != nil {
		labelEnd = g.newLabel("Lendif")
	}
	g.emit(IfFalse, cond, "", labelElse)
	if thenBlock != nil {
		g.genNode(thenBlock)
	}
	if elseBlock != nil {
		g.emit(Goto, "", "", labelEnd)
	}
	g.emit(Label, "", "", labelElse)
	if elseBlock != nil {
		g.genNode(elseBlock)
		g.emit(Label, "", "", labelEnd)
	}
}

func (g *Generator) genIteracion(n *ast.Node) {
	start := g.newLabel("Lwhile")
	end := g.newLabel("Lwend")
	g.emit(Label, "", "", start)

	skip := map[string]bool{"while": true, "end": true}
	expr := firstExprChild(n.Children, skip)
	var body *ast.Node
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			body = c
			break
		}
	}

	cond := g.genExpr(expr)
	g.emit(IfFalse, cond, "", end)
	if body != nil {
		g.genNode(body)
	}
	g.emit(Goto, "", "", start)
	g.emit(Label, "", "", end)
}

func (g *Generator) genRepeticion(n *ast.Node) {
	start := g.newLabel("Ldo")
	g.emit(Label, "", "", start)

	var body *ast.Node
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			body = c
			break
		}
	}
	if body != nil {
		g.genNode(body)
	}

	skip := map[string]bool{"do": true, "until": true}
	expr := firstExprChild(n.Children, skip)
	cond := g.genExpr(expr)
	g.emit(IfFalse, cond, "", start)
}

func (g *Generator) genSentIn(n *ast.Node) {
	for _, child := range n.Children {
		if child.Kind == "id" || child.Kind == "ID" {
			g.emit(Input, "", "", child.Value)
			break
		}
	}
}

func (g *Generator) genSentOut(n *ast.Node) {
	for _, child := range n.Children {
		if child.Kind == "cadena" {
			g.emit(Print, child.Value, "", "")
		} else if expressionKinds[child.Kind] {
			temp := g.genExpr(child)
			g.emit(Print, temp, "", "")
		}
	}
	g.emit(PrintNl, "", "", "")
}

// genExpr lowers an expression subtree, returning the operand text a
// parent instruction should reference: a literal, an identifier name, or
// a freshly emitted temporary.
func (g *Generator) genExpr(n *ast.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case "num_entero", "num_flotante":
		return n.Value
	case "bool_val":
		return n.Value
	case "cadena":
		return n.Value
	case "id", "ID":
		return n.Value
	case "log_op":
		var operand string
		if len(n.Children) > 0 {
			operand = g.genExpr(n.Children[0])
		}
		temp := g.newTemp()
		g.emit(Op(n.Value), operand, "", temp)
		return temp
	case "arit_op", "rel_op", "op_logico", "pot_op":
		var left, right string
		if len(n.Children) > 0 {
			left = g.genExpr(n.Children[0])
		}
		if len(n.Children) > 1 {
			right = g.genExpr(n.Children[1])
		}
		temp := g.newTemp()
		g.emit(Op(n.Value), left, right, temp)
		return temp
	}
	var last string
	for _, c := range n.Children {
		last = g.genExpr(c)
	}
	return last
}
