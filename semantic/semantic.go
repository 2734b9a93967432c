// Package semantic implements the scope-aware semantic analyzer: it walks
// an AST in source order, building a symbol table, checking types, folding
// constants into semType/semValue annotations, and collecting diagnostics.
package semantic

import (
	"fmt"
	"math"
	"strconv"

	"github.com/skx/cscc/ast"
	"github.com/skx/cscc/symtab"
)

// Error describes a single semantic problem.
type Error struct {
	Line        int
	Column      int
	Description string
}

func (e Error) String() string {
	if e.Line == 0 && e.Column == 0 {
		return e.Description
	}
	return fmt.Sprintf("Linea %d, columna %d: %s", e.Line, e.Column, e.Description)
}

// expressionNodes mirrors the set of node kinds that evaluateExpression
// knows how to type, used by visitSentOut to pick out the expression
// children among sibling punctuation nodes.
var expressionNodes = map[string]bool{
	"arit_op": true, "rel_op": true, "op_logico": true, "log_op": true,
	"num_entero": true, "num_flotante": true, "bool_val": true,
	"cadena": true, "id": true, "ID": true, "pot_op": true,
}

// Result bundles everything the analyzer produces.
type Result struct {
	Tree   *ast.Node
	Table  *symtab.SymbolTable
	Errors []Error
}

// Analyzer walks an AST and annotates it in place.
type Analyzer struct {
	table  *symtab.SymbolTable
	errors []Error
}

// NewAnalyzer creates an analyzer with a fresh symbol table.
func NewAnalyzer() *Analyzer {
	return &Analyzer{table: symtab.New()}
}

// Analyze runs semantic analysis over root and returns the annotated tree
// (mutated in place), the resulting symbol table, and the diagnostics
// collected along the way.
func Analyze(root *ast.Node) Result {
	a := NewAnalyzer()
	if root == nil {
		a.errors = append(a.errors, Error{Description: "no AST available for semantic analysis"})
		return Result{Tree: root, Table: a.table, Errors: a.errors}
	}
	a.visit(root)
	return Result{Tree: root, Table: a.table, Errors: a.errors}
}

func (a *Analyzer) reportNode(n *ast.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if n != nil {
		a.errors = append(a.errors, Error{Line: n.Line, Column: n.Column, Description: msg})
		return
	}
	a.errors = append(a.errors, Error{Description: msg})
}

// visit dispatches on node kind, mirroring the analyzer's visitor table;
// any kind without a dedicated handler simply recurses into its children.
func (a *Analyzer) visit(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case "programa":
		for _, c := range n.Children {
			a.visit(c)
		}
	case "lista_declaracion", "lista_sentencias":
		for _, c := range n.Children {
			a.visit(c)
		}
	case "int", "float", "bool":
		a.handleDeclaration(n, n.Kind)
	case "ASIGNACION":
		a.visitAsignacion(n)
	case "seleccion":
		a.visitSeleccion(n)
	case "iteracion":
		a.visitIteracion(n)
	case "repeticion":
		a.visitRepeticion(n)
	case "sent_in":
		a.visitSentIn(n)
	case "sent_out":
		a.visitSentOut(n)
	default:
		for _, c := range n.Children {
			a.visit(c)
		}
	}
}

func (a *Analyzer) handleDeclaration(n *ast.Node, declaredType string) {
	n.SemType = declaredType
	for _, child := range n.Children {
		if child.Kind == "ID" {
			_, err := a.table.Declare(child.Value, declaredType, child.Line, child.Column)
			if err != nil {
				a.reportNode(child, "%s", err.Error())
			} else {
				child.SemType = declaredType
			}
		} else {
			a.visit(child)
		}
	}
}

func (a *Analyzer) visitAsignacion(n *ast.Node) {
	if len(n.Children) == 0 {
		return
	}
	target := n.Children[0]
	var expr *ast.Node
	if len(n.Children) > 1 {
		expr = n.Children[1]
	}

	var entry *symtab.Entry
	if target.Kind == "ID" || target.Kind == "id" {
		entry = a.table.Lookup(target.Value)
		if entry == nil {
			a.reportNode(target, "variable '%s' not declared before assignment", target.Value)
		} else {
			target.SemType = entry.Type
			target.SemValue = entry.Value
			entry.RecordLine(target.Line)
		}
	}

	exprType, exprValue := a.evaluateExpression(expr)
	if entry != nil && exprType != "" {
		if isAssignmentCompatible(entry.Type, exprType) {
			if exprValue != nil {
				if iv, ok := exprValue.(int); ok && entry.Type == "float" {
					exprValue = float64(iv)
				}
				entry.Value = exprValue
				target.SemValue = exprValue
			}
		} else {
			a.reportNode(n, "incompatible types in assignment to '%s': expected %s, got %s", entry.Name, entry.Type, exprType)
		}
	}
	if entry != nil {
		n.SemType = entry.Type
		n.SemValue = entry.Value
	}
}

// firstNonKeywordExpr finds the first child that isn't one of the listed
// keyword-punctuation kinds and isn't a lista_sentencias block.
func firstNonKeywordExpr(children []*ast.Node, skip map[string]bool) *ast.Node {
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

func (a *Analyzer) visitSeleccion(n *ast.Node) {
	skip := map[string]bool{"if": true, "then": true, "else": true, "end": true}
	expr := firstNonKeywordExpr(n.Children, skip)
	exprType, _ := a.evaluateExpression(expr)
	if exprType != "" && exprType != "bool" {
		a.reportNode(expr, "the 'if' condition must be bool, got %s", exprType)
	}

	var blocks []*ast.Node
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			blocks = append(blocks, c)
		}
	}
	if len(blocks) > 0 {
		a.visitBlock(blocks[0], "if_then")
	}
	if len(blocks) > 1 {
		a.visitBlock(blocks[1], "if_else")
	}
	n.SemType = "void"
}

func (a *Analyzer) visitIteracion(n *ast.Node) {
	skip := map[string]bool{"while": true, "end": true}
	expr := firstNonKeywordExpr(n.Children, skip)
	exprType, _ := a.evaluateExpression(expr)
	if exprType != "" && exprType != "bool" {
		a.reportNode(expr, "the 'while' condition must be bool, got %s", exprType)
	}
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			a.visitBlock(c, "while_body")
			break
		}
	}
	n.SemType = "void"
}

func (a *Analyzer) visitRepeticion(n *ast.Node) {
	for _, c := range n.Children {
		if c.Kind == "lista_sentencias" {
			a.visitBlock(c, "do_body")
			break
		}
	}
	skip := map[string]bool{"do": true, "until": true}
	expr := firstNonKeywordExpr(n.Children, skip)
	exprType, _ := a.evaluateExpression(expr)
	if exprType != "" && exprType != "bool" {
		a.reportNode(expr, "the 'until' condition must be bool, got %s", exprType)
	}
	n.SemType = "void"
}

func (a *Analyzer) visitSentIn(n *ast.Node) {
	for _, child := range n.Children {
		if child.Kind == "id" || child.Kind == "ID" {
			entry := a.table.Lookup(child.Value)
			if entry == nil {
				a.reportNode(child, "variable '%s' not declared for input", child.Value)
			} else {
				child.SemType = entry.Type
				child.SemValue = entry.Value
				entry.RecordLine(child.Line)
			}
		}
	}
	n.SemType = "void"
}

func (a *Analyzer) visitSentOut(n *ast.Node) {
	for _, child := range n.Children {
		switch {
		case child.Kind == "cadena":
			child.SemType = "string"
			child.SemValue = child.Value
		case child.Kind == "id" || child.Kind == "ID":
			a.evaluateExpression(child)
		case expressionNodes[child.Kind]:
			a.evaluateExpression(child)
		}
	}
	n.SemType = "void"
}

func (a *Analyzer) visitBlock(n *ast.Node, hint string) {
	a.table.EnterScope(hint)
	defer a.table.ExitScope()
	for _, c := range n.Children {
		a.visit(c)
	}
}

// evaluateExpression types (and, where possible, folds) an expression
// subtree, returning its type and its statically known value (nil if
// unknown). It is the semantic counterpart of the parser's expression
// grammar: literals, identifiers, arit_op/rel_op/op_logico/log_op/pot_op.
func (a *Analyzer) evaluateExpression(n *ast.Node) (string, any) {
	if n == nil {
		return "", nil
	}

	switch n.Kind {
	case "num_entero":
		v, err := strconv.Atoi(n.Value)
		n.SemType = "int"
		if err == nil {
			n.SemValue = v
			return "int", v
		}
		return "int", nil

	case "num_flotante":
		v, err := strconv.ParseFloat(n.Value, 64)
		n.SemType = "float"
		if err == nil {
			n.SemValue = v
			return "float", v
		}
		return "float", nil

	case "bool_val":
		v := n.Value == "true"
		n.SemType = "bool"
		n.SemValue = v
		return "bool", v

	case "cadena":
		n.SemType = "string"
		n.SemValue = n.Value
		return "string", n.Value

	case "id", "ID":
		entry := a.table.Lookup(n.Value)
		if entry == nil {
			a.reportNode(n, "identifier '%s' not declared", n.Value)
			n.SemType = ""
			n.SemValue = nil
			return "", nil
		}
		entry.RecordLine(n.Line)
		n.SemType = entry.Type
		n.SemValue = entry.Value
		return entry.Type, entry.Value

	case "arit_op", "pot_op":
		return a.evaluateArithmetic(n)

	case "rel_op":
		return a.evaluateRelational(n)

	case "op_logico":
		return a.evaluateLogical(n)

	case "log_op":
		return a.evaluateUnaryLogical(n)
	}

	// Fallback: evaluate children to propagate annotations, matching any
	// node kind the grammar doesn't specifically type.
	var lastType string
	var lastValue any
	for _, c := range n.Children {
		lastType, lastValue = a.evaluateExpression(c)
	}
	n.SemType = lastType
	n.SemValue = lastValue
	return lastType, lastValue
}

func (a *Analyzer) evaluateArithmetic(n *ast.Node) (string, any) {
	if len(n.Children) < 2 {
		if len(n.Children) == 1 {
			t, v := a.evaluateExpression(n.Children[0])
			n.SemType, n.SemValue = t, v
			return t, v
		}
		return "", nil
	}
	leftType, leftValue := a.evaluateExpression(n.Children[0])
	rightType, rightValue := a.evaluateExpression(n.Children[1])

	if !isNumeric(leftType) || !isNumeric(rightType) {
		a.reportNode(n, "operator '%s' requires numeric operands", n.Value)
		n.SemType, n.SemValue = "", nil
		return "", nil
	}
	if n.Value == "%" && (leftType != "int" || rightType != "int") {
		a.reportNode(n, "the '%%' operator only accepts int operands")
		n.SemType, n.SemValue = "", nil
		return "", nil
	}

	var resultType string
	if n.Value == "/" {
		if leftType == "int" && rightType == "int" {
			resultType = "int"
		} else {
			resultType = "float"
		}
	} else if leftType == "float" || rightType == "float" {
		resultType = "float"
	} else {
		resultType = "int"
	}

	var value any
	if n.Value == "/" && resultType == "int" {
		value = a.intDivide(n, leftValue, rightValue)
	} else {
		value = a.computeArithmetic(n, n.Value, leftValue, rightValue)
	}
	n.SemType = resultType
	n.SemValue = value
	return resultType, value
}

// intDivide performs truncating integer division, reporting a division
// error without aborting -- the numeric type is kept even though the
// value becomes unknown.
func (a *Analyzer) intDivide(n *ast.Node, left, right any) any {
	if left == nil || right == nil {
		return nil
	}
	l, r := toFloat(left), toFloat(right)
	if r == 0 {
		a.errors = append(a.errors, Error{Description: "division by zero detected"})
		return nil
	}
	return int(l / r)
}

func (a *Analyzer) computeArithmetic(n *ast.Node, op string, left, right any) any {
	if left == nil || right == nil {
		return nil
	}
	l, r := toFloat(left), toFloat(right)
	resultIsInt := isInt(left) && isInt(right)

	var result float64
	switch op {
	case "+":
		result = l + r
	case "-":
		result = l - r
	case "*":
		result = l * r
	case "/":
		if r == 0 {
			a.errors = append(a.errors, Error{Description: "division by zero detected"})
			return nil
		}
		result = l / r
		resultIsInt = false
	case "%":
		if r == 0 {
			a.errors = append(a.errors, Error{Description: "division by zero detected"})
			return nil
		}
		return int(l) % int(r)
	case "^":
		result = math.Pow(l, r)
		if resultIsInt && r < 0 {
			resultIsInt = false
		}
	default:
		return nil
	}
	if resultIsInt {
		return int(result)
	}
	return result
}

func (a *Analyzer) evaluateRelational(n *ast.Node) (string, any) {
	if len(n.Children) < 2 {
		return "", nil
	}
	leftType, leftValue := a.evaluateExpression(n.Children[0])
	rightType, rightValue := a.evaluateExpression(n.Children[1])

	switch n.Value {
	case "<", "<=", ">", ">=":
		if !isNumeric(leftType) || !isNumeric(rightType) {
			a.reportNode(n, "operator '%s' requires numeric operands", n.Value)
			n.SemType, n.SemValue = "", nil
			return "", nil
		}
	default:
		if leftType == "" || rightType == "" {
			n.SemType, n.SemValue = "", nil
			return "", nil
		}
		if leftType != rightType && !(isNumeric(leftType) && isNumeric(rightType)) {
			a.reportNode(n, "comparison between incompatible types")
			n.SemType, n.SemValue = "", nil
			return "", nil
		}
	}

	value := computeRelational(n.Value, leftValue, rightValue)
	n.SemType = "bool"
	n.SemValue = value
	return "bool", value
}

func computeRelational(op string, left, right any) any {
	if left == nil || right == nil {
		return nil
	}
	switch op {
	case "<":
		return toFloat(left) < toFloat(right)
	case "<=":
		return toFloat(left) <= toFloat(right)
	case ">":
		return toFloat(left) > toFloat(right)
	case ">=":
		return toFloat(left) >= toFloat(right)
	case "==":
		if isInt(left) || isInt(right) {
			return toFloat(left) == toFloat(right)
		}
		return left == right
	case "!=":
		if isInt(left) || isInt(right) {
			return toFloat(left) != toFloat(right)
		}
		return left != right
	}
	return nil
}

func (a *Analyzer) evaluateLogical(n *ast.Node) (string, any) {
	if len(n.Children) < 2 {
		return "", nil
	}
	leftType, leftValue := a.evaluateExpression(n.Children[0])
	rightType, rightValue := a.evaluateExpression(n.Children[1])
	if leftType != "bool" || rightType != "bool" {
		a.reportNode(n, "operator '%s' requires bool operands", n.Value)
		n.SemType, n.SemValue = "", nil
		return "", nil
	}
	var value any
	if leftValue != nil && rightValue != nil {
		l, r := leftValue.(bool), rightValue.(bool)
		if n.Value == "&&" {
			value = l && r
		} else {
			value = l || r
		}
	}
	n.SemType = "bool"
	n.SemValue = value
	return "bool", value
}

func (a *Analyzer) evaluateUnaryLogical(n *ast.Node) (string, any) {
	if len(n.Children) == 0 {
		return "", nil
	}
	childType, childValue := a.evaluateExpression(n.Children[0])
	if childType != "bool" {
		a.reportNode(n, "operator '!' requires a bool operand")
		n.SemType, n.SemValue = "", nil
		return "", nil
	}
	var value any
	if childValue != nil {
		value = !childValue.(bool)
	}
	n.SemType = "bool"
	n.SemValue = value
	return "bool", value
}

func isNumeric(t string) bool {
	return t == "int" || t == "float"
}

func isInt(v any) bool {
	_, ok := v.(int)
	return ok
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func isAssignmentCompatible(targetType, exprType string) bool {
	if targetType == exprType {
		return true
	}
	return targetType == "float" && exprType == "int"
}
