package parser

import (
	"testing"

	"github.com/skx/cscc/lexer"
)

func TestParseEmptyProgram(t *testing.T) {
	toks, _ := lexer.Scan(`main { }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	if root.Kind != "programa" {
		t.Fatalf("expected root kind 'programa', got %q", root.Kind)
	}
}

func TestParseDeclarationAndAssignment(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; x = 3 + 4; }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	decls := root.Child(2)
	if decls == nil || decls.Kind != "lista_declaracion" {
		t.Fatalf("expected lista_declaracion child, got %#v", decls)
	}
	if len(decls.Children) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls.Children))
	}
	if decls.Children[0].Kind != "int" {
		t.Errorf("expected first declaration kind 'int', got %q", decls.Children[0].Kind)
	}
	assign := decls.Children[1]
	if assign.Kind != "ASIGNACION" || assign.Value != "=" {
		t.Fatalf("expected ASIGNACION(=), got %#v", assign)
	}
	rhs := assign.Child(1)
	if rhs == nil || rhs.Kind != "arit_op" || rhs.Value != "+" {
		t.Fatalf("expected arit_op(+), got %#v", rhs)
	}
}

func TestParseIncrementDesugars(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; x++; }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	decls := root.Child(2)
	assign := decls.Children[1]
	if assign.Kind != "ASIGNACION" {
		t.Fatalf("expected ASIGNACION, got %q", assign.Kind)
	}
	rhs := assign.Child(1)
	if rhs.Kind != "arit_op" || rhs.Value != "+" {
		t.Fatalf("expected arit_op(+) on rhs, got %#v", rhs)
	}
	if rhs.Child(1).Kind != "num_entero" || rhs.Child(1).Value != "1" {
		t.Fatalf("expected literal 1 as second operand, got %#v", rhs.Child(1))
	}
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; x = 2 ^ 3 ^ 2; }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	assign := root.Child(2).Children[1]
	top := assign.Child(1)
	if top.Kind != "pot_op" {
		t.Fatalf("expected pot_op at top, got %q", top.Kind)
	}
	if top.Child(0).Kind != "num_entero" || top.Child(0).Value != "2" {
		t.Fatalf("expected left operand to be literal 2, got %#v", top.Child(0))
	}
	right := top.Child(1)
	if right.Kind != "pot_op" {
		t.Fatalf("expected right-associative nesting, got %q", right.Kind)
	}
}

func TestParseIfThenElse(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; if x > 0 then x = 1; else x = 2; end }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	sel := root.Child(2).Children[1]
	if sel.Kind != "seleccion" {
		t.Fatalf("expected seleccion, got %q", sel.Kind)
	}
	foundElse := false
	for _, c := range sel.Children {
		if c.Kind == "else" {
			foundElse = true
		}
	}
	if !foundElse {
		t.Errorf("expected an 'else' child in seleccion")
	}
}

func TestParseWhile(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; while x < 10 x = x + 1; end }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	loop := root.Child(2).Children[1]
	if loop.Kind != "iteracion" {
		t.Fatalf("expected iteracion, got %q", loop.Kind)
	}
}

func TestParseDoUntil(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; do x = x + 1; until x == 10 }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	loop := root.Child(2).Children[1]
	if loop.Kind != "repeticion" {
		t.Fatalf("expected repeticion, got %q", loop.Kind)
	}
}

func TestParseCinCout(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x; cin >> x; cout << "value:" << x; }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	decls := root.Child(2).Children
	if decls[1].Kind != "sent_in" {
		t.Fatalf("expected sent_in, got %q", decls[1].Kind)
	}
	out := decls[2]
	if out.Kind != "sent_out" {
		t.Fatalf("expected sent_out, got %q", out.Kind)
	}
	foundString := false
	for _, c := range out.Children {
		if c.Kind == "cadena" {
			foundString = true
		}
	}
	if !foundString {
		t.Errorf("expected a 'cadena' child in sent_out")
	}
}

func TestParseCoutRequiresAtLeastOneItem(t *testing.T) {
	toks, _ := lexer.Scan(`main { cout ; }`)
	_, errs := Parse(toks)
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for bare 'cout ;'")
	}
}

func TestParseMismatchRecovers(t *testing.T) {
	toks, _ := lexer.Scan(`main { int x y; int z; }`)
	root, errs := Parse(toks)
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for missing comma")
	}
	decls := root.Child(2)
	if decls == nil {
		t.Fatalf("parser should still produce a lista_declaracion on error")
	}
}

func TestParseUnaryNot(t *testing.T) {
	toks, _ := lexer.Scan(`main { bool x; x = !true; }`)
	root, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("expected no syntax errors, got %v", errs)
	}
	assign := root.Child(2).Children[1]
	rhs := assign.Child(1)
	if rhs.Kind != "log_op" || rhs.Value != "!" {
		t.Fatalf("expected log_op(!), got %#v", rhs)
	}
	if len(rhs.Children) != 1 {
		t.Fatalf("expected exactly one child for unary '!', got %d", len(rhs.Children))
	}
}
