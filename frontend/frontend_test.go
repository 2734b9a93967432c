package frontend

import "testing"

func TestPipelineRunEndToEnd(t *testing.T) {
	p := New()
	res := p.Run(`main { int x; x = 2 + 3; cout << "sum:" << x; }`)
	if res.RunID == "" {
		t.Errorf("expected a non-empty run id")
	}
	if len(res.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics())
	}
	if res.Exec.Output != "sum:5\n" {
		t.Fatalf("unexpected output: %q", res.Exec.Output)
	}
}

func TestPipelineRunCollectsDiagnosticsAcrossStages(t *testing.T) {
	p := New()
	res := p.Run(`main { int x; y = 2; }`)
	diags := res.Diagnostics()
	if len(diags) == 0 {
		t.Fatalf("expected semantic diagnostics for undeclared 'y'")
	}
}

func TestPipelineCheckStopsBeforeExecution(t *testing.T) {
	p := New()
	res := p.Check(`main { int x; x = 1; }`)
	if res.Table.Lookup("x") == nil {
		t.Fatalf("expected 'x' to be declared in the symbol table")
	}
}

func TestPipelineCompileProducesTAC(t *testing.T) {
	p := New()
	res := p.Compile(`main { int x; x = 1; }`)
	if len(res.TAC) == 0 {
		t.Fatalf("expected non-empty TAC listing")
	}
}

func TestPipelineTokensReportsLexErrors(t *testing.T) {
	p := New()
	res := p.Tokens(`main { @ }`)
	if len(res.Lex) == 0 {
		t.Fatalf("expected a lexical error for '@'")
	}
}
