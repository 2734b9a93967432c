// Package frontend composes the scanner, parser, semantic analyzer, TAC
// generator, and TAC interpreter into a single pipeline, mirroring the
// staged Lex→Parse→Evaluate composition of a classic compiler front-end.
package frontend

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/skx/cscc/ast"
	"github.com/skx/cscc/interp"
	"github.com/skx/cscc/lexer"
	"github.com/skx/cscc/parser"
	"github.com/skx/cscc/semantic"
	"github.com/skx/cscc/symtab"
	"github.com/skx/cscc/tac"
)

// Pipeline runs the four compiler stages over source text on demand. It
// holds no mutable state between calls -- every method is a fresh
// end-to-end (or partial) compile, matching the system's "nothing is
// shared mutably across stages" contract.
type Pipeline struct{}

// New creates a Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// TokensResult is the output of the scanning stage alone.
type TokensResult struct {
	RunID  string
	Source string
	Lex    []lexer.Error
}

// Tokens runs only the scanner and returns its diagnostics; callers that
// want the actual token stream should call lexer.Scan directly, as the
// shell's "tokens" view does.
func (p *Pipeline) Tokens(source string) TokensResult {
	_, lexErrs := lexer.Scan(source)
	return TokensResult{RunID: uuid.NewString(), Source: source, Lex: lexErrs}
}

// ParseResult is the output of scanning plus parsing.
type ParseResult struct {
	RunID  string
	Tree   *ast.Node
	Lex    []lexer.Error
	Syntax []parser.Error
}

// Parse runs the scanner and parser, returning the raw (un-annotated)
// AST plus both stages' diagnostics.
func (p *Pipeline) Parse(source string) ParseResult {
	toks, lexErrs := lexer.Scan(source)
	tree, synErrs := parser.Parse(toks)
	return ParseResult{RunID: uuid.NewString(), Tree: tree, Lex: lexErrs, Syntax: synErrs}
}

// CheckResult is the output of the full static pipeline: scan, parse, and
// semantic analysis, without lowering to TAC.
type CheckResult struct {
	RunID    string
	Tree     *ast.Node
	Table    *symtab.SymbolTable
	Lex      []lexer.Error
	Syntax   []parser.Error
	Semantic []semantic.Error
}

// Check runs the scanner, parser, and semantic analyzer, producing an
// annotated AST and populated symbol table alongside every stage's
// diagnostics.
func (p *Pipeline) Check(source string) CheckResult {
	toks, lexErrs := lexer.Scan(source)
	tree, synErrs := parser.Parse(toks)
	result := semantic.Analyze(tree)
	return CheckResult{
		RunID:    uuid.NewString(),
		Tree:     result.Tree,
		Table:    result.Table,
		Lex:      lexErrs,
		Syntax:   synErrs,
		Semantic: result.Errors,
	}
}

// CompileResult additionally carries the lowered TAC instruction listing.
type CompileResult struct {
	CheckResult
	TAC []tac.Instruction
}

// Compile runs the full static pipeline (scan, parse, analyze) and lowers
// the annotated AST to TAC. It does not execute the program.
func (p *Pipeline) Compile(source string) CompileResult {
	checked := p.Check(source)
	instructions := tac.Generate(checked.Tree)
	return CompileResult{CheckResult: checked, TAC: instructions}
}

// RunResult is the outcome of a full compile-and-execute pass.
type RunResult struct {
	CompileResult
	Exec interp.Result
}

// Run compiles source and executes the resulting TAC, returning every
// stage's diagnostics alongside the captured output and final variable
// bindings. Each call gets a fresh interp.Machine, so state never leaks
// between runs.
func (p *Pipeline) Run(source string, opts ...interp.Option) RunResult {
	compiled := p.Compile(source)
	exec := interp.Execute(compiled.TAC, opts...)
	return RunResult{CompileResult: compiled, Exec: exec}
}

// Diagnostics flattens every stage's errors (in stage order) into plain
// strings, suitable for a shell status pane or a CLI's stderr listing.
func (r RunResult) Diagnostics() []string {
	var out []string
	for _, e := range r.Lex {
		out = append(out, fmt.Sprintf("lex: line %d, column %d: %s (%q)", e.Line, e.Column, e.Description, e.Lexeme))
	}
	for _, e := range r.Syntax {
		out = append(out, "syntax: "+e.String())
	}
	for _, e := range r.Semantic {
		out = append(out, "semantic: "+e.String())
	}
	for _, e := range r.Exec.Errors {
		out = append(out, "runtime: "+e)
	}
	return out
}
