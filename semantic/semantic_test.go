package semantic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skx/cscc/lexer"
	"github.com/skx/cscc/parser"
)

func analyze(t *testing.T, src string) Result {
	t.Helper()
	toks, lexErrs := lexer.Scan(src)
	require.Empty(t, lexErrs)
	root, synErrs := parser.Parse(toks)
	require.Empty(t, synErrs)
	return Analyze(root)
}

func TestDeclarationAndConstantFolding(t *testing.T) {
	res := analyze(t, `main { int x; x = 3 + 4; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, 7, entry.Value)
}

func TestFloatWideningIsCompatible(t *testing.T) {
	res := analyze(t, `main { float x; x = 3; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, 3.0, entry.Value)
}

func TestIncompatibleAssignmentReportsError(t *testing.T) {
	res := analyze(t, `main { bool x; x = 3; }`)
	require.NotEmpty(t, res.Errors)
}

func TestUndeclaredVariableReportsError(t *testing.T) {
	res := analyze(t, `main { x = 3; }`)
	require.NotEmpty(t, res.Errors)
}

func TestDuplicateDeclarationReportsError(t *testing.T) {
	res := analyze(t, `main { int x; int x; }`)
	require.NotEmpty(t, res.Errors)
}

func TestIntDivisionTruncates(t *testing.T) {
	res := analyze(t, `main { int x; x = 7 / 2; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Value)
}

func TestFloatDivisionDoesNotTruncate(t *testing.T) {
	res := analyze(t, `main { float x; x = 7.0 / 2; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.InDelta(t, 3.5, entry.Value, 0.0001)
}

func TestDivisionByZeroRecordsErrorKeepsType(t *testing.T) {
	res := analyze(t, `main { int x; x = 1 / 0; }`)
	require.NotEmpty(t, res.Errors)
	div := res.Tree.Child(2).Children[1].Child(1)
	require.NotNil(t, div)
	assert.Equal(t, "int", div.SemType)
}

func TestModuloRequiresInts(t *testing.T) {
	res := analyze(t, `main { float x; x = 3.0 % 2; }`)
	require.NotEmpty(t, res.Errors)
}

func TestIfConditionMustBeBool(t *testing.T) {
	res := analyze(t, `main { int x; if x then x = 1; end }`)
	require.NotEmpty(t, res.Errors)
}

func TestIfConditionBoolIsFine(t *testing.T) {
	res := analyze(t, `main { int x; if x > 0 then x = 1; end }`)
	assert.Empty(t, res.Errors)
}

func TestShadowingInIfThenScope(t *testing.T) {
	res := analyze(t, `main { int x; if x > 0 then bool x; x = true; end }`)
	assert.Empty(t, res.Errors)
}

func TestLogicalOperatorsRequireBool(t *testing.T) {
	res := analyze(t, `main { bool x; x = true && false; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, false, entry.Value)

	res = analyze(t, `main { bool x; x = 1 && true; }`)
	assert.NotEmpty(t, res.Errors)
}

func TestUnaryNotFolds(t *testing.T) {
	res := analyze(t, `main { bool x; x = !true; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, false, entry.Value)
}

func TestPowerFolds(t *testing.T) {
	res := analyze(t, `main { int x; x = 2 ^ 3; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.Equal(t, 8, entry.Value)
}

func TestPowerWithFractionalExponentFoldsExactly(t *testing.T) {
	res := analyze(t, `main { float x; x = 2.0 ^ 2.5; }`)
	assert.Empty(t, res.Errors)
	entry := res.Table.Lookup("x")
	require.NotNil(t, entry)
	assert.InDelta(t, math.Pow(2.0, 2.5), entry.Value, 1e-9)
}
