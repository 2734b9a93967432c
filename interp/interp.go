// Package interp implements the TAC interpreter: a small register machine
// that executes the instruction sequence emitted by tac.Generate.
package interp

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/skx/cscc/tac"
)

// Result bundles the observable outcome of one run.
type Result struct {
	Output    string
	Variables map[string]any
	Errors    []string
}

// Machine holds interpreter state for a single run; create a fresh one
// per execution, never reused across runs.
type Machine struct {
	instructions []tac.Instruction
	labels       map[string]int
	env          map[string]any
	output       strings.Builder
	errors       []string

	inputs       []string
	inputFn      func(prompt string) string
	outputFn     func(text string)
}

// Option configures a Machine before Run.
type Option func(*Machine)

// WithInputs queues literal input values consumed in order by each
// "input" instruction, before falling back to InputFunc.
func WithInputs(values []string) Option {
	return func(m *Machine) { m.inputs = append(m.inputs, values...) }
}

// WithInputFunc supplies a callback invoked when the input queue is
// empty, mirroring the optional interactive prompt of the shell. Without
// one, input prompts on stderr and reads a line from stdin.
func WithInputFunc(fn func(prompt string) string) Option {
	return func(m *Machine) { m.inputFn = fn }
}

// WithOutputFunc supplies a callback invoked once per emitted chunk of
// output, in addition to accumulating it in Result.Output.
func WithOutputFunc(fn func(text string)) Option {
	return func(m *Machine) { m.outputFn = fn }
}

// NewMachine builds a Machine over instructions, pre-indexing labels in a
// single linear pass.
func NewMachine(instructions []tac.Instruction, opts ...Option) *Machine {
	m := &Machine{
		instructions: instructions,
		env:          make(map[string]any),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.labels = make(map[string]int, len(instructions))
	for idx, inst := range instructions {
		if inst.Op == tac.Label && inst.Result != "" {
			m.labels[inst.Result] = idx
		}
	}
	return m
}

// Execute runs instructions to completion and returns the result. It never
// panics on a malformed program: unresolvable jumps fall through to the
// next instruction and runtime errors are appended to Result.Errors.
func Execute(instructions []tac.Instruction, opts ...Option) Result {
	m := NewMachine(instructions, opts...)
	return m.Run()
}

// Run executes the instruction stream from pc=0 until it falls off the
// end.
func (m *Machine) Run() Result {
	pc := 0
	n := len(m.instructions)
	for pc < n {
		inst := m.instructions[pc]
		switch inst.Op {
		case tac.Label:
			pc++

		case tac.Goto:
			pc = m.jumpTarget(inst.Result, pc)

		case tac.IfFalse:
			cond := m.resolve(inst.Arg1)
			if !truthy(cond) {
				pc = m.jumpTarget(inst.Result, pc)
			} else {
				pc++
			}

		case tac.Declare:
			if _, ok := m.env[inst.Result]; !ok {
				m.env[inst.Result] = nil
			}
			pc++

		case tac.Input:
			m.env[inst.Result] = m.readInput(inst.Result)
			pc++

		case tac.Print:
			m.emit(formatPrintValue(m.resolve(inst.Arg1)))
			pc++

		case tac.PrintNl:
			m.emit("\n")
			pc++

		case tac.Assign:
			m.env[inst.Result] = m.resolve(inst.Arg1)
			pc++

		case tac.Not:
			m.env[inst.Result] = !truthy(m.resolve(inst.Arg1))
			pc++

		default:
			m.env[inst.Result] = m.binary(inst.Op, m.resolve(inst.Arg1), m.resolve(inst.Arg2))
			pc++
		}
	}
	return Result{Output: m.output.String(), Variables: m.env, Errors: m.errors}
}

func (m *Machine) jumpTarget(label string, fallback int) int {
	if idx, ok := m.labels[label]; ok {
		return idx
	}
	return fallback + 1
}

func (m *Machine) emit(text string) {
	m.output.WriteString(text)
	if m.outputFn != nil {
		m.outputFn(text)
	}
}

func (m *Machine) readInput(name string) any {
	var raw string
	if len(m.inputs) > 0 {
		raw = m.inputs[0]
		m.inputs = m.inputs[1:]
	} else if m.inputFn != nil {
		raw = m.inputFn(fmt.Sprintf("cin >> %s: ", name))
	} else {
		// Read one line from stdin a byte at a time, so nothing past the
		// newline is consumed.
		fmt.Fprintf(os.Stderr, "cin >> %s: ", name)
		var sb strings.Builder
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n == 0 || err != nil || buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		raw = sb.String()
	}
	return autoCast(raw)
}

// resolve dereferences a TAC operand: matching outer quotes are stripped
// first, then the text is tried as a boolean literal, an environment name,
// an integer, and a float, in that order, falling back to the text itself.
// This cascade mirrors the reference interpreter's permissive operand
// handling, since TAC operands carry no static type tag.
func (m *Machine) resolve(value string) any {
	if value == "" {
		return nil
	}
	text := stripQuotes(value)
	switch strings.ToLower(text) {
	case "true":
		return true
	case "false":
		return false
	}
	if v, ok := m.env[text]; ok {
		return v
	}
	if i, err := strconv.Atoi(text); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

func stripQuotes(text string) string {
	for len(text) >= 2 {
		if (text[0] == '"' && text[len(text)-1] == '"') || (text[0] == '\'' && text[len(text)-1] == '\'') {
			text = text[1 : len(text)-1]
			continue
		}
		break
	}
	return text
}

func autoCast(raw string) any {
	text := strings.TrimSpace(raw)
	switch strings.ToLower(text) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(text); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return false
}

func formatPrintValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (m *Machine) binary(op tac.Op, a, b any) any {
	switch op {
	case tac.Add, tac.Sub, tac.Mul, tac.Div, tac.Mod, tac.Pow:
		return m.arithmetic(op, a, b)
	case tac.Lt, tac.Le, tac.Gt, tac.Ge, tac.Eq, tac.Ne:
		return m.relational(op, a, b)
	case tac.And, tac.Or:
		if op == tac.And {
			return truthy(a) && truthy(b)
		}
		return truthy(a) || truthy(b)
	}
	m.errors = append(m.errors, errors.Errorf("impossible opcode %q reached binary dispatch", op).Error())
	return nil
}

func (m *Machine) arithmetic(op tac.Op, a, b any) any {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if !aIsNum || !bIsNum {
		m.errors = append(m.errors, fmt.Sprintf("cannot apply '%s' to non-numeric operands", op))
		return nil
	}
	resultIsInt := isInt(a) && isInt(b)

	switch op {
	case tac.Add:
		if resultIsInt {
			return int(af) + int(bf)
		}
		return af + bf
	case tac.Sub:
		if resultIsInt {
			return int(af) - int(bf)
		}
		return af - bf
	case tac.Mul:
		if resultIsInt {
			return int(af) * int(bf)
		}
		return af * bf
	case tac.Div:
		if bf == 0 {
			m.errors = append(m.errors, "division by zero detected")
			return nil
		}
		if resultIsInt {
			return int(af / bf)
		}
		return af / bf
	case tac.Mod:
		if int(bf) == 0 {
			m.errors = append(m.errors, "division by zero detected")
			return nil
		}
		return int(af) % int(bf)
	case tac.Pow:
		return powValue(af, bf, resultIsInt)
	}
	return nil
}

func powValue(base, exp float64, resultIsInt bool) any {
	result := math.Pow(base, exp)
	if resultIsInt && exp >= 0 {
		return int(result)
	}
	return result
}

func (m *Machine) relational(op tac.Op, a, b any) any {
	switch op {
	case tac.Eq:
		if af, aok := asFloat(a); aok {
			if bf, bok := asFloat(b); bok {
				return af == bf
			}
		}
		return a == b
	case tac.Ne:
		if af, aok := asFloat(a); aok {
			if bf, bok := asFloat(b); bok {
				return af != bf
			}
		}
		return a != b
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		m.errors = append(m.errors, fmt.Sprintf("cannot compare non-numeric operands with '%s'", op))
		return nil
	}
	switch op {
	case tac.Lt:
		return af < bf
	case tac.Le:
		return af <= bf
	case tac.Gt:
		return af > bf
	case tac.Ge:
		return af >= bf
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func isInt(v any) bool {
	_, ok := v.(int)
	return ok
}
