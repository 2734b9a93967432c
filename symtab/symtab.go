// Package symtab implements the scope-aware symbol table: a stack of
// frames tracking declared names, their types, and every line on which
// they were referenced.
package symtab

import (
	"fmt"

	"github.com/pkg/errors"
)

// TypeSizes gives the per-type byte width used to assign offsets within a
// scope frame.
var TypeSizes = map[string]int{
	"int":    4,
	"float":  8,
	"bool":   1,
	"string": 0,
}

// Entry describes one declared symbol.
type Entry struct {
	Name   string
	Type   string
	Scope  string
	Level  int
	Offset int
	Line   int
	Column int
	Value  any
	Lines  map[int]bool
}

// RecordLine adds line to the set of occurrences for this entry.
func (e *Entry) RecordLine(line int) {
	if e.Lines == nil {
		e.Lines = make(map[int]bool)
	}
	e.Lines[line] = true
}

// frame is one scope: a name→entry mapping plus the scope's own name and
// its running offset counter.
type frame struct {
	name    string
	offset  int
	entries map[string]*Entry
}

// SymbolTable is a stack of scope frames plus a flat, append-only list of
// every entry ever declared (in declaration order), used for rendering.
type SymbolTable struct {
	frames  []*frame
	all     []*Entry
	counter int
}

// New creates a symbol table with the global scope already entered. The
// global frame is never popped -- see ExitScope.
func New() *SymbolTable {
	st := &SymbolTable{}
	st.frames = append(st.frames, &frame{name: "global", entries: make(map[string]*Entry)})
	return st
}

// EnterScope pushes a new child frame named "<hint>#<n>" where n is a
// monotonic counter shared across the whole table's lifetime, e.g.
// "if_then#3".
func (st *SymbolTable) EnterScope(hint string) string {
	st.counter++
	name := fmt.Sprintf("%s#%d", hint, st.counter)
	st.frames = append(st.frames, &frame{name: name, entries: make(map[string]*Entry)})
	return name
}

// ExitScope pops the innermost frame. Popping the global frame is an
// internal invariant violation -- it indicates a bug in a caller's
// scope-balancing, not a user-facing error, so it is reported via a
// wrapped error rather than silently ignored.
func (st *SymbolTable) ExitScope() error {
	if len(st.frames) <= 1 {
		return errors.New("symtab: cannot exit the global scope")
	}
	st.frames = st.frames[:len(st.frames)-1]
	return nil
}

// CurrentScope returns the name of the innermost open scope.
func (st *SymbolTable) CurrentScope() string {
	return st.frames[len(st.frames)-1].name
}

// Level returns the current scope depth, 0 for the global scope.
func (st *SymbolTable) Level() int {
	return len(st.frames) - 1
}

// Declare adds name to the current scope with the given type. It fails if
// name already exists in the current scope only -- shadowing an outer
// scope is allowed. On success the entry's offset is the current scope's
// running counter, which is then bumped by TypeSizes[typ].
func (st *SymbolTable) Declare(name, typ string, line, column int) (*Entry, error) {
	top := st.frames[len(st.frames)-1]
	if _, exists := top.entries[name]; exists {
		return nil, errors.Errorf("'%s' is already declared in this scope", name)
	}

	entry := &Entry{
		Name:   name,
		Type:   typ,
		Scope:  top.name,
		Level:  len(st.frames) - 1,
		Offset: top.offset,
		Line:   line,
		Column: column,
		Lines:  map[int]bool{line: true},
	}
	top.offset += TypeSizes[typ]
	top.entries[name] = entry
	st.all = append(st.all, entry)
	return entry, nil
}

// Lookup scans from innermost to outermost scope and returns the first
// matching entry, or nil if name is undeclared anywhere visible.
func (st *SymbolTable) Lookup(name string) *Entry {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if entry, ok := st.frames[i].entries[name]; ok {
			return entry
		}
	}
	return nil
}

// All returns every declared entry in declaration order, for rendering a
// listing of the whole table.
func (st *SymbolTable) All() []*Entry {
	return st.all
}

// Format renders the table as a plain-text listing, one entry per line,
// matching the kind of flat dump the reference implementation's shell
// displays in its symbol-table pane.
func (st *SymbolTable) Format() string {
	out := ""
	for _, e := range st.all {
		lines := make([]int, 0, len(e.Lines))
		for l := range e.Lines {
			lines = append(lines, l)
		}
		out += fmt.Sprintf("%-12s %-8s scope=%-14s level=%d offset=%-3d value=%v lines=%v\n",
			e.Name, e.Type, e.Scope, e.Level, e.Offset, e.Value, lines)
	}
	return out
}
