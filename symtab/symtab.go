// Package symtab is the program-wide symbol table of supercombinator
// records (§3.2): name, arity, params and source body.
//
// It is grounded on the teacher's compiler.SymbolTable (dr8co-kong/
// compiler/symbol_table.go): the same "store map, Define, Resolve"
// shape, repurposed here from a compile-time variable-binding scope into
// the single program-wide registry of supercombinators the spec calls
// for. Resolving NAMES within an expression (global vs argument vs
// local) is a separate job, done by package resolve; this package only
// tracks the set of top-level definitions.
package symtab

import (
	"fmt"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/isa"
)

// Record is a single supercombinator: its declared arity, params and AST
// body, plus a Code slot. Define resets Code to nil; codegen.Compile
// returns code by name instead of storing it here, so nothing in this
// module fills Code in.
type Record struct {
	Name   string
	Arity  int
	Params []string
	Body   ast.Expr
	Code   isa.Instructions
}

// Table is the global supercombinator registry. Later definitions with a
// name already present overwrite earlier ones (§6's merge rule).
type Table struct {
	order []string
	defs  map[string]*Record
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{defs: make(map[string]*Record)}
}

// Define registers or overwrites a supercombinator's name, arity, params
// and body. Overwriting preserves the original declaration order if the
// name already existed, so the merge order stays stable.
func (t *Table) Define(name string, params []string, body ast.Expr) *Record {
	if r, ok := t.defs[name]; ok {
		r.Arity = len(params)
		r.Params = params
		r.Body = body
		r.Code = nil
		return r
	}
	r := &Record{Name: name, Arity: len(params), Params: params, Body: body}
	t.defs[name] = r
	t.order = append(t.order, name)
	return r
}

// Get looks up a supercombinator record by name.
func (t *Table) Get(name string) (*Record, bool) {
	r, ok := t.defs[name]
	return r, ok
}

// MustGet looks up a record, panicking if absent — for use once the
// resolver has already confirmed every reference is bound.
func (t *Table) MustGet(name string) *Record {
	r, ok := t.defs[name]
	if !ok {
		panic(fmt.Sprintf("symtab: %q not defined", name))
	}
	return r
}

// All returns every record in declaration order (first definition wins
// the position; later redefinitions update in place).
func (t *Table) All() []*Record {
	out := make([]*Record, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.defs[name])
	}
	return out
}

// Merge loads a program's definitions into the table: each Def becomes
// (or overwrites) a Record. Implements §6's "later definitions with a
// name already present overwrite earlier ones".
func (t *Table) Merge(prog *ast.Program) {
	for _, d := range prog.Defs {
		t.Define(d.Name, d.Params, d.Body)
	}
}
