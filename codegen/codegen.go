// Package codegen implements the R/C/E compilation schemes of §4.4: it
// turns a lifted, resolved ast.Program into one isa.Instructions sequence
// per supercombinator, plus the shared constant pool they reference.
//
// R compiles an expression as the tail of a supercombinator — the thing
// that ends in Update/Pop/Unwind. C compiles an expression lazily,
// building a graph for it without forcing anything, for use wherever the
// language's non-strictness must be preserved (a function argument, a
// let-bound value). E compiles an expression strictly, leaving a
// WHNF value on top, for scrutinees, conditions, and arithmetic operands.
//
// The three schemes share one invariant, proven by tracing Unwind's
// rearrange step (see machine.rearrange): whatever heap node the call that
// entered this supercombinator is waiting to have updated sits, at every
// point during R/C/E's emitted code, exactly `d` stack entries below the
// top, where `d` is the depth value threaded through the call that just
// finished compiling. That is why Update/Pop always take the *current*
// depth, not the supercombinator's fixed arity — the two coincide only
// before anything else has been pushed.
//
// Grounded on the teacher's compiler.Compiler (dr8co-kong/compiler/
// compiler.go): a single-pass AST-to-bytecode emitter accumulating into
// one instruction buffer and one constant pool, generalized here from a
// single compile-and-fall-off-the-end scheme to the three mutually
// recursive R/C/E schemes a lazy graph-reduction target requires.
package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/isa"
)

// env maps a bound name (argument, let-binding, or case-alternative
// variable) to the depth value that was current immediately after it was
// pushed. A later reference computes its Push offset as currentDepth -
// storedDepth. Kept as an immutable, copy-on-write map so that sibling
// scopes (the two branches of an If, a let's body vs. its own bindings)
// never see each other's shadowing.
type env map[string]int

func (e env) with(name string, depth int) env {
	out := make(env, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[name] = depth
	return out
}

var binOpcode = map[string]isa.Opcode{
	"+": isa.Add, "-": isa.Sub, "*": isa.Mul, "/": isa.Div,
	"==": isa.Eq, "!=": isa.Ne, "<": isa.Lt, "<=": isa.Le, ">": isa.Gt, ">=": isa.Ge,
	"&": isa.And, "|": isa.Or,
}

// packKey names the synthetic nullary-or-more global a Pack{tag,arity}
// literal compiles to once saturated: PackName(tag,arity).
type packKey struct{ tag, arity int }

// PackName is the global name a Pack{tag,arity} literal resolves to.
func PackName(tag, arity int) string { return fmt.Sprintf("Pack{%d,%d}", tag, arity) }

// Compiler accumulates the shared constant pool across every
// supercombinator it compiles.
type Compiler struct {
	constants []any
	globalIdx map[string]int
	packSeen  map[packKey]bool
	packOrder []packKey
	arities   map[string]int
}

// New creates a Compiler with an empty constant pool.
func New() *Compiler {
	return &Compiler{globalIdx: map[string]int{}, arities: map[string]int{}}
}

// Constants returns the shared constant pool built up across every
// Compile call so far.
func (c *Compiler) Constants() []any { return c.constants }

// Arities returns the declared arity of every global Compile has produced
// code for so far, by name — the machine package needs this to know how
// many arguments Unwind must collect before installing a global's code.
func (c *Compiler) Arities() map[string]int { return c.arities }

// Compile compiles every Def in prog — which must already have passed
// through lift.Run and resolve.Program — returning each supercombinator's
// code by name (including the constructor globals any Pack{tag,arity}
// literal needed) and the shared constant pool.
func (c *Compiler) Compile(prog *ast.Program) (map[string]isa.Instructions, []any, error) {
	code := make(map[string]isa.Instructions, len(prog.Defs))
	for _, d := range prog.Defs {
		ins, err := c.compileDef(d)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "codegen: %s", d.Name)
		}
		code[d.Name] = ins
	}
	for _, k := range c.packOrder {
		name := PackName(k.tag, k.arity)
		code[name] = packGlobalCode(k.tag, k.arity)
		c.arities[name] = k.arity
	}
	return code, c.constants, nil
}

func (c *Compiler) compileDef(d *ast.Def) (isa.Instructions, error) {
	c.arities[d.Name] = len(d.Params)
	n := len(d.Params)
	en := make(env, n)
	for idx, p := range d.Params {
		en[p] = n - idx
	}
	f := &fnComp{c: c}
	if err := f.R(d.Body, en, n); err != nil {
		return nil, err
	}
	return f.ins, nil
}

func (c *Compiler) needPack(tag, arity int) {
	k := packKey{tag, arity}
	if c.packSeen == nil {
		c.packSeen = map[packKey]bool{}
	}
	if !c.packSeen[k] {
		c.packSeen[k] = true
		c.packOrder = append(c.packOrder, k)
	}
}

func (c *Compiler) constGlobal(name string) int {
	if idx, ok := c.globalIdx[name]; ok {
		return idx
	}
	idx := len(c.constants)
	c.constants = append(c.constants, name)
	c.globalIdx[name] = idx
	return idx
}

func (c *Compiler) addConstant(v any) int {
	idx := len(c.constants)
	c.constants = append(c.constants, v)
	return idx
}

// packGlobalCode is the fixed-shape body of the arity-ary constructor
// global Pack{tag,arity} compiles to. Unwind's rearrange has already put
// the `arity` field values, unevaluated, directly on top of the stack in
// application order, which is exactly the order Pack consumes them in —
// no preamble is needed before building the Constructor and returning it
// the same way every other supercombinator does.
func packGlobalCode(tag, arity int) isa.Instructions {
	var ins isa.Instructions
	ins = append(ins, isa.Make(isa.Pack, tag, arity)...)
	ins = append(ins, isa.Make(isa.Update, 1)...)
	ins = append(ins, isa.Make(isa.Pop, 1)...)
	ins = append(ins, isa.Make(isa.Unwind)...)
	return ins
}

// fnComp holds the instruction buffer being built for one supercombinator.
type fnComp struct {
	c   *Compiler
	ins isa.Instructions
}

func (f *fnComp) emit(op isa.Opcode, operands ...int) int {
	pos := len(f.ins)
	f.ins = append(f.ins, isa.Make(op, operands...)...)
	return pos
}

// applyPrim builds the application of a registered primitive global to
// args, left to right: App(...App(App(name, args[0]), args[1])..., args[n-1]).
func applyPrim(name string, args ...ast.Expr) ast.Expr {
	var e ast.Expr = &ast.Var{Name: name, Kind: ast.VarGlobal}
	for _, a := range args {
		e = &ast.App{Func: e, Arg: a}
	}
	return e
}
