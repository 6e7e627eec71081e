// Package prelude supplies the definitions every Core program runs
// with ahead of its own: the combinators and list accessors original_
// source's prelude.core and lists.core predeclare (§C.2), expressed
// directly as ast.Def values since they are already in supercombinator
// form and need no parsing, plus the hand-compiled primitives that give
// BinOp/If something to rewrite into in lazy position (codegen.applyPrim)
// and that the strict R/E schemes inline directly in strict position.
//
// Grounded on the teacher's REPL bootstrapping a `builtins` table before
// accepting user input (dr8co-kong/repl/repl.go); corec's equivalent
// bootstrap is merging prelude.AST() ahead of the user's parsed program
// and registering prelude.Primitives() in the machine's global table.
package prelude

import (
	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/isa"
)

func v(name string) *ast.Var { return &ast.Var{Name: name} }

func app(f ast.Expr, args ...ast.Expr) ast.Expr {
	for _, a := range args {
		f = &ast.App{Func: f, Arg: a}
	}
	return f
}

// AST returns the combinator and list-accessor definitions that merge
// ahead of every user program, per §6's "prelude first, user definitions
// overwrite same-named prelude ones" rule.
func AST() *ast.Program {
	return &ast.Program{Defs: []*ast.Def{
		// I x = x
		{Name: "I", Params: []string{"x"}, Body: v("x")},

		// K x y = x
		{Name: "K", Params: []string{"x", "y"}, Body: v("x")},

		// K1 x y = y
		{Name: "K1", Params: []string{"x", "y"}, Body: v("y")},

		// S f g x = (f x) (g x)
		{Name: "S", Params: []string{"f", "g", "x"}, Body: app(v("f"), v("x"), app(v("g"), v("x")))},

		// compose f g x = f (g x)
		{Name: "compose", Params: []string{"f", "g", "x"}, Body: app(v("f"), app(v("g"), v("x")))},

		// twice f = compose f f
		{Name: "twice", Params: []string{"f"}, Body: app(v("compose"), v("f"), v("f"))},

		// nil = Pack{1,0}
		{Name: "nil", Params: nil, Body: &ast.Pack{Tag: NilTag, Arity: 0}},

		// cons = Pack{2,2}
		{Name: "cons", Params: nil, Body: &ast.Pack{Tag: ConsTag, Arity: 2}},

		// hd xs = case xs of <2> h t -> h
		{Name: "hd", Params: []string{"xs"}, Body: &ast.Case{
			Scrutinee: v("xs"),
			Alts:      []*ast.Alt{{Tag: ConsTag, Vars: []string{"h", "t"}, Body: v("h")}},
		}},

		// tl xs = case xs of <2> h t -> t
		{Name: "tl", Params: []string{"xs"}, Body: &ast.Case{
			Scrutinee: v("xs"),
			Alts:      []*ast.Alt{{Tag: ConsTag, Vars: []string{"h", "t"}, Body: v("t")}},
		}},
	}}
}

// NilTag and ConsTag are the constructor tags `nil` and `cons` resolve
// to — see machine.NilTag/machine.ConsTag, which this must agree with.
const (
	NilTag  = 1
	ConsTag = 2
)

// Names returns the name of every primitive Primitives() declares, for
// passing to resolve.Program as the extra-globals set covering the primitives
// (AST()'s own Defs are already globals by virtue of being Defs).
func Names() []string {
	names := make([]string, 0, len(primitiveArity))
	for name := range primitiveArity {
		names = append(names, name)
	}
	return names
}

var binaryPrims = map[string]isa.Opcode{
	"+": isa.Add, "-": isa.Sub, "*": isa.Mul, "/": isa.Div,
	"==": isa.Eq, "!=": isa.Ne, "<": isa.Lt, "<=": isa.Le, ">": isa.Gt, ">=": isa.Ge,
	"&": isa.And, "|": isa.Or,
}

var primitiveArity = map[string]int{
	"+": 2, "-": 2, "*": 2, "/": 2, "==": 2, "!=": 2, "<": 2, "<=": 2, ">": 2, ">=": 2, "&": 2, "|": 2,
	"negate": 1, "abort": 0, "if": 3,
}

// Primitives returns the hand-compiled bytecode of every primitive
// global, keyed by name, alongside their arities. Unlike AST()'s
// combinators these have no Core-source representation: a binary
// operator or `if` applied to fewer than its full arity has no graph
// node to build (§4.4), which is exactly why BinOp/If are rewritten into
// applications of these globals only when reached in lazy position, and
// compiled inline when reached in strict position.
func Primitives() (map[string]isa.Instructions, map[string]int) {
	code := make(map[string]isa.Instructions, len(primitiveArity))
	for name, op := range binaryPrims {
		code[name] = binaryPrimCode(op)
	}
	code["negate"] = negatePrimCode()
	code["abort"] = isa.Instructions(isa.Make(isa.Abort))
	code["if"] = ifPrimCode()

	arities := make(map[string]int, len(primitiveArity))
	for name, a := range primitiveArity {
		arities[name] = a
	}
	return code, arities
}

// binaryPrimCode is shared by every arity-2 primitive: force both
// arguments, apply the opcode, update the call's anchor, and unwind.
// Argument 0 (the first-applied, per the supercombinator param
// convention codegen.compileDef sets up) is pushed first, so Eval-ing it
// leaves it on top; pushing argument 1 next and Eval-ing that computes
// left-OP-right in the order the op dispatch in machine/ops.go expects
// (it pops right then left).
func binaryPrimCode(op isa.Opcode) isa.Instructions {
	var ins isa.Instructions
	ins = append(ins, isa.Make(isa.Push, 0)...)
	ins = append(ins, isa.Make(isa.Eval)...)
	ins = append(ins, isa.Make(isa.Push, 2)...)
	ins = append(ins, isa.Make(isa.Eval)...)
	ins = append(ins, isa.Make(op)...)
	ins = append(ins, isa.Make(isa.Update, 3)...)
	ins = append(ins, isa.Make(isa.Pop, 3)...)
	ins = append(ins, isa.Make(isa.Unwind)...)
	return ins
}

func negatePrimCode() isa.Instructions {
	var ins isa.Instructions
	ins = append(ins, isa.Make(isa.Push, 0)...)
	ins = append(ins, isa.Make(isa.Eval)...)
	ins = append(ins, isa.Make(isa.Neg)...)
	ins = append(ins, isa.Make(isa.Update, 2)...)
	ins = append(ins, isa.Make(isa.Pop, 2)...)
	ins = append(ins, isa.Make(isa.Unwind)...)
	return ins
}

// ifPrimCode evaluates its condition strictly but leaves whichever
// branch is chosen unevaluated — pushed, not Eval'd — preserving the
// non-strictness of the branch not taken exactly like K/K1 do.
func ifPrimCode() isa.Instructions {
	var ins isa.Instructions
	ins = append(ins, isa.Make(isa.Push, 0)...) // cond (offset 0 at entry depth 3)
	ins = append(ins, isa.Make(isa.Eval)...)
	jf := len(ins)
	ins = append(ins, isa.Make(isa.JumpFalse, 0)...) // pops the forced condition, back to depth 3
	// condition true: push the then-branch (offset 1 at depth 3)
	ins = append(ins, isa.Make(isa.Push, 1)...)
	jmp := len(ins)
	ins = append(ins, isa.Make(isa.Jump, 0)...)
	elseTarget := len(ins)
	// condition false: push the else-branch (offset 2 at depth 3)
	ins = append(ins, isa.Make(isa.Push, 2)...)
	end := len(ins)
	// either branch leaves depth 4 (the 3 args plus the chosen one)
	ins = append(ins, isa.Make(isa.Update, 4)...)
	ins = append(ins, isa.Make(isa.Pop, 4)...)
	ins = append(ins, isa.Make(isa.Unwind)...)
	ins.PatchOperand(jf, elseTarget)
	ins.PatchOperand(jmp, end)
	return ins
}
