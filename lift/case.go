package lift

import (
	"fmt"

	"github.com/dr8co/corec/ast"
)

// CaseLifter ensures every remaining Case node sits in strict position
// (§4.2): the direct body of a supercombinator, a case scrutinee, or a
// branch of a Case/If/BinOp that is itself strict. A Case reachable only
// through a lazily-built position — a function argument, a let-bound
// value — has no heap representation to build lazily, so it is cut out
// into a freshly named supercombinator and replaced with an application,
// exactly as the lambda lifter treats a Lambda.
type CaseLifter struct {
	counter int
	fresh   []*ast.Def
	globals map[string]bool
}

// Lift returns a new program with every Case settled into strict position.
func (l *CaseLifter) Lift(prog *ast.Program) *ast.Program {
	l.globals = globalNames(prog)
	out := make([]*ast.Def, 0, len(prog.Defs))
	for _, d := range prog.Defs {
		out = append(out, &ast.Def{Name: d.Name, Params: d.Params, Body: l.liftExpr(d.Body, true)})
	}
	out = append(out, l.fresh...)
	return &ast.Program{Defs: out}
}

// liftExpr rewrites e. strict reports whether e's own position is one
// the code generator evaluates via R or E (tail of a supercombinator, a
// scrutinee, an operand of a strict construct) as opposed to C (a lazily
// built argument or let-bound value).
func (l *CaseLifter) liftExpr(e ast.Expr, strict bool) ast.Expr {
	switch n := e.(type) {
	case *ast.Var, *ast.Num, *ast.Char, *ast.Pack:
		return e

	case *ast.App:
		// Both sides of an application are always built lazily.
		return &ast.App{Func: l.liftExpr(n.Func, false), Arg: l.liftExpr(n.Arg, false)}

	case *ast.Lambda:
		// The lambda lifter has already run; this is defensive.
		return &ast.Lambda{Params: n.Params, Body: l.liftExpr(n.Body, true)}

	case *ast.Let:
		bindings := make([]ast.Binding, len(n.Bindings))
		for i, b := range n.Bindings {
			// A let-bound value is always built lazily, regardless of
			// where the let itself sits.
			bindings[i] = ast.Binding{Name: b.Name, Value: l.liftExpr(b.Value, false)}
		}
		return &ast.Let{Recursive: n.Recursive, Bindings: bindings, Body: l.liftExpr(n.Body, strict)}

	case *ast.BinOp:
		return &ast.BinOp{Op: n.Op, Left: l.liftExpr(n.Left, strict), Right: l.liftExpr(n.Right, strict)}

	case *ast.If:
		return &ast.If{Cond: l.liftExpr(n.Cond, strict), Then: l.liftExpr(n.Then, strict), Else: l.liftExpr(n.Else, strict)}

	case *ast.Case:
		scrut := l.liftExpr(n.Scrutinee, true)
		alts := make([]*ast.Alt, len(n.Alts))
		for i, a := range n.Alts {
			alts[i] = &ast.Alt{Tag: a.Tag, Vars: a.Vars, Body: l.liftExpr(a.Body, true)}
		}
		c := &ast.Case{Scrutinee: scrut, Alts: alts}
		if strict {
			return c
		}
		return l.extract(c)
	}
	return e
}

// extract cuts a lazily-reached Case out into a fresh supercombinator
// parameterized over its free non-global variables.
func (l *CaseLifter) extract(c *ast.Case) ast.Expr {
	free := freeNonGlobals(c, l.globals)
	l.counter++
	name := fmt.Sprintf("$case%d", l.counter)
	l.fresh = append(l.fresh, &ast.Def{Name: name, Params: free, Body: c})
	l.globals[name] = true
	return applyChain(&ast.Var{Name: name}, free)
}
