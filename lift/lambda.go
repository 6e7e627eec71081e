package lift

import (
	"fmt"

	"github.com/dr8co/corec/ast"
)

// LambdaLifter removes every Lambda node from a program (§4.1). A curried
// top-level definition (`f = \x y. body`) simply folds its lambda's
// parameters into the Def itself; a Lambda occurring anywhere else is cut
// out into a freshly named supercombinator taking its free variables as
// leading parameters, and the occurrence becomes an application of that
// new global to those variables.
type LambdaLifter struct {
	counter int
	fresh   []*ast.Def
	globals map[string]bool
}

// Lift returns a new program with every Lambda removed.
func (l *LambdaLifter) Lift(prog *ast.Program) *ast.Program {
	l.globals = globalNames(prog)
	out := make([]*ast.Def, 0, len(prog.Defs))
	for _, d := range prog.Defs {
		out = append(out, l.liftDef(d))
	}
	out = append(out, l.fresh...)
	return &ast.Program{Defs: out}
}

func (l *LambdaLifter) liftDef(d *ast.Def) *ast.Def {
	params := append([]string(nil), d.Params...)
	body := d.Body
	for {
		lam, ok := body.(*ast.Lambda)
		if !ok {
			break
		}
		params = append(params, lam.Params...)
		body = lam.Body
	}
	return &ast.Def{Name: d.Name, Params: params, Body: l.liftExpr(body)}
}

func (l *LambdaLifter) liftExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Var, *ast.Num, *ast.Char, *ast.Pack:
		return e

	case *ast.App:
		return &ast.App{Func: l.liftExpr(n.Func), Arg: l.liftExpr(n.Arg)}

	case *ast.Lambda:
		body := l.liftExpr(n.Body)
		free := freeNonGlobals(&ast.Lambda{Params: n.Params, Body: body}, l.globals)
		l.counter++
		name := fmt.Sprintf("$lambda%d", l.counter)
		l.fresh = append(l.fresh, &ast.Def{
			Name:   name,
			Params: append(append([]string(nil), free...), n.Params...),
			Body:   body,
		})
		l.globals[name] = true
		return applyChain(&ast.Var{Name: name}, free)

	case *ast.Let:
		bindings := make([]ast.Binding, len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = ast.Binding{Name: b.Name, Value: l.liftExpr(b.Value)}
		}
		return &ast.Let{Recursive: n.Recursive, Bindings: bindings, Body: l.liftExpr(n.Body)}

	case *ast.Case:
		alts := make([]*ast.Alt, len(n.Alts))
		for i, a := range n.Alts {
			alts[i] = &ast.Alt{Tag: a.Tag, Vars: a.Vars, Body: l.liftExpr(a.Body)}
		}
		return &ast.Case{Scrutinee: l.liftExpr(n.Scrutinee), Alts: alts}

	case *ast.BinOp:
		return &ast.BinOp{Op: n.Op, Left: l.liftExpr(n.Left), Right: l.liftExpr(n.Right)}

	case *ast.If:
		return &ast.If{Cond: l.liftExpr(n.Cond), Then: l.liftExpr(n.Then), Else: l.liftExpr(n.Else)}
	}
	return e
}
