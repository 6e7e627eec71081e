// Package resolve implements the identifier resolver (§4.3): it walks a
// lifted program and annotates every ast.Var with the binding class the
// code generator needs — global, argument, or local — plus a stable
// index identifying which one.
//
// A global's Index is unused (codegen looks it up by name in the symbol
// table instead). An argument's Index is its 0-based position in the
// enclosing supercombinator's Params. A local's Index is assigned by a
// single monotonically increasing counter per supercombinator, in the
// order the let/letrec bindings and case-alternative variables are
// encountered during a left-to-right, outside-in walk of the body — not
// reset at each nested scope. Codegen builds its own name-to-depth
// environment as it emits code; the Index only has to be a stable,
// collision-free key within one supercombinator, which a single running
// counter guarantees regardless of nesting.
package resolve

import (
	"fmt"

	"github.com/dr8co/corec/ast"
)

// binding records how a name in scope resolves.
type binding struct {
	kind  ast.VarKind
	index int
}

// Program resolves every Var in prog against prog's own top-level names
// plus extraGlobals — names known to resolve as globals without having a
// Def in prog, namely the hand-compiled primitives (+, -, if, ...) that
// BinOp/If rewrite applications of (see codegen.applyPrim) but that
// never pass through lambda lifting or code generation as ordinary
// supercombinators. It mutates the tree in place and returns an error
// naming the first unresolved identifier it finds.
func Program(prog *ast.Program, extraGlobals ...string) error {
	globals := make(map[string]bool, len(prog.Defs)+len(extraGlobals))
	for _, d := range prog.Defs {
		globals[d.Name] = true
	}
	for _, name := range extraGlobals {
		globals[name] = true
	}
	r := &resolver{globals: globals}
	for _, d := range prog.Defs {
		scope := make(map[string]binding, len(d.Params))
		for i, p := range d.Params {
			scope[p] = binding{ast.VarArg, i}
		}
		counter := 0
		if err := r.expr(d.Body, scope, &counter); err != nil {
			return fmt.Errorf("resolve %s: %w", d.Name, err)
		}
	}
	return nil
}

type resolver struct {
	globals map[string]bool
}

func (r *resolver) expr(e ast.Expr, scope map[string]binding, counter *int) error {
	switch n := e.(type) {
	case *ast.Var:
		if b, ok := scope[n.Name]; ok {
			n.Kind, n.Index = b.kind, b.index
			return nil
		}
		if r.globals[n.Name] {
			n.Kind, n.Index = ast.VarGlobal, 0
			return nil
		}
		return fmt.Errorf("undefined identifier %q", n.Name)

	case *ast.Num, *ast.Char, *ast.Pack:
		return nil

	case *ast.App:
		if err := r.expr(n.Func, scope, counter); err != nil {
			return err
		}
		return r.expr(n.Arg, scope, counter)

	case *ast.Lambda:
		inner := extend(scope, n.Params, counter)
		return r.expr(n.Body, inner, counter)

	case *ast.Let:
		if n.Recursive {
			names := make([]string, len(n.Bindings))
			for i, b := range n.Bindings {
				names[i] = b.Name
			}
			inner := extend(scope, names, counter)
			for _, b := range n.Bindings {
				if err := r.expr(b.Value, inner, counter); err != nil {
					return err
				}
			}
			return r.expr(n.Body, inner, counter)
		}
		for _, b := range n.Bindings {
			if err := r.expr(b.Value, scope, counter); err != nil {
				return err
			}
		}
		names := make([]string, len(n.Bindings))
		for i, b := range n.Bindings {
			names[i] = b.Name
		}
		inner := extend(scope, names, counter)
		return r.expr(n.Body, inner, counter)

	case *ast.Case:
		if err := r.expr(n.Scrutinee, scope, counter); err != nil {
			return err
		}
		for _, a := range n.Alts {
			inner := extend(scope, a.Vars, counter)
			if err := r.expr(a.Body, inner, counter); err != nil {
				return err
			}
		}
		return nil

	case *ast.BinOp:
		if err := r.expr(n.Left, scope, counter); err != nil {
			return err
		}
		return r.expr(n.Right, scope, counter)

	case *ast.If:
		if err := r.expr(n.Cond, scope, counter); err != nil {
			return err
		}
		if err := r.expr(n.Then, scope, counter); err != nil {
			return err
		}
		return r.expr(n.Else, scope, counter)
	}
	return fmt.Errorf("resolve: unhandled node %T", e)
}

// extend returns a copy of scope with each name bound to a fresh local
// slot, shadowing any outer binding of the same name (nearest wins).
func extend(scope map[string]binding, names []string, counter *int) map[string]binding {
	inner := make(map[string]binding, len(scope)+len(names))
	for k, v := range scope {
		inner[k] = v
	}
	for _, n := range names {
		inner[n] = binding{ast.VarLocal, *counter}
		*counter++
	}
	return inner
}
