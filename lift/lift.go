// Package lift implements the two structure-preserving AST transforms
// that turn an arbitrary Core program into one where every Case sits in
// strict position and every Lambda has been replaced by a reference to a
// freshly named supercombinator (§4.1, §4.2).
//
// Both transforms share the same shape: walk the tree, and wherever a
// construct can't be left where it is, cut it out into a new top-level
// Def parameterized over its free variables, and leave an application of
// that Def in its place. applyChain and freeNonGlobals below are the
// common plumbing; lambda.go and case.go each supply the "can't be left
// where it is" test.
package lift

import "github.com/dr8co/corec/ast"

// Run applies the lambda lifter followed by the case lifter, the order
// §4 fixes: lambda lifting first removes every Lambda (which may itself
// contain Case nodes that only become strict once settled into their new
// supercombinator body), then case lifting settles every remaining Case
// into strict position.
func Run(prog *ast.Program) *ast.Program {
	prog = new(LambdaLifter).Lift(prog)
	prog = new(CaseLifter).Lift(prog)
	return prog
}

// applyChain builds a left-associated application of f to each named
// variable in args, in order: f a1 a2 ... an.
func applyChain(f ast.Expr, args []string) ast.Expr {
	for _, a := range args {
		f = &ast.App{Func: f, Arg: &ast.Var{Name: a}}
	}
	return f
}

// freeNonGlobals returns e's free variables, excluding any name already
// bound at the top level (a reference to another supercombinator needs
// no extra parameter; it's reachable as a global from anywhere).
func freeNonGlobals(e ast.Expr, globals map[string]bool) []string {
	free := ast.FreeVars(e)
	out := make([]string, 0, len(free))
	for _, f := range free {
		if !globals[f] {
			out = append(out, f)
		}
	}
	return out
}

// globalNames collects the top-level names already bound in prog.
func globalNames(prog *ast.Program) map[string]bool {
	g := make(map[string]bool, len(prog.Defs))
	for _, d := range prog.Defs {
		g[d.Name] = true
	}
	return g
}
