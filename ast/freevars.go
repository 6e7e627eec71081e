package ast

import "sort"

// FreeVars returns the sorted, deduplicated set of names that occur free in
// e: variables not bound by an enclosing Lambda, Let/LetRec, or Case
// alternative within e itself. The lambda lifter (package lift) uses this
// to compute the extra parameters a lifted global needs.
func FreeVars(e Expr) []string {
	out := map[string]bool{}
	freeVars(e, map[string]bool{}, out)
	names := make([]string, 0, len(out))
	for n := range out {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func freeVars(e Expr, bound map[string]bool, out map[string]bool) {
	switch n := e.(type) {
	case *Var:
		if !bound[n.Name] {
			out[n.Name] = true
		}

	case *Num, *Char, *Pack:
		// atomic, no sub-expressions

	case *App:
		freeVars(n.Func, bound, out)
		freeVars(n.Arg, bound, out)

	case *Lambda:
		inner := extend(bound, n.Params)
		freeVars(n.Body, inner, out)

	case *Let:
		names := bindingNames(n.Bindings)
		if n.Recursive {
			inner := extend(bound, names)
			for _, b := range n.Bindings {
				freeVars(b.Value, inner, out)
			}
			freeVars(n.Body, inner, out)
		} else {
			for _, b := range n.Bindings {
				freeVars(b.Value, bound, out)
			}
			inner := extend(bound, names)
			freeVars(n.Body, inner, out)
		}

	case *Case:
		freeVars(n.Scrutinee, bound, out)
		for _, a := range n.Alts {
			inner := extend(bound, a.Vars)
			freeVars(a.Body, inner, out)
		}

	case *BinOp:
		freeVars(n.Left, bound, out)
		freeVars(n.Right, bound, out)

	case *If:
		freeVars(n.Cond, bound, out)
		freeVars(n.Then, bound, out)
		freeVars(n.Else, bound, out)
	}
}

// extend returns a copy of bound with names added, leaving bound untouched.
func extend(bound map[string]bool, names []string) map[string]bool {
	inner := make(map[string]bool, len(bound)+len(names))
	for k := range bound {
		inner[k] = true
	}
	for _, n := range names {
		inner[n] = true
	}
	return inner
}

func bindingNames(bindings []Binding) []string {
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.Name
	}
	return names
}
