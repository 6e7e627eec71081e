package codegen

import (
	"fmt"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/isa"
)

// C compiles e lazily: the emitted code leaves exactly one new graph
// reference on top of the stack, suitable for passing as an unforced
// argument or binding as a let value, and returns the depth after that
// push (always d+1).
func (f *fnComp) C(e ast.Expr, en env, d int) (int, error) {
	switch n := e.(type) {
	case *ast.Var:
		if n.Kind == ast.VarGlobal {
			f.emit(isa.PushGlobal, f.c.constGlobal(n.Name))
			return d + 1, nil
		}
		off, ok := en[n.Name]
		if !ok {
			return 0, fmt.Errorf("unbound variable %q", n.Name)
		}
		f.emit(isa.Push, d-off)
		return d + 1, nil

	case *ast.Num:
		if n.IsDecimal {
			f.emit(isa.PushFloat, f.c.addConstant(n.Decimal))
		} else {
			f.emit(isa.PushInt, f.c.addConstant(n.Int))
		}
		return d + 1, nil

	case *ast.Char:
		f.emit(isa.PushChar, f.c.addConstant(n.Value))
		return d + 1, nil

	case *ast.Pack:
		f.c.needPack(n.Tag, n.Arity)
		f.emit(isa.PushGlobal, f.c.constGlobal(PackName(n.Tag, n.Arity)))
		return d + 1, nil

	case *ast.App:
		d1, err := f.C(n.Arg, en, d)
		if err != nil {
			return 0, err
		}
		if _, err := f.C(n.Func, en, d1); err != nil {
			return 0, err
		}
		f.emit(isa.MkApp)
		return d + 1, nil

	case *ast.Let:
		return f.cLet(n, en, d)

	case *ast.BinOp:
		return f.C(applyPrim(n.Op, n.Left, n.Right), en, d)

	case *ast.If:
		return f.C(applyPrim("if", n.Cond, n.Then, n.Else), en, d)

	case *ast.Case:
		return 0, fmt.Errorf("codegen: case expression reached in lazy position (case lifter invariant violated)")

	case *ast.Lambda:
		return 0, fmt.Errorf("codegen: lambda reached codegen (lambda lifter invariant violated)")
	}
	return 0, fmt.Errorf("codegen: unhandled expression %T", e)
}

// R compiles e as the tail of a supercombinator: the emitted code always
// ends by updating the calling application's node, popping the spent
// frame, and unwinding the result. Let/If/Case get their own treatment
// (rLet/rIf/rCase) because each needs to thread the tail position
// through its sub-parts (a let's body, an if's branches, a case's
// alternatives) rather than produce a single value itself; everything
// else goes through E, which is what makes a strict site out of a
// def's own tail — an arithmetic expression inlines its operator instead
// of calling the "+" global, and a Case nested under one (§4.2's "operand
// of a strict construct") lands in E's own Case handling instead of
// erroring as a lazily-reached one would.
func (f *fnComp) R(e ast.Expr, en env, d int) error {
	switch n := e.(type) {
	case *ast.Let:
		return f.rLet(n, en, d)
	case *ast.If:
		return f.rIf(n, en, d)
	case *ast.Case:
		return f.rCase(n, en, d)
	default:
		d1, err := f.E(e, en, d)
		if err != nil {
			return err
		}
		f.emit(isa.Update, d1)
		f.emit(isa.Pop, d1)
		f.emit(isa.Unwind)
		return nil
	}
}

// E compiles e strictly: the emitted code leaves a value already reduced
// to weak head normal form on top of the stack.
func (f *fnComp) E(e ast.Expr, en env, d int) (int, error) {
	switch n := e.(type) {
	case *ast.BinOp:
		op, ok := binOpcode[n.Op]
		if !ok {
			return 0, fmt.Errorf("codegen: unknown operator %q", n.Op)
		}
		d1, err := f.E(n.Left, en, d)
		if err != nil {
			return 0, err
		}
		d2, err := f.E(n.Right, en, d1)
		if err != nil {
			return 0, err
		}
		f.emit(op)
		return d2 - 1, nil

	case *ast.If:
		d1, err := f.E(n.Cond, en, d)
		if err != nil {
			return 0, err
		}
		jf := f.emit(isa.JumpFalse, 0)
		dThen, err := f.E(n.Then, en, d1-1)
		if err != nil {
			return 0, err
		}
		jmp := f.emit(isa.Jump, 0)
		f.ins.PatchOperand(jf, len(f.ins))
		dElse, err := f.E(n.Else, en, d1-1)
		if err != nil {
			return 0, err
		}
		f.ins.PatchOperand(jmp, len(f.ins))
		if dThen != dElse {
			return 0, fmt.Errorf("codegen: internal error, if-branch depth mismatch")
		}
		return dThen, nil

	case *ast.Case:
		return f.eCase(n, en, d)

	default:
		d1, err := f.C(e, en, d)
		if err != nil {
			return 0, err
		}
		f.emit(isa.Eval)
		return d1, nil
	}
}

// emitLetBindings pushes a let or letrec's bindings and extends en for
// the body, returning the extended environment and the depth the body
// should be compiled at. Shared by the R and C treatments of Let, which
// differ only in how the body itself is compiled afterward.
func (f *fnComp) emitLetBindings(n *ast.Let, en env, d int) (env, int, error) {
	k := len(n.Bindings)
	if !n.Recursive {
		depths := make([]int, k)
		curD := d
		for i, b := range n.Bindings {
			nd, err := f.C(b.Value, en, curD) // sibling bindings never see each other
			if err != nil {
				return nil, 0, err
			}
			depths[i] = nd
			curD = nd
		}
		out := en
		for i, b := range n.Bindings {
			out = out.with(b.Name, depths[i])
		}
		return out, curD, nil
	}

	f.emit(isa.Alloc, k)
	curD := d + k
	out := en
	for i, b := range n.Bindings {
		out = out.with(b.Name, d+i+1)
	}
	for i, b := range n.Bindings {
		nd, err := f.C(b.Value, out, curD)
		if err != nil {
			return nil, 0, err
		}
		f.emit(isa.Update, nd-(d+i+1))
		f.emit(isa.Pop, 1)
	}
	return out, curD, nil
}

func (f *fnComp) cLet(n *ast.Let, en env, d int) (int, error) {
	en2, curD, err := f.emitLetBindings(n, en, d)
	if err != nil {
		return 0, err
	}
	fd, err := f.C(n.Body, en2, curD)
	if err != nil {
		return 0, err
	}
	k := len(n.Bindings)
	f.emit(isa.Slide, k)
	return fd - k, nil
}

func (f *fnComp) rLet(n *ast.Let, en env, d int) error {
	en2, curD, err := f.emitLetBindings(n, en, d)
	if err != nil {
		return err
	}
	return f.R(n.Body, en2, curD)
}

func (f *fnComp) rIf(n *ast.If, en env, d int) error {
	d1, err := f.E(n.Cond, en, d)
	if err != nil {
		return err
	}
	jf := f.emit(isa.JumpFalse, 0)
	if err := f.R(n.Then, en, d1-1); err != nil {
		return err
	}
	f.ins.PatchOperand(jf, len(f.ins))
	return f.R(n.Else, en, d1-1)
}

// splitEnv extends en with a case alternative's fields, assigning the
// first-applied field (conventionally the "head" of a constructor like
// cons) the deepest slot and the last field the slot nearest the top,
// matching the order machine's Split pushes them in. This is the reverse
// of compileDef's convention for a supercombinator's own params, where
// the first param sits on top.
func splitEnv(en env, vars []string, dAlt int) env {
	arity := len(vars)
	out := en
	for i, v := range vars {
		out = out.with(v, dAlt-arity+1+i)
	}
	return out
}

func (f *fnComp) rCase(n *ast.Case, en env, d int) error {
	d1, err := f.E(n.Scrutinee, en, d)
	if err != nil {
		return err
	}
	cj := f.emit(isa.CaseJump, 0)
	table := isa.CaseTable{}
	for _, a := range n.Alts {
		table[a.Tag] = len(f.ins)
		arity := len(a.Vars)
		f.emit(isa.Split, arity)
		dAlt := d1 - 1 + arity
		ea := splitEnv(en, a.Vars, dAlt)
		if err := f.R(a.Body, ea, dAlt); err != nil {
			return err
		}
	}
	f.ins.PatchOperand(cj, f.c.addConstant(table))
	return nil
}

func (f *fnComp) eCase(n *ast.Case, en env, d int) (int, error) {
	d1, err := f.E(n.Scrutinee, en, d)
	if err != nil {
		return 0, err
	}
	cj := f.emit(isa.CaseJump, 0)
	table := isa.CaseTable{}
	var ends []int
	result := -1
	for i, a := range n.Alts {
		table[a.Tag] = len(f.ins)
		arity := len(a.Vars)
		f.emit(isa.Split, arity)
		dAlt := d1 - 1 + arity
		ea := splitEnv(en, a.Vars, dAlt)
		dBody, err := f.E(a.Body, ea, dAlt)
		if err != nil {
			return 0, err
		}
		f.emit(isa.Slide, arity)
		got := dBody - arity
		if result == -1 {
			result = got
		} else if result != got {
			return 0, fmt.Errorf("codegen: internal error, case-alt depth mismatch")
		}
		if i != len(n.Alts)-1 {
			ends = append(ends, f.emit(isa.Jump, 0))
		}
	}
	end := len(f.ins)
	for _, p := range ends {
		f.ins.PatchOperand(p, end)
	}
	f.ins.PatchOperand(cj, f.c.addConstant(table))
	return result, nil
}
