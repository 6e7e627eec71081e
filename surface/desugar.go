package surface

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dr8co/corec/ast"
)

// toProgram folds a parsed File into the ast.Program the pipeline's
// first stage expects — plain recursive descent over the precedence
// grammar, left-associating each operator chain and unescaping the one
// character literal production the lexer doesn't already unescape.
func toProgram(f *File) (*ast.Program, error) {
	prog := &ast.Program{Defs: make([]*ast.Def, 0, len(f.Defs))}
	for _, d := range f.Defs {
		body, err := toExpr(d.Body)
		if err != nil {
			return nil, fmt.Errorf("in definition %q: %w", d.Name, err)
		}
		prog.Defs = append(prog.Defs, &ast.Def{Name: d.Name, Params: d.Params, Body: body})
	}
	return prog, nil
}

func toExpr(e *Expr) (ast.Expr, error) {
	switch {
	case e.Let != nil:
		return toLet(e.Let)
	case e.Case != nil:
		return toCase(e.Case)
	case e.Lambda != nil:
		return toLambda(e.Lambda)
	case e.Or != nil:
		return toOr(e.Or)
	}
	return nil, fmt.Errorf("surface: empty expression node")
}

func toLet(l *LetExpr) (ast.Expr, error) {
	bindings := make([]ast.Binding, len(l.Bindings))
	for i, b := range l.Bindings {
		v, err := toExpr(b.Value)
		if err != nil {
			return nil, err
		}
		bindings[i] = ast.Binding{Name: b.Name, Value: v}
	}
	body, err := toExpr(l.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Let{Recursive: l.Keyword == "letrec", Bindings: bindings, Body: body}, nil
}

func toCase(c *CaseExpr) (ast.Expr, error) {
	scrutinee, err := toExpr(c.Scrutinee)
	if err != nil {
		return nil, err
	}
	alts := make([]*ast.Alt, len(c.Alts))
	for i, a := range c.Alts {
		body, err := toExpr(a.Body)
		if err != nil {
			return nil, err
		}
		alts[i] = &ast.Alt{Tag: a.Tag, Vars: a.Vars, Body: body}
	}
	return &ast.Case{Scrutinee: scrutinee, Alts: alts}, nil
}

func toLambda(l *LambdaExpr) (ast.Expr, error) {
	body, err := toExpr(l.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Params: l.Params, Body: body}, nil
}

func toOr(o *OrExpr) (ast.Expr, error) {
	left, err := toAnd(o.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range o.Rest {
		right, err := toAnd(r)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: "|", Left: left, Right: right}
	}
	return left, nil
}

func toAnd(a *AndExpr) (ast.Expr, error) {
	left, err := toRel(a.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range a.Rest {
		right, err := toRel(r)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: "&", Left: left, Right: right}
	}
	return left, nil
}

func toRel(r *RelExpr) (ast.Expr, error) {
	left, err := toAdd(r.Left)
	if err != nil {
		return nil, err
	}
	if r.Op == nil {
		return left, nil
	}
	right, err := toAdd(r.Right)
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Op: *r.Op, Left: left, Right: right}, nil
}

func toAdd(a *AddExpr) (ast.Expr, error) {
	left, err := toMul(a.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range a.Rest {
		right, err := toMul(op.Right)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op.Op, Left: left, Right: right}
	}
	return left, nil
}

func toMul(m *MulExpr) (ast.Expr, error) {
	left, err := toApp(m.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range m.Rest {
		right, err := toApp(op.Right)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op.Op, Left: left, Right: right}
	}
	return left, nil
}

func toApp(a *AppExpr) (ast.Expr, error) {
	fn, err := toAtom(a.Atoms[0])
	if err != nil {
		return nil, err
	}
	for _, atom := range a.Atoms[1:] {
		arg, err := toAtom(atom)
		if err != nil {
			return nil, err
		}
		fn = &ast.App{Func: fn, Arg: arg}
	}
	return fn, nil
}

func toAtom(a *Atom) (ast.Expr, error) {
	switch {
	case a.Ident != nil:
		return &ast.Var{Name: *a.Ident}, nil
	case a.Decimal != nil:
		d, err := decimal.NewFromString(*a.Decimal)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal literal %q: %w", *a.Decimal, err)
		}
		return &ast.Num{IsDecimal: true, Decimal: d}, nil
	case a.Int != nil:
		i, err := strconv.ParseInt(*a.Int, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", *a.Int, err)
		}
		return &ast.Num{Int: i}, nil
	case a.Char != nil:
		r, err := unquoteChar(*a.Char)
		if err != nil {
			return nil, err
		}
		return &ast.Char{Value: r}, nil
	case a.Pack != nil:
		return &ast.Pack{Tag: a.Pack.Tag, Arity: a.Pack.Arity}, nil
	case a.Paren != nil:
		return toExpr(a.Paren)
	}
	return nil, fmt.Errorf("surface: empty atom node")
}

// unquoteChar strips the surrounding quotes the lexer's Char token keeps
// and resolves the one backslash escape Core source allows for each
// special character: \n, \t, \\, \'.
func unquoteChar(lit string) (rune, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(lit, "'"), "'")
	if len(inner) == 1 {
		return rune(inner[0]), nil
	}
	if len(inner) == 2 && inner[0] == '\\' {
		switch inner[1] {
		case 'n':
			return '\n', nil
		case 't':
			return '\t', nil
		case '\\':
			return '\\', nil
		case '\'':
			return '\'', nil
		}
	}
	return 0, fmt.Errorf("invalid character literal %q", lit)
}
