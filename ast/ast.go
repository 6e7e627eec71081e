// Package ast defines the abstract syntax tree the core compiler pipeline
// consumes: supercombinator definitions built from applications, lambdas,
// let/letrec, case expressions, variables, and literals.
//
// The tree handed to the lifters is produced by an external collaborator
// (the surface parser, or any other frontend); this package only defines
// the shape and the one tree-walking helper (FreeVars) the two lifters
// share.
package ast

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Node is the base interface for every AST node.
type Node interface {
	// String returns a debug rendering of the node.
	String() string
}

// Expr is the interface implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node: a list of supercombinator definitions.
// Merging several ASTs (prelude + user program) is done by concatenating
// their Defs slices before the resolver runs; a later Def with a name
// already present overwrites an earlier one (last-wins, per §6).
type Program struct {
	Defs []*Def
}

func (p *Program) String() string {
	var out strings.Builder
	for i, d := range p.Defs {
		if i > 0 {
			out.WriteString(";\n")
		}
		out.WriteString(d.String())
	}
	return out.String()
}

// Def is a single supercombinator definition: name, formal parameters, body.
type Def struct {
	Name   string
	Params []string
	Body   Expr
}

func (d *Def) String() string {
	var out strings.Builder
	out.WriteString(d.Name)
	for _, p := range d.Params {
		out.WriteString(" " + p)
	}
	out.WriteString(" = ")
	out.WriteString(d.Body.String())
	return out.String()
}

// VarKind classifies a Var occurrence once the identifier resolver has run.
type VarKind int

const (
	// VarUnresolved marks a Var the resolver has not yet classified.
	VarUnresolved VarKind = iota
	// VarGlobal is a reference to a supercombinator or primitive.
	VarGlobal
	// VarArg is a reference to a supercombinator parameter, by index.
	VarArg
	// VarLocal is a reference to a let/letrec binding or case-alt field, by slot.
	VarLocal
)

// Var is a variable occurrence. Kind and Index are filled in by the
// identifier resolver (package resolve); they are VarUnresolved/0 on an
// AST fresh from a parser or a lifter.
type Var struct {
	Name  string
	Kind  VarKind
	Index int
}

func (v *Var) exprNode() {}
func (v *Var) String() string { return v.Name }

// Num is an integer or arbitrary-precision decimal literal.
//
// Arithmetic is overloaded over this node at runtime (§3.1): when either
// operand of +,-,*,/ is a Decimal, the result is decimal; otherwise integer.
type Num struct {
	IsDecimal bool
	Int       int64
	Decimal   decimal.Decimal
}

func (n *Num) exprNode() {}
func (n *Num) String() string {
	if n.IsDecimal {
		return n.Decimal.String()
	}
	return fmt.Sprintf("%d", n.Int)
}

// Char is a character literal.
type Char struct {
	Value rune
}

func (c *Char) exprNode() {}
func (c *Char) String() string { return fmt.Sprintf("'%c'", c.Value) }

// Pack is a constructor literal `Pack{tag,arity}`. Applying it to `arity`
// arguments (via App) builds a Constructor value of that tag.
type Pack struct {
	Tag   int
	Arity int
}

func (p *Pack) exprNode() {}
func (p *Pack) String() string { return fmt.Sprintf("Pack{%d,%d}", p.Tag, p.Arity) }

// App is a binary, left-associated function application: (Func Arg).
type App struct {
	Func Expr
	Arg  Expr
}

func (a *App) exprNode() {}
func (a *App) String() string { return fmt.Sprintf("(%s %s)", a.Func.String(), a.Arg.String()) }

// Lambda is an anonymous abstraction. The lambda lifter removes every
// Lambda node from the tree before code generation sees it (§4.1).
type Lambda struct {
	Params []string
	Body   Expr
}

func (l *Lambda) exprNode() {}
func (l *Lambda) String() string {
	return fmt.Sprintf("(\\%s. %s)", strings.Join(l.Params, " "), l.Body.String())
}

// Binding is a single name=expr pair inside a Let/LetRec.
type Binding struct {
	Name  string
	Value Expr
}

// Let is a let or letrec binding group. Recursive distinguishes the two:
// in a LetRec, each binding's Value may refer to any name bound in the
// same group (§4.4's Alloc+Update compilation builds the cycle).
type Let struct {
	Recursive bool
	Bindings  []Binding
	Body      Expr
}

func (l *Let) exprNode() {}
func (l *Let) String() string {
	var out strings.Builder
	if l.Recursive {
		out.WriteString("letrec ")
	} else {
		out.WriteString("let ")
	}
	for i, b := range l.Bindings {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(b.Name + " = " + b.Value.String())
	}
	out.WriteString(" in ")
	out.WriteString(l.Body.String())
	return out.String()
}

// Alt is a single `<tag> var* -> expr` case alternative.
type Alt struct {
	Tag  int
	Vars []string
	Body Expr
}

// Case is a case expression. After the case lifter has run, a Case node
// appears only in strict position (§4.2): the body of a supercombinator,
// or a scrutinee under another strict construct.
type Case struct {
	Scrutinee Expr
	Alts      []*Alt
}

func (c *Case) exprNode() {}
func (c *Case) String() string {
	var out strings.Builder
	out.WriteString("case " + c.Scrutinee.String() + " of ")
	for i, a := range c.Alts {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(fmt.Sprintf("<%d>", a.Tag))
		for _, v := range a.Vars {
			out.WriteString(" " + v)
		}
		out.WriteString(" -> " + a.Body.String())
	}
	return out.String()
}

// BinOp is one of the overloaded arithmetic, comparison, or logical
// infix operators: + - * / == != < <= > >= & |.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinOp) exprNode() {}
func (b *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Op, b.Right.String())
}

// If is a conditional: If Cond Then Else.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (f *If) exprNode() {}
func (f *If) String() string {
	return fmt.Sprintf("if %s %s %s", f.Cond.String(), f.Then.String(), f.Else.String())
}
