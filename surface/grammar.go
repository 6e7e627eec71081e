package surface

// File is a whole Core source unit: `;`-separated supercombinator
// definitions, with an optional trailing `;`.
type File struct {
	Defs []*SCDef `@@ { ";" @@ } [ ";" ]`
}

// SCDef is `sc ::= var var* "=" expr`.
type SCDef struct {
	Name   string   `@Ident`
	Params []string `{ @Ident }`
	Body   *Expr    `"=" @@`
}

// Expr is the top-level expression form: let/letrec, case, and lambda
// bind loosest of all, falling through to the operator-precedence chain
// (OrExpr) when none of them apply.
type Expr struct {
	Let    *LetExpr    `  @@`
	Case   *CaseExpr   `| @@`
	Lambda *LambdaExpr `| @@`
	Or     *OrExpr     `| @@`
}

// LetExpr covers both `let` and `letrec`; Keyword distinguishes them.
type LetExpr struct {
	Keyword  string     `@("let" | "letrec")`
	Bindings []*Binding `@@ { "," @@ }`
	Body     *Expr      `"in" @@`
}

// Binding is one `name = expr` pair inside a let/letrec.
type Binding struct {
	Name  string `@Ident "="`
	Value *Expr  `@@`
}

// CaseExpr is `case expr of <tag> var* -> expr, ...`.
type CaseExpr struct {
	Scrutinee *Expr  `"case" @@ "of"`
	Alts      []*Alt `@@ { "," @@ }`
}

// Alt is one `<tag> var* -> expr` alternative.
type Alt struct {
	Tag  int      `"<" @Int ">"`
	Vars []string `{ @Ident }`
	Body *Expr    `"->" @@`
}

// LambdaExpr is `\var+. expr`.
type LambdaExpr struct {
	Params []string `"\\" @Ident { @Ident }`
	Body   *Expr    `"." @@`
}

// OrExpr is the loosest operator level: a `|`-chain of AndExprs.
type OrExpr struct {
	Left *AndExpr   `@@`
	Rest []*AndExpr `{ "|" @@ }`
}

// AndExpr is a `&`-chain of RelExprs.
type AndExpr struct {
	Left *RelExpr   `@@`
	Rest []*RelExpr `{ "&" @@ }`
}

// RelExpr is a single, non-chaining relational comparison: `a == b` is
// an expression, `a == b == c` is not (Right is optional, Op likewise).
type RelExpr struct {
	Left  *AddExpr `@@`
	Op    *string  `[ @("==" | "!=" | "<=" | ">=" | "<" | ">")`
	Right *AddExpr `  @@ ]`
}

// AddExpr is a left-associative `+`/`-` chain.
type AddExpr struct {
	Left *MulExpr `@@`
	Rest []*AddOp `{ @@ }`
}

// AddOp is one step of an AddExpr chain.
type AddOp struct {
	Op    string   `@("+" | "-")`
	Right *MulExpr `@@`
}

// MulExpr is a left-associative `*`/`/` chain.
type MulExpr struct {
	Left *AppExpr `@@`
	Rest []*MulOp `{ @@ }`
}

// MulOp is one step of a MulExpr chain.
type MulOp struct {
	Op    string   `@("*" | "/")`
	Right *AppExpr `@@`
}

// AppExpr is left-associative juxtaposition: one or more atoms applied
// to each other left to right.
type AppExpr struct {
	Atoms []*Atom `@@ { @@ }`
}

// Atom is the tightest-binding production: a variable, a literal, a
// constructor literal, or a parenthesized expression.
type Atom struct {
	Ident   *string  `(  @Ident`
	Decimal *string  ` | @Decimal`
	Int     *string  ` | @Int`
	Char    *string  ` | @Char`
	Pack    *PackLit ` | @@`
	Paren   *Expr    ` | "(" @@ ")" )`
}

// PackLit is the constructor literal `Pack{tag,arity}`.
type PackLit struct {
	Tag   int `"Pack" "{" @Int ","`
	Arity int `@Int "}"`
}
