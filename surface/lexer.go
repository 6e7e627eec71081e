// Package surface is the concrete-syntax frontend: a participle lexer
// and grammar turning Core source text (files or REPL lines) into an
// ast.Program, plus caret-style error reporting for the CLI.
//
// Grounded on kanso-lang-kanso/grammar (lexer.go's lexer.MustStateful
// token rules, grammar.go's struct-tag expression grammar, parser.go's
// fatih/color caret diagnostics), adapted from Kanso's statement/module
// language to Core's expression language: supercombinator definitions
// built from the operator-precedence chain §C.1 specifies (| & one
// relop + - * / application atoms) with let/letrec/case/lambda binding
// loosest of all.
package surface

import "github.com/alecthomas/participle/v2/lexer"

// CoreLexer tokenizes Core source. Order matters: Number before
// Operator (so a leading `-` in `-1` isn't special-cased — `negate` is
// a prelude function, not unary minus syntax), keywords before Ident (so
// an Atom's @Ident never swallows let/letrec/in/case/of/Pack), and
// multi-character operators before their single-character prefixes.
var CoreLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"Char", `'(\\.|[^'\\])'`, nil},
		{"Decimal", `[0-9]+\.[0-9]+`, nil},
		{"Int", `[0-9]+`, nil},
		{"Keyword", `(letrec|let|in|case|of|Pack)\b`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Op", `(==|!=|<=|>=|->)`, nil},
		{"Punct", `[-+*/&|<>=(){},.;\\]`, nil},
	},
})
