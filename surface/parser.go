package surface

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"github.com/dr8co/corec/ast"
)

var parser = participle.MustBuild[File](
	participle.Lexer(CoreLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(4),
)

// Parse turns Core source text into an ast.Program. name identifies the
// source for error messages (a file path, or "<repl>"). On a syntax
// error it returns the raw participle error without printing anything —
// callers that want the caret diagnostic on screen call
// ReportParseError themselves; the REPL deliberately doesn't, since it
// also uses a failed Parse as the signal to retry input as a bare
// expression rather than a definition.
func Parse(name, src string) (*ast.Program, error) {
	f, err := parser.ParseString(name, src)
	if err != nil {
		return nil, err
	}
	return toProgram(f)
}

// ParseFile reads and parses a `.core` source file.
func ParseFile(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	return Parse(path, string(src))
}

// ReportParseError prints a caret-style diagnostic under the offending
// line, the same shape kanso-lang-kanso's grammar.reportParseError uses.
func ReportParseError(name, src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("%s: %s", name, err)
		return
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("%s: syntax error: %s", name, err)
		return
	}
	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"

	color.Red("syntax error in %s at line %d, column %d:", name, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
