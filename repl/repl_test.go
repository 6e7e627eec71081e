package repl

import (
	"strings"
	"testing"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/prelude"
	"github.com/dr8co/corec/symtab"
)

func TestIsBalanced(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"(1 + 2)", true},
		{"case x of <1> -> 1, <2> h t -> h", true},
		{"(1 + 2", false},
		{"1 + 2)", false},
		{"[(])", false},
		{"f (g (h x))", true},
	}
	for _, tt := range tests {
		if got := isBalanced(tt.input); got != tt.want {
			t.Errorf("isBalanced(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCloneTableIsIndependentOfTheOriginal(t *testing.T) {
	orig := symtab.New()
	orig.Define("f", []string{"x"}, &ast.Var{Name: "x"})

	clone := cloneTable(orig)
	clone.Define("g", nil, &ast.Num{Int: 1})

	if _, ok := orig.Get("g"); ok {
		t.Error("defining g on the clone leaked back into the original table")
	}
	if _, ok := clone.Get("f"); !ok {
		t.Error("clone should have copied f from the original")
	}
}

func TestTableProgramReflectsCurrentDefinitions(t *testing.T) {
	table := symtab.New()
	table.Define("f", []string{"x"}, &ast.Var{Name: "x"})
	table.Define("g", nil, &ast.Num{Int: 42})

	prog := tableProgram(table)
	if len(prog.Defs) != 2 {
		t.Fatalf("tableProgram() produced %d defs, want 2", len(prog.Defs))
	}
	names := map[string]bool{}
	for _, d := range prog.Defs {
		names[d.Name] = true
	}
	if !names["f"] || !names["g"] {
		t.Errorf("tableProgram() defs = %v, want f and g", names)
	}
}

func TestCompileAndRunArithmetic(t *testing.T) {
	prog := prelude.AST()
	prog.Defs = append(prog.Defs, &ast.Def{
		Name: "main",
		Body: &ast.BinOp{Op: "+", Left: &ast.Num{Int: 1}, Right: &ast.Num{Int: 2}},
	})
	out, err := compileAndRun(prog, "main")
	if err != nil {
		t.Fatalf("compileAndRun() error: %v", err)
	}
	if out != "3" {
		t.Errorf("compileAndRun() = %q, want 3", out)
	}
}

func TestEvalCmdDefinesWithoutRunning(t *testing.T) {
	table := symtab.New()
	msg := evalCmd("double x = x + x", table, false)()
	result, ok := msg.(evalResultMsg)
	if !ok {
		t.Fatalf("evalCmd() returned %T, want evalResultMsg", msg)
	}
	if result.isError {
		t.Fatalf("evalCmd() on a valid definition errored: %s", result.output)
	}
	if !strings.Contains(result.output, "double") {
		t.Errorf("evalCmd() output = %q, want it to mention the defined name", result.output)
	}
	if _, ok := result.table.Get("double"); !ok {
		t.Error("evalCmd() did not record double in the returned table")
	}
}

func TestEvalCmdFallsBackToAnonymousExpression(t *testing.T) {
	table := symtab.New()
	msg := evalCmd("1 + 2", table, false)()
	result, ok := msg.(evalResultMsg)
	if !ok {
		t.Fatalf("evalCmd() returned %T, want evalResultMsg", msg)
	}
	if result.isError {
		t.Fatalf("evalCmd() on a bare expression errored: %s", result.output)
	}
	if result.output != "3" {
		t.Errorf("evalCmd() output = %q, want 3", result.output)
	}
}

func TestEvalCmdReportsParseErrorForGarbage(t *testing.T) {
	table := symtab.New()
	msg := evalCmd("===", table, false)()
	result, ok := msg.(evalResultMsg)
	if !ok {
		t.Fatalf("evalCmd() returned %T, want evalResultMsg", msg)
	}
	if !result.isError || result.errorType != ParseError {
		t.Errorf("evalCmd(%q) = %+v, want a ParseError", "===", result)
	}
}
