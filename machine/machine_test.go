package machine_test

import (
	"testing"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/codegen"
	"github.com/dr8co/corec/lift"
	"github.com/dr8co/corec/machine"
	"github.com/dr8co/corec/prelude"
	"github.com/dr8co/corec/resolve"
	"github.com/dr8co/corec/surface"
)

// runCore parses src as a set of definitions, merges it after the prelude
// (so a user def of the same name overwrites the prelude's), lifts and
// resolves it, compiles it, merges in the hand-compiled primitives, runs
// entry to weak head normal form, and renders the result. This is the same
// pipeline repl.compileAndRun and cmd/corec's compileAndRun drive, exercised
// here as a black-box end-to-end test of the whole front-end-to-machine
// chain.
func runCore(t *testing.T, src, entry string) (string, error) {
	t.Helper()
	userProg, err := surface.Parse("<test>", src)
	if err != nil {
		t.Fatalf("surface.Parse() error: %v", err)
	}

	full := &ast.Program{Defs: append(prelude.AST().Defs, userProg.Defs...)}
	full = lift.Run(full)
	if err := resolve.Program(full, prelude.Names()...); err != nil {
		t.Fatalf("resolve.Program() error: %v", err)
	}

	c := codegen.New()
	code, constants, err := c.Compile(full)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	primCode, primArities := prelude.Primitives()
	arities := c.Arities()
	for name, ins := range primCode {
		code[name] = ins
	}
	for name, a := range primArities {
		arities[name] = a
	}

	m, err := machine.New(code, arities, constants)
	if err != nil {
		t.Fatalf("machine.New() error: %v", err)
	}
	if _, err := m.Run(entry); err != nil {
		return "", err
	}
	return m.Render(m.Globals[entry])
}

func mustRunCore(t *testing.T, src, entry string) string {
	t.Helper()
	out, err := runCore(t, src, entry)
	if err != nil {
		t.Fatalf("runCore(%q) error: %v", src, err)
	}
	return out
}

func TestApplyIdentityCombinator(t *testing.T) {
	if got := mustRunCore(t, "main = I 42", "main"); got != "42" {
		t.Errorf("main = %q, want 42", got)
	}
}

func TestApplySCombinator(t *testing.T) {
	if got := mustRunCore(t, "main = S K K 42", "main"); got != "42" {
		t.Errorf("main = %q, want 42", got)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	tests := []struct{ src, want string }{
		{"main = 4*5+(2-5)", "17"},
		{"main = 4+2*5+2-5", "11"},
	}
	for _, tt := range tests {
		if got := mustRunCore(t, tt.src, "main"); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestStrictIfNeverEvaluatesTheUnchosenBranch(t *testing.T) {
	tests := []struct{ src, want string }{
		{"main = if (5 == 5) 10 2", "10"},
		{"main = if ((2-2) == 0) (K 4 5) (K1 4 5)", "4"},
	}
	for _, tt := range tests {
		if got := mustRunCore(t, tt.src, "main"); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestNonRecursiveLetBindsInParallel(t *testing.T) {
	src := "main = let a=1,b=2,c=3,d=9 in K (K c a) d"
	if got := mustRunCore(t, src, "main"); got != "3" {
		t.Errorf("main = %q, want 3", got)
	}
}

func TestLetrecBuildsACyclicList(t *testing.T) {
	src := `infinite x = letrec xs = cons x xs in xs;
main = hd (tl (tl (infinite 7)))`
	if got := mustRunCore(t, src, "main"); got != "7" {
		t.Errorf("main = %q, want 7", got)
	}
}

func TestSieveOfEratosthenesOverTheFirstFifteenNaturalsFromTwo(t *testing.T) {
	// mod, from, take and sieve aren't part of the prelude; this program
	// supplies them itself, in Core, alongside main.
	src := `
mod a b = if (a < b) a (mod (a - b) b);
from n = cons n (from (n + 1));
take n xs = if (n == 0) nil (case xs of <2> h t -> cons h (take (n - 1) t));
filter p xs = case xs of <1> -> nil, <2> h t -> if ((mod h p) == 0) (filter p t) (cons h (filter p t));
sieve xs = case xs of <1> -> nil, <2> h t -> cons h (sieve (filter h t));
main = sieve (take 15 (from 2))`
	want := "[2, 3, 5, 7, 11, 13, 'nil']"
	if got := mustRunCore(t, src, "main"); got != want {
		t.Errorf("main = %q, want %q", got, want)
	}
}

func TestDecimalDivisionKeepsTwentyEightSignificantDigits(t *testing.T) {
	src := "main = 2.123456789123456789 / 1.121212121121212121"
	want := "1.893893893155560965668214599"
	if got := mustRunCore(t, src, "main"); got != want {
		t.Errorf("main = %q, want %q", got, want)
	}
}

func TestCharComparisonAndTypeErrorAbort(t *testing.T) {
	if got := mustRunCore(t, "main = 'a' < 'b'", "main"); got != "true" {
		t.Errorf("main = %q, want true", got)
	}
	if _, err := runCore(t, "main = 'a' + 1", "main"); err == nil {
		t.Error("'a' + 1 should abort with a type error, got no error")
	}
}

func TestAbortPropagatesButIsNeverForcedLazily(t *testing.T) {
	if _, err := runCore(t, "main = abort", "main"); err == nil {
		t.Error("main = abort should error")
	}
	if got := mustRunCore(t, "main = K 1 abort", "main"); got != "1" {
		t.Errorf("K 1 abort = %q, want 1 (the second argument is never forced)", got)
	}
}
