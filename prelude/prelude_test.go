package prelude

import (
	"testing"

	"github.com/dr8co/corec/ast"
	"github.com/dr8co/corec/isa"
)

func TestASTDefinesEveryCombinator(t *testing.T) {
	want := []string{"I", "K", "K1", "S", "compose", "twice", "nil", "cons", "hd", "tl"}
	got := map[string]*ast.Def{}
	for _, d := range AST().Defs {
		got[d.Name] = d
	}
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Errorf("AST() missing definition %q", name)
		}
	}
}

func TestNilAndConsUseDeclaredTags(t *testing.T) {
	defs := map[string]*ast.Def{}
	for _, d := range AST().Defs {
		defs[d.Name] = d
	}
	nilPack, ok := defs["nil"].Body.(*ast.Pack)
	if !ok || nilPack.Tag != NilTag || nilPack.Arity != 0 {
		t.Errorf("nil = %#v, want Pack{%d,0}", defs["nil"].Body, NilTag)
	}
	consPack, ok := defs["cons"].Body.(*ast.Pack)
	if !ok || consPack.Tag != ConsTag || consPack.Arity != 2 {
		t.Errorf("cons = %#v, want Pack{%d,2}", defs["cons"].Body, ConsTag)
	}
}

func TestPrimitivesArityMatchesCode(t *testing.T) {
	code, arities := Primitives()
	if len(code) != len(arities) {
		t.Fatalf("Primitives() returned %d code entries but %d arities", len(code), len(arities))
	}
	for name := range code {
		if _, ok := arities[name]; !ok {
			t.Errorf("primitive %q has code but no recorded arity", name)
		}
	}
	if arities["+"] != 2 || arities["negate"] != 1 || arities["abort"] != 0 || arities["if"] != 3 {
		t.Errorf("unexpected arities: +=%d negate=%d abort=%d if=%d",
			arities["+"], arities["negate"], arities["abort"], arities["if"])
	}
}

func TestPrimitiveBinaryCodeEndsInUnwind(t *testing.T) {
	code, _ := Primitives()
	for _, name := range []string{"+", "-", "*", "/", "==", "!=", "<", "<=", ">", ">=", "&", "|"} {
		ins := code[name]
		if len(ins) == 0 {
			t.Fatalf("no code for primitive %q", name)
		}
		if last := isa.Opcode(ins[len(ins)-1]); last != isa.Unwind {
			t.Errorf("primitive %q's code ends in %s, want Unwind", name, last.Name())
		}
	}
}

func TestIfPrimitiveNeverForcesTheUnchosenBranch(t *testing.T) {
	// Every instruction before the first JumpFalse/Jump-reached Push of a
	// branch must not itself be an Eval of that branch; concretely, the
	// only Eval in if's code is the one forcing the condition, so there
	// should be exactly one Eval total.
	code, _ := Primitives()
	ins := code["if"]
	evalCount := 0
	for i := 0; i < len(ins); {
		def, err := isa.Lookup(ins[i])
		if err != nil {
			t.Fatalf("disassembly error: %v", err)
		}
		if isa.Opcode(ins[i]) == isa.Eval {
			evalCount++
		}
		_, width := isa.ReadOperands(def, ins[i+1:])
		i += 1 + width
	}
	if evalCount != 1 {
		t.Errorf("if's code has %d Eval instructions, want exactly 1 (forcing the condition only)", evalCount)
	}
}

func TestNamesCoversEveryPrimitive(t *testing.T) {
	_, arities := Primitives()
	names := map[string]bool{}
	for _, n := range Names() {
		names[n] = true
	}
	for name := range arities {
		if !names[name] {
			t.Errorf("Names() missing primitive %q", name)
		}
	}
}
