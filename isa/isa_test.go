package isa

import "testing"

func TestMakeAndReadOperandsRoundTrip(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
	}{
		{Push, []int{300}},
		{Pack, []int{2, 3}},
		{PushBool, []int{1}},
		{Unwind, nil},
	}
	for _, tt := range tests {
		ins := Instructions(Make(tt.op, tt.operands...))
		def, err := Lookup(ins[0])
		if err != nil {
			t.Fatalf("Lookup(%s) error: %v", tt.op.Name(), err)
		}
		got, width := ReadOperands(def, ins[1:])
		if len(got) != len(tt.operands) {
			t.Fatalf("%s: got %d operands, want %d", tt.op.Name(), len(got), len(tt.operands))
		}
		for i := range got {
			if got[i] != tt.operands[i] {
				t.Errorf("%s: operand[%d] = %d, want %d", tt.op.Name(), i, got[i], tt.operands[i])
			}
		}
		wantWidth := 0
		for _, w := range def.OperandWidths {
			wantWidth += w
		}
		if width != wantWidth {
			t.Errorf("%s: consumed %d bytes, want %d", tt.op.Name(), width, wantWidth)
		}
	}
}

func TestPushOperandSpansTwoBytes(t *testing.T) {
	// Push's operand is 2 bytes wide, so a value over 255 must not get
	// truncated the way a 1-byte encoding would.
	ins := Instructions(Make(Push, 300))
	def, _ := Lookup(ins[0])
	operands, _ := ReadOperands(def, ins[1:])
	if operands[0] != 300 {
		t.Errorf("Push operand = %d, want 300", operands[0])
	}
}

func TestPatchOperandOverwritesInPlace(t *testing.T) {
	ins := Instructions(Make(Jump, 0))
	ins.PatchOperand(0, 42)
	def, _ := Lookup(ins[0])
	operands, _ := ReadOperands(def, ins[1:])
	if operands[0] != 42 {
		t.Errorf("Jump operand after patch = %d, want 42", operands[0])
	}
}

func TestLookupUndefinedOpcode(t *testing.T) {
	if _, err := Lookup(255); err == nil {
		t.Error("Lookup(255) should error: no opcode uses that byte")
	}
}

func TestInstructionsStringDisassemblesASequence(t *testing.T) {
	var ins Instructions
	ins = append(ins, Make(PushInt, 0)...)
	ins = append(ins, Make(Add)...)
	ins = append(ins, Make(Update, 1)...)
	s := ins.String()
	for _, want := range []string{"PushInt 0", "Add", "Update 1"} {
		if !contains(s, want) {
			t.Errorf("disassembly %q missing %q", s, want)
		}
	}
}

func TestOpcodeNameUnknown(t *testing.T) {
	if got := Opcode(254).Name(); got != "UNKNOWN" {
		t.Errorf("Opcode(254).Name() = %q, want UNKNOWN", got)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
