// Package isa defines the G-machine instruction set: the bytecode the code
// generator emits for each supercombinator and the stack machine executes.
//
// The encoding follows the teacher's bytecode package (opcode byte + fixed-
// width operands, looked up through a Definition table) generalized from a
// strict bytecode VM's opcode set to the G-machine's graph-reduction
// instructions (§4.4 of the design). Literal values that don't fit in a
// small fixed-width operand — integers, decimals, characters, global
// names, case-dispatch tables — live in a side constant pool referenced by
// a 2-byte index, exactly as the teacher's OpConstant references its
// object.Object constant pool.
package isa

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Instructions is a sequence of encoded bytecode instructions.
type Instructions []byte

// CaseTable is the constant a CaseJump instruction's operand indexes
// into: a constructor tag mapped to the absolute byte offset, within the
// same Instructions, of the alternative compiled for it.
type CaseTable map[int]int

// Opcode identifies a single G-machine instruction.
type Opcode byte

const (
	// PushGlobal pushes the heap address of the named supercombinator or
	// primitive. Operand: [const_index:2] — the global's name.
	PushGlobal Opcode = iota

	// PushInt allocates an integer Num node and pushes its address.
	// Operand: [const_index:2] — an int64 constant.
	PushInt

	// PushFloat allocates a decimal Num node and pushes its address.
	// Operand: [const_index:2] — a decimal.Decimal constant.
	PushFloat

	// PushChar allocates a character Num node and pushes its address.
	// Operand: [const_index:2] — a rune constant.
	PushChar

	// PushBool allocates a boolean Num node and pushes its address.
	// Operand: [value:1] — 0 or 1.
	PushBool

	// Push duplicates stack entry k (0 = top) onto the top of the stack.
	// Operand: [k:2].
	Push

	// MkApp pops f then x, pushes a new App(f,x) heap node's address.
	//
	// Stack: [..., x, f] -> [..., App(f,x)]   (x pushed before f, per C scheme)
	MkApp

	// Update overwrites the node k entries below the top with an
	// Indirection to the node currently on top, preserving sharing.
	// Operand: [k:2].
	Update

	// Pop discards the top k stack entries.
	// Operand: [k:2].
	Pop

	// Alloc pushes k fresh Indirection-to-self placeholders, used to build
	// the cyclic graphs a letrec requires.
	// Operand: [k:2].
	Alloc

	// Slide removes the k entries directly below the top, keeping the top.
	// Operand: [k:2].
	Slide

	// Unwind drives graph reduction on the node at the top of the stack.
	Unwind

	// Eval saves the remaining code and stack tail on the dump and starts
	// Unwind on the top of the stack alone, forcing it to WHNF.
	Eval

	// Return restores the most recently saved dump frame, leaving the
	// (now-WHNF) top of the current stack as the value it produced. The
	// code generator never emits it and the machine rejects it: returns
	// happen inside Unwind when it reaches a WHNF value with a dump frame.
	Return

	// Add, Sub, Mul, Div pop two atomic operands and push the arithmetic
	// result (integer if both are integers, decimal otherwise).
	Add
	Sub
	Mul
	Div

	// Neg pops one atomic operand and pushes its negation.
	Neg

	// Eq, Ne, Lt, Le, Gt, Ge pop two atomic operands of the same category
	// and push a boolean comparison result.
	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	// And, Or pop two boolean operands and push the logical result.
	And
	Or

	// JumpFalse jumps to an absolute instruction position if the top of
	// the stack (already evaluated to WHNF) is the boolean false; it is
	// always popped.
	// Operand: [target:2].
	JumpFalse

	// Jump unconditionally jumps to an absolute instruction position.
	// Operand: [target:2].
	Jump

	// Pack pops a fields, pushes a Constructor(tag, fields) node.
	// Operand: [tag:2, arity:2].
	Pack

	// CaseJump inspects the Constructor on top of the stack (left in
	// place) and jumps to the instruction position registered for its
	// tag in the referenced dispatch table; aborts if the tag has no
	// alternative.
	// Operand: [const_index:2] — a CaseTable constant.
	CaseJump

	// Split pops a Constructor and pushes its a fields, in order.
	// Operand: [a:2].
	Split

	// Abort unconditionally signals a runtime failure. This is the code
	// body of the nullary `abort` primitive.
	Abort
)

var names = map[Opcode]string{
	PushGlobal: "PushGlobal", PushInt: "PushInt", PushFloat: "PushFloat",
	PushChar: "PushChar", PushBool: "PushBool", Push: "Push", MkApp: "MkApp",
	Update: "Update", Pop: "Pop", Alloc: "Alloc", Slide: "Slide",
	Unwind: "Unwind", Eval: "Eval", Return: "Return",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Neg: "Neg",
	Eq: "Eq", Ne: "Ne", Lt: "Lt", Le: "Le", Gt: "Gt", Ge: "Ge",
	And: "And", Or: "Or", JumpFalse: "JumpFalse", Jump: "Jump",
	Pack: "Pack", CaseJump: "CaseJump", Split: "Split", Abort: "Abort",
}

// Definition describes an instruction's name and the byte width of each
// of its operands, in order.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	PushGlobal: {"PushGlobal", []int{2}},
	PushInt:    {"PushInt", []int{2}},
	PushFloat:  {"PushFloat", []int{2}},
	PushChar:   {"PushChar", []int{2}},
	PushBool:   {"PushBool", []int{1}},
	Push:       {"Push", []int{2}},
	MkApp:      {"MkApp", []int{}},
	Update:     {"Update", []int{2}},
	Pop:        {"Pop", []int{2}},
	Alloc:      {"Alloc", []int{2}},
	Slide:      {"Slide", []int{2}},
	Unwind:     {"Unwind", []int{}},
	Eval:       {"Eval", []int{}},
	Return:     {"Return", []int{}},
	Add:        {"Add", []int{}},
	Sub:        {"Sub", []int{}},
	Mul:        {"Mul", []int{}},
	Div:        {"Div", []int{}},
	Neg:        {"Neg", []int{}},
	Eq:         {"Eq", []int{}},
	Ne:         {"Ne", []int{}},
	Lt:         {"Lt", []int{}},
	Le:         {"Le", []int{}},
	Gt:         {"Gt", []int{}},
	Ge:         {"Ge", []int{}},
	And:        {"And", []int{}},
	Or:         {"Or", []int{}},
	JumpFalse:  {"JumpFalse", []int{2}},
	Jump:       {"Jump", []int{2}},
	Pack:       {"Pack", []int{2, 2}},
	CaseJump:   {"CaseJump", []int{2}},
	Split:      {"Split", []int{2}},
	Abort:      {"Abort", []int{}},
}

// Lookup returns the Definition for an opcode byte.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("isa: opcode %d undefined", op)
	}
	return def, nil
}

// Make encodes a single instruction as a byte sequence.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}
	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}
	ins := make([]byte, length)
	ins[0] = byte(op)
	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			ins[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(ins[offset:], uint16(operand))
		}
		offset += width
	}
	return ins
}

// PatchOperand overwrites the 2-byte operand of the instruction whose
// opcode byte sits at pos with v. The code generator uses this to
// backpatch forward jump targets and case-table constant indices once
// their real value is known.
func (ins Instructions) PatchOperand(pos int, v int) {
	binary.BigEndian.PutUint16(ins[pos+1:], uint16(v))
}

// ReadOperands decodes the operands following an opcode byte, returning
// them along with the number of bytes consumed.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0
	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(ins[offset])
		case 2:
			operands[i] = int(binary.BigEndian.Uint16(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// String renders a disassembly listing, one instruction per line.
func (ins Instructions) String() string {
	var out strings.Builder
	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			_, _ = fmt.Fprintf(&out, "ERROR: %s\n", err)
			i++
			continue
		}
		operands, read := ReadOperands(def, ins[i+1:])
		_, _ = fmt.Fprintf(&out, "%04d %s\n", i, fmtInstruction(def, operands))
		i += read + 1
	}
	return out.String()
}

func fmtInstruction(def *Definition, operands []int) string {
	switch len(def.OperandWidths) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	default:
		return fmt.Sprintf("ERROR: unhandled operand count for %s", def.Name)
	}
}

// Name returns the human-readable name of op, or "UNKNOWN" if undefined.
func (op Opcode) Name() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "UNKNOWN"
}
