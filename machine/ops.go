package machine

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dr8co/corec/isa"
)

// dispatch executes every opcode except Unwind, which runLoop handles itself
// since it is the one instruction that can change which code is running.
func (m *Machine) dispatch(op isa.Opcode, operands []int) error {
	switch op {
	case isa.PushGlobal:
		name, ok := m.constants[operands[0]].(string)
		if !ok {
			return fmt.Errorf("machine: internal error, PushGlobal constant is not a name")
		}
		addr, ok := m.Globals[name]
		if !ok {
			return fmt.Errorf("machine: undefined global %q", name)
		}
		m.push(addr)

	case isa.PushInt:
		v, ok := m.constants[operands[0]].(int64)
		if !ok {
			return fmt.Errorf("machine: internal error, PushInt constant is not an int64")
		}
		m.push(m.Heap.Alloc(&NNum{Int: v}))

	case isa.PushFloat:
		v, ok := m.constants[operands[0]].(decimal.Decimal)
		if !ok {
			return fmt.Errorf("machine: internal error, PushFloat constant is not a decimal")
		}
		m.push(m.Heap.Alloc(&NNum{IsDecimal: true, Decimal: v}))

	case isa.PushChar:
		v, ok := m.constants[operands[0]].(rune)
		if !ok {
			return fmt.Errorf("machine: internal error, PushChar constant is not a rune")
		}
		m.push(m.Heap.Alloc(&NChar{Value: v}))

	case isa.PushBool:
		m.push(m.Heap.Alloc(&NBool{Value: operands[0] != 0}))

	case isa.Push:
		m.push(m.stack[len(m.stack)-1-operands[0]])

	case isa.MkApp:
		f := m.pop()
		x := m.pop()
		m.push(m.Heap.Alloc(&NApp{Func: f, Arg: x}))

	case isa.Update:
		k := operands[0]
		top := m.stack[len(m.stack)-1]
		idx := len(m.stack) - 1 - k
		m.Heap.Set(m.stack[idx], &NIndirection{Addr: top})

	case isa.Pop:
		m.stack = m.stack[:len(m.stack)-operands[0]]

	case isa.Alloc:
		for i := 0; i < operands[0]; i++ {
			addr := m.Heap.Alloc(nil)
			m.Heap.Set(addr, &NIndirection{Addr: addr})
			m.push(addr)
		}

	case isa.Slide:
		top := m.pop()
		m.stack = m.stack[:len(m.stack)-operands[0]]
		m.push(top)

	case isa.Eval:
		return m.evalOp()

	case isa.Return:
		return fmt.Errorf("machine: internal error, Return opcode reached (never emitted)")

	case isa.Add, isa.Sub, isa.Mul, isa.Div:
		return m.arithOp(op)

	case isa.Neg:
		return m.negOp()

	case isa.Eq, isa.Ne, isa.Lt, isa.Le, isa.Gt, isa.Ge:
		return m.compareOp(op)

	case isa.And, isa.Or:
		return m.logicOp(op)

	case isa.JumpFalse:
		return m.jumpFalseOp(operands[0])

	case isa.Jump:
		m.pc = operands[0]

	case isa.Pack:
		return m.packOp(operands[0], operands[1])

	case isa.CaseJump:
		return m.caseJumpOp(operands[0])

	case isa.Split:
		return m.splitOp(operands[0])

	case isa.Abort:
		return errors.Wrap(ErrExplicitAbort, "abort")

	default:
		return fmt.Errorf("machine: internal error, unhandled opcode %s", op.Name())
	}
	return nil
}

// evalOp forces the top of the stack to WHNF, suspending the rest of the
// current computation on the dump until it is done.
func (m *Machine) evalOp() error {
	addr := m.pop()
	saved := make([]int, len(m.stack))
	copy(saved, m.stack)
	m.dump = append(m.dump, dumpFrame{code: m.code, pc: m.pc, stack: saved})
	m.stack = []int{addr}
	_, err := m.execUnwind()
	return err
}

func (m *Machine) popNumber() (*NNum, error) {
	addr := m.pop()
	_, node := m.Heap.Deref(addr)
	n, ok := node.(*NNum)
	if !ok {
		return nil, errors.Wrapf(ErrTypeError, "expected a number, got %s", node.nodeType())
	}
	return n, nil
}

func (m *Machine) arithOp(op isa.Opcode) error {
	right, err := m.popNumber()
	if err != nil {
		return err
	}
	left, err := m.popNumber()
	if err != nil {
		return err
	}
	result, err := arith(op, left, right)
	if err != nil {
		return err
	}
	m.push(m.Heap.Alloc(result))
	return nil
}

// arith implements the numeric-tower overload of §3.1: the result is a
// decimal if either operand is, otherwise a plain integer. Integer
// division truncates toward zero, matching Go's; mixing in a decimal
// operand is how a program asks for exact fractional division instead.
func arith(op isa.Opcode, l, r *NNum) (*NNum, error) {
	if !l.IsDecimal && !r.IsDecimal {
		switch op {
		case isa.Add:
			return &NNum{Int: l.Int + r.Int}, nil
		case isa.Sub:
			return &NNum{Int: l.Int - r.Int}, nil
		case isa.Mul:
			return &NNum{Int: l.Int * r.Int}, nil
		case isa.Div:
			if r.Int == 0 {
				return nil, errors.Wrap(ErrTypeError, "division by zero")
			}
			return &NNum{Int: l.Int / r.Int}, nil
		}
	}
	ld, rd := l.AsDecimal(), r.AsDecimal()
	switch op {
	case isa.Add:
		return &NNum{IsDecimal: true, Decimal: ld.Add(rd)}, nil
	case isa.Sub:
		return &NNum{IsDecimal: true, Decimal: ld.Sub(rd)}, nil
	case isa.Mul:
		return &NNum{IsDecimal: true, Decimal: ld.Mul(rd)}, nil
	case isa.Div:
		if rd.IsZero() {
			return nil, errors.Wrap(ErrTypeError, "division by zero")
		}
		return &NNum{IsDecimal: true, Decimal: decimalDiv(ld, rd)}, nil
	}
	return nil, fmt.Errorf("machine: internal error, unhandled arithmetic opcode %s", op.Name())
}

// decimalDivSignificantDigits is the precision §4.5's decimal arithmetic
// rule names for division: "precision sufficient to preserve all input
// digits plus the operation's natural precision growth (e.g. 28
// significant digits for division)". shopspring/decimal's own Div defaults
// to a fixed 16 fractional digits regardless of magnitude, which is too
// shallow for this rule, so division goes through DivRound at a scale
// computed to hit the target significant-digit count instead.
const decimalDivSignificantDigits = 28

// decimalDiv divides l by r to decimalDivSignificantDigits significant
// digits. A first, generously precise pass establishes how many digits
// the quotient has to the left of its decimal point (0 for a quotient
// smaller than 1), and a second pass rounds to the fractional scale that
// makes the total come out to the target significant-digit count.
func decimalDiv(l, r decimal.Decimal) decimal.Decimal {
	probe := l.DivRound(r, decimalDivSignificantDigits+10)
	whole := probe.Truncate(0).Abs()
	intDigits := len(whole.String())
	if whole.IsZero() {
		intDigits = 0
	}
	scale := decimalDivSignificantDigits - intDigits
	if scale < 0 {
		scale = 0
	}
	return l.DivRound(r, int32(scale))
}

func (m *Machine) negOp() error {
	n, err := m.popNumber()
	if err != nil {
		return err
	}
	if n.IsDecimal {
		m.push(m.Heap.Alloc(&NNum{IsDecimal: true, Decimal: n.Decimal.Neg()}))
	} else {
		m.push(m.Heap.Alloc(&NNum{Int: -n.Int}))
	}
	return nil
}

func (m *Machine) compareOp(op isa.Opcode) error {
	right := m.pop()
	left := m.pop()
	_, rn := m.Heap.Deref(right)
	_, ln := m.Heap.Deref(left)
	result, err := compare(op, ln, rn)
	if err != nil {
		return err
	}
	m.push(m.Heap.Alloc(&NBool{Value: result}))
	return nil
}

// compare requires both operands to be the same category — Num (with
// int/decimal freely mixed), Char, or Bool — and orders Num and Char,
// restricting Bool to equality only.
func compare(op isa.Opcode, l, r Node) (bool, error) {
	switch lv := l.(type) {
	case *NNum:
		rv, ok := r.(*NNum)
		if !ok {
			return false, errors.Wrapf(ErrTypeError, "cannot compare %s with %s", l.nodeType(), r.nodeType())
		}
		return cmpResult(op, lv.AsDecimal().Cmp(rv.AsDecimal()))

	case *NChar:
		rv, ok := r.(*NChar)
		if !ok {
			return false, errors.Wrapf(ErrTypeError, "cannot compare %s with %s", l.nodeType(), r.nodeType())
		}
		c := 0
		switch {
		case lv.Value < rv.Value:
			c = -1
		case lv.Value > rv.Value:
			c = 1
		}
		return cmpResult(op, c)

	case *NBool:
		rv, ok := r.(*NBool)
		if !ok {
			return false, errors.Wrapf(ErrTypeError, "cannot compare %s with %s", l.nodeType(), r.nodeType())
		}
		if op != isa.Eq && op != isa.Ne {
			return false, errors.Wrapf(ErrTypeError, "booleans only support equality, not %s", op.Name())
		}
		eq := lv.Value == rv.Value
		if op == isa.Ne {
			eq = !eq
		}
		return eq, nil

	default:
		return false, errors.Wrapf(ErrTypeError, "cannot compare values of type %s", l.nodeType())
	}
}

func cmpResult(op isa.Opcode, c int) (bool, error) {
	switch op {
	case isa.Eq:
		return c == 0, nil
	case isa.Ne:
		return c != 0, nil
	case isa.Lt:
		return c < 0, nil
	case isa.Le:
		return c <= 0, nil
	case isa.Gt:
		return c > 0, nil
	case isa.Ge:
		return c >= 0, nil
	}
	return false, fmt.Errorf("machine: internal error, unhandled comparison opcode %s", op.Name())
}

func (m *Machine) logicOp(op isa.Opcode) error {
	right := m.pop()
	left := m.pop()
	_, rn := m.Heap.Deref(right)
	_, ln := m.Heap.Deref(left)
	lb, ok1 := ln.(*NBool)
	rb, ok2 := rn.(*NBool)
	if !ok1 || !ok2 {
		return errors.Wrap(ErrTypeError, "and/or require boolean operands")
	}
	var v bool
	if op == isa.And {
		v = lb.Value && rb.Value
	} else {
		v = lb.Value || rb.Value
	}
	m.push(m.Heap.Alloc(&NBool{Value: v}))
	return nil
}

func (m *Machine) jumpFalseOp(target int) error {
	addr := m.pop()
	_, node := m.Heap.Deref(addr)
	b, ok := node.(*NBool)
	if !ok {
		return errors.Wrapf(ErrTypeError, "if: expected a boolean condition, got %s", node.nodeType())
	}
	if !b.Value {
		m.pc = target
	}
	return nil
}

// packOp pops `arity` field addresses top-down into Fields[0..arity-1],
// so Fields[0] is whatever was on top — the first-applied constructor
// argument, exactly the value Unwind's rearrange already placed there.
func (m *Machine) packOp(tag, arity int) error {
	fields := make([]int, arity)
	for i := 0; i < arity; i++ {
		fields[i] = m.pop()
	}
	m.push(m.Heap.Alloc(&NConstructor{Tag: tag, Arity: arity, Fields: fields}))
	return nil
}

func (m *Machine) caseJumpOp(constIdx int) error {
	table, ok := m.constants[constIdx].(isa.CaseTable)
	if !ok {
		return fmt.Errorf("machine: internal error, CaseJump constant is not a CaseTable")
	}
	_, node := m.Heap.Deref(m.top())
	c, ok := node.(*NConstructor)
	if !ok {
		return errors.Wrapf(ErrTypeError, "case: expected a constructor, got %s", node.nodeType())
	}
	target, ok := table[c.Tag]
	if !ok {
		return errors.Wrapf(ErrNoMatchingAlternative, "tag %d", c.Tag)
	}
	m.pc = target
	return nil
}

// splitOp pops a saturated constructor and pushes its fields back in
// declaration order, so the first field ends up deepest and the last
// field ends up on top — see splitEnv in codegen/schemes.go, which this
// must agree with exactly.
func (m *Machine) splitOp(arity int) error {
	addr := m.pop()
	_, node := m.Heap.Deref(addr)
	c, ok := node.(*NConstructor)
	if !ok {
		return errors.Wrapf(ErrTypeError, "split: expected a constructor, got %s", node.nodeType())
	}
	if c.Arity != arity {
		return errors.Wrapf(ErrTypeError, "split: constructor has arity %d, alternative expects %d", c.Arity, arity)
	}
	for i := 0; i < arity; i++ {
		m.push(c.Fields[i])
	}
	return nil
}
