package machine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dr8co/corec/isa"
)

// dumpFrame is a suspended computation: the code and program counter to
// resume once the value Eval is forcing reaches WHNF, and the stack tail
// that was set aside to make room for a single-address working stack.
type dumpFrame struct {
	code  isa.Instructions
	pc    int
	stack []int
}

// Machine is one G-machine run: a heap shared across the whole program,
// an address stack, a dump of suspended callers, and the code/pc of the
// instruction sequence currently executing.
type Machine struct {
	Heap    *Heap
	Globals map[string]int

	constants []any
	stack     []int
	dump      []dumpFrame
	code      isa.Instructions
	pc        int
}

// New builds a Machine from a code generator's output: one Instructions
// sequence and declared arity per global name, plus the shared constant
// pool those instructions index into. Every global becomes a Global node
// on the heap up front, so PushGlobal never has to allocate.
func New(code map[string]isa.Instructions, arities map[string]int, constants []any) (*Machine, error) {
	m := &Machine{
		Heap:      NewHeap(),
		Globals:   make(map[string]int, len(code)),
		constants: constants,
	}
	for name, ins := range code {
		arity, ok := arities[name]
		if !ok {
			return nil, fmt.Errorf("machine: no arity recorded for global %q", name)
		}
		addr := m.Heap.Alloc(&NGlobal{Name: name, Arity: arity, Code: ins})
		m.Globals[name] = addr
	}
	return m, nil
}

// Run evaluates the named global to weak head normal form and returns the
// resulting node. entry is typically a nullary supercombinator (a CAF)
// standing for the program's result, or `main`.
func (m *Machine) Run(entry string) (Node, error) {
	addr, ok := m.Globals[entry]
	if !ok {
		return nil, fmt.Errorf("machine: undefined global %q", entry)
	}
	m.stack = []int{addr}
	m.dump = nil
	m.code = nil
	m.pc = 0

	if err := m.runLoop(); err != nil {
		return nil, err
	}
	_, node := m.Heap.Deref(m.top())
	return node, nil
}

// runLoop drives execUnwind/dispatch over whatever the current
// stack/dump/code/pc already describe, until the computation halts.
// Shared by Run (a fresh top-level evaluation) and Force (forcing a
// sub-value while rendering, with the ambient state saved and restored
// around the call).
func (m *Machine) runLoop() error {
	halted, err := m.execUnwind()
	if err != nil {
		return err
	}
	for !halted {
		op := isa.Opcode(m.code[m.pc])
		if op == isa.Unwind {
			halted, err = m.execUnwind()
			if err != nil {
				return err
			}
			continue
		}
		def, derr := isa.Lookup(byte(op))
		if derr != nil {
			return derr
		}
		operands, width := isa.ReadOperands(def, m.code[m.pc+1:])
		m.pc += 1 + width
		if err := m.dispatch(op, operands); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) push(addr int) { m.stack = append(m.stack, addr) }

func (m *Machine) pop() int {
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top
}

func (m *Machine) top() int { return m.stack[len(m.stack)-1] }

// execUnwind drives graph reduction on the node currently at the top of
// the stack until either: the code for a global with enough arguments
// present is installed (returns false, caller resumes stepping), the
// value is already WHNF and a dump frame is restored (returns false,
// caller resumes stepping the restored code), or the value is WHNF with
// nothing left on the dump, meaning the whole run is done (returns true).
func (m *Machine) execUnwind() (bool, error) {
	for {
		addr := m.top()
		switch n := m.Heap.Get(addr).(type) {
		case *NIndirection:
			m.stack[len(m.stack)-1] = n.Addr

		case *NApp:
			m.push(n.Func)

		case *NGlobal:
			nargs := len(m.stack) - 1
			if nargs < n.Arity {
				if len(m.dump) == 0 {
					return false, errors.Wrapf(ErrStackUnderflow,
						"%s needs %d argument(s), got %d", n.Name, n.Arity, nargs)
				}
				// A partial application is itself the value: the
				// application Eval started from sits at the bottom of
				// this working stack, so that is what goes back.
				m.stack = m.stack[:1]
				return m.doReturn()
			}
			if n.Arity > 0 {
				m.rearrange(n.Arity)
			}
			m.code = n.Code
			m.pc = 0
			return false, nil

		default:
			if len(m.dump) == 0 {
				return true, nil
			}
			return m.doReturn()
		}
	}
}

// doReturn restores the most recently saved dump frame, appending the
// value now on top of the (about-to-be-discarded) working stack onto the
// restored stack as the result Eval was asked to produce.
func (m *Machine) doReturn() (bool, error) {
	if len(m.dump) == 0 {
		return false, errors.Wrap(ErrStackUnderflow, "return with empty dump")
	}
	result := m.top()
	frame := m.dump[len(m.dump)-1]
	m.dump = m.dump[:len(m.dump)-1]
	m.code = frame.code
	m.pc = frame.pc
	m.stack = append(frame.stack, result)
	return false, nil
}

// rearrange implements Unwind's spine-walk conclusion: having just
// reached a Global node with at least `arity` further App nodes below it
// on the stack (one per argument, each pushed by following successive
// Func links), replace the global and its spine with the arguments
// themselves, deepest-applied first, topmost-applied last, directly
// above the outermost App node's address — the "anchor" every R-compiled
// body's Update instruction redirects once it computes a result.
func (m *Machine) rearrange(arity int) {
	top := len(m.stack)
	// appAddrs[i] is the App node applying the (i+1)-th argument, read
	// outward from the Global: appAddrs[0] is the App directly wrapping
	// the Global, appAddrs[arity-1] is the outermost App (the anchor).
	appAddrs := make([]int, arity)
	for i := 0; i < arity; i++ {
		appAddrs[i] = m.stack[top-2-i]
	}
	anchor := appAddrs[arity-1]
	args := make([]int, arity)
	for i, a := range appAddrs {
		args[i] = m.Heap.Get(a).(*NApp).Arg
	}
	base := top - arity - 1
	m.stack = m.stack[:base]
	m.push(anchor)
	for i := arity - 1; i >= 0; i-- {
		m.push(args[i])
	}
}
