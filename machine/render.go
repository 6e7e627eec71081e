package machine

import (
	"fmt"
	"strings"
)

// Predeclared constructor tags the prelude package's `nil`/`cons` defer
// to — see prelude.AST and DESIGN.md's Open Question decision.
const (
	NilTag  = 1
	ConsTag = 2
)

// Force evaluates the value at addr to weak head normal form without
// disturbing the machine's ambient run state, for use by Render, which
// must force every element of a structure, not just its own top node.
func (m *Machine) Force(addr int) (Node, error) {
	savedStack, savedDump, savedCode, savedPC := m.stack, m.dump, m.code, m.pc
	m.stack = []int{addr}
	m.dump = nil
	m.code = nil
	m.pc = 0

	err := m.runLoop()
	var result int
	if err == nil {
		result = m.top()
	}
	m.stack, m.dump, m.code, m.pc = savedStack, savedDump, savedCode, savedPC
	if err != nil {
		return nil, err
	}
	_, node := m.Heap.Deref(result)
	return node, nil
}

// Render forces addr deeply and formats the result the way the REPL and
// CLI present a program's answer: numbers and characters print as
// literals, a cons/nil spine prints as a bracketed list terminated by
// the literal atom 'nil' (`[e1, e2, ..., 'nil']`), and any other
// saturated constructor prints as `Tag<n>(field, ...)`.
func (m *Machine) Render(addr int) (string, error) {
	node, err := m.Force(addr)
	if err != nil {
		return "", err
	}
	switch n := node.(type) {
	case *NNum:
		return n.String(), nil
	case *NChar:
		return fmt.Sprintf("'%c'", n.Value), nil
	case *NBool:
		if n.Value {
			return "true", nil
		}
		return "false", nil
	case *NConstructor:
		if n.Tag == NilTag && n.Arity == 0 {
			return "['nil']", nil
		}
		if n.Tag == ConsTag && n.Arity == 2 {
			return m.renderList(n)
		}
		return m.renderConstructor(n)
	default:
		return "", fmt.Errorf("machine: cannot render a %s in normal form", node.nodeType())
	}
}

func (m *Machine) renderList(head *NConstructor) (string, error) {
	var elems []string
	cur := head
	for {
		elemStr, err := m.Render(cur.Fields[0])
		if err != nil {
			return "", err
		}
		elems = append(elems, elemStr)
		tailNode, err := m.Force(cur.Fields[1])
		if err != nil {
			return "", err
		}
		c, ok := tailNode.(*NConstructor)
		if !ok {
			return "", fmt.Errorf("machine: cons tail is not a constructor (%s)", tailNode.nodeType())
		}
		if c.Tag == NilTag && c.Arity == 0 {
			elems = append(elems, "'nil'")
			return "[" + strings.Join(elems, ", ") + "]", nil
		}
		if c.Tag != ConsTag || c.Arity != 2 {
			return "", fmt.Errorf("machine: cons tail is neither cons nor nil (tag %d)", c.Tag)
		}
		cur = c
	}
}

func (m *Machine) renderConstructor(c *NConstructor) (string, error) {
	parts := make([]string, c.Arity)
	for i, f := range c.Fields {
		s, err := m.Render(f)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return fmt.Sprintf("Tag%d(%s)", c.Tag, strings.Join(parts, ", ")), nil
}
