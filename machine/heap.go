// Package machine is the G-machine interpreter (§4.5, §3.3, §3.4): a
// heap of graph nodes, an address stack, a dump of suspended
// computations, and an instruction loop that drives Unwind to reduce a
// supercombinator application to weak head normal form, sharing the
// result back into the graph so later demands are free.
package machine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dr8co/corec/isa"
)

// Node is a single heap cell. The concrete variants mirror §3.3 exactly:
// a number, character, boolean, application, global, indirection, or
// saturated constructor.
type Node interface {
	nodeType() string
}

// NNum is an integer or arbitrary-precision decimal number.
type NNum struct {
	IsDecimal bool
	Int       int64
	Decimal   decimal.Decimal
}

func (*NNum) nodeType() string { return "Num" }

// AsDecimal returns n's value as a decimal.Decimal regardless of which
// field is populated, for use by code that treats int and decimal
// uniformly (comparisons).
func (n *NNum) AsDecimal() decimal.Decimal {
	if n.IsDecimal {
		return n.Decimal
	}
	return decimal.NewFromInt(n.Int)
}

func (n *NNum) String() string {
	if n.IsDecimal {
		return n.Decimal.String()
	}
	return fmt.Sprintf("%d", n.Int)
}

// NChar is a character value.
type NChar struct{ Value rune }

func (*NChar) nodeType() string { return "Char" }

// NBool is a boolean value — the result of a comparison or logical op,
// or the JumpFalse/If discriminant.
type NBool struct{ Value bool }

func (*NBool) nodeType() string { return "Bool" }

// NApp is an unevaluated application node: Func applied to Arg.
type NApp struct{ Func, Arg int }

func (*NApp) nodeType() string { return "App" }

// NGlobal is a supercombinator or primitive: its declared arity and the
// code Unwind installs once that many arguments are available.
type NGlobal struct {
	Name  string
	Arity int
	Code  isa.Instructions
}

func (*NGlobal) nodeType() string { return "Global" }

// NIndirection redirects to another heap address. Update installs these
// so every other reference to a shared computation sees its result once
// computed, instead of recomputing it (§3.4's sharing guarantee).
type NIndirection struct{ Addr int }

func (*NIndirection) nodeType() string { return "Indirection" }

// NConstructor is a saturated data value built by Pack: a tag and its
// field addresses, in declaration order.
type NConstructor struct {
	Tag    int
	Arity  int
	Fields []int
}

func (*NConstructor) nodeType() string { return "Constructor" }

// Heap is an array of graph nodes addressed by their index.
type Heap struct {
	nodes []Node
}

// NewHeap creates an empty heap.
func NewHeap() *Heap { return &Heap{} }

// Alloc appends node to the heap and returns its address.
func (h *Heap) Alloc(node Node) int {
	h.nodes = append(h.nodes, node)
	return len(h.nodes) - 1
}

// Get returns the node at addr.
func (h *Heap) Get(addr int) Node { return h.nodes[addr] }

// Set overwrites the node at addr — used by Update to install an
// Indirection and by Alloc-for-letrec to install the initial placeholder.
func (h *Heap) Set(addr int, node Node) { h.nodes[addr] = node }

// Deref follows a chain of Indirection nodes to the node they ultimately
// point to, along with its final address.
func (h *Heap) Deref(addr int) (int, Node) {
	for {
		n, ok := h.nodes[addr].(*NIndirection)
		if !ok {
			return addr, h.nodes[addr]
		}
		addr = n.Addr
	}
}
