// Package ptree is the concrete parse-tree shape the parse engine
// produces on a successful match — the only contract the core owes
// downstream consumers such as package project.
package ptree

// Synthetic tags used for composite expressions that have no rule
// name of their own.
const (
	TagSequence    = "<seq>"
	TagAlternative = "<alt>"
	TagOptional    = "<opt>"
	TagRepeat      = "<rep>"
)

// Node is one produced parse-tree node.
//
// Symbol is the rule name when this node was produced by a Symbol
// expansion, one of the synthetic tags above for a composite
// expression, or the literal text for a Terminal. Matched is the
// exact substring of input this node spans (byte-for-byte; empty for
// empty matches). Children are ordered and exclusively owned by this
// node.
type Node struct {
	Symbol   string
	Matched  string
	Children []*Node
}

// Walk calls fn for n and every descendant, in document order (a node
// before its children, each child before its following sibling).
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
