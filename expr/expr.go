// Package expr defines the expression tree that a compiled EBNF rule
// reduces to: a tagged variant with exclusive child ownership and no
// back-references, so rules can refer to each other (and themselves)
// by name without the tree itself ever containing a cycle.
package expr

import "github.com/EvenZeppa/BNFParserLib/internal/invariant"

// Expr is the sealed set of expression-tree node kinds. Every
// implementation lives in this package; the interface exists only to
// give the tree a single static type, the way go/ast uses Expr/Stmt.
type Expr interface {
	exprNode()
}

// Terminal matches exactly Text at the cursor.
type Terminal struct {
	Text string
}

// Symbol is indirection: at parse time it resolves to the rule named
// Name in the grammar registry. It deliberately does not embed the
// rule it references — that would make the tree cyclic for recursive
// grammars. The registry resolves Symbol by name instead.
type Symbol struct {
	Name string
}

// Sequence matches each child in order. Must own at least one child.
type Sequence struct {
	Children []Expr
}

// Alternative tries every child at the same starting cursor; the
// longest successful match wins, ties resolving to the earliest
// listed branch. Must own at least two children.
type Alternative struct {
	Children []Expr
}

// Optional matches Child, or matches empty. Never fails.
type Optional struct {
	Child Expr
}

// Repeat matches Child zero or more times, guarded against
// zero-width iterations. Never fails.
type Repeat struct {
	Child Expr
}

// CharRange matches one code unit c with Lo <= c <= Hi, inclusive.
type CharRange struct {
	Lo, Hi byte
}

// Member is one atom of a CharClass: a singleton (Lo == Hi) or a range.
type Member struct {
	Lo, Hi byte
}

// CharClass matches one code unit against a union of ranges and
// singletons. Inclusive=false inverts the test. Must own at least one
// member.
type CharClass struct {
	Inclusive bool
	Members   []Member
}

func (*Terminal) exprNode()    {}
func (*Symbol) exprNode()      {}
func (*Sequence) exprNode()    {}
func (*Alternative) exprNode() {}
func (*Optional) exprNode()    {}
func (*Repeat) exprNode()      {}
func (*CharRange) exprNode()   {}
func (*CharClass) exprNode()   {}

// NewSequence validates the "every composite owns >= 1 child"
// invariant before constructing a Sequence.
func NewSequence(children []Expr) *Sequence {
	invariant.Precondition(len(children) >= 1, "Sequence must own at least one child")
	return &Sequence{Children: children}
}

// NewAlternative validates the ">= 2 children" invariant for Alternative.
func NewAlternative(children []Expr) *Alternative {
	invariant.Precondition(len(children) >= 2, "Alternative must own at least two children")
	return &Alternative{Children: children}
}

// NewCharRange validates Lo <= Hi before constructing a CharRange.
func NewCharRange(lo, hi byte) *CharRange {
	invariant.Precondition(lo <= hi, "CharRange requires lo <= hi, got %d..%d", lo, hi)
	return &CharRange{Lo: lo, Hi: hi}
}

// NewCharClass validates the ">= 1 member" invariant for CharClass.
func NewCharClass(inclusive bool, members []Member) *CharClass {
	invariant.Precondition(len(members) >= 1, "CharClass must own at least one member")
	return &CharClass{Inclusive: inclusive, Members: members}
}

// Contains reports whether ch matches this class's members, honoring
// Inclusive.
func (c *CharClass) Contains(ch byte) bool {
	matched := false
	for _, m := range c.Members {
		if m.Lo <= ch && ch <= m.Hi {
			matched = true
			break
		}
	}
	if c.Inclusive {
		return matched
	}
	return !matched
}

// CollapseSequence implements the "single-child composite collapses"
// grammar construction rule from the meta-parser: an expression made of
// exactly one sequence collapses to that sequence, and a sequence of
// exactly one element collapses to that element. Building Sequence and
// Alternative only through these helpers (rather than NewSequence or
// NewAlternative directly; the latter panics on a 1-child Alternative) is what keeps
// the concatenation law simple: no 1-child wrapper nodes ever appear.
func CollapseSequence(elems []Expr) Expr {
	invariant.Precondition(len(elems) >= 1, "sequence must have at least one element")
	if len(elems) == 1 {
		return elems[0]
	}
	return NewSequence(elems)
}

// CollapseAlternative collapses a 1-alternative expression to its sole
// sequence, per the same construction rule as CollapseSequence.
func CollapseAlternative(seqs []Expr) Expr {
	invariant.Precondition(len(seqs) >= 1, "expression must have at least one sequence")
	if len(seqs) == 1 {
		return seqs[0]
	}
	return NewAlternative(seqs)
}
