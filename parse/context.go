package parse

import (
	"strings"

	"github.com/EvenZeppa/BNFParserLib/ptree"
)

// Failure is one recorded diagnostic: a backtrackable match failure
// at a given input position, the rule that was active, and what was
// expected there.
type Failure struct {
	Position int
	Text     string
	Expected string
	RuleName string
}

// Context is the mutable record carried through a single parse
// invocation: cursor, diagnostics, and the partial-recovery buffer.
// It must never be shared across concurrent parses.
type Context struct {
	Input string

	Cursor int

	Success  bool
	Consumed int
	AST      *ptree.Node

	// Furthest-failure diagnostics.
	ErrorPos int
	Expected string

	PartialNodes []*ptree.Node
	Failures     []Failure

	Telemetry *Telemetry

	depth    int
	maxDepth int
}

func newContext(input string, maxDepth int) *Context {
	return &Context{Input: input, maxDepth: maxDepth}
}

// partialMark and rollbackPartials let a construct that absorbs a
// sub-attempt's failure (Optional's empty fallback, Repeat's discarded
// final iteration, an Alternative's losing branches) undo whatever
// that sub-attempt salvaged into PartialNodes. Those constructs never
// fail themselves, so nothing they tried and abandoned should leave a
// trace — only a Sequence failure that is never absorbed represents
// genuinely lost structure worth surfacing.
func (c *Context) partialMark() int {
	return len(c.PartialNodes)
}

func (c *Context) rollbackPartials(mark int) {
	c.PartialNodes = c.PartialNodes[:mark]
}

// recordFailure updates the furthest-failure position. New
// expectations at the same position are appended with " | " if not
// already present; a strictly further position replaces the
// accumulated expectation outright.
func (c *Context) recordFailure(pos int, text, expected, ruleName string) {
	switch {
	case pos > c.ErrorPos || (len(c.Failures) == 0 && pos >= c.ErrorPos):
		c.ErrorPos = pos
		c.Expected = expected
		c.Failures = []Failure{{Position: pos, Text: text, Expected: expected, RuleName: ruleName}}
	case pos == c.ErrorPos:
		if !strings.Contains(c.Expected, expected) {
			c.Expected = c.Expected + " | " + expected
		}
		c.Failures = append(c.Failures, Failure{Position: pos, Text: text, Expected: expected, RuleName: ruleName})
	}
	// pos < c.ErrorPos: a nearer failure is not interesting once a
	// further one has been seen; discard.
}

// snippet returns a short, human-readable description of what is
// actually at pos, for error messages ("found 'x'" / "found end of input").
func snippet(input string, pos int) string {
	if pos >= len(input) {
		return "end of input"
	}
	return string(input[pos])
}
