// Package parse is the heart of the core: a recursive-descent
// interpreter that walks a compiled expression tree against an input
// string, producing a parse tree on success or a furthest-failure
// diagnostic (with salvaged partial sub-trees) otherwise.
package parse

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/EvenZeppa/BNFParserLib/expr"
	"github.com/EvenZeppa/BNFParserLib/grammar"
	"github.com/EvenZeppa/BNFParserLib/internal/invariant"
	"github.com/EvenZeppa/BNFParserLib/ptree"
)

// Engine interprets expression trees from a single Grammar. A Grammar
// must be treated as read-only for the lifetime of the Engine;
// multiple Engines over the same Grammar may run concurrently.
type Engine struct {
	grammar *grammar.Grammar
	logger  *slog.Logger
	cfg     engineConfig
}

// New creates an Engine over g.
func New(g *grammar.Grammar, opts ...Option) *Engine {
	invariant.NotNil(g, "grammar")

	cfg := engineConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{grammar: g, logger: logger, cfg: cfg}
}

// Parse resolves startRule in the grammar and matches it against the
// whole of input. Success requires both that the root expression
// matched and that the match consumed every byte of input; a rule
// that matches only a prefix is reported as a failure with the
// successfully-parsed sub-trees salvaged into ctx.PartialNodes.
//
// The returned error is non-nil only for grammar-shape fatals
// (unknown start rule, unknown symbol reached during the parse, or a
// configured recursion-depth bound exceeded) — never for an ordinary
// match failure, which is reported through ctx.Success instead.
func (e *Engine) Parse(startRule, input string) (*Context, error) {
	invariant.Precondition(startRule != "", "start rule name must not be empty")

	name := grammar.Normalize(startRule)
	rule, ok := e.grammar.Get(name)
	ctx := newContext(input, e.cfg.maxDepth)
	if e.cfg.telemetry != TelemetryOff {
		ctx.Telemetry = &Telemetry{}
	}

	// TelemetryBasic already pays for the RuleInvocations/BacktrackCount
	// counters threaded through matchExpr; time.Now()/time.Since() is
	// the extra cost TelemetryFull opts into, so it is only paid here.
	var startTotal time.Time
	if e.cfg.telemetry == TelemetryFull {
		startTotal = time.Now()
	}

	if !ok {
		return ctx, e.unknownSymbolError(name)
	}

	e.logger.Debug("parse starting", "rule", name, "input_len", len(input))

	node, matched, err := e.matchExpr(rule.Root, ctx, rule.Name)
	if err != nil {
		return ctx, err
	}

	if matched && ctx.Cursor == len(input) {
		ctx.Success = true
		ctx.Consumed = ctx.Cursor
		// Relabel the root expression's own node (often a synthetic
		// <seq>/<alt> tag) with the start rule's name, the same way a
		// Symbol reference would — but without Symbol's extra nesting
		// level, since no enclosing rule referenced this one.
		node.Symbol = rule.Name
		ctx.AST = node
		if e.cfg.telemetry == TelemetryFull {
			ctx.Telemetry.TotalTime = time.Since(startTotal)
		}
		e.logger.Debug("parse succeeded", "rule", name, "consumed", ctx.Consumed)
		return ctx, nil
	}

	ctx.Success = false
	if matched {
		ctx.Consumed = ctx.Cursor
		ctx.PartialNodes = append(ctx.PartialNodes, salvage(node)...)
		// The root expression matched but left a suffix unconsumed.
		// That boundary is itself a failure even though nothing
		// inside the grammar objected to it; record it if it is at
		// least as far as anything already recorded; so a
		// downstream consumer always has *some* diagnostic to show.
		ctx.recordFailure(ctx.Cursor, snippet(input, ctx.Cursor), "end of input", rule.Name)
	}
	if e.cfg.telemetry == TelemetryFull {
		ctx.Telemetry.TotalTime = time.Since(startTotal)
	}
	e.logger.Debug("parse failed", "rule", name, "error_pos", ctx.ErrorPos, "expected", ctx.Expected)

	return ctx, nil
}

// matchExpr dispatches on the expression node's concrete type. It is
// the single recursion point of the engine, so the depth guard and
// telemetry counters live here.
func (e *Engine) matchExpr(node expr.Expr, ctx *Context, rule string) (*ptree.Node, bool, error) {
	ctx.depth++
	defer func() { ctx.depth-- }()

	if ctx.maxDepth > 0 && ctx.depth > ctx.maxDepth {
		return nil, false, &FatalError{Message: fmt.Sprintf("recursion depth exceeded %d while matching rule %s", ctx.maxDepth, rule)}
	}
	if ctx.Telemetry != nil {
		ctx.Telemetry.RuleInvocations++
		if ctx.depth > ctx.Telemetry.MaxDepthSeen {
			ctx.Telemetry.MaxDepthSeen = ctx.depth
		}
	}

	switch n := node.(type) {
	case *expr.Terminal:
		return e.matchTerminal(n, ctx, rule)
	case *expr.CharRange:
		return e.matchCharRange(n, ctx, rule)
	case *expr.CharClass:
		return e.matchCharClass(n, ctx, rule)
	case *expr.Symbol:
		return e.matchSymbol(n, ctx, rule)
	case *expr.Sequence:
		return e.matchSequence(n, ctx, rule)
	case *expr.Alternative:
		return e.matchAlternative(n, ctx, rule)
	case *expr.Optional:
		return e.matchOptional(n, ctx, rule)
	case *expr.Repeat:
		return e.matchRepeat(n, ctx, rule)
	default:
		invariant.Invariant(false, "unknown expression node type %T", node)
		return nil, false, nil
	}
}

func (e *Engine) matchTerminal(n *expr.Terminal, ctx *Context, rule string) (*ptree.Node, bool, error) {
	end := ctx.Cursor + len(n.Text)
	if end <= len(ctx.Input) && ctx.Input[ctx.Cursor:end] == n.Text {
		node := &ptree.Node{Symbol: n.Text, Matched: n.Text}
		ctx.Cursor = end
		return node, true, nil
	}
	ctx.recordFailure(ctx.Cursor, snippet(ctx.Input, ctx.Cursor), fmt.Sprintf("terminal '%s'", n.Text), rule)
	return nil, false, nil
}

func (e *Engine) matchCharRange(n *expr.CharRange, ctx *Context, rule string) (*ptree.Node, bool, error) {
	if ctx.Cursor < len(ctx.Input) {
		ch := ctx.Input[ctx.Cursor]
		if n.Lo <= ch && ch <= n.Hi {
			text := ctx.Input[ctx.Cursor : ctx.Cursor+1]
			node := &ptree.Node{Symbol: text, Matched: text}
			ctx.Cursor++
			return node, true, nil
		}
	}
	ctx.recordFailure(ctx.Cursor, snippet(ctx.Input, ctx.Cursor), fmt.Sprintf("character in range '%c'..'%c'", n.Lo, n.Hi), rule)
	return nil, false, nil
}

func (e *Engine) matchCharClass(n *expr.CharClass, ctx *Context, rule string) (*ptree.Node, bool, error) {
	if ctx.Cursor < len(ctx.Input) {
		ch := ctx.Input[ctx.Cursor]
		if n.Contains(ch) {
			text := ctx.Input[ctx.Cursor : ctx.Cursor+1]
			node := &ptree.Node{Symbol: text, Matched: text}
			ctx.Cursor++
			return node, true, nil
		}
	}
	ctx.recordFailure(ctx.Cursor, snippet(ctx.Input, ctx.Cursor), fmt.Sprintf("character in class %s", describeClass(n)), rule)
	return nil, false, nil
}

func describeClass(n *expr.CharClass) string {
	var b strings.Builder
	if !n.Inclusive {
		b.WriteString("^")
	}
	b.WriteString("(")
	for i, m := range n.Members {
		if i > 0 {
			b.WriteString(" ")
		}
		if m.Lo == m.Hi {
			fmt.Fprintf(&b, "'%c'", m.Lo)
		} else {
			fmt.Fprintf(&b, "'%c'..'%c'", m.Lo, m.Hi)
		}
	}
	b.WriteString(")")
	return b.String()
}

// matchSymbol resolves Name in the grammar and recurses into its root
// expression. An unknown name is fatal, not a match failure — it
// means the grammar itself is incomplete, not that this input fails
// to conform to it.
func (e *Engine) matchSymbol(n *expr.Symbol, ctx *Context, rule string) (*ptree.Node, bool, error) {
	r, ok := e.grammar.Get(n.Name)
	if !ok {
		return nil, false, e.unknownSymbolError(n.Name)
	}

	start := ctx.Cursor
	child, matched, err := e.matchExpr(r.Root, ctx, n.Name)
	if err != nil {
		return nil, false, err
	}
	if !matched {
		ctx.Cursor = start
		return nil, false, nil
	}

	node := &ptree.Node{Symbol: n.Name, Matched: child.Matched, Children: []*ptree.Node{child}}
	return node, true, nil
}

// matchSequence matches every child in order. On a mid-sequence
// failure the cursor is restored to the pre-sequence position and
// every child built so far is salvaged into ctx.PartialNodes before
// failing upward — this is the no-leak backtracking contract: nothing
// built during a failed attempt survives except through PartialNodes.
func (e *Engine) matchSequence(n *expr.Sequence, ctx *Context, rule string) (*ptree.Node, bool, error) {
	start := ctx.Cursor
	built := make([]*ptree.Node, 0, len(n.Children))
	var matched strings.Builder

	for _, child := range n.Children {
		childNode, ok, err := e.matchExpr(child, ctx, rule)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			ctx.Cursor = start
			if ctx.Telemetry != nil {
				ctx.Telemetry.BacktrackCount++
			}
			for _, b := range built {
				ctx.PartialNodes = append(ctx.PartialNodes, salvage(b)...)
			}
			return nil, false, nil
		}
		built = append(built, childNode)
		matched.WriteString(childNode.Matched)
	}

	return &ptree.Node{Symbol: ptree.TagSequence, Matched: matched.String(), Children: built}, true, nil
}

// matchAlternative tries every child at the same starting cursor and
// adopts whichever successful branch consumed the most input,
// breaking ties in favor of the earliest-listed branch. Branches that
// fail still contribute to the furthest-failure diagnostic through
// their own recordFailure calls.
func (e *Engine) matchAlternative(n *expr.Alternative, ctx *Context, rule string) (*ptree.Node, bool, error) {
	start := ctx.Cursor

	// kept is the length of ctx.PartialNodes before this Alternative ran;
	// everything past it belongs to the current winner (or nothing,
	// before any winner is found). It lets a later, longer-matching
	// branch evict an earlier winner's salvaged nodes without disturbing
	// anything recorded before this Alternative ran.
	kept := ctx.partialMark()
	var winner *ptree.Node
	winnerEnd := -1

	for _, child := range n.Children {
		ctx.Cursor = start
		mark := ctx.partialMark()
		childNode, ok, err := e.matchExpr(child, ctx, rule)
		if err != nil {
			return nil, false, err
		}
		if ok && ctx.Cursor > winnerEnd {
			ctx.PartialNodes = append(ctx.PartialNodes[:kept], ctx.PartialNodes[mark:]...)
			winner = childNode
			winnerEnd = ctx.Cursor
		} else {
			// A losing (or failed) branch never surfaces to the
			// caller, so nothing it salvaged along the way should
			// either.
			ctx.rollbackPartials(mark)
		}
	}

	if winner == nil {
		ctx.Cursor = start
		return nil, false, nil
	}

	ctx.Cursor = winnerEnd
	return &ptree.Node{Symbol: ptree.TagAlternative, Matched: winner.Matched, Children: []*ptree.Node{winner}}, true, nil
}

// matchOptional attempts Child; Optional never fails.
func (e *Engine) matchOptional(n *expr.Optional, ctx *Context, rule string) (*ptree.Node, bool, error) {
	start := ctx.Cursor
	mark := ctx.partialMark()
	childNode, ok, err := e.matchExpr(n.Child, ctx, rule)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		ctx.Cursor = start
		ctx.rollbackPartials(mark)
		return &ptree.Node{Symbol: ptree.TagOptional}, true, nil
	}
	return &ptree.Node{Symbol: ptree.TagOptional, Matched: childNode.Matched, Children: []*ptree.Node{childNode}}, true, nil
}

// matchRepeat loops Child zero or more times, guarded against
// zero-width iterations: an iteration that succeeds without advancing
// the cursor is discarded and the loop breaks, rather than spinning
// forever on a nullable inner expression. Repeat never fails.
func (e *Engine) matchRepeat(n *expr.Repeat, ctx *Context, rule string) (*ptree.Node, bool, error) {
	var children []*ptree.Node
	var matched strings.Builder

	for {
		iterStart := ctx.Cursor
		iterMark := ctx.partialMark()
		childNode, ok, err := e.matchExpr(n.Child, ctx, rule)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			ctx.Cursor = iterStart
			ctx.rollbackPartials(iterMark)
			break
		}
		if ctx.Cursor == iterStart {
			ctx.Cursor = iterStart
			ctx.rollbackPartials(iterMark)
			break
		}

		children = append(children, childNode)
		matched.WriteString(childNode.Matched)

		if ctx.Cursor >= len(ctx.Input) {
			break
		}
	}

	return &ptree.Node{Symbol: ptree.TagRepeat, Matched: matched.String(), Children: children}, true, nil
}

// unknownSymbolError builds the fatal error for a Symbol that does
// not resolve in the grammar, augmented with a "did you mean"
// suggestion against the registered rule names.
func (e *Engine) unknownSymbolError(name string) error {
	e.logger.Warn("fatal: unknown rule referenced", "rule", name)

	msg := fmt.Sprintf("unknown rule %s", name)
	if names := e.grammar.Names(); len(names) > 0 {
		if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
			sort.Sort(ranks)
			msg = fmt.Sprintf("%s (did you mean %s?)", msg, ranks[0].Target)
		}
	}
	return &FatalError{Message: msg}
}
