// Package grammar holds the grammar registry: the insertion-ordered
// mapping from rule name to compiled expression tree that the meta
// front-end populates and the parse engine resolves Symbol references
// against.
package grammar

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/EvenZeppa/BNFParserLib/expr"
	"github.com/EvenZeppa/BNFParserLib/meta"
)

// Rule is one compiled grammar rule: a name and its root expression.
type Rule struct {
	Name string
	Root expr.Expr
}

// Option configures a Grammar at construction time, following this
// module's functional-options convention.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	logFingerprint bool
}

// WithLogger attaches a structured logger. Nil is treated as
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithFingerprint enables logging the grammar's BLAKE2b fingerprint
// (see Fingerprint) at Debug level after every successful Add, so a
// long-running process can correlate log lines with the exact grammar
// content in effect at that point.
func WithFingerprint(enabled bool) Option {
	return func(c *config) { c.logFingerprint = enabled }
}

// Grammar is an insertion-ordered mapping from rule name to Rule. It
// exclusively owns every expression tree it holds; a parse invocation
// must treat it as read-only.
type Grammar struct {
	mu             sync.RWMutex
	order          []string
	rules          map[string]*Rule
	logger         *slog.Logger
	logFingerprint bool
}

// New creates an empty Grammar.
func New(opts ...Option) *Grammar {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Grammar{
		rules:          make(map[string]*Rule),
		logger:         logger,
		logFingerprint: c.logFingerprint,
	}
}

// Add compiles ruleText ("NAME ::= RHS") and stores the result,
// preserving insertion order. Re-adding an existing name is last
// write wins: the previous tree is replaced and a debug line is
// logged, rather than silently retaining both (see spec's
// duplicate-rule open question).
func (g *Grammar) Add(ruleText string) error {
	name, rhs, err := splitRule(ruleText)
	if err != nil {
		return err
	}

	root, err := meta.Parse(rhs)
	if err != nil {
		return fmt.Errorf("compiling rule %s: %w", name, err)
	}

	g.mu.Lock()
	if _, exists := g.rules[name]; exists {
		g.logger.Debug("replacing existing rule", "rule", name)
	} else {
		g.order = append(g.order, name)
	}
	g.rules[name] = &Rule{Name: name, Root: root}
	g.mu.Unlock()

	if g.logFingerprint {
		if fp, err := g.Fingerprint(); err == nil {
			g.logger.Debug("grammar fingerprint", "rule", name, "fingerprint", fp)
		}
	}

	return nil
}

// Get looks up a rule by its exact name (including angle brackets).
func (g *Grammar) Get(name string) (*Rule, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rules[name]
	return r, ok
}

// Names returns every rule name in insertion order.
func (g *Grammar) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// splitRule implements Grammar registry step D: split on the first
// "::=", trim the name side, and wrap it in angle brackets if absent.
func splitRule(ruleText string) (name, rhs string, err error) {
	idx := strings.Index(ruleText, "::=")
	if idx < 0 {
		return "", "", fmt.Errorf("rule %q is missing '::='", ruleText)
	}

	rawName := strings.TrimSpace(ruleText[:idx])
	if rawName == "" {
		return "", "", fmt.Errorf("rule %q has an empty name", ruleText)
	}

	return Normalize(rawName), ruleText[idx+len("::="):], nil
}

// Normalize wraps a bare rule name in angle brackets if it does not
// already have them, so callers may refer to a rule as either "num"
// or "<num>".
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "<") {
		return name
	}
	return "<" + name + ">"
}

// Validate walks every rule's expression tree and confirms each
// Symbol reference resolves to a registered rule, without matching any
// input. It is the "check" half of the registry: Add already rejects a
// rule whose own right-hand side is malformed, but a dangling
// reference to an as-yet-undefined (or misspelled) rule only surfaces
// here or, lazily and input-dependent, during an actual parse.
func (g *Grammar) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, name := range g.order {
		if err := validateExpr(g.rules[name].Root, g.rules); err != nil {
			return fmt.Errorf("rule %s: %w", name, err)
		}
	}
	return nil
}

func validateExpr(e expr.Expr, rules map[string]*Rule) error {
	switch n := e.(type) {
	case *expr.Symbol:
		if _, ok := rules[n.Name]; !ok {
			return fmt.Errorf("references undefined rule %s", n.Name)
		}
	case *expr.Sequence:
		for _, c := range n.Children {
			if err := validateExpr(c, rules); err != nil {
				return err
			}
		}
	case *expr.Alternative:
		for _, c := range n.Children {
			if err := validateExpr(c, rules); err != nil {
				return err
			}
		}
	case *expr.Optional:
		return validateExpr(n.Child, rules)
	case *expr.Repeat:
		return validateExpr(n.Child, rules)
	}
	return nil
}

// Fingerprint returns a hex-encoded BLAKE2b-256 digest of the
// grammar's canonical form: every (name, root) pair in insertion
// order. Two grammars with the same rules in the same order produce
// the same fingerprint regardless of how they were assembled, making
// it suitable as a cache key for compiled grammars.
func (g *Grammar) Fingerprint() (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	for _, name := range g.order {
		fmt.Fprintf(h, "%s\x00%s\x00", name, describeExpr(g.rules[name].Root))
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// describeExpr renders a stable, order-preserving textual form of an
// expression tree for fingerprinting. It is not meant to be a pretty
// printer — only a canonical, collision-resistant encoding.
func describeExpr(e expr.Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e expr.Expr) {
	switch n := e.(type) {
	case *expr.Terminal:
		fmt.Fprintf(b, "T(%q)", n.Text)
	case *expr.Symbol:
		fmt.Fprintf(b, "S(%s)", n.Name)
	case *expr.Sequence:
		b.WriteString("Q(")
		for _, c := range n.Children {
			writeExpr(b, c)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *expr.Alternative:
		b.WriteString("A(")
		for _, c := range n.Children {
			writeExpr(b, c)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *expr.Optional:
		b.WriteString("O(")
		writeExpr(b, n.Child)
		b.WriteByte(')')
	case *expr.Repeat:
		b.WriteString("R(")
		writeExpr(b, n.Child)
		b.WriteByte(')')
	case *expr.CharRange:
		fmt.Fprintf(b, "CR(%d,%d)", n.Lo, n.Hi)
	case *expr.CharClass:
		fmt.Fprintf(b, "CC(%t,", n.Inclusive)
		for _, m := range n.Members {
			fmt.Fprintf(b, "%d-%d,", m.Lo, m.Hi)
		}
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}
