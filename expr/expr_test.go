package expr_test

import (
	"testing"

	"github.com/EvenZeppa/BNFParserLib/expr"
	"github.com/stretchr/testify/assert"
)

func TestCollapseSequenceSingle(t *testing.T) {
	t.Parallel()

	term := &expr.Terminal{Text: "a"}
	got := expr.CollapseSequence([]expr.Expr{term})

	assert.Same(t, expr.Expr(term), got)
}

func TestCollapseSequenceMulti(t *testing.T) {
	t.Parallel()

	a := &expr.Terminal{Text: "a"}
	b := &expr.Terminal{Text: "b"}
	got := expr.CollapseSequence([]expr.Expr{a, b})

	seq, ok := got.(*expr.Sequence)
	assert.True(t, ok)
	assert.Len(t, seq.Children, 2)
}

func TestCollapseAlternativeSingle(t *testing.T) {
	t.Parallel()

	seq := &expr.Sequence{Children: []expr.Expr{&expr.Terminal{Text: "a"}, &expr.Terminal{Text: "b"}}}
	got := expr.CollapseAlternative([]expr.Expr{seq})

	assert.Same(t, expr.Expr(seq), got)
}

func TestNewAlternativePanicsOnSingleChild(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		expr.NewAlternative([]expr.Expr{&expr.Terminal{Text: "a"}})
	})
}

func TestNewCharRangePanicsOnInvertedBounds(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		expr.NewCharRange('z', 'a')
	})
}

func TestCharClassContainsInclusive(t *testing.T) {
	t.Parallel()

	cc := expr.NewCharClass(true, []expr.Member{{Lo: '0', Hi: '9'}, {Lo: '_', Hi: '_'}})

	assert.True(t, cc.Contains('5'))
	assert.True(t, cc.Contains('_'))
	assert.False(t, cc.Contains('a'))
}

func TestCharClassContainsInverted(t *testing.T) {
	t.Parallel()

	cc := expr.NewCharClass(false, []expr.Member{{Lo: '0', Hi: '9'}})

	assert.False(t, cc.Contains('5'))
	assert.True(t, cc.Contains('a'))
}
