package grammar_test

import (
	"testing"

	"github.com/EvenZeppa/BNFParserLib/expr"
	"github.com/EvenZeppa/BNFParserLib/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGetBareName(t *testing.T) {
	t.Parallel()

	g := grammar.New()
	require.NoError(t, g.Add(`digit ::= '0'...'9'`))

	rule, ok := g.Get("<digit>")
	require.True(t, ok)
	assert.Equal(t, "<digit>", rule.Name)

	_, ok = rule.Root.(*expr.CharRange)
	assert.True(t, ok)
}

func TestAddAngleBracketedName(t *testing.T) {
	t.Parallel()

	g := grammar.New()
	require.NoError(t, g.Add(`<num> ::= <digit> { <digit> }`))

	_, ok := g.Get("<num>")
	assert.True(t, ok)
}

func TestAddMissingSeparatorIsError(t *testing.T) {
	t.Parallel()

	g := grammar.New()
	err := g.Add(`digit '0'...'9'`)
	assert.Error(t, err)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	g := grammar.New()
	require.NoError(t, g.Add(`b ::= 'b'`))
	require.NoError(t, g.Add(`a ::= 'a'`))

	assert.Equal(t, []string{"<b>", "<a>"}, g.Names())
}

func TestAddDuplicateLastWriteWins(t *testing.T) {
	t.Parallel()

	g := grammar.New()
	require.NoError(t, g.Add(`x ::= 'a'`))
	require.NoError(t, g.Add(`x ::= 'b'`))

	rule, ok := g.Get("<x>")
	require.True(t, ok)
	term := rule.Root.(*expr.Terminal)
	assert.Equal(t, "b", term.Text)
	assert.Equal(t, []string{"<x>"}, g.Names())
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	t.Parallel()

	g1 := grammar.New()
	require.NoError(t, g1.Add(`digit ::= '0'...'9'`))

	g2 := grammar.New()
	require.NoError(t, g2.Add(`digit ::= '0'...'9'`))

	f1, err := g1.Fingerprint()
	require.NoError(t, err)
	f2, err := g2.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	g3 := grammar.New()
	require.NoError(t, g3.Add(`digit ::= '0'...'8'`))
	f3, err := g3.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, f1, f3)
}
