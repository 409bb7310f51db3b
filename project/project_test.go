package project_test

import (
	"testing"

	"github.com/EvenZeppa/BNFParserLib/grammar"
	"github.com/EvenZeppa/BNFParserLib/parse"
	"github.com/EvenZeppa/BNFParserLib/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrammar(t *testing.T, rules ...string) *grammar.Grammar {
	t.Helper()
	g := grammar.New()
	for _, r := range rules {
		require.NoError(t, g.Add(r))
	}
	return g
}

func TestFlattenCollectsNamedNodesInDocumentOrder(t *testing.T) {
	t.Parallel()

	g := newGrammar(t, `digit ::= '0'...'9'`, `num ::= <digit> { <digit> }`)
	e := parse.New(g)

	ctx, err := e.Parse("num", "123")
	require.NoError(t, err)
	require.True(t, ctx.Success)

	table := project.Flatten(ctx.AST)
	assert.Equal(t, []string{"1", "2", "3"}, table["<digit>"])
	assert.Equal(t, []string{"123"}, table["<num>"])
}

func TestFlattenSkipsSyntheticTags(t *testing.T) {
	t.Parallel()

	g := newGrammar(t, `chanlist ::= <channel> { ',' <channel> }`,
		`channel ::= '#' <letter> { <letter> | <digit> | '_' | '-' }`,
		`letter ::= 'a'...'z'`,
		`digit ::= '0'...'9'`,
	)
	e := parse.New(g)

	ctx, err := e.Parse("chanlist", "#a,#b")
	require.NoError(t, err)
	require.True(t, ctx.Success)

	table := project.Flatten(ctx.AST)
	for symbol := range table {
		assert.NotContains(t, []string{"<seq>", "<alt>", "<opt>", "<rep>"}, symbol)
	}
	assert.Equal(t, []string{"#a", "#b"}, table["<channel>"])
}

func TestFlattenRuleReturnsSingleBucket(t *testing.T) {
	t.Parallel()

	g := newGrammar(t, `greeting ::= 'hi'`)
	e := parse.New(g)

	ctx, err := e.Parse("greeting", "hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"hi"}, project.FlattenRule(ctx.AST, "<greeting>"))
	assert.Nil(t, project.FlattenRule(ctx.AST, "<missing>"))
}

func TestFlattenNilRoot(t *testing.T) {
	t.Parallel()

	table := project.Flatten(nil)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}
