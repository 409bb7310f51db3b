package meta_test

import (
	"testing"

	"github.com/EvenZeppa/BNFParserLib/meta"
	"github.com/stretchr/testify/assert"
)

func TestScannerBasicTokens(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(`<digit> { <digit> } | '0'...'9' [x] (^ a b) 0x4E`)

	var kinds []meta.Kind
	for {
		tok := s.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == meta.END {
			break
		}
	}

	assert.Equal(t, []meta.Kind{
		meta.SYMBOL, meta.LBRACE, meta.SYMBOL, meta.RBRACE, meta.PIPE,
		meta.TERMINAL, meta.ELLIPSIS, meta.TERMINAL,
		meta.LBRACKET, meta.WORD, meta.RBRACKET,
		meta.LPAREN, meta.CARET, meta.WORD, meta.WORD, meta.RPAREN,
		meta.HEX, meta.END,
	}, kinds)
}

func TestScannerPeekIsIdempotent(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(`<foo> 'bar'`)

	first := s.Peek()
	second := s.Peek()
	assert.Equal(t, first, second)

	third := s.Next()
	assert.Equal(t, first, third)
}

func TestScannerSymbolPayloadIncludesBrackets(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(`<channel-list>`)
	tok := s.Next()

	assert.Equal(t, meta.SYMBOL, tok.Kind)
	assert.Equal(t, "<channel-list>", tok.Text)
}

func TestScannerTerminalStripsQuotes(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(`"hello world"`)
	tok := s.Next()

	assert.Equal(t, meta.TERMINAL, tok.Kind)
	assert.Equal(t, "hello world", tok.Text)
}

func TestScannerHexPayload(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(`0x20 ... 0x7E`)
	first := s.Next()
	assert.Equal(t, meta.HEX, first.Kind)
	assert.Equal(t, "0x20", first.Text)
}

func TestScannerEndIsRepeatable(t *testing.T) {
	t.Parallel()

	s := meta.NewScanner(``)
	assert.Equal(t, meta.END, s.Next().Kind)
	assert.Equal(t, meta.END, s.Next().Kind)
}
