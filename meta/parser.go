package meta

import (
	"fmt"

	"github.com/EvenZeppa/BNFParserLib/expr"
)

// SyntaxError is a grammar-shape fatal: something the meta-scanner or
// meta-parser could not make sense of (unbalanced brackets, a missing
// range endpoint, a multi-byte literal where a single code unit is
// required). It is distinct from a parse-time match failure — it
// means the grammar text itself is malformed, and the partially built
// expression is discarded.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("grammar syntax error at %d: %s", e.Pos, e.Message)
}

func syntaxErrf(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Parser consumes a meta-token stream and builds an expr.Expr using a
// classic EBNF precedence ladder: expression > sequence > repeatable > primary.
type Parser struct {
	scanner *Scanner
}

// Parse compiles a rule's right-hand-side text into an expression
// tree. It is the sole entry point into the meta-parser.
func Parse(rhs string) (expr.Expr, error) {
	p := &Parser{scanner: NewScanner(rhs)}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.scanner.Peek(); tok.Kind != END {
		return nil, syntaxErrf(tok.Pos, "unexpected trailing %s %q", tok.Kind, tok.Text)
	}
	return e, nil
}

// expression := sequence ( '|' sequence )*
func (p *Parser) parseExpression() (expr.Expr, error) {
	var seqs []expr.Expr

	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	seqs = append(seqs, first)

	for p.scanner.Peek().Kind == PIPE {
		p.scanner.Next() // consume '|'
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, next)
	}

	return expr.CollapseAlternative(seqs), nil
}

// sequence := repeatable+
func (p *Parser) parseSequence() (expr.Expr, error) {
	var elems []expr.Expr

	for isRepeatableStart(p.scanner.Peek().Kind) {
		e, err := p.parseRepeatable()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}

	if len(elems) == 0 {
		tok := p.scanner.Peek()
		return nil, syntaxErrf(tok.Pos, "expected at least one element, found %s %q", tok.Kind, tok.Text)
	}

	return expr.CollapseSequence(elems), nil
}

func isRepeatableStart(k Kind) bool {
	switch k {
	case TERMINAL, SYMBOL, WORD, HEX, LBRACE, LBRACKET, LPAREN:
		return true
	default:
		return false
	}
}

// repeatable := primary | '{' expression '}' | '[' expression ']' | '(' charClassBody ')'
func (p *Parser) parseRepeatable() (expr.Expr, error) {
	switch p.scanner.Peek().Kind {
	case LBRACE:
		open := p.scanner.Next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if tok := p.scanner.Peek(); tok.Kind != RBRACE {
			return nil, syntaxErrf(open.Pos, "unbalanced '{' opened here, found %s at %d", tok.Kind, tok.Pos)
		}
		p.scanner.Next() // consume '}'
		return &expr.Repeat{Child: inner}, nil

	case LBRACKET:
		open := p.scanner.Next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if tok := p.scanner.Peek(); tok.Kind != RBRACKET {
			return nil, syntaxErrf(open.Pos, "unbalanced '[' opened here, found %s at %d", tok.Kind, tok.Pos)
		}
		p.scanner.Next() // consume ']'
		return &expr.Optional{Child: inner}, nil

	case LPAREN:
		open := p.scanner.Next()
		cc, err := p.parseCharClassBody()
		if err != nil {
			return nil, err
		}
		if tok := p.scanner.Peek(); tok.Kind != RPAREN {
			return nil, syntaxErrf(open.Pos, "unbalanced '(' opened here, found %s at %d", tok.Kind, tok.Pos)
		}
		p.scanner.Next() // consume ')'
		return cc, nil

	default:
		return p.parsePrimary()
	}
}

// primary := TERMINAL charRangeTail? | SYMBOL | WORD | HEX charRangeTail?
func (p *Parser) parsePrimary() (expr.Expr, error) {
	tok := p.scanner.Next()

	switch tok.Kind {
	case SYMBOL:
		return &expr.Symbol{Name: tok.Text}, nil

	case WORD:
		return &expr.Terminal{Text: tok.Text}, nil

	case TERMINAL:
		if p.scanner.Peek().Kind == ELLIPSIS {
			return p.parseCharRangeTail(tok)
		}
		return &expr.Terminal{Text: tok.Text}, nil

	case HEX:
		if p.scanner.Peek().Kind == ELLIPSIS {
			return p.parseCharRangeTail(tok)
		}
		lo, err := hexByte(tok)
		if err != nil {
			return nil, err
		}
		return &expr.Terminal{Text: string(lo)}, nil

	default:
		return nil, syntaxErrf(tok.Pos, "expected terminal, symbol or bareword, found %s %q", tok.Kind, tok.Text)
	}
}

// charRangeTail := ELLIPSIS (TERMINAL | HEX)
// loTok is the already-consumed left endpoint (TERMINAL or HEX).
func (p *Parser) parseCharRangeTail(loTok Token) (expr.Expr, error) {
	p.scanner.Next() // consume ELLIPSIS
	hiTok := p.scanner.Next()
	if hiTok.Kind != TERMINAL && hiTok.Kind != HEX {
		return nil, syntaxErrf(hiTok.Pos, "expected terminal or hex endpoint after '...', found %s %q", hiTok.Kind, hiTok.Text)
	}

	lo, err := endpointByte(loTok)
	if err != nil {
		return nil, err
	}
	hi, err := endpointByte(hiTok)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, syntaxErrf(loTok.Pos, "char range lo > hi: %q...%q", loTok.Text, hiTok.Text)
	}
	return expr.NewCharRange(lo, hi), nil
}

// endpointByte resolves a single code unit from a range-endpoint
// token. A multi-character TERMINAL in a range position is a fatal
// grammar-shape error, per spec: ranges always span exactly one code
// unit per side.
func endpointByte(tok Token) (byte, error) {
	if tok.Kind == HEX {
		return hexByte(tok)
	}
	if len(tok.Text) != 1 {
		return 0, syntaxErrf(tok.Pos, "range endpoint %q must be exactly one byte", tok.Text)
	}
	return tok.Text[0], nil
}

func hexByte(tok Token) (byte, error) {
	var v int
	_, err := fmt.Sscanf(tok.Text, "0x%x", &v)
	if err != nil || v < 0 || v > 0xFF {
		return 0, syntaxErrf(tok.Pos, "malformed hex literal %q", tok.Text)
	}
	return byte(v), nil
}

// charClassBody := ['^'] ( charRangeTail-or-atom )+
func (p *Parser) parseCharClassBody() (expr.Expr, error) {
	inclusive := true
	if p.scanner.Peek().Kind == CARET {
		p.scanner.Next()
		inclusive = false
	}

	var members []expr.Member
	for {
		k := p.scanner.Peek().Kind
		if k != TERMINAL && k != HEX && k != WORD {
			break
		}
		m, err := p.parseCharClassAtom()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if len(members) == 0 {
		tok := p.scanner.Peek()
		return nil, syntaxErrf(tok.Pos, "char class must have at least one member, found %s %q", tok.Kind, tok.Text)
	}

	return expr.NewCharClass(inclusive, members), nil
}

func (p *Parser) parseCharClassAtom() (expr.Member, error) {
	tok := p.scanner.Next()

	if tok.Kind == WORD {
		if len(tok.Text) != 1 {
			return expr.Member{}, syntaxErrf(tok.Pos, "char class atom %q must be exactly one byte", tok.Text)
		}
		return expr.Member{Lo: tok.Text[0], Hi: tok.Text[0]}, nil
	}

	if p.scanner.Peek().Kind == ELLIPSIS {
		p.scanner.Next() // consume ELLIPSIS
		hiTok := p.scanner.Next()
		if hiTok.Kind != TERMINAL && hiTok.Kind != HEX {
			return expr.Member{}, syntaxErrf(hiTok.Pos, "expected terminal or hex endpoint after '...', found %s %q", hiTok.Kind, hiTok.Text)
		}
		lo, err := endpointByte(tok)
		if err != nil {
			return expr.Member{}, err
		}
		hi, err := endpointByte(hiTok)
		if err != nil {
			return expr.Member{}, err
		}
		if lo > hi {
			return expr.Member{}, syntaxErrf(tok.Pos, "char range lo > hi: %q...%q", tok.Text, hiTok.Text)
		}
		return expr.Member{Lo: lo, Hi: hi}, nil
	}

	b, err := endpointByte(tok)
	if err != nil {
		return expr.Member{}, err
	}
	return expr.Member{Lo: b, Hi: b}, nil
}
