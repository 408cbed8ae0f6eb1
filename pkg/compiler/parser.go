package compiler

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

type parser struct {
	tokens []Token
	pos    int
}

// Parse turns a token stream into the program root: an implicit EList
// containing every top-level element the programmer wrote (ordinarily
// exactly the type-declaration list followed by the function-declaration
// list). Whitespace tokens are skipped; brackets drive nesting.
func Parse(tokens []Token) (*Element, error) {
	p := &parser{tokens: tokens}
	root := &Element{Kind: EList}
	for !p.atEOF() {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		root.List = append(root.List, el)
	}
	return root, nil
}

func (p *parser) atEOF() bool {
	p.skipWhitespace()
	return p.pos >= len(p.tokens)
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Kind == Whitespace {
		p.pos++
	}
}

func (p *parser) next() (Token, bool) {
	p.skipWhitespace()
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, true
}

func (p *parser) peekNonWS() (Token, bool) {
	p.skipWhitespace()
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseElement() (*Element, error) {
	tok, ok := p.next()
	if !ok {
		return nil, errors.New("parse: unexpected end of input")
	}
	switch tok.Kind {
	case Bracket:
		if tok.Text == "[" {
			return p.parseList()
		}
		return nil, errors.New("parse: unexpected '%s' at line %d", tok.Text, tok.Line)
	case Word:
		return wordEl(tok.Text), nil
	case StringTok:
		return stringEl(tok.Text), nil
	case CharTok:
		r := []rune(tok.Text)[0]
		return charEl(r), nil
	case IntTok:
		n, err := parseIntLiteral(tok.Text)
		if err != nil {
			return nil, errors.Wrap(err, "parse: int literal at line %d", tok.Line)
		}
		return intEl(n), nil
	case FloatTok:
		f, err := parseFloatLiteral(tok.Text)
		if err != nil {
			return nil, errors.Wrap(err, "parse: float literal at line %d", tok.Line)
		}
		return floatEl(f), nil
	case HexTok:
		n, err := parseBasedLiteral(tok.Text, 'x', 16)
		if err != nil {
			return nil, errors.Wrap(err, "parse: hex literal at line %d", tok.Line)
		}
		return intEl(n), nil
	case BinTok:
		n, err := parseBasedLiteral(tok.Text, 'b', 2)
		if err != nil {
			return nil, errors.Wrap(err, "parse: bin literal at line %d", tok.Line)
		}
		return intEl(n), nil
	default:
		return nil, errors.New("parse: unexpected token kind %v at line %d", tok.Kind, tok.Line)
	}
}

func (p *parser) parseList() (*Element, error) {
	list := &Element{Kind: EList}
	for {
		tok, ok := p.peekNonWS()
		if !ok {
			return nil, errors.New("parse: unclosed '['")
		}
		if tok.Kind == Bracket && tok.Text == "]" {
			p.next()
			return list, nil
		}
		child, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		list.List = append(list.List, child)
	}
}

func parseIntLiteral(text string) (int32, error) {
	n, err := strconv.ParseInt(stripUnderscores(text), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func parseFloatLiteral(text string) (float32, error) {
	f, err := strconv.ParseFloat(stripUnderscores(text), 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}

// parseBasedLiteral reads a `<digits><sep><basedigits>` literal. The
// leading digit run is an ignorable width tag; only the digits after sep
// contribute to the value, with an optional leading '-' applied at the end.
func parseBasedLiteral(text string, sep byte, base int) (int32, error) {
	neg := strings.HasPrefix(text, "-")
	body := text
	if neg {
		body = body[1:]
	}
	idx := strings.IndexByte(body, sep)
	if idx < 0 {
		return 0, errors.New("malformed literal %q", text)
	}
	digits := stripUnderscores(body[idx+1:])
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, err
	}
	v := int32(n)
	if neg {
		v = -v
	}
	return v, nil
}
