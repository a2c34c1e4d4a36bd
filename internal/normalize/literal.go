package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Literal parses a Python-literal-style structure: nested lists, tuples
// and dicts, single- or double-quoted strings, numbers, True, False and
// None. It mirrors the permissive parsing applied to output captured
// from scheduler pods, where commands print repr()-style structures
// rather than strict JSON.
//
// Tuples decode as slices and None decodes as nil. Unlike Normalize,
// Literal fails on input that is not a single well-formed literal.
func Literal(raw string) (any, error) {
	p := &literalParser{input: raw}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("literal: trailing data at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) errf(format string, args ...any) error {
	return fmt.Errorf("literal: "+format+" at offset %d", append(args, p.pos)...)
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) value() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of input")
	}
	switch {
	case c == '\'' || c == '"':
		return p.str()
	case c == '[':
		return p.seq('[', ']')
	case c == '(':
		return p.seq('(', ')')
	case c == '{':
		return p.dict()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.word()
	}
}

func (p *literalParser) word() (any, error) {
	for _, w := range []struct {
		lit string
		val any
	}{
		{"True", true},
		{"False", false},
		{"None", nil},
	} {
		if strings.HasPrefix(p.input[p.pos:], w.lit) {
			p.pos += len(w.lit)
			return w.val, nil
		}
	}
	return nil, p.errf("unexpected character %q", p.input[p.pos])
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c, _ := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && (p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	text := p.input[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errf("bad number %q", text)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errf("bad number %q", text)
	}
	return n, nil
}

func (p *literalParser) str() (string, error) {
	quote := p.input[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", p.errf("unterminated escape")
			}
			esc := p.input[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			case 'u':
				if p.pos+4 > len(p.input) {
					return "", p.errf("short unicode escape")
				}
				n, err := strconv.ParseUint(p.input[p.pos:p.pos+4], 16, 32)
				if err != nil {
					return "", p.errf("bad unicode escape")
				}
				p.pos += 4
				b.WriteRune(rune(n))
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		default:
			r, size := utf8.DecodeRuneInString(p.input[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errf("unterminated string")
}

func (p *literalParser) seq(open, term byte) ([]any, error) {
	p.pos++ // consume open
	items := []any{}
	p.skipSpace()
	for {
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated sequence")
		}
		if c == term {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		if c, ok := p.peek(); ok && c == ',' {
			p.pos++
			p.skipSpace()
		}
	}
}

func (p *literalParser) dict() (map[string]any, error) {
	p.pos++ // consume '{'
	m := map[string]any{}
	p.skipSpace()
	for {
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated dict")
		}
		if c == '}' {
			p.pos++
			return m, nil
		}
		key, err := p.value()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, p.errf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		m[fmt.Sprint(key)] = val
		p.skipSpace()
		if c, ok := p.peek(); ok && c == ',' {
			p.pos++
			p.skipSpace()
		}
	}
}
