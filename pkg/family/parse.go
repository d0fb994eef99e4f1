package family

import (
	"strconv"
	"unicode"

	"github.com/matzehuels/semiframes/pkg/errors"
)

// Parse reads a family written as brace-nested integer lists, for example
// "{{}, {1, 2}, {1, 2, 3}}", over the ground set {1..n}. Whitespace is
// allowed anywhere between tokens and duplicate sets collapse.
//
// Parse never panics. Malformed input (missing or unbalanced braces, stray
// characters, non-integer tokens, elements outside [1, n]) returns an error
// with code INVALID_FAMILY.
func Parse(text string, n int) (Family, error) {
	if n < 0 || n > MaxSize {
		return nil, errors.New(errors.ErrCodeInvalidFamily, "size %d is outside [0, %d]", n, MaxSize)
	}
	p := &parser{src: []rune(text), n: n}
	return p.family()
}

type parser struct {
	src []rune
	pos int
	n   int
}

func (p *parser) family() (Family, error) {
	if err := p.expect('{', "family must start with '{'"); err != nil {
		return nil, err
	}

	var masks []uint32
	if p.peek() == '}' {
		p.pos++
	} else {
		for closed := false; !closed; {
			m, err := p.set()
			if err != nil {
				return nil, err
			}
			masks = append(masks, m)

			switch p.peek() {
			case ',':
				p.pos++
			case '}':
				p.pos++
				closed = true
			case 0:
				return nil, p.errorf("missing closing '}' for family")
			default:
				return nil, p.errorf("unexpected %q after set", p.peek())
			}
		}
	}

	if p.peek() != 0 {
		return nil, p.errorf("unexpected %q after family", p.peek())
	}
	return New(masks...), nil
}

func (p *parser) set() (uint32, error) {
	if err := p.expect('{', "expected '{' to open a set"); err != nil {
		return 0, err
	}
	var mask uint32
	if p.peek() == '}' {
		p.pos++
		return mask, nil
	}
	for {
		e, err := p.element()
		if err != nil {
			return 0, err
		}
		mask |= 1 << uint(e-1)

		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return mask, nil
		case 0:
			return 0, p.errorf("missing closing '}' for set")
		default:
			return 0, p.errorf("unexpected %q inside set", p.peek())
		}
	}
}

func (p *parser) element() (int, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	if start == p.pos {
		if p.pos >= len(p.src) {
			return 0, p.errorf("missing closing '}' for set")
		}
		return 0, p.errorf("expected an element, got %q", p.src[p.pos])
	}
	tok := string(p.src[start:p.pos])
	e, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidFamily, "invalid element %q", tok)
	}
	if e < 1 || e > p.n {
		return 0, errors.New(errors.ErrCodeInvalidFamily, "element %d is out of range for n=%d", e, p.n)
	}
	return e, nil
}

// peek returns the next non-space rune without consuming it, or 0 at the end
// of input.
func (p *parser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(r rune, msg string) error {
	if p.peek() != r {
		return p.errorf("%s", msg)
	}
	p.pos++
	return nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvalidFamily, format, args...)
	e.Message += " at offset " + strconv.Itoa(p.pos)
	return e
}
