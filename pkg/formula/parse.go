package formula

import (
	"strconv"
	"unicode"

	"github.com/matzehuels/semiframes/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokQuant
	tokAnd
	tokOr
	tokImplies
	tokNot
	tokDot
	tokLParen
	tokRParen
	tokIn
	tokInter
	tokNonempty
	tokCommunity
	tokInteriorComplement
)

type token struct {
	kind  tokenKind
	text  string
	quant Quant
	pos   int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

var keywords = map[string]tokenKind{
	"in":       tokIn,
	"inter":    tokInter,
	"nonempty": tokNonempty,
	"K":        tokCommunity,
	"IC":       tokInteriorComplement,
}

var quantifiers = map[string]Quant{
	"AO": ForAllOpens,
	"AP": ForAllPoints,
	"EO": ExistsOpens,
	"EP": ExistsPoints,
}

// operators lists the two-rune operators by their first rune.
var operators = map[rune]struct {
	second rune
	kind   tokenKind
}{
	'&': {'&', tokAnd},
	'|': {'|', tokOr},
	'=': {'>', tokImplies},
}

func lex(text string) ([]token, error) {
	src := []rune(text)
	var toks []token
	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '.':
			toks = append(toks, token{kind: tokDot, text: ".", pos: i})
			i++
		case r == '!':
			toks = append(toks, token{kind: tokNot, text: "!", pos: i})
			i++
		case operators[r].kind != 0:
			op := operators[r]
			if i+1 >= len(src) || src[i+1] != op.second {
				return nil, errors.New(errors.ErrCodeInvalidFormula, "unexpected %q at offset %d", r, i)
			}
			toks = append(toks, token{kind: op.kind, text: string(src[i : i+2]), pos: i})
			i += 2
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(src) && (unicode.IsLetter(src[i]) || unicode.IsDigit(src[i]) || src[i] == '_') {
				i++
			}
			word := string(src[start:i])
			tok := token{kind: tokIdent, text: word, pos: start}
			if q, ok := quantifiers[word]; ok {
				tok.kind, tok.quant = tokQuant, q
			} else if k, ok := keywords[word]; ok {
				tok.kind = k
			}
			toks = append(toks, tok)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormula, "unexpected %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// Parse reads a formula. Precedence from loosest to tightest is "=>"
// (left-associative), "||", "&&", quantifiers, "!", then parenthesised
// formulas and atoms. A quantifier body extends over a single unary
// formula, so "AO X. a && b" reads as "(AO X. a) && b".
//
// Every variable must be bound by an enclosing quantifier of the matching
// sort. Errors carry code INVALID_FORMULA.
func Parse(text string) (Formula, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	f, err := p.implication()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s after formula", t.describe())
	}
	if err := checkScope(f, nil); err != nil {
		return nil, err
	}
	return f, nil
}

// MustParse is like Parse but panics on error. It is meant for formulas
// fixed at compile time.
func MustParse(text string) Formula {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, got %s", what, t.describe())
	}
	return p.next(), nil
}

func (p *parser) implication() (Formula, error) {
	left, err := p.or()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokImplies {
		p.next()
		right, err := p.or()
		if err != nil {
			return nil, err
		}
		left = Implies{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) or() (Formula, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) and() (Formula, error) {
	left, err := p.quantified()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.quantified()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) quantified() (Formula, error) {
	if p.peek().kind != tokQuant {
		return p.unary()
	}
	q := p.next()
	v, err := p.expect(tokIdent, "a variable after "+q.text)
	if err != nil {
		return nil, err
	}
	if q.quant.OverPoints() && !IsPointVar(v.text) {
		return nil, p.errorf(v, "%s binds points; %q must start with a lowercase letter", q.text, v.text)
	}
	if !q.quant.OverPoints() && !IsOpenVar(v.text) {
		return nil, p.errorf(v, "%s binds opens; %q must start with an uppercase letter", q.text, v.text)
	}
	if _, err := p.expect(tokDot, "'.' after the quantified variable"); err != nil {
		return nil, err
	}
	body, err := p.quantified()
	if err != nil {
		return nil, err
	}
	return Quantified{Quant: q.quant, Var: v.text, Body: body}, nil
}

func (p *parser) unary() (Formula, error) {
	if p.peek().kind == tokNot {
		p.next()
		body, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{Body: body}, nil
	}
	return p.primary()
}

// primary parses a parenthesised formula or an atom. A leading '(' may
// also open a parenthesised open expression, as in "(IC X) inter Y", so a
// failed formula parse backtracks and retries as an atom.
func (p *parser) primary() (Formula, error) {
	if p.peek().kind == tokLParen {
		mark := p.pos
		p.next()
		f, err := p.implication()
		if err == nil {
			if _, err = p.expect(tokRParen, "')'"); err == nil {
				return f, nil
			}
		}
		p.pos = mark
		if atom, atomErr := p.atom(); atomErr == nil {
			return atom, nil
		}
		return nil, err
	}
	return p.atom()
}

func (p *parser) atom() (Formula, error) {
	t := p.peek()
	switch {
	case t.kind == tokNonempty:
		p.next()
		o, err := p.openExpr()
		if err != nil {
			return nil, err
		}
		return Nonempty{Open: o}, nil
	case t.kind == tokIdent && IsPointVar(t.text):
		p.next()
		if _, err := p.expect(tokIn, "'in' after point "+strconv.Quote(t.text)); err != nil {
			return nil, err
		}
		o, err := p.openExpr()
		if err != nil {
			return nil, err
		}
		return In{Point: t.text, Open: o}, nil
	}

	left, err := p.openExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokInter, "'inter'"); err != nil {
		return nil, err
	}
	right, err := p.openExpr()
	if err != nil {
		return nil, err
	}
	return Inter{Left: left, Right: right}, nil
}

func (p *parser) openExpr() (Open, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		if !IsOpenVar(t.text) {
			return nil, p.errorf(t, "expected an open, got point %q", t.text)
		}
		return OpenVar{Name: t.text}, nil
	case tokCommunity:
		v, err := p.expect(tokIdent, "a point after K")
		if err != nil {
			return nil, err
		}
		if !IsPointVar(v.text) {
			return nil, p.errorf(v, "K takes a point, got %q", v.text)
		}
		return Community{Point: v.text}, nil
	case tokInteriorComplement:
		o, err := p.openExpr()
		if err != nil {
			return nil, err
		}
		return InteriorComplement{Of: o}, nil
	case tokLParen:
		o, err := p.openExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, p.errorf(t, "expected an open expression, got %s", t.describe())
}

func (p *parser) errorf(t token, format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvalidFormula, format, args...)
	e.Message += " at offset " + strconv.Itoa(t.pos)
	return e
}

// checkScope rejects variables used outside every quantifier that binds
// them.
func checkScope(f Formula, bound []string) error {
	isBound := func(name string) bool {
		for i := len(bound) - 1; i >= 0; i-- {
			if bound[i] == name {
				return true
			}
		}
		return false
	}
	var openScope func(Open) error
	openScope = func(o Open) error {
		switch o := o.(type) {
		case OpenVar:
			if !isBound(o.Name) {
				return errors.New(errors.ErrCodeInvalidFormula, "open %q is not bound by AO or EO", o.Name)
			}
		case Community:
			if !isBound(o.Point) {
				return errors.New(errors.ErrCodeInvalidFormula, "point %q is not bound by AP or EP", o.Point)
			}
		case InteriorComplement:
			return openScope(o.Of)
		}
		return nil
	}

	switch f := f.(type) {
	case In:
		if !isBound(f.Point) {
			return errors.New(errors.ErrCodeInvalidFormula, "point %q is not bound by AP or EP", f.Point)
		}
		return openScope(f.Open)
	case Inter:
		if err := openScope(f.Left); err != nil {
			return err
		}
		return openScope(f.Right)
	case Nonempty:
		return openScope(f.Open)
	case Not:
		return checkScope(f.Body, bound)
	case And:
		return checkPair(f.Left, f.Right, bound)
	case Or:
		return checkPair(f.Left, f.Right, bound)
	case Implies:
		return checkPair(f.Left, f.Right, bound)
	case Quantified:
		return checkScope(f.Body, append(bound[:len(bound):len(bound)], f.Var))
	}
	return nil
}

func checkPair(left, right Formula, bound []string) error {
	if err := checkScope(left, bound); err != nil {
		return err
	}
	return checkScope(right, bound)
}
