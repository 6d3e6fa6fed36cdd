package hiparse

import (
	"fmt"
	"io"

	"github.com/symon-run/symon/pkg/signature"
	"github.com/symon-run/symon/pkg/symon"
)

// Result is everything a hiparse source file produces: the entry
// automaton, the event signature it was built against, and any
// `init` parameter constraints declared for fully parametric mode.
type Result struct {
	Automaton       *symon.Automaton
	Signature       *signature.Signature
	InitConstraints []symon.NumberConstraint
}

type parser struct {
	toks    []token
	pos     int
	mode    symon.Mode
	sig     *signature.Signature
	strings int
	numbers int
	params  int
	defines map[string]*symon.Automaton
}

// Parse reads a hiparse source file from r and compiles it into a
// Result for the given operating mode.
func Parse(r io.Reader, mode symon.Mode) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("hiparse: %w", err)
	}
	toks, err := lex(string(data))
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, mode: mode, sig: signature.New(), defines: map[string]*symon.Automaton{}}
	return p.parseFile()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }
func (p *parser) isEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) expectPunct(s string) error {
	if !p.cur().is(s) {
		return fmt.Errorf("hiparse: offset %d: expected %q, got %q", p.cur().pos, s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur().kind != tokIdent {
		return "", fmt.Errorf("hiparse: offset %d: expected identifier, got %q", p.cur().pos, p.cur().text)
	}
	s := p.cur().text
	p.advance()
	return s, nil
}

func (p *parser) expectNumber() (symon.Rational, error) {
	if p.cur().kind != tokNumber {
		return symon.Rational{}, fmt.Errorf("hiparse: offset %d: expected number, got %q", p.cur().pos, p.cur().text)
	}
	v, err := symon.ParseRational(p.cur().text)
	if err != nil {
		return symon.Rational{}, err
	}
	p.advance()
	return v, nil
}

func (p *parser) card() symon.Cardinalities {
	return symon.Cardinalities{Strings: p.strings, Numbers: p.numbers, Params: p.params}
}

func (p *parser) parseFile() (*Result, error) {
	if p.cur().is("variables") {
		if err := p.parseVariables(); err != nil {
			return nil, err
		}
	}
	if p.cur().is("signature") {
		if err := p.parseSignature(); err != nil {
			return nil, err
		}
	}

	var entry *symon.Automaton
	var initConstraints []symon.NumberConstraint

	for !p.isEOF() {
		switch {
		case p.cur().is("define"):
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("."); err != nil {
				return nil, err
			}
			p.defines[name] = a

		case p.cur().is("init"):
			p.advance()
			if p.mode != symon.FullyParametric {
				return nil, fmt.Errorf("hiparse: offset %d: \"init\" declarations are only legal in fully parametric mode", p.cur().pos)
			}
			cs, err := p.parseInitConstraints()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("."); err != nil {
				return nil, err
			}
			initConstraints = append(initConstraints, cs...)

		default:
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("."); err != nil {
				return nil, err
			}
			entry = a
		}
	}

	if entry == nil {
		if a, ok := p.defines["main"]; ok {
			entry = a
		} else {
			return nil, fmt.Errorf("hiparse: no top-level expression and no \"define main = ...\"")
		}
	}

	return &Result{Automaton: entry, Signature: p.sig, InitConstraints: initConstraints}, nil
}

func (p *parser) parseVariables() error {
	p.advance() // 'variables'
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.cur().is("}") {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct("="); err != nil {
			return err
		}
		n, err := p.expectNumber()
		if err != nil {
			return err
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
		count := int(n.ToFloat())
		switch name {
		case "strings":
			p.strings = count
		case "numbers":
			p.numbers = count
		case "params":
			p.params = count
		default:
			return fmt.Errorf("hiparse: unknown variables field %q", name)
		}
	}
	return p.expectPunct("}")
}

func (p *parser) parseSignature() error {
	p.advance() // 'signature'
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.cur().is("}") {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct("("); err != nil {
			return err
		}
		sArity, err := p.expectNumber()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		nArity, err := p.expectNumber()
		if err != nil {
			return err
		}
		if err := p.expectPunct(")"); err != nil {
			return err
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
		if err := p.sig.Declare(name, int(sArity.ToFloat()), int(nArity.ToFloat())); err != nil {
			return fmt.Errorf("hiparse: %w", err)
		}
	}
	return p.expectPunct("}")
}

// parseInitConstraints parses the conjunction of parameter
// comparisons following `init`, e.g. "p0 >= 0 && p0 <= 10".
func (p *parser) parseInitConstraints() ([]symon.NumberConstraint, error) {
	var out []symon.NumberConstraint
	for {
		c, err := p.parseNumberConstraintClause()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if p.cur().is("&") && p.toks[p.pos+1].is("&") {
			p.pos += 2
			continue
		}
		break
	}
	return out, nil
}

// --- expr ::= or ---

func (p *parser) parseExpr() (*symon.Automaton, error) { return p.parseOr() }

func (p *parser) parseOr() (*symon.Automaton, error) {
	a, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().is("|") {
		p.advance()
		b, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		a = symon.Union(a, b)
	}
	return a, nil
}

func (p *parser) parseAnd() (*symon.Automaton, error) {
	a, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	for p.cur().is("&") && !p.toks[p.pos+1].is("&") {
		p.advance()
		b, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		a = symon.Product(a, b)
	}
	return a, nil
}

func (p *parser) parseSeq() (*symon.Automaton, error) {
	a, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.cur().is(";") {
		p.advance()
		b, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		a = symon.Concatenation(a, b)
	}
	return a, nil
}

func (p *parser) parsePostfix() (*symon.Automaton, error) {
	a, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.cur().is("*"):
			p.advance()
			a = symon.Star(a)
		case p.cur().is("+"):
			p.advance()
			a = symon.Plus(a)
		case p.cur().is("?"):
			p.advance()
			a = symon.EmptyOr(a)
		default:
			return a, nil
		}
	}
}

func (p *parser) parsePrimary() (*symon.Automaton, error) {
	switch {
	case p.cur().is("("):
		p.advance()
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return a, nil

	case p.cur().is("within"):
		return p.parseWithin()

	case p.cur().is("ignore"):
		return p.parseIgnore()

	case p.cur().kind == tokIdent && !isKeyword(p.cur().text) && !p.toks[p.pos+1].is("("):
		name := p.cur().text
		a, ok := p.defines[name]
		if !ok {
			return nil, fmt.Errorf("hiparse: offset %d: reference to undefined name %q", p.cur().pos, name)
		}
		p.advance()
		return a, nil

	default:
		return p.parseEventAtom()
	}
}

func (p *parser) parseWithin() (*symon.Automaton, error) {
	p.advance() // 'within'
	var open, close string
	switch {
	case p.cur().is("[") || p.cur().is("("):
		open = p.cur().text
		p.advance()
	default:
		return nil, fmt.Errorf("hiparse: offset %d: expected \"[\" or \"(\" after within", p.cur().pos)
	}
	lo, err := p.expectNumber()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	hi, err := p.expectNumber()
	if err != nil {
		return nil, err
	}
	switch {
	case p.cur().is("]") || p.cur().is(")"):
		close = p.cur().text
		p.advance()
	default:
		return nil, fmt.Errorf("hiparse: offset %d: expected \"]\" or \")\" to close within interval", p.cur().pos)
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	clock := inner.Card.Clocks
	loOp, hiOp := symon.OpGe, symon.OpLe
	if open == "(" {
		loOp = symon.OpGt
	}
	if close == ")" {
		hiOp = symon.OpLt
	}

	var guard symon.ClockGuard
	if p.mode == symon.FullyParametric {
		dim := inner.Card.Params + inner.Card.Clocks + 1
		ineqs := FromAtoms([]symon.ClockAtom{
			{Clock: clock, Op: loOp, Bound: lo},
			{Clock: clock, Op: hiOp, Bound: hi},
		}, inner.Card.Params, dim)
		guard = symon.NewPolyhedralGuard(symon.Polyhedron{Dim: dim, Ineqs: ineqs})
	} else {
		guard = symon.NewConcreteGuard(
			symon.ClockAtom{Clock: clock, Op: loOp, Bound: lo},
			symon.ClockAtom{Clock: clock, Op: hiOp, Bound: hi},
		)
	}
	return symon.TimeRestriction(inner, guard), nil
}

func (p *parser) parseIgnore() (*symon.Automaton, error) {
	p.advance() // 'ignore'
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var names []string
	for !p.cur().is("}") {
		n, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		if p.cur().is(",") {
			p.advance()
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	if err := p.expectIdentText("in"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	actions := make([]symon.Action, 0, len(names))
	for _, n := range names {
		id, ok := p.sig.ActionID(n)
		if !ok {
			return nil, fmt.Errorf("hiparse: ignore list references undeclared action %q", n)
		}
		actions = append(actions, id)
	}
	return symon.IgnoreActions(inner, actions), nil
}

func (p *parser) expectIdentText(s string) error {
	if p.cur().kind != tokIdent || p.cur().text != s {
		return fmt.Errorf("hiparse: offset %d: expected %q, got %q", p.cur().pos, s, p.cur().text)
	}
	p.advance()
	return nil
}

// FromAtoms lowers a Boolean-style clock-atom conjunction into its
// polyhedral H-representation, exposed for hiparse's fully parametric
// `within` clause, which must build a polyhedral guard over dimensions
// (parameters ++ clocks) rather than an atom list. paramOffset is the
// automaton's parameter count: clock dimension i lives at column
// paramOffset+i in the polyhedron's (parameters, clocks) layout.
func FromAtoms(atoms []symon.ClockAtom, paramOffset, dim int) []symon.Ineq {
	var out []symon.Ineq
	for _, a := range atoms {
		expr := symon.NumVar(paramOffset + a.Clock)
		expr = symon.SubExpr(expr, symon.NumLiteral(a.Bound))
		out = append(out, symon.FromComparison(expr, a.Op, dim)...)
	}
	return out
}
