package hiparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/symon-run/symon/pkg/symon"
)

// parseEventAtom parses one atomic event pattern:
//
//	name ( [s0,s1,...] [: [n0,n1,...] [~ guard]] ) [{ clockGuard }]
//
// "_" in a binding position means "don't bind this payload field".
// The guard following '~' is evaluated against the payload itself (the
// event-extended valuation slots pkg/symon's Monitor appends during
// consumption), not against the stale pre-event value of the bound
// variable — so bound destinations mentioned in the guard are
// rewritten to reference the matching payload slot.
func (p *parser) parseEventAtom() (*symon.Automaton, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	action, ok := p.sig.ActionID(name)
	if !ok {
		return nil, fmt.Errorf("hiparse: offset %d: event pattern references undeclared action %q", p.cur().pos, name)
	}
	entry, _ := p.sig.Entry(action)

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	t := &symon.Transition{}

	stringDests, err := p.parseBindingList(")", ":")
	if err != nil {
		return nil, err
	}
	if len(stringDests) > entry.StringArity {
		return nil, fmt.Errorf("hiparse: event pattern for %q binds more string fields than declared", name)
	}
	for pos, dest := range stringDests {
		if dest < 0 {
			continue
		}
		t.Update.StringUpdate = append(t.Update.StringUpdate, symon.StringAssignment{
			Dest: dest,
			Src:  symon.StrVar(p.strings + pos),
		})
	}

	var numberBoundTo map[int]int // dest var id -> payload position, for guard rewriting
	if p.cur().is(":") {
		p.advance()
		numberDests, err := p.parseBindingList(")", "~")
		if err != nil {
			return nil, err
		}
		if len(numberDests) > entry.NumberArity {
			return nil, fmt.Errorf("hiparse: event pattern for %q binds more number fields than declared", name)
		}
		numberBoundTo = make(map[int]int, len(numberDests))
		for pos, dest := range numberDests {
			if dest < 0 {
				continue
			}
			t.Update.NumberUpdate = append(t.Update.NumberUpdate, symon.NumberAssignment{
				Dest: dest,
				Expr: symon.NumVar(p.numbers + pos),
			})
			numberBoundTo[dest] = pos
		}

		if p.cur().is("~") {
			p.advance()
			cs, err := p.parseNumberGuardConjunction(numberBoundTo)
			if err != nil {
				return nil, err
			}
			t.NumberConstraints = append(t.NumberConstraints, cs...)
		}
	}

	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if p.cur().is("{") {
		p.advance()
		atoms, err := p.parseClockAtomConjunction()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		if p.mode == symon.FullyParametric {
			dim := p.params // clocks are always 0 for a bare atom automaton
			ineqs := FromAtoms(atoms, p.params, dim)
			t.Guard = symon.NewPolyhedralGuard(symon.Polyhedron{Dim: dim, Ineqs: ineqs})
		} else {
			t.Guard = symon.NewConcreteGuard(atoms...)
		}
	}

	card := p.card()
	s0 := 0
	s1 := 1
	a := symon.NewAutomaton(card)
	a.AddState(symon.NewState())
	a.AddState(&symon.State{IsMatch: true, Transitions: make(map[symon.Action][]*symon.Transition)})
	t.Target = s1
	a.States[s0].AddTransition(action, t)
	a.AddInitial(s0)
	return a, nil
}

// parseBindingList parses a comma-separated list of "s<i>"/"n<i>"
// binding targets or "_" placeholders, up to (but not consuming) a
// token matching stop or altStop.
func (p *parser) parseBindingList(stop, altStop string) ([]int, error) {
	var out []int
	for !p.cur().is(stop) && !p.cur().is(altStop) {
		if p.cur().is("_") {
			out = append(out, -1)
			p.advance()
		} else {
			tok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			idx, err := varIndex(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, idx)
		}
		if p.cur().is(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// varIndex parses a var-name token like "n3"/"s0"/"p2" into its bare
// numeric index, ignoring which of the three letter prefixes it used
// (the caller already knows which variable space it belongs to from
// grammar position).
func varIndex(tok string) (int, error) {
	if len(tok) < 2 {
		return 0, fmt.Errorf("hiparse: expected a variable reference like \"n0\", got %q", tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, fmt.Errorf("hiparse: expected a variable reference like \"n0\", got %q", tok)
	}
	return n, nil
}

// parseNumberGuardConjunction parses a "&&"-joined list of number
// comparisons, rewriting any reference to a variable bound in this
// atom's binding list to its payload slot instead of its destination
// slot (see parseEventAtom's doc comment).
func (p *parser) parseNumberGuardConjunction(boundTo map[int]int) ([]symon.NumberConstraint, error) {
	var out []symon.NumberConstraint
	for {
		c, err := p.parseNumberConstraintClause()
		if err != nil {
			return nil, err
		}
		out = append(out, symon.NewNumberConstraint(rewriteBound(c.Left, boundTo, p.numbers), c.Op, rewriteBound(c.Right, boundTo, p.numbers)))
		if p.cur().is("&") && p.toks[p.pos+1].is("&") {
			p.pos += 2
			continue
		}
		break
	}
	return out, nil
}

func rewriteBound(e symon.NumberExpr, boundTo map[int]int, payloadBase int) symon.NumberExpr {
	if len(boundTo) == 0 || len(e.Terms) == 0 {
		return e
	}
	out := symon.NumberExpr{Const: e.Const, Terms: make(map[int]symon.Rational, len(e.Terms))}
	for v, c := range e.Terms {
		if pos, ok := boundTo[v]; ok {
			out.Terms[payloadBase+pos] = c
		} else {
			out.Terms[v] = c
		}
	}
	return out
}

// parseNumberConstraintClause parses one "<expr> <op> <expr>" clause,
// terminated by "&&", ")" or "~"'s enclosing context.
func (p *parser) parseNumberConstraintClause() (symon.NumberConstraint, error) {
	left, err := p.parseNumberExprTokens()
	if err != nil {
		return symon.NumberConstraint{}, err
	}
	op, err := p.parseComparisonOp()
	if err != nil {
		return symon.NumberConstraint{}, err
	}
	right, err := p.parseNumberExprTokens()
	if err != nil {
		return symon.NumberConstraint{}, err
	}
	return symon.NewNumberConstraint(left, op, right), nil
}

func (p *parser) parseComparisonOp() (symon.ComparisonOp, error) {
	switch p.cur().text {
	case "<":
		p.advance()
		return symon.OpLt, nil
	case "<=":
		p.advance()
		return symon.OpLe, nil
	case "==", "=":
		p.advance()
		return symon.OpEq, nil
	case ">=":
		p.advance()
		return symon.OpGe, nil
	case ">":
		p.advance()
		return symon.OpGt, nil
	default:
		return 0, fmt.Errorf("hiparse: offset %d: expected a comparison operator, got %q", p.cur().pos, p.cur().text)
	}
}

// parseNumberExprTokens parses a "+"/"-"-joined sum of number-variable
// references and literals from the token stream.
func (p *parser) parseNumberExprTokens() (symon.NumberExpr, error) {
	expr, err := p.parseNumberTerm()
	if err != nil {
		return symon.NumberExpr{}, err
	}
	for p.cur().is("+") || p.cur().is("-") {
		neg := p.cur().is("-")
		p.advance()
		t, err := p.parseNumberTerm()
		if err != nil {
			return symon.NumberExpr{}, err
		}
		if neg {
			expr = symon.SubExpr(expr, t)
		} else {
			expr = symon.AddExpr(expr, t)
		}
	}
	return expr, nil
}

func (p *parser) parseNumberTerm() (symon.NumberExpr, error) {
	switch p.cur().kind {
	case tokNumber:
		v, err := p.expectNumber()
		if err != nil {
			return symon.NumberExpr{}, err
		}
		return symon.NumLiteral(v), nil
	case tokIdent:
		idx, err := varIndex(p.cur().text)
		if err != nil {
			return symon.NumberExpr{}, err
		}
		p.advance()
		return symon.NumVar(idx), nil
	default:
		return symon.NumberExpr{}, fmt.Errorf("hiparse: offset %d: expected a number term, got %q", p.cur().pos, p.cur().text)
	}
}

// parseClockAtomConjunction parses a "&&"-joined list of clock atoms
// "x<i> <op> <bound>", the free-standing guard-block form.
func (p *parser) parseClockAtomConjunction() ([]symon.ClockAtom, error) {
	var out []symon.ClockAtom
	for {
		tok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(tok, "x") {
			return nil, fmt.Errorf("hiparse: expected a clock reference like \"x0\", got %q", tok)
		}
		clock, err := varIndex(tok)
		if err != nil {
			return nil, err
		}
		op, err := p.parseComparisonOp()
		if err != nil {
			return nil, err
		}
		bound, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		out = append(out, symon.ClockAtom{Clock: clock, Op: op, Bound: bound})
		if p.cur().is("&") && p.toks[p.pos+1].is("&") {
			p.pos += 2
			continue
		}
		break
	}
	return out, nil
}
