package lowparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/symon-run/symon/pkg/symon"
)

// The four inline expression languages recognized inside edge
// attribute strings are all tiny and token-oriented — a single
// strings.Fields split plus a handful of cases covers each of them, in
// the same spirit as gokando's own small hand-rolled readers: no
// lexer/parser generator, just a direct recursive-descent reading of a
// short token stream.
//
//	guard:              x0 > 5 && x0 <= 10
//	number constraint:  n0 >= 3
//	number update:      n0 := n1 + 1
//	string constraint:  s0 == "literal"   s0 != s1
//	string update:      s0 := s1          s0 := "literal"

func parseOp(tok string) (symon.ComparisonOp, error) {
	switch tok {
	case "<":
		return symon.OpLt, nil
	case "<=":
		return symon.OpLe, nil
	case "==", "=":
		return symon.OpEq, nil
	case ">=":
		return symon.OpGe, nil
	case ">":
		return symon.OpGt, nil
	default:
		return 0, fmt.Errorf("unrecognized comparison operator %q", tok)
	}
}

func parseVarRef(tok, prefix string) (symon.VarID, bool) {
	if !strings.HasPrefix(tok, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(tok[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseGuardAtoms parses a "&&"-separated conjunction of clock atoms,
// each "x<i> <op> <bound>".
func parseGuardAtoms(s string) ([]symon.ClockAtom, error) {
	clauses := strings.Split(s, "&&")
	out := make([]symon.ClockAtom, 0, len(clauses))
	for _, clause := range clauses {
		fields := strings.Fields(clause)
		if len(fields) != 3 {
			return nil, fmt.Errorf("expected \"x<i> op bound\", got %q", clause)
		}
		clock, ok := parseVarRef(fields[0], "x")
		if !ok {
			return nil, fmt.Errorf("expected a clock reference x<i>, got %q", fields[0])
		}
		op, err := parseOp(fields[1])
		if err != nil {
			return nil, err
		}
		bound, err := symon.ParseRational(fields[2])
		if err != nil {
			return nil, fmt.Errorf("bound: %w", err)
		}
		out = append(out, symon.ClockAtom{Clock: clock, Op: op, Bound: bound})
	}
	return out, nil
}

// parseNumberExpr parses a linear number expression: a variable
// reference (n<i> or p<i>), a rational literal, or a "+"/"-"-joined
// sum of such terms (e.g. "n0 + 1", "n1 - n0").
func parseNumberExpr(s string) (symon.NumberExpr, error) {
	s = strings.TrimSpace(s)
	tokens := tokenizeSigned(s)
	if len(tokens) == 0 {
		return symon.NumberExpr{}, fmt.Errorf("empty number expression")
	}
	expr := symon.NumLiteral(symon.RationalFromInt(0))
	for _, tok := range tokens {
		sign, term := tok.sign, tok.text
		var t symon.NumberExpr
		if v, ok := parseVarRef(term, "n"); ok {
			t = symon.NumVar(v)
		} else if v, ok := parseVarRef(term, "p"); ok {
			t = symon.NumVar(v)
		} else {
			lit, err := symon.ParseRational(term)
			if err != nil {
				return symon.NumberExpr{}, fmt.Errorf("term %q: %w", term, err)
			}
			t = symon.NumLiteral(lit)
		}
		if sign < 0 {
			expr = symon.SubExpr(expr, t)
		} else {
			expr = symon.AddExpr(expr, t)
		}
	}
	return expr, nil
}

type signedToken struct {
	sign int
	text string
}

// tokenizeSigned splits a "+"/"-"-joined sum into signed terms,
// treating the first term's implicit sign as positive.
func tokenizeSigned(s string) []signedToken {
	fields := strings.Fields(s)
	out := make([]signedToken, 0, len(fields))
	sign := 1
	for _, f := range fields {
		switch f {
		case "+":
			sign = 1
		case "-":
			sign = -1
		default:
			out = append(out, signedToken{sign: sign, text: f})
			sign = 1
		}
	}
	return out
}

// parseNumberConstraint parses "<expr> <op> <expr>".
func parseNumberConstraint(s string) (symon.NumberConstraint, error) {
	op, opTok, rest, err := splitOnOp(s)
	if err != nil {
		return symon.NumberConstraint{}, err
	}
	left, err := parseNumberExpr(rest[0])
	if err != nil {
		return symon.NumberConstraint{}, fmt.Errorf("left of %q: %w", opTok, err)
	}
	right, err := parseNumberExpr(rest[1])
	if err != nil {
		return symon.NumberConstraint{}, fmt.Errorf("right of %q: %w", opTok, err)
	}
	return symon.NewNumberConstraint(left, op, right), nil
}

// splitOnOp splits s on the first recognized comparison operator,
// trying the two-character operators before "<"/">"/"=" so "<=" and
// ">=" are not mis-split.
func splitOnOp(s string) (symon.ComparisonOp, string, [2]string, error) {
	for _, opTok := range []string{"<=", ">=", "==", "<", ">", "="} {
		if idx := strings.Index(s, opTok); idx >= 0 {
			op, err := parseOp(opTok)
			if err != nil {
				return 0, "", [2]string{}, err
			}
			return op, opTok, [2]string{s[:idx], s[idx+len(opTok):]}, nil
		}
	}
	return 0, "", [2]string{}, fmt.Errorf("no comparison operator found in %q", s)
}

// parseNumberUpdate parses "n<i> := <expr>".
func parseNumberUpdate(s string) (symon.NumberAssignment, error) {
	parts := strings.SplitN(s, ":=", 2)
	if len(parts) != 2 {
		return symon.NumberAssignment{}, fmt.Errorf("expected \"n<i> := expr\", got %q", s)
	}
	dest, ok := parseVarRef(strings.TrimSpace(parts[0]), "n")
	if !ok {
		return symon.NumberAssignment{}, fmt.Errorf("expected a number destination n<i>, got %q", parts[0])
	}
	expr, err := parseNumberExpr(parts[1])
	if err != nil {
		return symon.NumberAssignment{}, fmt.Errorf("update expression: %w", err)
	}
	return symon.NumberAssignment{Dest: dest, Expr: expr}, nil
}

// parseStringAtom parses a string-domain operand: a quoted literal or
// a bare s<i> variable reference.
func parseStringAtom(tok string) (symon.StringAtom, error) {
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return symon.StrLit(tok[1 : len(tok)-1]), nil
	}
	if v, ok := parseVarRef(tok, "s"); ok {
		return symon.StrVar(v), nil
	}
	return symon.StringAtom{}, fmt.Errorf("expected a quoted literal or s<i>, got %q", tok)
}

// parseStringConstraint parses "<atom> (==|!=) <atom>".
func parseStringConstraint(s string) (symon.StringConstraint, error) {
	var op symon.StringConstraintOp
	var sep string
	switch {
	case strings.Contains(s, "!="):
		op, sep = symon.StringNeq, "!="
	case strings.Contains(s, "=="):
		op, sep = symon.StringEq, "=="
	default:
		return symon.StringConstraint{}, fmt.Errorf("expected \"==\" or \"!=\" in %q", s)
	}
	parts := strings.SplitN(s, sep, 2)
	a, err := parseStringAtom(strings.TrimSpace(parts[0]))
	if err != nil {
		return symon.StringConstraint{}, err
	}
	b, err := parseStringAtom(strings.TrimSpace(parts[1]))
	if err != nil {
		return symon.StringConstraint{}, err
	}
	return symon.NewStringConstraint(a, op, b), nil
}

// parseStringUpdate parses "s<i> := <atom>".
func parseStringUpdate(s string) (symon.StringAssignment, error) {
	parts := strings.SplitN(s, ":=", 2)
	if len(parts) != 2 {
		return symon.StringAssignment{}, fmt.Errorf("expected \"s<i> := atom\", got %q", s)
	}
	dest, ok := parseVarRef(strings.TrimSpace(parts[0]), "s")
	if !ok {
		return symon.StringAssignment{}, fmt.Errorf("expected a string destination s<i>, got %q", parts[0])
	}
	src, err := parseStringAtom(strings.TrimSpace(parts[1]))
	if err != nil {
		return symon.StringAssignment{}, err
	}
	return symon.StringAssignment{Dest: dest, Src: src}, nil
}
