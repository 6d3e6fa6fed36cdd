package symon

// NumberExpr is a linear expression over the number variables: a
// variable reference, a literal, a sum, or a difference in the
// Boolean domain; any linear combination in the symbolic domain. Both
// forms collapse to the same representation — a sparse coefficient
// map plus a constant — which both EvaluateBoolean and the polyhedron
// domain consume directly.
type NumberExpr struct {
	Terms map[VarID]Rational
	Const Rational
}

// NumLiteral returns the constant expression c.
func NumLiteral(c Rational) NumberExpr {
	return NumberExpr{Const: c}
}

// NumVar returns the expression referring to variable v with coefficient 1.
func NumVar(v VarID) NumberExpr {
	return NumberExpr{Terms: map[VarID]Rational{v: RationalFromInt(1)}}
}

// AddExpr returns a+b.
func AddExpr(a, b NumberExpr) NumberExpr {
	return combine(a, b, RationalFromInt(1))
}

// SubExpr returns a-b.
func SubExpr(a, b NumberExpr) NumberExpr {
	return combine(a, b, RationalFromInt(-1))
}

// ScaleExpr returns c*a.
func ScaleExpr(a NumberExpr, c Rational) NumberExpr {
	terms := make(map[VarID]Rational, len(a.Terms))
	for v, coeff := range a.Terms {
		terms[v] = coeff.Mul(c)
	}
	return NumberExpr{Terms: terms, Const: a.Const.Mul(c)}
}

func combine(a, b NumberExpr, bSign Rational) NumberExpr {
	terms := make(map[VarID]Rational, len(a.Terms)+len(b.Terms))
	for v, c := range a.Terms {
		terms[v] = c
	}
	for v, c := range b.Terms {
		terms[v] = terms[v].Add(c.Mul(bSign))
	}
	return NumberExpr{Terms: terms, Const: a.Const.Add(b.Const.Mul(bSign))}
}

// evalConcrete evaluates e against a vector of optional concrete
// values, per §4.A: "a constraint that references an unset variable
// is treated as unsatisfiable" — evalConcrete signals that with ok=false.
func (e NumberExpr) evalConcrete(env []*Rational) (Rational, bool) {
	sum := e.Const
	for v, c := range e.Terms {
		if v >= len(env) || env[v] == nil {
			return Rational{}, false
		}
		sum = sum.Add(c.Mul(*env[v]))
	}
	return sum, true
}

// NumberConstraint is an arithmetic comparison Left ∼ Right.
type NumberConstraint struct {
	Left, Right NumberExpr
	Op          ComparisonOp
}

// NewNumberConstraint returns the constraint left op right.
func NewNumberConstraint(left NumberExpr, op ComparisonOp, right NumberExpr) NumberConstraint {
	return NumberConstraint{Left: left, Right: right, Op: op}
}

// folded returns Left-Right, the single expression FromComparison needs.
func (c NumberConstraint) folded() NumberExpr {
	return SubExpr(c.Left, c.Right)
}

// EvaluateBoolean tests c against a concrete environment. An unset
// variable makes the constraint unsatisfiable (not an error — §7:
// this is normal semantics, the transition simply fails to fire).
func (c NumberConstraint) EvaluateBoolean(env []*Rational) bool {
	v, ok := c.folded().evalConcrete(env)
	if !ok {
		return false
	}
	switch c.Op {
	case OpLt:
		return v.IsNegative()
	case OpLe:
		return v.IsNegative() || v.IsZero()
	case OpEq:
		return v.IsZero()
	case OpGe:
		return v.IsPositive() || v.IsZero()
	case OpGt:
		return v.IsPositive()
	}
	return false
}

// ApplyToPolyhedron conjoins c onto p and reports the result together
// with whether it is still satisfiable. Polyhedron infeasibility is
// normal semantics (§7): the transition fails silently, it is not an error.
func (c NumberConstraint) ApplyToPolyhedron(p Polyhedron) (Polyhedron, bool) {
	ineqs := FromComparison(c.folded(), c.Op, p.Dim)
	next := p
	next.Ineqs = append(append([]Ineq{}, p.Ineqs...), ineqs...)
	return next, !next.IsEmpty()
}

// NumberAssignment is one `x := e` step of a number update.
type NumberAssignment struct {
	Dest VarID
	Expr NumberExpr
}

// applyBoolean evaluates the assignment against env (read BEFORE this
// step's write, honoring the "later assignments observe earlier
// writes" ordering since the caller advances env in listed order) and
// writes the result, or clears the destination if the source
// expression isn't fully concrete yet.
func (a NumberAssignment) applyBoolean(env []*Rational) {
	if v, ok := a.Expr.evalConcrete(env); ok {
		env[a.Dest] = &v
	} else {
		env[a.Dest] = nil
	}
}
