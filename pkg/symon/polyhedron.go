package symon

import (
	"sort"
	"strings"
)

// Polyhedron is a convex region over a fixed number of rational
// dimensions, represented as a conjunction of linear inequalities
// (its H-representation). Design Notes §9 calls for "an
// arbitrary-precision linear-constraint library offering: convex
// polyhedra with strict and non-strict inequalities, affine-image
// assignment, intersection, emptiness test, time-elapse, and
// disjunctive powerset with pairwise reduction." No such library
// (e.g. a Go binding of the Parma Polyhedra Library the original C++
// implementation uses) exists anywhere in the reference corpus, so
// this is the one domain hand-built directly on the standard
// library's math/big.Rat — see DESIGN.md for the justification.
//
// Every Ineq is normalized to the form:
//
//	sum(Coeffs[i] * x_i) + Const <= 0       (Strict == false)
//	sum(Coeffs[i] * x_i) + Const <  0       (Strict == true)
//
// Equalities are represented as two opposing non-strict inequalities.
type Polyhedron struct {
	Dim   int
	Ineqs []Ineq
}

// Ineq is one linear inequality of a Polyhedron's H-representation.
type Ineq struct {
	Coeffs []Rational
	Const  Rational
	Strict bool
}

// ComparisonOp is a constraint relation operator.
type ComparisonOp int

const (
	OpLt ComparisonOp = iota
	OpLe
	OpEq
	OpGe
	OpGt
)

// NewPolyhedron returns the universe polyhedron (no constraints) over dim dimensions.
func NewPolyhedron(dim int) Polyhedron {
	return Polyhedron{Dim: dim}
}

func zeroCoeffs(dim int) []Rational {
	c := make([]Rational, dim)
	for i := range c {
		c[i] = RationalZero
	}
	return c
}

// FromComparison builds the inequality set expressing `expr op 0`
// (i.e. Left - Right already folded into expr by the caller) over dim
// dimensions.
func FromComparison(expr NumberExpr, op ComparisonOp, dim int) []Ineq {
	coeffs := zeroCoeffs(dim)
	for v, c := range expr.Terms {
		if v < dim {
			coeffs[v] = coeffs[v].Add(c)
		}
	}
	switch op {
	case OpLe:
		return []Ineq{{Coeffs: coeffs, Const: expr.Const, Strict: false}}
	case OpLt:
		return []Ineq{{Coeffs: coeffs, Const: expr.Const, Strict: true}}
	case OpGe:
		return []Ineq{negateIneq(Ineq{Coeffs: coeffs, Const: expr.Const, Strict: false})}
	case OpGt:
		return []Ineq{negateIneq(Ineq{Coeffs: coeffs, Const: expr.Const, Strict: true})}
	case OpEq:
		le := Ineq{Coeffs: coeffs, Const: expr.Const, Strict: false}
		ge := negateIneq(Ineq{Coeffs: coeffs, Const: expr.Const, Strict: false})
		return []Ineq{le, ge}
	}
	return nil
}

// negateIneq turns `expr <= 0` into `-expr <= 0` and `expr < 0` into
// `-expr < 0`: it negates coefficients and constant and keeps the
// strictness, used to turn >= / > comparisons into the library's
// canonical <=/< form.
func negateIneq(in Ineq) Ineq {
	neg := make([]Rational, len(in.Coeffs))
	for i, c := range in.Coeffs {
		neg[i] = c.Neg()
	}
	return Ineq{Coeffs: neg, Const: in.Const.Neg(), Strict: in.Strict}
}

// Conjoin returns the intersection of p and q, after adjusting q to
// p's dimension (or vice versa — both are padded to max(p.Dim, q.Dim)).
func (p Polyhedron) Conjoin(q Polyhedron) Polyhedron {
	dim := p.Dim
	if q.Dim > dim {
		dim = q.Dim
	}
	pp := p.AdjustDimension(dim)
	qq := q.AdjustDimension(dim)
	out := Polyhedron{Dim: dim}
	out.Ineqs = append(out.Ineqs, pp.Ineqs...)
	out.Ineqs = append(out.Ineqs, qq.Ineqs...)
	return out
}

// AdjustDimension extends (zero-padding new coordinates) or truncates
// (dropping constraints that reference a removed coordinate) p to
// exactly n dimensions.
func (p Polyhedron) AdjustDimension(n int) Polyhedron {
	if n == p.Dim {
		return p
	}
	out := Polyhedron{Dim: n}
	for _, in := range p.Ineqs {
		if n > p.Dim {
			c := make([]Rational, n)
			copy(c, in.Coeffs)
			for i := p.Dim; i < n; i++ {
				c[i] = RationalZero
			}
			out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
			continue
		}
		// Truncating: drop any constraint that touches a removed dim.
		touches := false
		for i := n; i < p.Dim; i++ {
			if i < len(in.Coeffs) && !in.Coeffs[i].IsZero() {
				touches = true
				break
			}
		}
		if touches {
			continue
		}
		c := make([]Rational, n)
		copy(c, in.Coeffs[:n])
		out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}
	return out
}

// Shift prepends w fresh (unconstrained) dimensions before p's
// existing coordinates, so constraints now refer to dimension i+w
// instead of i. Used when a product automaton shifts operand B's
// clock indices by |C_A|.
func (p Polyhedron) Shift(w int) Polyhedron {
	if w == 0 {
		return p
	}
	out := Polyhedron{Dim: p.Dim + w}
	for _, in := range p.Ineqs {
		c := make([]Rational, p.Dim+w)
		for i := range c {
			c[i] = RationalZero
		}
		copy(c[w:], in.Coeffs)
		out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}
	return out
}

// removeDim deletes column idx from every inequality, shrinking Dim by one.
func (p Polyhedron) removeDim(idx int) Polyhedron {
	out := Polyhedron{Dim: p.Dim - 1}
	for _, in := range p.Ineqs {
		c := make([]Rational, 0, p.Dim-1)
		c = append(c, in.Coeffs[:idx]...)
		c = append(c, in.Coeffs[idx+1:]...)
		out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}
	return out
}

// ProjectOut existentially eliminates dimension idx via
// Fourier-Motzkin elimination: every pair of an upper-bound and a
// lower-bound constraint on that dimension is combined into a new
// constraint over the remaining dimensions; constraints not
// mentioning idx pass through unchanged.
func (p Polyhedron) ProjectOut(idx int) Polyhedron {
	var untouched, upper, lower []Ineq
	for _, in := range p.Ineqs {
		coeff := in.Coeffs[idx]
		switch {
		case coeff.IsZero():
			untouched = append(untouched, in)
		case coeff.IsPositive():
			upper = append(upper, in)
		default:
			lower = append(lower, in)
		}
	}
	result := Polyhedron{Dim: p.Dim}
	result.Ineqs = append(result.Ineqs, untouched...)
	for _, u := range upper {
		for _, l := range lower {
			// u: a*x + U <= 0 (a>0)  => x <= -U/a
			// l: b*x + L <= 0 (b<0)  => x >= -L/-b = L/b is wrong sign; derive directly:
			// combine: (-b)*u + a*l  eliminates x since coeff becomes (-b*a + a*b) = 0.
			a := u.Coeffs[idx]
			b := l.Coeffs[idx].Neg() // positive
			combined := make([]Rational, p.Dim)
			for i := 0; i < p.Dim; i++ {
				combined[i] = u.Coeffs[i].Mul(b).Add(l.Coeffs[i].Mul(a))
			}
			constv := u.Const.Mul(b).Add(l.Const.Mul(a))
			result.Ineqs = append(result.Ineqs, Ineq{
				Coeffs: combined,
				Const:  constv,
				Strict: u.Strict || l.Strict,
			})
		}
	}
	return result.removeDim(idx)
}

// IsEmpty reports whether p denotes the empty set, by projecting out
// every dimension via Fourier-Motzkin elimination until only
// constant inequalities remain, then checking those for contradiction.
func (p Polyhedron) IsEmpty() bool {
	cur := p
	for cur.Dim > 0 {
		cur = cur.ProjectOut(cur.Dim - 1)
	}
	for _, in := range cur.Ineqs {
		c := in.Const
		if in.Strict {
			if !c.IsNegative() {
				return true
			}
		} else {
			if c.IsPositive() {
				return true
			}
		}
	}
	return false
}

// AffineImage applies the assignment `x_idx := expr` (expr linear
// over the current dimensions, possibly referencing x_idx itself) as
// an affine-image update: a fresh dimension is introduced to hold the
// new value, constrained equal to expr, the old x_idx is projected
// out, and the fresh dimension is renamed into idx's former slot.
func (p Polyhedron) AffineImage(idx int, expr NumberExpr) Polyhedron {
	widened := p.AdjustDimension(p.Dim + 1)
	newDim := p.Dim // index of the freshly appended dimension

	coeffs := zeroCoeffs(widened.Dim)
	coeffs[newDim] = RationalFromInt(1)
	for v, c := range expr.Terms {
		if v < widened.Dim {
			coeffs[v] = coeffs[v].Sub(c)
		}
	}
	eq := Ineq{Coeffs: coeffs, Const: expr.Const.Neg(), Strict: false}
	widened.Ineqs = append(widened.Ineqs, eq, negateIneq(eq))

	projected := widened.ProjectOut(idx) // removes old x_idx; newDim shifts down by one
	renamed := newDim - 1

	// Move the renamed (formerly `newDim`, now at `renamed`) column
	// back into slot idx, shifting the dimensions in between.
	return projected.moveDim(renamed, idx)
}

// moveDim relocates column `from` to position `to`, shifting the
// columns in between by one. Used to restore the updated variable to
// its declared slot after AffineImage's elimination step.
func (p Polyhedron) moveDim(from, to int) Polyhedron {
	if from == to {
		return p
	}
	out := Polyhedron{Dim: p.Dim}
	for _, in := range p.Ineqs {
		c := make([]Rational, p.Dim)
		copy(c, in.Coeffs)
		v := c[from]
		if from < to {
			copy(c[from:to], c[from+1:to+1])
			c[to] = v
		} else {
			copy(c[to+1:from+1], c[to:from])
			c[to] = v
		}
		out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}
	return out
}

// ElapseClocks returns the set of valuations reachable from p by
// letting every dimension in [clockStart, clockStart+clockCount)
// increase by the same non-negative amount, while dimensions outside
// that range (parameters) stay fixed — "reachable states under ẋ=1
// for clocks and ẋ=0 for parameters" (Design Notes §9). If maxDelta is
// non-nil, the elapsed amount is additionally bounded above by it
// (used for the bounded residual time-elapse during ε-closure).
func (p Polyhedron) ElapseClocks(clockStart, clockCount int, maxDelta *Rational) Polyhedron {
	deltaDim := p.Dim
	widened := p.AdjustDimension(p.Dim + 1)

	// Substitute x_i -> y_i - delta for clocks: since the stored
	// coefficients already refer to the post-elapse variable (there is
	// no separate "old" dimension kept around), each clock
	// coefficient additionally contributes -coeff to the delta column.
	shifted := Polyhedron{Dim: widened.Dim}
	for _, in := range widened.Ineqs {
		c := make([]Rational, widened.Dim)
		copy(c, in.Coeffs)
		var deltaCoeff Rational
		for i := clockStart; i < clockStart+clockCount && i < p.Dim; i++ {
			deltaCoeff = deltaCoeff.Sub(in.Coeffs[i])
		}
		c[deltaDim] = deltaCoeff
		shifted.Ineqs = append(shifted.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}

	// delta >= 0  =>  -delta <= 0
	nonneg := zeroCoeffs(shifted.Dim)
	nonneg[deltaDim] = RationalFromInt(-1)
	shifted.Ineqs = append(shifted.Ineqs, Ineq{Coeffs: nonneg, Const: RationalZero})

	if maxDelta != nil {
		// delta <= maxDelta  =>  delta - maxDelta <= 0
		bound := zeroCoeffs(shifted.Dim)
		bound[deltaDim] = RationalFromInt(1)
		shifted.Ineqs = append(shifted.Ineqs, Ineq{Coeffs: bound, Const: maxDelta.Neg()})
	}

	return shifted.ProjectOut(deltaDim)
}

// EvaluateAt reports whether the point given by vals (one rational
// per dimension) satisfies every inequality of p.
func (p Polyhedron) EvaluateAt(vals []Rational) bool {
	for _, in := range p.Ineqs {
		var sum Rational
		for i, c := range in.Coeffs {
			if i < len(vals) {
				sum = sum.Add(c.Mul(vals[i]))
			}
		}
		sum = sum.Add(in.Const)
		if in.Strict {
			if !sum.IsNegative() {
				return false
			}
		} else if sum.IsPositive() {
			return false
		}
	}
	return true
}

// Digest returns a canonical structural hash key for p, used for
// configuration-set deduplication (Design Notes §9). Constraints are
// sorted into a canonical order first so that logically-identical
// polyhedra built in a different order still compare equal.
func (p Polyhedron) Digest() string {
	lines := make([]string, len(p.Ineqs))
	for i, in := range p.Ineqs {
		var b strings.Builder
		for _, c := range in.Coeffs {
			b.WriteString(c.String())
			b.WriteByte(',')
		}
		b.WriteString(in.Const.String())
		if in.Strict {
			b.WriteString(",<")
		} else {
			b.WriteString(",<=")
		}
		lines[i] = b.String()
	}
	sort.Strings(lines)
	return strings.Join(lines, ";")
}

// clone returns a deep copy of p.
func (p Polyhedron) clone() Polyhedron {
	out := Polyhedron{Dim: p.Dim, Ineqs: make([]Ineq, len(p.Ineqs))}
	for i, in := range p.Ineqs {
		c := make([]Rational, len(in.Coeffs))
		copy(c, in.Coeffs)
		out.Ineqs[i] = Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict}
	}
	return out
}

// nonNegative returns the polyhedron asserting every dimension in
// [0, dim) is >= 0 — the seed valuation for parameters (§4.D: "a
// polyhedron where all parameters are >= 0") and for freshly-added
// zeroed clocks.
func nonNegative(dim int) Polyhedron {
	p := Polyhedron{Dim: dim}
	for i := 0; i < dim; i++ {
		c := zeroCoeffs(dim)
		c[i] = RationalFromInt(-1)
		p.Ineqs = append(p.Ineqs, Ineq{Coeffs: c, Const: RationalZero})
	}
	return p
}

// zeroed returns the polyhedron asserting every dimension equals 0.
func zeroed(dim int) Polyhedron {
	p := Polyhedron{Dim: dim}
	for i := 0; i < dim; i++ {
		c := zeroCoeffs(dim)
		c[i] = RationalFromInt(1)
		p.Ineqs = append(p.Ineqs, Ineq{Coeffs: c, Const: RationalZero})
		c2 := zeroCoeffs(dim)
		c2[i] = RationalFromInt(-1)
		p.Ineqs = append(p.Ineqs, Ineq{Coeffs: c2, Const: RationalZero})
	}
	return p
}
