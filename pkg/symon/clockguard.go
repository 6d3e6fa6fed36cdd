package symon

// ClockAtom is one atomic clock comparison `x_i ∼ c` used by Boolean
// and data-parametric guards.
type ClockAtom struct {
	Clock VarID
	Op    ComparisonOp
	Bound Rational
}

func (a ClockAtom) holds(v Rational) bool {
	switch a.Op {
	case OpLt:
		return v.Cmp(a.Bound) < 0
	case OpLe:
		return v.Cmp(a.Bound) <= 0
	case OpEq:
		return v.Cmp(a.Bound) == 0
	case OpGe:
		return v.Cmp(a.Bound) >= 0
	case OpGt:
		return v.Cmp(a.Bound) > 0
	}
	return false
}

func (a ClockAtom) shift(w int) ClockAtom {
	a.Clock += w
	return a
}

// ClockGuard is a timing guard: either a conjunction of atomic clock
// comparisons (Boolean / data-parametric mode) or a convex polyhedron
// over (parameters, clocks) (fully parametric mode). Exactly one
// representation is meaningful per Monitor's Mode; a zero-value
// ClockGuard (no atoms, nil polyhedron) is trivially true.
type ClockGuard struct {
	Atoms []ClockAtom
	Poly  *Polyhedron
}

// TrueGuard returns the always-satisfied guard.
func TrueGuard() ClockGuard { return ClockGuard{} }

// NewConcreteGuard returns a Boolean/data-parametric guard from atoms.
func NewConcreteGuard(atoms ...ClockAtom) ClockGuard {
	return ClockGuard{Atoms: atoms}
}

// NewPolyhedralGuard returns a fully parametric guard.
func NewPolyhedralGuard(p Polyhedron) ClockGuard {
	return ClockGuard{Poly: &p}
}

// EvaluateConcrete tests g against a concrete clock vector.
func (g ClockGuard) EvaluateConcrete(clocks []Rational) bool {
	for _, a := range g.Atoms {
		if a.Clock >= len(clocks) || !a.holds(clocks[a.Clock]) {
			return false
		}
	}
	return true
}

// EvaluatePolyhedral intersects g's polyhedron (if any) with candidate
// and reports whether the result is non-empty — "transition fires if
// the result is non-empty" (§4.A).
func (g ClockGuard) EvaluatePolyhedral(candidate Polyhedron) (Polyhedron, bool) {
	if g.Poly == nil {
		return candidate, !candidate.IsEmpty()
	}
	next := candidate.Conjoin(*g.Poly)
	return next, !next.IsEmpty()
}

// shift implements the `shift(g, w)` primitive: prepend w fresh clock
// dimensions so the guard refers to the later indices.
func (g ClockGuard) shift(w int) ClockGuard {
	out := ClockGuard{}
	for _, a := range g.Atoms {
		out.Atoms = append(out.Atoms, a.shift(w))
	}
	if g.Poly != nil {
		p := g.Poly.Shift(w)
		out.Poly = &p
	}
	return out
}

// conjoin implements the `conjoin(g1, g2)` primitive.
func (g ClockGuard) conjoin(other ClockGuard) ClockGuard {
	out := ClockGuard{}
	out.Atoms = append(out.Atoms, g.Atoms...)
	out.Atoms = append(out.Atoms, other.Atoms...)
	switch {
	case g.Poly != nil && other.Poly != nil:
		p := g.Poly.Conjoin(*other.Poly)
		out.Poly = &p
	case g.Poly != nil:
		p := *g.Poly
		out.Poly = &p
	case other.Poly != nil:
		p := *other.Poly
		out.Poly = &p
	}
	return out
}

// adjustDimension implements the `adjustDimension(g, n)` primitive for
// the polyhedral representation; it is a no-op for the atom-list
// representation, whose "dimension" is simply the clock-vector length
// supplied at evaluation time.
func (g ClockGuard) adjustDimension(n int) ClockGuard {
	if g.Poly == nil {
		return g
	}
	p := g.Poly.AdjustDimension(n)
	return ClockGuard{Atoms: g.Atoms, Poly: &p}
}

func (g ClockGuard) clone() ClockGuard {
	out := ClockGuard{Atoms: append([]ClockAtom{}, g.Atoms...)}
	if g.Poly != nil {
		p := g.Poly.clone()
		out.Poly = &p
	}
	return out
}
