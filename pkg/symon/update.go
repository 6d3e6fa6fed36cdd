package symon

// Update is a transition's variable-update block: two ordered
// assignment lists applied sequentially, so later assignments observe
// earlier writes (§3 "Update").
type Update struct {
	StringUpdate []StringAssignment
	NumberUpdate []NumberAssignment
}

func (u Update) clone() Update {
	return Update{
		StringUpdate: append([]StringAssignment{}, u.StringUpdate...),
		NumberUpdate: append([]NumberAssignment{}, u.NumberUpdate...),
	}
}

// ApplyStrings applies the string assignments to env in place.
func (u Update) ApplyStrings(env StringValuation) {
	for _, a := range u.StringUpdate {
		a.apply(env)
	}
}

// ApplyNumbersBoolean applies the number assignments to a concrete
// environment in place, per §4.A "each assignment reads from the
// current environment at its point in the list".
func (u Update) ApplyNumbersBoolean(env []*Rational) {
	for _, a := range u.NumberUpdate {
		a.applyBoolean(env)
	}
}

// ApplyNumbersSymbolic applies the number assignments as a sequence of
// affine-image updates on a polyhedron, per §4.A "each number
// assignment x := e is an affine-image update on the polyhedron".
func (u Update) ApplyNumbersSymbolic(p Polyhedron) Polyhedron {
	for _, a := range u.NumberUpdate {
		p = p.AffineImage(a.Dest, a.Expr)
	}
	return p
}
