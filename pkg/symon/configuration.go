package symon

// Configuration is the 4-tuple (state, clockVal, stringVal, numberVal)
// of §3. A single struct serves all three operating modes; which
// fields are populated depends on the Monitor's Mode:
//
//   - Boolean: Clocks (concrete), Strings (Value-only slots), Numbers
//     (optional concrete vector).
//   - DataParametric: Clocks (concrete — guards stay Boolean-style in
//     this mode), Strings (concrete-or-exclusion-set slots),
//     NumberPoly (convex polyhedron over |N| dims).
//   - FullyParametric: ClockPoly (polyhedron over (P,C)), Strings
//     (concrete-or-exclusion-set slots), NumberPoly.
type Configuration struct {
	State      int
	Clocks     []Rational
	ClockPoly  Polyhedron
	Strings    StringValuation
	Numbers    []*Rational
	NumberPoly Polyhedron
}

func zerosRational(n int) []Rational {
	out := make([]Rational, n)
	for i := range out {
		out[i] = RationalZero
	}
	return out
}

// seedClockPolyhedron returns the initial (params, clocks) polyhedron:
// every parameter unconstrained-but-non-negative, every clock exactly
// zero, per §4.D "seeded with one configuration per initial state,
// populated with zeroed clocks ... and (parametric) a polyhedron where
// all parameters are ≥ 0".
func seedClockPolyhedron(params, clocks int) Polyhedron {
	dim := params + clocks
	p := nonNegative(params).AdjustDimension(dim)
	z := zeroed(clocks).Shift(params)
	return p.Conjoin(z)
}

func (c Configuration) cloneBoolean() Configuration {
	out := c
	out.Clocks = append([]Rational{}, c.Clocks...)
	out.Strings = c.Strings.clone()
	out.Numbers = append([]*Rational{}, c.Numbers...)
	return out
}

func (c Configuration) cloneDataParametric() Configuration {
	out := c
	out.Clocks = append([]Rational{}, c.Clocks...)
	out.Strings = c.Strings.clone()
	out.NumberPoly = c.NumberPoly.clone()
	return out
}

func (c Configuration) cloneFullyParametric() Configuration {
	out := c
	out.ClockPoly = c.ClockPoly.clone()
	out.Strings = c.Strings.clone()
	out.NumberPoly = c.NumberPoly.clone()
	return out
}
