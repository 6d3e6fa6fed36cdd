package symon

// This file implements the fully parametric ε-closure of §4.D: firing
// an unobservable transition at some still-undetermined point during
// the δ elapsed since the previous event, then folding the "how much
// of δ is left" bookkeeping back out so the successor configuration is
// directly comparable to the rest of K.
//
// A clock polyhedron configuration always stores clocks "fully
// elapsed" to the current reference time (the timestamp of the event
// just observed, or — mid ε-closure — the point the closure is being
// computed from). Firing an ε-transition at an earlier instant
// requires temporarily rolling clocks back by some r ∈ [0, δ]: this is
// modeled as one extra dimension, conjoined with the transition's
// guard (itself re-expressed in the rolled-back coordinates), and
// folded back out once the guard has been checked and any reset
// applied — see fireEpsilonClockPoly.

// coupleClocksWithR adds (or removes, via a negative sign) the
// per-clock coefficient sum to the r column of every inequality of p —
// the linear-substitution step that relates the "fully elapsed"
// coordinates to the "elapsed up to r" coordinates for clock
// dimensions only (parameters are untouched by the passage of time).
func coupleClocksWithR(p Polyhedron, clockStart, clockCount, rDim int, sign Rational) Polyhedron {
	out := Polyhedron{Dim: p.Dim}
	for _, in := range p.Ineqs {
		c := make([]Rational, len(in.Coeffs))
		copy(c, in.Coeffs)
		var clockSum Rational
		for i := clockStart; i < clockStart+clockCount && i < len(in.Coeffs); i++ {
			clockSum = clockSum.Add(in.Coeffs[i])
		}
		c[rDim] = c[rDim].Add(clockSum.Mul(sign))
		out.Ineqs = append(out.Ineqs, Ineq{Coeffs: c, Const: in.Const, Strict: in.Strict})
	}
	return out
}

// fireEpsilonClockPoly tests and fires an ε-transition's guard against
// base (a clock polyhedron already elapsed to the current reference
// time), allowing the firing instant to be anywhere in the window
// [now-delta, now] (or, if delta is nil, anywhere in [-∞, now] — used
// by the unbounded final closure run at monitor shutdown). It applies
// the transition's clock resets and returns the successor clock
// polyhedron, re-expressed back at the "fully elapsed to now"
// reference frame so it can be merged with the rest of K.
func fireEpsilonClockPoly(base Polyhedron, t *Transition, params, clocks int, delta *Rational) (Polyhedron, bool) {
	dim := params + clocks
	base = base.AdjustDimension(dim)
	rDim := dim

	withR := base.AdjustDimension(dim + 1)
	nonnegR := zeroCoeffs(dim + 1)
	nonnegR[rDim] = RationalFromInt(-1)
	withR.Ineqs = append(withR.Ineqs, Ineq{Coeffs: nonnegR, Const: RationalZero})
	if delta != nil {
		leR := zeroCoeffs(dim + 1)
		leR[rDim] = RationalFromInt(1)
		withR.Ineqs = append(withR.Ineqs, Ineq{Coeffs: leR, Const: delta.Neg()})
	}

	candidate := withR
	if t.Guard.Poly != nil {
		gYR := coupleClocksWithR(t.Guard.Poly.AdjustDimension(dim+1), params, clocks, rDim, RationalFromInt(-1))
		candidate = candidate.Conjoin(gYR)
	}
	if candidate.IsEmpty() {
		return Polyhedron{}, false
	}

	xr := coupleClocksWithR(candidate, params, clocks, rDim, RationalFromInt(1))
	for _, rv := range t.ResetVars {
		xr = xr.AffineImage(params+rv, NumLiteral(RationalZero))
	}

	backToNow := coupleClocksWithR(xr, params, clocks, rDim, RationalFromInt(-1))
	final := backToNow.ProjectOut(rDim)
	if final.IsEmpty() {
		return Polyhedron{}, false
	}
	return final, true
}

// fireEpsilonTransition fires t from cfg, applying its guard (via
// fireEpsilonClockPoly), number constraints/update and string
// constraints/update, none of which see an event payload since no
// event is being consumed.
func fireEpsilonTransition(cfg Configuration, t *Transition, params, clocks int, delta *Rational) (Configuration, bool) {
	clockPoly, ok := fireEpsilonClockPoly(cfg.ClockPoly, t, params, clocks, delta)
	if !ok {
		return Configuration{}, false
	}

	numPoly := cfg.NumberPoly
	if len(t.NumberConstraints) > 0 {
		np, ok2 := applyNumberConstraintsPoly(t.NumberConstraints, numPoly)
		if !ok2 {
			return Configuration{}, false
		}
		numPoly = np
	}
	numPoly = t.Update.ApplyNumbersSymbolic(numPoly)

	strs, ok3, err := evaluateStringConstraints(t.StringConstraints, cfg.Strings)
	if err != nil || !ok3 {
		return Configuration{}, false
	}
	strs = strs.clone()
	t.Update.ApplyStrings(strs)

	return Configuration{State: t.Target, ClockPoly: clockPoly, NumberPoly: numPoly, Strings: strs}, true
}

// epsilonClose computes the fixpoint of firing every enabled
// ActionEpsilon transition from seed, up to len(a.States)+1 rounds —
// an automaton with a genuine ε-cycle would never converge, but §4.D's
// acyclicity-of-unobservable-transitions assumption rules that out, so
// the round cap is purely a defensive backstop.
func epsilonClose(seed []Configuration, a *Automaton, delta *Rational, params, clocks int) []Configuration {
	seen := make(map[string]bool, len(seed))
	all := make([]Configuration, 0, len(seed))
	for _, c := range seed {
		d := configDigest(c)
		if !seen[d] {
			seen[d] = true
			all = append(all, c)
		}
	}
	frontier := append([]Configuration{}, all...)
	maxRounds := len(a.States) + 1
	for round := 0; round < maxRounds && len(frontier) > 0; round++ {
		var next []Configuration
		for _, cfg := range frontier {
			for _, t := range a.TransitionsOn(cfg.State, ActionEpsilon) {
				succ, ok := fireEpsilonTransition(cfg, t, params, clocks, delta)
				if !ok {
					continue
				}
				d := configDigest(succ)
				if seen[d] {
					continue
				}
				seen[d] = true
				all = append(all, succ)
				next = append(next, succ)
			}
		}
		frontier = next
	}
	return all
}
