package symon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/symon-run/symon/pkg/symon/observe"
)

// Monitor is the configuration-set runtime of §4.D: it holds the set K
// of configurations reachable on the timed data word consumed so far,
// and advances K one event at a time. A Monitor is not safe for
// concurrent use — see §5, it is deliberately single-threaded and
// cooperative, mirroring how the original implementation is driven
// from one event-reading loop.
type Monitor struct {
	ID uuid.UUID

	mode      Mode
	automaton *Automaton

	configs []Configuration
	t0      Rational
	index   int
	closed  bool

	Matches     observe.SingleSubject[Match]
	Diagnostics observe.ManySubject[Event]
}

// NewMonitor seeds K with one configuration per initial state of a,
// per §4.D, and returns a Monitor running in the requested mode.
func NewMonitor(mode Mode, a *Automaton) *Monitor {
	m := &Monitor{ID: uuid.New(), mode: mode, automaton: a, t0: RationalZero}
	for _, init := range a.Initial {
		cfg := Configuration{State: init}
		switch mode {
		case Boolean:
			cfg.Clocks = zerosRational(a.Card.Clocks)
			cfg.Numbers = make([]*Rational, a.Card.Numbers)
			cfg.Strings = NewStringValuation(a.Card.Strings)
		case DataParametric:
			cfg.Clocks = zerosRational(a.Card.Clocks)
			cfg.NumberPoly = NewPolyhedron(a.Card.Numbers)
			cfg.Strings = NewStringValuation(a.Card.Strings)
		case FullyParametric:
			cfg.ClockPoly = seedClockPolyhedron(a.Params, a.Card.Clocks)
			cfg.NumberPoly = NewPolyhedron(a.Card.Numbers)
			cfg.Strings = NewStringValuation(a.Card.Strings)
		}
		m.configs = append(m.configs, cfg)
	}
	return m
}

// ConstrainInitialParams intersects every live configuration's clock
// polyhedron with additional parameter constraints — the `init`
// declaration of the high-level automaton language (§6), only
// meaningful in fully parametric mode, where parameters occupy
// dimensions [0, Params) of ClockPoly. Must be called before the first
// Consume; it is a no-op in Boolean/data-parametric mode, since
// parameters don't exist there.
func (m *Monitor) ConstrainInitialParams(cs []NumberConstraint) error {
	if m.mode != FullyParametric || len(cs) == 0 {
		return nil
	}
	for i := range m.configs {
		poly := m.configs[i].ClockPoly
		for _, c := range cs {
			next, ok := c.ApplyToPolyhedron(poly)
			if !ok {
				return fmt.Errorf("symon: init constraints are unsatisfiable")
			}
			poly = next
		}
		m.configs[i].ClockPoly = poly
	}
	return nil
}

// Mode reports the monitor's operating mode.
func (m *Monitor) Mode() Mode { return m.mode }

// Len reports the current size of K — exposed mainly for tests and
// diagnostics, since an exploding |K| is the practical failure mode of
// a monitor fed a pathological automaton.
func (m *Monitor) Len() int { return len(m.configs) }

// Consume advances the monitor by one event: time elapse, (parametric
// only) ε-closure before consumption, event consumption, (parametric
// only) ε-closure after consumption and configuration merging.
func (m *Monitor) Consume(e Event) error {
	if m.closed {
		return fmt.Errorf("symon: Consume called after Close")
	}
	m.Diagnostics.Notify(e)

	delta := e.Timestamp.Sub(m.t0)
	if delta.IsNegative() {
		return fmt.Errorf("symon: event at index %d has timestamp %s before previous timestamp %s", m.index, e.Timestamp, m.t0)
	}

	var err error
	switch m.mode {
	case Boolean:
		err = m.consumeBoolean(e, delta)
	case DataParametric:
		err = m.consumeDataParametric(e, delta)
	case FullyParametric:
		err = m.consumeFullyParametric(e, delta)
	default:
		err = fmt.Errorf("symon: unknown mode %v", m.mode)
	}
	if err != nil {
		return err
	}
	m.t0 = e.Timestamp
	m.index++
	return nil
}

// Close runs the final ε-closure (fully parametric mode only) so
// matches reachable purely through unobservable transitions after the
// last event are still emitted, per §4.D. It is idempotent.
func (m *Monitor) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.mode != FullyParametric {
		return nil
	}
	closure := epsilonClose(m.configs, m.automaton, nil, m.automaton.Params, m.automaton.Card.Clocks)
	for _, cfg := range closure {
		if m.automaton.IsMatch(cfg.State) {
			m.Matches.Notify(Match{Index: m.index, Timestamp: m.t0, Strings: cfg.Strings, NumberPoly: cfg.NumberPoly, ClockPoly: cfg.ClockPoly, Epsilon: true})
		}
	}
	m.configs = merge(closure)
	return nil
}

func literalSlots(ss []string) StringValuation {
	out := make(StringValuation, len(ss))
	for i, s := range ss {
		v := s
		out[i] = StringSlot{Value: &v}
	}
	return out
}

func numberPtrs(ns []Rational) []*Rational {
	out := make([]*Rational, len(ns))
	for i := range ns {
		v := ns[i]
		out[i] = &v
	}
	return out
}

func addDelta(clocks []Rational, delta Rational) []Rational {
	out := make([]Rational, len(clocks))
	for i, c := range clocks {
		out[i] = c.Add(delta)
	}
	return out
}

func resetConcrete(clocks []Rational, resets []int) []Rational {
	out := append([]Rational{}, clocks...)
	for _, r := range resets {
		if r < len(out) {
			out[r] = RationalZero
		}
	}
	return out
}

// evaluateStringConstraints threads env through cs in order, per §4.A
// ("later constraints observe earlier bindings"); it surfaces
// ErrUnsupportedSymbolicEquality rather than swallowing it, since that
// is a distinct outcome from ordinary constraint failure.
func evaluateStringConstraints(cs []StringConstraint, env StringValuation) (StringValuation, bool, error) {
	cur := env
	for _, c := range cs {
		next, ok, err := c.Evaluate(cur)
		if err != nil {
			return env, false, err
		}
		if !ok {
			return env, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

func evaluateNumberConstraintsBoolean(cs []NumberConstraint, env []*Rational) bool {
	for _, c := range cs {
		if !c.EvaluateBoolean(env) {
			return false
		}
	}
	return true
}

func applyNumberConstraintsPoly(cs []NumberConstraint, p Polyhedron) (Polyhedron, bool) {
	cur := p
	for _, c := range cs {
		next, ok := c.ApplyToPolyhedron(cur)
		if !ok {
			return Polyhedron{}, false
		}
		cur = next
	}
	return cur, true
}

// emitMatch reports a match at the event currently being consumed.
// Consume only advances m.t0 to the event's timestamp after the
// mode-specific consume function returns, so the timestamp must be
// passed in explicitly rather than read off m.t0 here.
func (m *Monitor) emitMatch(timestamp Rational, strValue StringValuation, numbers []*Rational, numPoly Polyhedron, clockPoly Polyhedron) {
	m.Matches.Notify(Match{Index: m.index, Timestamp: timestamp, Strings: strValue, Numbers: numbers, NumberPoly: numPoly, ClockPoly: clockPoly})
}

func (m *Monitor) consumeBoolean(e Event, delta Rational) error {
	card := m.automaton.Card
	var next []Configuration
	for _, cfg := range m.configs {
		newClocks := addDelta(cfg.Clocks, delta)
		for _, t := range m.automaton.TransitionsOn(cfg.State, e.Action) {
			if !t.Guard.EvaluateConcrete(newClocks) {
				continue
			}
			extStrings := append(cfg.Strings.clone(), literalSlots(e.Strings)...)
			extNumbers := append(append([]*Rational{}, cfg.Numbers...), numberPtrs(e.Numbers)...)

			boundStrings, ok, err := evaluateStringConstraints(t.StringConstraints, extStrings)
			if err != nil {
				log.Debug().Err(err).Int("event", m.index).Msg("string constraint skipped")
				continue
			}
			if !ok {
				continue
			}
			if !evaluateNumberConstraintsBoolean(t.NumberConstraints, extNumbers) {
				continue
			}

			t.Update.ApplyStrings(boundStrings)
			t.Update.ApplyNumbersBoolean(extNumbers)

			succ := Configuration{
				State:   t.Target,
				Clocks:  resetConcrete(newClocks, t.ResetVars),
				Strings: boundStrings.Truncate(card.Strings),
				Numbers: extNumbers[:card.Numbers],
			}
			next = append(next, succ)
			if m.automaton.IsMatch(t.Target) {
				m.emitMatch(e.Timestamp, succ.Strings, succ.Numbers, Polyhedron{}, Polyhedron{})
			}
		}
	}
	m.configs = next
	return nil
}

func (m *Monitor) consumeDataParametric(e Event, delta Rational) error {
	card := m.automaton.Card
	var next []Configuration
	for _, cfg := range m.configs {
		newClocks := addDelta(cfg.Clocks, delta)
		for _, t := range m.automaton.TransitionsOn(cfg.State, e.Action) {
			if !t.Guard.EvaluateConcrete(newClocks) {
				continue
			}
			extStrings := append(cfg.Strings.clone(), literalSlots(e.Strings)...)

			extDim := card.Numbers + len(e.Numbers)
			extPoly := cfg.NumberPoly.AdjustDimension(extDim)
			eqOK := true
			for i, val := range e.Numbers {
				eq := NewNumberConstraint(NumVar(card.Numbers+i), OpEq, NumLiteral(val))
				var ok bool
				extPoly, ok = eq.ApplyToPolyhedron(extPoly)
				if !ok {
					eqOK = false
					break
				}
			}
			if !eqOK {
				continue
			}

			boundStrings, ok, err := evaluateStringConstraints(t.StringConstraints, extStrings)
			if err != nil {
				log.Debug().Err(err).Int("event", m.index).Msg("string constraint skipped")
				continue
			}
			if !ok {
				continue
			}
			constrained, ok2 := applyNumberConstraintsPoly(t.NumberConstraints, extPoly)
			if !ok2 {
				continue
			}

			t.Update.ApplyStrings(boundStrings)
			updated := t.Update.ApplyNumbersSymbolic(constrained)

			succ := Configuration{
				State:      t.Target,
				Clocks:     resetConcrete(newClocks, t.ResetVars),
				Strings:    boundStrings.Truncate(card.Strings),
				NumberPoly: updated.AdjustDimension(card.Numbers),
			}
			next = append(next, succ)
			if m.automaton.IsMatch(t.Target) {
				m.emitMatch(e.Timestamp, succ.Strings, nil, succ.NumberPoly, Polyhedron{})
			}
		}
	}
	m.configs = next
	return nil
}

func (m *Monitor) consumeFullyParametric(e Event, delta Rational) error {
	card := m.automaton.Card
	params := m.automaton.Params

	elapsed := make([]Configuration, len(m.configs))
	for i, cfg := range m.configs {
		elapsed[i] = cfg
		poly := cfg.ClockPoly
		for c := 0; c < card.Clocks; c++ {
			idx := params + c
			poly = poly.AffineImage(idx, AddExpr(NumVar(idx), NumLiteral(delta)))
		}
		elapsed[i].ClockPoly = poly
	}

	before := epsilonClose(elapsed, m.automaton, &delta, params, card.Clocks)

	var consumed []Configuration
	for _, cfg := range before {
		for _, t := range m.automaton.TransitionsOn(cfg.State, e.Action) {
			candidate, fires := t.Guard.EvaluatePolyhedral(cfg.ClockPoly)
			if !fires {
				continue
			}
			extStrings := append(cfg.Strings.clone(), literalSlots(e.Strings)...)

			extDim := card.Numbers + len(e.Numbers)
			extPoly := cfg.NumberPoly.AdjustDimension(extDim)
			eqOK := true
			for i, val := range e.Numbers {
				eq := NewNumberConstraint(NumVar(card.Numbers+i), OpEq, NumLiteral(val))
				var ok bool
				extPoly, ok = eq.ApplyToPolyhedron(extPoly)
				if !ok {
					eqOK = false
					break
				}
			}
			if !eqOK {
				continue
			}

			boundStrings, ok, err := evaluateStringConstraints(t.StringConstraints, extStrings)
			if err != nil {
				log.Debug().Err(err).Int("event", m.index).Msg("string constraint skipped")
				continue
			}
			if !ok {
				continue
			}
			constrainedNum, ok2 := applyNumberConstraintsPoly(t.NumberConstraints, extPoly)
			if !ok2 {
				continue
			}

			t.Update.ApplyStrings(boundStrings)
			updatedNum := t.Update.ApplyNumbersSymbolic(constrainedNum).AdjustDimension(card.Numbers)

			resetClocks := candidate
			for _, rv := range t.ResetVars {
				resetClocks = resetClocks.AffineImage(params+rv, NumLiteral(RationalZero))
			}

			succ := Configuration{
				State:      t.Target,
				ClockPoly:  resetClocks,
				Strings:    boundStrings.Truncate(card.Strings),
				NumberPoly: updatedNum,
			}
			consumed = append(consumed, succ)
			if m.automaton.IsMatch(t.Target) {
				m.emitMatch(e.Timestamp, succ.Strings, nil, succ.NumberPoly, succ.ClockPoly)
			}
		}
	}

	zero := RationalZero
	after := epsilonClose(consumed, m.automaton, &zero, params, card.Clocks)
	m.configs = merge(after)
	return nil
}

// merge implements §4.D step 5: configurations that agree on state and
// on the digest of both polyhedra are collapsed into one, folding
// their string valuations together via MergeStringSlots. A group whose
// string slots cannot all be merged is left as separate configurations
// rather than discarded — merging is a dedup optimization, not a
// correctness requirement.
func merge(cfgs []Configuration) []Configuration {
	type key struct{ state int; clock, num string }
	keyOf := func(c Configuration) key {
		return key{c.State, c.ClockPoly.Digest(), c.NumberPoly.Digest()}
	}
	groups := lo.GroupBy(cfgs, keyOf)
	order := lo.UniqBy(lo.Map(cfgs, func(c Configuration, _ int) key { return keyOf(c) }), func(k key) key { return k })

	out := make([]Configuration, 0, len(order))
	for _, k := range order {
		out = append(out, mergeGroup(groups[k])...)
	}
	return out
}

// mergeGroup folds every configuration in a same-state-and-polyhedra
// group into one via MergeStringSlots, falling back to leaving the
// group unmerged if any pair of string valuations can't agree.
func mergeGroup(g []Configuration) []Configuration {
	merged := g[0]
	for _, other := range g[1:] {
		newStrings := make(StringValuation, len(merged.Strings))
		good := true
		for i := range merged.Strings {
			ms, mok := MergeStringSlots(merged.Strings[i], other.Strings[i])
			if !mok {
				good = false
				break
			}
			newStrings[i] = ms
		}
		if !good {
			return g
		}
		merged.Strings = newStrings
	}
	return []Configuration{merged}
}

func configDigest(c Configuration) string {
	return fmt.Sprintf("%d#%s#%s#%s", c.State, c.ClockPoly.Digest(), c.NumberPoly.Digest(), stringsDigest(c.Strings))
}

func stringsDigest(sv StringValuation) string {
	parts := make([]string, len(sv))
	for i, s := range sv {
		if s.Value != nil {
			parts[i] = "v:" + *s.Value
			continue
		}
		keys := make([]string, 0, len(s.Excluded))
		for k := range s.Excluded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts[i] = "x:" + strings.Join(keys, ",")
	}
	return strings.Join(parts, "|")
}
