package symon

// This file implements component C, the automaton-construction
// calculus used to build monitors from regular-expression-like
// specifications: disjunction, conjunction (product), concatenation,
// Kleene plus/star, empty-or, time-restriction and ignore-actions.
// Every operation returns a freshly built *Automaton; none of them
// mutate their operands (each starts from a DeepCopy).

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxCard(a, b Cardinalities) Cardinalities {
	return Cardinalities{
		Clocks:  maxInt(a.Clocks, b.Clocks),
		Params:  maxInt(a.Params, b.Params),
		Strings: maxInt(a.Strings, b.Strings),
		Numbers: maxInt(a.Numbers, b.Numbers),
	}
}

// appendStates deep-copies src's states onto dst, shifting transition
// targets by dst's current length and, if clockShift > 0, shifting
// every clock reference (reset lists and guards) by clockShift. It
// returns the index offset src's states now occupy in dst.
func appendStates(dst *Automaton, src *Automaton, clockShift int) int {
	offset := len(dst.States)
	clone := src.DeepCopy()
	for _, s := range clone.States {
		for _, ts := range s.Transitions {
			for _, t := range ts {
				t.Target += offset
				if clockShift > 0 {
					for i := range t.ResetVars {
						t.ResetVars[i] += clockShift
					}
					t.Guard = t.Guard.shift(clockShift)
				}
			}
		}
		dst.States = append(dst.States, s)
	}
	return offset
}

// Union builds A | B: juxtapose state and initial-state lists;
// cardinalities are the element-wise maximum.
func Union(a, b *Automaton) *Automaton {
	out := NewAutomaton(maxCard(a.Card, b.Card))
	offA := appendStates(out, a, 0)
	offB := appendStates(out, b, 0)
	for _, i := range a.Initial {
		out.Initial = append(out.Initial, i+offA)
	}
	for _, i := range b.Initial {
		out.Initial = append(out.Initial, i+offB)
	}
	return out
}

type pairKey struct{ a, b int }

// Product builds A & B: clocks add (B's are shifted by |C_A|, since
// clocks are local per operand); strings and numbers take the
// maximum (they are global). Product states are constructed lazily,
// breadth-first, from reachable (sa, sb) pairs.
func Product(a, b *Automaton) *Automaton {
	card := Cardinalities{
		Clocks:  a.Card.Clocks + b.Card.Clocks,
		Strings: maxInt(a.Card.Strings, b.Card.Strings),
		Numbers: maxInt(a.Card.Numbers, b.Card.Numbers),
		Params:  maxInt(a.Card.Params, b.Card.Params),
	}
	out := NewAutomaton(card)
	out.Params = card.Params

	index := make(map[pairKey]int)
	var queue []pairKey

	getOrCreate := func(sa, sb int) int {
		k := pairKey{sa, sb}
		if idx, ok := index[k]; ok {
			return idx
		}
		idx := out.AddState(NewState())
		out.States[idx].IsMatch = a.IsMatch(sa) && b.IsMatch(sb)
		index[k] = idx
		queue = append(queue, k)
		return idx
	}

	for _, ia := range a.Initial {
		for _, ib := range b.Initial {
			out.AddInitial(getOrCreate(ia, ib))
		}
	}

	clockShift := a.Card.Clocks
	for len(queue) > 0 {
		pk := queue[0]
		queue = queue[1:]
		srcIdx := index[pk]
		sa, sb := a.States[pk.a], b.States[pk.b]

		for _, action := range sa.Actions() {
			tbs, ok := sb.Transitions[action]
			if !ok {
				continue
			}
			for _, ta := range sa.Transitions[action] {
				for _, tb := range tbs {
					targetIdx := getOrCreate(ta.Target, tb.Target)

					nt := &Transition{Target: targetIdx}
					nt.StringConstraints = append(append([]StringConstraint{}, ta.StringConstraints...), tb.StringConstraints...)
					nt.NumberConstraints = append(append([]NumberConstraint{}, ta.NumberConstraints...), tb.NumberConstraints...)
					nt.Update.StringUpdate = append(append([]StringAssignment{}, ta.Update.StringUpdate...), tb.Update.StringUpdate...)
					nt.Update.NumberUpdate = append(append([]NumberAssignment{}, ta.Update.NumberUpdate...), tb.Update.NumberUpdate...)

					nt.ResetVars = append([]int{}, ta.ResetVars...)
					for _, r := range tb.ResetVars {
						nt.ResetVars = append(nt.ResetVars, r+clockShift)
					}
					nt.Guard = ta.Guard.conjoin(tb.Guard.shift(clockShift))

					out.States[srcIdx].AddTransition(action, nt)
				}
			}
		}
	}
	return out
}

// Concatenation builds A · B: for every transition of A whose target
// is accepting, parallel transitions are added to every initial state
// of B, resetting all of A's clocks. A's accepting states that end up
// with no outgoing transitions are pruned; any A-state that keeps
// outgoing transitions has its accepting flag cleared, since matching
// now requires continuing into B.
func Concatenation(a, b *Automaton) *Automaton {
	out := NewAutomaton(maxCard(a.Card, b.Card))
	offA := appendStates(out, a, 0)
	offB := appendStates(out, b, 0)
	for _, i := range a.Initial {
		out.Initial = append(out.Initial, i+offA)
	}

	aClockReset := make([]int, a.Card.Clocks)
	for i := range aClockReset {
		aClockReset[i] = i
	}

	// Snapshot which original A-states were accepting before we start mutating.
	wasAccepting := make([]bool, len(a.States))
	for i, s := range a.States {
		wasAccepting[i] = s.IsMatch
	}

	bInitialShifted := make([]int, len(b.Initial))
	for i, idx := range b.Initial {
		bInitialShifted[i] = idx + offB
	}

	for localIdx := range a.States {
		state := out.States[localIdx+offA]
		for action, ts := range state.Transitions {
			for _, t := range append([]*Transition{}, ts...) {
				if !wasAccepting[t.Target-offA] {
					continue
				}
				for _, bi := range bInitialShifted {
					nt := t.clone()
					nt.Target = bi
					nt.ResetVars = append([]int{}, aClockReset...)
					state.AddTransition(action, nt)
				}
			}
		}
	}

	remove := map[int]bool{}
	for localIdx := range a.States {
		idx := localIdx + offA
		if !wasAccepting[localIdx] {
			continue
		}
		if len(out.States[idx].Transitions) == 0 {
			remove[idx] = true
		} else {
			out.States[idx].IsMatch = false
		}
	}
	return pruneStates(out, remove)
}

// Plus builds A⁺: every transition whose target is accepting gains a
// sibling transition with the same data pointing to each initial
// state, resetting all clocks.
func Plus(a *Automaton) *Automaton {
	out := a.DeepCopy()
	wasAccepting := make([]bool, len(out.States))
	for i, s := range out.States {
		wasAccepting[i] = s.IsMatch
	}
	clockReset := make([]int, out.Card.Clocks)
	for i := range clockReset {
		clockReset[i] = i
	}
	for _, state := range out.States {
		for action, ts := range state.Transitions {
			for _, t := range append([]*Transition{}, ts...) {
				if !wasAccepting[t.Target] {
					continue
				}
				for _, init := range out.Initial {
					nt := t.clone()
					nt.Target = init
					nt.ResetVars = append([]int{}, clockReset...)
					state.AddTransition(action, nt)
				}
			}
		}
	}
	return out
}

// Star builds A*: A⁺ plus a fresh accepting initial state with no
// outgoing transitions (so the empty word also matches).
func Star(a *Automaton) *Automaton {
	out := Plus(a)
	idx := out.AddState(&State{IsMatch: true, Transitions: make(map[Action][]*Transition)})
	out.AddInitial(idx)
	return out
}

// EmptyOr builds ε|A: a fresh accepting initial state with no outgoing
// transitions, alongside A's own initial states.
func EmptyOr(a *Automaton) *Automaton {
	out := a.DeepCopy()
	idx := out.AddState(&State{IsMatch: true, Transitions: make(map[Action][]*Transition)})
	out.AddInitial(idx)
	return out
}

// lastClockNeverReset reports whether clock index a.Card.Clocks-1 is
// never reset by any transition — the precondition for the
// within/time-restriction optimization of reusing that clock instead
// of allocating a new dimension.
func lastClockNeverReset(a *Automaton) bool {
	if a.Card.Clocks == 0 {
		return false
	}
	last := a.Card.Clocks - 1
	for _, s := range a.States {
		for _, ts := range s.Transitions {
			for _, t := range ts {
				for _, r := range t.ResetVars {
					if r == last {
						return false
					}
				}
			}
		}
	}
	return true
}

// TimeRestriction builds `A within g`: a fresh clock is added (unless
// the optimization of §4.C lets an existing never-reset clock be
// reused), every existing guard is widened to the new dimension, and a
// fresh accepting state is added reachable, on every transition that
// used to enter an old-accepting state, in parallel with that
// transition's original target — guarded by the conjunction of the
// original guard and g. Old accepting states are demoted (and pruned
// if they end up with no outgoing transitions), matching concatenation.
func TimeRestriction(a *Automaton, g ClockGuard) *Automaton {
	out := a.DeepCopy()

	if !lastClockNeverReset(out) {
		out.Card.Clocks++
	}
	dim := out.Card.Params + out.Card.Clocks

	for _, s := range out.States {
		for _, ts := range s.Transitions {
			for i, t := range ts {
				ts[i].Guard = t.Guard.adjustDimension(dim)
			}
		}
	}
	g = g.adjustDimension(dim)

	wasAccepting := make([]bool, len(out.States))
	for i, s := range out.States {
		wasAccepting[i] = s.IsMatch
	}

	newState := &State{IsMatch: true, Transitions: make(map[Action][]*Transition)}
	newIdx := out.AddState(newState)

	for _, s := range out.States[:newIdx] {
		for action, ts := range s.Transitions {
			for _, t := range append([]*Transition{}, ts...) {
				if !wasAccepting[t.Target] {
					continue
				}
				nt := t.clone()
				nt.Target = newIdx
				nt.Guard = nt.Guard.conjoin(g)
				s.AddTransition(action, nt)
			}
		}
	}

	remove := map[int]bool{}
	for i := 0; i < newIdx; i++ {
		if !wasAccepting[i] {
			continue
		}
		if len(out.States[i].Transitions) == 0 {
			remove[i] = true
		} else {
			out.States[i].IsMatch = false
		}
	}
	return pruneStates(out, remove)
}

// IgnoreActions builds `A ignoring L`: an unconditional, no-update,
// no-reset self-loop is added on every action in L at every state.
func IgnoreActions(a *Automaton, actions []Action) *Automaton {
	out := a.DeepCopy()
	for idx, s := range out.States {
		for _, action := range actions {
			s.AddTransition(action, &Transition{Target: idx, Guard: TrueGuard()})
		}
	}
	return out
}

// pruneStates removes the states whose index is in remove, rewriting
// every transition target and the initial-state list to the
// compacted index space. Transitions whose target is a removed state
// are dropped, and an action left with no transitions is deleted from
// its state's map.
func pruneStates(a *Automaton, remove map[int]bool) *Automaton {
	if len(remove) == 0 {
		return a
	}
	newIndex := make([]int, len(a.States))
	states := make([]*State, 0, len(a.States)-len(remove))
	for i, s := range a.States {
		if remove[i] {
			newIndex[i] = -1
			continue
		}
		newIndex[i] = len(states)
		states = append(states, s)
	}
	for _, s := range states {
		for action, ts := range s.Transitions {
			kept := ts[:0]
			for _, t := range ts {
				if ni := newIndex[t.Target]; ni >= 0 {
					t.Target = ni
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(s.Transitions, action)
			} else {
				s.Transitions[action] = kept
			}
		}
	}
	out := &Automaton{Card: a.Card, Params: a.Params, States: states}
	for _, i := range a.Initial {
		if ni := newIndex[i]; ni >= 0 {
			out.Initial = append(out.Initial, ni)
		}
	}
	return out
}
