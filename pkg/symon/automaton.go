package symon

// Automaton is a timed data automaton: a pair (states, initial
// states) plus the variable-space cardinalities. States live in a
// single slice owned by the Automaton and are referenced everywhere
// else — Transition.Target, Automaton.Initial — purely by index.
//
// Design Notes §9 observes that transitions may legitimately target
// states that already own them (cycles are essential to Kleene
// plus/star); a weak back-reference is the idiom a garbage-collected
// language without a shared/weak pointer pair would reach for, but Go
// has neither, so this port adopts the index-space model as the
// primary representation rather than as an optimization over
// pointers. It "kills the weak-reference pattern cleanly": an index is
// always valid for the Automaton that owns the Transition holding it
// (the invariant in §3), and deep-copy becomes a flat structural clone
// with no state-identity bookkeeping required.
type Automaton struct {
	States  []*State
	Initial []int
	Card    Cardinalities
	// Params is the parameter-space size; only meaningful in fully
	// parametric mode. Zero in Boolean and data-parametric automata.
	Params int
}

// NewAutomaton returns an empty automaton with the given cardinalities.
func NewAutomaton(card Cardinalities) *Automaton {
	return &Automaton{Card: card, Params: card.Params}
}

// AddState appends s and returns its index.
func (a *Automaton) AddState(s *State) int {
	a.States = append(a.States, s)
	return len(a.States) - 1
}

// AddInitial marks state index i as initial.
func (a *Automaton) AddInitial(i int) {
	a.Initial = append(a.Initial, i)
}

// DeepCopy produces an independent automaton: every state is cloned,
// and every transition is rewritten to target the clone's state
// indices (which, in the index-space representation, are identical to
// the original's — no rewriting is actually required, since indices
// are relative to the owning Automaton rather than to any particular
// backing array. The clone of the backing array is what makes the two
// automata independent: mutating one's States slice, or any cloned
// State/Transition reachable from it, never affects the other).
func (a *Automaton) DeepCopy() *Automaton {
	out := &Automaton{
		Card:    a.Card,
		Params:  a.Params,
		Initial: append([]int{}, a.Initial...),
		States:  make([]*State, len(a.States)),
	}
	for i, s := range a.States {
		ns := s.clone()
		for action, ts := range s.Transitions {
			for _, t := range ts {
				ns.Transitions[action] = append(ns.Transitions[action], t.clone())
			}
		}
		out.States[i] = ns
	}
	return out
}

// IsMatch reports whether state index i is accepting.
func (a *Automaton) IsMatch(i int) bool {
	return a.States[i].IsMatch
}

// TransitionsOn returns the outgoing transitions of state i on action.
func (a *Automaton) TransitionsOn(i int, action Action) []*Transition {
	return a.States[i].Transitions[action]
}

// Actions returns the set of actions with at least one outgoing
// transition from state i — used by product construction to decide
// which actions are jointly enabled.
func (s *State) Actions() []Action {
	out := make([]Action, 0, len(s.Transitions))
	for a := range s.Transitions {
		out = append(out, a)
	}
	return out
}
