package symon

// State is one node of a timed data automaton. States are owned
// collectively by their Automaton: they live in the Automaton's states
// slice and are referenced elsewhere only by index (see Transition.Target
// and the index-space rationale in automaton.go).
type State struct {
	// IsMatch marks an accepting configuration: state.IsMatch == true.
	IsMatch bool

	// Transitions maps an action to the (possibly several —
	// nondeterminism is permitted) outgoing transitions on that action.
	Transitions map[Action][]*Transition
}

// NewState returns an empty, non-accepting state with no outgoing transitions.
func NewState() *State {
	return &State{Transitions: make(map[Action][]*Transition)}
}

// AddTransition appends t to the list of outgoing transitions on t's action.
func (s *State) AddTransition(action Action, t *Transition) {
	s.Transitions[action] = append(s.Transitions[action], t)
}

// clone returns a structural copy of s with an empty transition list;
// the caller (Automaton.DeepCopy) is responsible for rewriting and
// attaching transitions once the full state index is known, since
// transitions reference other states by index.
func (s *State) clone() *State {
	return &State{IsMatch: s.IsMatch, Transitions: make(map[Action][]*Transition)}
}

// Transition is one edge of a timed data automaton: it carries string
// and number constraint vectors, an update, clocks to reset, a timing
// guard, and a target state reached by index rather than by pointer
// (states are owned by the Automaton; indices are always valid for the
// Automaton that owns the transition — see deep-copy invariant in
// automaton.go).
type Transition struct {
	StringConstraints []StringConstraint
	NumberConstraints []NumberConstraint
	Update            Update
	ResetVars         []int
	Guard             ClockGuard
	Target            int
}

// clone returns a structural copy of t. Constraint/update slices are
// copied defensively since constraint evaluation mutates working
// copies of valuations, never the transition's own template data, but
// a deep-copied automaton must not alias the original's slices either.
func (t *Transition) clone() *Transition {
	nt := &Transition{
		Target: t.Target,
		Guard:  t.Guard.clone(),
	}
	nt.StringConstraints = append(nt.StringConstraints, t.StringConstraints...)
	nt.NumberConstraints = append(nt.NumberConstraints, t.NumberConstraints...)
	nt.ResetVars = append(nt.ResetVars, t.ResetVars...)
	nt.Update = t.Update.clone()
	return nt
}
