package symon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atomAutomaton builds the minimal 2-state automaton matching a single
// action with no constraints — the building block the algebra tests
// below compose.
func atomAutomaton(action Action) *Automaton {
	a := NewAutomaton(Cardinalities{})
	a.AddState(NewState())
	a.AddState(&State{IsMatch: true, Transitions: make(map[Action][]*Transition)})
	a.States[0].AddTransition(action, &Transition{Target: 1, Guard: TrueGuard()})
	a.AddInitial(0)
	return a
}

// loopingAutomaton is like atomAutomaton but its accepting state has a
// self-loop on the same action, so continuation operators (Concatenation,
// TimeRestriction) have an outgoing edge to extend rather than a dead end.
func loopingAutomaton(action Action) *Automaton {
	a := atomAutomaton(action)
	a.States[1].AddTransition(action, &Transition{Target: 1, Guard: TrueGuard()})
	return a
}

func TestAutomatonDeepCopyIsIndependent(t *testing.T) {
	a := atomAutomaton(1)
	clone := a.DeepCopy()
	clone.States[0].IsMatch = true
	clone.States[0].Transitions[1][0].Target = 0

	assert.False(t, a.States[0].IsMatch)
	assert.Equal(t, 1, a.States[0].Transitions[1][0].Target)
}

func TestAutomatonIsMatchAndTransitionsOn(t *testing.T) {
	a := atomAutomaton(5)
	assert.False(t, a.IsMatch(0))
	assert.True(t, a.IsMatch(1))
	ts := a.TransitionsOn(0, 5)
	require.Len(t, ts, 1)
	assert.Equal(t, 1, ts[0].Target)
	assert.Empty(t, a.TransitionsOn(0, 6))
}

func TestUnionJuxtaposesStatesAndInitials(t *testing.T) {
	a := atomAutomaton(1)
	b := atomAutomaton(2)
	u := Union(a, b)

	assert.Len(t, u.States, 4)
	assert.Len(t, u.Initial, 2)
	assert.NotEmpty(t, u.TransitionsOn(u.Initial[0], 1))
	assert.NotEmpty(t, u.TransitionsOn(u.Initial[1], 2))
}

func TestUnionDoesNotMutateOperands(t *testing.T) {
	a := atomAutomaton(1)
	b := atomAutomaton(2)
	_ = Union(a, b)
	assert.Len(t, a.States, 2)
	assert.Len(t, b.States, 2)
}

func TestConcatenationChainsAcceptance(t *testing.T) {
	a := loopingAutomaton(1)
	b := atomAutomaton(2)
	cat := Concatenation(a, b)

	s0 := cat.Initial[0]
	require.False(t, cat.IsMatch(s0))
	// s0's edge into A's accepting state comes first; concatenation
	// appends a parallel edge from s0 straight into B's initial state.
	ts := cat.TransitionsOn(s0, 1)
	require.Len(t, ts, 2)
	mid := ts[0].Target
	assert.False(t, cat.IsMatch(mid))

	// mid's original self-loop on action 1 survives alongside a new
	// parallel edge into B's initial state, added by concatenation.
	midTs := cat.TransitionsOn(mid, 1)
	require.Len(t, midTs, 2)
	var intoB int
	found := false
	for _, t := range midTs {
		if t.Target != mid {
			intoB = t.Target
			found = true
		}
	}
	require.True(t, found)
	assert.False(t, cat.IsMatch(intoB))

	ts2 := cat.TransitionsOn(intoB, 2)
	require.Len(t, ts2, 1)
	assert.True(t, cat.IsMatch(ts2[0].Target))
}

func TestPlusAddsLoopBackFromAcceptingStates(t *testing.T) {
	a := atomAutomaton(1)
	plus := Plus(a)
	s0 := plus.Initial[0]
	ts := plus.TransitionsOn(s0, 1)
	// One transition to the (still accepting) state 1, plus one looping
	// back to every initial state (itself, here).
	assert.GreaterOrEqual(t, len(ts), 2)
	assert.True(t, plus.IsMatch(ts[0].Target))
}

func TestStarAcceptsEmptyWord(t *testing.T) {
	a := atomAutomaton(1)
	star := Star(a)
	matchedInitial := false
	for _, i := range star.Initial {
		if star.IsMatch(i) {
			matchedInitial = true
		}
	}
	assert.True(t, matchedInitial)
}

func TestEmptyOrAddsAcceptingInitialState(t *testing.T) {
	a := atomAutomaton(1)
	eo := EmptyOr(a)
	assert.Len(t, eo.Initial, len(a.Initial)+1)
	found := false
	for _, i := range eo.Initial {
		if eo.IsMatch(i) && len(eo.States[i].Transitions) == 0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProductRequiresBothOperandsToFire(t *testing.T) {
	a := atomAutomaton(1)
	b := atomAutomaton(1)
	prod := Product(a, b)

	require.Len(t, prod.Initial, 1)
	s0 := prod.Initial[0]
	ts := prod.TransitionsOn(s0, 1)
	require.Len(t, ts, 1)
	assert.True(t, prod.IsMatch(ts[0].Target))
	// Clocks add: each operand contributes 0 clocks here, but the
	// cardinality bookkeeping must still reflect the sum.
	assert.Equal(t, a.Card.Clocks+b.Card.Clocks, prod.Card.Clocks)
}

func TestProductOnlyFiresWhenBothSidesHaveTheAction(t *testing.T) {
	a := atomAutomaton(1)
	b := atomAutomaton(2)
	prod := Product(a, b)
	s0 := prod.Initial[0]
	assert.Empty(t, prod.TransitionsOn(s0, 1))
	assert.Empty(t, prod.TransitionsOn(s0, 2))
}

func TestIgnoreActionsAddsSelfLoops(t *testing.T) {
	a := atomAutomaton(1)
	ignored := IgnoreActions(a, []Action{9})
	for idx := range ignored.States {
		ts := ignored.TransitionsOn(idx, 9)
		require.Len(t, ts, 1)
		assert.Equal(t, idx, ts[0].Target)
	}
}

func TestTimeRestrictionAddsFreshAcceptingState(t *testing.T) {
	a := loopingAutomaton(1)
	guard := NewConcreteGuard(ClockAtom{Clock: 0, Op: OpLe, Bound: RationalFromInt(5)})
	restricted := TimeRestriction(a, guard)

	// The original accepting state should now be demoted (or pruned).
	assert.Equal(t, 1, restricted.Card.Clocks)
	matchCount := 0
	for _, s := range restricted.States {
		if s.IsMatch {
			matchCount++
		}
	}
	assert.Equal(t, 1, matchCount)
}
