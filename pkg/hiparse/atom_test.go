package hiparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/symon"
)

func TestParseEventAtomRejectsUndeclaredAction(t *testing.T) {
	src := `
signature { a(0,0); }
nope().
`
	_, err := Parse(strings.NewReader(src), symon.Boolean)
	assert.Error(t, err)
}

func TestParseEventAtomBindsStringAndNumberPlaceholders(t *testing.T) {
	src := `
variables { strings = 1; numbers = 1; }
signature { login(1,1); }
login(s0 : n0).
`
	res, err := Parse(strings.NewReader(src), symon.Boolean)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("login")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	require.Len(t, ts[0].Update.StringUpdate, 1)
	assert.Equal(t, 0, ts[0].Update.StringUpdate[0].Dest)
	require.Len(t, ts[0].Update.NumberUpdate, 1)
	assert.Equal(t, 0, ts[0].Update.NumberUpdate[0].Dest)
}

func TestParseEventAtomUnderscorePlaceholderSkipsBinding(t *testing.T) {
	src := `
variables { strings = 1; }
signature { login(1,0); }
login(_).
`
	res, err := Parse(strings.NewReader(src), symon.Boolean)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("login")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	assert.Empty(t, ts[0].Update.StringUpdate)
}

func TestParseEventAtomRejectsTooManyStringBindings(t *testing.T) {
	src := `
variables { strings = 2; }
signature { login(1,0); }
login(s0, s1).
`
	_, err := Parse(strings.NewReader(src), symon.Boolean)
	assert.Error(t, err)
}

func TestParseEventAtomRejectsTooManyNumberBindings(t *testing.T) {
	src := `
variables { numbers = 2; }
signature { tick(0,1); }
tick(: n0, n1).
`
	_, err := Parse(strings.NewReader(src), symon.Boolean)
	assert.Error(t, err)
}

func TestParseEventAtomNumberGuardRewritesBoundDestinationToPayloadSlot(t *testing.T) {
	src := `
variables { numbers = 1; }
signature { tick(0,1); }
tick(: n0 ~ n0 > 3).
`
	res, err := Parse(strings.NewReader(src), symon.Boolean)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("tick")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	require.Len(t, ts[0].NumberConstraints, 1)

	c := ts[0].NumberConstraints[0]
	// "n0" in the guard should resolve to the payload slot (numbers+pos = 1),
	// not the destination slot (0), since the guard inspects the incoming
	// value, not whatever was previously stored at n0.
	_, referencesDest := c.Left.Terms[0]
	assert.False(t, referencesDest)
	_, referencesPayload := c.Left.Terms[1]
	assert.True(t, referencesPayload)
}

func TestParseEventAtomGuardOnUnboundNumberIsNotRewritten(t *testing.T) {
	src := `
variables { numbers = 1; }
signature { tick(0,1); }
tick(: _ ~ n0 > 3).
`
	res, err := Parse(strings.NewReader(src), symon.Boolean)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("tick")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	c := ts[0].NumberConstraints[0]
	_, referencesDest := c.Left.Terms[0]
	assert.True(t, referencesDest)
}

func TestParseEventAtomClockGuardBooleanModeBuildsConcreteGuard(t *testing.T) {
	src := `
signature { tick(0,0); }
tick(){x0 <= 5}.
`
	res, err := Parse(strings.NewReader(src), symon.Boolean)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("tick")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	assert.True(t, ts[0].Guard.EvaluateConcrete([]symon.Rational{symon.RationalFromInt(5)}))
	assert.False(t, ts[0].Guard.EvaluateConcrete([]symon.Rational{symon.RationalFromInt(6)}))
}

func TestParseEventAtomClockGuardFullyParametricBuildsPolyhedralGuard(t *testing.T) {
	src := `
variables { params = 0; }
signature { tick(0,0); }
tick(){x0 <= 5}.
`
	res, err := Parse(strings.NewReader(src), symon.FullyParametric)
	require.NoError(t, err)
	action, ok := res.Signature.ActionID("tick")
	require.True(t, ok)
	ts := res.Automaton.TransitionsOn(0, action)
	require.Len(t, ts, 1)
	require.NotNil(t, ts[0].Guard.Poly)
	assert.False(t, ts[0].Guard.Poly.IsEmpty())
}

func TestVarIndexParsesPrefixedIdentifiers(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{{"n3", 3}, {"s0", 0}, {"p2", 2}, {"x7", 7}} {
		got, err := varIndex(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestVarIndexRejectsMalformedTokens(t *testing.T) {
	_, err := varIndex("n")
	assert.Error(t, err)
	_, err = varIndex("nx")
	assert.Error(t, err)
}

func TestParseClockAtomConjunctionRejectsNonClockReference(t *testing.T) {
	src := `
signature { tick(0,0); }
tick(){n0 <= 5}.
`
	_, err := Parse(strings.NewReader(src), symon.Boolean)
	assert.Error(t, err)
}
