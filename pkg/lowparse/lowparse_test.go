package lowparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/signature"
	"github.com/symon-run/symon/pkg/symon"
)

func testSig(t *testing.T) *signature.Signature {
	t.Helper()
	sig := signature.New()
	require.NoError(t, sig.Declare("a", 0, 0))
	require.NoError(t, sig.Declare("b", 0, 0))
	return sig
}

const sampleHCL = `
automaton {
  clock_variable_size = 1

  state "s0" {
    initial = true
  }
  state "s1" {
    match = true
  }

  edge {
    from   = "s0"
    to     = "s1"
    action = "a"
    guard  = "x0 <= 5"
    reset  = [0]
  }
}
`

func TestParseBuildsAutomatonFromHCL(t *testing.T) {
	sig := testSig(t)
	a, err := Parse(strings.NewReader(sampleHCL), "sample.hcl", sig)
	require.NoError(t, err)

	require.Len(t, a.States, 2)
	require.Equal(t, []int{0}, a.Initial)
	assert.True(t, a.IsMatch(1))

	actionA, _ := sig.ActionID("a")
	ts := a.TransitionsOn(0, actionA)
	require.Len(t, ts, 1)
	assert.Equal(t, 1, ts[0].Target)
	assert.Equal(t, []int{0}, ts[0].ResetVars)
	assert.True(t, ts[0].Guard.EvaluateConcrete([]symon.Rational{symon.RationalFromInt(5)}))
	assert.False(t, ts[0].Guard.EvaluateConcrete([]symon.Rational{symon.RationalFromInt(6)}))
}

func TestParseRejectsEdgeToUnknownState(t *testing.T) {
	sig := testSig(t)
	bad := `
automaton {
  state "s0" {
    initial = true
  }
  edge {
    from   = "s0"
    to     = "nope"
    action = "a"
  }
}
`
	_, err := Parse(strings.NewReader(bad), "bad.hcl", sig)
	assert.Error(t, err)
}

func TestParseRejectsUndeclaredAction(t *testing.T) {
	sig := testSig(t)
	bad := `
automaton {
  state "s0" {
    initial = true
    match   = true
  }
  edge {
    from   = "s0"
    to     = "s0"
    action = "nope"
  }
}
`
	_, err := Parse(strings.NewReader(bad), "bad.hcl", sig)
	assert.Error(t, err)
}

func TestParseRejectsMalformedHCL(t *testing.T) {
	sig := testSig(t)
	_, err := Parse(strings.NewReader("not { valid hcl"), "broken.hcl", sig)
	assert.Error(t, err)
}

func TestParseWithStringAndNumberConstraintsAndUpdates(t *testing.T) {
	sig := testSig(t)
	src := `
automaton {
  string_variable_size = 1
  number_variable_size = 1

  state "s0" { initial = true }
  state "s1" { match = true }

  edge {
    from = "s0"
    to   = "s1"
    action = "a"
    string_constraints = ["s0 == \"ok\""]
    number_constraints  = ["n0 >= 1"]
    update_numbers      = ["n0 := n0 + 1"]
    update_strings      = ["s0 := \"done\""]
  }
}
`
	a, err := Parse(strings.NewReader(src), "upd.hcl", sig)
	require.NoError(t, err)
	actionA, _ := sig.ActionID("a")
	ts := a.TransitionsOn(0, actionA)
	require.Len(t, ts, 1)
	require.Len(t, ts[0].StringConstraints, 1)
	require.Len(t, ts[0].NumberConstraints, 1)
	require.Len(t, ts[0].Update.NumberUpdate, 1)
	require.Len(t, ts[0].Update.StringUpdate, 1)
}
