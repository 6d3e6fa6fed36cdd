package lowparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/symon"
)

func TestParseGuardAtomsConjunction(t *testing.T) {
	atoms, err := parseGuardAtoms("x0 > 5 && x1 <= 10")
	require.NoError(t, err)
	require.Len(t, atoms, 2)
	assert.Equal(t, 0, atoms[0].Clock)
	assert.Equal(t, symon.OpGt, atoms[0].Op)
	assert.Equal(t, 1, atoms[1].Clock)
	assert.Equal(t, symon.OpLe, atoms[1].Op)
}

func TestParseGuardAtomsRejectsMalformedClause(t *testing.T) {
	_, err := parseGuardAtoms("x0 > ")
	assert.Error(t, err)
}

func TestParseNumberExprSumAndDifference(t *testing.T) {
	// n0 + 1 - n1, evaluated at n0=5, n1=2, should equal 4.
	expr, err := parseNumberExpr("n0 + 1 - n1")
	require.NoError(t, err)
	env := []*symon.Rational{rptr(5), rptr(2)}

	eq4 := symon.NewNumberConstraint(expr, symon.OpEq, symon.NumLiteral(symon.RationalFromInt(4)))
	assert.True(t, eq4.EvaluateBoolean(env))
	eq5 := symon.NewNumberConstraint(expr, symon.OpEq, symon.NumLiteral(symon.RationalFromInt(5)))
	assert.False(t, eq5.EvaluateBoolean(env))
}

func rptr(n int64) *symon.Rational {
	v := symon.RationalFromInt(n)
	return &v
}

func TestParseNumberConstraintParsesBothSidesAndOp(t *testing.T) {
	c, err := parseNumberConstraint("n0 >= 3")
	require.NoError(t, err)
	assert.True(t, c.EvaluateBoolean([]*symon.Rational{rptr(3)}))
	assert.False(t, c.EvaluateBoolean([]*symon.Rational{rptr(2)}))
}

func TestParseNumberUpdateParsesDestAndExpr(t *testing.T) {
	u, err := parseNumberUpdate("n1 := n0 + 1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Dest)
}

func TestParseNumberUpdateRejectsMissingAssign(t *testing.T) {
	_, err := parseNumberUpdate("n1 n0 + 1")
	assert.Error(t, err)
}

func TestParseStringAtomLiteralAndVariable(t *testing.T) {
	lit, err := parseStringAtom(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, symon.StringAtomLiteral, lit.Kind)
	assert.Equal(t, "hello", lit.Literal)

	v, err := parseStringAtom("s2")
	require.NoError(t, err)
	assert.Equal(t, symon.StringAtomVar, v.Kind)
	assert.Equal(t, 2, v.Var)
}

func TestParseStringConstraintEqAndNeq(t *testing.T) {
	c, err := parseStringConstraint(`s0 == "x"`)
	require.NoError(t, err)
	assert.Equal(t, symon.StringEq, c.Op)

	c2, err := parseStringConstraint("s0 != s1")
	require.NoError(t, err)
	assert.Equal(t, symon.StringNeq, c2.Op)
}

func TestParseStringConstraintRejectsMissingOperator(t *testing.T) {
	_, err := parseStringConstraint("s0 s1")
	assert.Error(t, err)
}

func TestParseStringUpdateParsesDestAndSrc(t *testing.T) {
	u, err := parseStringUpdate(`s0 := "literal"`)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Dest)
	assert.Equal(t, symon.StringAtomLiteral, u.Src.Kind)
}

func TestSplitOnOpPrefersTwoCharacterOperators(t *testing.T) {
	op, tok, rest, err := splitOnOp("n0 <= 5")
	require.NoError(t, err)
	assert.Equal(t, symon.OpLe, op)
	assert.Equal(t, "<=", tok)
	assert.Equal(t, "n0 ", rest[0])
}
