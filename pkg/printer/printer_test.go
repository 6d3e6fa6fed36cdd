package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/symon"
)

func strPtr(s string) *string { return &s }

func TestNewDispatchesByMode(t *testing.T) {
	assert.IsType(t, concretePrinter{}, New(symon.Boolean))
	assert.IsType(t, symbolicPrinter{}, New(symon.DataParametric))
	assert.IsType(t, parametricPrinter{}, New(symon.FullyParametric))
}

func TestConcretePrinterFormatsHeaderAndValuation(t *testing.T) {
	n := symon.RationalFromInt(7)
	m := symon.Match{
		Index:     3,
		Timestamp: symon.RationalFromInt(12),
		Strings:   symon.StringValuation{{Value: strPtr("alice")}},
		Numbers:   []*symon.Rational{&n, nil},
	}
	var buf bytes.Buffer
	require.NoError(t, New(symon.Boolean).Print(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "@12.\t(time-point 3)\t")
	assert.Contains(t, out, "x0 == alice")
	assert.Contains(t, out, "x0 == 7")
	assert.Contains(t, out, "x1 == ?")
}

func TestConcretePrinterOmitsUnboundStringSlots(t *testing.T) {
	m := symon.Match{Strings: symon.StringValuation{{}}}
	var buf bytes.Buffer
	require.NoError(t, New(symon.Boolean).Print(&buf, m))
	assert.NotContains(t, buf.String(), "x0 ==")
	assert.NotContains(t, buf.String(), "x0 !=")
}

func TestSymbolicPrinterRendersExclusionSetAndNumberPolyhedron(t *testing.T) {
	p := symon.Polyhedron{Dim: 1, Ineqs: []symon.Ineq{{Coeffs: []symon.Rational{symon.RationalFromInt(1)}, Const: symon.RationalFromInt(-5)}}}
	m := symon.Match{
		Strings:    symon.StringValuation{{Excluded: map[string]struct{}{"bob": {}}}},
		NumberPoly: p,
	}
	var buf bytes.Buffer
	require.NoError(t, New(symon.DataParametric).Print(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "x0 != {bob}")
	assert.Contains(t, out, "1*x0")
}

func TestSymbolicPrinterRendersBoundStringSlot(t *testing.T) {
	m := symon.Match{Strings: symon.StringValuation{{Value: strPtr("carol")}}}
	var buf bytes.Buffer
	require.NoError(t, New(symon.DataParametric).Print(&buf, m))
	assert.Contains(t, buf.String(), "x0 == carol")
}

func TestParametricPrinterRendersNumAndClockLabels(t *testing.T) {
	m := symon.Match{}
	var buf bytes.Buffer
	require.NoError(t, New(symon.FullyParametric).Print(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "Num: true")
	assert.Contains(t, out, "Clock: true")
}

func TestPolyhedronStringEmptyIsTrue(t *testing.T) {
	assert.Equal(t, "true", PolyhedronString(symon.Polyhedron{}))
}

func TestPolyhedronStringMultipleIneqsJoinedWithAnd(t *testing.T) {
	p := symon.Polyhedron{
		Dim: 1,
		Ineqs: []symon.Ineq{
			{Coeffs: []symon.Rational{symon.RationalFromInt(1)}, Const: symon.RationalFromInt(-5)},
			{Coeffs: []symon.Rational{symon.RationalFromInt(-1)}, Const: symon.RationalZero, Strict: true},
		},
	}
	s := PolyhedronString(p)
	assert.Contains(t, s, "&&")
	assert.Contains(t, s, "< 0")
	assert.Contains(t, s, "<= 0")
}
