// Package printer formats a symon.Match into the one-line-per-match
// textual report of §6, with one Printer implementation per operating
// mode: Boolean mode prints the concrete string and number values,
// data-parametric mode prints the symbolic string slots and the number
// polyhedron, and fully parametric mode prints the symbolic string
// slots, the number polyhedron and the clock polyhedron.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/symon-run/symon/pkg/symon"
)

// Printer renders one Match as a line of text.
type Printer interface {
	Print(w io.Writer, m symon.Match) error
}

// New returns the Printer appropriate for mode.
func New(mode symon.Mode) Printer {
	switch mode {
	case symon.Boolean:
		return concretePrinter{}
	case symon.DataParametric:
		return symbolicPrinter{}
	case symon.FullyParametric:
		return parametricPrinter{}
	default:
		return concretePrinter{}
	}
}

// header renders the "@<timestamp>.\t(time-point <index>)\t" preamble
// common to all three printers.
func header(m symon.Match) string {
	return fmt.Sprintf("@%s.\t(time-point %d)\t", m.Timestamp.String(), m.Index)
}

// stringsFieldConcrete renders a Boolean-mode string valuation: one
// "xi == value" per bound slot, unbound slots omitted entirely.
func stringsFieldConcrete(sv symon.StringValuation) string {
	var b strings.Builder
	for i, s := range sv {
		if s.Value == nil {
			continue
		}
		fmt.Fprintf(&b, "x%d == %s\t", i, *s.Value)
	}
	return b.String()
}

// stringsFieldSymbolic renders a data-parametric/fully-parametric
// string valuation: every slot is either a bound literal ("xi ==
// value") or an exclusion set ("xi != {v1, v2}"), since the symbolic
// domain always has one variant or the other active.
func stringsFieldSymbolic(sv symon.StringValuation) string {
	var b strings.Builder
	for i, s := range sv {
		if s.Value != nil {
			fmt.Fprintf(&b, "x%d == %s\t", i, *s.Value)
			continue
		}
		excluded := make([]string, 0, len(s.Excluded))
		for lit := range s.Excluded {
			excluded = append(excluded, lit)
		}
		fmt.Fprintf(&b, "x%d != {%s}\t", i, strings.Join(excluded, ", "))
	}
	return b.String()
}

type concretePrinter struct{}

func (concretePrinter) Print(w io.Writer, m symon.Match) error {
	var b strings.Builder
	for i, n := range m.Numbers {
		if n == nil {
			fmt.Fprintf(&b, "x%d == ?\t", i)
			continue
		}
		fmt.Fprintf(&b, "x%d == %s\t", i, n.String())
	}
	_, err := fmt.Fprintf(w, "%s%s%s\n", header(m), stringsFieldConcrete(m.Strings), b.String())
	return err
}

type symbolicPrinter struct{}

func (symbolicPrinter) Print(w io.Writer, m symon.Match) error {
	_, err := fmt.Fprintf(w, "%s%s%s\n", header(m), stringsFieldSymbolic(m.Strings), PolyhedronString(m.NumberPoly))
	return err
}

type parametricPrinter struct{}

func (parametricPrinter) Print(w io.Writer, m symon.Match) error {
	_, err := fmt.Fprintf(w, "%s%sNum: %s\tClock: %s\n", header(m), stringsFieldSymbolic(m.Strings), PolyhedronString(m.NumberPoly), PolyhedronString(m.ClockPoly))
	return err
}

// PolyhedronString renders p's inequalities in the usual
// "c0*x0 + c1*x1 + ... + const <= 0" linear-algebra form, one per
// conjunct, joined with " && ". The empty (unconstrained universe)
// polyhedron renders as "true".
func PolyhedronString(p symon.Polyhedron) string {
	if len(p.Ineqs) == 0 {
		return "true"
	}
	parts := make([]string, len(p.Ineqs))
	for i, in := range p.Ineqs {
		var b strings.Builder
		first := true
		for j, c := range in.Coeffs {
			if c.IsZero() {
				continue
			}
			if !first {
				b.WriteString(" + ")
			}
			first = false
			fmt.Fprintf(&b, "%s*x%d", c.String(), j)
		}
		if first {
			b.WriteString("0")
		}
		op := "<= 0"
		if in.Strict {
			op = "< 0"
		}
		fmt.Fprintf(&b, " + %s %s", in.Const.String(), op)
		parts[i] = b.String()
	}
	return strings.Join(parts, " && ")
}
