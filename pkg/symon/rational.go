package symon

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational is an arbitrary-precision rational number. It is adapted
// from the teacher's int/int Rational (gokando's
// pkg/minikanren/rational.go): same normalized-fraction API, same
// doc-comment register, but backed by math/big so that clock bounds,
// parameter thresholds and event timestamps parsed from input files
// are never truncated to machine-word size.
//
// Rationals are always stored in normalized form (reduced to lowest
// terms, positive denominator) — comparisons and hashing can rely on
// structural equality.
type Rational struct {
	r *big.Rat
}

// NewRational creates a rational number num/den in normalized form.
// Panics if den is zero.
func NewRational(num, den int64) Rational {
	if den == 0 {
		panic("rational: division by zero")
	}
	return Rational{r: big.NewRat(num, den)}
}

// RationalFromInt creates the rational n/1.
func RationalFromInt(n int64) Rational {
	return Rational{r: big.NewRat(n, 1)}
}

// RationalZero is the additive identity.
var RationalZero = RationalFromInt(0)

// ParseRational parses a decimal literal such as "15.5", "-3", or
// "3/4" into a Rational. Returns an error (never a panic) on malformed
// input since this is used to parse untrusted timed-word and
// automaton-file fields.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("rational: empty literal")
	}
	if strings.Contains(s, "/") {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return Rational{}, fmt.Errorf("rational: invalid fraction literal %q", s)
		}
		return Rational{r: r}, nil
	}
	// big.Rat.SetString already accepts decimal literals like "15.5".
	r, ok := new(big.Rat).SetString(s)
	if ok {
		return Rational{r: r}, nil
	}
	// Fall back to float parsing for forms big.Rat rejects (e.g. "1e3").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("rational: invalid numeric literal %q", s)
	}
	return Rational{r: new(big.Rat).SetFloat64(f)}, nil
}

func (r Rational) ensure() *big.Rat {
	if r.r == nil {
		return big.NewRat(0, 1)
	}
	return r.r
}

// Add returns r + other.
func (r Rational) Add(other Rational) Rational {
	return Rational{r: new(big.Rat).Add(r.ensure(), other.ensure())}
}

// Sub returns r - other.
func (r Rational) Sub(other Rational) Rational {
	return Rational{r: new(big.Rat).Sub(r.ensure(), other.ensure())}
}

// Mul returns r * other.
func (r Rational) Mul(other Rational) Rational {
	return Rational{r: new(big.Rat).Mul(r.ensure(), other.ensure())}
}

// Div returns r / other. Panics if other is zero — per §7 of the
// specification, division by zero in rational parsing/arithmetic is a
// fatal numeric-domain error, not a silently-dropped one.
func (r Rational) Div(other Rational) Rational {
	if other.IsZero() {
		panic("rational: division by zero")
	}
	return Rational{r: new(big.Rat).Quo(r.ensure(), other.ensure())}
}

// Neg returns -r.
func (r Rational) Neg() Rational {
	return Rational{r: new(big.Rat).Neg(r.ensure())}
}

// IsZero reports whether r is zero.
func (r Rational) IsZero() bool { return r.ensure().Sign() == 0 }

// IsPositive reports whether r > 0.
func (r Rational) IsPositive() bool { return r.ensure().Sign() > 0 }

// IsNegative reports whether r < 0.
func (r Rational) IsNegative() bool { return r.ensure().Sign() < 0 }

// Cmp returns -1, 0 or +1 as r is less than, equal to, or greater than other.
func (r Rational) Cmp(other Rational) int {
	return r.ensure().Cmp(other.ensure())
}

// Equals reports whether r and other denote the same rational number.
func (r Rational) Equals(other Rational) bool {
	return r.Cmp(other) == 0
}

// ToFloat returns a float64 approximation, for display only.
func (r Rational) ToFloat() float64 {
	f, _ := r.ensure().Float64()
	return f
}

// String renders r as an integer when the denominator is 1, otherwise
// as "num/den".
func (r Rational) String() string {
	rr := r.ensure()
	if rr.IsInt() {
		return rr.Num().String()
	}
	return rr.RatString()
}

// Big exposes the underlying *big.Rat for code (e.g. the polyhedron
// domain) that needs direct access to exact rational arithmetic.
func (r Rational) Big() *big.Rat { return r.ensure() }

// RationalFromBig wraps an existing *big.Rat as a Rational.
func RationalFromBig(r *big.Rat) Rational { return Rational{r: r} }
