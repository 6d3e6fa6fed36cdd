package symon

// Match is one reported acceptance: the event index and timestamp at
// which an accepting configuration was reached, together with the
// valuation snapshot that witnesses it. Which of the value/polyhedron
// fields is populated mirrors Configuration — see its doc comment.
type Match struct {
	Index      int
	Timestamp  Rational
	Strings    StringValuation
	Numbers    []*Rational
	NumberPoly Polyhedron
	ClockPoly  Polyhedron
	// Epsilon marks a match reached purely through unobservable
	// transitions (during ε-closure or the final, end-of-input
	// closure), rather than by consuming the event at Index.
	Epsilon bool
}
