// Package symon implements the core monitoring semantics of a timed
// data automaton: the constraint domains (string, number, clock), the
// automaton model and its algebra (union, product, concatenation,
// Kleene plus/star, empty-or, time-restriction, ignore-actions), and
// the configuration-set monitor that drives all three operating modes
// (Boolean, data-parametric, fully parametric) over an online stream
// of timed-data-word events.
//
// Everything outside this package — surface syntaxes, the CLI driver,
// result printing — is an external collaborator that builds an
// *Automaton and feeds a *Monitor.
package symon
