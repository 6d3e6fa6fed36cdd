// Package timedword scans a timed data word from a text source: one
// event per line, "<action> [string payload...] [number payload...]
// <timestamp>", the payload counts fixed by the action's declared
// arity in the accompanying signature. This is a pull-based scanner in
// the teacher's style (gokando's pkg/minikanren readers are built the
// same way: a thin struct wrapping a *bufio.Scanner, a Next method,
// io.EOF as the clean termination signal) rather than a channel or
// iterator-function pipeline.
package timedword

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/symon-run/symon/pkg/signature"
	"github.com/symon-run/symon/pkg/symon"
)

// Scanner reads Events from an underlying text source.
type Scanner struct {
	sig     *signature.Signature
	scanner *bufio.Scanner
	lineNo  int
}

// New returns a Scanner reading lines from r, resolving action names
// against sig.
func New(r io.Reader, sig *signature.Signature) *Scanner {
	return &Scanner{sig: sig, scanner: bufio.NewScanner(r)}
}

// Next returns the next event, or io.EOF once the source is
// exhausted. A line naming an action not present in sig is logged at
// warn level and skipped, per §7 "logged, skip" — it does not surface
// as an error, consuming the caller's retry loop instead.
func (s *Scanner) Next() (symon.Event, error) {
	for s.scanner.Scan() {
		s.lineNo++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		event, ok, err := s.parseLine(line)
		if err != nil {
			return symon.Event{}, fmt.Errorf("timedword: line %d: %w", s.lineNo, err)
		}
		if !ok {
			continue
		}
		return event, nil
	}
	if err := s.scanner.Err(); err != nil {
		return symon.Event{}, fmt.Errorf("timedword: reading: %w", err)
	}
	return symon.Event{}, io.EOF
}

func (s *Scanner) parseLine(line string) (symon.Event, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return symon.Event{}, false, fmt.Errorf("expected \"action ... timestamp\", got %q", line)
	}
	actionName := fields[0]
	action, ok := s.sig.ActionID(actionName)
	if !ok {
		log.Warn().Int("line", s.lineNo).Str("action", actionName).Msg("timed word references undeclared action, skipping")
		return symon.Event{}, false, nil
	}
	entry, _ := s.sig.Entry(action)

	payload := fields[1 : len(fields)-1]
	if len(payload) != entry.StringArity+entry.NumberArity {
		return symon.Event{}, false, fmt.Errorf("action %q expects %d string and %d number fields, got %d fields", actionName, entry.StringArity, entry.NumberArity, len(payload))
	}

	ts, err := symon.ParseRational(fields[len(fields)-1])
	if err != nil {
		return symon.Event{}, false, fmt.Errorf("timestamp: %w", err)
	}

	event := symon.Event{Action: action, Timestamp: ts}
	if entry.StringArity > 0 {
		event.Strings = append([]string{}, payload[:entry.StringArity]...)
	}
	if entry.NumberArity > 0 {
		event.Numbers = make([]symon.Rational, entry.NumberArity)
		for i, tok := range payload[entry.StringArity:] {
			v, err := symon.ParseRational(tok)
			if err != nil {
				return symon.Event{}, false, fmt.Errorf("number field %d: %w", i, err)
			}
			event.Numbers[i] = v
		}
	}
	return event, true, nil
}
