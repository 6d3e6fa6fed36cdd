// Package signature loads the event-signature file that declares,
// once per line, the name and string/number arity of each action a
// monitor's automaton may reference — the same bookkeeping role the
// original implementation's symbol table plays, kept here as a small
// standalone package since both pkg/timedword and pkg/hiparse need it
// independently.
package signature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/symon-run/symon/pkg/symon"
)

// Entry records one declared action's payload shape.
type Entry struct {
	Name          string
	Action        symon.Action
	StringArity   int
	NumberArity   int
}

// Signature maps action names (and, for the timed-word scanner,
// string-arity/number-arity expectations) to the Action ids assigned
// by order of appearance in the file — matching the original's
// first-seen symbol-table assignment.
type Signature struct {
	byName  map[string]int
	entries []Entry
}

// New returns an empty signature — used by callers (tests, hiparse)
// that build one programmatically instead of loading a file.
func New() *Signature {
	return &Signature{byName: make(map[string]int)}
}

// Load reads one "<name> <string-arity> <number-arity>" declaration
// per line from r. Blank lines and lines starting with "#" are
// skipped. Action ids are assigned by order of appearance, starting at 0.
func Load(r io.Reader) (*Signature, error) {
	sig := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("signature: line %d: expected \"name stringArity numberArity\", got %q", lineNo, line)
		}
		sArity, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("signature: line %d: invalid string arity %q: %w", lineNo, fields[1], err)
		}
		nArity, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("signature: line %d: invalid number arity %q: %w", lineNo, fields[2], err)
		}
		if err := sig.Declare(fields[0], sArity, nArity); err != nil {
			return nil, fmt.Errorf("signature: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("signature: reading: %w", err)
	}
	return sig, nil
}

// Declare registers a new action, assigning it the next available id.
func (s *Signature) Declare(name string, stringArity, numberArity int) error {
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("signature: action %q declared twice", name)
	}
	id := len(s.entries)
	s.byName[name] = id
	s.entries = append(s.entries, Entry{
		Name:        name,
		Action:      symon.Action(id),
		StringArity: stringArity,
		NumberArity: numberArity,
	})
	return nil
}

// ActionID resolves a declared action name to its Action id.
func (s *Signature) ActionID(name string) (symon.Action, bool) {
	id, ok := s.byName[name]
	if !ok {
		return symon.ActionNone, false
	}
	return s.entries[id].Action, true
}

// Entry returns the declaration for action id, if any.
func (s *Signature) Entry(a symon.Action) (Entry, bool) {
	if int(a) < 0 || int(a) >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[a], true
}

// Len reports the number of declared actions.
func (s *Signature) Len() int { return len(s.entries) }
