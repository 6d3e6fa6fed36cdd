package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/symon"
)

func TestModeSelectsBooleanByDefault(t *testing.T) {
	assert.Equal(t, symon.Boolean, mode(cli{}))
}

func TestModeSelectsDataParametric(t *testing.T) {
	assert.Equal(t, symon.DataParametric, mode(cli{DataParametric: true}))
}

func TestModeSelectsFullyParametric(t *testing.T) {
	assert.Equal(t, symon.FullyParametric, mode(cli{Parametric: true}))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunRejectsMissingSignatureWhenNotHighLevel(t *testing.T) {
	dir := t.TempDir()
	automaton := writeFile(t, dir, "a.hcl", `
automaton {
  state "s0" {
    initial = true
    match   = true
  }
}
`)
	err := run(cli{Automaton: automaton, Signature: ""})
	assert.Error(t, err)
}

func TestRunEndToEndWithHighLevelAutomatonAndBooleanMode(t *testing.T) {
	dir := t.TempDir()
	automaton := writeFile(t, dir, "a.hl", `
signature { login(0,0); }
login().
`)
	word := writeFile(t, dir, "word.twd", "login 0\n")

	err := run(cli{Automaton: automaton, HighLevel: true, Input: word})
	assert.NoError(t, err)
}

func TestRunEndToEndWithLowLevelAutomatonAndSignatureFiles(t *testing.T) {
	dir := t.TempDir()
	sig := writeFile(t, dir, "sig.txt", "login 0 0\n")
	automaton := writeFile(t, dir, "a.hcl", `
automaton {
  state "s0" {
    initial = true
  }
  state "s1" {
    match = true
  }
  edge {
    from   = "s0"
    to     = "s1"
    action = "login"
  }
}
`)
	word := writeFile(t, dir, "word.twd", "login 0\n")

	err := run(cli{Automaton: automaton, Signature: sig, Input: word})
	assert.NoError(t, err)
}

func TestRunErrorsOnMissingAutomatonFile(t *testing.T) {
	err := run(cli{Automaton: filepath.Join(t.TempDir(), "nope.hcl"), HighLevel: true})
	assert.Error(t, err)
}

type testPrinter struct{}

func (testPrinter) Print(w io.Writer, m symon.Match) error {
	_, err := w.Write([]byte("printed match"))
	return err
}

func TestMatchObserverNotifyWritesFormattedMatch(t *testing.T) {
	var buf bytes.Buffer
	obs := matchObserver{w: &buf, p: testPrinter{}}
	obs.Notify(symon.Match{Index: 1})
	assert.Contains(t, buf.String(), "printed match")
}

func TestDiagnosticsObserverNotifyDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		diagnosticsObserver{}.Notify(symon.Event{Action: 0})
	})
}
