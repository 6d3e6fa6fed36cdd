package timedword

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/signature"
)

func testSignature(t *testing.T) *signature.Signature {
	t.Helper()
	sig, err := signature.Load(strings.NewReader("login 1 0\ntick 0 1\nlogout 0 0\n"))
	require.NoError(t, err)
	return sig
}

func TestScannerParsesStringAndNumberPayloads(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("login alice 0\ntick 42 1.5\n"), sig)

	e1, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, e1.Strings)
	assert.Equal(t, "0", e1.Timestamp.String())

	e2, err := s.Next()
	require.NoError(t, err)
	require.Len(t, e2.Numbers, 1)
	assert.Equal(t, "42", e2.Numbers[0].String())
	assert.Equal(t, "3/2", e2.Timestamp.String())
}

func TestScannerReturnsEOFWhenExhausted(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("logout 0\n"), sig)

	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestScannerSkipsBlankLinesAndComments(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("\n# a comment\nlogout 0\n"), sig)
	e, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "0", e.Timestamp.String())
}

func TestScannerSkipsUndeclaredAction(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("unknownaction 0\nlogout 1\n"), sig)
	e, err := s.Next()
	require.NoError(t, err)
	id, _ := sig.ActionID("logout")
	assert.Equal(t, id, e.Action)
}

func TestScannerRejectsWrongFieldCount(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("login alice extra 0\n"), sig)
	_, err := s.Next()
	assert.Error(t, err)
}

func TestScannerRejectsUnparsableTimestamp(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("logout not-a-number\n"), sig)
	_, err := s.Next()
	assert.Error(t, err)
}

func TestScannerRejectsUnparsableNumberField(t *testing.T) {
	sig := testSignature(t)
	s := New(strings.NewReader("tick notanumber 0\n"), sig)
	_, err := s.Next()
	assert.Error(t, err)
}
