package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symon-run/symon/pkg/symon"
)

func TestLoadAssignsActionIDsByOrderOfAppearance(t *testing.T) {
	sig, err := Load(strings.NewReader("login 1 0\nlogout 0 0\ndeposit 1 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, sig.Len())

	id, ok := sig.ActionID("login")
	require.True(t, ok)
	assert.Equal(t, symon.Action(0), id)

	id, ok = sig.ActionID("deposit")
	require.True(t, ok)
	assert.Equal(t, symon.Action(2), id)
}

func TestLoadSkipsBlankLinesAndComments(t *testing.T) {
	sig, err := Load(strings.NewReader("# a comment\n\nlogin 1 0\n\n# trailing\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Len())
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(strings.NewReader("login 1\n"))
	assert.Error(t, err)
}

func TestLoadRejectsNonIntegerArity(t *testing.T) {
	_, err := Load(strings.NewReader("login one 0\n"))
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateDeclaration(t *testing.T) {
	_, err := Load(strings.NewReader("login 1 0\nlogin 0 0\n"))
	assert.Error(t, err)
}

func TestDeclareAndEntry(t *testing.T) {
	sig := New()
	require.NoError(t, sig.Declare("withdraw", 1, 1))
	id, ok := sig.ActionID("withdraw")
	require.True(t, ok)

	entry, ok := sig.Entry(id)
	require.True(t, ok)
	assert.Equal(t, "withdraw", entry.Name)
	assert.Equal(t, 1, entry.StringArity)
	assert.Equal(t, 1, entry.NumberArity)
}

func TestActionIDUnknownNameReturnsFalse(t *testing.T) {
	sig := New()
	id, ok := sig.ActionID("nope")
	assert.False(t, ok)
	assert.Equal(t, symon.ActionNone, id)
}

func TestEntryOutOfRangeReturnsFalse(t *testing.T) {
	sig := New()
	_, ok := sig.Entry(symon.Action(5))
	assert.False(t, ok)
}
