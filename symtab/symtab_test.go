package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndLookup(t *testing.T) {
	st := New()
	entry, err := st.Declare("x", "int", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "global", entry.Scope)
	assert.Equal(t, 0, entry.Offset)

	found := st.Lookup("x")
	require.NotNil(t, found)
	assert.Equal(t, "int", found.Type)
}

func TestDeclareOffsetsBumpByTypeSize(t *testing.T) {
	st := New()
	a, _ := st.Declare("a", "int", 1, 1)
	b, _ := st.Declare("b", "float", 2, 1)
	assert.Equal(t, 0, a.Offset)
	assert.Equal(t, 4, b.Offset)
}

func TestDuplicateDeclarationInSameScopeFails(t *testing.T) {
	st := New()
	_, err := st.Declare("x", "int", 1, 1)
	require.NoError(t, err)
	_, err = st.Declare("x", "float", 2, 1)
	assert.Error(t, err)
}

func TestShadowingOuterScopeIsAllowed(t *testing.T) {
	st := New()
	_, err := st.Declare("x", "int", 1, 1)
	require.NoError(t, err)

	st.EnterScope("if_then")
	_, err = st.Declare("x", "bool", 2, 1)
	assert.NoError(t, err)

	found := st.Lookup("x")
	require.NotNil(t, found)
	assert.Equal(t, "bool", found.Type)
}

func TestLookupAfterExitScopeSeesOuterAgain(t *testing.T) {
	st := New()
	st.Declare("x", "int", 1, 1)

	st.EnterScope("if_then")
	st.Declare("x", "bool", 2, 1)
	require.NoError(t, st.ExitScope())

	found := st.Lookup("x")
	require.NotNil(t, found)
	assert.Equal(t, "int", found.Type)
}

func TestExitGlobalScopeFails(t *testing.T) {
	st := New()
	err := st.ExitScope()
	assert.Error(t, err)
}

func TestScopeNamingUsesHintAndCounter(t *testing.T) {
	st := New()
	name1 := st.EnterScope("if_then")
	st.ExitScope()
	name2 := st.EnterScope("if_then")
	assert.NotEqual(t, name1, name2)
}

func TestRecordLineTracksOccurrences(t *testing.T) {
	st := New()
	entry, _ := st.Declare("x", "int", 1, 1)
	entry.RecordLine(5)
	entry.RecordLine(7)
	assert.True(t, entry.Lines[1])
	assert.True(t, entry.Lines[5])
	assert.True(t, entry.Lines[7])
}

func TestLookupUndeclaredReturnsNil(t *testing.T) {
	st := New()
	assert.Nil(t, st.Lookup("nope"))
}

func TestFormatIncludesValue(t *testing.T) {
	st := New()
	entry, _ := st.Declare("x", "int", 1, 1)
	entry.Value = 7
	assert.Contains(t, st.Format(), "value=7")
}
