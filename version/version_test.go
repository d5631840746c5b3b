package version

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_CreateMonotonic(t *testing.T) {
	l := NewLedger()

	for i := 1; i <= 5; i++ {
		v, err := l.Create("file-1", fmt.Sprintf("hash-%d", i), int64(i*100), "alice", "", "")
		require.NoError(t, err)
		assert.Equal(t, i, v.Number)
		assert.True(t, v.Current)
		assert.NotEmpty(t, v.ID)
	}

	history := l.List("file-1")
	require.Len(t, history, 5)

	currentCount := 0
	for i, v := range history {
		assert.Equal(t, i+1, v.Number)
		if v.Current {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)
	assert.True(t, history[4].Current)
}

func TestLedger_CreateValidation(t *testing.T) {
	l := NewLedger()

	_, err := l.Create("", "hash", 1, "alice", "", "")
	assert.ErrorIs(t, err, ErrEmptyFileID)

	_, err = l.Create("file-1", "", 1, "alice", "", "")
	assert.ErrorIs(t, err, ErrEmptyHash)
}

func TestLedger_Current(t *testing.T) {
	l := NewLedger()

	assert.Nil(t, l.Current("missing"))

	_, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)
	v2, err := l.Create("file-1", "h2", 20, "bob", "", "")
	require.NoError(t, err)

	cur := l.Current("file-1")
	require.NotNil(t, cur)
	assert.Equal(t, v2.ID, cur.ID)
	assert.Equal(t, "h2", cur.Hash)
}

func TestLedger_Restore(t *testing.T) {
	l := NewLedger()

	v1, err := l.Create("file-1", "h1", 10, "alice", "Initial upload", "ref-1")
	require.NoError(t, err)
	_, err = l.Create("file-1", "h2", 20, "alice", "", "ref-2")
	require.NoError(t, err)

	restored, err := l.Restore("file-1", v1.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, 3, restored.Number)
	assert.Equal(t, "h1", restored.Hash)
	assert.Equal(t, int64(10), restored.Size)
	assert.Equal(t, "ref-1", restored.LedgerRef)
	assert.Equal(t, "bob", restored.ChangedBy)
	assert.Equal(t, "Restored from version 1", restored.Description)
	assert.True(t, restored.Current)

	// History is append-only: v1 and v2 are untouched.
	history := l.List("file-1")
	require.Len(t, history, 3)
	assert.Equal(t, "h1", history[0].Hash)
	assert.Equal(t, "h2", history[1].Hash)
	assert.False(t, history[0].Current)
	assert.False(t, history[1].Current)
}

func TestLedger_RestoreTwice(t *testing.T) {
	l := NewLedger()

	v1, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)
	_, err = l.Create("file-1", "h2", 20, "alice", "", "")
	require.NoError(t, err)

	r1, err := l.Restore("file-1", v1.ID, "alice")
	require.NoError(t, err)
	r2, err := l.Restore("file-1", v1.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, 3, r1.Number)
	assert.Equal(t, 4, r2.Number)
	assert.Equal(t, "h1", r1.Hash)
	assert.Equal(t, "h1", r2.Hash)
	assert.Len(t, l.List("file-1"), 4)
}

func TestLedger_RestoreNotFound(t *testing.T) {
	l := NewLedger()

	_, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)

	_, err = l.Restore("file-1", "no-such-version", "alice")
	assert.ErrorIs(t, err, ErrVersionNotFound)

	// A version id from another file is not visible.
	other, err := l.Create("file-2", "h9", 10, "alice", "", "")
	require.NoError(t, err)
	_, err = l.Restore("file-1", other.ID, "alice")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestLedger_Drop(t *testing.T) {
	l := NewLedger()

	_, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)

	l.Drop("file-1")
	assert.Empty(t, l.List("file-1"))
	assert.Nil(t, l.Current("file-1"))

	l.Drop("never-existed") // no-op
}

func TestLedger_ExportImport(t *testing.T) {
	l := NewLedger()
	l.SetClock(func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) })

	_, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)
	_, err = l.Create("file-1", "h2", 20, "alice", "", "")
	require.NoError(t, err)
	_, err = l.Create("file-2", "h3", 30, "bob", "", "")
	require.NoError(t, err)

	exported := l.Export()
	require.Len(t, exported, 3)

	fresh := NewLedger()
	fresh.Import(exported)

	assert.Equal(t, l.List("file-1"), fresh.List("file-1"))
	assert.Equal(t, l.List("file-2"), fresh.List("file-2"))

	cur := fresh.Current("file-1")
	require.NotNil(t, cur)
	assert.Equal(t, 2, cur.Number)
}

func TestLedger_ImportSkipsDuplicates(t *testing.T) {
	l := NewLedger()

	v1, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)

	l.Import([]Version{*v1})
	assert.Len(t, l.List("file-1"), 1)
}

func TestLedger_FilesIndependent(t *testing.T) {
	l := NewLedger()

	_, err := l.Create("file-1", "h1", 10, "alice", "", "")
	require.NoError(t, err)
	v, err := l.Create("file-2", "h2", 20, "bob", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, v.Number)
	require.NotNil(t, l.Current("file-1"))
	assert.True(t, l.Current("file-1").Current)
}
