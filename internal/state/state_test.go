package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("novel", "Shadow Slave!", time.Unix(1700000000, 0))
	assert.Equal(t, "novel_Shadow_Slave__1700000000", id)
}

func TestWriteReadOverwrites(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Write(&State{ID: "a", Status: Downloading, Progress: 40}))
	require.NoError(t, s.Write(&State{ID: "a", Status: Complete, Progress: 100}))

	got, err := s.Read("a")
	require.NoError(t, err)
	assert.Equal(t, Complete, got.Status)
	assert.True(t, got.IsComplete)
	assert.False(t, got.IsPaused)
	assert.Equal(t, int64(1700000000), got.LastUpdate)
	assert.FileExists(t, filepath.Join(s.Dir(), "state_a.json"))
}

func TestReadMissing(t *testing.T) {
	_, err := newStore(t).Read("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSortsNewestFirstAndSkipsJunk(t *testing.T) {
	s := newStore(t)

	s.now = func() time.Time { return time.Unix(100, 0) }
	require.NoError(t, s.Write(&State{ID: "old"}))
	s.now = func() time.Time { return time.Unix(200, 0) }
	require.NoError(t, s.Write(&State{ID: "new"}))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "state_bad.json"), []byte("{"), 0o644))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}

func TestListMissingDir(t *testing.T) {
	list, err := NewStore(filepath.Join(t.TempDir(), "missing")).List()
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestSignals(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, None, s.Signal("x"))

	require.NoError(t, s.RequestPause("x"))
	assert.Equal(t, Pause, s.Signal("x"))
	assert.FileExists(t, filepath.Join(s.Dir(), ".pause_x"))

	require.NoError(t, s.RequestStop("x"))
	assert.Equal(t, Cancel, s.Signal("x"))

	require.NoError(t, s.Clear("x"))
	assert.Equal(t, None, s.Signal("x"))

	require.NoError(t, s.RequestCancel("x"))
	assert.Equal(t, Cancel, s.Signal("x"))
	require.NoError(t, s.RequestResume("x"))
	assert.Equal(t, Cancel, s.Signal("x"))
}

func TestResumeWithoutPauseIsNoop(t *testing.T) {
	assert.NoError(t, newStore(t).RequestResume("x"))
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(&State{ID: "a"}))
	require.NoError(t, s.RequestPause("a"))

	require.NoError(t, s.Delete("a"))
	_, err := s.Read("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, None, s.Signal("a"))
}

func TestTerminal(t *testing.T) {
	assert.True(t, Partial.Terminal())
	assert.False(t, Paused.Terminal())
}

func TestClearStopKeepsPauseAndCancel(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.RequestStop("x"))
	require.NoError(t, s.ClearStop("x"))
	assert.Equal(t, None, s.Signal("x"))

	require.NoError(t, s.RequestPause("x"))
	require.NoError(t, s.ClearStop("x"))
	assert.Equal(t, Pause, s.Signal("x"))

	require.NoError(t, s.RequestCancel("x"))
	require.NoError(t, s.ClearStop("x"))
	assert.Equal(t, Cancel, s.Signal("x"))
}

func TestIDsMustStayInsideTheStore(t *testing.T) {
	s := newStore(t)

	for _, id := range []string{"", ".", "..", "../x", `a\b`, "a/b"} {
		assert.ErrorIs(t, s.Write(&State{ID: id}), ErrInvalidID, id)
		_, err := s.Read(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, s.RequestPause(id), ErrInvalidID, id)
		assert.Equal(t, None, s.Signal(id), id)
	}

	assert.NoFileExists(t, filepath.Join(filepath.Dir(s.Dir()), "state_x.json"))
	assert.NoError(t, CheckID("novel_Shadow_Slave_1700000000"))
}
