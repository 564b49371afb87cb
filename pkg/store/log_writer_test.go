package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberdb/emberdb/pkg/codec"
)

func TestLogWriter_AppendReportsOffsetAndGrowsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")

	w, err := NewLogWriter(EngineConfig{FilePath: path})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, int64(0), w.Size())

	off1, err := w.Append(&codec.Record{Operation: codec.OpSet, Key: []byte("k1"), Value: []byte("v1")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), off1)

	size1 := w.Size()
	off2, err := w.Append(&codec.Record{Operation: codec.OpSet, Key: []byte("k2"), Value: []byte("v2")})
	require.NoError(t, err)
	assert.Equal(t, size1, off2)
	assert.Greater(t, w.Size(), size1, "Size did not grow monotonically")
}

func TestLogWriter_ReopenAppendsAtExistingEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")

	w1, err := NewLogWriter(EngineConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w1.Append(&codec.Record{Operation: codec.OpSet, Key: []byte("k"), Value: []byte("v")})
	require.NoError(t, err)
	sizeAfterFirst := w1.Size()
	require.NoError(t, w1.Close())

	w2, err := NewLogWriter(EngineConfig{FilePath: path})
	require.NoError(t, err)
	defer w2.Close()

	require.Equal(t, sizeAfterFirst, w2.Size())

	off, err := w2.Append(&codec.Record{Operation: codec.OpSet, Key: []byte("k2"), Value: []byte("v2")})
	require.NoError(t, err)
	assert.Equal(t, sizeAfterFirst, off, "Append after reopen should land at end of prior file")
}

func TestLogWriter_TouchesEmptyFileOnFirstOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "active.log")

	w, err := NewLogWriter(EngineConfig{FilePath: path})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, int64(0), w.Size())
}
