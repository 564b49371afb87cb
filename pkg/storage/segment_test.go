package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentedStore_WriteThenReadSpansSegments(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSegmentedStore(SegmentedStoreConfig{Dir: dir, MaxSegmentSize: 8})
	require.NoError(t, err)
	defer s.Close()

	// Each write is 8 bytes, so every write seals the previous segment
	// and starts a new one.
	_, err = s.Write([]byte("aaaaaaaa"))
	require.NoError(t, err)
	_, err = s.Write([]byte("bbbbbbbb"))
	require.NoError(t, err)
	_, err = s.Write([]byte("cccccccc"))
	require.NoError(t, err)

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 24, size)

	require.NoError(t, s.Seek(0))
	buf := make([]byte, 24)
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, "aaaaaaaabbbbbbbbcccccccc", string(buf))

	assert.Len(t, s.segments, 3)
	assert.True(t, s.segments[0].sealed)
	assert.True(t, s.segments[1].sealed)
	assert.False(t, s.segments[2].sealed)
}

func TestSegmentedStore_CompressedSealedSegmentRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSegmentedStore(SegmentedStoreConfig{Dir: dir, MaxSegmentSize: 4, Compress: true})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write([]byte("wxyz"))
	require.NoError(t, err)
	_, err = s.Write([]byte("1234"))
	require.NoError(t, err)

	require.NoError(t, s.Seek(0))
	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "wxyz", string(buf))
}

func TestSegmentedStore_ReopenReloadsSealedAndActiveSegments(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSegmentedStore(SegmentedStoreConfig{Dir: dir, MaxSegmentSize: 4, Compress: true})
	require.NoError(t, err)

	_, err = s.Write([]byte("seal"))
	require.NoError(t, err)
	_, err = s.Write([]byte("me"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSegmentedStore(SegmentedStoreConfig{Dir: dir, MaxSegmentSize: 4, Compress: true})
	require.NoError(t, err)
	defer s2.Close()

	size, err := s2.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 6, size)

	buf := make([]byte, 6)
	total := 0
	for total < len(buf) {
		n, err := s2.Read(buf[total:])
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, "sealme", string(buf))
}

func TestSegmentedStore_SeekPastEndIsError(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSegmentedStore(SegmentedStoreConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, s.Seek(100))
	_, err = s.Read(make([]byte, 1))
	assert.Error(t, err)
}
