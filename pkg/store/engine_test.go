package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEngine(t *testing.T, path string) *Engine {
	t.Helper()
	e := NewEngine(EngineConfig{FilePath: path})
	_, err := e.Open()
	require.NoError(t, err)
	return e
}

func TestEngine_SetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("key1"), []byte("value1")))
	require.NoError(t, e.Set([]byte("key2"), []byte("value2")))

	got, err := e.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), got)

	got, err = e.Get([]byte("key2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), got)
}

func TestEngine_UpdateIsLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("v1")))
	sizeAfterFirst := e.Stats().DataSize
	require.NoError(t, e.Set([]byte("k"), []byte("v2")))

	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
	assert.Greater(t, e.Stats().DataSize, sizeAfterFirst)
}

func TestEngine_DeleteThenGetFailsKeyNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("v")))
	require.NoError(t, e.Delete([]byte("k")))

	_, err := e.Get([]byte("k"))
	var notFound *KeyNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEngine_DeleteThenSetRevives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("v1")))
	require.NoError(t, e.Delete([]byte("k")))
	require.NoError(t, e.Set([]byte("k"), []byte("v2")))

	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestEngine_DeleteOnAbsentKeyIsNoOpAndDoesNotGrowFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	sizeBefore := e.Stats().DataSize
	require.NoError(t, e.Delete([]byte("never-set")))
	assert.Equal(t, sizeBefore, e.Stats().DataSize)
}

func TestEngine_PersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")

	e1 := openEngine(t, path)
	require.NoError(t, e1.Set([]byte("a"), []byte("1")))
	require.NoError(t, e1.Set([]byte("b"), []byte("2")))
	require.NoError(t, e1.Delete([]byte("a")))
	require.NoError(t, e1.Close())

	e2 := openEngine(t, path)
	defer e2.Close()

	_, err := e2.Get([]byte("a"))
	var notFound *KeyNotFoundError
	assert.ErrorAs(t, err, &notFound)

	got, err := e2.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestEngine_EmptyKeyAndValueRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte(""), []byte("")))
	got, err := e.Get([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "", string(got))
}

func TestEngine_LargeValueRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	large := bytes.Repeat([]byte{0xAB}, 1_048_576)
	require.NoError(t, e.Set([]byte("k"), large))
	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(got, large))
}

func TestEngine_BinarySafeKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	keys := [][]byte{
		{0x00, 0x01, 0x02},
		{0xFF, 0xFE},
		[]byte("normal-key"),
		append([]byte("prefix"), 0x00, 'x'),
	}
	for i, k := range keys {
		require.NoError(t, e.Set(k, []byte{byte(i)}))
	}
	for i, k := range keys {
		got, err := e.Get(k)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, got)
	}
}

func TestEngine_GetOnEmptyLogFailsKeyNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	_, err := e.Get([]byte("anything"))
	var notFound *KeyNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEngine_ListKeysAndScanPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("user:1"), []byte("alice")))
	require.NoError(t, e.Set([]byte("user:2"), []byte("bob")))
	require.NoError(t, e.Set([]byte("order:1"), []byte("widget")))

	keys := e.ListKeys([]byte("user:"))
	assert.Len(t, keys, 2)

	seen := map[string]string{}
	for kv := range e.ScanPrefix([]byte("user:")) {
		seen[string(kv.Key)] = string(kv.Value)
	}
	if diff := cmp.Diff(map[string]string{"user:1": "alice", "user:2": "bob"}, seen); diff != "" {
		t.Errorf("ScanPrefix mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_OpenTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")
	e := openEngine(t, path)
	defer e.Close()

	require.NoError(t, e.Set([]byte("k"), []byte("v")))

	_, err := e.Open()
	require.NoError(t, err)

	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
