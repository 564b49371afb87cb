package store

import (
	"sort"
	"strings"
	"sync"
)

// KeyIndex is the in-memory mapping from key bytes to the byte offset
// of that key's latest live SET record in the log. It carries no
// durability and no knowledge of the log file; the Engine is solely
// responsible for keeping it consistent with what has actually been
// appended.
//
// Keys are compared as raw byte sequences: no trimming, case-folding,
// or encoding interpretation. Iteration order is unspecified; callers
// MUST NOT depend on it.
type KeyIndex struct {
	mu      sync.RWMutex
	offsets map[string]int64
}

// NewKeyIndex creates an empty index.
func NewKeyIndex() *KeyIndex {
	return &KeyIndex{offsets: make(map[string]int64)}
}

// Has reports whether key currently has a live entry.
func (idx *KeyIndex) Has(key []byte) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.offsets[string(key)]
	return ok
}

// Set inserts or overwrites the entry for key. Last-write-wins; never
// fails.
func (idx *KeyIndex) Set(key []byte, offset int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.offsets[string(key)] = offset
}

// Get returns the stored offset for key, failing with
// *KeyNotFoundError if no live entry exists.
func (idx *KeyIndex) Get(key []byte) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	offset, ok := idx.offsets[string(key)]
	if !ok {
		return 0, &KeyNotFoundError{Key: append([]byte(nil), key...)}
	}
	return offset, nil
}

// Delete removes the entry for key if present. Idempotent: deleting an
// absent key is a silent no-op.
func (idx *KeyIndex) Delete(key []byte) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.offsets, string(key))
}

// Len returns the number of live keys.
func (idx *KeyIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.offsets)
}

// Reset discards all entries, returning the index to its just-created
// state. Used by the engine before a recovery scan rebuilds it.
func (idx *KeyIndex) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.offsets = make(map[string]int64)
}

// KeysWithPrefix returns every live key beginning with prefix, sorted
// for deterministic output. This is a linear scan over the in-memory
// index, not a secondary index or range scan over values.
func (idx *KeyIndex) KeysWithPrefix(prefix string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var keys []string
	for k := range idx.offsets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ScanPrefix streams every live key beginning with prefix over a
// channel, closing it once all matching keys (as of the call) have
// been sent. The matching keys are collected and sorted by
// KeysWithPrefix before the first one is sent.
func (idx *KeyIndex) ScanPrefix(prefix string) <-chan string {
	out := make(chan string, 64)
	keys := idx.KeysWithPrefix(prefix)
	go func() {
		defer close(out)
		for _, k := range keys {
			out <- k
		}
	}()
	return out
}
