// Package storage provides file-handle collaborators for the engine's
// log: a narrow interface over a readable+seekable byte source and an
// appendable byte sink, with two concrete backends: a monolithic
// single-file handle and a segmented multi-file handle. Neither
// backend knows anything about records, keys, or the index; they only
// move bytes.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/emberdb/emberdb/pkg/codec"
)

// FileHandle is the file-handle contract named by the engine design: a
// readable+seekable byte source plus an appendable byte sink. Both
// concrete backends in this package satisfy it.
type FileHandle interface {
	codec.ByteSink
	codec.ByteSource
	Seek(offset int64) error
	Size() (int64, error)
	Close() error
}

// MonolithicFile is the simplest FileHandle: a single os.File carrying
// both the write cursor (always the end of file, append-only) and an
// independent read cursor positioned by Seek.
type MonolithicFile struct {
	mu         sync.Mutex
	file       *os.File
	readOffset int64
}

// OpenMonolithicFile opens (creating if absent) the file at path.
func OpenMonolithicFile(path string) (*MonolithicFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return &MonolithicFile{file: f}, nil
}

// Write appends p to the end of the file, regardless of the current
// read cursor.
func (m *MonolithicFile) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Write(p)
}

// Read reads from the current read cursor and advances it.
func (m *MonolithicFile) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.file.ReadAt(p, m.readOffset)
	m.readOffset += int64(n)
	return n, err
}

// Tell reports the current read cursor.
func (m *MonolithicFile) Tell() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readOffset, nil
}

// Seek repositions the read cursor to an absolute offset from the
// start of the file. It never affects where the next Write lands.
func (m *MonolithicFile) Seek(offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readOffset = offset
	return nil
}

// Size reports the file's current length.
func (m *MonolithicFile) Size() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, err := m.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat: %w", err)
	}
	return stat.Size(), nil
}

// Close releases the underlying os.File.
func (m *MonolithicFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
