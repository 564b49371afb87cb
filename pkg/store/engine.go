package store

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/emberdb/emberdb/pkg/codec"
)

// Engine owns a log file path and an index instance, and orchestrates
// pkg/codec against the file-handle collaborators (LogWriter,
// LogReader) to provide the public Set/Get/Delete contract.
//
// Engine is not safe for concurrent mutators; Set and Delete must be
// serialized by the caller. The mutex here only protects Engine's own
// bookkeeping (which writer/reader/index to use) against the engine
// being used from more than one goroutine at once. It does not
// implement any stronger isolation than that single-writer model.
type Engine struct {
	mu     sync.Mutex
	config EngineConfig
	codec  *codec.RecordCodec
	index  *KeyIndex
	writer *LogWriter
	reader *LogReader
	open   bool
}

// NewEngine constructs an unopened Engine bound to config. Call Open
// before Set, Get, or Delete.
func NewEngine(config EngineConfig) *Engine {
	return &Engine{
		config: config,
		codec:  codec.NewRecordCodec(),
		index:  NewKeyIndex(),
	}
}

// Open touches the log file into existence if absent, then performs
// the recovery scan: it reads every record from offset 0, updating the
// index per operation kind by replaying durable history in order. A
// Corrupted record anywhere in the scan fails Open outright; the
// engine never silently truncates a torn tail. See TruncateTornTail
// for the explicit opt-in recovery step.
func (e *Engine) Open() (*RecoveryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return &RecoveryResult{}, nil
	}

	start := time.Now()

	writer, err := NewLogWriter(e.config)
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(e.config.FilePath)
	if err != nil {
		writer.Close()
		return nil, err
	}

	e.index.Reset()

	var validated int64
	for {
		off, _ := reader.Tell()
		rec, decErr := e.codec.Decode(reader)
		if decErr != nil {
			if errors.Is(decErr, codec.ErrNoMoreRecords) {
				break
			}
			reader.Close()
			writer.Close()
			return nil, decErr
		}
		switch rec.Operation {
		case codec.OpSet:
			e.index.Set(rec.Key, off)
		case codec.OpDelete:
			e.index.Delete(rec.Key)
		}
		validated++
	}

	e.writer = writer
	e.reader = reader
	e.open = true

	return &RecoveryResult{
		RecordsValidated: validated,
		FileSizeBefore:   writer.Size(),
		RecoveryTime:     time.Since(start),
	}, nil
}

// Set appends a SET record and updates the index to point at it.
func (e *Engine) Set(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := &codec.Record{Operation: codec.OpSet, Key: key, Value: value}
	offset, err := e.writer.Append(rec)
	if err != nil {
		return err
	}
	e.index.Set(key, offset)
	return nil
}

// Delete appends a DELETE tombstone unless key is already absent, in
// which case it is a silent no-op: no log write, idempotent.
func (e *Engine) Delete(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.index.Has(key) {
		return nil
	}

	rec := &codec.Record{Operation: codec.OpDelete, Key: key}
	if _, err := e.writer.Append(rec); err != nil {
		return err
	}
	e.index.Delete(key)
	return nil
}

// Get looks up key in the index, seeks the reader to the recorded
// offset, and decodes the value there. A mismatch between the index's
// expectation and what is actually on disk self-heals: the stale entry
// is evicted and InvalidOffsetError surfaces.
func (e *Engine) Get(key []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	offset, err := e.index.Get(key)
	if err != nil {
		return nil, err
	}

	rec, err := e.reader.DecodeAt(e.codec, offset)
	if err != nil {
		var invalid *InvalidOffsetError
		if errors.As(err, &invalid) {
			e.index.Delete(key)
		}
		return nil, err
	}

	if rec.Operation != codec.OpSet || string(rec.Key) != string(key) {
		e.index.Delete(key)
		return nil, &InvalidOffsetError{Offset: offset, Reason: "decoded record does not match index expectation"}
	}

	return rec.Value, nil
}

// Has reports whether key currently resolves to a live SET entry in
// the index, without touching the log.
func (e *Engine) Has(key []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Has(key)
}

// Stats reports the engine's current key count and log size.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	size := int64(0)
	if e.writer != nil {
		size = e.writer.Size()
	}
	return Stats{Keys: e.index.Len(), DataSize: size}
}

// ListKeys returns every live key beginning with prefix.
func (e *Engine) ListKeys(prefix []byte) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.KeysWithPrefix(string(prefix))
}

// ScanPrefix streams the live (key, value) pairs beginning with
// prefix, skipping any key that turns out to be stale by the time its
// value is read (e.g. deleted concurrently with the scan starting).
func (e *Engine) ScanPrefix(prefix []byte) <-chan KeyValue {
	keys := e.ListKeys(prefix)
	out := make(chan KeyValue, 64)

	go func() {
		defer close(out)
		for _, k := range keys {
			v, err := e.Get([]byte(k))
			if err != nil {
				continue
			}
			out <- KeyValue{Key: []byte(k), Value: v}
		}
	}()

	return out
}

// KeyValue is one entry yielded by ScanPrefix.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Close flushes and releases the engine's file handles. Safe to call
// on an already-closed engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	e.open = false

	var firstErr error
	if e.writer != nil {
		if err := e.writer.Close(); err != nil {
			firstErr = err
		}
	}
	if e.reader != nil {
		if err := e.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// TruncateTornTail inspects the log at path for a partially-written
// trailing record (a torn tail left by an ungraceful shutdown) and, if
// one is found, truncates the file back to the last decodable record
// boundary. It does nothing if the log is already consistent.
//
// This is a separate, explicitly opt-in step from Open: Open always
// fails closed on Corrupted rather than silently discarding data, so a
// caller that wants the log repaired must call this first.
func TruncateTornTail(path string) (*RecoveryResult, error) {
	start := time.Now()

	reader, err := NewLogReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	c := codec.NewRecordCodec()

	var validated int64
	var lastGoodOffset int64
	var tornOffset int64
	torn := false

	for {
		off, _ := reader.Tell()
		_, decErr := c.Decode(reader)
		if decErr != nil {
			if errors.Is(decErr, codec.ErrNoMoreRecords) {
				break
			}
			var corrupted *codec.CorruptedError
			if errors.As(decErr, &corrupted) {
				torn = true
				tornOffset = off
				break
			}
			return nil, decErr
		}
		validated++
		lastGoodOffset, _ = reader.Tell()
	}

	fileSizeBefore := lastGoodOffset
	if torn {
		fileSizeBefore = tornOffset
	}
	result := &RecoveryResult{
		RecordsValidated: validated,
		FileSizeBefore:   fileSizeBefore,
		TornTail:         torn,
		TornTailOffset:   tornOffset,
		RecoveryTime:     time.Since(start),
	}

	if !torn {
		return result, nil
	}

	reader.Close()
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, &StorageError{Op: "open log for truncate", Err: err}
	}
	defer file.Close()

	if err := file.Truncate(lastGoodOffset); err != nil {
		return nil, &StorageError{Op: "truncate log", Err: err}
	}

	return result, nil
}
