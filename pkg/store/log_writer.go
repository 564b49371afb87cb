package store

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emberdb/emberdb/pkg/codec"
)

const defaultWriterBufferSize = 64 * 1024

// LogWriter is the append-only write side of the file-handle
// collaborator: it owns the active log's writable handle and turns
// codec.Records into durable bytes at the end of the file.
//
// Every call to Append captures its own starting offset and flushes
// before returning, so the offset an Append call reports is always
// the true on-disk position of that record's header. Callers never
// need to seek to find out where a write landed.
type LogWriter struct {
	mu         sync.Mutex
	file       *os.File
	buf        *bufio.Writer
	codec      *codec.RecordCodec
	offset     int64
	fsyncEvery bool
	fsyncEach  time.Duration
	fsyncTimer *time.Timer
}

// NewLogWriter opens (creating if absent) the log file at path for
// append and positions the writer at its current end.
func NewLogWriter(config EngineConfig) (*LogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o750); err != nil {
		return nil, &StorageError{Op: "mkdir", Err: err}
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, &StorageError{Op: "open log for append", Err: err}
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &StorageError{Op: "stat log", Err: err}
	}

	bufSize := config.BufferSize
	if bufSize <= 0 {
		bufSize = defaultWriterBufferSize
	}

	w := &LogWriter{
		file:       file,
		buf:        bufio.NewWriterSize(file, bufSize),
		codec:      codec.NewRecordCodec(),
		offset:     stat.Size(),
		fsyncEvery: config.FsyncInterval == 0,
		fsyncEach:  config.FsyncInterval,
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			_ = w.syncLocked()
		})
	}

	return w, nil
}

// Append writes rec at the current end of file and returns the byte
// offset its header starts at.
func (w *LogWriter) Append(rec *codec.Record) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	recordOffset := w.offset

	n, err := w.codec.Encode(w.buf, rec)
	if err != nil {
		return 0, &StorageError{Op: "append record", Err: err}
	}
	w.offset += n

	if w.fsyncEvery {
		if err := w.syncLocked(); err != nil {
			return 0, err
		}
	} else {
		if err := w.buf.Flush(); err != nil {
			return 0, &StorageError{Op: "flush", Err: err}
		}
		if w.fsyncTimer != nil {
			w.fsyncTimer.Reset(w.fsyncEach)
		}
	}

	return recordOffset, nil
}

// Sync flushes buffered bytes and fsyncs the underlying file.
func (w *LogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *LogWriter) syncLocked() error {
	if err := w.buf.Flush(); err != nil {
		return &StorageError{Op: "flush", Err: err}
	}
	if err := w.file.Sync(); err != nil {
		return &StorageError{Op: "fsync", Err: err}
	}
	return nil
}

// Size returns the writer's current notion of the log's length.
func (w *LogWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// Close flushes, syncs, and releases the underlying file handle.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	syncErr := w.syncLocked()
	closeErr := w.file.Close()
	if syncErr != nil {
		return syncErr
	}
	if closeErr != nil {
		return &StorageError{Op: "close log", Err: closeErr}
	}
	return nil
}
