package store

import (
	"errors"
	"os"

	"github.com/emberdb/emberdb/pkg/codec"
)

// LogReader is the read side of the file-handle collaborator: a
// sequential, seekable view over the log file. It implements
// codec.ByteSource directly, so the codec can decode from it without
// either side knowing about the other's buffering.
type LogReader struct {
	file   *os.File
	offset int64
}

// NewLogReader opens path for reading, positioned at the start.
func NewLogReader(path string) (*LogReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Op: "open log for read", Err: err}
	}
	return &LogReader{file: file}, nil
}

// Read implements io.Reader / codec.ByteSource.
func (r *LogReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	r.offset += int64(n)
	return n, err
}

// Tell implements codec.ByteSource.
func (r *LogReader) Tell() (int64, error) {
	return r.offset, nil
}

// SeekTo repositions the reader at an absolute offset from the start
// of the log.
func (r *LogReader) SeekTo(offset int64) error {
	n, err := r.file.Seek(offset, os.SEEK_SET)
	if err != nil {
		return &StorageError{Op: "seek", Err: err}
	}
	r.offset = n
	return nil
}

// DecodeAt seeks to offset and decodes exactly one record there.
func (r *LogReader) DecodeAt(c *codec.RecordCodec, offset int64) (*codec.Record, error) {
	if err := r.SeekTo(offset); err != nil {
		return nil, err
	}
	rec, err := c.Decode(r)
	if err != nil {
		if errors.Is(err, codec.ErrNoMoreRecords) {
			return nil, &InvalidOffsetError{Offset: offset, Reason: "offset is at or past end of log"}
		}
		return nil, err
	}
	return rec, nil
}

// Close releases the underlying file handle.
func (r *LogReader) Close() error {
	if err := r.file.Close(); err != nil {
		return &StorageError{Op: "close log", Err: err}
	}
	return nil
}
