package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"
)

const (
	segmentSuffix         = ".seg"
	sealedSegmentSuffix   = ".seg.zst"
	defaultMaxSegmentSize = 64 * 1024 * 1024
)

// segment is one file within a SegmentedStore. A writable segment is
// a plain file; once sealed it is closed for writes and, if
// compression is enabled, replaced on disk by its zstd-compressed
// form. id is a ksuid so segments sort in creation order by filename
// alone.
type segment struct {
	id       ksuid.KSUID
	path     string
	sealed   bool
	rawSize  int64 // logical (uncompressed) size
	file     *os.File
	plain    []byte // contents of a sealed segment, held in memory (decompressed if compressed)
}

// SegmentedStore is a FileHandle backed by a directory of append-only
// segment files. Writes always land in the active (most recent,
// unsealed) segment; once it reaches maxSegmentSize it is sealed and a
// new active segment is opened. Reads address the store through one
// logical, monotonically increasing offset spanning every segment in
// order, exactly like MonolithicFile's single file.
//
// Sealed segments are optionally compressed at rest; the active
// segment never is, matching the rule that compression only ever
// touches already-durable, read-only data.
type SegmentedStore struct {
	mu             sync.Mutex
	dir            string
	maxSegmentSize int64
	compress       bool
	segments       []*segment
	active         *segment
	readOffset     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// SegmentedStoreConfig configures a SegmentedStore.
type SegmentedStoreConfig struct {
	Dir            string
	MaxSegmentSize int64 // 0 uses defaultMaxSegmentSize
	Compress       bool
}

// OpenSegmentedStore opens dir, loading any existing segments in
// creation order and reopening the newest unsealed one for writes (or
// creating the first segment if dir is empty).
func OpenSegmentedStore(cfg SegmentedStoreConfig) (*SegmentedStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}

	maxSize := cfg.MaxSegmentSize
	if maxSize <= 0 {
		maxSize = defaultMaxSegmentSize
	}

	s := &SegmentedStore{
		dir:            cfg.Dir,
		maxSegmentSize: maxSize,
		compress:       cfg.Compress,
	}

	if cfg.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("storage: new zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("storage: new zstd decoder: %w", err)
		}
		s.encoder = enc
		s.decoder = dec
	}

	if err := s.loadSegments(); err != nil {
		return nil, err
	}

	if s.active == nil {
		if err := s.openNewActiveSegment(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *SegmentedStore) loadSegments() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("storage: read segment dir: %w", err)
	}

	type found struct {
		id     ksuid.KSUID
		path   string
		sealed bool
	}
	var founds []found

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, sealedSegmentSuffix):
			idStr := strings.TrimSuffix(name, sealedSegmentSuffix)
			id, perr := ksuid.Parse(idStr)
			if perr != nil {
				continue
			}
			founds = append(founds, found{id: id, path: filepath.Join(s.dir, name), sealed: true})
		case strings.HasSuffix(name, segmentSuffix):
			idStr := strings.TrimSuffix(name, segmentSuffix)
			id, perr := ksuid.Parse(idStr)
			if perr != nil {
				continue
			}
			founds = append(founds, found{id: id, path: filepath.Join(s.dir, name), sealed: false})
		}
	}

	sort.Slice(founds, func(i, j int) bool {
		return founds[i].id.String() < founds[j].id.String()
	})

	for _, f := range founds {
		seg := &segment{id: f.id, path: f.path, sealed: f.sealed}
		if f.sealed {
			raw, err := os.ReadFile(f.path)
			if err != nil {
				return fmt.Errorf("storage: read sealed segment %s: %w", f.path, err)
			}
			plain := raw
			if s.decoder != nil {
				plain, err = s.decoder.DecodeAll(raw, nil)
				if err != nil {
					return fmt.Errorf("storage: decompress segment %s: %w", f.path, err)
				}
			}
			seg.plain = plain
			seg.rawSize = int64(len(plain))
		} else {
			file, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("storage: reopen segment %s: %w", f.path, err)
			}
			stat, err := file.Stat()
			if err != nil {
				file.Close()
				return fmt.Errorf("storage: stat segment %s: %w", f.path, err)
			}
			seg.file = file
			seg.rawSize = stat.Size()
			s.active = seg
		}
		s.segments = append(s.segments, seg)
	}

	return nil
}

func (s *SegmentedStore) openNewActiveSegment() error {
	id := ksuid.New()
	// ksuid timestamps have one-second resolution; keep ids strictly
	// increasing so segments created within the same second still sort
	// in creation order.
	if n := len(s.segments); n > 0 && id.String() <= s.segments[n-1].id.String() {
		id = s.segments[n-1].id.Next()
	}
	path := filepath.Join(s.dir, id.String()+segmentSuffix)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("storage: create segment: %w", err)
	}
	seg := &segment{id: id, path: path, file: file}
	s.segments = append(s.segments, seg)
	s.active = seg
	return nil
}

// sealActive closes the active segment for writes and, if compression
// is enabled, replaces it on disk with its compressed form. A fresh
// segment becomes active in its place.
func (s *SegmentedStore) sealActive() error {
	seg := s.active
	if seg == nil {
		return nil
	}

	if _, err := seg.file.Seek(0, 0); err != nil {
		return fmt.Errorf("storage: seek segment for seal: %w", err)
	}
	raw := make([]byte, seg.rawSize)
	if _, err := seg.file.ReadAt(raw, 0); err != nil {
		return fmt.Errorf("storage: read segment for seal: %w", err)
	}
	if err := seg.file.Close(); err != nil {
		return fmt.Errorf("storage: close segment for seal: %w", err)
	}

	if s.compress {
		compressed := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))
		sealedPath := strings.TrimSuffix(seg.path, segmentSuffix) + sealedSegmentSuffix
		if err := os.WriteFile(sealedPath, compressed, 0o600); err != nil {
			return fmt.Errorf("storage: write sealed segment: %w", err)
		}
		if err := os.Remove(seg.path); err != nil {
			return fmt.Errorf("storage: remove unsealed segment: %w", err)
		}
		seg.path = sealedPath
		seg.plain = raw
	} else {
		seg.plain = raw
	}

	seg.file = nil
	seg.sealed = true
	return s.openNewActiveSegment()
}

// Write appends p to the active segment, sealing it first if the
// write would exceed maxSegmentSize.
func (s *SegmentedStore) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active.rawSize > 0 && s.active.rawSize+int64(len(p)) > s.maxSegmentSize {
		if err := s.sealActive(); err != nil {
			return 0, err
		}
	}

	n, err := s.active.file.Write(p)
	s.active.rawSize += int64(n)
	return n, err
}

// Read reads from the current logical read cursor, transparently
// spanning segment boundaries and decompressing sealed segments as
// needed.
func (s *SegmentedStore) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, segOffset, err := s.locate(s.readOffset)
	if err != nil {
		return 0, err
	}

	var n int
	if seg.sealed {
		n = copy(p, seg.plain[segOffset:])
	} else {
		n, err = seg.file.ReadAt(p, segOffset)
		if err != nil && n == 0 {
			return 0, err
		}
	}
	s.readOffset += int64(n)
	return n, nil
}

// Tell reports the current logical read cursor.
func (s *SegmentedStore) Tell() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOffset, nil
}

// Seek repositions the logical read cursor to an absolute offset
// spanning every segment in creation order.
func (s *SegmentedStore) Seek(offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOffset = offset
	return nil
}

// Size reports the sum of every segment's logical (uncompressed) size.
func (s *SegmentedStore) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, seg := range s.segments {
		total += seg.rawSize
	}
	return total, nil
}

// Close seals no segments but closes the active segment's file handle.
func (s *SegmentedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.file != nil {
		return s.active.file.Close()
	}
	return nil
}

// locate finds the segment and intra-segment offset for a logical
// offset, in creation order.
func (s *SegmentedStore) locate(offset int64) (*segment, int64, error) {
	var base int64
	for _, seg := range s.segments {
		if offset < base+seg.rawSize {
			return seg, offset - base, nil
		}
		base += seg.rawSize
	}
	return nil, 0, fmt.Errorf("storage: offset %d past end of store (size %d)", offset, base)
}
