package gltf

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/exp/mmap"
)

// Buffer store errors.
var (
	ErrBufferIO        = errors.New("buffer file unreadable")
	ErrSliceOutOfRange = errors.New("byte range exceeds buffer length")
	ErrNoSuchBuffer    = errors.New("buffer index out of range")
)

// BufferStore exposes random-access byte ranges of the document's
// binary buffer files. Files are memory-mapped lazily on first access
// and stay open until Close, so one store must be scoped to exactly one
// decode pass.
type BufferStore struct {
	dir     string
	buffers []Buffer
	readers []*mmap.ReaderAt
}

// OpenBufferStore creates a store for the document's buffers. URIs are
// resolved relative to dir (the glTF file's directory). No file is
// touched until the first Slice.
func OpenBufferStore(doc *Document, dir string) *BufferStore {
	return &BufferStore{
		dir:     dir,
		buffers: doc.Buffers,
		readers: make([]*mmap.ReaderAt, len(doc.Buffers)),
	}
}

// Slice returns length bytes of buffer starting at offset. The buffer
// file is mapped on first use. Fails when the range exceeds the mapped
// file's length.
func (s *BufferStore) Slice(buffer, offset, length int) ([]byte, error) {
	if buffer < 0 || buffer >= len(s.readers) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchBuffer, buffer)
	}

	r := s.readers[buffer]
	if r == nil {
		path := filepath.Join(s.dir, filepath.FromSlash(s.buffers[buffer].URI))
		var err error
		r, err = mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %q: %v", ErrBufferIO, path, err)
		}
		s.readers[buffer] = r
	}

	if offset < 0 || length < 0 || offset+length > r.Len() {
		return nil, fmt.Errorf("%w: buffer %d [%d:%d] of %d bytes",
			ErrSliceOutOfRange, buffer, offset, offset+length, r.Len())
	}

	data := make([]byte, length)
	if length > 0 {
		if _, err := r.ReadAt(data, int64(offset)); err != nil {
			return nil, fmt.Errorf("reading buffer %d: %w", buffer, err)
		}
	}
	return data, nil
}

// Close unmaps every buffer opened so far. The store is unusable after.
func (s *BufferStore) Close() error {
	var firstErr error
	for i, r := range s.readers {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.readers[i] = nil
	}
	return firstErr
}
