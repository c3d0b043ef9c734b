package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (s *MemoryStore) Put(ctx context.Context, path string, r io.Reader, size int64) error {
	return s.store(ctx, path, r, size, nil)
}

func (s *MemoryStore) PutResumable(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error {
	return s.store(ctx, path, r, size, progress)
}

func (s *MemoryStore) store(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error {
	src := io.Reader(r)
	if progress != nil {
		src = newProgressReader(r, size, progress)
	}

	var buf bytes.Buffer
	chunk := make([]byte, fsCopyChunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	if size >= 0 && int64(buf.Len()) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, buf.Len())
	}

	s.mu.Lock()
	s.blobs[path] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.blobs, path)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) URLFor(_ context.Context, path string) (string, error) {
	return "memory://" + path, nil
}

// Exists reports whether a blob is stored at path. Test helper.
func (s *MemoryStore) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[path]
	return ok
}

// Len returns the number of stored blobs. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ Store = (*MemoryStore)(nil)
