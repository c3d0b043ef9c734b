package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const fsCopyChunk = 256 * 1024

// FileSystemStore keeps blobs as plain files under a root directory,
// mirroring the storage path. Writes go through a temp file and an atomic
// rename so a crashed transfer never leaves a half-written blob at its
// final path.
type FileSystemStore struct {
	root    string
	baseURL string
}

func NewFileSystemStore(root, baseURL string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FileSystemStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileSystemStore) absPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *FileSystemStore) Put(ctx context.Context, path string, r io.Reader, size int64) error {
	return s.write(ctx, path, r, size, nil)
}

func (s *FileSystemStore) PutResumable(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error {
	return s.write(ctx, path, r, size, progress)
}

func (s *FileSystemStore) write(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error {
	dest := s.absPath(path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".blob-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	src := io.Reader(r)
	if progress != nil {
		src = newProgressReader(r, size, progress)
	}

	var written int64
	buf := make([]byte, fsCopyChunk)
	for {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				tmp.Close()
				return fmt.Errorf("write blob: %w", writeErr)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			return fmt.Errorf("read upload stream: %w", readErr)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("commit blob: %w", err)
	}
	committed = true
	return nil
}

func (s *FileSystemStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.absPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob if present. A missing blob is not an error.
func (s *FileSystemStore) Delete(_ context.Context, path string) error {
	err := os.Remove(s.absPath(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *FileSystemStore) URLFor(_ context.Context, path string) (string, error) {
	if s.baseURL == "" {
		return "", nil
	}
	return s.baseURL + "/" + path, nil
}

var _ Store = (*FileSystemStore)(nil)
