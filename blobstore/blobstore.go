// Package blobstore abstracts the object store that holds attachment
// content. Metadata lives elsewhere; a blob is addressed only by its
// storage path.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no blob exists at the given path.
var ErrNotFound = errors.New("blob not found")

// ProgressFunc receives transfer progress as bytes move. total is the
// expected object size.
type ProgressFunc func(transferred, total int64)

// Store is the blob-store adapter. Delete is idempotent: deleting a
// missing object is not an error. PutResumable honors ctx cancellation
// mid-transfer; Put is the single-shot fallback.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, size int64) error
	PutResumable(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	URLFor(ctx context.Context, path string) (string, error)
}

// progressReader counts bytes pulled through it and reports them.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	progress    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		if p.progress != nil {
			p.progress(p.transferred, p.total)
		}
	}
	return n, err
}
