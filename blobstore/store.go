// Package blobstore abstracts access to the immutable blobs that hold
// embedding matrices, so a vector source can read the same data from
// local disk, memory, or object storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading immutable data blobs.
type Store interface {
	// Open opens a blob for reading. The caller must close the returned
	// reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
