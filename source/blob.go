package source

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/cellknn/blobstore"
	"github.com/hupe1980/cellknn/tensor"
)

// blobExtensions are the blob name suffixes tried for a key, in order.
var blobExtensions = []string{"", ".csv", ".csv.gz", ".csv.lz4"}

// Blob is a Source reading CSV matrices from a blob store. A key maps
// to the first existing blob among key, key.csv, key.csv.gz and
// key.csv.lz4; compressed blobs are transparently decompressed.
type Blob struct {
	store blobstore.Store
}

// NewBlob creates a Source over the given blob store. Use
// blobstore.NewLocalStore for a directory of matrix files, or the s3 /
// minio stores for object storage.
func NewBlob(store blobstore.Store) *Blob {
	return &Blob{store: store}
}

// Fetch returns the matrix stored under key.
func (b *Blob) Fetch(ctx context.Context, key string) (*tensor.Dense[float32], error) {
	for _, ext := range blobExtensions {
		name := key + ext

		rc, err := b.store.Open(ctx, name)
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		matrix, err := b.read(name, rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}

		return matrix, nil
	}

	return nil, &ErrUnknownKey{Key: key}
}

func (b *Blob) read(name string, rc io.Reader) (*tensor.Dense[float32], error) {
	r, closeFn, err := decompressor(name, rc)
	if err != nil {
		return nil, err
	}

	matrix, err := ReadMatrixCSV(r)
	if err != nil {
		return nil, err
	}

	if err := closeFn(); err != nil {
		return nil, err
	}

	return matrix, nil
}
