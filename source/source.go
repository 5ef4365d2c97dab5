// Package source provides vector sources: where the facade fetches the
// embedding matrix it builds its index over. A source maps a string key
// (e.g. "X_pca") to a dense [n_items, n_dim] matrix.
package source

import (
	"context"
	"fmt"

	"github.com/hupe1980/cellknn/tensor"
)

// ErrUnknownKey indicates that a source has no matrix under the
// requested key.
type ErrUnknownKey struct {
	Key string
}

func (e *ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown vector key: %q", e.Key)
}

// Source exposes embedding matrices by key.
type Source interface {
	// Fetch returns the dense [n_items, n_dim] matrix stored under key.
	// Fails with *ErrUnknownKey when the key is absent.
	Fetch(ctx context.Context, key string) (*tensor.Dense[float32], error)
}
