package cellknn

import (
	"github.com/hupe1980/cellknn/index"
)

// The facade forwards errors from the underlying packages unchanged.
// The common ones are re-exported here so callers can match them
// without importing the subpackages.
var (
	// ErrNotBuilt is returned when querying before the index is built.
	ErrNotBuilt = index.ErrNotBuilt

	// ErrEmptyVectors is returned when the fetched matrix has no rows.
	ErrEmptyVectors = index.ErrEmptyVectors

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = index.ErrInvalidK
)
