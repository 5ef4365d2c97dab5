// Package index defines the contract shared by the approximate
// nearest-neighbor index backends.
//
// An index is populated by sequential Add calls, finalized exactly once
// with Build, and immutable afterwards. Item identity is the insertion
// order: the i-th added vector has ID i, matching its row in the vector
// matrix and in the metadata table. Concurrent searches against a built
// index are safe; Add and Build are not safe to interleave with
// searches.
package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cellknn/metric"
)

var (
	// ErrNotBuilt is returned when an index is searched before Build.
	ErrNotBuilt = errors.New("index not built")

	// ErrAlreadyBuilt is returned by Add or Build after Build succeeded.
	ErrAlreadyBuilt = errors.New("index already built")

	// ErrEmptyVectors is returned by Build when no vectors were added.
	ErrEmptyVectors = errors.New("no vectors added")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidSpace indicates an unsupported space.
type ErrInvalidSpace struct {
	Space Space
}

func (e *ErrInvalidSpace) Error() string {
	return fmt.Sprintf("invalid space: %d", e.Space)
}

// DistanceFunc represents a function for calculating the distance
// between two vectors.
type DistanceFunc func(v1, v2 []float32) float32

// Space represents the distance space used for comparing vectors.
type Space int

// Constants representing the supported spaces.
const (
	SpaceEuclidean Space = iota
	SpaceCosine
	SpaceDot
)

// NewDistanceFunc returns a distance function for the given space,
// or an error if the space is unknown.
func NewDistanceFunc(space Space) (DistanceFunc, error) {
	switch space {
	case SpaceEuclidean:
		return metric.SquaredL2, nil
	case SpaceCosine:
		return metric.CosineDistance, nil
	case SpaceDot:
		return metric.NegativeDot, nil
	default:
		return nil, &ErrInvalidSpace{Space: space}
	}
}

// String returns a string representation of the Space.
func (s Space) String() string {
	switch s {
	case SpaceEuclidean:
		return "Euclidean"
	case SpaceCosine:
		return "Cosine"
	case SpaceDot:
		return "Dot"
	default:
		return "Unknown"
	}
}

// ParseSpace converts a space name (as accepted on the command line or
// in config files) to a Space.
func ParseSpace(name string) (Space, error) {
	switch name {
	case "euclidean", "l2", "":
		return SpaceEuclidean, nil
	case "cosine", "angular":
		return SpaceCosine, nil
	case "dot", "ip":
		return SpaceDot, nil
	default:
		return 0, fmt.Errorf("unknown space %q", name)
	}
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// ID is the item identity of the hit (insertion order).
	ID int

	// Distance is the distance between the query and the hit, in the
	// index's space.
	Distance float32
}

// Index represents a build-once, read-many ANN index.
type Index interface {
	// Add appends a vector and returns its item ID. It fails with
	// ErrAlreadyBuilt after Build and with *ErrDimensionMismatch when
	// the vector length differs from the index dimensionality.
	Add(v []float32) (int, error)

	// Build finalizes the index. It fails with ErrEmptyVectors when
	// nothing was added and with ErrAlreadyBuilt on a second call.
	Build() error

	// Search returns the (approximately) nearest items to q, ordered by
	// ascending distance. When fewer than k items are indexed, all of
	// them are returned; callers that need exactly k must check the
	// result length. Fails with ErrNotBuilt before Build and with
	// *ErrDimensionMismatch on a malformed query.
	Search(q []float32, k int) ([]SearchResult, error)

	// Dimension returns the vector dimensionality of the index.
	Dimension() int

	// Len returns the number of indexed items.
	Len() int

	// Built reports whether Build has completed.
	Built() bool

	// Space returns the distance space of the index.
	Space() Space
}
