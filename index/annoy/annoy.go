// Package annoy provides the tree-based ANN index backend: a forest of
// random-projection trees in the style of Spotify's Annoy.
package annoy

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/metric"
)

// Compile-time check that Forest satisfies the index contract.
var _ index.Index = (*Forest)(nil)

// Options contains configuration options for the forest.
type Options struct {
	// NumTrees is the number of random-projection trees. More trees
	// improve recall at the cost of build time and memory.
	NumTrees int

	// MaxLeafSize is the maximum number of items stored in a leaf node.
	MaxLeafSize int

	// SearchK is the minimum number of candidate items inspected per
	// query before exact reranking. Raised to NumTrees*k when a query
	// requests more neighbors. Zero selects the default.
	SearchK int

	// Seed seeds tree construction, making builds reproducible for a
	// fixed insertion order.
	Seed int64
}

// DefaultOptions contains the default configuration options for the forest.
var DefaultOptions = Options{
	NumTrees:    10,
	MaxLeafSize: 16,
	SearchK:     0,
	Seed:        1,
}

// Forest is a build-once forest of random-projection trees.
type Forest struct {
	dimension    int
	space        index.Space
	distanceFunc index.DistanceFunc

	vectors [][]float32
	trees   []*node
	built   bool

	opts Options
	mu   sync.Mutex
}

// New creates a new forest index with the given dimension and space.
func New(dimension int, space index.Space, optFns ...func(o *Options)) (*Forest, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.NumTrees <= 0 {
		opts.NumTrees = 1
	}
	if opts.MaxLeafSize <= 0 {
		opts.MaxLeafSize = DefaultOptions.MaxLeafSize
	}

	distanceFunc, err := index.NewDistanceFunc(space)
	if err != nil {
		return nil, err
	}

	return &Forest{
		dimension:    dimension,
		space:        space,
		distanceFunc: distanceFunc,
		opts:         opts,
	}, nil
}

// Add appends a vector and returns its item ID.
func (f *Forest) Add(v []float32) (int, error) {
	if len(v) != f.dimension {
		return 0, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(v)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built {
		return 0, index.ErrAlreadyBuilt
	}

	vectorCopy := make([]float32, len(v))
	copy(vectorCopy, v)

	f.vectors = append(f.vectors, vectorCopy)

	return len(f.vectors) - 1, nil
}

// Build constructs the forest. After Build, no more vectors may be added.
func (f *Forest) Build() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.built {
		return index.ErrAlreadyBuilt
	}
	if len(f.vectors) == 0 {
		return index.ErrEmptyVectors
	}

	f.trees = make([]*node, f.opts.NumTrees)
	for i := range f.trees {
		treeRNG := rand.New(rand.NewSource(f.opts.Seed + int64(i)*7919)) // nolint gosec

		indices := make([]int, len(f.vectors))
		for j := range indices {
			indices[j] = j
		}

		f.trees[i] = buildNode(indices, f.vectors, f.opts.MaxLeafSize, treeRNG)
	}

	f.built = true

	return nil
}

// Search collects candidates across all trees and reranks them exactly
// with the index's distance function. Results are ordered by ascending
// distance; when fewer than k items are indexed, all of them are
// returned.
func (f *Forest) Search(q []float32, k int) ([]index.SearchResult, error) {
	if !f.built {
		return nil, index.ErrNotBuilt
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if len(q) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(q)}
	}

	candidates := f.collectCandidates(q, k)

	results := make([]index.SearchResult, 0, len(candidates))
	for _, id := range candidates {
		results = append(results, index.SearchResult{
			ID:       id,
			Distance: f.distanceFunc(q, f.vectors[id]),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Dimension returns the vector dimensionality of the index.
func (f *Forest) Dimension() int { return f.dimension }

// Len returns the number of indexed items.
func (f *Forest) Len() int { return len(f.vectors) }

// Built reports whether Build has completed.
func (f *Forest) Built() bool { return f.built }

// Space returns the distance space of the index.
func (f *Forest) Space() index.Space { return f.space }

// collectCandidates walks all trees best-first, preferring the side of
// each hyperplane the query falls on, until the candidate budget is
// met.
func (f *Forest) collectCandidates(q []float32, k int) []int {
	searchK := max(f.opts.SearchK, f.opts.NumTrees*k)

	seen := make(map[int]struct{})
	pq := make(nodeQueue, len(f.trees))
	for i, tree := range f.trees {
		pq[i] = nodeEntry{node: tree, priority: 0}
	}
	heap.Init(&pq)

	for pq.Len() > 0 && len(seen) < searchK {
		entry := heap.Pop(&pq).(nodeEntry)
		n := entry.node
		if n == nil {
			continue
		}

		if n.leaf {
			for _, id := range n.indices {
				seen[id] = struct{}{}
			}
			continue
		}

		score := metric.Dot(n.hyperplane, q)
		diff := score - n.threshold

		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}

		priority := float32(math.Abs(float64(diff)))
		heap.Push(&pq, nodeEntry{node: near, priority: priority})
		heap.Push(&pq, nodeEntry{node: far, priority: priority + 1e-6})
	}

	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	return out
}

type nodeEntry struct {
	node     *node
	priority float32
}

type nodeQueue []nodeEntry

func (h nodeQueue) Len() int           { return len(h) }
func (h nodeQueue) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h nodeQueue) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeQueue) Push(x any) {
	*h = append(*h, x.(nodeEntry))
}

func (h *nodeQueue) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
