// Package hnsw provides the graph-based ANN index backend, a
// Hierarchical Navigable Small World graph.
package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/cellknn/index"
)

// Compile-time check that HNSW satisfies the index contract.
var _ index.Index = (*HNSW)(nil)

// Node represents a node in the HNSW graph.
type Node struct {
	Connections [][]int   // Links to other nodes, one slice per layer
	Vector      []float32 // Vector (dimension elements)
	Layer       int       // Top layer the node exists in
	ID          int       // Item identity (insertion order)
}

// Options represents the options for configuring HNSW.
type Options struct {
	// M specifies the number of established connections for every new
	// element during construction. The range M=12-48 is ok for most use
	// cases; higher M works better on datasets with high intrinsic
	// dimensionality and/or high recall.
	M int

	// EF specifies the size of the dynamic candidate list during
	// construction. Larger values improve graph quality at the cost of
	// slower builds.
	EF int

	// EFSearch specifies the size of the dynamic candidate list during
	// search. It is raised to k when a query requests more neighbors.
	EFSearch int

	// Heuristic indicates whether to use the heuristic neighbor
	// selection algorithm (true) or the naive nearest-M algorithm.
	Heuristic bool

	// Seed seeds the level generator, making graph construction
	// reproducible for a fixed insertion order.
	Seed int64
}

// DefaultOptions contains the default configuration options for HNSW.
var DefaultOptions = Options{
	M:         16,
	EF:        200,
	EFSearch:  100,
	Heuristic: true,
	Seed:      1,
}

// HNSW represents the Hierarchical Navigable Small World graph.
type HNSW struct {
	dimension    int
	space        index.Space
	distanceFunc index.DistanceFunc
	mmax         int     // Max number of connections per element/per layer
	mmax0        int     // Max for the 0 layer
	ml           float64 // Normalization factor for level generation
	ep           int     // Entry point into the top layer
	maxLevel     int     // Current max level in use

	nodes []*Node
	built bool
	rng   *rand.Rand

	opts Options
	mu   sync.Mutex
}

// New creates a new HNSW index with the given dimension and space.
func New(dimension int, space index.Space, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M < 2 {
		// M == 1 would make the level normalization 1/log(M) divide by zero.
		opts.M = 2
	}

	distanceFunc, err := index.NewDistanceFunc(space)
	if err != nil {
		return nil, err
	}

	return &HNSW{
		dimension:    dimension,
		space:        space,
		distanceFunc: distanceFunc,
		mmax:         opts.M,
		mmax0:        2 * opts.M,
		ml:           1 / math.Log(float64(opts.M)),
		rng:          rand.New(rand.NewSource(opts.Seed)), // nolint gosec
		opts:         opts,
	}, nil
}

// Add inserts a new element into the HNSW graph.
func (h *HNSW) Add(v []float32) (int, error) {
	if len(v) != h.dimension {
		return 0, &index.ErrDimensionMismatch{Expected: h.dimension, Actual: len(v)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.built {
		return 0, index.ErrAlreadyBuilt
	}

	// Copy so later changes to the caller's slice don't affect the node.
	vectorCopy := make([]float32, len(v))
	copy(vectorCopy, v)

	id := len(h.nodes)
	layer := int(math.Floor(-math.Log(h.rng.Float64()) * h.ml))

	node := &Node{
		ID:          id,
		Vector:      vectorCopy,
		Layer:       layer,
		Connections: make([][]int, layer+1),
	}

	// First node becomes the entry point.
	if len(h.nodes) == 0 {
		h.nodes = append(h.nodes, node)
		h.ep = id
		h.maxLevel = layer
		return id, nil
	}

	// Greedy descent through the layers above the node's top layer.
	currObj, currDist := h.findShortestPath(node)

	topCandidates := &priorityQueue{}

	for level := min(node.Layer, h.maxLevel); level >= 0; level-- {
		h.searchLayer(vectorCopy, &priorityQueueItem{Distance: currDist, Node: currObj.ID}, topCandidates, h.opts.EF, level)

		if h.opts.Heuristic {
			h.selectNeighboursHeuristic(topCandidates, h.opts.M, false)
		} else {
			h.selectNeighboursSimple(topCandidates, h.opts.M)
		}

		node.Connections[level] = make([]int, topCandidates.Len())

		for i := topCandidates.Len() - 1; i >= 0; i-- {
			candidate, _ := heap.Pop(topCandidates).(*priorityQueueItem)
			node.Connections[level][i] = candidate.Node
		}
	}

	h.nodes = append(h.nodes, node)

	// Link the neighbour nodes back to the new node, making it visible.
	for level := min(node.Layer, h.maxLevel); level >= 0; level-- {
		for _, neighbour := range node.Connections[level] {
			h.link(neighbour, node.ID, level)
		}
	}

	if node.Layer > h.maxLevel {
		h.ep = node.ID
		h.maxLevel = node.Layer
	}

	return id, nil
}

// Build finalizes the graph. The HNSW graph is constructed
// incrementally during Add, so Build only seals the index against
// further writes.
func (h *HNSW) Build() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.built {
		return index.ErrAlreadyBuilt
	}
	if len(h.nodes) == 0 {
		return index.ErrEmptyVectors
	}

	h.built = true

	return nil
}

// Search performs a k-nearest neighbor search in the HNSW graph.
// Results are ordered by ascending distance; when fewer than k items
// are indexed, all of them are returned.
func (h *HNSW) Search(q []float32, k int) ([]index.SearchResult, error) {
	if !h.built {
		return nil, index.ErrNotBuilt
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if len(q) != h.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.dimension, Actual: len(q)}
	}

	ef := max(h.opts.EFSearch, k)

	topCandidates := &priorityQueue{}

	currObj := h.nodes[h.ep]
	ep, currDist := h.findEp(q, currObj)

	h.searchLayer(q, &priorityQueueItem{Distance: currDist, Node: ep.ID}, topCandidates, ef, 0)

	for topCandidates.Len() > k {
		_ = heap.Pop(topCandidates)
	}

	// Pop from the max-heap into the result back to front, yielding
	// ascending distance order.
	results := make([]index.SearchResult, topCandidates.Len())
	for i := topCandidates.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(topCandidates).(*priorityQueueItem)
		results[i] = index.SearchResult{ID: item.Node, Distance: item.Distance}
	}

	return results, nil
}

// Dimension returns the vector dimensionality of the index.
func (h *HNSW) Dimension() int { return h.dimension }

// Len returns the number of indexed items.
func (h *HNSW) Len() int { return len(h.nodes) }

// Built reports whether Build has completed.
func (h *HNSW) Built() bool { return h.built }

// Space returns the distance space of the index.
func (h *HNSW) Space() index.Space { return h.space }

// findShortestPath descends from the entry point through the layers
// above the new node's top layer, returning the closest node found.
func (h *HNSW) findShortestPath(node *Node) (*Node, float32) {
	currObj := h.nodes[h.ep]
	currDist := h.distanceFunc(currObj.Vector, node.Vector)

	for level := currObj.Layer; level > node.Layer; level-- {
		changed := true
		for changed {
			changed = false

			for _, nodeID := range h.connections(currObj, level) {
				newObj := h.nodes[nodeID]

				newDist := h.distanceFunc(newObj.Vector, node.Vector)
				if newDist < currDist {
					currObj = newObj
					currDist = newDist
					changed = true
				}
			}
		}
	}

	return currObj, currDist
}

// link adds a connection between nodes, pruning back to the per-layer
// connection cap when exceeded.
func (h *HNSW) link(first, second, level int) {
	maxConnections := h.mmax
	// HNSW allows double the connections for the bottom level (0).
	if level == 0 {
		maxConnections = h.mmax0
	}

	node := h.nodes[first]
	if level >= len(node.Connections) {
		return
	}
	node.Connections[level] = append(node.Connections[level], second)

	if len(node.Connections[level]) > maxConnections {
		topCandidates := &priorityQueue{}
		heap.Init(topCandidates)

		for _, id := range node.Connections[level] {
			heap.Push(topCandidates, &priorityQueueItem{
				Node:     id,
				Distance: h.distanceFunc(node.Vector, h.nodes[id].Vector),
			})
		}

		if h.opts.Heuristic {
			h.selectNeighboursHeuristic(topCandidates, maxConnections, true)
		} else {
			h.selectNeighboursSimple(topCandidates, maxConnections)
		}

		// Reorder the connected nodes by best performing match (index 0)
		// down to the weakest.
		node.Connections[level] = make([]int, topCandidates.Len())
		for i := topCandidates.Len() - 1; i >= 0; i-- {
			item, _ := heap.Pop(topCandidates).(*priorityQueueItem)
			node.Connections[level][i] = item.Node
		}
	}
}

// searchLayer performs a best-first search in one layer of the graph.
func (h *HNSW) searchLayer(q []float32, ep *priorityQueueItem, topCandidates *priorityQueue, ef int, level int) {
	var visited bitset.BitSet
	visited.Set(uint(ep.Node))

	candidates := &priorityQueue{}
	heap.Init(candidates)
	heap.Push(candidates, ep)

	topCandidates.Order = true // max-heap
	heap.Init(topCandidates)
	heap.Push(topCandidates, ep)

	for candidates.Len() > 0 {
		lowerBound := topCandidates.Top().(*priorityQueueItem).Distance

		candidate, _ := heap.Pop(candidates).(*priorityQueueItem)
		if candidate.Distance > lowerBound {
			break
		}

		node := h.nodes[candidate.Node]

		for _, n := range h.connections(node, level) {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			distance := h.distanceFunc(q, h.nodes[n].Vector)
			topDistance := topCandidates.Top().(*priorityQueueItem).Distance

			item := &priorityQueueItem{Distance: distance, Node: n}

			if topCandidates.Len() < ef {
				heap.Push(topCandidates, item)
				heap.Push(candidates, item)
			} else if topDistance > distance {
				heap.Pop(topCandidates)
				heap.Push(topCandidates, item)
				heap.Push(candidates, item)
			}
		}
	}
}

func (h *HNSW) connections(node *Node, level int) []int {
	if level >= len(node.Connections) {
		return nil
	}
	return node.Connections[level]
}

// selectNeighboursSimple keeps the nearest M candidates.
func (h *HNSW) selectNeighboursSimple(topCandidates *priorityQueue, m int) {
	for topCandidates.Len() > m {
		_ = heap.Pop(topCandidates)
	}
}

// selectNeighboursHeuristic selects neighbors favoring spread: a
// candidate is kept only if it is closer to the query than to every
// previously kept candidate.
func (h *HNSW) selectNeighboursHeuristic(topCandidates *priorityQueue, m int, order bool) {
	if topCandidates.Len() < m {
		return
	}

	newCandidates := &priorityQueue{}
	tmpCandidates := &priorityQueue{Order: order}
	heap.Init(tmpCandidates)

	items := make([]*priorityQueueItem, 0, m)

	if !order {
		newCandidates.Order = order
		heap.Init(newCandidates)

		for topCandidates.Len() > 0 {
			item, _ := heap.Pop(topCandidates).(*priorityQueueItem)
			heap.Push(newCandidates, item)
		}
	} else {
		newCandidates = topCandidates
	}

	for newCandidates.Len() > 0 {
		if len(items) >= m {
			break
		}

		item, _ := heap.Pop(newCandidates).(*priorityQueueItem)
		hit := true

		for _, v := range items {
			if h.distanceFunc(h.nodes[v.Node].Vector, h.nodes[item.Node].Vector) < item.Distance {
				hit = false
				break
			}
		}

		if hit {
			items = append(items, item)
		} else {
			heap.Push(tmpCandidates, item)
		}
	}

	// Backfill from the rejected candidates when spread left us short.
	for len(items) < m && tmpCandidates.Len() > 0 {
		item, _ := heap.Pop(tmpCandidates).(*priorityQueueItem)
		items = append(items, item)
	}

	for _, item := range items {
		heap.Push(topCandidates, item)
	}
}

// findEp finds the entry point for a level-0 search by greedy descent
// through the upper layers.
func (h *HNSW) findEp(q []float32, currObj *Node) (*Node, float32) {
	currDist := h.distanceFunc(q, currObj.Vector)

	match := currObj

	for level := h.maxLevel; level > 0; level-- {
		scan := true

		for scan {
			scan = false

			for _, nodeID := range h.connections(match, level) {
				nodeDist := h.distanceFunc(h.nodes[nodeID].Vector, q)
				if nodeDist < currDist {
					match = h.nodes[nodeID]
					currDist = nodeDist
					scan = true
				}
			}
		}
	}

	return match, currDist
}
