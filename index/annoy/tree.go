package annoy

import (
	"math/rand"

	"github.com/hupe1980/cellknn/metric"
)

type node struct {
	leaf       bool
	indices    []int
	hyperplane []float32
	threshold  float32
	left       *node
	right      *node
}

func buildNode(indices []int, vectors [][]float32, maxLeafSize int, rng *rand.Rand) *node {
	if len(indices) <= maxLeafSize {
		leafIdx := make([]int, len(indices))
		copy(leafIdx, indices)
		return &node{
			leaf:    true,
			indices: leafIdx,
		}
	}

	// Sample two random points to define a hyperplane.
	aIdx := indices[rng.Intn(len(indices))]
	bIdx := indices[rng.Intn(len(indices))]
	if aIdx == bIdx && len(indices) > 1 {
		bIdx = indices[(rng.Intn(len(indices)-1)+1)%len(indices)]
	}

	vecA := vectors[aIdx]
	vecB := vectors[bIdx]
	dim := len(vecA)

	normal := make([]float32, dim)
	for i := 0; i < dim; i++ {
		normal[i] = vecB[i] - vecA[i]
	}

	// If the sampled vectors are identical, fall back to a random normal.
	if metric.Magnitude(normal) == 0 {
		for i := range normal {
			normal[i] = rng.Float32()*2 - 1
		}
	}
	metric.Normalize(normal)

	mid := make([]float32, dim)
	for i := 0; i < dim; i++ {
		mid[i] = (vecA[i] + vecB[i]) * 0.5
	}
	threshold := metric.Dot(normal, mid)

	leftIdx := make([]int, 0, len(indices)/2)
	rightIdx := make([]int, 0, len(indices)/2)
	for _, idx := range indices {
		if metric.Dot(normal, vectors[idx]) <= threshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}

	// Guard against degenerate splits.
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		leafIdx := make([]int, len(indices))
		copy(leafIdx, indices)
		return &node{
			leaf:    true,
			indices: leafIdx,
		}
	}

	return &node{
		hyperplane: normal,
		threshold:  threshold,
		left:       buildNode(leftIdx, vectors, maxLeafSize, rng),
		right:      buildNode(rightIdx, vectors, maxLeafSize, rng),
	}
}
