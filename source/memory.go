package source

import (
	"context"
	"sync"

	"github.com/hupe1980/cellknn/tensor"
)

// Memory is an in-process Source backed by a map of matrices.
type Memory struct {
	mu       sync.RWMutex
	matrices map[string]*tensor.Dense[float32]
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		matrices: make(map[string]*tensor.Dense[float32]),
	}
}

// Set stores a matrix under key, replacing any previous one.
func (m *Memory) Set(key string, matrix *tensor.Dense[float32]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matrices[key] = matrix
}

// SetRows stores a matrix built from rows under key.
func (m *Memory) SetRows(key string, rows [][]float32) error {
	matrix, err := tensor.FromRows(rows)
	if err != nil {
		return err
	}
	m.Set(key, matrix)
	return nil
}

// Fetch returns the matrix stored under key.
func (m *Memory) Fetch(_ context.Context, key string) (*tensor.Dense[float32], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matrix, ok := m.matrices[key]
	if !ok {
		return nil, &ErrUnknownKey{Key: key}
	}

	return matrix, nil
}
