package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpace(t *testing.T) {
	tests := []struct {
		name    string
		space   Space
		wantErr bool
	}{
		{"euclidean", SpaceEuclidean, false},
		{"l2", SpaceEuclidean, false},
		{"", SpaceEuclidean, false},
		{"cosine", SpaceCosine, false},
		{"angular", SpaceCosine, false},
		{"dot", SpaceDot, false},
		{"ip", SpaceDot, false},
		{"manhattan", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := ParseSpace(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.space, space)
		})
	}
}

func TestNewDistanceFunc(t *testing.T) {
	t.Run("euclidean is squared l2", func(t *testing.T) {
		fn, err := NewDistanceFunc(SpaceEuclidean)
		require.NoError(t, err)
		assert.InDelta(t, 25.0, fn([]float32{0, 0}, []float32{3, 4}), 1e-6)
	})

	t.Run("cosine of identical vectors is zero", func(t *testing.T) {
		fn, err := NewDistanceFunc(SpaceCosine)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, fn([]float32{1, 2}, []float32{2, 4}), 1e-6)
	})

	t.Run("unknown space", func(t *testing.T) {
		_, err := NewDistanceFunc(Space(42))

		var spaceErr *ErrInvalidSpace
		require.ErrorAs(t, err, &spaceErr)
	})
}

func TestSpaceString(t *testing.T) {
	assert.Equal(t, "Euclidean", SpaceEuclidean.String())
	assert.Equal(t, "Cosine", SpaceCosine.String())
	assert.Equal(t, "Dot", SpaceDot.String())
	assert.Equal(t, "Unknown", Space(42).String())
}
