package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointSet(t *testing.T) {
	t.Run("default ids", func(t *testing.T) {
		ps, err := NewPointSet(2, []float64{0, 1, 2, 3, 4, 5}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, ps.Len())
		assert.Equal(t, 2, ps.Dim())
		assert.Equal(t, []float64{2, 3}, ps.At(1))
		assert.Equal(t, int64(2), ps.ID(2))
	})

	t.Run("custom ids", func(t *testing.T) {
		ps, err := NewPointSet(1, []float64{7, 8}, []int64{10, 20})
		require.NoError(t, err)
		assert.Equal(t, int64(20), ps.ID(1))
	})

	cases := []struct {
		name string
		dim  int
		data []float64
		ids  []int64
	}{
		{"zero dimension", 0, []float64{1}, nil},
		{"ragged data", 2, []float64{1, 2, 3}, nil},
		{"id count mismatch", 1, []float64{1, 2}, []int64{1}},
		{"nan coordinate", 1, []float64{math.NaN()}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPointSet(tc.dim, tc.data, tc.ids)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestFromRows(t *testing.T) {
	ps, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, ps.Rows())

	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAtIsCapped(t *testing.T) {
	ps, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	row := ps.At(0)
	row = append(row, 99)
	assert.Equal(t, []float64{3, 4}, ps.At(1))
	assert.Len(t, row, 3)
}
