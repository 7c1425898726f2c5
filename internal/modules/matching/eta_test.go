package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateETA(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		speed    float64
		want     int
	}{
		{"at pickup", 0, 30, 2},
		{"one km", 1, 30, 4},
		{"five km", 5, 30, 12},
		{"fast road", 10, 60, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateETA(tt.distance, tt.speed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateETA_InvalidInput(t *testing.T) {
	_, err := CalculateETA(3, 0)
	assert.ErrorIs(t, err, ErrInvalidSpeed)
	_, err = CalculateETA(3, -10)
	assert.ErrorIs(t, err, ErrInvalidSpeed)
	_, err = CalculateETA(3, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidSpeed)
	_, err = CalculateETA(-1, 30)
	assert.ErrorIs(t, err, ErrInvalidDistance)
	_, err = CalculateETA(math.Inf(1), 30)
	assert.ErrorIs(t, err, ErrInvalidDistance)
}
