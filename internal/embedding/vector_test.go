package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeUnitNorm(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{name: "simple", in: []float32{3, 4}},
		{name: "negative values", in: []float32{-1, 2, -3, 4}},
		{name: "tiny values", in: []float32{1e-5, 2e-5, 3e-5}},
		{name: "already unit", in: []float32{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(append([]float32(nil), tt.in...))
			require.Len(t, got, len(tt.in))
			var sum float64
			for _, v := range got {
				sum += float64(v) * float64(v)
			}
			require.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
		})
	}
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	zero := []float32{0, 0, 0}
	got := Normalize(zero)
	require.Equal(t, []float32{0, 0, 0}, got)
}

func TestValidate(t *testing.T) {
	ok := make([]float32, DefaultDimension)
	ok[0] = 1
	require.NoError(t, Validate(ok, DefaultDimension))

	short := make([]float32, 100)
	require.Error(t, Validate(short, DefaultDimension))

	bad := make([]float32, DefaultDimension)
	bad[7] = float32(math.NaN())
	require.Error(t, Validate(bad, DefaultDimension))

	inf := make([]float32, DefaultDimension)
	inf[0] = float32(math.Inf(1))
	require.Error(t, Validate(inf, DefaultDimension))
}
