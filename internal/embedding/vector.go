package embedding

import (
	"fmt"
	"math"
)

// DefaultDimension matches the bge-small / voyage-lite family both providers
// are configured with. Every vector stored or queried must have this length.
const DefaultDimension = 384

// Normalize scales v to unit Euclidean norm in place and returns it. The
// zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Validate rejects vectors with the wrong dimension or non-finite elements.
// Mismatches are a hard error, never silently reshaped.
func Validate(v []float32, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("embedding has dimension %d, want %d", len(v), dim)
	}
	for i, val := range v {
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding element %d is not a finite number", i)
		}
	}
	return nil
}
