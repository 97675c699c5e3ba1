package similarity

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrZeroMagnitude     = errors.New("cosine similarity undefined for zero-magnitude vector")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// Cosine returns dot(a,b) / (|a| * |b|).
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroMagnitude
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push |sim| a hair past 1
	return math.Max(-1, math.Min(1, sim)), nil
}
