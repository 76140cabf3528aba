// Package identify matches a set of observed unit direction vectors against
// a star-pair feature catalog, assigning each spot a catalog id or -1.
package identify

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/apperr"
	"startracker/internal/catalog"
)

// Method selects the identification algorithm.
type Method int

const (
	TwoStar Method = iota
	PyramidIndexed
	PyramidKVector
)

// Identify assigns a catalog id (or -1, for unresolved) to each vector in
// vectors. eps is the angular tolerance, in degrees, used both for catalog
// range queries and for validating candidate matches.
//
// PyramidIndexed and PyramidKVector run the identical pyramid algorithm;
// they differ only in which catalog.Store implementation the caller wires
// in (SQL back-end vs k-vector back-end).
func Identify(vectors []r3.Vec, store catalog.Store, eps float32, method Method) ([]int, error) {
	if eps < 0 {
		return nil, fmt.Errorf("identify: negative tolerance: %w", apperr.ErrInvalidArgument)
	}
	if store == nil {
		return nil, fmt.Errorf("identify: nil catalog store: %w", apperr.ErrCatalogUnavailable)
	}

	switch method {
	case TwoStar:
		return identifyTwoStar(vectors, store, eps)
	case PyramidIndexed, PyramidKVector:
		return identifyPyramid(vectors, store, eps)
	default:
		return nil, fmt.Errorf("identify: unknown method %v: %w", method, apperr.ErrInvalidArgument)
	}
}

// angleDeg returns the angle, in degrees, between two unit vectors, with
// the dot product clamped to [-1, 1] before acos to guard against
// floating-point drift pushing it just outside the domain.
func angleDeg(a, b r3.Vec) float32 {
	cos := r3.Dot(a, b)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return float32(math.Acos(cos) * 180 / math.Pi)
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// bestCandidate returns the id with the highest vote count in v, breaking
// ties by smaller id (achieved by scanning ids in ascending order and only
// replacing the current best on a strict improvement).
func bestCandidate(v map[int]int) int {
	best := -1
	bestCount := -1
	for _, id := range sortedIntKeys(v) {
		if v[id] > bestCount {
			bestCount = v[id]
			best = id
		}
	}
	return best
}
