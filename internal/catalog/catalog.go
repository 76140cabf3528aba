// Package catalog provides the two star-pair feature store back-ends: a
// SQLite-backed indexed store and an in-memory k-vector index.
package catalog

import "gonum.org/v1/gonum/floats"

// Feature is a single catalog star-pair entry: two catalog identifiers and
// the angular separation between them, in degrees.
type Feature struct {
	ID1, ID2 int
	Theta    float32
}

// Store is the common query surface both catalog back-ends implement.
//
// Range returns every feature whose angular separation lies strictly
// between lo and hi. The SQLite back-end returns an exact answer; the
// k-vector back-end is permitted (and expected) to return a superset —
// callers that need exactness must filter results themselves.
//
// RangeWithID additionally restricts to features that reference id in
// either slot, under the same superset contract for the k-vector back-end.
//
// Lookup returns the single feature (if any) matching an exact pair of
// catalog ids, independent of the order id1/id2 are given in.
type Store interface {
	Range(lo, hi float32) ([]Feature, error)
	RangeWithID(lo, hi float32, id int) ([]Feature, error)
	Lookup(id1, id2 int) (Feature, bool, error)
	Close() error
}

func referencesID(f Feature, id int) bool {
	return f.ID1 == id || f.ID2 == id
}

func matchesPair(f Feature, id1, id2 int) bool {
	return (f.ID1 == id1 && f.ID2 == id2) || (f.ID1 == id2 && f.ID2 == id1)
}

func filterByID(features []Feature, id int) []Feature {
	var out []Feature
	for _, f := range features {
		if referencesID(f, id) {
			out = append(out, f)
		}
	}
	return out
}

// filterByRange narrows a superset slice down to the exact (lo, hi) range.
// It is a utility for callers that need an exact answer out of a
// superset-returning back-end (e.g. the k-vector index); neither catalog
// back-end calls it itself, since Store's contract permits Range to
// over-select. The membership test runs over the features' theta values
// via gonum/floats.Find rather than a hand-rolled loop.
func filterByRange(features []Feature, lo, hi float32) []Feature {
	thetas := make([]float64, len(features))
	for i, f := range features {
		thetas[i] = float64(f.Theta)
	}
	inRange := func(theta float64) bool {
		return theta > float64(lo) && theta < float64(hi)
	}
	idxs, err := floats.Find(nil, inRange, thetas, -1)
	if err != nil {
		return nil
	}

	out := make([]Feature, len(idxs))
	for i, idx := range idxs {
		out[i] = features[idx]
	}
	return out
}
