package identify

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/catalog"
)

func unitFromAngles(thetaDeg float64) r3.Vec {
	t := thetaDeg * math.Pi / 180
	return r3.Vec{X: math.Sin(t), Y: 0, Z: math.Cos(t)}
}

func TestIdentifyTwoStarSingleFeature(t *testing.T) {
	store, err := catalog.NewSQLStoreFromFeatures([]catalog.Feature{
		{ID1: 10, ID2: 20, Theta: 5.0},
	})
	if err != nil {
		t.Fatalf("NewSQLStoreFromFeatures: %v", err)
	}
	defer store.Close()

	vectors := []r3.Vec{unitFromAngles(0), unitFromAngles(5)}
	ids, err := Identify(vectors, store, 0.1, TwoStar)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] == -1 || ids[1] == -1 {
		t.Fatalf("expected both spots resolved, got %v", ids)
	}
	if (ids[0] != 10 || ids[1] != 20) && (ids[0] != 20 || ids[1] != 10) {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestIdentifyPyramidInsufficientInputs(t *testing.T) {
	store, err := catalog.NewSQLStoreFromFeatures(nil)
	if err != nil {
		t.Fatalf("NewSQLStoreFromFeatures: %v", err)
	}
	defer store.Close()

	vectors := []r3.Vec{unitFromAngles(0), unitFromAngles(1), unitFromAngles(2)}
	_, err = Identify(vectors, store, 0.1, PyramidIndexed)
	if err == nil {
		t.Fatal("expected error for fewer than 4 vectors")
	}
}

func TestIdentifyNegativeTolerance(t *testing.T) {
	store, err := catalog.NewSQLStoreFromFeatures(nil)
	if err != nil {
		t.Fatalf("NewSQLStoreFromFeatures: %v", err)
	}
	defer store.Close()

	_, err = Identify(nil, store, -1, TwoStar)
	if err == nil {
		t.Fatal("expected error for negative tolerance")
	}
}

func TestAngleDegClampsDomain(t *testing.T) {
	a := r3.Vec{X: 1, Y: 0, Z: 0}
	b := r3.Vec{X: 1.0000001, Y: 0, Z: 0} // not exactly unit; dot slightly > 1
	got := angleDeg(a, b)
	if math.IsNaN(float64(got)) {
		t.Fatal("angleDeg produced NaN; clamp failed")
	}
}

func TestBestCandidateTieBreaksToSmallerID(t *testing.T) {
	votes := map[int]int{5: 3, 2: 3, 9: 1}
	if got := bestCandidate(votes); got != 2 {
		t.Errorf("bestCandidate = %d, want 2", got)
	}
}
