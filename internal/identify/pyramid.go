package identify

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/apperr"
	"startracker/internal/catalog"
)

// identifyPyramid implements the pyramid/triad method: iterate candidate
// triples (i, i+dj, i+dj+dk) in Mortari order (dj outer, dk middle, i
// inner), look for a uniquely-matching catalog triple, and on success
// confirm every other spot independently against the resolved triad.
func identifyPyramid(vectors []r3.Vec, store catalog.Store, eps float32) ([]int, error) {
	n := len(vectors)
	if n < 4 {
		return nil, fmt.Errorf("identify: pyramid method needs at least 4 vectors, got %d: %w", n, apperr.ErrInsufficientInputs)
	}

	idList := make([]int, n)
	for i := range idList {
		idList[i] = -1
	}

	for dj := 1; dj < n-1; dj++ {
		for dk := 1; dk < n-dj; dk++ {
			for i := 0; i < n-dj-dk; i++ {
				j := i + dj
				k := j + dk

				thetaIJ := angleDeg(vectors[i], vectors[j])
				thetaIK := angleDeg(vectors[i], vectors[k])
				thetaJK := angleDeg(vectors[j], vectors[k])

				listIJ, err := store.Range(thetaIJ-eps, thetaIJ+eps)
				if err != nil {
					return nil, err
				}
				if len(listIJ) == 0 {
					continue
				}
				listIK, err := store.Range(thetaIK-eps, thetaIK+eps)
				if err != nil {
					return nil, err
				}
				if len(listIK) == 0 {
					continue
				}
				listJK, err := store.Range(thetaJK-eps, thetaJK+eps)
				if err != nil {
					return nil, err
				}
				if len(listJK) == 0 {
					continue
				}

				hipI, hipJ, hipK, count := matchTriad(listIJ, listIK, listJK)
				if count != 1 {
					continue
				}

				for idx := range idList {
					idList[idx] = -1
				}
				idList[i], idList[j], idList[k] = hipI, hipJ, hipK

				if err := confirmRemaining(vectors, store, eps, idList, i, j, k, hipI, hipJ, hipK); err != nil {
					return nil, err
				}
				return idList, nil
			}
		}
	}
	return idList, nil
}

// matchTriad looks for exactly one triple (hipI, hipJ, hipK) of catalog ids
// such that listIJ contains the unordered pair (hipI, hipJ), listIK
// contains (hipI, hipK), and listJK contains (hipJ, hipK).
func matchTriad(listIJ, listIK, listJK []catalog.Feature) (hipI, hipJ, hipK, count int) {
	for _, fij := range listIJ {
		for _, fik := range listIK {
			var tempI, tempJ, tempK int
			switch {
			case fij.ID1 == fik.ID1 || fij.ID2 == fik.ID1:
				tempI = fik.ID1
				if fij.ID1 == tempI {
					tempJ = fij.ID2
				} else {
					tempJ = fij.ID1
				}
				tempK = fik.ID2
			case fij.ID1 == fik.ID2 || fij.ID2 == fik.ID2:
				tempI = fik.ID2
				if fij.ID1 == tempI {
					tempJ = fij.ID2
				} else {
					tempJ = fij.ID1
				}
				tempK = fik.ID1
			default:
				continue
			}

			for _, fjk := range listJK {
				if (fjk.ID1 == tempJ || fjk.ID2 == tempJ) && (fjk.ID1 == tempK || fjk.ID2 == tempK) {
					hipI, hipJ, hipK = tempI, tempJ, tempK
					count++
					break
				}
			}
		}
	}
	return
}

// confirmRemaining tries to resolve every spot other than i, j, k against
// the already-committed triad. Each spot r is resolved independently: one
// r failing to find a unique confirming id never disturbs another r's
// result or the committed triad.
func confirmRemaining(vectors []r3.Vec, store catalog.Store, eps float32, idList []int, i, j, k, hipI, hipJ, hipK int) error {
	for r := range vectors {
		if r == i || r == j || r == k {
			continue
		}
		thetaIR := angleDeg(vectors[i], vectors[r])
		thetaJR := angleDeg(vectors[j], vectors[r])
		thetaKR := angleDeg(vectors[k], vectors[r])

		listIR, err := store.RangeWithID(thetaIR-eps, thetaIR+eps, hipI)
		if err != nil {
			return err
		}
		if len(listIR) == 0 {
			continue
		}
		listJR, err := store.RangeWithID(thetaJR-eps, thetaJR+eps, hipJ)
		if err != nil {
			return err
		}
		if len(listJR) == 0 {
			continue
		}
		listKR, err := store.RangeWithID(thetaKR-eps, thetaKR+eps, hipK)
		if err != nil {
			return err
		}
		if len(listKR) == 0 {
			continue
		}

		id, ok := matchFourth(listIR, listJR, listKR, hipI)
		if ok {
			idList[r] = id
		}
	}
	return nil
}

// matchFourth looks for the unique catalog id that, paired with hipI in
// listIR, also appears in listJR and listKR.
func matchFourth(listIR, listJR, listKR []catalog.Feature, hipI int) (int, bool) {
	candidates := make(map[int]bool)
	for _, fir := range listIR {
		idCheck := fir.ID1
		if idCheck == hipI {
			idCheck = fir.ID2
		}

		if !referencesID2(listJR, idCheck) {
			continue
		}
		if !referencesID2(listKR, idCheck) {
			continue
		}
		candidates[idCheck] = true
	}
	if len(candidates) != 1 {
		return 0, false
	}
	for id := range candidates {
		return id, true
	}
	return 0, false
}

func referencesID2(features []catalog.Feature, id int) bool {
	for _, f := range features {
		if f.ID1 == id || f.ID2 == id {
			return true
		}
	}
	return false
}
