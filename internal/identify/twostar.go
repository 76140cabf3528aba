package identify

import (
	"gonum.org/v1/gonum/spatial/r3"

	"startracker/internal/catalog"
)

type observedPair struct {
	i, j  int
	theta float32
}

func observedPairs(vectors []r3.Vec) []observedPair {
	var pairs []observedPair
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			pairs = append(pairs, observedPair{i: i, j: j, theta: angleDeg(vectors[i], vectors[j])})
		}
	}
	return pairs
}

// identifyTwoStar runs the vote-then-validate algorithm: every observed
// pair votes for the catalog ids that fall within its angular tolerance
// window, each spot takes the id with the most votes (ties to the smaller
// id), then a validation pass repeatedly demotes whichever spot has the
// weakest cross-confirmation until every remaining spot clears the
// confirmation threshold or is marked unresolved.
func identifyTwoStar(vectors []r3.Vec, store catalog.Store, eps float32) ([]int, error) {
	n := len(vectors)
	idList := make([]int, n)
	for i := range idList {
		idList[i] = -1
	}
	if n < 2 {
		return idList, nil
	}

	votes := make([]map[int]int, n)
	for i := range votes {
		votes[i] = make(map[int]int)
	}

	for _, p := range observedPairs(vectors) {
		candidates, err := store.Range(p.theta-eps, p.theta+eps)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			votes[p.i][c.ID1]++
			votes[p.i][c.ID2]++
			votes[p.j][c.ID1]++
			votes[p.j][c.ID2]++
		}
	}

	falseStars := 0
	for i := range idList {
		if len(votes[i]) == 0 {
			idList[i] = -1
			falseStars++
			continue
		}
		idList[i] = bestCandidate(votes[i])
	}

	confirm := make([]int, n)
	maxIterations := n + 1
	for i := range votes {
		maxIterations += len(votes[i])
	}

	for iter := 0; iter < maxIterations; iter++ {
		for i := range confirm {
			if idList[i] < 0 {
				confirm[i] = n // already resolved as unresolved, never the weakest link
				continue
			}
			confirm[i] = 0
		}

		for i := 0; i < n-1; i++ {
			if idList[i] < 0 {
				continue
			}
			for j := i + 1; j < n; j++ {
				if idList[j] < 0 {
					continue
				}
				f, ok, err := store.Lookup(idList[i], idList[j])
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				observed := angleDeg(vectors[i], vectors[j])
				diff := f.Theta - observed
				if diff < 0 {
					diff = -diff
				}
				if diff <= eps {
					confirm[i]++
					confirm[j]++
				}
			}
		}

		threshold := n - falseStars - 1
		if falseStars >= n {
			break
		}

		minIdx := -1
		for i := 0; i < n; i++ {
			if idList[i] < 0 {
				continue
			}
			if minIdx == -1 || confirm[i] < confirm[minIdx] {
				minIdx = i
			}
		}
		if minIdx == -1 {
			break
		}
		if confirm[minIdx] >= threshold {
			break
		}

		delete(votes[minIdx], idList[minIdx])
		if len(votes[minIdx]) == 0 {
			idList[minIdx] = -1
			falseStars++
		} else {
			idList[minIdx] = bestCandidate(votes[minIdx])
		}
	}

	for i := range idList {
		if idList[i] >= 0 && confirm[i] < n-falseStars-1 {
			idList[i] = -1
		}
	}
	return idList, nil
}
