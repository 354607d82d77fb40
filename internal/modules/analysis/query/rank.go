package query

import "math"

// mmrLambda balances relevance against diversity when picking the top
// sections. Leaning toward relevance keeps near-duplicate headings from
// crowding out distinct material without burying the best match.
const mmrLambda = 0.72

// Cosine returns the cosine similarity of two vectors, 0 when either
// has no magnitude or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MMR runs maximal marginal relevance over the candidate vectors and
// returns the indices of the top k picks in selection order.
func MMR(queryVec []float64, candidates [][]float64, k int) []int {
	n := len(candidates)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	relevance := make([]float64, n)
	for i, c := range candidates {
		relevance[i] = Cosine(queryVec, c)
	}

	selected := make([]int, 0, k)
	taken := make([]bool, n)

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i := 0; i < n; i++ {
			if taken[i] {
				continue
			}
			redundancy := 0.0
			for _, s := range selected {
				if sim := Cosine(candidates[i], candidates[s]); sim > redundancy {
					redundancy = sim
				}
			}
			score := mmrLambda*relevance[i] - (1-mmrLambda)*redundancy
			if score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			break
		}
		selected = append(selected, best)
		taken[best] = true
	}
	return selected
}

// Contradictions returns indices whose similarity to the query vector
// is negative, most contradictory first.
func Contradictions(queryVec []float64, candidates [][]float64, limit int) []int {
	type scored struct {
		idx int
		sim float64
	}
	var hits []scored
	for i, c := range candidates {
		if sim := Cosine(queryVec, c); sim < 0 {
			hits = append(hits, scored{idx: i, sim: sim})
		}
	}
	// most negative first
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].sim < hits[j-1].sim; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.idx
	}
	return out
}
