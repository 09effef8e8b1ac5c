package vectorstore

import "math"

// selectMMR picks up to k candidate indexes balancing query relevance against
// similarity to already selected candidates. lambda=1 is pure relevance.
func selectMMR(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosine(query, c)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range selected {
				if sim := cosine(candidates[i], candidates[j]); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, best)
	}
	return selected
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
