package storage

import (
	"math"
	"sort"
)

// score computes the similarity of a and b under d. Higher is closer.
// Euclidean distance is mapped to 1/(1+d) so that every metric ranks descending.
func score(d Distance, a, b []float32) float64 {
	switch d {
	case DistanceDot:
		return dot(a, b)
	case DistanceEuclid:
		return 1 / (1 + euclid(a, b))
	default:
		return cosine(a, b)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosine(a, b []float32) float64 {
	var ab, aa, bb float64
	for i := range a {
		ab += float64(a[i]) * float64(b[i])
		aa += float64(a[i]) * float64(a[i])
		bb += float64(b[i]) * float64(b[i])
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return ab / (math.Sqrt(aa) * math.Sqrt(bb))
}

func euclid(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// topK sorts hits by descending score (ties by ID) and truncates to k.
func topK(hits []ScoredPoint, k int) []ScoredPoint {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
