package vector

import (
	"cmp"
	"math"
	"regexp"
	"slices"
)

// Rank filters results to those scoring at least threshold, orders them by
// descending score (ties broken by ID) and caps them at topK. A non-positive
// topK means no cap. Drivers run their backend results through Rank so every
// backend honors the same query contract.
func Rank(results []QueryResult, topK int, threshold float32) []QueryResult {
	kept := make([]QueryResult, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}

	slices.SortStableFunc(kept, func(a, b QueryResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}

	return kept
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 when either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
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

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// DistanceToSimilarity converts a cosine distance (1 - similarity) reported
// by a backend into a similarity score.
func DistanceToSimilarity(distance float32) float32 {
	return 1 - distance
}

var collectionPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

// ValidCollectionName reports whether name is safe to embed in table or
// collection identifiers across every backend.
func ValidCollectionName(name string) bool {
	return collectionPattern.MatchString(name)
}
