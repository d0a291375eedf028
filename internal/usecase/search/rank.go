package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// rank scores every record against the query by raw dot product and orders the
// result by score descending, then entity id ascending. Records whose dimension
// differs from the query are left out.
func rank(query []float32, records []domain.VectorRecord) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Embedding) != len(query) {
			continue
		}
		out = append(out, domain.ScoredCandidate{EntityID: rec.EntityID, Score: dot(query, rec.Embedding)})
	}

	slices.SortFunc(out, func(a, b domain.ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
