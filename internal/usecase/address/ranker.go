package address

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

// FirstResult keeps the reference ordering (name-ascending) and takes the head.
type FirstResult struct{}

// Pick implements Ranker.
func (FirstResult) Pick(_ string, candidates []geo.Entry) (geo.Entry, bool) {
	if len(candidates) == 0 {
		return geo.Entry{}, false
	}
	return candidates[0], true
}

// Similarity picks the candidate whose name is closest to the query by
// normalized Levenshtein similarity. Ties keep reference order.
type Similarity struct {
	// MinScore in [0, 1]; candidates below it are rejected.
	MinScore float64
}

// Pick implements Ranker.
func (s Similarity) Pick(query string, candidates []geo.Entry) (geo.Entry, bool) {
	q := normalize(query)
	best, bestScore := -1, -1.0
	for i, c := range candidates {
		score := levenshtein.Similarity(q, normalize(c.Name), nil)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < s.MinScore {
		return geo.Entry{}, false
	}
	return candidates[best], true
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
