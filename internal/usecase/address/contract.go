package address

import (
	"context"

	"github.com/kailas-cloud/idintake/internal/domain/geo"
)

// Reference searches one level of the hierarchy by name substring, optionally scoped by parent code.
type Reference interface {
	Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error)
}

// Ranker picks the best candidate for a query. ok=false means no acceptable candidate.
type Ranker interface {
	Pick(query string, candidates []geo.Entry) (geo.Entry, bool)
}
