package intake

import (
	"context"

	"github.com/kailas-cloud/idintake/internal/domain/identity"
)

// Narrow interfaces (ISP): intake only needs these operations.

type recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]string, error)
}

type extractor interface {
	Extract(lines []string) identity.Identity
	Age(birthDate string) *int
}

// Refiner fills identity fields the heuristics left empty.
// missing lists field names (full_name, birth_date, address, id_number).
// Document type and age are never taken from it.
type Refiner interface {
	Refine(ctx context.Context, lines []string, missing []string) (identity.Fields, error)
}
