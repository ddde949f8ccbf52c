package recognition

import (
	"context"

	domrec "github.com/kailas-cloud/idintake/internal/domain/recognition"
)

// Recognizer is the external text-recognition service (submit + single poll).
type Recognizer interface {
	Submit(ctx context.Context, image []byte) (domrec.Handle, error)
	Fetch(ctx context.Context, handle domrec.Handle) (domrec.Snapshot, error)
}
