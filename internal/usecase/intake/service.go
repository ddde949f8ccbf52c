package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	domrec "github.com/kailas-cloud/idintake/internal/domain/recognition"
	"github.com/kailas-cloud/idintake/internal/logger"
)

// DefaultTimeout bounds a whole scan: submission plus polling.
const DefaultTimeout = 40 * time.Second

// Result is the outcome of a scan.
type Result struct {
	Lines    []string
	Identity identity.Identity
}

// Service runs recognize → extract → refine.
type Service struct {
	recognizer recognizer
	extractor  extractor
	refiner    Refiner
	timeout    time.Duration
}

// New creates an intake service.
func New(rec recognizer, ext extractor) *Service {
	return &Service{recognizer: rec, extractor: ext, timeout: DefaultTimeout}
}

// WithRefiner enables model-assisted filling of missing fields.
func (s *Service) WithRefiner(r Refiner) *Service {
	s.refiner = r
	return s
}

// WithTimeout overrides the scan deadline. Non-positive keeps the default.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// ScanEncoded decodes a base64 or data-URI image and scans it.
func (s *Service) ScanEncoded(ctx context.Context, encoded string) (Result, error) {
	image, err := domrec.DecodeImage(encoded)
	if err != nil {
		return Result{}, err
	}
	return s.Scan(ctx, image)
}

// Scan recognizes text on the image and extracts identity fields from it.
func (s *Service) Scan(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, domain.ErrEmptyImage
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = logger.With(ctx, zap.Duration("scan_timeout", s.timeout))

	lines, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		// Only the scan's own deadline is a timeout; per-request deadlines below
		// it keep their kind (unreachable, poll miss).
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrRecognitionTimedOut) {
			return Result{}, fmt.Errorf("scan deadline %s exceeded: %w", s.timeout, domain.ErrRecognitionTimedOut)
		}
		return Result{}, err
	}

	return Result{Lines: lines, Identity: s.Extract(ctx, lines)}, nil
}

// Extract runs the heuristics and, when configured, the refiner. Never fails.
func (s *Service) Extract(ctx context.Context, lines []string) identity.Identity {
	id := s.extractor.Extract(lines)
	if s.refiner == nil || len(lines) == 0 {
		return id
	}
	missing := id.Missing()
	if len(missing) == 0 {
		return id
	}

	refined, err := s.refiner.Refine(ctx, lines, missing)
	if err != nil {
		logger.FromContext(ctx).Warn("refiner failed, keeping heuristic fields",
			zap.Strings("missing", missing),
			zap.Error(err),
		)
		return id
	}
	return s.merge(id, refined)
}

// merge fills only empty fields. Document type stays heuristic; age is
// derived again when the birth date came from the refiner.
func (s *Service) merge(id identity.Identity, refined identity.Fields) identity.Identity {
	f := id.Fields()
	if f.FullName == "" {
		f.FullName = refined.FullName
	}
	if f.BirthDate == "" && refined.BirthDate != "" {
		f.BirthDate = refined.BirthDate
		f.Age = s.extractor.Age(f.BirthDate)
	}
	if f.AddressText == "" {
		f.AddressText = refined.AddressText
	}
	if f.IDNumber == "" {
		f.IDNumber = refined.IDNumber
	}
	return identity.New(f)
}
