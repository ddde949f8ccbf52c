package idintake

import (
	"errors"

	"github.com/kailas-cloud/idintake/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyImage            = domain.ErrEmptyImage
	ErrInvalidImage          = domain.ErrInvalidImage
	ErrRecognizerRejected    = domain.ErrRecognizerRejected
	ErrRecognizerUnreachable = domain.ErrRecognizerUnreachable
	ErrMissingJobHandle      = domain.ErrMissingJobHandle
	ErrRecognitionFailed     = domain.ErrRecognitionFailed
	ErrRecognitionTimedOut   = domain.ErrRecognitionTimedOut
	ErrInvalidLevel          = domain.ErrInvalidLevel
	ErrScopeRequired         = domain.ErrScopeRequired

	// ErrRecognizerNotConfigured is returned by Scan when WithRecognizer was not used.
	ErrRecognizerNotConfigured = errors.New("idintake: recognizer not configured (use WithRecognizer)")
)
