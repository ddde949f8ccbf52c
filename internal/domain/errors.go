package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage signals a scan request without image bytes.
	ErrEmptyImage = errors.New("image is empty")
	// ErrInvalidImage signals an image payload that cannot be decoded.
	ErrInvalidImage = errors.New("invalid image encoding")

	// ErrRecognizerRejected signals a non-accepted submission response.
	ErrRecognizerRejected = errors.New("recognizer rejected submission")
	// ErrRecognizerUnreachable signals a transport-level recognizer failure.
	ErrRecognizerUnreachable = errors.New("recognizer unreachable")
	// ErrMissingJobHandle signals an accepted submission without a job location.
	ErrMissingJobHandle = errors.New("recognizer returned no job location")
	// ErrPollMiss signals a poll response that could not be read. Transient.
	ErrPollMiss = errors.New("poll miss")
	// ErrRecognitionFailed signals that the recognizer reported a failed job.
	ErrRecognitionFailed = errors.New("text recognition failed")
	// ErrRecognitionTimedOut signals that polling exhausted its attempts.
	ErrRecognitionTimedOut = errors.New("text recognition timed out, try a clearer image")
	// ErrJobFinished signals an observation on a job that already reached a terminal status.
	ErrJobFinished = errors.New("recognition job already finished")

	// ErrInvalidLevel signals an unknown geographic level.
	ErrInvalidLevel = errors.New("invalid geographic level")
	// ErrScopeRequired signals a barangay search without a city scope.
	ErrScopeRequired = errors.New("parent scope required")

	// ErrRefinerFailed signals an unusable refiner response. Never surfaced to API callers.
	ErrRefinerFailed = errors.New("refiner failed")
)

// RecognizerRejectedError wraps ErrRecognizerRejected with the upstream status and message.
type RecognizerRejectedError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RecognizerRejectedError) Error() string {
	msg := fmt.Sprintf("%s: status %d", ErrRecognizerRejected.Error(), e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *RecognizerRejectedError) Unwrap() error { return ErrRecognizerRejected }

// NewRecognizerRejected creates a rejected submission error.
func NewRecognizerRejected(statusCode int, code, message string) error {
	return &RecognizerRejectedError{StatusCode: statusCode, Code: code, Message: message}
}
