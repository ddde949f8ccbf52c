package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain"
	domrec "github.com/kailas-cloud/idintake/internal/domain/recognition"
	"github.com/kailas-cloud/idintake/internal/logger"
	"github.com/kailas-cloud/idintake/internal/metrics"
)

// Default poll schedule: worst case attempts x interval, about 30s.
const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultMaxAttempts  = 20
)

// Service drives a recognition job from submission to a terminal status.
type Service struct {
	recognizer  Recognizer
	interval    time.Duration
	maxAttempts int
}

// New creates a recognition service with the default poll schedule.
func New(recognizer Recognizer) *Service {
	return &Service{
		recognizer:  recognizer,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithPolling overrides the poll schedule. Non-positive values keep the defaults.
func (s *Service) WithPolling(interval time.Duration, maxAttempts int) *Service {
	if interval > 0 {
		s.interval = interval
	}
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	return s
}

// Submit sends the image and returns a submitted job.
func (s *Service) Submit(ctx context.Context, image []byte) (*domrec.Job, error) {
	if len(image) == 0 {
		return nil, domain.ErrEmptyImage
	}
	handle, err := s.recognizer.Submit(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("submit image: %w", err)
	}
	job, err := domrec.NewJob(image, handle, s.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("submit image: %w", err)
	}
	return job, nil
}

// Poll waits for the job to reach a terminal status.
// Each attempt sleeps the interval first, then fetches once. Unreadable or
// unreachable polls consume an attempt and the loop continues. Cancellation
// stops polling; the upstream job is left alone.
func (s *Service) Poll(ctx context.Context, job *domrec.Job) ([]string, error) {
	log := logger.FromContext(ctx).With(zap.String("job_id", job.ID()))

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for job.CanPoll() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("poll canceled after %d attempts: %w", job.Attempt(), ctx.Err())
		case <-timer.C:
		}

		snap, err := s.recognizer.Fetch(ctx, job.Handle())
		switch {
		case err == nil:
			if oerr := job.Observe(snap); oerr != nil {
				_ = job.Miss()
				metrics.RecognitionPollsTotal.WithLabelValues("miss").Inc()
				log.Warn("out of order poll status", zap.String("status", string(snap.Status)), zap.Error(oerr))
				break
			}
			metrics.RecognitionPollsTotal.WithLabelValues(pollResult(snap.Status)).Inc()
		case ctx.Err() != nil:
			return nil, fmt.Errorf("poll canceled after %d attempts: %w", job.Attempt(), ctx.Err())
		case errors.Is(err, domain.ErrPollMiss), errors.Is(err, domain.ErrRecognizerUnreachable):
			_ = job.Miss()
			metrics.RecognitionPollsTotal.WithLabelValues("miss").Inc()
			log.Warn("poll miss",
				zap.Int("attempt", job.Attempt()),
				zap.Int("max_attempts", job.MaxAttempts()),
				zap.Error(err),
			)
		default:
			return nil, fmt.Errorf("poll job: %w", err)
		}

		if !job.Status().IsTerminal() {
			log.Debug("job pending",
				zap.String("status", string(job.Status())),
				zap.Int("attempt", job.Attempt()),
			)
			timer.Reset(s.interval)
		}
	}

	switch job.Status() {
	case domrec.StatusSucceeded:
		return job.Lines(), nil
	case domrec.StatusFailed:
		return nil, domain.ErrRecognitionFailed
	default:
		return nil, domain.ErrRecognitionTimedOut
	}
}

// Recognize submits the image and polls to completion, returning lines in reading order.
func (s *Service) Recognize(ctx context.Context, image []byte) ([]string, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	job, err := s.Submit(ctx, image)
	if err != nil {
		metrics.RecognitionJobsTotal.WithLabelValues(outcomeOf(ctx, err)).Inc()
		return nil, err
	}
	log.Info("recognition job submitted",
		zap.String("job_id", job.ID()),
		zap.Int("image_bytes", len(image)),
	)

	lines, err := s.Poll(ctx, job)
	metrics.RecognitionJobsTotal.WithLabelValues(outcomeOf(ctx, err)).Inc()
	if err != nil {
		log.Warn("recognition job ended without lines",
			zap.String("job_id", job.ID()),
			zap.String("status", string(job.Status())),
			zap.Int("attempts", job.Attempt()),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.RecognitionDuration.Observe(time.Since(start).Seconds())
	log.Info("recognition job succeeded",
		zap.String("job_id", job.ID()),
		zap.Int("attempts", job.Attempt()),
		zap.Int("lines", len(lines)),
	)
	return lines, nil
}

func pollResult(s domrec.Status) string {
	switch s {
	case domrec.StatusSucceeded:
		return "succeeded"
	case domrec.StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

func outcomeOf(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, domain.ErrRecognitionFailed):
		return "failed"
	case errors.Is(err, domain.ErrRecognitionTimedOut):
		return "timed_out"
	case errors.Is(err, domain.ErrRecognizerRejected), errors.Is(err, domain.ErrMissingJobHandle):
		return "rejected"
	case errors.Is(err, domain.ErrRecognizerUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
