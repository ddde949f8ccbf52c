package health

import (
	"context"
	"time"

	"github.com/kailas-cloud/idintake/internal/version"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the reference store is failing.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each individual ping.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status  Status
	Version string
	Checks  map[string]CheckResult
}

type optionalCheck struct {
	name   string
	pinger Pinger
}

// Service coordinates health checks.
type Service struct {
	reference Pinger
	optional  []optionalCheck
	timeout   time.Duration
}

// New creates a Service around the required reference store.
func New(reference Pinger) *Service {
	return &Service{reference: reference, timeout: DefaultCheckTimeout}
}

// WithOptional adds a non-critical check. A nil pinger is ignored.
func (s *Service) WithOptional(name string, p Pinger) *Service {
	if p != nil {
		s.optional = append(s.optional, optionalCheck{name: name, pinger: p})
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 1+len(s.optional))
	status := Healthy

	checks["reference"] = s.ping(ctx, s.reference)
	for _, c := range s.optional {
		r := s.ping(ctx, c.pinger)
		checks[c.name] = r
		if r == CheckError {
			status = Degraded
		}
	}
	if checks["reference"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Version: version.String(), Checks: checks}
}

func (s *Service) ping(ctx context.Context, p Pinger) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
