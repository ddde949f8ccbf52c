package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	healthuc "github.com/kailas-cloud/idintake/internal/usecase/health"
	"github.com/kailas-cloud/idintake/internal/usecase/intake"
)

// DefaultMaxBodyBytes caps request bodies when WithMaxBodyBytes is not used.
const DefaultMaxBodyBytes int64 = 10 << 20

// statusClientClosedRequest is nginx's 499, recorded when the caller disconnects.
const statusClientClosedRequest = 499

// Narrow interfaces (ISP): the server only needs these operations.

type intakeService interface {
	Scan(ctx context.Context, image []byte) (intake.Result, error)
	ScanEncoded(ctx context.Context, encoded string) (intake.Result, error)
	Extract(ctx context.Context, lines []string) identity.Identity
}

type addressService interface {
	Resolve(ctx context.Context, in geo.Input) geo.Resolution
	Search(ctx context.Context, level geo.Level, text, parentCode string) ([]geo.Entry, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the intake pipeline over HTTP.
type Server struct {
	intake        intakeService
	address       addressService
	health        healthService
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(in intakeService, addr addressService, health healthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		intake:       in,
		address:      addr,
		health:       health,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyImage, http.StatusBadRequest, ErrorCodeEmptyImage),
		sentinelHandler(domain.ErrInvalidImage, http.StatusBadRequest, ErrorCodeInvalidImage),
		rejectedHandler,
		sentinelHandler(domain.ErrMissingJobHandle, http.StatusBadGateway, ErrorCodeMissingJobHandle),
		sentinelHandler(domain.ErrRecognizerUnreachable, http.StatusServiceUnavailable, ErrorCodeRecognizerUnreachable),
		sentinelHandler(domain.ErrRecognitionFailed, http.StatusUnprocessableEntity, ErrorCodeRecognitionFailed),
		sentinelHandler(domain.ErrRecognitionTimedOut, http.StatusGatewayTimeout, ErrorCodeRecognitionTimedOut),
		sentinelHandler(domain.ErrInvalidLevel, http.StatusBadRequest, ErrorCodeInvalidLevel),
		sentinelHandler(domain.ErrScopeRequired, http.StatusBadRequest, ErrorCodeScopeRequired),
	}
	return s
}

// WithMaxBodyBytes overrides the request body cap. Non-positive keeps the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/identity/scan", s.ScanIdentity)
		r.Post("/identity/extract", s.ExtractIdentity)
		r.Post("/address/resolve", s.ResolveAddress)
		r.Get("/geo/{level}", s.SearchPlaces)
	})
}

// ScanIdentity handles POST /v1/identity/scan.
// Accepts {"image": "..."} JSON or raw image bytes.
func (s *Server) ScanIdentity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var (
		res intake.Result
		err error
	)
	if isJSON(r) {
		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBodyError(w, err)
			return
		}
		res, err = s.intake.ScanEncoded(r.Context(), req.Image)
	} else {
		image, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			s.writeBodyError(w, readErr)
			return
		}
		res, err = s.intake.Scan(r.Context(), image)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	lines := res.Lines
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, ScanResponse{Lines: lines, Identity: identityToAPI(res.Identity)})
}

// ExtractIdentity handles POST /v1/identity/extract.
func (s *Server) ExtractIdentity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBodyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, identityToAPI(s.intake.Extract(r.Context(), req.Lines)))
}

// ResolveAddress handles POST /v1/address/resolve.
func (s *Server) ResolveAddress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var in geo.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeBodyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.address.Resolve(r.Context(), in))
}

// SearchPlaces handles GET /v1/geo/{level}?q=...&parent=...
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	level, err := geo.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var (
		q      string
		parent *string
	)
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter q: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "parent", r.URL.Query(), &parent); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter parent: "+err.Error())
		return
	}
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "parameter q must not be blank")
		return
	}

	var parentCode string
	if parent != nil {
		parentCode = *parent
	}

	entries, err := s.address.Search(r.Context(), level, q, parentCode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, placesToAPI(level, entries))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: report.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyImage,
		domain.ErrInvalidImage,
		domain.ErrMissingJobHandle,
		domain.ErrRecognizerUnreachable,
		domain.ErrRecognitionFailed,
		domain.ErrRecognitionTimedOut,
		domain.ErrInvalidLevel,
		domain.ErrScopeRequired,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// rejectedHandler surfaces the upstream status and message of a rejected submission.
func rejectedHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrRecognizerRejected) {
		return false
	}
	msg := domain.ErrRecognizerRejected.Error()
	var rej *domain.RecognizerRejectedError
	if errors.As(err, &rej) {
		msg = rej.Error()
	}
	writeError(w, http.StatusBadGateway, ErrorCodeRecognizerRejected, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// client went away; nobody reads the body
		s.logger.Debug("request canceled by client", zap.Error(err))
		w.WriteHeader(statusClientClosedRequest)
		return
	}
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
