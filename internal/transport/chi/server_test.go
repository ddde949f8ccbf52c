package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	healthuc "github.com/kailas-cloud/idintake/internal/usecase/health"
	"github.com/kailas-cloud/idintake/internal/usecase/intake"
)

// --- Mocks ---

type mockIntake struct {
	scanFn        func(ctx context.Context, image []byte) (intake.Result, error)
	scanEncodedFn func(ctx context.Context, encoded string) (intake.Result, error)
	extractFn     func(ctx context.Context, lines []string) identity.Identity
}

func (m *mockIntake) Scan(ctx context.Context, image []byte) (intake.Result, error) {
	return m.scanFn(ctx, image)
}

func (m *mockIntake) ScanEncoded(ctx context.Context, encoded string) (intake.Result, error) {
	return m.scanEncodedFn(ctx, encoded)
}

func (m *mockIntake) Extract(ctx context.Context, lines []string) identity.Identity {
	return m.extractFn(ctx, lines)
}

type mockAddress struct {
	resolveFn func(ctx context.Context, in geo.Input) geo.Resolution
	searchFn  func(ctx context.Context, level geo.Level, text, parent string) ([]geo.Entry, error)
}

func (m *mockAddress) Resolve(ctx context.Context, in geo.Input) geo.Resolution {
	return m.resolveFn(ctx, in)
}

func (m *mockAddress) Search(ctx context.Context, level geo.Level, text, parent string) ([]geo.Entry, error) {
	return m.searchFn(ctx, level, text, parent)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(in *mockIntake, addr *mockAddress, h *mockHealth) http.Handler {
	if in == nil {
		in = &mockIntake{}
	}
	if addr == nil {
		addr = &mockAddress{}
	}
	if h == nil {
		h = &mockHealth{}
	}
	r := chi.NewRouter()
	NewServer(in, addr, h, zap.NewNop()).WithMaxBodyBytes(1024).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func scanResult() intake.Result {
	age := 34
	return intake.Result{
		Lines: []string{"DRIVER'S LICENSE", "DELA CRUZ, JUAN"},
		Identity: identity.New(identity.Fields{
			FullName:     "DELA CRUZ, JUAN",
			BirthDate:    "1990-06-15",
			DocumentType: identity.DocDriversLicense,
			Age:          &age,
		}),
	}
}

// --- Tests ---

func TestScanIdentity_JSON(t *testing.T) {
	var got string
	in := &mockIntake{scanEncodedFn: func(_ context.Context, encoded string) (intake.Result, error) {
		got = encoded
		return scanResult(), nil
	}}

	rr := do(t, newTestRouter(in, nil, nil), "POST", "/v1/identity/scan",
		"application/json; charset=utf-8", []byte(`{"image":"aGVsbG8="}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if got != "aGVsbG8=" {
		t.Errorf("image = %q", got)
	}
	var resp ScanResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Lines) != 2 || resp.Identity.DocumentType != "Driver's License" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Identity.Age == nil || *resp.Identity.Age != 34 {
		t.Errorf("age = %v", resp.Identity.Age)
	}
	if strings.Join(resp.Identity.Missing, ",") != "address,id_number" {
		t.Errorf("missing = %v", resp.Identity.Missing)
	}
}

func TestScanIdentity_RawBytes(t *testing.T) {
	var got []byte
	in := &mockIntake{scanFn: func(_ context.Context, image []byte) (intake.Result, error) {
		got = image
		return intake.Result{Identity: identity.New(identity.Fields{})}, nil
	}}

	rr := do(t, newTestRouter(in, nil, nil), "POST", "/v1/identity/scan", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !bytes.Equal(got, []byte{0xFF, 0xD8, 0xFF}) {
		t.Errorf("image = %v", got)
	}
	if !strings.Contains(rr.Body.String(), `"lines":[]`) {
		t.Errorf("lines must encode as empty array: %s", rr.Body)
	}
}

func TestScanIdentity_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{domain.ErrEmptyImage, http.StatusBadRequest, ErrorCodeEmptyImage},
		{fmt.Errorf("%w: bad base64", domain.ErrInvalidImage), http.StatusBadRequest, ErrorCodeInvalidImage},
		{domain.NewRecognizerRejected(400, "InvalidImageSize", "too small"), http.StatusBadGateway, ErrorCodeRecognizerRejected},
		{domain.ErrMissingJobHandle, http.StatusBadGateway, ErrorCodeMissingJobHandle},
		{fmt.Errorf("dial: %w", domain.ErrRecognizerUnreachable), http.StatusServiceUnavailable, ErrorCodeRecognizerUnreachable},
		{domain.ErrRecognitionFailed, http.StatusUnprocessableEntity, ErrorCodeRecognitionFailed},
		{domain.ErrRecognitionTimedOut, http.StatusGatewayTimeout, ErrorCodeRecognitionTimedOut},
		{errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			in := &mockIntake{scanEncodedFn: func(context.Context, string) (intake.Result, error) {
				return intake.Result{}, tt.err
			}}
			rr := do(t, newTestRouter(in, nil, nil), "POST", "/v1/identity/scan",
				"application/json", []byte(`{"image":"x"}`))

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if e := decodeError(t, rr); e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestScanIdentity_MessagesDoNotLeakInternals(t *testing.T) {
	in := &mockIntake{scanEncodedFn: func(context.Context, string) (intake.Result, error) {
		return intake.Result{}, fmt.Errorf("poll https://secret.internal/ops/1: %w", domain.ErrRecognitionTimedOut)
	}}
	rr := do(t, newTestRouter(in, nil, nil), "POST", "/v1/identity/scan", "application/json", []byte(`{"image":"x"}`))

	e := decodeError(t, rr)
	if e.Message != domain.ErrRecognitionTimedOut.Error() {
		t.Errorf("message = %q", e.Message)
	}
}

func TestScanIdentity_BadBodies(t *testing.T) {
	in := &mockIntake{}
	h := newTestRouter(in, nil, nil)

	rr := do(t, h, "POST", "/v1/identity/scan", "application/json", []byte(`{not json`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed json: status = %d", rr.Code)
	}

	big := []byte(`{"image":"` + strings.Repeat("A", 2048) + `"}`)
	rr = do(t, h, "POST", "/v1/identity/scan", "application/json", big)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: status = %d", rr.Code)
	}
}

func TestExtractIdentity(t *testing.T) {
	in := &mockIntake{extractFn: func(_ context.Context, lines []string) identity.Identity {
		if len(lines) != 1 || lines[0] != "UMID" {
			t.Errorf("lines = %v", lines)
		}
		return identity.New(identity.Fields{DocumentType: identity.DocUMID})
	}}

	rr := do(t, newTestRouter(in, nil, nil), "POST", "/v1/identity/extract", "application/json", []byte(`{"lines":["UMID"]}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp IdentityResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.DocumentType != "UMID" || resp.Age != nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestResolveAddress(t *testing.T) {
	addr := &mockAddress{resolveFn: func(_ context.Context, in geo.Input) geo.Resolution {
		if in.City != "Mabalacat" {
			t.Errorf("input = %+v", in)
		}
		return geo.Resolution{City: &geo.Match{Code: "035409", Name: "Mabalacat City", ZipCode: "2010"}}
	}}

	rr := do(t, newTestRouter(nil, addr, nil), "POST", "/v1/address/resolve", "application/json",
		[]byte(`{"city":"Mabalacat","barangay":"Atlu"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	want := `{"province":null,"city":{"code":"035409","name":"Mabalacat City","zip_code":"2010"},"barangay":null}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body = %s", got)
	}
}

func TestSearchPlaces(t *testing.T) {
	var gotLevel geo.Level
	var gotText, gotParent string
	addr := &mockAddress{searchFn: func(_ context.Context, level geo.Level, text, parent string) ([]geo.Entry, error) {
		gotLevel, gotText, gotParent = level, text, parent
		return []geo.Entry{{Level: geo.LevelCity, Code: "035409", Name: "Mabalacat City", ParentCode: "0354", Kind: geo.KindCity}}, nil
	}}

	rr := do(t, newTestRouter(nil, addr, nil), "GET", "/v1/geo/city?q=mabalacat&parent=0354", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if gotLevel != geo.LevelCity || gotText != "mabalacat" || gotParent != "0354" {
		t.Errorf("args = %s %q %q", gotLevel, gotText, gotParent)
	}
	var resp PlaceListResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Level != "city" || len(resp.Items) != 1 || resp.Items[0].Kind != "city" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSearchPlaces_BadRequests(t *testing.T) {
	addr := &mockAddress{searchFn: func(_ context.Context, level geo.Level, _, parent string) ([]geo.Entry, error) {
		if level == geo.LevelBarangay && parent == "" {
			return nil, domain.ErrScopeRequired
		}
		return nil, nil
	}}
	h := newTestRouter(nil, addr, nil)

	tests := []struct {
		path string
		code ErrorCode
	}{
		{"/v1/geo/region?q=x", ErrorCodeInvalidLevel},
		{"/v1/geo/city", ErrorCodeBadRequest},
		{"/v1/geo/city?q=%20%20", ErrorCodeBadRequest},
		{"/v1/geo/barangay?q=atlu", ErrorCodeScopeRequired},
	}
	for _, tt := range tests {
		rr := do(t, h, "GET", tt.path, "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tt.path, rr.Code)
			continue
		}
		if e := decodeError(t, rr); e.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.path, e.Code, tt.code)
		}
	}
}

func TestSearchPlaces_EmptyItems(t *testing.T) {
	addr := &mockAddress{searchFn: func(context.Context, geo.Level, string, string) ([]geo.Entry, error) {
		return nil, nil
	}}
	rr := do(t, newTestRouter(nil, addr, nil), "GET", "/v1/geo/province?q=zzz", "", nil)
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("items must encode as empty array: %s", rr.Body)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := &mockHealth{report: healthuc.Report{
			Status:  tt.status,
			Version: "dev",
			Checks:  map[string]healthuc.CheckResult{"reference": healthuc.CheckOK},
		}}
		rr := do(t, newTestRouter(nil, nil, h), "GET", "/health", "", nil)
		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.status, rr.Code, tt.want)
		}
		var resp HealthResponse
		_ = json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Status != string(tt.status) || resp.Checks["reference"] != "ok" {
			t.Errorf("unexpected body: %+v", resp)
		}
	}
}

func TestRoutes_NotFoundAndMethod(t *testing.T) {
	h := newTestRouter(nil, nil, nil)

	rr := do(t, h, "GET", "/v1/nope", "", nil)
	if rr.Code != http.StatusNotFound || decodeError(t, rr).Code != ErrorCodeNotFound {
		t.Errorf("not found: %d", rr.Code)
	}

	rr = do(t, h, "GET", "/v1/identity/scan", "", nil)
	if rr.Code != http.StatusMethodNotAllowed || decodeError(t, rr).Code != ErrorCodeMethodNotAllowed {
		t.Errorf("method not allowed: %d", rr.Code)
	}
}

func TestMiddleware_RecovererAndRequestID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(zap.NewNop()))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(zap.NewNop()))
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := do(t, r, "GET", "/panic", "", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if decodeError(t, rr).Code != ErrorCodeInternalError {
		t.Error("expected internal_error body")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestScanIdentity_ClientCanceled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	in := &mockIntake{scanFn: func(context.Context, []byte) (intake.Result, error) {
		return intake.Result{}, fmt.Errorf("poll job: %w", context.Canceled)
	}}
	r := chi.NewRouter()
	NewServer(in, &mockAddress{}, &mockHealth{}, zap.New(core)).Routes(r)

	rr := do(t, r, "POST", "/v1/identity/scan", "application/octet-stream", []byte{0xFF, 0xD8})

	if rr.Code != statusClientClosedRequest {
		t.Fatalf("status = %d, want %d", rr.Code, statusClientClosedRequest)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %s", rr.Body)
	}
	if n := logs.Len(); n != 0 {
		t.Errorf("expected no info-or-above log entries, got %d: %v", n, logs.All())
	}
}
