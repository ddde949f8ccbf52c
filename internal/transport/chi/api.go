package chi

import (
	"github.com/kailas-cloud/idintake/internal/domain/geo"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
)

// ErrorCode is the machine-readable error code in API responses.
type ErrorCode string

const (
	ErrorCodeBadRequest            ErrorCode = "bad_request"
	ErrorCodeUnauthorized          ErrorCode = "unauthorized"
	ErrorCodeNotFound              ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed      ErrorCode = "method_not_allowed"
	ErrorCodeEmptyImage            ErrorCode = "empty_image"
	ErrorCodeInvalidImage          ErrorCode = "invalid_image"
	ErrorCodePayloadTooLarge       ErrorCode = "payload_too_large"
	ErrorCodeRecognizerRejected    ErrorCode = "recognizer_rejected"
	ErrorCodeMissingJobHandle      ErrorCode = "missing_job_handle"
	ErrorCodeRecognizerUnreachable ErrorCode = "recognizer_unreachable"
	ErrorCodeRecognitionFailed     ErrorCode = "recognition_failed"
	ErrorCodeRecognitionTimedOut   ErrorCode = "recognition_timed_out"
	ErrorCodeInvalidLevel          ErrorCode = "invalid_level"
	ErrorCodeScopeRequired         ErrorCode = "scope_required"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ScanRequest carries a base64 image or data URI.
type ScanRequest struct {
	Image string `json:"image"`
}

// ScanResponse is returned by POST /v1/identity/scan.
type ScanResponse struct {
	Lines    []string         `json:"lines"`
	Identity IdentityResponse `json:"identity"`
}

// ExtractRequest carries already recognized text lines.
type ExtractRequest struct {
	Lines []string `json:"lines"`
}

// IdentityResponse is the wire form of identity.Identity.
type IdentityResponse struct {
	FullName     string   `json:"full_name"`
	BirthDate    string   `json:"birth_date"`
	Address      string   `json:"address"`
	DocumentType string   `json:"document_type"`
	IDNumber     string   `json:"id_number"`
	Age          *int     `json:"age"`
	Missing      []string `json:"missing,omitempty"`
}

// PlaceResponse is one row of GET /v1/geo/{level}.
type PlaceResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ParentCode string `json:"parent_code,omitempty"`
	ZipCode    string `json:"zip_code,omitempty"`
	Kind       string `json:"type,omitempty"`
}

// PlaceListResponse wraps place search results.
type PlaceListResponse struct {
	Level string          `json:"level"`
	Items []PlaceResponse `json:"items"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func identityToAPI(id identity.Identity) IdentityResponse {
	resp := IdentityResponse{
		FullName:     id.FullName(),
		BirthDate:    id.BirthDate(),
		Address:      id.AddressText(),
		DocumentType: string(id.DocumentType()),
		IDNumber:     id.IDNumber(),
		Missing:      id.Missing(),
	}
	if age, ok := id.Age(); ok {
		resp.Age = &age
	}
	return resp
}

func placesToAPI(level geo.Level, entries []geo.Entry) PlaceListResponse {
	items := make([]PlaceResponse, len(entries))
	for i, e := range entries {
		items[i] = PlaceResponse{
			Code:       e.Code,
			Name:       e.Name,
			ParentCode: e.ParentCode,
			ZipCode:    e.ZipCode,
			Kind:       string(e.Kind),
		}
	}
	return PlaceListResponse{Level: string(level), Items: items}
}
