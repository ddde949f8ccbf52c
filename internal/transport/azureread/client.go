// Package azureread drives the Azure Computer Vision Read API (submit + poll).
package azureread

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/recognition"
)

const (
	moduleName   = "idintake/azureread"
	moduleVer    = "v1"
	keyHeader    = "Ocp-Apim-Subscription-Key"
	handleHeader = "Operation-Location"

	// DefaultAnalyzePath is the Read v3.2 submission path appended to the endpoint.
	DefaultAnalyzePath = "/vision/v3.2/read/analyze"
)

// Config holds the recognizer connection settings.
type Config struct {
	Endpoint        string
	SubscriptionKey string
	AnalyzePath     string        // default DefaultAnalyzePath
	RequestTimeout  time.Duration // per HTTP call, default 10s
	HTTPClient      *http.Client  // optional transport override
	Logger          *zap.Logger
}

// Client submits images to the Read API and fetches operation results.
// Retries are disabled in the pipeline: the poll loop owns retry policy.
type Client struct {
	pipeline   runtime.Pipeline
	analyzeURL string
	key        string
	timeout    time.Duration
	schema     *jsonschema.Schema
	logger     *zap.Logger
}

// NewClient creates a Read API client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.SubscriptionKey == "" {
		return nil, fmt.Errorf("subscription key is required")
	}
	path := cfg.AnalyzePath
	if path == "" {
		path = DefaultAnalyzePath
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	schema, err := compilePollSchema()
	if err != nil {
		return nil, err
	}

	opts := &policy.ClientOptions{
		Retry:     policy.RetryOptions{MaxRetries: -1},
		Telemetry: policy.TelemetryOptions{Disabled: true},
	}
	if cfg.HTTPClient != nil {
		opts.Transport = cfg.HTTPClient
	}

	return &Client{
		pipeline:   runtime.NewPipeline(moduleName, moduleVer, runtime.PipelineOptions{}, opts),
		analyzeURL: strings.TrimRight(cfg.Endpoint, "/") + path,
		key:        cfg.SubscriptionKey,
		timeout:    timeout,
		schema:     schema,
		logger:     logger,
	}, nil
}

// Submit posts raw image bytes and returns the job location.
func (c *Client) Submit(ctx context.Context, image []byte) (recognition.Handle, error) {
	if len(image) == 0 {
		return "", domain.ErrEmptyImage
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := runtime.NewRequest(ctx, http.MethodPost, c.analyzeURL)
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Raw().Header.Set(keyHeader, c.key)
	if err := req.SetBody(streaming.NopCloser(bytes.NewReader(image)), "application/octet-stream"); err != nil {
		return "", fmt.Errorf("set submit body: %w", err)
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRecognizerUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := runtime.Payload(resp)
		code, msg := parseErrorBody(body)
		return "", domain.NewRecognizerRejected(resp.StatusCode, code, msg)
	}

	handle := resp.Header.Get(handleHeader)
	if handle == "" {
		return "", domain.ErrMissingJobHandle
	}
	return recognition.Handle(handle), nil
}

// Fetch performs a single poll of a job location.
// Unreadable responses wrap domain.ErrPollMiss; network failures wrap domain.ErrRecognizerUnreachable.
func (c *Client) Fetch(ctx context.Context, handle recognition.Handle) (recognition.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := runtime.NewRequest(ctx, http.MethodGet, string(handle))
	if err != nil {
		return recognition.Snapshot{}, fmt.Errorf("build poll request: %w", err)
	}
	req.Raw().Header.Set(keyHeader, c.key)

	resp, err := c.pipeline.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return recognition.Snapshot{}, err
		}
		return recognition.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrRecognizerUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := runtime.Payload(resp)
	if err != nil {
		return recognition.Snapshot{}, fmt.Errorf("%w: read body: %w", domain.ErrPollMiss, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		c.logger.Debug("poll returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 256)),
		)
		return recognition.Snapshot{}, fmt.Errorf("%w: status %d", domain.ErrPollMiss, resp.StatusCode)
	}

	op, err := decodePoll(c.schema, body)
	if err != nil {
		return recognition.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrPollMiss, err)
	}
	status, err := recognition.ParseUpstreamStatus(op.Status)
	if err != nil {
		return recognition.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrPollMiss, err)
	}

	snap := recognition.Snapshot{Status: status}
	if status == recognition.StatusSucceeded {
		snap.Lines = op.lines()
	}
	return snap, nil
}

// parseErrorBody extracts code and message from an error envelope, falling back to raw text.
func parseErrorBody(body []byte) (code, message string) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Error.Code != "" || env.Error.Message != "") {
		return env.Error.Code, env.Error.Message
	}
	return "", strings.TrimSpace(string(truncate(body, 512)))
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
