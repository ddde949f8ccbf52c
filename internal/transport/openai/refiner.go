package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/domain"
	"github.com/kailas-cloud/idintake/internal/domain/identity"
	"github.com/kailas-cloud/idintake/internal/metrics"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You read OCR lines from a Philippine government identity card.
Return a JSON object with only these optional string keys: full_name, birth_date, address, id_number.
Copy values exactly as printed. Omit a key or use null when the value is not present.`

const outputSchemaJSON = `{
  "type": "object",
  "properties": {
    "full_name":  {"type": ["string", "null"]},
    "birth_date": {"type": ["string", "null"]},
    "address":    {"type": ["string", "null"]},
    "id_number":  {"type": ["string", "null"]}
  }
}`

// Refiner asks an OpenAI-compatible chat model for identity fields the heuristics missed.
type Refiner struct {
	client *openai.Client
	model  string
	schema *jsonschema.Schema
	logger *zap.Logger
}

// Config holds the refiner settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewRefiner creates a chat-completion refiner.
func NewRefiner(cfg *Config) (*Refiner, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("refined_identity.json", strings.NewReader(outputSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("refined_identity.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Refiner{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		schema: schema,
		logger: log,
	}, nil
}

type refinedFields struct {
	FullName  *string `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	Address   *string `json:"address"`
	IDNumber  *string `json:"id_number"`
}

// Refine implements intake.Refiner. Only the requested fields are returned.
func (r *Refiner) Refine(ctx context.Context, lines, missing []string) (identity.Fields, error) {
	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(lines, missing)},
		},
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.RefinerRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return identity.Fields{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.RefinerRequestsTotal.WithLabelValues(r.model, "empty").Inc()
		return identity.Fields{}, fmt.Errorf("empty chat response: %w", domain.ErrRefinerFailed)
	}

	fields, err := r.decode(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.RefinerRequestsTotal.WithLabelValues(r.model, "invalid").Inc()
		return identity.Fields{}, err
	}

	metrics.RefinerRequestsTotal.WithLabelValues(r.model, "success").Inc()
	r.logger.Debug("refiner responded",
		zap.String("model", r.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)
	return only(fields, missing), nil
}

func (r *Refiner) decode(content string) (identity.Fields, error) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return identity.Fields{}, fmt.Errorf("unmarshal refiner output: %w: %w", err, domain.ErrRefinerFailed)
	}
	if err := r.schema.Validate(v); err != nil {
		return identity.Fields{}, fmt.Errorf("refiner output does not match contract: %w: %w", err, domain.ErrRefinerFailed)
	}
	var out refinedFields
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return identity.Fields{}, fmt.Errorf("decode refiner output: %w: %w", err, domain.ErrRefinerFailed)
	}
	return identity.Fields{
		FullName:    deref(out.FullName),
		BirthDate:   deref(out.BirthDate),
		AddressText: deref(out.Address),
		IDNumber:    deref(out.IDNumber),
	}, nil
}

func userPrompt(lines, missing []string) string {
	var b strings.Builder
	b.WriteString("Fields needed: ")
	b.WriteString(strings.Join(missing, ", "))
	b.WriteString("\n\nOCR lines:\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// only drops values for fields that were not requested.
func only(f identity.Fields, missing []string) identity.Fields {
	var out identity.Fields
	for _, name := range missing {
		switch name {
		case "full_name":
			out.FullName = f.FullName
		case "birth_date":
			out.BirthDate = f.BirthDate
		case "address":
			out.AddressText = f.AddressText
		case "id_number":
			out.IDNumber = f.IDNumber
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// parseAPIError keeps the upstream status in the message and wraps ErrRefinerFailed.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrRefinerFailed)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)), domain.ErrRefinerFailed)
	}

	return fmt.Errorf("chat request failed: %w: %w", err, domain.ErrRefinerFailed)
}
