package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// DefaultAnthropicModel is used when the request does not name a model.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

// Anthropic generates plans through the messages API.
type Anthropic struct {
	// BaseURL may be overridden for testing or proxying.
	BaseURL string

	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewAnthropic creates an Anthropic-backed generator with the given API
// key. If logger is nil, a discard logger is used.
func NewAnthropic(apiKey string, logger *slog.Logger) *Anthropic {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Anthropic{
		BaseURL: defaultAnthropicBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GeneratePlan implements Generator.
func (c *Anthropic) GeneratePlan(ctx context.Context, req Request) (map[string]any, error) {
	model := req.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	userPrompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: anthropicMaxTokens,
		System:    systemPrompt,
		Messages: []chatMessage{
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	requestID := uuid.NewString()
	c.logger.Debug("requesting plan",
		slog.String("provider", string(ProviderAnthropic)),
		slog.String("model", model),
		slog.String("request_id", requestID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("plan request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("anthropic api returned %d: %s", resp.StatusCode, msg)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return extractPlan(block.Text)
		}
	}
	return nil, fmt.Errorf("anthropic api returned no text content")
}
