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

// DefaultOpenAIModel is used when the request does not name a model.
const DefaultOpenAIModel = "gpt-4o-mini"

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI generates plans through the chat completions API.
type OpenAI struct {
	// BaseURL may be overridden for testing or proxying.
	BaseURL string

	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-backed generator with the given API key.
// If logger is nil, a discard logger is used.
func NewOpenAI(apiKey string, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAI{
		BaseURL: defaultOpenAIBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GeneratePlan implements Generator.
func (c *OpenAI) GeneratePlan(ctx context.Context, req Request) (map[string]any, error) {
	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	userPrompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	requestID := uuid.NewString()
	c.logger.Debug("requesting plan",
		slog.String("provider", string(ProviderOpenAI)),
		slog.String("model", model),
		slog.String("request_id", requestID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("plan request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai api returned %d: %s", resp.StatusCode, msg)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	return extractPlan(parsed.Choices[0].Message.Content)
}
