package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGeneratePlan(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant",
			"content": "{\"operation\": \"select\", \"table\": \"users\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", nil)
	c.BaseURL = srv.URL

	got, err := c.GeneratePlan(context.Background(), Request{
		Prompt: "list users",
		Schema: map[string]any{"users": map[string]any{"id": "integer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"operation": "select", "table": "users"}, got)

	assert.Equal(t, DefaultOpenAIModel, captured.Model)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, systemPrompt, captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "Request: list users")
}

func TestOpenAIGeneratePlanUsesRequestModel(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", nil)
	c.BaseURL = srv.URL

	_, err := c.GeneratePlan(context.Background(), Request{Prompt: "x", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", captured.Model)
}

func TestOpenAIGeneratePlanAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("bad-key", nil)
	c.BaseURL = srv.URL

	_, err := c.GeneratePlan(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api returned 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIGeneratePlanNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", nil)
	c.BaseURL = srv.URL

	_, err := c.GeneratePlan(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
