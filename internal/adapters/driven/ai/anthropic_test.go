package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

func TestNewAnthropicLLM(t *testing.T) {
	_, err := NewAnthropicLLM(&domain.LLMSettings{Model: "claude"}, 0)
	assert.Error(t, err, "API key is required")

	llm, err := NewAnthropicLLM(&domain.LLMSettings{APIKey: "key"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", llm.Model())
	assert.Equal(t, 8192, llm.maxTokens)
	assert.NoError(t, llm.Close())
}

func TestAnthropicLLM_Generate(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("expected api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Grounded answer"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	llm, err := NewAnthropicLLM(&domain.LLMSettings{
		APIKey:      "key",
		Temperature: 0.3,
		MaxTokens:   1024,
		BaseURL:     server.URL + "/",
	}, 0)
	require.NoError(t, err)

	text, err := llm.Generate(context.Background(), "prompt text", driven.GenerateOptions{SystemInstruction: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "Grounded answer", text)

	assert.Equal(t, float64(1024), received["max_tokens"])
	assert.Equal(t, 0.3, received["temperature"])
	assert.NotNil(t, received["system"])
}

func TestAnthropicLLM_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer server.Close()

	llm, err := NewAnthropicLLM(&domain.LLMSettings{APIKey: "key", BaseURL: server.URL + "/"}, 0)
	require.NoError(t, err)

	_, err = llm.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	assert.Error(t, err)
}
