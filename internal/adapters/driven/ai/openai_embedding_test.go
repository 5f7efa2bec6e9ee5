package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

func openAISettings(model, baseURL string) *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    model,
		APIKey:   "sk-test",
		BaseURL:  baseURL,
	}
}

// embeddingServer answers every request with one vector per input.
func embeddingServer(t *testing.T, vector []float32, inspect func(req embeddingRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}

		data := make([]map[string]interface{}, len(req.Input))
		// Reverse order to prove the adapter sorts by index
		for i := range req.Input {
			idx := len(req.Input) - 1 - i
			vec := append([]float32{float32(idx)}, vector...)
			data[i] = map[string]interface{}{"object": "embedding", "index": idx, "embedding": vec}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": data, "model": req.Model})
	}))
}

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIEmbedding(&domain.EmbeddingSettings{Model: "text-embedding-3-small"}, 0); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := NewOpenAIEmbedding(nil, 0); err == nil {
		t.Error("expected error for nil settings")
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	emb, err := NewOpenAIEmbedding(openAISettings("", ""), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emb.model != "text-embedding-3-small" {
		t.Errorf("expected default model text-embedding-3-small, got %s", emb.model)
	}
	if emb.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", emb.baseURL)
	}
	if emb.client.Timeout.Seconds() != 60 {
		t.Errorf("expected default timeout 60s, got %s", emb.client.Timeout)
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		requested  int
		dimensions int
		reduced    bool
	}{
		{"text-embedding-3-small", 0, 1536, false},
		{"text-embedding-3-large", 0, 3072, false},
		{"text-embedding-ada-002", 0, 1536, false},
		{"unknown-model", 0, 1536, false},
		{"text-embedding-3-small", 768, 768, true},
		{"text-embedding-3-small", 4096, 1536, false},
		{"text-embedding-ada-002", 768, 1536, false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d", tc.model, tc.requested), func(t *testing.T) {
			settings := openAISettings(tc.model, "")
			settings.Dimensions = tc.requested
			emb, err := NewOpenAIEmbedding(settings, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if emb.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, emb.Dimensions())
			}
			if emb.reduced != tc.reduced {
				t.Errorf("expected reduced=%v", tc.reduced)
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	emb, _ := NewOpenAIEmbedding(openAISettings("", ""), 0)

	result, err := emb.Embed(context.Background(), []string{})
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.4,0.5,0.6]},
			{"index":0,"embedding":[0.1,0.2,0.3]}
		],"model":"text-embedding-3-small"}`))
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(openAISettings("text-embedding-3-small", server.URL), 0)
	result, err := emb.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Error("embeddings not ordered by index")
	}
}

func TestOpenAIEmbedding_Embed_SendsReducedDimensions(t *testing.T) {
	var got embeddingRequest
	server := embeddingServer(t, []float32{0.5}, func(req embeddingRequest) { got = req })
	defer server.Close()

	settings := openAISettings("text-embedding-3-large", server.URL)
	settings.Dimensions = 256
	emb, _ := NewOpenAIEmbedding(settings, 0)

	if _, err := emb.Embed(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dimensions != 256 {
		t.Errorf("expected dimensions 256 in request, got %d", got.Dimensions)
	}
	if got.EncodingFormat != "float" || len(got.Input) != 3 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestOpenAIEmbedding_EmbedQuery_Success(t *testing.T) {
	server := embeddingServer(t, []float32{0.1, 0.2}, nil)
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(openAISettings("text-embedding-3-small", server.URL), 0)
	result, err := emb.EmbedQuery(context.Background(), "test query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(result))
	}
}

func TestOpenAIEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"Invalid API key","type":"invalid_request_error","code":"invalid_api_key"}}`, "Invalid API key"},
		{"invalid json", http.StatusOK, `invalid json`, "failed to parse response"},
		{"server error", http.StatusInternalServerError, `oops`, "status 500"},
		{"missing vector", http.StatusOK, `{"data":[{"index":0,"embedding":[0.1]}]}`, "no embedding returned for input 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			emb, _ := NewOpenAIEmbedding(openAISettings("text-embedding-3-small", server.URL), 0)
			_, err := emb.Embed(context.Background(), []string{"a", "b"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	emb, _ := NewOpenAIEmbedding(openAISettings("text-embedding-3-small", url), 0)
	_, err := emb.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestOpenAIEmbedding_HealthCheck(t *testing.T) {
	server := embeddingServer(t, []float32{0.1}, nil)
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(openAISettings("text-embedding-3-small", server.URL), 0)
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected no error from health check, got %v", err)
	}
	if err := emb.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
