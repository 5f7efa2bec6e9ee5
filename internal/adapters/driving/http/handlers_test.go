package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/custodia-labs/schemarag/docs"
	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// Mock services for testing

type mockRAGService struct {
	analyzeFn func(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error)
	chatFn    func(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error)
}

func (m *mockRAGService) AnalyzeSchemas(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRAGService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRAGService) Answer(ctx context.Context, task domain.TaskType, schemas []string, question string) (*domain.GroundedAnswer, error) {
	return nil, errors.New("not implemented")
}

type mockIndexService struct {
	status domain.IndexStatus
}

func (m *mockIndexService) EnsureReady(ctx context.Context) error { return nil }

func (m *mockIndexService) Status(ctx context.Context) domain.IndexStatus { return m.status }

type mockAuthService struct {
	secret string
}

func (m *mockAuthService) Verify(presented string) error {
	switch {
	case m.secret == "":
		return domain.ErrAuthNotConfigured
	case presented == "":
		return domain.ErrMissingCredential
	case presented != m.secret:
		return domain.ErrInvalidCredential
	}
	return nil
}

func (m *mockAuthService) Configured() bool { return m.secret != "" }

type staticReadiness bool

func (r staticReadiness) Ready() bool { return bool(r) }

type mockPinger struct{ err error }

func (p mockPinger) Ping(ctx context.Context) error { return p.err }

const testKey = "test-secret"

type serverFixture struct {
	rag   *mockRAGService
	index *mockIndexService
	auth  *mockAuthService
	ready staticReadiness
	lock  Pinger
}

func newFixture() *serverFixture {
	return &serverFixture{
		rag:   &mockRAGService{},
		index: &mockIndexService{status: domain.IndexStatus{State: domain.IndexStateReady, StorageExists: true}},
		auth:  &mockAuthService{secret: testKey},
		ready: true,
	}
}

func (f *serverFixture) server() *Server {
	cfg := DefaultConfig()
	cfg.Version = "test"
	return NewServer(cfg, Deps{
		RAG:       f.rag,
		Index:     f.index,
		Auth:      f.auth,
		Readiness: f.ready,
		Lock:      f.lock,
	})
}

func (f *serverFixture) do(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	f.server().Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandleRoot(t *testing.T) {
	rec := newFixture().do(t, http.MethodGet, "/", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[RootResponse](t, rec)
	assert.Equal(t, "Schema Therapy RAG API", resp.Message)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, "X-API-Key", resp.Security.HeaderName)
	assert.Contains(t, resp.Endpoints.Public, "/health")
	assert.Contains(t, resp.Endpoints.Protected, "/analyze-schemas/")
	assert.Contains(t, resp.Endpoints.Protected, "/chat-with-results/")
}

func TestHandleRoot_UnknownPathIs404(t *testing.T) {
	rec := newFixture().do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.IndexStatus
		unready bool
		want    HealthResponse
	}{
		{
			name:   "ready",
			status: domain.IndexStatus{State: domain.IndexStateReady, StorageExists: true},
			want:   HealthResponse{Status: "healthy", IndexReady: true, IndexStorageExists: true},
		},
		{
			name:    "index loaded but cannot serve",
			status:  domain.IndexStatus{State: domain.IndexStateReady, StorageExists: true},
			unready: true,
			want:    HealthResponse{Status: "unhealthy", IndexReady: true, IndexStorageExists: true},
		},
		{
			name:   "absent",
			status: domain.IndexStatus{State: domain.IndexStateAbsent},
			want:   HealthResponse{Status: "unhealthy"},
		},
		{
			name:   "failed after build",
			status: domain.IndexStatus{State: domain.IndexStateFailed, StorageExists: true},
			want:   HealthResponse{Status: "unhealthy", IndexStorageExists: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.index.status = tt.status
			f.ready = staticReadiness(!tt.unready)
			rec := f.do(t, http.MethodGet, "/health", nil, "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decodeBody[HealthResponse](t, rec))
		})
	}
}

func TestHandleReady(t *testing.T) {
	f := newFixture()
	f.lock = mockPinger{}
	rec := f.do(t, http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[ReadyResponse](t, rec).Lock)

	f.ready = false
	f.lock = mockPinger{err: errors.New("down")}
	rec = f.do(t, http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeBody[ReadyResponse](t, rec)
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "unavailable", resp.Lock)
}

func TestHandleVersion(t *testing.T) {
	rec := newFixture().do(t, http.MethodGet, "/version", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", decodeBody[VersionResponse](t, rec).Version)
}

func TestHandleAnalyzeSchemas(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		analyzeErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "empty schemas",
			body:       map[string]any{"schemas": []string{}},
			analyzeErr: domain.ErrNoSchemas,
			wantStatus: http.StatusBadRequest,
			wantError:  "No schemas provided for analysis.",
		},
		{
			name:       "index not ready",
			body:       map[string]any{"schemas": []string{"Abandonment"}},
			analyzeErr: domain.ErrSystemNotReady,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "QA system not initialized. Please check server logs.",
		},
		{
			name:       "generation failure",
			body:       map[string]any{"schemas": []string{"Abandonment"}},
			analyzeErr: domain.NewGenerationError(errors.New("quota exceeded")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error during analysis: quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.rag.analyzeFn = func(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error) {
				return nil, tt.analyzeErr
			}

			rec := f.do(t, http.MethodPost, "/analyze-schemas/", tt.body, testKey)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestHandleAnalyzeSchemas_Success(t *testing.T) {
	f := newFixture()
	var got domain.SchemaRequest
	f.rag.analyzeFn = func(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error) {
		got = req
		return &domain.GroundedAnswer{Task: domain.TaskReport, Text: "OK", Schemas: req.Schemas}, nil
	}

	rec := f.do(t, http.MethodPost, "/analyze-schemas/", map[string]any{"schemas": []string{"Abandonment"}}, testKey)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"analysis":"OK","schemasAnalyzed":["Abandonment"]}`, rec.Body.String())
	assert.Equal(t, []string{"Abandonment"}, got.Schemas)
}

func TestHandleAnalyzeSchemas_InvalidBody(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/analyze-schemas/", bytes.NewBufferString("{"))
	req.Header.Set(APIKeyHeader, testKey)
	rec := httptest.NewRecorder()
	f.server().Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatWithResults(t *testing.T) {
	tests := []struct {
		name       string
		chatErr    error
		wantStatus int
		wantError  string
	}{
		{"no schemas", domain.ErrNoSchemas, http.StatusBadRequest, "No schemas provided for context."},
		{"no question", domain.ErrNoQuestion, http.StatusBadRequest, "No question provided."},
		{"not ready", domain.ErrSystemNotReady, http.StatusServiceUnavailable, "QA system not initialized. Please check server logs."},
		{"generation", domain.NewGenerationError(context.DeadlineExceeded), http.StatusInternalServerError,
			"Error during chat processing: context deadline exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.rag.chatFn = func(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error) {
				return nil, tt.chatErr
			}

			rec := f.do(t, http.MethodPost, "/chat-with-results/",
				map[string]any{"schemas": []string{"Abandonment"}, "question": "Why?"}, testKey)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestHandleChatWithResults_Success(t *testing.T) {
	f := newFixture()
	f.rag.chatFn = func(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error) {
		return &domain.GroundedAnswer{
			Task:     domain.TaskChat,
			Text:     "Grounded answer",
			Schemas:  req.Schemas,
			Question: req.Question,
		}, nil
	}

	rec := f.do(t, http.MethodPost, "/chat-with-results/",
		map[string]any{"schemas": []string{"Abandonment", "Mistrust"}, "question": "How do they interact?"}, testKey)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ChatResponse](t, rec)
	assert.Equal(t, "Grounded answer", resp.Answer)
	assert.Equal(t, []string{"Abandonment", "Mistrust"}, resp.SchemasContext)
	assert.Equal(t, "How do they interact?", resp.Question)
}

func TestProtectedRoutesRejectGET(t *testing.T) {
	rec := newFixture().do(t, http.MethodGet, "/analyze-schemas/", nil, testKey)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCauseMessage(t *testing.T) {
	assert.Equal(t, "boom", causeMessage(domain.NewGenerationError(errors.New("boom"))))
	assert.Equal(t, "plain", causeMessage(errors.New("plain")))
}

func TestHandleSwaggerDoc(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/swagger/doc.json", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths               map[string]json.RawMessage `json:"paths"`
		SecurityDefinitions map[string]json.RawMessage `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Schema Therapy RAG API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/analyze-schemas/")
	assert.Contains(t, doc.Paths, "/chat-with-results/")
	assert.Contains(t, doc.SecurityDefinitions, "ApiKeyAuth")
}
