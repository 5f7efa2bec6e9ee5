package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		secret        string
		key           string
		wantStatus    int
		wantError     string
		wantChallenge bool
	}{
		{"valid key", testKey, testKey, http.StatusOK, "", false},
		{"missing key", testKey, "", http.StatusUnauthorized, "API key is required. Please provide X-API-Key header.", true},
		{"wrong key", testKey, "nope", http.StatusUnauthorized, "Invalid API key", true},
		{"not configured", "", testKey, http.StatusInternalServerError, "Server configuration error: API key not configured", false},
		{"not configured without key", "", "", http.StatusInternalServerError, "Server configuration error: API key not configured", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			handler := NewAPIKeyMiddleware(&mockAuthService{secret: tt.secret}, nil).Authenticate(next)

			req := httptest.NewRequest(http.MethodPost, "/analyze-schemas/", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeBody[ErrorResponse](t, rec).Error)
			}
			if tt.wantChallenge {
				assert.Equal(t, "ApiKey", rec.Header().Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeBody[ErrorResponse](t, rec).Error)
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var captured *responseWriter
	handler := NewLoggingMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, captured.statusCode)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard echoes origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		NewCORSMiddleware([]string{"*"}).Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		NewCORSMiddleware([]string{"https://app.example"}).Handler(next).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/analyze-schemas/", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		NewCORSMiddleware([]string{"*"}).Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
