package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// APIVersion is reported by the root endpoint.
const APIVersion = "1.0.0"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"No schemas provided for analysis."`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// HealthResponse reports whether the index is loaded
// @Description Service health
type HealthResponse struct {
	Status             string `json:"status" example:"healthy"`
	IndexReady         bool   `json:"indexReady" example:"true"`
	IndexStorageExists bool   `json:"indexStorageExists" example:"true"`
}

// ReadyResponse reports readiness to serve grounded answers
// @Description Readiness status
type ReadyResponse struct {
	Status     string `json:"status" example:"ready"`
	Index      string `json:"index" example:"ready"`
	Generation bool   `json:"generation" example:"true"`
	Lock       string `json:"lock,omitempty" example:"ok"`
}

// RootResponse describes the API
// @Description API information
type RootResponse struct {
	Message        string              `json:"message" example:"Schema Therapy RAG API"`
	Version        string              `json:"version" example:"1.0.0"`
	Description    string              `json:"description"`
	Authentication string              `json:"authentication"`
	Endpoints      RootEndpoints       `json:"endpoints"`
	Security       RootSecurityDetails `json:"security"`
}

// RootEndpoints lists public and protected routes
type RootEndpoints struct {
	Public    map[string]string `json:"public"`
	Protected map[string]string `json:"protected"`
}

// RootSecurityDetails explains the API key header
type RootSecurityDetails struct {
	HeaderName  string `json:"header_name" example:"X-API-Key"`
	Description string `json:"description"`
}

// AnalyzeSchemasRequest is the body of POST /analyze-schemas/
// @Description Schemas to analyze, in order
type AnalyzeSchemasRequest struct {
	Schemas []string `json:"schemas" example:"Abandonment,Defectiveness"`
}

// AnalyzeSchemasResponse is the generated report
// @Description Generated schema report
type AnalyzeSchemasResponse struct {
	Analysis        string   `json:"analysis"`
	SchemasAnalyzed []string `json:"schemasAnalyzed"`
}

// ChatRequest is the body of POST /chat-with-results/
// @Description A question about the given schemas
type ChatRequest struct {
	Schemas  []string `json:"schemas" example:"Abandonment"`
	Question string   `json:"question" example:"How does this schema affect relationships?"`
}

// ChatResponse is the grounded answer
// @Description Grounded answer to a schema question
type ChatResponse struct {
	Answer         string   `json:"answer"`
	SchemasContext []string `json:"schemasContext"`
	Question       string   `json:"question"`
}

// handleRoot godoc
// @Summary      API information
// @Description  Describes the API, its endpoints and how to authenticate
// @Tags         Health
// @Produce      json
// @Success      200  {object}  RootResponse
// @Router       / [get]
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:        "Schema Therapy RAG API",
		Version:        APIVersion,
		Description:    "A secure API service for Schema Therapy analysis using RAG",
		Authentication: "Protected endpoints require X-API-Key header",
		Endpoints: RootEndpoints{
			Public: map[string]string{
				"/":                 "GET - API information (this endpoint)",
				"/health":           "GET - Health check endpoint",
				"/swagger/doc.json": "GET - OpenAPI document",
			},
			Protected: map[string]string{
				"/analyze-schemas/":   "POST - Analyze schemas and generate personalized reports (requires API key)",
				"/chat-with-results/": "POST - Chat about specific schemas and ask follow-up questions (requires API key)",
			},
		},
		Security: RootSecurityDetails{
			HeaderName:  APIKeyHeader,
			Description: "Include your API key in the X-API-Key header for protected endpoints",
		},
	})
}

// handleHealth godoc
// @Summary      Health check
// @Description  Reports whether the vector index is loaded and whether it exists on disk. Healthy only when protected endpoints can answer.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.indexService.Status(r.Context())
	ready := status.State == domain.IndexStateReady

	resp := HealthResponse{
		Status:             "unhealthy",
		IndexReady:         ready,
		IndexStorageExists: status.StorageExists,
	}
	if ready && (s.readiness == nil || s.readiness.Ready()) {
		resp.Status = "healthy"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns 200 when the index is loaded and the generation service is available
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Status:     "ready",
		Index:      string(s.indexService.Status(r.Context()).State),
		Generation: s.readiness != nil && s.readiness.Ready(),
	}
	code := http.StatusOK
	if !resp.Generation {
		resp.Status = "not ready"
		code = http.StatusServiceUnavailable
	}

	if s.lock != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Lock = "ok"
		if err := s.lock.Ping(ctx); err != nil {
			resp.Lock = "unavailable"
		}
	}

	writeJSON(w, code, resp)
}

// handleVersion godoc
// @Summary      Get build version
// @Description  Returns the version of the running binary
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "API documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// handleAnalyzeSchemas godoc
// @Summary      Analyze schemas
// @Description  Generates a structured educational report for each schema, grounded in the indexed documents
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request  body      AnalyzeSchemasRequest  true  "Schemas to analyze"
// @Success      200      {object}  AnalyzeSchemasResponse
// @Failure      400      {object}  ErrorResponse  "No schemas provided"
// @Failure      401      {object}  ErrorResponse  "Missing or invalid API key"
// @Failure      500      {object}  ErrorResponse  "Generation failed"
// @Failure      503      {object}  ErrorResponse  "System not initialized"
// @Router       /analyze-schemas/ [post]
func (s *Server) handleAnalyzeSchemas(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeSchemasRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := s.ragService.AnalyzeSchemas(r.Context(), domain.SchemaRequest{Schemas: req.Schemas})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "No schemas provided for analysis.")
		case errors.Is(err, domain.ErrSystemNotReady):
			writeError(w, http.StatusServiceUnavailable, notReadyMessage)
		default:
			writeError(w, http.StatusInternalServerError, "Error during analysis: "+causeMessage(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeSchemasResponse{
		Analysis:        answer.Text,
		SchemasAnalyzed: answer.Schemas,
	})
}

// handleChatWithResults godoc
// @Summary      Chat about schemas
// @Description  Answers a question in the context of the given schemas, grounded in the indexed documents
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request  body      ChatRequest   true  "Schemas and question"
// @Success      200      {object}  ChatResponse
// @Failure      400      {object}  ErrorResponse  "No schemas or question provided"
// @Failure      401      {object}  ErrorResponse  "Missing or invalid API key"
// @Failure      500      {object}  ErrorResponse  "Generation failed"
// @Failure      503      {object}  ErrorResponse  "System not initialized"
// @Router       /chat-with-results/ [post]
func (s *Server) handleChatWithResults(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := s.ragService.Chat(r.Context(), domain.ChatRequest{
		Schemas:  req.Schemas,
		Question: req.Question,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoQuestion):
			writeError(w, http.StatusBadRequest, "No question provided.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "No schemas provided for context.")
		case errors.Is(err, domain.ErrSystemNotReady):
			writeError(w, http.StatusServiceUnavailable, notReadyMessage)
		default:
			writeError(w, http.StatusInternalServerError, "Error during chat processing: "+causeMessage(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:         answer.Text,
		SchemasContext: answer.Schemas,
		Question:       answer.Question,
	})
}

const notReadyMessage = "QA system not initialized. Please check server logs."

// causeMessage unwraps a generation failure to the message of its cause.
func causeMessage(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) && genErr.Cause != nil {
		return genErr.Cause.Error()
	}
	return err.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
