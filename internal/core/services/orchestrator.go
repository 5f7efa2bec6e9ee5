package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driving"
	"github.com/custodia-labs/schemarag/internal/runtime"
)

// Ensure ragService implements RAGService
var _ driving.RAGService = (*ragService)(nil)

// DefaultGenerationTimeout bounds a single generation call.
const DefaultGenerationTimeout = 120 * time.Second

// RAGServiceConfig holds dependencies for the RAG orchestrator.
type RAGServiceConfig struct {
	Services          *runtime.Services
	Validate          *validator.Validate // Optional: defaults to a new validator
	GenerationTimeout time.Duration       // Default: 120s
	Logger            *slog.Logger
}

// ragService builds prompts and runs them through the published generator.
type ragService struct {
	services *runtime.Services
	validate *validator.Validate
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRAGService creates the orchestrator that answers report and chat requests.
func NewRAGService(cfg RAGServiceConfig) driving.RAGService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := cfg.Validate
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &ragService{
		services: cfg.Services,
		validate: v,
		timeout:  timeout,
		logger:   logger.With("service", "rag"),
	}
}

// AnalyzeSchemas generates a structured report for the requested schemas.
// Prompts use trimmed names; the answer echoes the schemas as received.
func (s *ragService) AnalyzeSchemas(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error) {
	trimmed := req
	trimmed.Normalize()
	if err := s.validate.Struct(trimmed); err != nil {
		return nil, validationError(err)
	}
	answer, err := s.run(ctx, domain.TaskReport, trimmed.Schemas, "")
	if err != nil {
		return nil, err
	}
	answer.Schemas = req.Schemas
	return answer, nil
}

// Chat answers a question in the context of the requested schemas.
// Like AnalyzeSchemas, the answer echoes the request as received.
func (s *ragService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error) {
	trimmed := req
	trimmed.Normalize()
	if err := s.validate.Struct(trimmed); err != nil {
		return nil, validationError(err)
	}
	answer, err := s.run(ctx, domain.TaskChat, trimmed.Schemas, trimmed.Question)
	if err != nil {
		return nil, err
	}
	answer.Schemas = req.Schemas
	answer.Question = req.Question
	return answer, nil
}

// Answer runs a task directly; question is ignored for reports.
func (s *ragService) Answer(ctx context.Context, task domain.TaskType, schemas []string, question string) (*domain.GroundedAnswer, error) {
	switch task {
	case domain.TaskReport:
		return s.AnalyzeSchemas(ctx, domain.SchemaRequest{Schemas: schemas})
	case domain.TaskChat:
		return s.Chat(ctx, domain.ChatRequest{Schemas: schemas, Question: question})
	default:
		return nil, fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, task)
	}
}

// validationError maps validator failures onto the request errors.
// Schema problems are reported before question problems.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for _, fe := range verrs {
		if fe.StructField() != "Question" {
			return domain.ErrNoSchemas
		}
	}
	return domain.ErrNoQuestion
}

func (s *ragService) run(ctx context.Context, task domain.TaskType, schemas []string, question string) (*domain.GroundedAnswer, error) {
	if s.services == nil || !s.services.Ready() {
		return nil, domain.ErrSystemNotReady
	}
	gen := s.services.Generator()
	if gen == nil {
		return nil, domain.ErrSystemNotReady
	}

	prompt, err := BuildPrompt(task, schemas, question)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := gen.Generate(genCtx, prompt.Instructions, prompt.RetrievalQuery)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		s.logger.Error("generation failed",
			"task", task,
			"schemas", len(schemas),
			"duration", time.Since(start),
			"error", err,
		)
		return nil, domain.NewGenerationError(err)
	}

	s.logger.Info("generated answer",
		"task", task,
		"schemas", len(schemas),
		"passages", len(result.Passages),
		"duration", time.Since(start),
	)

	return &domain.GroundedAnswer{
		Task:     task,
		Text:     result.Text,
		Schemas:  schemas,
		Question: question,
		Passages: len(result.Passages),
		Model:    result.Model,
	}, nil
}
