package ai

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitConfig configures embedding throttling and quota retries.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. 0 disables throttling.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (default: 1).
	BurstSize int
	// MaxRetries is how often a quota error is retried (default: 3, negative disables).
	MaxRetries int
	// InitialBackoff is the wait before the first retry when the API
	// suggests none (default: 5s).
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between retries (default: 90s).
	MaxBackoff time.Duration
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.BurstSize <= 0 {
		c.BurstSize = 1
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 5 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 90 * time.Second
	}
	return c
}

// RateLimitedEmbedding throttles calls to an embedding service and retries
// batch calls rejected for quota reasons. Query embeddings are throttled but
// tried once, so a request never waits out a build's quota backoff.
type RateLimitedEmbedding struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
	config  RateLimitConfig
	logger  *slog.Logger

	mu      sync.Mutex
	retryAt time.Time
}

// NewRateLimitedEmbedding wraps inner with a token bucket limiter.
func NewRateLimitedEmbedding(inner driven.EmbeddingService, cfg RateLimitConfig, logger *slog.Logger) *RateLimitedEmbedding {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &RateLimitedEmbedding{
		inner:   inner,
		limiter: rate.NewLimiter(limit, cfg.BurstSize),
		config:  cfg,
		logger:  logger,
	}
}

func (r *RateLimitedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.Embed(ctx, texts)
		return err
	})
	return out, err
}

func (r *RateLimitedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedQuery(ctx, query)
}

func (r *RateLimitedEmbedding) Dimensions() int {
	return r.inner.Dimensions()
}

func (r *RateLimitedEmbedding) Model() string {
	return r.inner.Model()
}

func (r *RateLimitedEmbedding) HealthCheck(ctx context.Context) error {
	return r.inner.HealthCheck(ctx)
}

func (r *RateLimitedEmbedding) Close() error {
	return r.inner.Close()
}

// do waits for a token and any quota backoff, then runs call, retrying quota errors.
func (r *RateLimitedEmbedding) do(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := r.wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil || !IsRateLimitError(err) || attempt >= r.config.MaxRetries {
			return err
		}

		backoff := r.backoff(attempt, ExtractRetryDelay(err))
		r.logger.Warn("embedding quota exceeded, backing off",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)

		r.mu.Lock()
		r.retryAt = time.Now().Add(backoff)
		r.mu.Unlock()
	}
}

func (r *RateLimitedEmbedding) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return r.limiter.Wait(ctx)
}

// backoff doubles from the API-suggested delay (or InitialBackoff), capped at MaxBackoff.
func (r *RateLimitedEmbedding) backoff(attempt int, apiDelay time.Duration) time.Duration {
	base := r.config.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}
	d := base << attempt
	if d <= 0 || d > r.config.MaxBackoff {
		d = r.config.MaxBackoff
	}
	return d
}

// IsRateLimitError reports whether err is a provider quota rejection.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}

// retryDelayRegex matches "Please retry in 12.5s" and "retryDelay: 12s"
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the provider-suggested delay from err, or returns 0.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}
	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
