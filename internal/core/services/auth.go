package services

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driving"
)

// Ensure AuthGate implements AuthService
var _ driving.AuthService = (*AuthGate)(nil)

// AuthGate checks presented API keys against a single shared secret.
type AuthGate struct {
	digest     [blake2b.Size256]byte
	configured bool
	runtime    *domain.RuntimeConfig
	logger     *slog.Logger
}

// AuthGateConfig holds configuration for the API key gate.
type AuthGateConfig struct {
	Secret  string
	Runtime *domain.RuntimeConfig // Optional: receives the auth-configured flag
	Logger  *slog.Logger
}

// NewAuthGate creates an AuthGate. A blank secret leaves the gate
// unconfigured and every protected call is rejected.
func NewAuthGate(cfg AuthGateConfig) *AuthGate {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &AuthGate{
		runtime: cfg.Runtime,
		logger:  logger.With("service", "auth"),
	}
	if secret := strings.TrimSpace(cfg.Secret); secret != "" {
		g.digest = blake2b.Sum256([]byte(cfg.Secret))
		g.configured = true
	}
	if g.runtime != nil {
		g.runtime.SetAuthConfigured(g.configured)
	}
	if !g.configured {
		g.logger.Warn("api key not configured; protected endpoints will reject all requests")
	}
	return g
}

// Configured returns true if a secret is set.
func (g *AuthGate) Configured() bool {
	return g.configured
}

// Verify checks the presented key. Digests are compared in constant time.
func (g *AuthGate) Verify(presented string) error {
	if !g.configured {
		g.logger.Error("rejected request: api key not configured")
		return domain.ErrAuthNotConfigured
	}
	if presented == "" {
		g.logger.Warn("rejected request: missing api key")
		return domain.ErrMissingCredential
	}

	sum := blake2b.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(sum[:], g.digest[:]) != 1 {
		g.logger.Warn("rejected request: invalid api key")
		return domain.ErrInvalidCredential
	}
	return nil
}
