package driving

// AuthService verifies API keys presented by clients
type AuthService interface {
	// Verify checks the presented key against the configured secret.
	// Returns domain.ErrAuthNotConfigured, domain.ErrMissingCredential or
	// domain.ErrInvalidCredential on rejection.
	Verify(presented string) error

	// Configured returns true if a secret is set
	Configured() bool
}
