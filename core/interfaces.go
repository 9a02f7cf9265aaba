package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// IDENTITY PROVIDER PORT
// ============================================

// CredentialVerifier checks an email/secret pair against the identity
// provider. Unknown emails and wrong secrets both yield
// ErrInvalidCredentials; an unreachable provider yields
// ErrProviderUnavailable.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, secret string) (*Principal, error)
	SessionRevoker
}

// SessionRevoker invalidates the provider-level session of a principal.
type SessionRevoker interface {
	Revoke(ctx context.Context, p *Principal) error
}

// ============================================
// AUDIT PORT
// ============================================

type ActivityRecorder interface {
	Record(ctx context.Context, a *Activity) error
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides login operations for HTTP adapters
type AuthHandler interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*Session, error)
}

// ============================================
// HTTP PORT
// ============================================

// HTTPAdapter mounts endpoints under basePath. Adapters serve the login
// surface themselves; any other OperationID needs a handler attached to the
// adapter beforehand.
type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, endpoints []Endpoint, basePath string, ttl time.Duration) error
	BuildProtectedMiddleware(handler AuthHandler) any
}
