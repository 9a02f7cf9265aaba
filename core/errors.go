package core

import "errors"

// Login Related Errors
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")      // 401 Unauthorized
	ErrProviderUnavailable = errors.New("identity provider unavailable") // 503 Service Unavailable
)

// Profile store errors
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrStoreConflict      = errors.New("profile already exists")     // recovered by the reconciler
	ErrStoreUnavailable   = errors.New("profile store unavailable")  // 500
	ErrIntegrityViolation = errors.New("profile integrity violation") // 500
)

// Local identity provider errors
var (
	ErrPrincipalExists   = errors.New("principal already exists")
	ErrPrincipalNotFound = errors.New("principal not found")
)

// Session errors
var (
	ErrMissingSession  = errors.New("missing session")       // 401
	ErrInvalidToken    = errors.New("invalid session token") // 401
	ErrSessionNotFound = errors.New("session not found")     // 401
	ErrSessionExpired  = errors.New("session expired")       // 401
)

// Validation errors (client input)
var (
	ErrEmailRequired    = errors.New("email is required")     // 400
	ErrPasswordRequired = errors.New("password is required")  // 400
	ErrPasswordTooShort = errors.New("password is too short") // 400
	ErrPasswordTooLong  = errors.New("password is too long")  // 400
	ErrInvalidEmail     = errors.New("invalid email format")  // 400
	ErrInvalidRole      = errors.New("invalid role")          // 400
)

// Config errors (server-side configuration)
var (
	ErrProfileStoreRequired = errors.New("profile store is required")      // 500
	ErrVerifierRequired     = errors.New("credential verifier is required") // 500
	ErrSessionStoreRequired = errors.New("session store is required")       // 500
	ErrHTTPAdapterRequired  = errors.New("adapter is required")             // 500
)
