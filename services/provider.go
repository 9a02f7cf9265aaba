package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/crypto"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	DefaultProviderSessionMaxAge = time.Hour
)

// RegisterInput provisions a principal in the local identity provider.
type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	EmailVerified bool
}

// LocalProvider is a self-hosted identity provider backed by the
// credentials and provider_sessions tables.
type LocalProvider struct {
	storage   core.ProviderStorage
	hasher    crypto.PasswordHasher
	maxAge    time.Duration
	dummyHash string
	now       func() time.Time
}

var _ core.CredentialVerifier = (*LocalProvider)(nil)

func NewLocalProvider(storage core.ProviderStorage, hasher crypto.PasswordHasher, maxAge time.Duration) (*LocalProvider, error) {
	if maxAge <= 0 {
		maxAge = DefaultProviderSessionMaxAge
	}

	// Unknown emails still pay for one hash comparison.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &LocalProvider{
		storage:   storage,
		hasher:    hasher,
		maxAge:    maxAge,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Register creates a new principal with a fresh opaque id.
func (lp *LocalProvider) Register(ctx context.Context, input RegisterInput) (*core.Principal, error) {
	email := core.NormalizeEmail(input.Email)
	if err := validateRegistration(email, input.Password); err != nil {
		return nil, err
	}

	// Step 1: Check if principal already exists
	_, err := lp.storage.GetCredentialByEmail(ctx, email)
	if err == nil {
		return nil, core.ErrPrincipalExists
	}
	if !errors.Is(err, core.ErrPrincipalNotFound) {
		return nil, fmt.Errorf("failed to check existing principal: %w", err)
	}

	// Step 2: Hash the password
	hash, err := lp.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Step 3: Store the credential
	now := lp.now().UTC()
	cred := &core.Credential{
		PrincipalID:   uuid.NewString(),
		Email:         email,
		EmailVerified: input.EmailVerified,
		Name:          strings.TrimSpace(input.Name),
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := lp.storage.CreateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return &core.Principal{
		ID:            cred.PrincipalID,
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		Name:          cred.Name,
	}, nil
}

// Verify checks the secret and issues a provider session on success.
func (lp *LocalProvider) Verify(ctx context.Context, email, secret string) (*core.Principal, error) {
	email = core.NormalizeEmail(email)

	cred, err := lp.storage.GetCredentialByEmail(ctx, email)
	if errors.Is(err, core.ErrPrincipalNotFound) {
		_, _ = lp.hasher.Verify(secret, lp.dummyHash)
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}

	ok, err := lp.hasher.Verify(secret, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: stored hash: %w", core.ErrProviderUnavailable, err)
	}
	if !ok {
		return nil, core.ErrInvalidCredentials
	}

	pair, err := crypto.NewTokenPair()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}

	now := lp.now().UTC()
	session := &core.ProviderSession{
		ID:          uuid.NewString(),
		PrincipalID: cred.PrincipalID,
		TokenHash:   pair.Hash,
		ExpiresAt:   now.Add(lp.maxAge),
		CreatedAt:   now,
	}
	if err := lp.storage.CreateProviderSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}

	return &core.Principal{
		ID:            cred.PrincipalID,
		Email:         cred.Email,
		EmailVerified: cred.EmailVerified,
		Name:          cred.Name,
		SessionToken:  pair.Token,
	}, nil
}

// Revoke deletes the provider session issued to p. Revoking twice is fine.
func (lp *LocalProvider) Revoke(ctx context.Context, p *core.Principal) error {
	if p == nil || p.SessionToken == "" {
		return nil
	}

	err := lp.storage.DeleteProviderSessionByHash(ctx, crypto.HashToken(p.SessionToken))
	if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		return fmt.Errorf("failed to revoke provider session: %w", err)
	}
	return nil
}

// Authenticated resolves a live provider session token.
func (lp *LocalProvider) Authenticated(ctx context.Context, token string) (*core.ProviderSession, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	session, err := lp.storage.GetProviderSessionByHash(ctx, crypto.HashToken(token))
	if err != nil {
		return nil, err
	}
	if lp.now().After(session.ExpiresAt) {
		return nil, core.ErrSessionExpired
	}
	return session, nil
}

func (lp *LocalProvider) PurgeExpired(ctx context.Context) (int, error) {
	return lp.storage.DeleteExpiredProviderSessions(ctx)
}

func validateRegistration(email, password string) error {
	switch {
	case email == "":
		return core.ErrEmailRequired
	case !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return core.ErrInvalidEmail
	case password == "":
		return core.ErrPasswordRequired
	case len(password) < MinPasswordLength:
		return core.ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return core.ErrPasswordTooLong
	}
	return nil
}
