package core

import (
	"context"
	"time"
)

// ProfileStore is the application-owned table of profiles.
//
// Lookups return ErrProfileNotFound when nothing matches. Insert returns
// ErrStoreConflict when the id or the email is already taken.
type ProfileStore interface {
	FindByPrincipalID(ctx context.Context, id string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)

	Insert(ctx context.Context, p *Profile) (*Profile, error)

	// ReassignOwnedResources moves every listing owned by oldID to newID
	// and returns how many moved.
	ReassignOwnedResources(ctx context.Context, oldID, newID string) (int, error)

	// Delete removes a profile. Deleting a missing profile is not an error.
	Delete(ctx context.Context, id string) error

	// Atomically runs fn against a store bound to a single transaction
	// when the backend has one.
	Atomically(ctx context.Context, fn func(ProfileStore) error) error
}

// SessionStore keeps application sessions keyed by token hash.
type SessionStore interface {
	Save(ctx context.Context, key string, s *Session, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Session, error)
	Delete(ctx context.Context, key string) error
}

// SessionPurger is implemented by session stores without native expiry.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// CredentialStorage defines credential-related operations of the local provider
type CredentialStorage interface {
	CreateCredential(ctx context.Context, c *Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*Credential, error)
}

// ProviderSessionStorage defines provider session operations of the local provider
type ProviderSessionStorage interface {
	CreateProviderSession(ctx context.Context, s *ProviderSession) error

	GetProviderSessionByHash(ctx context.Context, tokenHash string) (*ProviderSession, error)

	DeleteProviderSessionByHash(ctx context.Context, tokenHash string) error

	// Cleanup
	DeleteExpiredProviderSessions(ctx context.Context) (int, error)
}

type ProviderStorage interface {
	CredentialStorage
	ProviderSessionStorage
}
