package services

import (
	"context"
	"errors"
	"time"

	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/crypto"
)

// BuildSession is the pure profile to session transform.
func BuildSession(p *core.Profile) core.Session {
	return core.Session{
		ID:       p.ID,
		Email:    p.Email,
		Name:     p.DisplayName,
		Role:     p.Role,
		PhotoURL: p.PhotoURL,
		Position: p.Position,
	}
}

// SessionManager issues opaque tokens for app sessions. Stores only ever
// see the token hash.
type SessionManager struct {
	config core.SessionConfig
	store  core.SessionStore
}

func NewSessionManager(config core.SessionConfig, store core.SessionStore) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionConfig().MaxAge
	}
	return &SessionManager{config: config, store: store}
}

func (sm *SessionManager) MaxAge() time.Duration {
	return sm.config.MaxAge
}

// Create stores s and returns the raw token for the cookie.
func (sm *SessionManager) Create(ctx context.Context, s *core.Session) (string, error) {
	pair, err := crypto.NewTokenPair()
	if err != nil {
		return "", err
	}

	if err := sm.store.Save(ctx, pair.Hash, s, sm.config.MaxAge); err != nil {
		return "", err
	}

	return pair.Token, nil
}

func (sm *SessionManager) Verify(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	session, err := sm.store.Get(ctx, crypto.HashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, core.ErrSessionNotFound
	}

	return session, nil
}

func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return core.ErrInvalidToken
	}

	err := sm.store.Delete(ctx, crypto.HashToken(token))
	if errors.Is(err, core.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Purge drops expired sessions from stores without native expiry.
func (sm *SessionManager) Purge(ctx context.Context) (int, error) {
	purger, ok := sm.store.(core.SessionPurger)
	if !ok {
		return 0, nil
	}
	return purger.DeleteExpired(ctx)
}
