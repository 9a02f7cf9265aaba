package pgx

import (
	"context"

	"github.com/cygnusgroup/backoffice/core"
)

func (a *Adapter) CreateProviderSession(ctx context.Context, s *core.ProviderSession) error {
	q := `INSERT INTO provider_sessions (id, principal_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := a.pool.Exec(ctx, q, s.ID, s.PrincipalID, s.TokenHash, s.ExpiresAt, s.CreatedAt)
	return mapError(err, nil)
}

func (a *Adapter) GetProviderSessionByHash(ctx context.Context, tokenHash string) (*core.ProviderSession, error) {
	q := `SELECT id, principal_id, token_hash, expires_at, created_at FROM provider_sessions WHERE token_hash = $1`

	s := &core.ProviderSession{}
	err := a.pool.QueryRow(ctx, q, tokenHash).Scan(&s.ID, &s.PrincipalID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, mapError(err, core.ErrSessionNotFound)
	}
	return s, nil
}

func (a *Adapter) DeleteProviderSessionByHash(ctx context.Context, tokenHash string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM provider_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (a *Adapter) DeleteExpiredProviderSessions(ctx context.Context) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM provider_sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, mapError(err, nil)
	}
	return int(tag.RowsAffected()), nil
}
