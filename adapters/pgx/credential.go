package pgx

import (
	"context"
	"errors"

	"github.com/cygnusgroup/backoffice/core"
)

func (a *Adapter) CreateCredential(ctx context.Context, c *core.Credential) error {
	query := `INSERT INTO credentials (principal_id, email, email_verified, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := a.pool.QueryRow(ctx, query,
		c.PrincipalID,
		core.NormalizeEmail(c.Email),
		c.EmailVerified,
		c.Name,
		c.PasswordHash,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	err = mapError(err, nil)
	if errors.Is(err, core.ErrStoreConflict) {
		return core.ErrPrincipalExists
	}
	return err
}

func (a *Adapter) GetCredentialByEmail(ctx context.Context, email string) (*core.Credential, error) {
	q := `SELECT principal_id, email, email_verified, name, password_hash, created_at, updated_at
		FROM credentials WHERE lower(email) = $1`

	c := &core.Credential{}
	err := a.pool.QueryRow(ctx, q, core.NormalizeEmail(email)).Scan(
		&c.PrincipalID, &c.Email, &c.EmailVerified, &c.Name, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, core.ErrPrincipalNotFound)
	}
	return c, nil
}
