package pgx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cygnusgroup/backoffice/core"
)

// ProfileStore implements core.ProfileStore over the profiles and listings
// tables. A store created by Atomically is bound to one transaction.
type ProfileStore struct {
	db   querier
	pool *pgxpool.Pool // nil inside a transaction
}

var _ core.ProfileStore = (*ProfileStore)(nil)

const profileColumns = `id, email, display_name, role, phone, photo_url, position, created_at, updated_at`

func scanProfile(row pgx.Row) (*core.Profile, error) {
	p := &core.Profile{}
	var role string
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &role, &p.Phone, &p.PhotoURL, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err, core.ErrProfileNotFound)
	}
	p.Role = core.Role(role)
	return p, nil
}

func (s *ProfileStore) FindByPrincipalID(ctx context.Context, id string) (*core.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(s.db.QueryRow(ctx, q, id))
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*core.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = $1`
	return scanProfile(s.db.QueryRow(ctx, q, core.NormalizeEmail(email)))
}

func (s *ProfileStore) Insert(ctx context.Context, p *core.Profile) (*core.Profile, error) {
	if !p.Role.Valid() {
		return nil, core.ErrInvalidRole
	}

	now := time.Now().UTC()
	createdAt, updatedAt := p.CreatedAt, p.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	q := `INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + profileColumns

	return scanProfile(s.db.QueryRow(ctx, q,
		p.ID,
		core.NormalizeEmail(p.Email),
		p.DisplayName,
		string(p.Role),
		p.Phone,
		p.PhotoURL,
		p.Position,
		createdAt,
		updatedAt,
	))
}

func (s *ProfileStore) ReassignOwnedResources(ctx context.Context, oldID, newID string) (int, error) {
	tag, err := s.db.Exec(ctx, `UPDATE listings SET agent_id = $2, updated_at = now() WHERE agent_id = $1`, oldID, newID)
	if err != nil {
		return 0, mapError(err, nil)
	}
	return int(tag.RowsAffected()), nil
}

func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return mapError(err, nil)
}

// Atomically runs fn in one transaction with foreign keys checked at commit,
// so listings may point at a profile inserted later in the same transaction.
func (s *ProfileStore) Atomically(ctx context.Context, fn func(core.ProfileStore) error) error {
	if s.pool == nil {
		return fn(s)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SET CONSTRAINTS ALL DEFERRED`); err != nil {
			return err
		}
		return fn(&ProfileStore{db: tx})
	})
	return mapError(err, nil)
}

// SetRole changes the permission level of a profile.
func (s *ProfileStore) SetRole(ctx context.Context, id string, role core.Role) error {
	if !role.Valid() {
		return core.ErrInvalidRole
	}
	tag, err := s.db.Exec(ctx, `UPDATE profiles SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}
