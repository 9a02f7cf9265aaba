package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cygnusgroup/backoffice/core"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Adapter holds the pool shared by every Postgres-backed port.
type Adapter struct {
	pool *pgxpool.Pool
}

var (
	_ core.ProviderStorage  = (*Adapter)(nil)
	_ core.ActivityRecorder = (*Adapter)(nil)
)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}

// Connect opens a pool and checks it is reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return pool, nil
}

// Profiles returns the profile store bound to the pool.
func (a *Adapter) Profiles() *ProfileStore {
	return &ProfileStore{db: a.pool, pool: a.pool}
}

// Ping reports whether the database answers.
func (a *Adapter) Ping(ctx context.Context) error {
	return mapError(a.pool.Ping(ctx), nil)
}

// mapError translates driver errors into the core taxonomy. notFound
// replaces pgx.ErrNoRows when non-nil.
func mapError(err error, notFound error) error {
	if err == nil || alreadyMapped(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%w: %s: %w", core.ErrStoreConflict, pgErr.ConstraintName, err)
		case strings.HasPrefix(pgErr.Code, "23"): // other integrity constraints
			return fmt.Errorf("%w: %w", core.ErrIntegrityViolation, err)
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			pgErr.Code == "53300", // too_many_connections
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "57014": // query_canceled
			return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	return err
}

func alreadyMapped(err error) bool {
	return errors.Is(err, core.ErrStoreConflict) ||
		errors.Is(err, core.ErrStoreUnavailable) ||
		errors.Is(err, core.ErrIntegrityViolation)
}
