package pgx

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cygnusgroup/backoffice/core"
)

// Record inserts one audit row into activity_logs.
func (a *Adapter) Record(ctx context.Context, act *core.Activity) error {
	createdAt := act.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	q := `INSERT INTO activity_logs (id, user_id, user_name, action_type, entity, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := a.pool.Exec(ctx, q,
		uuid.NewString(),
		act.ProfileID,
		act.DisplayName,
		act.Action,
		act.Entity,
		act.Detail,
		createdAt.UTC(),
	)
	return mapError(err, nil)
}

// RecentActivity returns the newest rows first.
func (a *Adapter) RecentActivity(ctx context.Context, limit int) ([]core.Activity, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.pool.Query(ctx, `SELECT user_id, user_name, action_type, entity, details, created_at
		FROM activity_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	var out []core.Activity
	for rows.Next() {
		var act core.Activity
		if err := rows.Scan(&act.ProfileID, &act.DisplayName, &act.Action, &act.Entity, &act.Detail, &act.CreatedAt); err != nil {
			return nil, mapError(err, nil)
		}
		out = append(out, act)
	}
	return out, mapError(rows.Err(), nil)
}
