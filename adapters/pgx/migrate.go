package pgx

import (
	"context"
	"fmt"
)

// schema is idempotent. listings.agent_id is DEFERRABLE so a migration can
// reassign listings before the replacement profile row exists.
const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS profiles (
    id text PRIMARY KEY,
    email text NOT NULL,
    display_name text NOT NULL DEFAULT '',
    role text NOT NULL DEFAULT 'agent' CHECK (role IN ('admin', 'agent')),
    phone text NOT NULL DEFAULT '',
    photo_url text NOT NULL DEFAULT '',
    position text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS profiles_email_lower_unique
ON profiles (LOWER(email));

CREATE TABLE IF NOT EXISTS listings (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    title text NOT NULL DEFAULT '',
    agent_id text REFERENCES profiles(id) DEFERRABLE INITIALLY IMMEDIATE,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS listings_agent_id_idx
ON listings (agent_id);

CREATE TABLE IF NOT EXISTS activity_logs (
    id uuid PRIMARY KEY,
    user_id text NOT NULL,
    user_name text NOT NULL DEFAULT '',
    action_type text NOT NULL,
    entity text NOT NULL,
    details text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS activity_logs_created_at_idx
ON activity_logs (created_at DESC);

CREATE TABLE IF NOT EXISTS credentials (
    principal_id uuid PRIMARY KEY,
    email text NOT NULL,
    email_verified boolean NOT NULL DEFAULT false,
    name text NOT NULL DEFAULT '',
    password_hash text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS credentials_email_lower_unique
ON credentials (LOWER(email));

CREATE TABLE IF NOT EXISTS provider_sessions (
    id uuid PRIMARY KEY,
    principal_id uuid NOT NULL REFERENCES credentials(principal_id) ON DELETE CASCADE,
    token_hash text NOT NULL UNIQUE,
    expires_at timestamptz NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS provider_sessions_expires_at_idx
ON provider_sessions (expires_at);
`

// Migrate creates every table the service uses.
func (a *Adapter) Migrate(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", mapError(err, nil))
	}
	return nil
}
