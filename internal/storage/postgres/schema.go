package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS garbage_reports (
	id             uuid PRIMARY KEY,
	image_url      text NOT NULL,
	location       text NOT NULL,
	latitude       double precision,
	longitude      double precision,
	description    text,
	reporter_name  text NOT NULL,
	reporter_email text NOT NULL,
	status         text NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'verified', 'in-progress', 'completed')),
	created_at     timestamptz NOT NULL,
	updated_at     timestamptz NOT NULL,
	verified_at    timestamptz,
	completed_at   timestamptz
);

CREATE INDEX IF NOT EXISTS idx_garbage_reports_created_at ON garbage_reports (created_at DESC);

CREATE TABLE IF NOT EXISTS admins (
	id         uuid PRIMARY KEY,
	email      text NOT NULL UNIQUE,
	password   text NOT NULL,
	created_at timestamptz NOT NULL
);
`

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
