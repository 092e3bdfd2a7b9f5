// Package sqlite is a file backed report and admin store for single node
// deployments that do not run Postgres.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleanCity/pkg/e"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS garbage_reports (
	id             TEXT PRIMARY KEY,
	image_url      TEXT NOT NULL,
	location       TEXT NOT NULL,
	latitude       REAL,
	longitude      REAL,
	description    TEXT,
	reporter_name  TEXT NOT NULL,
	reporter_email TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'verified', 'in-progress', 'completed')),
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL,
	verified_at    TIMESTAMP,
	completed_at   TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_garbage_reports_created_at ON garbage_reports (created_at DESC);

CREATE TABLE IF NOT EXISTS admins (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

type SQLite struct {
	DB      *sqlx.DB
	Reports *ReportRepo
	Admins  *AdminRepo
}

func NewSQLite(ctx context.Context, path string, logger *slog.Logger, now func() time.Time) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)

	logger.Info("Opening SQLite database", slog.String("path", path))

	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		logger.Error("Failed to open SQLite", slog.String("error", err.Error()))
		return nil, e.Wrap("storage.sqlite.NewSQLite.Connect", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, e.Wrap("storage.sqlite.NewSQLite.Migrate", err)
	}

	return &SQLite{
		DB:      db,
		Reports: NewReportRepo(db, logger, now),
		Admins:  NewAdminRepo(db, logger, now),
	}, nil
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

func utcNow(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC()
}

// wrapError adds SQLite constraint mapping on top of e.WrapError.
func wrapError(ctx context.Context, op string, err error) error {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", op, e.ErrConflict)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
		}
	}
	return e.WrapError(ctx, op, err)
}
