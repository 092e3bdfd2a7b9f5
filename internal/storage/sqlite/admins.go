package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type adminRow struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
}

type AdminRepo struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminRepo(db *sqlx.DB, logger *slog.Logger, now func() time.Time) *AdminRepo {
	return &AdminRepo{db: db, logger: logger, now: now}
}

// GetAdminByEmail compares with SQLite's default BINARY collation, so the
// match is exact and case sensitive.
func (s *AdminRepo) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const op = "sqlite.Admin.GetByEmail"

	var row adminRow
	err := s.db.GetContext(ctx, &row, `SELECT id, email, password, created_at FROM admins WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		s.logger.Error("db get failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapError(ctx, op, err)
	}

	return &domain.Admin{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.Password,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func (s *AdminRepo) CreateAdmin(ctx context.Context, draft domain.AdminDraft) (*domain.Admin, error) {
	const op = "sqlite.Admin.Create"

	if draft.Email == "" || draft.PasswordHash == "" {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	admin := &domain.Admin{
		ID:           uuid.New(),
		Email:        draft.Email,
		PasswordHash: draft.PasswordHash,
		CreatedAt:    utcNow(s.now),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, password, created_at) VALUES (?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt,
	)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapError(ctx, op, err)
	}

	return admin, nil
}
