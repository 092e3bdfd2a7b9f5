package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminRepo(pool *pgxpool.Pool, logger *slog.Logger, now func() time.Time) *AdminRepo {
	return &AdminRepo{pool: pool, logger: logger, now: now}
}

func (p *AdminRepo) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	const op = "postgres.Admin.GetByEmail"

	const query = `SELECT id, email, password, created_at FROM admins WHERE email = $1`

	var a domain.Admin
	err := p.pool.QueryRow(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()

	return &a, nil
}

func (p *AdminRepo) CreateAdmin(ctx context.Context, draft domain.AdminDraft) (*domain.Admin, error) {
	const op = "postgres.Admin.Create"

	if draft.Email == "" || draft.PasswordHash == "" {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	admin := &domain.Admin{
		ID:           uuid.New(),
		Email:        draft.Email,
		PasswordHash: draft.PasswordHash,
		CreatedAt:    utcNow(p.now),
	}

	const query = `INSERT INTO admins (id, email, password, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := p.pool.Exec(ctx, query, admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt); err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return admin, nil
}
