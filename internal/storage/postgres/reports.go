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

const reportColumns = `id, image_url, location, latitude, longitude, description,
	reporter_name, reporter_email, status, created_at, updated_at, verified_at, completed_at`

type ReportRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

func NewReportRepo(pool *pgxpool.Pool, logger *slog.Logger, now func() time.Time) *ReportRepo {
	return &ReportRepo{pool: pool, logger: logger, now: now}
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var r domain.Report
	err := row.Scan(
		&r.ID,
		&r.ImageURL,
		&r.Location,
		&r.Latitude,
		&r.Longitude,
		&r.Description,
		&r.ReporterName,
		&r.ReporterEmail,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.VerifiedAt,
		&r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if r.VerifiedAt != nil {
		t := r.VerifiedAt.UTC()
		r.VerifiedAt = &t
	}
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		r.CompletedAt = &t
	}
	return &r, nil
}

func (p *ReportRepo) ListReports(ctx context.Context) ([]*domain.Report, error) {
	const op = "postgres.Report.List"

	query := `SELECT ` + reportColumns + ` FROM garbage_reports ORDER BY created_at DESC, id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reports := make([]*domain.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return reports, nil
}

func (p *ReportRepo) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "postgres.Report.Get"

	query := `SELECT ` + reportColumns + ` FROM garbage_reports WHERE id = $1`

	r, err := scanReport(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	return r, nil
}

func (p *ReportRepo) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	const op = "postgres.Report.Create"

	report := domain.NewReport(draft, uuid.New(), utcNow(p.now))

	const query = `
		INSERT INTO garbage_reports (
			id, image_url, location, latitude, longitude, description,
			reporter_name, reporter_email, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.pool.Exec(ctx, query,
		report.ID,
		report.ImageURL,
		report.Location,
		report.Latitude,
		report.Longitude,
		report.Description,
		report.ReporterName,
		report.ReporterEmail,
		string(report.Status),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return report, nil
}

// UpdateStatus applies the status change in one statement so concurrent
// writers to the same row resolve as last writer wins.
func (p *ReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error) {
	const op = "postgres.Report.UpdateStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	query := `
		UPDATE garbage_reports
		SET status       = $2::text,
			updated_at   = $3,
			verified_at  = CASE WHEN $2::text = 'verified' THEN $3 ELSE verified_at END,
			completed_at = CASE WHEN $2::text = 'completed' THEN $3 ELSE completed_at END
		WHERE id = $1
		RETURNING ` + reportColumns

	r, err := scanReport(p.pool.QueryRow(ctx, query, id, string(status), utcNow(p.now)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db update failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	return r, nil
}
