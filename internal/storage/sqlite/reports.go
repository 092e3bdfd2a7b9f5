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

const reportColumns = `id, image_url, location, latitude, longitude, description,
	reporter_name, reporter_email, status, created_at, updated_at, verified_at, completed_at`

type reportRow struct {
	ID            uuid.UUID    `db:"id"`
	ImageURL      string       `db:"image_url"`
	Location      string       `db:"location"`
	Latitude      *float64     `db:"latitude"`
	Longitude     *float64     `db:"longitude"`
	Description   *string      `db:"description"`
	ReporterName  string       `db:"reporter_name"`
	ReporterEmail string       `db:"reporter_email"`
	Status        string       `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
	VerifiedAt    sql.NullTime `db:"verified_at"`
	CompletedAt   sql.NullTime `db:"completed_at"`
}

func (r reportRow) toDomain() *domain.Report {
	out := &domain.Report{
		ID:            r.ID,
		ImageURL:      r.ImageURL,
		Location:      r.Location,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Description:   r.Description,
		ReporterName:  r.ReporterName,
		ReporterEmail: r.ReporterEmail,
		Status:        domain.ReportStatus(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.VerifiedAt.Valid {
		t := r.VerifiedAt.Time.UTC()
		out.VerifiedAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time.UTC()
		out.CompletedAt = &t
	}
	return out
}

type ReportRepo struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewReportRepo(db *sqlx.DB, logger *slog.Logger, now func() time.Time) *ReportRepo {
	return &ReportRepo{db: db, logger: logger, now: now}
}

func (s *ReportRepo) ListReports(ctx context.Context) ([]*domain.Report, error) {
	const op = "sqlite.Report.List"

	// rowid breaks ties between reports created within the same instant.
	query := `SELECT ` + reportColumns + ` FROM garbage_reports ORDER BY created_at DESC, rowid DESC`

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.Error("db select failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapError(ctx, op, err)
	}

	reports := make([]*domain.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toDomain())
	}
	return reports, nil
}

func (s *ReportRepo) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "sqlite.Report.Get"

	query := `SELECT ` + reportColumns + ` FROM garbage_reports WHERE id = ?`

	var row reportRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		s.logger.Error("db get failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, wrapError(ctx, op, err)
	}
	return row.toDomain(), nil
}

func (s *ReportRepo) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	const op = "sqlite.Report.Create"

	report := domain.NewReport(draft, uuid.New(), utcNow(s.now))

	const query = `
		INSERT INTO garbage_reports (
			id, image_url, location, latitude, longitude, description,
			reporter_name, reporter_email, status, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
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
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapError(ctx, op, err)
	}

	return report, nil
}

func (s *ReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error) {
	const op = "sqlite.Report.UpdateStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	const update = `
		UPDATE garbage_reports
		SET status       = ?2,
			updated_at   = ?3,
			verified_at  = CASE WHEN ?2 = 'verified' THEN ?3 ELSE verified_at END,
			completed_at = CASE WHEN ?2 = 'completed' THEN ?3 ELSE completed_at END
		WHERE id = ?1
	`

	res, err := tx.ExecContext(ctx, update, id, string(status), utcNow(s.now))
	if err != nil {
		s.logger.Error("db update failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, wrapError(ctx, op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, wrapError(ctx, op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	var row reportRow
	if err := tx.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM garbage_reports WHERE id = ?`, id); err != nil {
		return nil, wrapError(ctx, op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapError(ctx, op, err)
	}
	return row.toDomain(), nil
}
