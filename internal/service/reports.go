package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"
	"cleanCity/pkg/validator"

	"github.com/google/uuid"
)

const UploadsURLPrefix = "/uploads/"

type ReportService struct {
	repo     ReportRepository
	images   ImageStore
	events   EventQueue
	logger   *slog.Logger
	maxBytes int64
	now      func() time.Time
}

// NewReportService wires the report use cases. events may be nil when
// report events are disabled.
func NewReportService(repo ReportRepository, images ImageStore, events EventQueue, logger *slog.Logger, maxBytes int64) *ReportService {
	return &ReportService{
		repo:     repo,
		images:   images,
		events:   events,
		logger:   logger,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *ReportService) List(ctx context.Context) ([]*domain.Report, error) {
	return s.repo.ListReports(ctx)
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.repo.GetReport(ctx, id)
}

// Create validates the submission, stores the image and then the report.
// A failed insert leaves the stored image behind; the upload janitor
// removes such files.
func (s *ReportService) Create(ctx context.Context, req domain.CreateReportRequest, img *domain.ImageUpload) (*domain.Report, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, e.NewValidationError(validator.Describe(err))
	}
	if img == nil || img.Body == nil {
		return nil, e.NewValidationError("image is required")
	}
	if s.maxBytes > 0 && img.Size > s.maxBytes {
		return nil, e.NewValidationError(fmt.Sprintf("image must be at most %d bytes", s.maxBytes))
	}

	ext, body, err := sniffImage(img.Filename, img.Body)
	if err != nil {
		return nil, err
	}

	name, err := s.images.Save(ctx, ext, body)
	if err != nil {
		s.logger.Error("image save failed", slog.Any("error", err))
		return nil, err
	}

	report, err := s.repo.CreateReport(ctx, domain.ReportDraft{
		ImageURL:      UploadsURLPrefix + name,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Description:   req.Description,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
	})
	if err != nil {
		s.logger.Warn("report insert failed, image left orphaned",
			slog.String("image", name),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.Info("report created", slog.String("id", report.ID.String()), slog.String("image", name))
	s.publish(ctx, domain.EventReportCreated, report)
	return report, nil
}

func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, req domain.UpdateStatusRequest) (*domain.Report, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, e.NewValidationError(validator.Describe(err))
	}

	report, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("report status updated",
		slog.String("id", report.ID.String()),
		slog.String("status", string(report.Status)),
	)
	s.publish(ctx, domain.EventReportStatusChanged, report)
	return report, nil
}

func (s *ReportService) publish(ctx context.Context, typ domain.ReportEventType, r *domain.Report) {
	if s.events == nil {
		return
	}
	ev := domain.ReportEvent{
		Type:       typ,
		ReportID:   r.ID,
		Status:     r.Status,
		Location:   r.Location,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Enqueue(ctx, ev); err != nil {
		s.logger.Error("enqueue report event failed", slog.String("type", string(typ)), slog.Any("error", err))
		return
	}
	s.logger.Debug("report event enqueued", slog.String("type", string(typ)))
}
