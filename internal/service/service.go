package service

import (
	"context"
	"io"
	"time"

	"cleanCity/internal/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type ReportRepository interface {
	ListReports(ctx context.Context) ([]*domain.Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error)
}

type AdminRepository interface {
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, draft domain.AdminDraft) (*domain.Admin, error)
}

type SessionStore interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Set(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type ImageStore interface {
	Save(ctx context.Context, ext string, r io.Reader) (string, error)
}

type EventQueue interface {
	Enqueue(ctx context.Context, event domain.ReportEvent) error
}

type EventSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.ReportEvent, error)
}

type Service struct {
	Reports  *ReportService
	Stats    *StatsService
	Sessions *SessionRegistry
}

func NewService(reports *ReportService, stats *StatsService, sessions *SessionRegistry) *Service {
	return &Service{
		Reports:  reports,
		Stats:    stats,
		Sessions: sessions,
	}
}
