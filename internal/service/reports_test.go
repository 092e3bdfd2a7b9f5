package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"cleanCity/internal/domain"
	"cleanCity/internal/service"
	mock_service "cleanCity/internal/service/mocks"
	"cleanCity/internal/storage/uploads"
	"cleanCity/pkg/e"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func validCreateRequest() domain.CreateReportRequest {
	return domain.CreateReportRequest{
		Location:      "12 Main St",
		ReporterName:  "Jane",
		ReporterEmail: "jane@example.com",
	}
}

func pngUpload() *domain.ImageUpload {
	return &domain.ImageUpload{Filename: "photo.png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)}
}

func mustTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 12, 23, 12, 0, 0, 0, time.UTC)
}

func TestReportService_Create_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	images := mock_service.NewMockImageStore(ctrl)
	events := mock_service.NewMockEventQueue(ctrl)

	var saved []byte
	images.EXPECT().
		Save(gomock.Any(), ".png", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, r io.Reader) (string, error) {
			saved, _ = io.ReadAll(r)
			return "abc.png", nil
		}).
		Times(1)

	var got domain.ReportDraft
	repo.EXPECT().
		CreateReport(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d domain.ReportDraft) (*domain.Report, error) {
			got = d
			return domain.NewReport(d, uuid.New(), mustTime(t)), nil
		}).
		Times(1)

	events.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.ReportEvent) error {
			if ev.Type != domain.EventReportCreated || ev.Status != domain.StatusPending {
				t.Errorf("unexpected event %+v", ev)
			}
			return nil
		}).
		Times(1)

	svc := service.NewReportService(repo, images, events, newTestLogger(), 1024)

	r, err := svc.Create(context.Background(), validCreateRequest(), pngUpload())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", r.Status)
	}
	if got.ImageURL != "/uploads/abc.png" {
		t.Fatalf("unexpected image url %q", got.ImageURL)
	}
	if got.Location != "12 Main St" || got.ReporterEmail != "jane@example.com" {
		t.Fatalf("draft fields mismatch: %+v", got)
	}
	if !bytes.Equal(saved, pngHeader) {
		t.Fatalf("sniffed bytes were not replayed: %q", saved)
	}
}

func TestReportService_Create_ValidationBeforeAnyWrite(t *testing.T) {
	t.Parallel()

	lat := 91.0
	cases := []struct {
		name string
		req  func() domain.CreateReportRequest
		img  func() *domain.ImageUpload
		msg  string
	}{
		{"missing location", func() domain.CreateReportRequest {
			r := validCreateRequest()
			r.Location = ""
			return r
		}, pngUpload, "location is required"},
		{"bad email", func() domain.CreateReportRequest {
			r := validCreateRequest()
			r.ReporterEmail = "jane"
			return r
		}, pngUpload, "reporterEmail must be a valid email address"},
		{"latitude out of range", func() domain.CreateReportRequest {
			r := validCreateRequest()
			r.Latitude = &lat
			return r
		}, pngUpload, "latitude must be between -90 and 90"},
		{"missing image", validCreateRequest, func() *domain.ImageUpload { return nil }, "image is required"},
		{"not an image", validCreateRequest, func() *domain.ImageUpload {
			return &domain.ImageUpload{Filename: "x.png", Size: 5, Body: strings.NewReader("hello")}
		}, "only image files are allowed"},
		{"svg markup", validCreateRequest, func() *domain.ImageUpload {
			svg := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`
			return &domain.ImageUpload{Filename: "x.svg", Size: int64(len(svg)), Body: strings.NewReader(svg)}
		}, "only image files are allowed"},
		{"blank location", func() domain.CreateReportRequest {
			r := validCreateRequest()
			r.Location = "   "
			return r
		}, pngUpload, "location is required"},
		{"too large", validCreateRequest, func() *domain.ImageUpload {
			return &domain.ImageUpload{Filename: "x.png", Size: 4096, Body: bytes.NewReader(pngHeader)}
		}, "image must be at most 1024 bytes"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := service.NewReportService(
				mock_service.NewMockReportRepository(ctrl),
				mock_service.NewMockImageStore(ctrl),
				mock_service.NewMockEventQueue(ctrl),
				newTestLogger(), 1024)

			_, err := svc.Create(context.Background(), c.req(), c.img())
			if !errors.Is(err, e.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if err.Error() != c.msg {
				t.Fatalf("expected message %q, got %q", c.msg, err.Error())
			}
		})
	}
}

func TestReportService_Create_InsertFailureOrphansImage(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	store, err := uploads.New(dir, newTestLogger())
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}

	repo := mock_service.NewMockReportRepository(ctrl)
	repo.EXPECT().
		CreateReport(gomock.Any(), gomock.Any()).
		Return(nil, e.ErrInternal).
		Times(1)

	svc := service.NewReportService(repo, store, nil, newTestLogger(), 1024)

	if _, err := svc.Create(context.Background(), validCreateRequest(), pngUpload()); !errors.Is(err, e.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.png"))
	if len(matches) != 1 {
		t.Fatalf("expected the orphaned image to remain, found %v", matches)
	}
	if _, err := os.Stat(matches[0]); err != nil {
		t.Fatalf("stat orphan: %v", err)
	}
}

func TestReportService_Create_EnqueueFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	images := mock_service.NewMockImageStore(ctrl)
	events := mock_service.NewMockEventQueue(ctrl)

	images.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return("a.png", nil).Times(1)
	repo.EXPECT().
		CreateReport(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d domain.ReportDraft) (*domain.Report, error) {
			return domain.NewReport(d, uuid.New(), mustTime(t)), nil
		}).
		Times(1)
	events.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)

	svc := service.NewReportService(repo, images, events, newTestLogger(), 1024)

	if _, err := svc.Create(context.Background(), validCreateRequest(), pngUpload()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestReportService_UpdateStatus_InvalidStatus_NoStoreAccess(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewReportService(mock_service.NewMockReportRepository(ctrl), nil, nil, newTestLogger(), 0)

	for _, st := range []domain.ReportStatus{"", "done", "in_progress", "COMPLETED"} {
		_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.UpdateStatusRequest{Status: st})
		if !errors.Is(err, e.ErrInvalidInput) {
			t.Fatalf("status %q: expected ErrInvalidInput, got %v", st, err)
		}
	}
}

func TestReportService_UpdateStatus_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	events := mock_service.NewMockEventQueue(ctrl)

	id := uuid.New()
	want := domain.NewReport(domain.ReportDraft{Location: "x"}, id, mustTime(t))
	want.ApplyStatus(domain.StatusCompleted, mustTime(t).Add(time.Hour))

	repo.EXPECT().
		UpdateStatus(gomock.Any(), id, domain.StatusCompleted).
		Return(want, nil).
		Times(1)
	events.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.ReportEvent) error {
			if ev.Type != domain.EventReportStatusChanged || ev.ReportID != id || ev.Status != domain.StatusCompleted {
				t.Errorf("unexpected event %+v", ev)
			}
			return nil
		}).
		Times(1)

	svc := service.NewReportService(repo, nil, events, newTestLogger(), 0)

	got, err := svc.UpdateStatus(context.Background(), id, domain.UpdateStatusRequest{Status: domain.StatusCompleted})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.CompletedAt == nil || got.VerifiedAt != nil {
		t.Fatalf("unexpected markers: %+v", got)
	}
}

func TestReportService_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	repo.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Any(), domain.StatusVerified).
		Return(nil, e.ErrNotFound).
		Times(1)

	svc := service.NewReportService(repo, nil, nil, newTestLogger(), 0)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.UpdateStatusRequest{Status: domain.StatusVerified})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsService_GetStats(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mk := func(s domain.ReportStatus) *domain.Report { return &domain.Report{ID: uuid.New(), Status: s} }

	repo := mock_service.NewMockReportRepository(ctrl)
	repo.EXPECT().
		ListReports(gomock.Any()).
		Return([]*domain.Report{
			mk(domain.StatusPending), mk(domain.StatusPending),
			mk(domain.StatusVerified), mk(domain.StatusInProgress), mk(domain.StatusCompleted),
		}, nil).
		Times(1)

	got, err := service.NewStatsService(repo).GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := domain.ReportStats{Pending: 2, Verified: 1, InProgress: 1, Completed: 1, Total: 5}
	if *got != want {
		t.Fatalf("got %+v want %+v", *got, want)
	}
}

func TestStatsService_GetStats_RepoError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockReportRepository(ctrl)
	repo.EXPECT().ListReports(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	if _, err := service.NewStatsService(repo).GetStats(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
