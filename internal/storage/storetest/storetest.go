// Package storetest holds behaviour checks shared by every report and admin
// store implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
)

type ReportStore interface {
	ListReports(ctx context.Context) ([]*domain.Report, error)
	GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error)
}

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, draft domain.AdminDraft) (*domain.Admin, error)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{t: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func f64ptr(v float64) *float64 { return &v }
func strptr(v string) *string   { return &v }

func Draft(location string) domain.ReportDraft {
	return domain.ReportDraft{
		ImageURL:      "/uploads/" + uuid.NewString() + ".jpg",
		Location:      location,
		ReporterName:  "Jane",
		ReporterEmail: "jane@example.com",
	}
}

// RunReportStore runs the report store contract. newStore must return an
// empty store that reads time from now.
func RunReportStore(t *testing.T, newStore func(t *testing.T, now func() time.Time) ReportStore) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Create_ForcesPendingAndStampsTimes", func(t *testing.T) {
		clk := NewClock(start)
		s := newStore(t, clk.Now)

		d := Draft("12 Main St")
		d.Status = domain.StatusCompleted
		d.Latitude = f64ptr(52.52)
		d.Longitude = f64ptr(13.405)
		d.Description = strptr("overflowing bins")

		r, err := s.CreateReport(context.Background(), d)
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		if r.ID == uuid.Nil {
			t.Fatalf("expected id")
		}
		if r.Status != domain.StatusPending {
			t.Fatalf("expected pending, got %s", r.Status)
		}
		if r.VerifiedAt != nil || r.CompletedAt != nil {
			t.Fatalf("expected nil markers, got %v %v", r.VerifiedAt, r.CompletedAt)
		}
		if !r.CreatedAt.Equal(start) || !r.UpdatedAt.Equal(r.CreatedAt) {
			t.Fatalf("expected createdAt=updatedAt=%v, got %v %v", start, r.CreatedAt, r.UpdatedAt)
		}

		got, err := s.GetReport(context.Background(), r.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if got.Location != d.Location || got.ImageURL != d.ImageURL ||
			got.ReporterName != d.ReporterName || got.ReporterEmail != d.ReporterEmail {
			t.Fatalf("round trip mismatch: %+v", got)
		}
		if got.Latitude == nil || *got.Latitude != 52.52 || got.Longitude == nil || *got.Longitude != 13.405 {
			t.Fatalf("coordinates mismatch: %v %v", got.Latitude, got.Longitude)
		}
		if got.Description == nil || *got.Description != "overflowing bins" {
			t.Fatalf("description mismatch: %v", got.Description)
		}
		if got.Status != domain.StatusPending {
			t.Fatalf("stored status %s", got.Status)
		}
	})

	t.Run("Create_OptionalFieldsStayNil", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		r, err := s.CreateReport(context.Background(), Draft("40.7128,-74.0060"))
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		got, err := s.GetReport(context.Background(), r.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if got.Latitude != nil || got.Longitude != nil || got.Description != nil {
			t.Fatalf("expected nil optional fields, got %+v", got)
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		_, err := s.GetReport(context.Background(), uuid.New())
		if !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateStatus_VerifiedThenInProgressKeepsVerifiedAt", func(t *testing.T) {
		clk := NewClock(start)
		s := newStore(t, clk.Now)

		r, err := s.CreateReport(context.Background(), Draft("Elm Park"))
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}

		clk.Advance(time.Hour)
		verified, err := s.UpdateStatus(context.Background(), r.ID, domain.StatusVerified)
		if err != nil {
			t.Fatalf("UpdateStatus verified: %v", err)
		}
		if verified.VerifiedAt == nil || verified.VerifiedAt.Before(verified.CreatedAt) {
			t.Fatalf("expected verifiedAt >= createdAt, got %v", verified.VerifiedAt)
		}
		if !verified.UpdatedAt.Equal(start.Add(time.Hour)) {
			t.Fatalf("expected updatedAt refreshed, got %v", verified.UpdatedAt)
		}
		if !verified.CreatedAt.Equal(start) {
			t.Fatalf("createdAt changed: %v", verified.CreatedAt)
		}

		clk.Advance(time.Hour)
		inProgress, err := s.UpdateStatus(context.Background(), r.ID, domain.StatusInProgress)
		if err != nil {
			t.Fatalf("UpdateStatus in-progress: %v", err)
		}
		if inProgress.VerifiedAt == nil || !inProgress.VerifiedAt.Equal(*verified.VerifiedAt) {
			t.Fatalf("verifiedAt changed: %v -> %v", verified.VerifiedAt, inProgress.VerifiedAt)
		}
		if inProgress.CompletedAt != nil {
			t.Fatalf("completedAt should be nil")
		}
		if inProgress.Status != domain.StatusInProgress {
			t.Fatalf("status %s", inProgress.Status)
		}

		got, err := s.GetReport(context.Background(), r.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if got.Status != domain.StatusInProgress || got.VerifiedAt == nil {
			t.Fatalf("update not persisted: %+v", got)
		}
	})

	t.Run("UpdateStatus_PendingToCompletedIsAllowed", func(t *testing.T) {
		clk := NewClock(start)
		s := newStore(t, clk.Now)

		r, err := s.CreateReport(context.Background(), Draft("Harbour Rd"))
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		clk.Advance(time.Minute)

		done, err := s.UpdateStatus(context.Background(), r.ID, domain.StatusCompleted)
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if done.CompletedAt == nil || !done.CompletedAt.Equal(start.Add(time.Minute)) {
			t.Fatalf("expected completedAt, got %v", done.CompletedAt)
		}
		if done.VerifiedAt != nil {
			t.Fatalf("verifiedAt must stay nil, got %v", done.VerifiedAt)
		}

		clk.Advance(time.Minute)
		back, err := s.UpdateStatus(context.Background(), r.ID, domain.StatusPending)
		if err != nil {
			t.Fatalf("UpdateStatus back to pending: %v", err)
		}
		if back.CompletedAt == nil {
			t.Fatalf("completedAt must never be cleared")
		}
	})

	t.Run("UpdateStatus_NotFoundLeavesStoreUntouched", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		if _, err := s.CreateReport(context.Background(), Draft("A")); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}

		_, err := s.UpdateStatus(context.Background(), uuid.New(), domain.StatusVerified)
		if !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		list, err := s.ListReports(context.Background())
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected size 1, got %d", len(list))
		}
		if list[0].Status != domain.StatusPending {
			t.Fatalf("existing report changed: %s", list[0].Status)
		}
	})

	t.Run("List_NewestFirst", func(t *testing.T) {
		clk := NewClock(start)
		s := newStore(t, clk.Now)

		const n = 5
		ids := make([]uuid.UUID, 0, n)
		for i := 0; i < n; i++ {
			r, err := s.CreateReport(context.Background(), Draft("loc"))
			if err != nil {
				t.Fatalf("CreateReport %d: %v", i, err)
			}
			ids = append(ids, r.ID)
			clk.Advance(time.Second)
		}

		list, err := s.ListReports(context.Background())
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if len(list) != n {
			t.Fatalf("expected %d reports, got %d", n, len(list))
		}
		for i, r := range list {
			if r.ID != ids[n-1-i] {
				t.Fatalf("position %d: got %s want %s", i, r.ID, ids[n-1-i])
			}
			if i > 0 && list[i-1].CreatedAt.Before(r.CreatedAt) {
				t.Fatalf("list not sorted by createdAt desc at %d", i)
			}
		}
	})

	t.Run("List_Empty", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		list, err := s.ListReports(context.Background())
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}
	})

	t.Run("Create_ConcurrentIDsAreDistinct", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		const workers, perWorker = 8, 25
		var (
			mu   sync.Mutex
			seen = make(map[uuid.UUID]struct{}, workers*perWorker)
			wg   sync.WaitGroup
			errs = make(chan error, workers*perWorker)
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					r, err := s.CreateReport(context.Background(), Draft("burst"))
					if err != nil {
						errs <- err
						return
					}
					mu.Lock()
					seen[r.ID] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("CreateReport: %v", err)
		}
		if len(seen) != workers*perWorker {
			t.Fatalf("expected %d distinct ids, got %d", workers*perWorker, len(seen))
		}
	})
}

// RunAdminStore runs the admin store contract. uniqueEmails tells whether the
// backend rejects a second admin with the same email.
func RunAdminStore(t *testing.T, newStore func(t *testing.T, now func() time.Time) AdminStore, uniqueEmails bool) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("CreateAndGetByEmail", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		a, err := s.CreateAdmin(context.Background(), domain.AdminDraft{Email: "admin@garbagetracker.com", PasswordHash: "hash"})
		if err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}
		if a.ID == uuid.Nil || !a.CreatedAt.Equal(start) {
			t.Fatalf("unexpected admin: %+v", a)
		}

		got, err := s.GetAdminByEmail(context.Background(), "admin@garbagetracker.com")
		if err != nil {
			t.Fatalf("GetAdminByEmail: %v", err)
		}
		if got.ID != a.ID || got.PasswordHash != "hash" {
			t.Fatalf("unexpected admin: %+v", got)
		}
	})

	t.Run("GetByEmail_IsExactMatch", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		if _, err := s.CreateAdmin(context.Background(), domain.AdminDraft{Email: "admin@garbagetracker.com", PasswordHash: "h"}); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}

		for _, email := range []string{"Admin@GarbageTracker.com", " admin@garbagetracker.com", "admin@garbagetracker.co"} {
			_, err := s.GetAdminByEmail(context.Background(), email)
			if !errors.Is(err, e.ErrNotFound) {
				t.Fatalf("%q: expected ErrNotFound, got %v", email, err)
			}
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		s := newStore(t, NewClock(start).Now)

		d := domain.AdminDraft{Email: "dup@example.com", PasswordHash: "h"}
		if _, err := s.CreateAdmin(context.Background(), d); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}
		_, err := s.CreateAdmin(context.Background(), d)
		if uniqueEmails && !errors.Is(err, e.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if !uniqueEmails && err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
