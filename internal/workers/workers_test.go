package workers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/internal/storage/memory"
	"cleanCity/internal/storage/uploads"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingSweeper struct {
	n   int
	err error
}

func (c *countingSweeper) SweepExpired(context.Context) (int, error) { return c.n, c.err }

func TestSessionSweeper_RunOnce(t *testing.T) {
	w := NewSessionSweeper(&countingSweeper{n: 3}, time.Minute, newTestLogger())
	if got := w.RunOnce(context.Background()); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}

	w = NewSessionSweeper(&countingSweeper{err: errors.New("redis down")}, time.Minute, newTestLogger())
	if got := w.RunOnce(context.Background()); got != 0 {
		t.Fatalf("expected 0 on error got %d", got)
	}
}

func TestSessionSweeper_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewSessionSweeper(&countingSweeper{}, 0, newTestLogger()).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled sweeper kept running")
	}
}

func TestUploadJanitor_RemovesOnlyOldOrphans(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := uploads.New(dir, newTestLogger())
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}

	save := func() string {
		name, err := store.Save(ctx, ".png", bytes.NewReader([]byte("img")))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		return name
	}
	referenced := save()
	orphan := save()
	fresh := save()

	old := time.Now().Add(-2 * time.Hour)
	for _, n := range []string{referenced, orphan} {
		if err := os.Chtimes(filepath.Join(dir, n), old, old); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	reports := memory.NewReportStore(nil)
	if _, err := reports.CreateReport(ctx, domain.ReportDraft{ImageURL: "/uploads/" + referenced, Location: "x"}); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	j := NewUploadJanitor(reports, store, "/uploads/", time.Minute, time.Hour, newTestLogger())
	n, err := j.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}

	for name, want := range map[string]bool{referenced: true, orphan: false, fresh: true} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != want {
			t.Fatalf("%s: exists=%v want %v", name, exists, want)
		}
	}
}

func TestUploadJanitor_EmptyDirSkipsReportScan(t *testing.T) {
	store, err := uploads.New(t.TempDir(), newTestLogger())
	if err != nil {
		t.Fatalf("uploads.New: %v", err)
	}

	j := NewUploadJanitor(failingLister{}, store, "/uploads/", time.Minute, time.Hour, newTestLogger())
	if n, err := j.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected 0,nil got %d,%v", n, err)
	}
}

type failingLister struct{}

func (failingLister) ListReports(context.Context) ([]*domain.Report, error) {
	return nil, errors.New("must not be called")
}
