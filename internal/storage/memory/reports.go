package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/google/uuid"
)

type storedReport struct {
	report *domain.Report
	seq    uint64
}

type ReportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*storedReport
	seq     uint64
	clock   clock
}

// NewReportStore returns an empty store. A nil now uses time.Now.
func NewReportStore(now func() time.Time) *ReportStore {
	return &ReportStore{
		reports: make(map[uuid.UUID]*storedReport),
		clock:   now,
	}
}

func (s *ReportStore) ListReports(ctx context.Context) ([]*domain.Report, error) {
	s.mu.RLock()
	items := make([]*storedReport, 0, len(s.reports))
	for _, r := range s.reports {
		items = append(items, r)
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.report.CreatedAt.Equal(b.report.CreatedAt) {
			return a.report.CreatedAt.After(b.report.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*domain.Report, 0, len(items))
	for _, it := range items {
		out = append(out, it.report.Clone())
	}
	return out, nil
}

func (s *ReportStore) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "memory.Report.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return r.report.Clone(), nil
}

func (s *ReportStore) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	const op = "memory.Report.Create"

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	report := domain.NewReport(draft, uuid.New(), s.clock.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return nil, fmt.Errorf("%s: %w", op, e.ErrConflict)
	}
	s.seq++
	s.reports[report.ID] = &storedReport{report: report, seq: s.seq}

	return report.Clone(), nil
}

func (s *ReportStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error) {
	const op = "memory.Report.UpdateStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	r.report.ApplyStatus(status, s.clock.now())

	return r.report.Clone(), nil
}

// Len is the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
