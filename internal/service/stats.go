package service

import (
	"context"

	"cleanCity/internal/domain"
)

type StatsService struct {
	repo ReportRepository
}

func NewStatsService(repo ReportRepository) *StatsService {
	return &StatsService{repo: repo}
}

// GetStats counts reports per status over a full scan of the store.
func (s *StatsService) GetStats(ctx context.Context) (*domain.ReportStats, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.ReportStats{Total: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusVerified:
			stats.Verified++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusCompleted:
			stats.Completed++
		}
	}
	return stats, nil
}
