package workers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/internal/storage/uploads"
)

type ReportLister interface {
	ListReports(ctx context.Context) ([]*domain.Report, error)
}

type UploadDir interface {
	List(ctx context.Context) ([]uploads.FileInfo, error)
	Remove(ctx context.Context, name string) error
}

// UploadJanitor deletes images that no report points at, such as those left
// behind by a failed report insert. Files younger than grace are kept so a
// submission in flight is never raced.
type UploadJanitor struct {
	reports  ReportLister
	files    UploadDir
	prefix   string
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewUploadJanitor(reports ReportLister, files UploadDir, urlPrefix string, interval, grace time.Duration, logger *slog.Logger) *UploadJanitor {
	return &UploadJanitor{
		reports:  reports,
		files:    files,
		prefix:   urlPrefix,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		logger:   logger,
	}
}

func (j *UploadJanitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info("upload janitor disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.Error("upload janitor pass failed", slog.Any("error", err))
			}
		}
	}
}

// RunOnce removes unreferenced files older than the grace period and
// returns how many were deleted.
func (j *UploadJanitor) RunOnce(ctx context.Context) (int, error) {
	files, err := j.files.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	reports, err := j.reports.ListReports(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		if name, ok := strings.CutPrefix(r.ImageURL, j.prefix); ok {
			referenced[name] = struct{}{}
		}
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, f := range files {
		if _, ok := referenced[f.Name]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := j.files.Remove(ctx, f.Name); err != nil {
			j.logger.Warn("remove orphaned upload failed", slog.String("name", f.Name), slog.Any("error", err))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("orphaned uploads removed", slog.Int("count", removed))
	}
	return removed, nil
}
