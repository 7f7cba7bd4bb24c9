package application

import (
	"context"
	"log"
	"path/filepath"
	"time"

	billing "kitchen-billing/internal/billing/domain"
)

// Exporter writes a monthly export.
type Exporter interface {
	ExportMonthly(ctx context.Context, year, month int, format string, dest Destination) (string, error)
}

// Scheduler exports the previous month once a month.
type Scheduler struct {
	exporter   Exporter
	exportDir  string
	format     string
	dailyAt    string
	dayOfMonth int
	logger     *log.Logger
}

// NewScheduler constructs a Scheduler. It runs on dayOfMonth at dailyAt (HH:MM, UTC).
func NewScheduler(exporter Exporter, exportDir, format, dailyAt string, dayOfMonth int, logger *log.Logger) *Scheduler {
	if format == "" {
		format = "pdf"
	}
	if dayOfMonth < 1 || dayOfMonth > 28 {
		dayOfMonth = 1
	}
	return &Scheduler{
		exporter:   exporter,
		exportDir:  exportDir,
		format:     format,
		dailyAt:    dailyAt,
		dayOfMonth: dayOfMonth,
		logger:     logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.exporter == nil || s.exportDir == "" {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			if _, err := s.RunOnce(ctx, now.UTC()); err != nil && s.logger != nil {
				s.logger.Printf("billing schedule error: err=%v", err)
			}
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	if now.Day() != s.dayOfMonth {
		return false
	}
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

// RunOnce exports the month before now into the export directory.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (string, error) {
	period := billing.PeriodOf(now).Previous()
	dest := FileDestination{Path: filepath.Join(s.exportDir, DefaultFileName(period, s.format))}
	path, err := s.exporter.ExportMonthly(ctx, period.Year, int(period.Month), s.format, dest)
	if err != nil {
		return "", err
	}
	if s.logger != nil {
		s.logger.Printf("billing schedule exported: period=%s path=%s", period, path)
	}
	return path, nil
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
