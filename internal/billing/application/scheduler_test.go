package application

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

type recordingExporter struct {
	year, month int
	format      string
	dest        Destination
}

func (e *recordingExporter) ExportMonthly(ctx context.Context, year, month int, format string, dest Destination) (string, error) {
	e.year, e.month, e.format, e.dest = year, month, format, dest
	return dest.Name(), nil
}

func TestScheduler_ShouldRun(t *testing.T) {
	s := NewScheduler(&recordingExporter{}, "/tmp", "", "06:30", 2, nil)
	if !s.shouldRun(time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected run at configured day and time")
	}
	if s.shouldRun(time.Date(2026, 3, 3, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected no run on other days")
	}
	if s.shouldRun(time.Date(2026, 3, 2, 6, 31, 0, 0, time.UTC)) {
		t.Fatalf("expected no run at other minutes")
	}
	if NewScheduler(&recordingExporter{}, "/tmp", "", "6h30", 2, nil).shouldRun(time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected invalid time never to run")
	}
}

func TestScheduler_RunOnceExportsPreviousMonth(t *testing.T) {
	exporter := &recordingExporter{}
	dir := t.TempDir()
	s := NewScheduler(exporter, dir, "pdf", "06:00", 1, nil)
	path, err := s.RunOnce(context.Background(), time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if exporter.year != 2025 || exporter.month != 12 || exporter.format != "pdf" {
		t.Fatalf("unexpected export call: %+v", exporter)
	}
	if want := filepath.Join(dir, "Sammelabrechnung_2025-12.pdf"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
}
