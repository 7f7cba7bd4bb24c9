package application

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billing "kitchen-billing/internal/billing/domain"
	masterdata "kitchen-billing/internal/masterdata/domain"
)

type textRenderer struct {
	last billing.Report
}

func (r *textRenderer) Format() string      { return "txt" }
func (r *textRenderer) ContentType() string { return "text/plain" }

func (r *textRenderer) Render(report billing.Report) ([]byte, error) {
	r.last = report
	var b strings.Builder
	b.WriteString(report.Title())
	for _, section := range report.Sections {
		b.WriteString("\n" + section.Title + " " + section.Totals.Total.StringFixed(2))
	}
	b.WriteString("\nTotal " + report.Totals.Total.StringFixed(2))
	return []byte(b.String()), nil
}

type stubComputer struct {
	rows  []billing.BillingRow
	err   error
	calls int
}

func (c *stubComputer) ComputeMonthly(ctx context.Context, year, month int) ([]billing.BillingRow, error) {
	c.calls++
	return c.rows, c.err
}

type failingDestination struct {
	err error
}

func (d failingDestination) Name() string { return "/exports/out.txt" }

func (d failingDestination) Write(ctx context.Context, data []byte) error { return d.err }

func newReporter(t *testing.T, computer MonthlyComputer, renderer *textRenderer) *Reporter {
	t.Helper()
	reporter, err := NewReporter(computer, "Schulküche Linz", nil, renderer)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	return reporter
}

func TestExportMonthly_FreeMealOnlyOmitsOtherSections(t *testing.T) {
	f := newFixture(t)
	a := f.person("Gast A", masterdata.CategoryFreeMeal, "")
	b := f.person("Gast B", masterdata.CategoryFreeMeal, "")
	f.order(a.ID, date(2026, time.January, 5), 2, true)
	f.order(b.ID, date(2026, time.January, 6), 1, false)
	f.charge(b.ID, date(2026, time.January, 1), "2.40", 1)

	renderer := &textRenderer{}
	reporter := newReporter(t, f.aggregator(), renderer)
	var buf bytes.Buffer
	name, err := reporter.ExportMonthly(context.Background(), 2026, 1, "TXT", WriterDestination{Label: "buffer", Writer: &buf})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "buffer" {
		t.Fatalf("expected buffer, got %q", name)
	}
	report := renderer.last
	if len(report.Sections) != 1 || report.Sections[0].Category != masterdata.CategoryFreeMeal {
		t.Fatalf("expected only the free meal section, got %+v", report.Sections)
	}
	sum := decimal.Zero
	for _, row := range report.Sections[0].Rows {
		sum = sum.Add(row.Total)
	}
	if !report.Totals.Total.Equal(sum) || !sum.Equal(decimal.RequireFromString("5.90")) {
		t.Fatalf("grand total %s, row sum %s", report.Totals.Total, sum)
	}
	if !strings.HasPrefix(buf.String(), "Sammelabrechnung Jänner 2026") {
		t.Fatalf("unexpected document: %q", buf.String())
	}
	if report.Organization != "Schulküche Linz" {
		t.Fatalf("unexpected organization %q", report.Organization)
	}
}

func TestExportMonthly_PropagatesComputeError(t *testing.T) {
	integrity := &billing.IntegrityError{PersonID: 3, Source: "order"}
	computer := &stubComputer{err: integrity}
	renderer := &textRenderer{}
	reporter := newReporter(t, computer, renderer)
	var buf bytes.Buffer
	_, err := reporter.ExportMonthly(context.Background(), 2026, 2, "txt", WriterDestination{Writer: &buf})
	if err != integrity {
		t.Fatalf("expected the aggregator error unchanged, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestExportMonthly_EmptyMonthWritesHeaderOnly(t *testing.T) {
	reporter := newReporter(t, &stubComputer{rows: []billing.BillingRow{}}, &textRenderer{})
	var buf bytes.Buffer
	if _, err := reporter.ExportMonthly(context.Background(), 2026, 3, "txt", WriterDestination{Writer: &buf}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.String() != "Sammelabrechnung März 2026\nTotal 0.00" {
		t.Fatalf("unexpected document: %q", buf.String())
	}
}

func TestExportMonthly_UnsupportedFormat(t *testing.T) {
	computer := &stubComputer{}
	reporter := newReporter(t, computer, &textRenderer{})
	_, err := reporter.ExportMonthly(context.Background(), 2026, 3, "docx", WriterDestination{Writer: &bytes.Buffer{}})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if computer.calls != 0 {
		t.Fatalf("expected no computation for unsupported format")
	}
}

func TestExportMonthly_ClassifiesWriteErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		kind     ExportErrorKind
		sentinel error
	}{
		{"permission", &fs.PathError{Op: "open", Path: "/exports/out.txt", Err: fs.ErrPermission}, ExportErrorPermission, ErrDestinationPermission},
		{"not found", &fs.PathError{Op: "open", Path: "/exports/out.txt", Err: fs.ErrNotExist}, ExportErrorNotFound, ErrDestinationNotFound},
		{"unexpected", errors.New("disk full"), ExportErrorUnexpected, ErrDestinationUnexpected},
	}
	messages := map[string]bool{}
	for _, tc := range cases {
		reporter := newReporter(t, &stubComputer{rows: []billing.BillingRow{}}, &textRenderer{})
		_, err := reporter.ExportMonthly(context.Background(), 2026, 4, "txt", failingDestination{err: tc.err})
		var exportErr *ExportError
		if !errors.As(err, &exportErr) {
			t.Fatalf("%s: expected *ExportError, got %v", tc.name, err)
		}
		if exportErr.Kind != tc.kind || !errors.Is(err, tc.sentinel) || !errors.Is(err, tc.err) {
			t.Fatalf("%s: unexpected classification %+v", tc.name, exportErr)
		}
		messages[exportErr.Message()] = true
	}
	if len(messages) != 3 {
		t.Fatalf("expected three distinct messages, got %v", messages)
	}
}

func TestExportMonthly_MissingDirectoryIsNotFound(t *testing.T) {
	reporter := newReporter(t, &stubComputer{rows: []billing.BillingRow{}}, &textRenderer{})
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	_, err := reporter.ExportMonthly(context.Background(), 2026, 4, "txt", FileDestination{Path: path})
	if !errors.Is(err, ErrDestinationNotFound) {
		t.Fatalf("expected ErrDestinationNotFound, got %v", err)
	}
}

func TestExportMonthly_WritesFile(t *testing.T) {
	reporter := newReporter(t, &stubComputer{rows: []billing.BillingRow{}}, &textRenderer{})
	path := filepath.Join(t.TempDir(), "out.txt")
	name, err := reporter.ExportMonthly(context.Background(), 2026, 4, "txt", FileDestination{Path: path})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != path {
		t.Fatalf("expected %s, got %s", path, name)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), "Sammelabrechnung April 2026") {
		t.Fatalf("unexpected file content %q %v", data, err)
	}
}

func TestSafeFileName(t *testing.T) {
	if got, err := SafeFileName("../../etc/abrechnung", "pdf"); err != nil || got != "abrechnung.pdf" {
		t.Fatalf("expected abrechnung.pdf, got %q %v", got, err)
	}
	if got, err := SafeFileName("jan.PDF", "pdf"); err != nil || got != "jan.PDF" {
		t.Fatalf("expected jan.PDF, got %q %v", got, err)
	}
	if _, err := SafeFileName("..", "pdf"); err == nil {
		t.Fatalf("expected error for ..")
	}
	if got := DefaultFileName(billing.Period{Year: 2026, Month: time.January}, "XLSX"); got != "Sammelabrechnung_2026-01.xlsx" {
		t.Fatalf("unexpected default name %q", got)
	}
}
