package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/observability/metrics"
)

// ErrUnsupportedFormat is returned for an export format without renderer.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Renderer lays a report out as a document.
type Renderer interface {
	Format() string
	ContentType() string
	Render(report billing.Report) ([]byte, error)
}

// Reporter renders the monthly collective invoice.
type Reporter struct {
	computer     MonthlyComputer
	renderers    map[string]Renderer
	organization string
	logger       *log.Logger
}

// NewReporter constructs a Reporter.
func NewReporter(computer MonthlyComputer, organization string, logger *log.Logger, renderers ...Renderer) (*Reporter, error) {
	if computer == nil {
		return nil, errors.New("billing reporter: nil monthly computer")
	}
	if len(renderers) == 0 {
		return nil, errors.New("billing reporter: no renderers")
	}
	if logger == nil {
		logger = log.Default()
	}
	byFormat := make(map[string]Renderer, len(renderers))
	for _, renderer := range renderers {
		if renderer == nil {
			return nil, errors.New("billing reporter: nil renderer")
		}
		byFormat[strings.ToLower(renderer.Format())] = renderer
	}
	return &Reporter{
		computer:     computer,
		renderers:    byFormat,
		organization: organization,
		logger:       logger,
	}, nil
}

// Renderer returns the renderer registered for format.
func (r *Reporter) Renderer(format string) (Renderer, error) {
	renderer, ok := r.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return renderer, nil
}

// Report computes the month and partitions it into sections.
func (r *Reporter) Report(ctx context.Context, year, month int) (billing.Report, error) {
	period, err := billing.NewPeriod(year, month)
	if err != nil {
		return billing.Report{}, err
	}
	rows, err := r.computer.ComputeMonthly(ctx, year, month)
	if err != nil {
		return billing.Report{}, err
	}
	return billing.BuildReport(period, rows, r.organization), nil
}

// ExportMonthly renders the month in format and writes it to dest. It
// returns the destination name. Computation errors are returned unchanged;
// write failures are returned as *ExportError.
func (r *Reporter) ExportMonthly(ctx context.Context, year, month int, format string, dest Destination) (string, error) {
	start := time.Now()
	name, err := r.export(ctx, year, month, format, dest)
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, billing.ErrInvalidPeriod), errors.Is(err, ErrUnsupportedFormat):
		result = metrics.ResultInvalid
	default:
		result = metrics.ResultError
		r.logger.Printf("billing export failed: year=%d month=%d format=%s err=%v", year, month, format, err)
	}
	metrics.ObserveBillingExport(strings.ToLower(format), result, time.Since(start))
	return name, err
}

func (r *Reporter) export(ctx context.Context, year, month int, format string, dest Destination) (string, error) {
	if dest == nil {
		return "", errors.New("billing reporter: nil destination")
	}
	renderer, err := r.Renderer(format)
	if err != nil {
		return "", err
	}
	report, err := r.Report(ctx, year, month)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(report)
	if err != nil {
		return "", fmt.Errorf("export: render %s: %w", renderer.Format(), err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := dest.Write(ctx, data); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", ClassifyWriteError(dest.Name(), err)
	}
	return dest.Name(), nil
}
