package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kitchen-billing/internal/app"
	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/billing/infrastructure/memory"
	"kitchen-billing/internal/config"
)

const (
	exitError      = 1
	exitUsage      = 2
	exitPermission = 3
	exitNotFound   = 4
)

type options struct {
	year   int
	month  int
	format string
	out    string
	memory bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], time.Now().UTC())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitUsage)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(exitUsage)
	}

	path, err := run(context.Background(), cfg, opts, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(exitCode(err))
	}
	fmt.Println(path)
}

func parseFlags(args []string, now time.Time) (options, error) {
	previous := billing.PeriodOf(now).Previous()
	fs := flag.NewFlagSet("monthly_export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := options{}
	fs.IntVar(&opts.year, "year", previous.Year, "billing year")
	fs.IntVar(&opts.month, "month", int(previous.Month), "billing month (1-12)")
	fs.StringVar(&opts.format, "format", "pdf", "export format: pdf, xlsx or csv")
	fs.StringVar(&opts.out, "out", "", "output file or directory (default: current directory)")
	fs.BoolVar(&opts.memory, "memory", false, "export demo data from an in-memory store")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if _, err := billing.NewPeriod(opts.year, opts.month); err != nil {
		return opts, err
	}
	return opts, nil
}

func run(ctx context.Context, cfg config.Config, opts options, logger *log.Logger) (string, error) {
	var (
		db    *sql.DB
		repos app.Repositories
	)
	if opts.memory {
		store := memory.NewStore()
		period, err := billing.NewPeriod(opts.year, opts.month)
		if err != nil {
			return "", err
		}
		if err := app.SeedDemo(ctx, store, period); err != nil {
			return "", err
		}
		repos = app.MemoryRepositories(store)
	} else {
		if cfg.DatabaseURL == "" {
			return "", errors.New("monthly_export: DATABASE_URL is required")
		}
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("db open: %w", err)
		}
		defer db.Close()
		repos = app.PostgresRepositories(db)
	}

	prices, err := app.NewPriceProvider(cfg, db)
	if err != nil {
		return "", err
	}
	aggregator, err := app.NewAggregator(cfg, repos, prices, logger)
	if err != nil {
		return "", err
	}
	reporter, err := app.NewReporter(cfg, aggregator, logger)
	if err != nil {
		return "", err
	}

	path, err := outputPath(opts)
	if err != nil {
		return "", err
	}
	dest := &billingapp.FileDestination{Path: path}
	if _, err := reporter.ExportMonthly(ctx, opts.year, opts.month, opts.format, dest); err != nil {
		return "", err
	}
	return path, nil
}

func outputPath(opts options) (string, error) {
	period, err := billing.NewPeriod(opts.year, opts.month)
	if err != nil {
		return "", err
	}
	name := billingapp.DefaultFileName(period, opts.format)
	if opts.out == "" {
		return name, nil
	}
	if info, err := os.Stat(opts.out); err == nil && info.IsDir() {
		return filepath.Join(opts.out, name), nil
	}
	return opts.out, nil
}

func describe(err error) string {
	var exportErr *billingapp.ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Message()
	}
	return err.Error()
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, billingapp.ErrDestinationPermission):
		return exitPermission
	case errors.Is(err, billingapp.ErrDestinationNotFound):
		return exitNotFound
	case errors.Is(err, billing.ErrInvalidPeriod), errors.Is(err, billingapp.ErrUnsupportedFormat):
		return exitUsage
	default:
		return exitError
	}
}
