package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kitchen-billing/internal/app"
	"kitchen-billing/internal/audit"
	"kitchen-billing/internal/auth"
	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/billing/infrastructure/memory"
	billinginterfaces "kitchen-billing/internal/billing/interfaces"
	"kitchen-billing/internal/config"
	masterdataapp "kitchen-billing/internal/masterdata/application"
	masterdatahttp "kitchen-billing/internal/masterdata/interfaces/http"
	"kitchen-billing/internal/observability/metrics"
	orderingapp "kitchen-billing/internal/ordering/application"
	orderinghttp "kitchen-billing/internal/ordering/interfaces/http"
	"kitchen-billing/internal/storage"
)

func main() {
	memoryMode := flag.Bool("memory", false, "run against an in-memory store seeded with demo data")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db          *sql.DB
		repos       app.Repositories
		auditLogger audit.Logger
		auditReader audit.Reader
	)
	if *memoryMode {
		store := memory.NewStore()
		period := billing.PeriodOf(time.Now().UTC()).Previous()
		if err := app.SeedDemo(ctx, store, period); err != nil {
			logger.Fatalf("demo seed error: %v", err)
		}
		repos = app.MemoryRepositories(store)
		metrics.Init(nil, logger)
		logger.Printf("memory mode: demo data seeded for %s", period)
	} else {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		if err := storage.RunMigrations(db); err != nil {
			logger.Fatalf("migration error: %v", err)
		}
		repos = app.PostgresRepositories(db)
		auditRepo := audit.NewRepository(db)
		auditLogger = auditRepo
		auditReader = auditRepo
		metrics.Init(db, logger)
	}

	prices, err := app.NewPriceProvider(cfg, db)
	if err != nil {
		logger.Fatalf("price provider error: %v", err)
	}
	aggregator, err := app.NewAggregator(cfg, repos, prices, logger)
	if err != nil {
		logger.Fatalf("aggregator error: %v", err)
	}
	reporter, err := app.NewReporter(cfg, aggregator, logger)
	if err != nil {
		logger.Fatalf("reporter error: %v", err)
	}

	personService, err := masterdataapp.NewPersonService(repos.Persons)
	if err != nil {
		logger.Fatalf("person service error: %v", err)
	}
	captureService, err := orderingapp.NewCaptureService(repos.Persons, repos.Orders, logger)
	if err != nil {
		logger.Fatalf("capture service error: %v", err)
	}
	chargeService, err := orderingapp.NewChargeService(repos.Persons, repos.Charges)
	if err != nil {
		logger.Fatalf("charge service error: %v", err)
	}

	personHandler, err := masterdatahttp.NewHandler(personService, auditLogger)
	if err != nil {
		logger.Fatalf("person handler error: %v", err)
	}
	orderHandler, err := orderinghttp.NewHandler(captureService, chargeService, auditLogger)
	if err != nil {
		logger.Fatalf("order handler error: %v", err)
	}
	monthlyHandler, err := billinginterfaces.NewMonthlyHandler(reporter, cfg.ExportDir, auditLogger)
	if err != nil {
		logger.Fatalf("monthly handler error: %v", err)
	}

	if cfg.Schedule.Enabled {
		if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
			logger.Fatalf("export dir error: %v", err)
		}
		scheduler := billingapp.NewScheduler(reporter, cfg.ExportDir, cfg.Schedule.Format, cfg.Schedule.DailyAt, cfg.Schedule.DayOfMonth, logger)
		go scheduler.Start(ctx)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	var handlerChain http.Handler

	mux := http.NewServeMux()
	mux.Handle("/api/v1/persons", personHandler)
	mux.Handle("/api/v1/persons/", personHandler)
	mux.Handle("/api/v1/orders", orderHandler)
	mux.Handle("/api/v1/charges", orderHandler)
	mux.Handle("/api/v1/charges/", orderHandler)
	mux.Handle("/api/v1/billing/monthly", monthlyHandler)
	mux.Handle("/api/v1/billing/monthly/", monthlyHandler)
	if auditReader != nil {
		auditHandler, err := audit.NewHistoryHandler(auditReader)
		if err != nil {
			logger.Fatalf("audit handler error: %v", err)
		}
		mux.Handle("/api/v1/audit", auditHandler)
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.JWTSecret == "" {
		logger.Printf("AUTH_JWT_SECRET not set: api is unauthenticated")
		handlerChain = mux
	} else {
		handlerChain = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(handlerChain, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
