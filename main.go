package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/audit"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/auth"
	billingapp "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application"
	billingevents "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application/events"
	billingrepo "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/infrastructure/postgres"
	billinginterfaces "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/interfaces"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing/eventbus"
	eventingrepo "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing/infrastructure/postgres"
	ledgerrepo "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/infrastructure/postgres"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/observability/metrics"
	recapp "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/application"
	recevents "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/application/events"
	recrepo "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/infrastructure/postgres"
	recinterfaces "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo, err := audit.NewRepository(db)
	if err != nil {
		logger.Fatalf("audit repository error: %v", err)
	}

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	eventing.RegisterType[recevents.EntryProjected](registry)
	eventing.RegisterType[billingevents.PurchaseRecorded](registry)
	eventing.RegisterType[billingevents.InvoiceClosed](registry)
	eventing.RegisterType[billingevents.InvoicePaid](registry)

	eventStore, err := eventingrepo.NewEventStore(db)
	if err != nil {
		logger.Fatalf("event store error: %v", err)
	}
	processedStore, err := eventingrepo.NewProcessedStore(db)
	if err != nil {
		logger.Fatalf("processed store error: %v", err)
	}
	dispatcher, err := eventing.NewDispatcher(baseBus, eventStore, registry)
	if err != nil {
		logger.Fatalf("dispatcher error: %v", err)
	}
	bus, err := eventing.NewPublisher(eventStore, dispatcher)
	if err != nil {
		logger.Fatalf("publisher error: %v", err)
	}

	eventing.Subscribe(baseBus, "projection-log",
		func(_ context.Context, projected recevents.EntryProjected) error {
			logger.Printf("projected %s entry %s due %s amount %s",
				projected.Direction, projected.EntryID, projected.DueDate.Format("2006-01-02"), projected.Amount)
			return nil
		}, processedStore)
	eventing.Subscribe(baseBus, "invoice-log",
		func(_ context.Context, closed billingevents.InvoiceClosed) error {
			logger.Printf("invoice %s closed at %s for %s", closed.InvoiceID, closed.Competency, closed.ClosedAmount)
			return nil
		}, processedStore)

	retrier := eventing.NewRetrier(
		eventing.WithAttempts(cfg.WriteRetryAttempts),
		eventing.WithBackoff(cfg.WriteRetryBackoff),
	)

	entryRepo := ledgerrepo.NewEntryRepository(db)
	recurrenceRepo := recrepo.NewRepository(db)
	cardRepo := billingrepo.NewCardRepository(db)
	invoiceRepo := billingrepo.NewInvoiceRepository(db)
	purchaseRepo := billingrepo.NewPurchaseRepository(db)

	projectorCfg, err := recapp.LoadConfig()
	if err != nil {
		logger.Fatalf("projector config error: %v", err)
	}
	projector, err := recapp.NewProjector(recurrenceRepo, entryRepo, entryRepo, bus, projectorCfg, systemClock{}, recapp.WithRetrier(retrier))
	if err != nil {
		logger.Fatalf("projector error: %v", err)
	}

	purchaseService, err := billingapp.NewPurchaseService(cardRepo, invoiceRepo, purchaseRepo, bus, systemClock{}, billingapp.WithPurchaseRetrier(retrier))
	if err != nil {
		logger.Fatalf("purchase service error: %v", err)
	}
	invoiceService, err := billingapp.NewInvoiceService(invoiceRepo, purchaseRepo, bus, systemClock{}, billingapp.WithInvoiceRetrier(retrier))
	if err != nil {
		logger.Fatalf("invoice service error: %v", err)
	}

	recurrenceHandler, err := recinterfaces.NewRecurrenceHandler(recurrenceRepo, projector, auditRepo, systemClock{})
	if err != nil {
		logger.Fatalf("recurrence handler error: %v", err)
	}
	invoiceHandler, err := billinginterfaces.NewInvoiceHandler(invoiceService, auditRepo)
	if err != nil {
		logger.Fatalf("invoice handler error: %v", err)
	}
	purchaseHandler, err := billinginterfaces.NewPurchaseHandler(purchaseService, auditRepo)
	if err != nil {
		logger.Fatalf("purchase handler error: %v", err)
	}
	cardHandler, err := billinginterfaces.NewCardHandler(cardRepo)
	if err != nil {
		logger.Fatalf("card handler error: %v", err)
	}

	if cfg.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := projector.ExpandAll(context.Background()); err != nil {
					logger.Printf("sweep error: %v", err)
				}
			}
		}()
	}
	go func() {
		ticker := time.NewTicker(cfg.DispatchInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := dispatcher.Dispatch(context.Background(), cfg.DispatchBatch); err != nil {
				logger.Printf("dispatch error: %v", err)
			}
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/cards", cardHandler)
	mux.Handle("/api/v1/purchases", purchaseHandler)
	mux.Handle("/api/v1/invoices", invoiceHandler)
	mux.Handle("/api/v1/invoices/", invoiceHandler)
	mux.Handle("/api/v1/recurrences", recurrenceHandler)
	mux.Handle("/api/v1/recurrences/", recurrenceHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	JWTSecret          string
	SweepInterval      time.Duration
	DispatchInterval   time.Duration
	DispatchBatch      int
	WriteRetryAttempts int
	WriteRetryBackoff  time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:        getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:          getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SweepInterval:      getenvDuration("SWEEP_INTERVAL", time.Hour),
		DispatchInterval:   getenvDuration("DISPATCH_INTERVAL", 5*time.Second),
		DispatchBatch:      getenvIntDefault("DISPATCH_BATCH", 50),
		WriteRetryAttempts: getenvIntDefault("WRITE_RETRY_ATTEMPTS", 3),
		WriteRetryBackoff:  getenvDuration("WRITE_RETRY_BACKOFF", 200*time.Millisecond),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
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

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
