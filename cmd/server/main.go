package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"regdesk/internal/platform/config"
	"regdesk/internal/platform/httpserver"
	"regdesk/internal/platform/logger"
	httpmetrics "regdesk/internal/platform/metrics"
	"regdesk/internal/platform/middleware"
	"regdesk/internal/platform/postgres"
	redisclient "regdesk/internal/platform/redis"
	"regdesk/internal/registration/handler"
	regmetrics "regdesk/internal/registration/metrics"
	"regdesk/internal/registration/notifier"
	"regdesk/internal/registration/service"
	"regdesk/internal/registration/store/draft"
	"regdesk/internal/registration/store/ledger"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/platform/middleware/metadata"
	"regdesk/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires config, stores, notifiers and the HTTP router. Business logic
// lives in internal/registration.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("regdesk stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	// Store-level histograms register on the default registry at init, so the
	// request and form metrics share it.
	reg := prometheus.DefaultRegisterer
	httpMetrics := httpmetrics.New(reg)
	formMetrics := regmetrics.New(reg)

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	drafts := buildDraftStore(rdb, cfg, log)
	submissions, err := buildLedger(ctx, cfg, rdb, db, log)
	if err != nil {
		return err
	}

	sender, closeSender, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	svc := service.New(drafts, submissions, sender,
		service.WithLogger(log),
		service.WithMetrics(formMetrics),
		service.WithConfirmationPath(cfg.ConfirmationPath),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	r.Get("/healthz", healthHandler(rdb, db))
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	handler.New(svc, log, httpMetrics, cfg.SecureCookies).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting regdesk", "addr", cfg.Addr, "ledger", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func buildDraftStore(rdb *redisclient.Client, cfg config.Server, log *slog.Logger) service.DraftStore {
	if rdb == nil {
		log.Warn("REDIS_URL not set; drafts are kept in memory")
		return draft.NewInMemory()
	}
	return draft.NewRedis(rdb.Client, draft.WithTTL(cfg.DraftTTL))
}

func buildLedger(ctx context.Context, cfg config.Server, rdb *redisclient.Client, db *sql.DB, log *slog.Logger) (service.SubmissionLedger, error) {
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		if db == nil {
			return nil, errors.New("LEDGER_BACKEND=postgres requires DATABASE_URL")
		}
		pg := ledger.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, errors.New("LEDGER_BACKEND=redis requires REDIS_URL")
		}
		return ledger.NewRedis(rdb.Client), nil
	default:
		log.Warn("submission ledger is in memory; submissions are lost on restart")
		return ledger.NewInMemory(), nil
	}
}

// buildNotifier always posts to NOTIFY_URL and adds a Kafka sink when brokers
// are configured. The returned func releases the Kafka client.
func buildNotifier(cfg config.Server, log *slog.Logger) (service.Notifier, func(), error) {
	web := notifier.NewHTTP(cfg.Notify.URL, notifier.WithTimeout(cfg.Notify.Timeout))
	if len(cfg.Kafka.Brokers) == 0 {
		return web, func() {}, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Kafka.Brokers...),
		kgo.DefaultProduceTopic(cfg.Kafka.Topic),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka client: %w", err)
	}
	log.Info("kafka sink enabled", "topic", cfg.Kafka.Topic)
	return notifier.NewMulti(web, notifier.NewKafka(client, cfg.Kafka.Topic)), client.Close, nil
}

func healthHandler(rdb *redisclient.Client, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status["postgres"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
