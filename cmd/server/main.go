// rollcall serves event check-in: anonymous-friendly submission with
// fingerprint authentication and policy evaluation, plus the organizer API
// for managing events and reviewing attendance.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/admission"
	admissionhandler "rollcall/internal/admission/handler"
	admissionmetrics "rollcall/internal/admission/metrics"
	"rollcall/internal/attendance"
	attendancehandler "rollcall/internal/attendance/handler"
	"rollcall/internal/audit"
	"rollcall/internal/auth"
	authhandler "rollcall/internal/auth/handler"
	"rollcall/internal/event"
	eventhandler "rollcall/internal/event/handler"
	"rollcall/internal/fingerprint"
	httpapi "rollcall/internal/http"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/postgres"
	platformredis "rollcall/internal/platform/redis"
	"rollcall/internal/ratelimit"
)

const (
	jwtIssuer       = "rollcall"
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a configured database everything runs in memory. That keeps
	// local development and demos a single-binary affair; state is lost on
	// restart.
	var (
		db              *sql.DB
		eventStore      event.Store
		attendanceStore attendance.Store
		auditStore      audit.Store
		userStore       auth.Store
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		eventStore = event.NewPostgresStore(db)
		attendanceStore = attendance.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		userStore = auth.NewPostgresStore(db)
		log.Info("postgres connected")
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		eventStore = event.NewMemoryStore()
		attendanceStore = attendance.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		userStore = auth.NewMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var limiterStore ratelimit.Store
	if redisClient != nil {
		defer redisClient.Close()
		limiterStore = ratelimit.NewFallbackStore(
			ratelimit.NewRedisStore(redisClient.Client),
			ratelimit.NewMemoryStore(),
			log,
		)
		log.Info("redis connected")
	} else {
		log.Warn("redis not configured, rate limiting per process")
		limiterStore = ratelimit.NewMemoryStore()
	}

	publisher := audit.NewPublisher(0, log)
	var producer *audit.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = audit.NewKafkaProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		log.Info("kafka audit producer connected", "topic", cfg.Kafka.Topic)
	}
	worker := audit.NewWorker(auditStore, producer, publisher.Inbox(), log)

	fingerprints := fingerprint.NewService(cfg.FingerprintSecret)
	tokens := auth.NewJWTService(cfg.JWTSigningKey, jwtIssuer, tokenTTL)

	eventService := event.NewService(eventStore, log)
	attendanceService := attendance.NewService(attendanceStore, eventService,
		attendance.WithLogger(log),
		attendance.WithAuditEmitter(publisher),
	)
	admissionService := admission.NewService(eventService, attendanceStore, fingerprints,
		admission.WithLogger(log),
		admission.WithMetrics(admissionmetrics.New()),
		admission.WithAuditEmitter(publisher),
	)
	authService := auth.NewService(userStore, tokens, cfg.Admin.IsAdminEmail, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:       authhandler.New(authService, log),
		Events:     eventhandler.New(eventService, log),
		Checkin:    admissionhandler.New(admissionService, log),
		Attendance: attendancehandler.New(attendanceService, auditStore, log),

		TokenValidator: tokens,
		RateLimit: ratelimit.Middleware(limiterStore, ratelimit.Config{
			Enabled: !cfg.RateLimit.Disabled,
			Limit:   cfg.RateLimit.Limit,
			Window:  cfg.RateLimit.Window,
		}, log),
		Health: healthCheck(db, redisClient),
		Logger: log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting rollcall", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if producer != nil {
			return producer.Close(shutdownCtx)
		}
		return nil
	})
	return g.Wait()
}

// healthCheck pings whichever backing services are configured.
func healthCheck(db *sql.DB, redisClient *platformredis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
