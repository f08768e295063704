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

	"claimtrail/internal/claims"
	claimsHandler "claimtrail/internal/claims/handler"
	claimsMetrics "claimtrail/internal/claims/metrics"
	"claimtrail/internal/external"
	"claimtrail/internal/ingest"
	ingestHandler "claimtrail/internal/ingest/handler"
	ingestMetrics "claimtrail/internal/ingest/metrics"
	"claimtrail/internal/jwttoken"
	"claimtrail/internal/notify"
	"claimtrail/internal/platform/config"
	"claimtrail/internal/platform/httpserver"
	"claimtrail/internal/platform/logger"
	"claimtrail/internal/platform/middleware"
	"claimtrail/internal/platform/postgres"
	platformredis "claimtrail/internal/platform/redis"
	"claimtrail/internal/revalidation"
	revalidationHandler "claimtrail/internal/revalidation/handler"
	revalidationMetrics "claimtrail/internal/revalidation/metrics"
	"claimtrail/internal/scheduler"
	httptransport "claimtrail/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when configured, in-memory otherwise so the
	// service still runs for local development.
	var (
		db             *sql.DB
		claimStore     claims.Store
		batchStore     ingest.Store
		batchListStore ingestHandler.Store
		cycleStore     revalidation.Store
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		claimStore = claims.NewPostgres(db, claimsMetrics.New())
		pgBatches := ingest.NewPostgres(db)
		batchStore, batchListStore = pgBatches, pgBatches
		cycleStore = revalidation.NewPostgres(db)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		memBatches := ingest.NewInMemoryStore()
		claimStore = claims.NewInMemoryStore()
		batchStore, batchListStore = memBatches, memBatches
		cycleStore = revalidation.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// External claim system adapter, with the Redis lookup cache layered
	// on when available.
	var system external.System
	if cfg.External.BaseURL != "" {
		system = external.NewHTTPClient(cfg.External.BaseURL, cfg.External.SigningSecret,
			cfg.Server.JWTIssuer, cfg.External.Timeout, log)
		if redisClient != nil {
			system = external.NewCachedSystem(system, redisClient.Client, cfg.Redis.LookupTTL, log)
		}
	} else {
		log.Warn("EXTERNAL_SYSTEM_URL not set, using the in-memory stub")
		system = external.NewStubSystem()
	}

	var locker ingest.TenantLocker
	if redisClient != nil {
		locker = platformredis.NewTenantLock(redisClient, cfg.Redis.LockTTL)
	}

	var publisher *notify.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3); err != nil {
			log.Error("kafka topic setup failed", "error", err)
			os.Exit(1)
		}
	}

	var batchPublisher ingest.Publisher
	var cyclePublisher revalidation.Publisher
	if publisher != nil {
		batchPublisher, cyclePublisher = publisher, publisher
	}

	ingestService := ingest.New(claimStore, batchStore, system, locker, batchPublisher,
		log, ingestMetrics.New())
	revalidationService := revalidation.New(claimStore, cycleStore, system, cyclePublisher,
		log, revalidationMetrics.New())

	tokens := jwttoken.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Deps{
		Ingest:       ingestHandler.New(ingestService, batchListStore, cfg.Rules, log),
		Claims:       claimsHandler.New(claimStore, log),
		Revalidation: revalidationHandler.New(revalidationService, cycleStore, cfg.Rules, log),
		Auth:         middleware.RequireAuth(tokens, log),
		Metrics:      middleware.NewHTTPMetrics(),
		Health: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	if cfg.Revalidation.Enabled {
		runner := scheduler.NewRunner(revalidationService, revalidation.Params{
			EligibleGradings: cfg.Revalidation.EligibleGradings,
			MaxClaims:        cfg.Revalidation.MaxClaims,
			Config:           cfg.Rules,
		}, cfg.Revalidation.Interval, log)
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("revalidation runner stopped", "error", err)
			}
		}()
	}

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("starting claimtrail", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("claimtrail stopped")
}
