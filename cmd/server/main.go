package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxrelief/internal/audit"
	"taxrelief/internal/classification"
	nexushandler "taxrelief/internal/nexus/handler"
	"taxrelief/internal/platform/config"
	"taxrelief/internal/platform/httpserver"
	"taxrelief/internal/platform/logger"
	platformredis "taxrelief/internal/platform/redis"
	"taxrelief/internal/rates"
	recordhandler "taxrelief/internal/record/handler"
	"taxrelief/internal/record/service"
	eventstore "taxrelief/internal/record/store/event"
	"taxrelief/internal/record/store/projection"
	httptransport "taxrelief/internal/transport/http"
	"taxrelief/internal/validation"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event store: Postgres when configured, in-memory otherwise.
	var events eventstore.Store = eventstore.NewMemory()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := eventstore.EnsureSchema(ctx, pool); err != nil {
			log.Error("ensure event schema", "error", err)
			os.Exit(1)
		}
		events = eventstore.NewPostgres(pool)
	}

	// Projection cache: Redis when configured, in-memory otherwise. The cache
	// only accelerates reads; the event log stays the source of truth.
	var cache projection.Cache = projection.NewMemory()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = projection.NewRedis(redisClient.Client, cfg.ProjectionTTL)
	}

	// Audit feed: Kafka when brokers are configured.
	var feed audit.Feed = audit.NopFeed{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaFeed, err := audit.NewKafkaFeed(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaFeed.Close(closeCtx); err != nil {
				log.Error("close audit feed", "error", err)
			}
		}()
		feed = kafkaFeed
	}

	svc, err := service.New(events, cache, feed, cfg.CompanyTaxID, log)
	if err != nil {
		log.Error("build record service", "error", err)
		os.Exit(1)
	}

	// Exchange rates: NBP table A, cached, with backward date fallback.
	var nbpOpts []rates.NBPOption
	if cfg.RatesBaseURL != "" {
		nbpOpts = append(nbpOpts, rates.WithBaseURL(cfg.RatesBaseURL))
	}
	converter := rates.NewConverter(rates.NewCachedSource(rates.NewNBPClient(cfg.RatesTimeout, nbpOpts...), cfg.RatesCacheTTL))

	pipeline, err := validation.Default(validation.NewCurrencyValidator(converter))
	if err != nil {
		log.Error("build validation pipeline", "error", err)
		os.Exit(1)
	}

	// Classification: keyword rules always; model fallback only with a key.
	var labeler classification.Labeler
	if cfg.OpenAIKey != "" {
		labeler, err = classification.NewOpenAILabeler(cfg.OpenAIKey, cfg.OpenAIModel, cfg.LabelerTimeout)
		if err != nil {
			log.Error("build labeler", "error", err)
			os.Exit(1)
		}
	}
	engine := classification.NewEngine(labeler, log)

	router := httptransport.NewRouter(
		recordhandler.New(svc, pipeline, engine, log),
		nexushandler.New(),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting taxrelief", "addr", cfg.Addr)

	go func() {
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
}
