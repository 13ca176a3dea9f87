package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/coffee_cart/internal/catalog"
	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/config"
	"github.com/fjod/coffee_cart/internal/consumer"
	"github.com/fjod/coffee_cart/internal/events"
	"github.com/fjod/coffee_cart/internal/geocode"
	h "github.com/fjod/coffee_cart/internal/http"
	"github.com/fjod/coffee_cart/internal/scheduler"
	"github.com/fjod/coffee_cart/internal/session"
	"github.com/fjod/coffee_cart/internal/storage"
	"github.com/fjod/coffee_cart/pkg/circuitbreaker"
	"github.com/fjod/coffee_cart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, "storefront")
	log.Info().Str("store", cfg.StoreBackend).Msg("storefront starting...")

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("failed to load catalog")
		}
	}

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("error closing session store")
		}
	}()

	geocoder := geocode.NewGuarded(
		geocode.NewStatic(cat.Addresses),
		cfg.GeocodeTimeout,
		geocoderBreakerSettings(log),
	)

	deps := session.Deps{
		Catalog:    cat,
		Store:      store,
		Geocoder:   geocoder,
		Clock:      clock.Real{},
		VATPercent: cfg.VATPercent,
		Logger:     log,
	}

	// Kafka is optional: without brokers order events stay in-process.
	var publisher *events.KafkaPublisher
	brokers := cfg.Brokers()
	if len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.OrderEventsTopic, brokers...), log)
		deps.Notifier = publisher
	}

	registry := session.NewRegistry(deps)

	var wg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	var fulfillment *consumer.FulfillmentConsumer
	if len(brokers) > 0 {
		reader := consumer.NewKafkaReader(cfg.FulfillmentTopic, cfg.FulfillmentGroupID, brokers...)
		fulfillment = consumer.NewFulfillmentConsumer(registry, reader, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fulfillment.Run(consumerCtx)
		}()
	}

	advancer := scheduler.NewAutoAdvancer(
		scheduler.SourceFunc(func() []scheduler.OrderBook {
			active := registry.Active()
			books := make([]scheduler.OrderBook, len(active))
			for i, s := range active {
				books[i] = s
			}
			return books
		}),
		clock.Real{},
		cfg.AutoAdvanceDelay,
		cfg.AutoAdvanceTick,
		log,
	)
	advancer.Start()

	evictor := session.NewIdleEvictor(registry, cfg.SessionTTL, cfg.SessionSweepInterval, log)
	evictor.Start()

	router := h.NewRouter(h.RouterConfig{
		Registry:           registry,
		Catalog:            cat,
		Logger:             log,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down storefront...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := advancer.Close(); err != nil {
		log.Error().Err(err).Msg("error stopping auto-advancer")
	}
	if err := evictor.Close(); err != nil {
		log.Error().Err(err).Msg("error stopping idle evictor")
	}

	consumerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
		log.Info().Msg("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn().Msg("consumer didn't stop in time")
	}
	if fulfillment != nil {
		fulfillment.Close()
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing order event publisher")
		}
	}

	log.Info().Msg("storefront stopped")
}

func openStore(cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return storage.NewRedisStore(client, cfg.SessionTTL), nil

	case config.BackendSQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(filepath.Join(cfg.MigrationsPath, "sqlite")); err != nil {
			store.Close()
			return nil, err
		}
		log.Info().Msg("sqlite migrations completed")
		return store, nil

	case config.BackendPostgres:
		port, err := strconv.Atoi(cfg.DBPort)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		store, err := storage.NewPostgresStore(storage.Credentials{
			Host:     cfg.DBHost,
			Port:     port,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(filepath.Join(cfg.MigrationsPath, "postgres")); err != nil {
			store.Close()
			return nil, err
		}
		log.Info().Msg("postgres migrations completed")
		return store, nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		store := storage.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	default:
		return storage.NewMemoryStore(), nil
	}
}

func geocoderBreakerSettings(log zerolog.Logger) circuitbreaker.Settings {
	s := circuitbreaker.DefaultSettings()
	s.OnStateChange = func(name, from, to string) {
		log.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
	}
	return s
}
