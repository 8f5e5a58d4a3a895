package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Ahmat91/Ecommerce-ALX/internal/auth"
	"github.com/Ahmat91/Ecommerce-ALX/internal/cache"
	"github.com/Ahmat91/Ecommerce-ALX/internal/config"
	delivery "github.com/Ahmat91/Ecommerce-ALX/internal/delivery/http"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging/kafka"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging/watermill"
	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/memory"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/postgres"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

// broker is the event transport when one is configured.
type broker interface {
	messaging.Publisher
	messaging.Subscriber
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Store ---
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.SeedCatalog {
		if err := service.SeedCatalog(ctx, store); err != nil {
			slog.Error("Failed to seed catalog", "err", err)
			os.Exit(1)
		}
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Events ---
	var publisher messaging.Publisher = messaging.NopPublisher{}
	bus, err := openBroker(cfg)
	if err != nil {
		slog.Error("Failed to init broker", "broker", cfg.Broker, "err", err)
		os.Exit(1)
	}
	if bus != nil {
		defer bus.Close()
		publisher = bus

		alerts := service.NewStockAlertHandler(cfg.LowStockThreshold, m)
		go bus.Consume(ctx, messaging.TopicStockChanged, cfg.KafkaConsumerGroup, alerts.Handle)
		slog.Info("🔄 Stock alert consumer started", "broker", cfg.Broker, "topic", messaging.TopicStockChanged)
	}

	// --- Category cache ---
	var categoryCache service.CategoryCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer client.Close()
		categoryCache = cache.NewCategoryCache(client, cfg.CategoryCacheTTL)
	}

	// --- Services ---
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; every bearer token will be rejected")
	}
	handler := delivery.NewHandler(delivery.Deps{
		Catalog:   service.NewCatalogService(store, categoryCache),
		Cart:      service.NewCartService(store),
		Orders:    service.NewOrderService(store, publisher, m, cfg.CheckoutMaxAttempts),
		Inventory: service.NewInventoryService(store, publisher),
		Auth:      auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer),
		Metrics:   m,
		Store:     store,
	})

	// --- HTTP API ---
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Routes(cfg.CORSAllowedOrigins),
	}

	go func() {
		slog.Info("🚀 HTTP server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "err", err)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("Using the in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.InitDB(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

func openBroker(cfg *config.Config) (broker, error) {
	switch cfg.Broker {
	case config.BrokerKafkaGo:
		return kafka.NewKafkaBroker(cfg.KafkaBrokers), nil
	case config.BrokerWatermill:
		b, err := watermill.NewBroker(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, nil
	}
}
