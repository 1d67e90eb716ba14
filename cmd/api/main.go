package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shiptrack/internal/config"
	"shiptrack/internal/database"
	"shiptrack/internal/database/migration"
	handlers "shiptrack/internal/http/handler"
	"shiptrack/internal/http/middleware"
	"shiptrack/internal/ledger"
	ledgerkafka "shiptrack/internal/ledger/kafka"
	ledgerpg "shiptrack/internal/ledger/postgres"
	"shiptrack/internal/otel"
	"shiptrack/internal/registry"
	"shiptrack/internal/rules"
	"shiptrack/internal/service"
	"shiptrack/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded
	// if present)
	cfg := config.Load()
	loc := time.UTC
	ctx := context.Background()

	// Tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Ledger transaction store (PostgreSQL via pgx stdlib + otelsql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Off-chain document storage (S3-compatible, MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	offchain := storage.NewOffChain(objStore)

	// Optional Kafka mirror of ledger transactions
	var broadcast ledger.Broadcaster
	if len(cfg.Kafka.Brokers) > 0 {
		b := ledgerkafka.NewBroadcaster(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer b.Close()
		broadcast = b
	}

	gateway := ledgerpg.NewLedgerPostgres(db, broadcast)
	if err := gateway.Connect(ctx); err != nil {
		log.Fatalf("failed to connect ledger gateway: %v", err)
	}
	defer gateway.Disconnect()

	// Domain wiring: one registry owns all shipments, one rule engine
	// gates every mutation.
	reg := registry.New()
	engine := rules.NewEngine()
	lifecycle := service.NewLifecycle(reg, engine, gateway, offchain)
	compliance := service.NewCompliance(reg, engine, gateway, offchain)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, lifecycle, compliance)

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
