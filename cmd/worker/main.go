package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/joao-fontenele/campuseats/internal/config"
	"github.com/joao-fontenele/campuseats/internal/delivery"
	"github.com/joao-fontenele/campuseats/internal/menu"
	"github.com/joao-fontenele/campuseats/internal/messaging"
	"github.com/joao-fontenele/campuseats/internal/orders"
	"github.com/joao-fontenele/campuseats/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequirePostgres(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireKafka(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "delivery-worker",
		ServiceVersion: cfg.ServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewStorefrontMetrics()
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
	defer func() { _ = producer.Close() }()

	machine := orders.NewStatusMachine(orders.NewOrderRepository(db), menu.NewMenuRepository(db), producer, metrics, logger)
	handler := delivery.NewHandler(machine, logger)

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.DeliveryTopic, "delivery-worker", logger)
	defer func() { _ = consumer.Close() }()

	logger.Info("starting delivery worker", "brokers", cfg.KafkaBrokers, "topic", cfg.DeliveryTopic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumer stopped")
}
