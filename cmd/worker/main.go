package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airbooking-core/config"
	"github.com/Domenick1991/airbooking-core/internal/bootstrap"
	"github.com/Domenick1991/airbooking-core/internal/email"
	"github.com/Domenick1991/airbooking-core/internal/kafka"
	"github.com/Domenick1991/airbooking-core/internal/notify"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName+"-worker")
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if cfg.Storage == config.StorageMemory {
		logger.Error("worker needs shared storage, in-memory state is swept by the api process")
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("init app", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	g, gctx := errgroup.WithContext(ctx)

	if app.Cache == nil {
		logger.Warn("redis not configured, sweeping without a lease")
	}
	sweeper := app.NewSweeper()
	g.Go(func() error { return sweeper.Run(gctx) })

	if app.AMQP != nil {
		sender := email.NewSender(logger.With("component", "email"))
		consumer := notify.NewConsumer(app.AMQP, cfg.RabbitMQ.Queue, logger.With("component", "notifications"))
		g.Go(func() error { return consumer.Run(gctx, sender.Send) })
	} else {
		logger.Warn("rabbitmq not configured, notifications are not delivered")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		refunds := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.RefundTopic, logger.With("component", "refunds"))
		defer func() { _ = refunds.Close() }()
		g.Go(func() error { return refunds.ConsumeRefunds(gctx, app.Reconciler.ProcessRefund) })
	} else {
		logger.Warn("kafka not configured, refund requests are not processed")
	}

	logger.Info("worker started", "sweep_interval", cfg.Worker.SweepInterval)
	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
