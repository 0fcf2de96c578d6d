package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/courtbooking/config"
	"github.com/Domenick1991/courtbooking/internal/bootstrap"
	"github.com/Domenick1991/courtbooking/internal/email"
	"github.com/Domenick1991/courtbooking/internal/kafka"
	"github.com/Domenick1991/courtbooking/internal/metrics"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLogger := bootstrap.NewLogger(os.Stderr, "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel).With().Str("process", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init dependencies")
	}
	defer app.Close(logger)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger, app.Location)

	go func() {
		if err := consumer.Run(ctx, sender.Send); err != nil {
			logger.Error().Err(err).Msg("consumer stopped")
		}
	}()

	sweep := cfg.CompletionSweep()
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()
	logger.Info().Dur("sweep", sweep).Msg("worker started")

	for {
		select {
		case <-ticker.C:
			completed, err := app.Bookings.CompletePastBookings(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("complete past bookings")
				continue
			}
			if len(completed) > 0 {
				logger.Info().Int("count", len(completed)).Msg("bookings completed")
			}
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		}
	}
}
