package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/courtbooking/api"
	"github.com/Domenick1991/courtbooking/config"
	"github.com/Domenick1991/courtbooking/internal/bootstrap"
	"github.com/Domenick1991/courtbooking/internal/metrics"
	"github.com/Domenick1991/courtbooking/internal/repository"
	"github.com/gin-gonic/gin"
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
	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init dependencies")
	}
	defer app.Close(logger)

	if err := repository.Migrate(ctx, app.Pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(logger, app.Auth, api.NewBookingHandler(app.Bookings), api.NewQuoteHandler(app.Rates))

	if err := bootstrap.Run(ctx, cfg, logger, router, map[string]bootstrap.Pinger{
		"postgres": app.Pool,
		"redis":    app.Cache,
	}); err != nil {
		logger.Error().Err(err).Msg("server error")
		return
	}
	logger.Info().Msg("server stopped")
}
