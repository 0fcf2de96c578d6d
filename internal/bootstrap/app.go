package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Domenick1991/courtbooking/config"
	"github.com/Domenick1991/courtbooking/internal/auth"
	"github.com/Domenick1991/courtbooking/internal/cache"
	"github.com/Domenick1991/courtbooking/internal/kafka"
	"github.com/Domenick1991/courtbooking/internal/notify"
	"github.com/Domenick1991/courtbooking/internal/repository"
	"github.com/Domenick1991/courtbooking/internal/service/booking"
	"github.com/Domenick1991/courtbooking/internal/service/rates"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewLogger returns a console logger at level. Unknown levels fall back to info.
// Colours are only used when out is a terminal.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !isTerminal(out)}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// App holds the dependencies shared by the API server and the worker.
type App struct {
	Pool     *pgxpool.Pool
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	Notifier *notify.Notifier
	Rates    *rates.RateService
	Bookings *booking.BookingService
	Auth     *auth.JWTProvider
	Location *time.Location
}

func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.RateCacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	notifier := notify.NewNotifier(producer, logger,
		[]string{cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic},
		notify.WithTimeout(cfg.NotifyTimeout()),
	)

	catalogRepo := repository.NewCatalogRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	rateService := rates.NewRateService(catalogRepo, redisCache, loc, logger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		catalogRepo,
		repository.NewTransactor(pool),
		rateService,
		booking.WithLocation(loc),
		booking.WithEditLock(cfg.EditLock()),
		booking.WithMaxOccurrences(cfg.Booking.MaxOccurrences),
		booking.WithNotifier(notifier),
		booking.WithIdempotency(redisCache, cfg.IdempotencyTTL()),
		booking.WithLogger(logger),
	)

	return &App{
		Pool:     pool,
		Cache:    redisCache,
		Producer: producer,
		Notifier: notifier,
		Rates:    rateService,
		Bookings: bookingService,
		Auth:     auth.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Location: loc,
	}, nil
}

// Close drains pending notifications before releasing connections.
func (a *App) Close(logger zerolog.Logger) {
	a.Notifier.Wait()
	if err := a.Producer.Close(); err != nil {
		logger.Warn().Err(err).Msg("close kafka producer")
	}
	if err := a.Cache.Close(); err != nil {
		logger.Warn().Err(err).Msg("close redis")
	}
	a.Pool.Close()
}
