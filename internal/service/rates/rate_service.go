package rates

import (
	"context"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/pricing"
	"github.com/Domenick1991/courtbooking/internal/repository"
	"github.com/rs/zerolog"
)

type RateUseCase interface {
	ActiveRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error)
	Quote(ctx context.Context, courtID int64, startAt time.Time, durationMinutes int, isLesson bool) (pricing.Quote, error)
}

type RateCache interface {
	GetPriceRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error)
	SetPriceRows(ctx context.Context, courtID int64, rows []domain.PriceRow) error
}

type RateService struct {
	catalog repository.CatalogStore
	cache   RateCache
	loc     *time.Location
	logger  zerolog.Logger
}

func NewRateService(catalog repository.CatalogStore, cache RateCache, loc *time.Location, logger zerolog.Logger) *RateService {
	if loc == nil {
		loc = time.UTC
	}
	return &RateService{
		catalog: catalog,
		cache:   cache,
		loc:     loc,
		logger:  logger.With().Str("component", "rates").Logger(),
	}
}

// ActiveRows reads the court's price table through the cache. Cache errors
// degrade to a database read.
func (s *RateService) ActiveRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPriceRows(ctx, courtID)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Int64("court_id", courtID).Msg("rate cache read failed")
		}
	}

	rows, err := s.catalog.ListActivePriceRows(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPriceRows(ctx, courtID, rows); err != nil {
			s.logger.Warn().Err(err).Int64("court_id", courtID).Msg("rate cache write failed")
		}
	}
	return rows, nil
}

// Quote prices a prospective slot. An unpriced slot is not an error.
func (s *RateService) Quote(ctx context.Context, courtID int64, startAt time.Time, durationMinutes int, isLesson bool) (pricing.Quote, error) {
	if durationMinutes <= 0 {
		return pricing.Quote{}, domain.Validationf("duration must be positive")
	}
	if _, err := s.catalog.GetCourt(ctx, courtID); err != nil {
		return pricing.Quote{}, err
	}
	rows, err := s.ActiveRows(ctx, courtID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Resolve(rows, courtID, startAt, s.loc, durationMinutes, isLesson), nil
}

var _ RateUseCase = (*RateService)(nil)
