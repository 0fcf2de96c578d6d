package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/courtbooking/internal/clock"
	"github.com/Domenick1991/courtbooking/internal/conflict"
	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/metrics"
	"github.com/Domenick1991/courtbooking/internal/policy"
	"github.com/Domenick1991/courtbooking/internal/pricing"
	"github.com/Domenick1991/courtbooking/internal/recurrence"
	"github.com/Domenick1991/courtbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor *domain.Actor, input CreateBookingInput) (*Result, error)
	GetBooking(ctx context.Context, actor *domain.Actor, id int64) (*Details, error)
	UpdateBooking(ctx context.Context, actor *domain.Actor, id int64, input UpdateBookingInput) (*Result, error)
	CancelBooking(ctx context.Context, actor *domain.Actor, id int64, scope Scope) (*Result, error)
	DeleteBooking(ctx context.Context, actor *domain.Actor, id int64, scope Scope) (*Result, error)
	CompletePastBookings(ctx context.Context) ([]domain.Booking, error)
}

type RateSource interface {
	ActiveRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error)
}

type Notifier interface {
	NotifyCreated(ctx context.Context, anchor *domain.Booking, occurrences int)
	NotifyCancelled(ctx context.Context, b *domain.Booking, count int)
	NotifyCompleted(ctx context.Context, b *domain.Booking)
}

type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// Result is the outcome of a mutation. Occurrences lists rows generated for a
// series; Affected counts every row the mutation touched.
type Result struct {
	Booking     *domain.Booking  `json:"booking,omitempty"`
	Occurrences []domain.Booking `json:"occurrences,omitempty"`
	Affected    int              `json:"affected"`
}

// Details is a booking with its court resolved.
type Details struct {
	*domain.Booking
	Court *domain.Court `json:"court"`
}

type CreateBookingInput struct {
	CourtID              int64                    `json:"court_id"`
	AthleteID            *int64                   `json:"athlete_id"`
	CustomerName         string                   `json:"customer_name"`
	CustomerPhone        string                   `json:"customer_phone"`
	StartAt              time.Time                `json:"start_at"`
	DurationMinutes      int                      `json:"duration_minutes"`
	NegotiatedTotalCents *int64                   `json:"negotiated_total_cents"`
	Notes                string                   `json:"notes"`
	IsLesson             bool                     `json:"is_lesson"`
	InstructorID         *int64                   `json:"instructor_id"`
	Participants         []domain.Participant     `json:"participants"`
	Recurrence           *domain.RecurrenceConfig `json:"recurrence"`
	IdempotencyKey       string                   `json:"-"`
}

// Scope selects which members of a series a cancel or delete applies to.
type Scope string

const (
	ScopeSingle        Scope = "single"
	ScopeThisAndFuture Scope = "future"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeSingle:
		return ScopeSingle, nil
	case ScopeThisAndFuture:
		return ScopeThisAndFuture, nil
	}
	return "", domain.Validationf("unknown scope %q", s)
}

type BookingServiceOption func(*BookingService)

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) { s.clock = c }
}

func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
			s.checker = conflict.NewChecker(loc)
		}
	}
}

func WithEditLock(d time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.editLock = d }
}

func WithMaxOccurrences(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxOccurrences = n
		}
	}
}

func WithNotifier(n Notifier) BookingServiceOption {
	return func(s *BookingService) { s.notifier = n }
}

func WithIdempotency(store IdempotencyStore, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

func WithLogger(l zerolog.Logger) BookingServiceOption {
	return func(s *BookingService) { s.logger = l.With().Str("component", "booking_service").Logger() }
}

func WithSeriesIDs(gen func() string) BookingServiceOption {
	return func(s *BookingService) { s.newSeriesID = gen }
}

type BookingService struct {
	bookings       repository.BookingStore
	catalog        repository.CatalogStore
	tx             repository.Transactor
	rates          RateSource
	notifier       Notifier
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	checker        *conflict.Checker
	clock          clock.Clock
	loc            *time.Location
	editLock       time.Duration
	maxOccurrences int
	newSeriesID    func() string
	logger         zerolog.Logger
}

func NewBookingService(
	bookings repository.BookingStore,
	catalog repository.CatalogStore,
	tx repository.Transactor,
	rates RateSource,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		bookings:       bookings,
		catalog:        catalog,
		tx:             tx,
		rates:          rates,
		checker:        conflict.NewChecker(time.UTC),
		clock:          clock.System(),
		loc:            time.UTC,
		editLock:       12 * time.Hour,
		maxOccurrences: recurrence.DefaultLimit,
		newSeriesID:    uuid.NewString,
		idempotencyTTL: 24 * time.Hour,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, actor *domain.Actor, input CreateBookingInput) (*Result, error) {
	if actor == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	if actor.Role == domain.RoleCustomer && input.AthleteID == nil && input.CustomerName == "" {
		input.AthleteID = actor.AthleteID
	}

	court, err := s.catalog.GetCourt(ctx, input.CourtID)
	if err != nil {
		return nil, s.fail("get court", err)
	}
	res := policy.Resource{VenueID: court.VenueID, AthleteID: input.AthleteID}
	if err := policy.Authorize(actor, policy.ActionCreate, res); err != nil {
		return nil, err
	}
	if input.NegotiatedTotalCents != nil {
		if err := policy.Authorize(actor, policy.ActionNegotiatePrice, res); err != nil {
			return nil, err
		}
	}

	if err := s.validateCreate(ctx, court, input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	anchor := &domain.Booking{
		CourtID:              court.ID,
		AthleteID:            input.AthleteID,
		CustomerName:         input.CustomerName,
		CustomerPhone:        input.CustomerPhone,
		StartAt:              input.StartAt.UTC(),
		DurationMinutes:      input.DurationMinutes,
		Status:               domain.BookingStatusConfirmed,
		NegotiatedTotalCents: input.NegotiatedTotalCents,
		Notes:                input.Notes,
		IsLesson:             input.IsLesson,
		InstructorID:         input.InstructorID,
		Participants:         input.Participants,
		CreatedBy:            actor.ID,
		UpdatedBy:            actor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var instants []time.Time
	if input.Recurrence != nil {
		cfg := *input.Recurrence
		if err := recurrence.Validate(cfg, s.maxOccurrences); err != nil {
			return nil, err
		}
		if instants, err = recurrence.Expand(anchor.StartAt.In(s.loc), cfg, s.maxOccurrences); err != nil {
			return nil, err
		}
		seriesID := s.newSeriesID()
		anchor.SeriesID = &seriesID
		anchor.Recurrence = &cfg
	}
	s.price(ctx, anchor)

	cands := make([]conflict.Candidate, 0, len(instants)+1)
	cands = append(cands, conflict.Candidate{Court: *court, Start: anchor.StartAt, DurationMinutes: anchor.DurationMinutes})
	for _, at := range instants {
		cands = append(cands, conflict.Candidate{Court: *court, Start: at, DurationMinutes: anchor.DurationMinutes})
	}

	claimed, err := s.claim(ctx, actor, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var occurrences []domain.Booking
	err = s.tx.WithinTx(ctx, s.checker.Keys(cands), func(ctx context.Context, store repository.BookingStore) error {
		snap, err := s.snapshot(ctx, store, cands)
		if err != nil {
			return err
		}
		if conflicts := s.checker.CheckAll(cands, snap); len(conflicts) > 0 {
			return &domain.ConflictError{Conflicts: conflicts}
		}

		if err := store.InsertBooking(ctx, anchor); err != nil {
			return err
		}
		occurrences = make([]domain.Booking, 0, len(instants))
		for _, at := range instants {
			occ := occurrenceOf(anchor, at, actor.ID)
			if err := store.InsertBooking(ctx, &occ); err != nil {
				return err
			}
			occurrences = append(occurrences, occ)
		}
		return nil
	})
	if err != nil {
		s.release(ctx, claimed)
		return nil, s.fail("create booking", s.countConflict("create", err))
	}

	if anchor.InSeries() {
		metrics.AddBookingsCreated("series", len(occurrences)+1)
	} else {
		metrics.AddBookingsCreated("single", 1)
	}
	s.logger.Info().
		Int64("booking_id", anchor.ID).
		Int64("court_id", anchor.CourtID).
		Int("occurrences", len(occurrences)).
		Msg("booking created")
	if s.notifier != nil {
		s.notifier.NotifyCreated(ctx, anchor, len(occurrences)+1)
	}

	return &Result{Booking: anchor, Occurrences: occurrences, Affected: len(occurrences) + 1}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor *domain.Actor, id int64) (*Details, error) {
	if actor == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	b, court, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceOf(b, *court)); err != nil {
		return nil, err
	}
	return &Details{Booking: b, Court: court}, nil
}

// CompletePastBookings moves confirmed bookings whose end has passed to COMPLETED.
func (s *BookingService) CompletePastBookings(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteEndedBefore(ctx, s.clock.Now(), 0)
	if err != nil {
		return nil, s.fail("complete bookings", err)
	}
	if len(completed) > 0 {
		metrics.AddBookingsCompleted(len(completed))
		s.logger.Info().Int("count", len(completed)).Msg("bookings completed")
	}
	if s.notifier != nil {
		for i := range completed {
			s.notifier.NotifyCompleted(ctx, &completed[i])
		}
	}
	return completed, nil
}

func (s *BookingService) validateCreate(ctx context.Context, court *domain.Court, input CreateBookingInput) error {
	if !court.Active {
		return domain.Validationf("court %d is not active", court.ID)
	}
	if input.StartAt.IsZero() {
		return domain.Validationf("start_at is required")
	}
	if input.StartAt.Before(s.clock.Now()) {
		return domain.Validationf("start_at must be in the future")
	}
	if input.DurationMinutes <= 0 {
		return domain.Validationf("duration_minutes must be positive")
	}
	if err := validateCustomer(input.AthleteID, input.CustomerName, input.CustomerPhone); err != nil {
		return err
	}
	if err := validateParticipants(input.Participants); err != nil {
		return err
	}
	if input.NegotiatedTotalCents != nil && *input.NegotiatedTotalCents < 0 {
		return domain.Validationf("negotiated_total_cents must not be negative")
	}
	return s.validateLesson(ctx, input.IsLesson, input.InstructorID)
}

func (s *BookingService) validateLesson(ctx context.Context, isLesson bool, instructorID *int64) error {
	if !isLesson {
		if instructorID != nil {
			return domain.Validationf("instructor_id is only allowed on lessons")
		}
		return nil
	}
	if instructorID == nil {
		return domain.Validationf("a lesson requires instructor_id")
	}
	ok, err := s.catalog.InstructorExists(ctx, *instructorID)
	if err != nil {
		return s.fail("lookup instructor", err)
	}
	if !ok {
		return fmt.Errorf("%w: instructor %d", domain.ErrNotFound, *instructorID)
	}
	return nil
}

func validateCustomer(athleteID *int64, name, phone string) error {
	if athleteID != nil && (name != "" || phone != "") {
		return domain.Validationf("customer is either a registered athlete or a free-text name, not both")
	}
	if name == "" && phone != "" {
		return domain.Validationf("customer_phone requires customer_name")
	}
	return nil
}

func validateParticipants(list []domain.Participant) error {
	for i, p := range list {
		if p.AthleteID == nil && p.Name == "" {
			return domain.Validationf("participant %d needs athlete_id or name", i)
		}
	}
	return nil
}

// load reads a booking and its court outside any transaction.
func (s *BookingService) load(ctx context.Context, id int64) (*domain.Booking, *domain.Court, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, nil, s.fail("get booking", err)
	}
	court, err := s.catalog.GetCourt(ctx, b.CourtID)
	if err != nil {
		return nil, nil, s.fail("get court", err)
	}
	return b, court, nil
}

// snapshot reads, inside the caller's transaction, every confirmed booking and
// active block the candidates could collide with. All candidates share a court.
func (s *BookingService) snapshot(ctx context.Context, store repository.BookingStore, cands []conflict.Candidate) (conflict.Snapshot, error) {
	if len(cands) == 0 {
		return conflict.Snapshot{}, nil
	}
	courtID := cands[0].Court.ID
	from, to := conflict.Window(cands)
	bookings, err := store.ListBookings(ctx, repository.BookingFilter{
		CourtID:  courtID,
		From:     from,
		To:       to,
		Statuses: []domain.BookingStatus{domain.BookingStatusConfirmed},
	})
	if err != nil {
		return conflict.Snapshot{}, err
	}
	first, last := s.checker.Days(cands)
	blocks, err := store.ListActiveBlocks(ctx, courtID, first, last)
	if err != nil {
		return conflict.Snapshot{}, err
	}
	return conflict.Snapshot{Bookings: bookings, Blocks: blocks}, nil
}

// price fills the computed pricing fields. A missing rate or an unreadable
// price table leaves the booking unpriced rather than failing it.
func (s *BookingService) price(ctx context.Context, b *domain.Booking) {
	b.HourlyRateCents, b.ComputedTotalCents = nil, nil
	if s.rates == nil {
		return
	}
	rows, err := s.rates.ActiveRows(ctx, b.CourtID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("court_id", b.CourtID).Msg("price table unavailable, booking left unpriced")
		return
	}
	q := pricing.Resolve(rows, b.CourtID, b.StartAt, s.loc, b.DurationMinutes, b.IsLesson)
	b.HourlyRateCents, b.ComputedTotalCents = q.HourlyRateCents, q.TotalCents
}

func occurrenceOf(anchor *domain.Booking, start time.Time, actorID int64) domain.Booking {
	occ := *anchor
	occ.ID = 0
	occ.StartAt = start.UTC()
	occ.Status = domain.BookingStatusConfirmed
	occ.Recurrence = nil
	occ.Participants = append([]domain.Participant(nil), anchor.Participants...)
	occ.CreatedBy = actorID
	occ.UpdatedBy = actorID
	return occ
}

func (s *BookingService) claim(ctx context.Context, actor *domain.Actor, key string) (string, error) {
	if key == "" || s.idempotency == nil {
		return "", nil
	}
	scoped := fmt.Sprintf("%d:%s", actor.ID, key)
	ok, err := s.idempotency.ClaimIdempotencyKey(ctx, scoped, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency store unavailable, proceeding without claim")
		return "", nil
	}
	if !ok {
		return "", fmt.Errorf("%w: request with this Idempotency-Key was already processed", domain.ErrConflict)
	}
	return scoped, nil
}

func (s *BookingService) release(ctx context.Context, scoped string) {
	if scoped == "" {
		return
	}
	if err := s.idempotency.ReleaseIdempotencyKey(ctx, scoped); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release idempotency key")
	}
}

func (s *BookingService) countConflict(operation string, err error) error {
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		metrics.IncConflict(operation)
	}
	return err
}

var domainErrors = []error{
	domain.ErrAuthenticationRequired,
	domain.ErrPermissionDenied,
	domain.ErrNotFound,
	domain.ErrValidation,
	domain.ErrConflict,
	domain.ErrEditLock,
	domain.ErrStateLock,
	domain.ErrInternal,
}

// fail passes domain errors through and turns everything else into a logged
// ErrInternal.
func (s *BookingService) fail(op string, err error) error {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	s.logger.Error().Err(err).Str("op", op).Msg("booking operation failed")
	return fmt.Errorf("%w: %s", domain.ErrInternal, op)
}

var _ BookingUseCase = (*BookingService)(nil)
