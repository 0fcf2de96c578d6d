package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingFilter selects bookings whose interval overlaps [From, To).
type BookingFilter struct {
	CourtID  int64
	From     time.Time
	To       time.Time
	Statuses []domain.BookingStatus
}

// StartAtPredicate restricts series siblings relative to an instant.
type StartAtPredicate struct {
	At        time.Time
	Inclusive bool // start_at >= At instead of start_at > At
}

func After(at time.Time) StartAtPredicate     { return StartAtPredicate{At: at} }
func AtOrAfter(at time.Time) StartAtPredicate { return StartAtPredicate{At: at, Inclusive: true} }

func (p StartAtPredicate) operator() string {
	if p.Inclusive {
		return ">="
	}
	return ">"
}

type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, booking *domain.Booking) error
	UpdateBooking(ctx context.Context, booking *domain.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
	DeleteSeriesWhere(ctx context.Context, seriesID string, pred StartAtPredicate, excludeID int64) (int64, error)
	ListSeriesWhere(ctx context.Context, seriesID string, pred StartAtPredicate, excludeID int64) ([]domain.Booking, error)
	ListActiveBlocks(ctx context.Context, courtID int64, fromDay, toDay time.Time) ([]domain.ScheduleBlock, error)
	CompleteEndedBefore(ctx context.Context, now time.Time, updatedBy int64) ([]domain.Booking, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGBookingRepository struct {
	db querier
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, court_id, athlete_id, customer_name, customer_phone, start_at, duration_minutes, status,
	hourly_rate_cents, computed_total_cents, negotiated_total_cents, notes, is_lesson, instructor_id,
	series_id::text, recurrence, participants, created_by, updated_by, created_at, updated_at`

func (r *PGBookingRepository) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "booking %d", id)
	}
	return b, nil
}

func (r *PGBookingRepository) ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	var (
		where = []string{"court_id = $1", "start_at < $3", "start_at + make_interval(mins => duration_minutes) > $2"}
		args  = []any{filter.CourtID, filter.From.UTC(), filter.To.UTC()}
	)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+strings.Join(where, " AND ")+` ORDER BY start_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) InsertBooking(ctx context.Context, b *domain.Booking) error {
	recurrence, participants, err := encodeJSON(b)
	if err != nil {
		return err
	}
	b.StartAt = b.StartAt.UTC()

	err = r.db.QueryRow(ctx, `INSERT INTO bookings (court_id, athlete_id, customer_name, customer_phone, start_at, duration_minutes, status,
		hourly_rate_cents, computed_total_cents, negotiated_total_cents, notes, is_lesson, instructor_id,
		series_id, recurrence, participants, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`,
		b.CourtID, b.AthleteID, b.CustomerName, b.CustomerPhone, b.StartAt, b.DurationMinutes, string(b.Status),
		b.HourlyRateCents, b.ComputedTotalCents, b.NegotiatedTotalCents, b.Notes, b.IsLesson, b.InstructorID,
		b.SeriesID, recurrence, participants, b.CreatedBy, b.UpdatedBy).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	recurrence, participants, err := encodeJSON(b)
	if err != nil {
		return err
	}
	b.StartAt = b.StartAt.UTC()

	err = r.db.QueryRow(ctx, `UPDATE bookings SET court_id=$2, athlete_id=$3, customer_name=$4, customer_phone=$5, start_at=$6,
		duration_minutes=$7, status=$8, hourly_rate_cents=$9, computed_total_cents=$10, negotiated_total_cents=$11,
		notes=$12, is_lesson=$13, instructor_id=$14, series_id=$15, recurrence=$16, participants=$17,
		updated_by=$18, updated_at=now()
		WHERE id=$1 RETURNING updated_at`,
		b.ID, b.CourtID, b.AthleteID, b.CustomerName, b.CustomerPhone, b.StartAt,
		b.DurationMinutes, string(b.Status), b.HourlyRateCents, b.ComputedTotalCents, b.NegotiatedTotalCents,
		b.Notes, b.IsLesson, b.InstructorID, b.SeriesID, recurrence, participants, b.UpdatedBy).
		Scan(&b.UpdatedAt)
	if err != nil {
		return notFound(err, "booking %d", b.ID)
	}
	return nil
}

func (r *PGBookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PGBookingRepository) DeleteSeriesWhere(ctx context.Context, seriesID string, pred StartAtPredicate, excludeID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE series_id=$1 AND start_at `+pred.operator()+` $2 AND id <> $3`,
		seriesID, pred.At.UTC(), excludeID)
	if err != nil {
		return 0, fmt.Errorf("delete series: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *PGBookingRepository) ListSeriesWhere(ctx context.Context, seriesID string, pred StartAtPredicate, excludeID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE series_id=$1 AND start_at `+pred.operator()+` $2 AND id <> $3 ORDER BY start_at`,
		seriesID, pred.At.UTC(), excludeID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return collectBookings(rows)
}

// ListActiveBlocks returns blocks of the court's venue that may cover the court
// on any calendar day in [fromDay, toDay].
func (r *PGBookingRepository) ListActiveBlocks(ctx context.Context, courtID int64, fromDay, toDay time.Time) ([]domain.ScheduleBlock, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.venue_id, b.court_ids, b.start_date, b.end_date, b.start_minute, b.end_minute, b.title
		FROM schedule_blocks b JOIN courts c ON c.venue_id = b.venue_id
		WHERE c.id=$1 AND b.active AND b.start_date <= $3 AND b.end_date >= $2
			AND (cardinality(b.court_ids) = 0 OR $1 = ANY(b.court_ids))
		ORDER BY b.start_date, b.id`, courtID, dateOnly(fromDay), dateOnly(toDay))
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.ScheduleBlock
	for rows.Next() {
		var blk domain.ScheduleBlock
		if err := rows.Scan(&blk.ID, &blk.VenueID, &blk.CourtIDs, &blk.StartDate, &blk.EndDate, &blk.StartMinute, &blk.EndMinute, &blk.Title); err != nil {
			return nil, err
		}
		blk.StartDate = dateOnly(blk.StartDate)
		blk.EndDate = dateOnly(blk.EndDate)
		blocks = append(blocks, blk)
	}
	return blocks, rows.Err()
}

// CompleteEndedBefore marks confirmed bookings that ended before now as completed.
func (r *PGBookingRepository) CompleteEndedBefore(ctx context.Context, now time.Time, updatedBy int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_by=$4, updated_at=now()
		WHERE status=$2 AND start_at + make_interval(mins => duration_minutes) <= $3
		RETURNING `+bookingColumns,
		string(domain.BookingStatusCompleted), string(domain.BookingStatusConfirmed), now.UTC(), updatedBy)
	if err != nil {
		return nil, fmt.Errorf("complete bookings: %w", err)
	}
	return collectBookings(rows)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b            domain.Booking
		status       string
		recurrence   []byte
		participants []byte
	)
	if err := row.Scan(&b.ID, &b.CourtID, &b.AthleteID, &b.CustomerName, &b.CustomerPhone, &b.StartAt, &b.DurationMinutes, &status,
		&b.HourlyRateCents, &b.ComputedTotalCents, &b.NegotiatedTotalCents, &b.Notes, &b.IsLesson, &b.InstructorID,
		&b.SeriesID, &recurrence, &participants, &b.CreatedBy, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.StartAt = b.StartAt.UTC()
	if len(recurrence) > 0 && string(recurrence) != "null" {
		b.Recurrence = &domain.RecurrenceConfig{}
		if err := json.Unmarshal(recurrence, b.Recurrence); err != nil {
			return nil, fmt.Errorf("decode recurrence of booking %d: %w", b.ID, err)
		}
	}
	if len(participants) > 0 {
		if err := json.Unmarshal(participants, &b.Participants); err != nil {
			return nil, fmt.Errorf("decode participants of booking %d: %w", b.ID, err)
		}
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func encodeJSON(b *domain.Booking) (recurrence, participants []byte, err error) {
	if b.Recurrence != nil {
		if recurrence, err = json.Marshal(b.Recurrence); err != nil {
			return nil, nil, fmt.Errorf("encode recurrence: %w", err)
		}
	}
	list := b.Participants
	if list == nil {
		list = []domain.Participant{}
	}
	if participants, err = json.Marshal(list); err != nil {
		return nil, nil, fmt.Errorf("encode participants: %w", err)
	}
	return recurrence, participants, nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ BookingStore = (*PGBookingRepository)(nil)
