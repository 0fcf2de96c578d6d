package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/repository"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory BookingStore. Rows are stored by value so callers
// never share memory with it.
type memStore struct {
	rows    map[int64]domain.Booking
	blocks  []domain.ScheduleBlock
	nextID  int64
	seq     int
	base    time.Time
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		rows: make(map[int64]domain.Booking),
		base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) stamp() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) clone() *memStore {
	c := *m
	c.rows = make(map[int64]domain.Booking, len(m.rows))
	for id, b := range m.rows {
		c.rows[id] = b
	}
	return &c
}

func (m *memStore) restore(from *memStore) {
	m.rows = from.rows
	m.nextID = from.nextID
	m.seq = from.seq
}

// all returns every row ordered by start, then id.
func (m *memStore) all() []domain.Booking {
	out := make([]domain.Booking, 0, len(m.rows))
	for _, b := range m.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) GetBooking(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return &b, nil
}

func (m *memStore) ListBookings(_ context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []domain.Booking
	for _, b := range m.all() {
		if b.CourtID != f.CourtID || !b.StartAt.Before(f.To) || !b.EndAt().After(f.From) {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func hasStatus(list []domain.BookingStatus, s domain.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memStore) InsertBooking(_ context.Context, b *domain.Booking) error {
	m.nextID++
	b.ID = m.nextID
	b.StartAt = b.StartAt.UTC()
	b.CreatedAt = m.stamp()
	b.UpdatedAt = b.CreatedAt
	m.rows[b.ID] = *b
	return nil
}

func (m *memStore) UpdateBooking(_ context.Context, b *domain.Booking) error {
	if _, ok := m.rows[b.ID]; !ok {
		return fmt.Errorf("%w: booking %d", domain.ErrNotFound, b.ID)
	}
	b.StartAt = b.StartAt.UTC()
	b.UpdatedAt = m.stamp()
	m.rows[b.ID] = *b
	return nil
}

func (m *memStore) DeleteBooking(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	delete(m.rows, id)
	return nil
}

func matches(b domain.Booking, seriesID string, pred repository.StartAtPredicate, excludeID int64) bool {
	if b.SeriesID == nil || *b.SeriesID != seriesID || b.ID == excludeID {
		return false
	}
	if pred.Inclusive {
		return !b.StartAt.Before(pred.At)
	}
	return b.StartAt.After(pred.At)
}

func (m *memStore) DeleteSeriesWhere(_ context.Context, seriesID string, pred repository.StartAtPredicate, excludeID int64) (int64, error) {
	var n int64
	for id, b := range m.rows {
		if matches(b, seriesID, pred, excludeID) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListSeriesWhere(_ context.Context, seriesID string, pred repository.StartAtPredicate, excludeID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.all() {
		if matches(b, seriesID, pred, excludeID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveBlocks(_ context.Context, _ int64, fromDay, toDay time.Time) ([]domain.ScheduleBlock, error) {
	var out []domain.ScheduleBlock
	for _, blk := range m.blocks {
		if blk.StartDate.After(toDay) || blk.EndDate.Before(fromDay) {
			continue
		}
		out = append(out, blk)
	}
	return out, nil
}

func (m *memStore) CompleteEndedBefore(_ context.Context, now time.Time, updatedBy int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.all() {
		if b.Status == domain.BookingStatusConfirmed && !b.EndAt().After(now) {
			b.Status = domain.BookingStatusCompleted
			b.UpdatedBy = updatedBy
			b.UpdatedAt = m.stamp()
			m.rows[b.ID] = b
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeTx runs fn against the shared memStore and restores it on error.
type fakeTx struct {
	store     *memStore
	locked    [][]domain.SlotKey
	commits   int
	rollbacks int
}

func (f *fakeTx) WithinTx(ctx context.Context, keys []domain.SlotKey, fn func(ctx context.Context, store repository.BookingStore) error) error {
	f.locked = append(f.locked, keys)
	saved := f.store.clone()
	if err := fn(ctx, f.store); err != nil {
		f.store.restore(saved)
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetCourt(ctx context.Context, id int64) (*domain.Court, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Court), args.Error(1)
}

func (m *MockCatalog) InstructorExists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalog) ListActivePriceRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error) {
	args := m.Called(ctx, courtID)
	return args.Get(0).([]domain.PriceRow), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyCreated(ctx context.Context, anchor *domain.Booking, occurrences int) {
	m.Called(ctx, anchor, occurrences)
}

func (m *MockNotifier) NotifyCancelled(ctx context.Context, b *domain.Booking, count int) {
	m.Called(ctx, b, count)
}

func (m *MockNotifier) NotifyCompleted(ctx context.Context, b *domain.Booking) {
	m.Called(ctx, b)
}

type MockIdempotency struct {
	mock.Mock
}

func (m *MockIdempotency) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotency) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// rateTable serves a fixed price table for every court.
type rateTable []domain.PriceRow

func (r rateTable) ActiveRows(_ context.Context, courtID int64) ([]domain.PriceRow, error) {
	out := make([]domain.PriceRow, 0, len(r))
	for _, row := range r {
		row.CourtID = courtID
		out = append(out, row)
	}
	return out, nil
}
