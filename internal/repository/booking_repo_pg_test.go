package repository

import (
	"testing"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewBookingRepository(pool))
	assert.NotNil(t, NewCatalogRepository(pool))
	assert.NotNil(t, NewTransactor(pool))
}

func TestStartAtPredicate(t *testing.T) {
	at := time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, ">", After(at).operator())
	assert.Equal(t, ">=", AtOrAfter(at).operator())
	assert.Equal(t, at, AtOrAfter(at).At)
}

func TestLockNames_SortedAndDistinct(t *testing.T) {
	keys := []domain.SlotKey{
		{CourtID: 2, Day: "2026-05-04"},
		{CourtID: 1, Day: "2026-05-05"},
		{CourtID: 2, Day: "2026-05-04"},
		{CourtID: 1, Day: "2026-05-04"},
	}
	assert.Equal(t, []string{"court:1:2026-05-04", "court:1:2026-05-05", "court:2:2026-05-04"}, LockNames(keys))
	assert.Empty(t, LockNames(nil))
}

func TestEncodeJSON(t *testing.T) {
	b := &domain.Booking{}
	rec, parts, err := encodeJSON(b)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.JSONEq(t, `[]`, string(parts))

	athlete := int64(9)
	b.Recurrence = &domain.RecurrenceConfig{Type: domain.RecurrenceWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday}}
	b.Participants = []domain.Participant{{AthleteID: &athlete}, {Name: "guest"}}
	rec, parts, err = encodeJSON(b)
	require.NoError(t, err)
	assert.Contains(t, string(rec), `"WEEKLY"`)
	assert.JSONEq(t, `[{"athlete_id":9},{"name":"guest"}]`, string(parts))
}

func TestNotFoundMapsNoRows(t *testing.T) {
	err := notFound(pgx.ErrNoRows, "booking %d", 5)
	assert.True(t, domain.IsErrNotFound(err))
	assert.Contains(t, err.Error(), "booking 5")

	other := assert.AnError
	assert.Equal(t, other, notFound(other, "booking %d", 5))
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, 5, 4, 23, 59, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), dateOnly(in))
}
