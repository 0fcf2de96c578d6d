package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuoteHandler_quote(t *testing.T) {
	h := newHarness()
	rate, total := int64(8000), int64(12000)
	start := time.Date(2026, 5, 6, 18, 0, 0, 0, time.UTC)
	h.rates.On("Quote", mock.Anything, int64(7), mock.MatchedBy(start.Equal), 90, true).
		Return(pricing.Quote{HourlyRateCents: &rate, TotalCents: &total}, nil)

	w := h.do(t, http.MethodGet, "/api/v1/courts/7/quote?start=2026-05-06T18:00:00Z&duration=90&lesson=true", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.CourtID)
	assert.Equal(t, 90, resp.DurationMinutes)
	assert.True(t, resp.IsLesson)
	require.NotNil(t, resp.TotalCents)
	assert.Equal(t, total, *resp.TotalCents)
}

func TestQuoteHandler_unpricedSlot(t *testing.T) {
	h := newHarness()
	h.rates.On("Quote", mock.Anything, int64(7), mock.Anything, 60, false).Return(pricing.Quote{}, nil)

	w := h.do(t, http.MethodGet, "/api/v1/courts/7/quote?start=2026-05-06T03:00:00Z", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.HourlyRateCents)
	assert.Nil(t, resp.TotalCents)
}

func TestQuoteHandler_badQuery(t *testing.T) {
	h := newHarness()
	for _, path := range []string{
		"/api/v1/courts/x/quote?start=2026-05-06T18:00:00Z",
		"/api/v1/courts/7/quote?start=tomorrow",
		"/api/v1/courts/7/quote?start=2026-05-06T18:00:00Z&duration=long",
		"/api/v1/courts/7/quote?start=2026-05-06T18:00:00Z&lesson=maybe",
	} {
		w := h.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	h.rates.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteHandler_unknownCourt(t *testing.T) {
	h := newHarness()
	h.rates.On("Quote", mock.Anything, int64(99), mock.Anything, 60, false).
		Return(pricing.Quote{}, domain.ErrNotFound)

	w := h.do(t, http.MethodGet, "/api/v1/courts/99/quote?start=2026-05-06T18:00:00Z", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
