package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/courtbooking/internal/service/rates"
	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	service rates.RateUseCase
}

func NewQuoteHandler(service rates.RateUseCase) *QuoteHandler {
	return &QuoteHandler{service: service}
}

func (h *QuoteHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/quote", h.quote)
}

type quoteResponse struct {
	CourtID         int64  `json:"court_id"`
	StartAt         string `json:"start_at"`
	DurationMinutes int    `json:"duration_minutes"`
	IsLesson        bool   `json:"is_lesson"`
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
	TotalCents      *int64 `json:"total_cents"`
}

func (h *QuoteHandler) quote(c *gin.Context) {
	courtID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid court id %q", c.Param("id"))
		return
	}
	start, err := time.Parse(timeFormat, c.Query("start"))
	if err != nil {
		badRequest(c, "start must be RFC3339")
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "60"))
	if err != nil {
		badRequest(c, "invalid duration %q", c.Query("duration"))
		return
	}
	lesson, err := strconv.ParseBool(c.DefaultQuery("lesson", "false"))
	if err != nil {
		badRequest(c, "invalid lesson flag %q", c.Query("lesson"))
		return
	}

	q, err := h.service.Quote(c.Request.Context(), courtID, start, duration, lesson)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse{
		CourtID:         courtID,
		StartAt:         start.UTC().Format(timeFormat),
		DurationMinutes: duration,
		IsLesson:        lesson,
		HourlyRateCents: q.HourlyRateCents,
		TotalCents:      q.TotalCents,
	})
}
