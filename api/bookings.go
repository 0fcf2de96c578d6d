package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/courtbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const timeFormat = time.RFC3339

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.POST("/:id/cancel", h.cancel)
	router.DELETE("/:id", h.delete)
}

func (h *BookingHandler) create(c *gin.Context) {
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	input.IdempotencyKey = c.GetHeader("Idempotency-Key")

	res, err := h.service.CreateBooking(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) update(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var input booking.UpdateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}

	res, err := h.service.UpdateBooking(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, scope, ok := scopedTarget(c)
	if !ok {
		return
	}
	res, err := h.service.CancelBooking(c.Request.Context(), actorFrom(c), id, scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, scope, ok := scopedTarget(c)
	if !ok {
		return
	}
	res, err := h.service.DeleteBooking(c.Request.Context(), actorFrom(c), id, scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id %q", c.Param("id"))
		return 0, false
	}
	return id, true
}

func scopedTarget(c *gin.Context) (int64, booking.Scope, bool) {
	id, ok := bookingID(c)
	if !ok {
		return 0, "", false
	}
	scope, err := booking.ParseScope(c.Query("scope"))
	if err != nil {
		writeError(c, err)
		return 0, "", false
	}
	return id, scope, true
}
