package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter builds the public HTTP surface. Authentication applies to
// /api/v1 only; callers mount probes on the returned engine.
func NewRouter(logger zerolog.Logger, resolver ActorResolver, bookings *BookingHandler, quotes *QuoteHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(logger))

	v1 := engine.Group("/api/v1", Authenticate(resolver))
	bookings.Register(v1.Group("/bookings"))
	quotes.Register(v1.Group("/courts"))
	return engine
}
