package api

import (
	"time"

	"github.com/Domenick1991/courtbooking/internal/auth"
	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const actorKey = "actor"

// ActorResolver turns a bearer token into an actor.
type ActorResolver interface {
	Resolve(token string) (*domain.Actor, error)
}

// Authenticate attaches the bearer's actor to the context. Requests without
// an Authorization header pass through anonymously; the service layer decides
// whether that is enough. A present but invalid token is rejected.
func Authenticate(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.Next()
			return
		}
		tok, err := auth.BearerToken(h)
		if err != nil {
			writeError(c, domain.ErrAuthenticationRequired)
			return
		}
		actor, err := resolver.Resolve(tok)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) *domain.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*domain.Actor)
	return actor
}

// RequestLogger writes one line per request. Server errors carry the
// underlying cause recorded by writeError.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Info()
		switch {
		case status >= 500:
			ev = logger.Error()
		case status >= 400:
			ev = logger.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last().Err)
		}
		if actor := actorFrom(c); actor != nil {
			ev = ev.Int64("actor_id", actor.ID).Str("role", string(actor.Role))
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Msg("http request")
	}
}
