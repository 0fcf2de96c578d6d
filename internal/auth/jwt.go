// Package auth resolves bearer tokens into booking actors.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	jwt "github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub       string `json:"sub"`
	Role      string `json:"role"`
	VenueID   int64  `json:"venue_id,omitempty"`
	AthleteID *int64 `json:"athlete_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTProvider struct {
	secret []byte
	issuer string
}

func NewJWTProvider(secret, issuer string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer}
}

// Issue signs an access token for actor. Used by tooling and tests; the
// account service owns token issuance in production.
func (p *JWTProvider) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	claims := Claims{
		Sub:       strconv.FormatInt(actor.ID, 10),
		Role:      string(actor.Role),
		VenueID:   actor.VenueID,
		AthleteID: actor.AthleteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Resolve validates token and maps its claims to an actor. Every failure
// wraps domain.ErrAuthenticationRequired.
func (p *JWTProvider) Resolve(token string) (*domain.Actor, error) {
	if token == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationRequired, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrAuthenticationRequired)
	}
	return c.actor()
}

func (c *Claims) actor() (*domain.Actor, error) {
	id, err := strconv.ParseInt(c.Sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject %q", domain.ErrAuthenticationRequired, c.Sub)
	}

	role := domain.Role(c.Role)
	switch role {
	case domain.RoleAdmin:
	case domain.RoleVenueManager:
		if c.VenueID == 0 {
			return nil, fmt.Errorf("%w: venue manager token without venue", domain.ErrAuthenticationRequired)
		}
	case domain.RoleCustomer:
		if c.AthleteID == nil {
			return nil, fmt.Errorf("%w: customer token without athlete", domain.ErrAuthenticationRequired)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrAuthenticationRequired, c.Role)
	}
	return &domain.Actor{ID: id, Role: role, VenueID: c.VenueID, AthleteID: c.AthleteID}, nil
}

var errNoBearer = errors.New("missing bearer token")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", errNoBearer
	}
	return header[len(prefix):], nil
}
