package auth

import (
	"testing"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueResolveRoundTrip(t *testing.T) {
	p := NewJWTProvider("secret", "courts")
	athlete := int64(42)

	testCases := []domain.Actor{
		{ID: 1, Role: domain.RoleAdmin},
		{ID: 2, Role: domain.RoleVenueManager, VenueID: 7},
		{ID: 3, Role: domain.RoleCustomer, AthleteID: &athlete},
	}
	for _, want := range testCases {
		t.Run(string(want.Role), func(t *testing.T) {
			token, err := p.Issue(want, time.Hour)
			require.NoError(t, err)

			got, err := p.Resolve(token)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		})
	}
}

func TestResolve_Rejects(t *testing.T) {
	p := NewJWTProvider("secret", "courts")

	expired, err := p.Issue(domain.Actor{ID: 1, Role: domain.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewJWTProvider("other", "courts").Issue(domain.Actor{ID: 1, Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewJWTProvider("secret", "elsewhere").Issue(domain.Actor{ID: 1, Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	noVenue, err := p.Issue(domain.Actor{ID: 2, Role: domain.RoleVenueManager}, time.Hour)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Sub: "1", Role: "ROOT"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Sub: "abc", Role: "ADMIN", RegisteredClaims: jwt.RegisteredClaims{Issuer: "courts"}}).SignedString([]byte("secret"))
	require.NoError(t, err)

	testCases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"expired":        expired,
		"wrong secret":   foreign,
		"wrong issuer":   wrongIssuer,
		"manager venue":  noVenue,
		"unknown role":   badRole,
		"non-numeric id": badSub,
	}
	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Resolve(token)
			assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		_, err := BearerToken(h)
		assert.Error(t, err, h)
	}
}
