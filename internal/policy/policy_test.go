package policy

import (
	"errors"
	"testing"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func athlete(id int64) *int64 { return &id }

func TestCan(t *testing.T) {
	admin := &domain.Actor{ID: 1, Role: domain.RoleAdmin}
	manager := &domain.Actor{ID: 2, Role: domain.RoleVenueManager, VenueID: 10}
	customer := &domain.Actor{ID: 3, Role: domain.RoleCustomer, AthleteID: athlete(55)}

	own := Resource{VenueID: 10, AthleteID: athlete(55)}
	foreign := Resource{VenueID: 11, AthleteID: athlete(56)}
	house := Resource{VenueID: 10}

	testCases := []struct {
		name   string
		actor  *domain.Actor
		action Action
		res    Resource
		want   bool
	}{
		{"admin deletes anything", admin, ActionDelete, foreign, true},
		{"admin edits terminal", admin, ActionEditTerminal, own, true},
		{"manager updates own venue", manager, ActionUpdate, own, true},
		{"manager bypasses lock in own venue", manager, ActionBypassEditLock, house, true},
		{"manager foreign venue", manager, ActionUpdate, foreign, false},
		{"manager cannot edit terminal", manager, ActionEditTerminal, own, false},
		{"customer updates own", customer, ActionUpdate, own, true},
		{"customer cancels own", customer, ActionCancel, own, true},
		{"customer foreign", customer, ActionView, foreign, false},
		{"customer house booking", customer, ActionCreate, house, false},
		{"customer cannot delete", customer, ActionDelete, own, false},
		{"customer cannot bypass lock", customer, ActionBypassEditLock, own, false},
		{"customer cannot negotiate", customer, ActionNegotiatePrice, own, false},
		{"manager negotiates in own venue", manager, ActionNegotiatePrice, own, true},
		{"anonymous", nil, ActionView, own, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Can(tc.actor, tc.action, tc.res))
		})
	}
}

func TestAuthorize_Errors(t *testing.T) {
	err := Authorize(nil, ActionView, Resource{})
	assert.True(t, errors.Is(err, domain.ErrAuthenticationRequired))

	customer := &domain.Actor{ID: 3, Role: domain.RoleCustomer, AthleteID: athlete(55)}
	err = Authorize(customer, ActionDelete, Resource{AthleteID: athlete(55)})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	assert.NoError(t, Authorize(customer, ActionView, Resource{AthleteID: athlete(55)}))
}
