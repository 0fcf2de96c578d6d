// Package policy is the single place where role-based booking permissions live.
package policy

import (
	"fmt"

	"github.com/Domenick1991/courtbooking/internal/domain"
)

type Action string

const (
	ActionView           Action = "view"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionCancel         Action = "cancel"
	ActionDelete         Action = "delete"
	ActionBypassEditLock Action = "bypass_edit_lock"
	ActionEditTerminal   Action = "edit_terminal"
	ActionNegotiatePrice Action = "negotiate_price"
)

// Resource describes the booking an action targets.
type Resource struct {
	VenueID   int64
	AthleteID *int64
}

// ResourceOf builds the policy view of a booking on a court.
func ResourceOf(b *domain.Booking, court domain.Court) Resource {
	return Resource{VenueID: court.VenueID, AthleteID: b.AthleteID}
}

// Can reports whether actor may perform action on res.
func Can(actor *domain.Actor, action Action, res Resource) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleVenueManager:
		if action == ActionEditTerminal {
			return false
		}
		return actor.VenueID != 0 && actor.VenueID == res.VenueID
	case domain.RoleCustomer:
		switch action {
		case ActionView, ActionCreate, ActionUpdate, ActionCancel:
			return owns(actor, res)
		}
		return false
	}
	return false
}

// Authorize is Can expressed as an error for the mutation workflow.
func Authorize(actor *domain.Actor, action Action, res Resource) error {
	if actor == nil {
		return domain.ErrAuthenticationRequired
	}
	if !Can(actor, action, res) {
		return fmt.Errorf("%w: role %s cannot %s this booking", domain.ErrPermissionDenied, actor.Role, action)
	}
	return nil
}

func owns(actor *domain.Actor, res Resource) bool {
	return actor.AthleteID != nil && res.AthleteID != nil && *actor.AthleteID == *res.AthleteID
}
