package domain

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleVenueManager Role = "VENUE_MANAGER"
	RoleCustomer     Role = "CUSTOMER"
)

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID        int64
	Role      Role
	VenueID   int64  // tenant scope of a venue manager
	AthleteID *int64 // athlete profile of a customer
}

// Elevated reports roles allowed to bypass the edit lock.
func (a *Actor) Elevated() bool {
	return a.Role == RoleAdmin || a.Role == RoleVenueManager
}
