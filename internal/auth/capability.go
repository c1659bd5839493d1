package auth

import "fmt"

type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// Capability names an operation family that can be granted to roles.
type Capability string

const (
	ManageParkings     Capability = "manage_parkings"
	ManageSpaces       Capability = "manage_spaces"
	ManageTickets      Capability = "manage_tickets"
	ManageReservations Capability = "manage_reservations"
	ViewAvailability   Capability = "view_availability"
)

// grants lists the roles holding each capability. A nil entry means any
// authenticated principal.
var grants = map[Capability][]Role{
	ManageParkings:     {RoleManager},
	ManageSpaces:       {RoleManager, RoleEmployee},
	ManageTickets:      {RoleManager, RoleEmployee},
	ManageReservations: nil,
	ViewAvailability:   nil,
}

type Principal struct {
	ID    string
	Roles []Role
}

func (p Principal) Has(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Decision is the result of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize decides whether principal may exercise capability.
func Authorize(principal Principal, capability Capability) Decision {
	if principal.ID == "" {
		return Decision{Reason: "unauthenticated"}
	}
	roles, known := grants[capability]
	if !known {
		return Decision{Reason: fmt.Sprintf("unknown capability %q", capability)}
	}
	if roles == nil {
		return Decision{Allowed: true}
	}
	for _, role := range roles {
		if principal.Has(role) {
			return Decision{Allowed: true}
		}
	}
	return Decision{Reason: fmt.Sprintf("capability %q requires one of %v", capability, roles)}
}
