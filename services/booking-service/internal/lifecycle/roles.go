package lifecycle

import "github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"

// Role is the relationship of an actor to one appointment. A business owner
// booking at their own business holds both roles.
type Role uint8

const (
	RoleCustomer Role = 1 << iota
	RoleOwner
)

const RoleNone Role = 0

func (r Role) Has(want Role) bool {
	return r&want != 0
}

// ClassifyActor compares actorID with the appointment's customer and the owner of its business.
func ClassifyActor(actorID string, appt model.Appointment, ownerID string) Role {
	if actorID == "" {
		return RoleNone
	}
	var r Role
	if actorID == appt.CustomerID {
		r |= RoleCustomer
	}
	if ownerID != "" && actorID == ownerID {
		r |= RoleOwner
	}
	return r
}
