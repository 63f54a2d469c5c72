package lifecycle

import (
	"fmt"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

const (
	typeNewBooking          = "new_booking"
	typeBookingConfirmation = "booking_confirmation"
	typeCancelled           = "cancelled"
	typeRescheduled         = "rescheduled"
)

// parties holds the display data both messages of a transition need.
type parties struct {
	appt         model.Appointment
	ownerID      string
	businessName string
	customerName string
	serviceName  string
}

func metadata(kind string, appt model.Appointment) map[string]string {
	return map[string]string{
		"type":          kind,
		"appointmentId": appt.ID,
	}
}

func newBookingPush(p parties, when string) dispatch.Push {
	return dispatch.Push{
		RecipientID: p.ownerID,
		Title:       "New Booking!",
		Body:        fmt.Sprintf("%s booked %s on %s", p.customerName, p.serviceName, when),
		Metadata:    metadata(typeNewBooking, p.appt),
	}
}

func bookingConfirmedPush(p parties, when string) dispatch.Push {
	return dispatch.Push{
		RecipientID: p.appt.CustomerID,
		Title:       "Booking Confirmed!",
		Body:        fmt.Sprintf("Your appointment for %s on %s at %s is confirmed!", p.serviceName, when, p.businessName),
		Metadata:    metadata(typeBookingConfirmation, p.appt),
	}
}

func cancelledPushes(p parties) (customer, owner dispatch.Push) {
	const title = "Appointment Cancelled"
	customer = dispatch.Push{
		RecipientID: p.appt.CustomerID,
		Title:       title,
		Body:        fmt.Sprintf("Your appointment for %s has been cancelled", p.serviceName),
		Metadata:    metadata(typeCancelled, p.appt),
	}
	owner = dispatch.Push{
		RecipientID: p.ownerID,
		Title:       title,
		Body:        fmt.Sprintf("Appointment with %s for %s has been cancelled", p.customerName, p.serviceName),
		Metadata:    metadata(typeCancelled, p.appt),
	}
	return customer, owner
}

func rescheduledPushes(p parties, from, to string) (customer, owner dispatch.Push) {
	const title = "Appointment Rescheduled"
	body := fmt.Sprintf("%s rescheduled from %s to %s", p.serviceName, from, to)
	customer = dispatch.Push{
		RecipientID: p.appt.CustomerID,
		Title:       title,
		Body:        body,
		Metadata:    metadata(typeRescheduled, p.appt),
	}
	owner = dispatch.Push{
		RecipientID: p.ownerID,
		Title:       title,
		Body:        fmt.Sprintf("%s's appointment: %s", p.customerName, body),
		Metadata:    metadata(typeRescheduled, p.appt),
	}
	return customer, owner
}
