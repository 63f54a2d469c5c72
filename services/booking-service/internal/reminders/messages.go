package reminders

import (
	"fmt"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

const (
	userTypeCustomer = "customer"
	userTypeBusiness = "business"
)

type reminderText struct {
	title string
	body  string
}

// customerText returns the customer-facing wording for kind. when is only used by the 24h reminder.
func customerText(kind model.ReminderKind, businessName, when string) reminderText {
	switch kind {
	case model.Reminder24h:
		return reminderText{"Appointment Tomorrow", fmt.Sprintf("Your appointment at %s is tomorrow at %s", businessName, when)}
	case model.Reminder30m:
		return reminderText{"Appointment Starting Soon!", fmt.Sprintf("Your appointment at %s starts in 30 minutes!", businessName)}
	default:
		return reminderText{"Appointment Starting Now!", fmt.Sprintf("Your appointment at %s is starting now!", businessName)}
	}
}

func metadataType(kind model.ReminderKind) string {
	switch kind {
	case model.Reminder24h:
		return "24hr_reminder"
	case model.Reminder30m:
		return "30min_reminder"
	default:
		return "start_reminder"
	}
}

type recipients struct {
	appt         model.Appointment
	ownerID      string
	businessName string
	customerName string
	serviceName  string
}

func reminderPushes(kind model.ReminderKind, r recipients, when string) (customer, owner dispatch.Push) {
	text := customerText(kind, r.businessName, when)
	customer = dispatch.Push{
		RecipientID: r.appt.CustomerID,
		Title:       text.title,
		Body:        text.body,
		Metadata:    reminderMetadata(kind, r.appt, userTypeCustomer),
	}
	owner = dispatch.Push{
		RecipientID: r.ownerID,
		Title:       fmt.Sprintf("%s - Customer: %s", text.title, r.customerName),
		Body:        fmt.Sprintf("%s has an appointment for %s", r.customerName, r.serviceName),
		Metadata:    reminderMetadata(kind, r.appt, userTypeBusiness),
	}
	return customer, owner
}

func reminderMetadata(kind model.ReminderKind, appt model.Appointment, userType string) map[string]string {
	return map[string]string{
		"type":          metadataType(kind),
		"appointmentId": appt.ID,
		"userType":      userType,
	}
}
