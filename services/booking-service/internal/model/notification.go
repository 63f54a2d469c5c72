package model

// ReminderKind identifies one of the three reminder windows.
type ReminderKind string

const (
	Reminder24h   ReminderKind = "24h"
	Reminder30m   ReminderKind = "30m"
	ReminderStart ReminderKind = "start"
)

var ReminderKinds = []ReminderKind{Reminder24h, Reminder30m, ReminderStart}

// Category is a user-facing notification opt-out group.
type Category string

const (
	Category24hReminder   Category = "reminder_24h"
	Category30mReminder   Category = "reminder_30m"
	CategoryStartReminder Category = "reminder_start"
	CategoryBooking       Category = "booking"
	CategoryCancellation  Category = "cancellation"
	CategoryReschedule    Category = "reschedule"
)

func (k ReminderKind) Category() Category {
	switch k {
	case Reminder24h:
		return Category24hReminder
	case Reminder30m:
		return Category30mReminder
	default:
		return CategoryStartReminder
	}
}

type NotificationPreference struct {
	UserID                    string
	Reminder24h               bool
	Reminder30m               bool
	ReminderStart             bool
	BookingNotifications      bool
	CancellationNotifications bool
	RescheduleNotifications   bool
}

func DefaultPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                    userID,
		Reminder24h:               true,
		Reminder30m:               true,
		ReminderStart:             true,
		BookingNotifications:      true,
		CancellationNotifications: true,
		RescheduleNotifications:   true,
	}
}

// Enabled reports whether the user accepts notifications of cat.
// Unknown categories are allowed.
func (p NotificationPreference) Enabled(cat Category) bool {
	switch cat {
	case Category24hReminder:
		return p.Reminder24h
	case Category30mReminder:
		return p.Reminder30m
	case CategoryStartReminder:
		return p.ReminderStart
	case CategoryBooking:
		return p.BookingNotifications
	case CategoryCancellation:
		return p.CancellationNotifications
	case CategoryReschedule:
		return p.RescheduleNotifications
	}
	return true
}
