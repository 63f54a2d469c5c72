package model

import "time"

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCanceled  Status = "CANCELED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

type Appointment struct {
	ID                string
	CustomerID        string
	BusinessID        string
	ServiceID         string
	ScheduledAt       time.Time
	Status            Status
	Notes             string
	Reminder24hSent   bool
	Reminder30mSent   bool
	ReminderStartSent bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReminderSent reports the idempotency flag for kind.
func (a *Appointment) ReminderSent(kind ReminderKind) bool {
	switch kind {
	case Reminder24h:
		return a.Reminder24hSent
	case Reminder30m:
		return a.Reminder30mSent
	case ReminderStart:
		return a.ReminderStartSent
	}
	return false
}

func (a *Appointment) MarkReminderSent(kind ReminderKind) {
	switch kind {
	case Reminder24h:
		a.Reminder24hSent = true
	case Reminder30m:
		a.Reminder30mSent = true
	case ReminderStart:
		a.ReminderStartSent = true
	}
}

func (a *Appointment) ResetReminders() {
	a.Reminder24hSent = false
	a.Reminder30mSent = false
	a.ReminderStartSent = false
}

// TransitionFunc mutates an appointment inside a store's per-record atomic unit.
// Returning an error aborts the unit and leaves the record unchanged.
type TransitionFunc func(appt *Appointment) error

// ListFilter narrows an appointment listing. Zero-valued fields are not applied.
// The scheduled-time bounds form the half-open range [From, Until).
type ListFilter struct {
	CustomerID string
	BusinessID string
	Status     Status
	From       time.Time
	Until      time.Time
	Ascending  bool
	Limit      int
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}
