package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

const (
	// DateLayout is the calendar date accepted by BookedSlots.
	DateLayout = "2006-01-02"
	// SlotLayout formats booked slot times.
	SlotLayout = "15:04"
)

// ListForCustomer returns the actor's own appointments, newest first. An empty
// status lists every status.
func (m *Manager) ListForCustomer(ctx context.Context, actorID string, status model.Status, limit int) ([]model.Appointment, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	if actorID == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrUnauthorized)
	}
	return m.store.List(ctx, model.ListFilter{CustomerID: actorID, Status: status, Limit: limit})
}

// ListForBusiness returns a business's appointments to its owner, newest first.
func (m *Manager) ListForBusiness(ctx context.Context, businessID, actorID string, status model.Status, limit int) ([]model.Appointment, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	if err := m.requireOwner(ctx, businessID, actorID); err != nil {
		return nil, err
	}
	return m.store.List(ctx, model.ListFilter{BusinessID: businessID, Status: status, Limit: limit})
}

// UpcomingForCustomer returns the actor's appointments from now on, soonest first.
func (m *Manager) UpcomingForCustomer(ctx context.Context, actorID string, limit int) ([]model.Appointment, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrUnauthorized)
	}
	return m.store.List(ctx, model.ListFilter{
		CustomerID: actorID,
		From:       m.now().UTC(),
		Ascending:  true,
		Limit:      limit,
	})
}

// PastForCustomer returns the actor's appointments scheduled before now, latest first.
func (m *Manager) PastForCustomer(ctx context.Context, actorID string, limit int) ([]model.Appointment, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrUnauthorized)
	}
	return m.store.List(ctx, model.ListFilter{
		CustomerID: actorID,
		Until:      m.now().UTC(),
		Limit:      limit,
	})
}

// UpcomingForBusiness returns a business's appointments from now on to its owner.
func (m *Manager) UpcomingForBusiness(ctx context.Context, businessID, actorID string, limit int) ([]model.Appointment, error) {
	if err := m.requireOwner(ctx, businessID, actorID); err != nil {
		return nil, err
	}
	return m.store.List(ctx, model.ListFilter{
		BusinessID: businessID,
		From:       m.now().UTC(),
		Ascending:  true,
		Limit:      limit,
	})
}

// TodayForBusiness returns the confirmed appointments of the current calendar
// day to the business owner, in schedule order.
func (m *Manager) TodayForBusiness(ctx context.Context, businessID, actorID string) ([]model.Appointment, error) {
	if err := m.requireOwner(ctx, businessID, actorID); err != nil {
		return nil, err
	}
	from, until := m.dayBounds(m.now())
	return m.store.List(ctx, model.ListFilter{
		BusinessID: businessID,
		Status:     model.StatusConfirmed,
		From:       from,
		Until:      until,
		Ascending:  true,
		Limit:      200,
	})
}

// BookedSlots returns the start times of a business's confirmed appointments on
// date (DateLayout, in the manager's zone), formatted with SlotLayout. Any actor
// may ask; no customer data is returned.
func (m *Manager) BookedSlots(ctx context.Context, businessID, date string) ([]string, error) {
	day, err := time.ParseInLocation(DateLayout, date, m.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidState)
	}
	if _, err := m.dir.ResolveBusiness(ctx, businessID); err != nil {
		return nil, resolveErr(err)
	}
	from, until := m.dayBounds(day)
	appts, err := m.store.List(ctx, model.ListFilter{
		BusinessID: businessID,
		Status:     model.StatusConfirmed,
		From:       from,
		Until:      until,
		Ascending:  true,
		Limit:      200,
	})
	if err != nil {
		return nil, err
	}
	slots := make([]string, 0, len(appts))
	for _, a := range appts {
		slots = append(slots, a.ScheduledAt.In(m.loc).Format(SlotLayout))
	}
	return slots, nil
}

func (m *Manager) requireOwner(ctx context.Context, businessID, actorID string) error {
	biz, err := m.dir.ResolveBusiness(ctx, businessID)
	if err != nil {
		return resolveErr(err)
	}
	if actorID == "" || actorID != biz.OwnerID {
		return fmt.Errorf("%w: only the business owner can list its appointments", ErrUnauthorized)
	}
	return nil
}

// dayBounds returns the calendar day containing t in the manager's zone as UTC instants.
func (m *Manager) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(m.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, m.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

func checkStatus(status model.Status) error {
	if status != "" && !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}
	return nil
}
