package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// seedDay books four appointments, cancels one and moves the clock to 13:00 on Jan 9.
func seedDay(t *testing.T, f *fixture) map[string]model.Appointment {
	t.Helper()
	ctx := context.Background()
	at := map[string]time.Time{
		"morning":   time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC),
		"noon":      time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC),
		"afternoon": time.Date(2025, 1, 9, 15, 0, 0, 0, time.UTC),
		"tomorrow":  scheduled,
	}
	out := map[string]model.Appointment{}
	for name, when := range at {
		appt, err := f.mgr.Create(ctx, CreateRequest{
			CustomerID:  customerID,
			BusinessID:  businessID,
			ServiceID:   serviceID,
			ScheduledAt: when,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		out[name] = appt
	}
	if _, err := f.mgr.Cancel(ctx, out["noon"].ID, customerID); err != nil {
		t.Fatalf("cancel noon: %v", err)
	}
	f.clock.Set(time.Date(2025, 1, 9, 13, 0, 0, 0, time.UTC))
	return out
}

func ids(appts []model.Appointment) []string {
	out := make([]string, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.ID)
	}
	return out
}

func sameIDs(got []model.Appointment, want ...model.Appointment) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			return false
		}
	}
	return true
}

func TestCustomerUpcomingAndPast(t *testing.T) {
	f := newFixture(t)
	a := seedDay(t, f)
	ctx := context.Background()

	upcoming, err := f.mgr.UpcomingForCustomer(ctx, customerID, 0)
	if err != nil || !sameIDs(upcoming, a["afternoon"], a["tomorrow"]) {
		t.Fatalf("upcoming: %v err=%v", ids(upcoming), err)
	}
	past, err := f.mgr.PastForCustomer(ctx, customerID, 0)
	if err != nil || !sameIDs(past, a["noon"], a["morning"]) {
		t.Fatalf("past should be latest first: %v err=%v", ids(past), err)
	}
	if _, err := f.mgr.UpcomingForCustomer(ctx, "", 0); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing actor: expected ErrUnauthorized, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	f := newFixture(t)
	a := seedDay(t, f)
	ctx := context.Background()

	canceled, err := f.mgr.ListForCustomer(ctx, customerID, model.StatusCanceled, 0)
	if err != nil || !sameIDs(canceled, a["noon"]) {
		t.Fatalf("canceled list: %v err=%v", ids(canceled), err)
	}
	confirmed, err := f.mgr.ListForBusiness(ctx, businessID, ownerID, model.StatusConfirmed, 0)
	if err != nil || len(confirmed) != 3 {
		t.Fatalf("confirmed business list: %v err=%v", ids(confirmed), err)
	}
	if _, err := f.mgr.ListForCustomer(ctx, customerID, model.Status("PENDING"), 0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("unknown status: expected ErrInvalidState, got %v", err)
	}
}

func TestBusinessTodayAndUpcoming(t *testing.T) {
	f := newFixture(t)
	a := seedDay(t, f)
	ctx := context.Background()

	today, err := f.mgr.TodayForBusiness(ctx, businessID, ownerID)
	if err != nil || !sameIDs(today, a["morning"], a["afternoon"]) {
		t.Fatalf("today should hold confirmed appointments of Jan 9: %v err=%v", ids(today), err)
	}
	upcoming, err := f.mgr.UpcomingForBusiness(ctx, businessID, ownerID, 0)
	if err != nil || !sameIDs(upcoming, a["afternoon"], a["tomorrow"]) {
		t.Fatalf("business upcoming: %v err=%v", ids(upcoming), err)
	}
	if _, err := f.mgr.TodayForBusiness(ctx, businessID, customerID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("customer today: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.mgr.UpcomingForBusiness(ctx, "biz-missing", ownerID, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown business: expected ErrNotFound, got %v", err)
	}
}

func TestBookedSlots(t *testing.T) {
	f := newFixture(t)
	seedDay(t, f)
	ctx := context.Background()

	slots, err := f.mgr.BookedSlots(ctx, businessID, "2025-01-09")
	if err != nil {
		t.Fatalf("booked slots: %v", err)
	}
	if len(slots) != 2 || slots[0] != "10:00" || slots[1] != "15:00" {
		t.Fatalf("expected [10:00 15:00], got %v", slots)
	}

	// The calendar day follows the display zone; 10:00Z on Jan 10 is 05:00 and
	// falls outside Jan 9 in UTC-5.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	east := NewManager(f.store, f.dir, dispatch.NewNotifier(f.prefs, f.rec), logger, Config{
		Now:      f.clock.Now,
		Location: time.FixedZone("UTC-5", -5*60*60),
	})
	slots, err = east.BookedSlots(ctx, businessID, "2025-01-09")
	if err != nil || len(slots) != 2 || slots[0] != "05:00" || slots[1] != "10:00" {
		t.Fatalf("expected [05:00 10:00] in UTC-5, got %v err=%v", slots, err)
	}

	if _, err := f.mgr.BookedSlots(ctx, businessID, "09/01/2025"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("bad date: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.mgr.BookedSlots(ctx, "biz-missing", "2025-01-09"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown business: expected ErrNotFound, got %v", err)
	}
}
