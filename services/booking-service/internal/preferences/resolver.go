package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// Store persists one preference record per user and creates the default on first read.
type Store interface {
	GetOrDefault(ctx context.Context, userID string) (model.NotificationPreference, error)
	Save(ctx context.Context, pref model.NotificationPreference) error
}

type Resolver struct {
	store  Store
	logger *slog.Logger
}

func NewResolver(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (model.NotificationPreference, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.NotificationPreference{}, fmt.Errorf("preferences: empty user id")
	}
	return r.store.GetOrDefault(ctx, userID)
}

// Gate reports whether a notification of cat may be sent to userID.
// A failed lookup is logged and treated as enabled.
func (r *Resolver) Gate(ctx context.Context, userID string, cat model.Category) bool {
	pref, err := r.Resolve(ctx, userID)
	if err != nil {
		r.logger.Warn("preference lookup failed; sending anyway", "user_id", userID, "category", string(cat), "err", err)
		return true
	}
	return pref.Enabled(cat)
}

// Patch is a partial update; nil fields keep their stored value.
type Patch struct {
	Reminder24h               *bool `json:"enable_24hr_reminder,omitempty"`
	Reminder30m               *bool `json:"enable_30min_reminder,omitempty"`
	ReminderStart             *bool `json:"enable_start_reminder,omitempty"`
	BookingNotifications      *bool `json:"enable_booking_notifications,omitempty"`
	CancellationNotifications *bool `json:"enable_cancellation_notifications,omitempty"`
	RescheduleNotifications   *bool `json:"enable_reschedule_notifications,omitempty"`
}

func (p Patch) apply(pref *model.NotificationPreference) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&pref.Reminder24h, p.Reminder24h)
	set(&pref.Reminder30m, p.Reminder30m)
	set(&pref.ReminderStart, p.ReminderStart)
	set(&pref.BookingNotifications, p.BookingNotifications)
	set(&pref.CancellationNotifications, p.CancellationNotifications)
	set(&pref.RescheduleNotifications, p.RescheduleNotifications)
}

func (r *Resolver) Update(ctx context.Context, userID string, patch Patch) (model.NotificationPreference, error) {
	pref, err := r.Resolve(ctx, userID)
	if err != nil {
		return model.NotificationPreference{}, err
	}
	patch.apply(&pref)
	if err := r.store.Save(ctx, pref); err != nil {
		return model.NotificationPreference{}, err
	}
	return pref, nil
}
