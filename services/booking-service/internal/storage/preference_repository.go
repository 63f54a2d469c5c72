package storage

import (
	"context"

	"github.com/md-rashed-zaman/localbook/libs/db"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

type PreferenceRepository struct {
	pool *db.Pool
}

func NewPreferenceRepository(pool *db.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// GetOrDefault creates the all-enabled row on first access. Column defaults carry the "enabled" value.
func (r *PreferenceRepository) GetOrDefault(ctx context.Context, userID string) (model.NotificationPreference, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_preferences (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return model.NotificationPreference{}, err
	}

	var p model.NotificationPreference
	err = r.pool.QueryRow(ctx, `
		SELECT user_id, reminder_24h, reminder_30m, reminder_start,
			booking_enabled, cancellation_enabled, reschedule_enabled
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Reminder24h,
		&p.Reminder30m,
		&p.ReminderStart,
		&p.BookingNotifications,
		&p.CancellationNotifications,
		&p.RescheduleNotifications,
	)
	return p, err
}

func (r *PreferenceRepository) Save(ctx context.Context, p model.NotificationPreference) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_preferences
			(user_id, reminder_24h, reminder_30m, reminder_start, booking_enabled, cancellation_enabled, reschedule_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET reminder_24h = EXCLUDED.reminder_24h,
			reminder_30m = EXCLUDED.reminder_30m,
			reminder_start = EXCLUDED.reminder_start,
			booking_enabled = EXCLUDED.booking_enabled,
			cancellation_enabled = EXCLUDED.cancellation_enabled,
			reschedule_enabled = EXCLUDED.reschedule_enabled,
			updated_at = now()
	`, p.UserID, p.Reminder24h, p.Reminder30m, p.ReminderStart,
		p.BookingNotifications, p.CancellationNotifications, p.RescheduleNotifications)
	return err
}
