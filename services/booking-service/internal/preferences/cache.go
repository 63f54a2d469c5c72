package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// CachedStore is a Redis read-through cache in front of another Store.
// Save overwrites the cached entry; a read miss only fills an empty key so it
// cannot replace a value written by a concurrent Save.
type CachedStore struct {
	next   Store
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(next Store, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedPreference struct {
	Reminder24h   bool `json:"r24"`
	Reminder30m   bool `json:"r30"`
	ReminderStart bool `json:"rs"`
	Booking       bool `json:"bk"`
	Cancellation  bool `json:"cx"`
	Reschedule    bool `json:"rx"`
}

func cacheKey(userID string) string {
	return "notif_pref:" + userID
}

func (c *CachedStore) GetOrDefault(ctx context.Context, userID string) (model.NotificationPreference, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case err == nil:
		var cp cachedPreference
		if err := json.Unmarshal(raw, &cp); err == nil {
			return model.NotificationPreference{
				UserID:                    userID,
				Reminder24h:               cp.Reminder24h,
				Reminder30m:               cp.Reminder30m,
				ReminderStart:             cp.ReminderStart,
				BookingNotifications:      cp.Booking,
				CancellationNotifications: cp.Cancellation,
				RescheduleNotifications:   cp.Reschedule,
			}, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("preference cache read failed", "user_id", userID, "err", err)
	}

	pref, err := c.next.GetOrDefault(ctx, userID)
	if err != nil {
		return model.NotificationPreference{}, err
	}
	c.fill(ctx, pref)
	return pref, nil
}

func (c *CachedStore) Save(ctx context.Context, pref model.NotificationPreference) error {
	if err := c.next.Save(ctx, pref); err != nil {
		return err
	}
	raw, err := encode(pref)
	if err == nil {
		err = c.rdb.Set(ctx, cacheKey(pref.UserID), raw, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("preference cache write failed", "user_id", pref.UserID, "err", err)
		if err := c.rdb.Del(ctx, cacheKey(pref.UserID)).Err(); err != nil {
			c.logger.Warn("preference cache invalidate failed", "user_id", pref.UserID, "err", err)
		}
	}
	return nil
}

func (c *CachedStore) fill(ctx context.Context, pref model.NotificationPreference) {
	raw, err := encode(pref)
	if err != nil {
		return
	}
	if err := c.rdb.SetNX(ctx, cacheKey(pref.UserID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("preference cache write failed", "user_id", pref.UserID, "err", err)
	}
}

func encode(pref model.NotificationPreference) ([]byte, error) {
	return json.Marshal(cachedPreference{
		Reminder24h:   pref.Reminder24h,
		Reminder30m:   pref.Reminder30m,
		ReminderStart: pref.ReminderStart,
		Booking:       pref.BookingNotifications,
		Cancellation:  pref.CancellationNotifications,
		Reschedule:    pref.RescheduleNotifications,
	})
}
