package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

var ErrNotFound = errors.New("record not found")

const defaultListLimit = 50

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func reminderColumn(kind model.ReminderKind) (string, error) {
	switch kind {
	case model.Reminder24h:
		return "reminder_24h_sent", nil
	case model.Reminder30m:
		return "reminder_30m_sent", nil
	case model.ReminderStart:
		return "reminder_start_sent", nil
	}
	return "", fmt.Errorf("unknown reminder kind %q", kind)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return defaultListLimit
	}
	return limit
}
