package reminders

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// Rule places a reminder window relative to the scan instant.
type Rule struct {
	Kind      model.ReminderKind
	Offset    time.Duration
	HalfWidth time.Duration
}

var Rules = []Rule{
	{Kind: model.Reminder24h, Offset: 24 * time.Hour, HalfWidth: 5 * time.Minute},
	{Kind: model.Reminder30m, Offset: 30 * time.Minute, HalfWidth: 2 * time.Minute},
	{Kind: model.ReminderStart, Offset: 0, HalfWidth: 2 * time.Minute},
}

func RuleFor(kind model.ReminderKind) (Rule, error) {
	for _, r := range Rules {
		if r.Kind == kind {
			return r, nil
		}
	}
	return Rule{}, fmt.Errorf("unknown reminder kind %q", kind)
}

// Window is a closed interval of scheduled times.
type Window struct {
	From time.Time
	To   time.Time
}

func (r Rule) Window(now time.Time) Window {
	target := now.Add(r.Offset)
	return Window{From: target.Add(-r.HalfWidth), To: target.Add(r.HalfWidth)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}
