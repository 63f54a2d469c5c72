package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// MemoryAppointments keeps appointments in process. All transitions run under one mutex,
// which gives the same per-record atomicity as the row-locking Postgres repository.
type MemoryAppointments struct {
	mu    sync.Mutex
	items map[string]model.Appointment
	now   func() time.Time
}

func NewMemoryAppointments() *MemoryAppointments {
	return &MemoryAppointments{items: map[string]model.Appointment{}, now: time.Now}
}

func (m *MemoryAppointments) Insert(_ context.Context, appt model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[appt.ID]; ok {
		return errors.New("appointment already exists")
	}
	m.items[appt.ID] = appt
	return nil
}

func (m *MemoryAppointments) FindByID(_ context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return appt, nil
}

func (m *MemoryAppointments) UpdateTransition(_ context.Context, id string, fn model.TransitionFunc) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if err := fn(&appt); err != nil {
		return model.Appointment{}, err
	}
	appt.ID = id
	appt.UpdatedAt = m.now().UTC()
	m.items[id] = appt
	return appt, nil
}

func (m *MemoryAppointments) Delete(_ context.Context, id string, guard model.TransitionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if guard != nil {
		if err := guard(&appt); err != nil {
			return err
		}
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryAppointments) FindDueForReminder(_ context.Context, kind model.ReminderKind, from, to time.Time) ([]model.Appointment, error) {
	if _, err := reminderColumn(kind); err != nil {
		return nil, err
	}
	return m.filter(func(a model.Appointment) bool {
		return a.Status == model.StatusConfirmed &&
			!a.ReminderSent(kind) &&
			!a.ScheduledAt.Before(from) &&
			!a.ScheduledAt.After(to)
	}, true, 0), nil
}

func (m *MemoryAppointments) List(_ context.Context, f model.ListFilter) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		switch {
		case f.CustomerID != "" && a.CustomerID != f.CustomerID:
			return false
		case f.BusinessID != "" && a.BusinessID != f.BusinessID:
			return false
		case f.Status != "" && a.Status != f.Status:
			return false
		case !f.From.IsZero() && a.ScheduledAt.Before(f.From):
			return false
		case !f.Until.IsZero() && !a.ScheduledAt.Before(f.Until):
			return false
		}
		return true
	}, f.Ascending, clampLimit(f.Limit)), nil
}

func (m *MemoryAppointments) filter(keep func(model.Appointment) bool, ascending bool, limit int) []model.Appointment {
	m.mu.Lock()
	var out []model.Appointment
	for _, a := range m.items {
		if keep(a) {
			out = append(out, a)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MemoryPreferences is the in-process preference store.
type MemoryPreferences struct {
	mu    sync.Mutex
	items map[string]model.NotificationPreference
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{items: map[string]model.NotificationPreference{}}
}

func (m *MemoryPreferences) GetOrDefault(_ context.Context, userID string) (model.NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pref, ok := m.items[userID]
	if !ok {
		pref = model.DefaultPreference(userID)
		m.items[userID] = pref
	}
	return pref, nil
}

func (m *MemoryPreferences) Save(_ context.Context, pref model.NotificationPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[pref.UserID] = pref
	return nil
}
