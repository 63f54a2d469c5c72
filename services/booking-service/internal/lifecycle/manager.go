// Package lifecycle enforces the appointment state machine and who may drive it.
//
// CONFIRMED is the initial state and the state restored by a reschedule.
// CANCELED and COMPLETED are terminal. Every transition runs inside the
// store's per-record atomic unit; notifications go out only after it commits.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/storage"
)

type Store interface {
	Insert(ctx context.Context, appt model.Appointment) error
	FindByID(ctx context.Context, id string) (model.Appointment, error)
	UpdateTransition(ctx context.Context, id string, fn model.TransitionFunc) (model.Appointment, error)
	Delete(ctx context.Context, id string, guard model.TransitionFunc) error
	List(ctx context.Context, f model.ListFilter) ([]model.Appointment, error)
}

type Config struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location renders times in message bodies and fixes the calendar day for
	// day-based views. Defaults to UTC.
	Location *time.Location
}

type Manager struct {
	store    Store
	dir      directory.Directory
	notifier *dispatch.Notifier
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

func NewManager(store Store, dir directory.Directory, notifier *dispatch.Notifier, logger *slog.Logger, cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Manager{
		store:    store,
		dir:      dir,
		notifier: notifier,
		logger:   logger,
		now:      cfg.Now,
		loc:      cfg.Location,
	}
}

type CreateRequest struct {
	CustomerID  string
	BusinessID  string
	ServiceID   string
	ScheduledAt time.Time
	Notes       string
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (appt model.Appointment, err error) {
	defer func() { metrics.LifecycleTransitions.WithLabelValues("create", outcome(err)).Inc() }()

	customer, err := m.dir.ResolveCustomer(ctx, strings.TrimSpace(req.CustomerID))
	if err != nil {
		return model.Appointment{}, resolveErr(err)
	}
	biz, err := m.dir.ResolveBusiness(ctx, strings.TrimSpace(req.BusinessID))
	if err != nil {
		return model.Appointment{}, resolveErr(err)
	}
	svc, err := m.dir.ResolveService(ctx, strings.TrimSpace(req.ServiceID))
	if err != nil {
		return model.Appointment{}, resolveErr(err)
	}
	if svc.BusinessID != "" && svc.BusinessID != biz.ID {
		return model.Appointment{}, fmt.Errorf("%w: service %s is not offered by business %s", ErrNotFound, svc.ID, biz.ID)
	}

	now := m.now().UTC()
	if !req.ScheduledAt.After(now) {
		return model.Appointment{}, fmt.Errorf("%w: appointment time must be in the future", ErrInvalidState)
	}

	appt = model.Appointment{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		BusinessID:  biz.ID,
		ServiceID:   svc.ID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      model.StatusConfirmed,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Insert(ctx, appt); err != nil {
		return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}

	p := parties{
		appt:         appt,
		ownerID:      biz.OwnerID,
		businessName: biz.Name,
		customerName: customer.DisplayName,
		serviceName:  svc.Name,
	}
	when := dispatch.FormatWhen(appt.ScheduledAt, m.loc)
	m.notifier.Notify(ctx, model.CategoryBooking, newBookingPush(p, when))
	m.notifier.Notify(ctx, model.CategoryBooking, bookingConfirmedPush(p, when))

	m.logger.Info("appointment created", "appointment_id", appt.ID, "business_id", appt.BusinessID, "scheduled_at", appt.ScheduledAt)
	return appt, nil
}

func (m *Manager) Cancel(ctx context.Context, appointmentID, actorID string) (appt model.Appointment, err error) {
	defer func() { metrics.LifecycleTransitions.WithLabelValues("cancel", outcome(err)).Inc() }()

	biz, err := m.businessOf(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	appt, err = m.transition(ctx, appointmentID, func(a *model.Appointment) error {
		role := ClassifyActor(actorID, *a, biz.OwnerID)
		if !role.Has(RoleCustomer | RoleOwner) {
			return fmt.Errorf("%w: only the customer or the business owner can cancel", ErrUnauthorized)
		}
		if a.Status.Terminal() {
			return fmt.Errorf("%w: appointment is already %s", ErrInvalidState, a.Status)
		}
		a.Status = model.StatusCanceled
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	customer, owner := cancelledPushes(m.parties(ctx, appt, biz))
	m.notifier.Notify(ctx, model.CategoryCancellation, customer)
	m.notifier.Notify(ctx, model.CategoryCancellation, owner)

	m.logger.Info("appointment cancelled", "appointment_id", appt.ID, "actor_id", actorID)
	return appt, nil
}

func (m *Manager) Complete(ctx context.Context, appointmentID, actorID string) (appt model.Appointment, err error) {
	defer func() { metrics.LifecycleTransitions.WithLabelValues("complete", outcome(err)).Inc() }()

	biz, err := m.businessOf(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	now := m.now()
	appt, err = m.transition(ctx, appointmentID, func(a *model.Appointment) error {
		if !ClassifyActor(actorID, *a, biz.OwnerID).Has(RoleOwner) {
			return fmt.Errorf("%w: only the business owner can complete", ErrUnauthorized)
		}
		if a.Status.Terminal() {
			return fmt.Errorf("%w: appointment is already %s", ErrInvalidState, a.Status)
		}
		if a.ScheduledAt.After(now) {
			return fmt.Errorf("%w: appointment has not happened yet", ErrInvalidState)
		}
		a.Status = model.StatusCompleted
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	m.logger.Info("appointment completed", "appointment_id", appt.ID, "actor_id", actorID)
	return appt, nil
}

func (m *Manager) Reschedule(ctx context.Context, appointmentID, actorID string, newWhen time.Time) (appt model.Appointment, err error) {
	defer func() { metrics.LifecycleTransitions.WithLabelValues("reschedule", outcome(err)).Inc() }()

	biz, err := m.businessOf(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	now := m.now()
	var previous time.Time
	appt, err = m.transition(ctx, appointmentID, func(a *model.Appointment) error {
		if !ClassifyActor(actorID, *a, biz.OwnerID).Has(RoleCustomer) {
			return fmt.Errorf("%w: only the customer can reschedule", ErrUnauthorized)
		}
		if a.Status.Terminal() {
			return fmt.Errorf("%w: appointment is already %s", ErrInvalidState, a.Status)
		}
		if !newWhen.After(now) {
			return fmt.Errorf("%w: new time must be in the future", ErrInvalidState)
		}
		previous = a.ScheduledAt
		a.ScheduledAt = newWhen.UTC()
		a.Status = model.StatusConfirmed
		a.ResetReminders()
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	customer, owner := rescheduledPushes(m.parties(ctx, appt, biz),
		dispatch.FormatWhen(previous, m.loc), dispatch.FormatWhen(appt.ScheduledAt, m.loc))
	m.notifier.Notify(ctx, model.CategoryReschedule, customer)
	m.notifier.Notify(ctx, model.CategoryReschedule, owner)

	m.logger.Info("appointment rescheduled", "appointment_id", appt.ID, "from", previous, "to", appt.ScheduledAt)
	return appt, nil
}

func (m *Manager) Delete(ctx context.Context, appointmentID, actorID string) (err error) {
	defer func() { metrics.LifecycleTransitions.WithLabelValues("delete", outcome(err)).Inc() }()

	biz, err := m.businessOf(ctx, appointmentID)
	if err != nil {
		return err
	}
	err = m.store.Delete(ctx, appointmentID, func(a *model.Appointment) error {
		if !ClassifyActor(actorID, *a, biz.OwnerID).Has(RoleCustomer | RoleOwner) {
			return fmt.Errorf("%w: only the customer or the business owner can delete", ErrUnauthorized)
		}
		return nil
	})
	if err != nil {
		return storeErr(err, appointmentID)
	}
	m.logger.Info("appointment deleted", "appointment_id", appointmentID, "actor_id", actorID)
	return nil
}

// Get returns the appointment when actorID is its customer or business owner.
func (m *Manager) Get(ctx context.Context, appointmentID, actorID string) (model.Appointment, error) {
	appt, err := m.store.FindByID(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, storeErr(err, appointmentID)
	}
	biz, err := m.business(ctx, appt.BusinessID)
	if err != nil {
		return model.Appointment{}, err
	}
	if ClassifyActor(actorID, appt, biz.OwnerID) == RoleNone {
		return model.Appointment{}, fmt.Errorf("%w: not a party to this appointment", ErrUnauthorized)
	}
	return appt, nil
}

func (m *Manager) transition(ctx context.Context, id string, fn model.TransitionFunc) (model.Appointment, error) {
	appt, err := m.store.UpdateTransition(ctx, id, fn)
	if err != nil {
		return model.Appointment{}, storeErr(err, id)
	}
	return appt, nil
}

// businessOf loads the business that owns an appointment. The business id of an
// appointment never changes, so the owner resolved here is valid inside the transition.
func (m *Manager) businessOf(ctx context.Context, appointmentID string) (directory.Business, error) {
	appt, err := m.store.FindByID(ctx, appointmentID)
	if err != nil {
		return directory.Business{}, storeErr(err, appointmentID)
	}
	return m.business(ctx, appt.BusinessID)
}

// business tolerates a business missing from the directory: its appointments stay
// reachable by their customer, and nobody holds the owner role.
func (m *Manager) business(ctx context.Context, businessID string) (directory.Business, error) {
	biz, err := m.dir.ResolveBusiness(ctx, businessID)
	if errors.Is(err, directory.ErrNotFound) {
		m.logger.Warn("appointment business missing from directory", "business_id", businessID)
		return directory.Business{ID: businessID}, nil
	}
	if err != nil {
		return directory.Business{}, fmt.Errorf("resolve business: %w", err)
	}
	return biz, nil
}

// parties fills in display names for notification bodies. Lookups here happen
// after the transition committed, so failures fall back to generic wording.
func (m *Manager) parties(ctx context.Context, appt model.Appointment, biz directory.Business) parties {
	p := parties{
		appt:         appt,
		ownerID:      biz.OwnerID,
		businessName: biz.Name,
		customerName: "A customer",
		serviceName:  "your appointment",
	}
	if p.businessName == "" {
		p.businessName = "the business"
	}
	if c, err := m.dir.ResolveCustomer(ctx, appt.CustomerID); err == nil && c.DisplayName != "" {
		p.customerName = c.DisplayName
	} else if err != nil {
		m.logger.Warn("customer lookup failed for notification", "appointment_id", appt.ID, "err", err)
	}
	if s, err := m.dir.ResolveService(ctx, appt.ServiceID); err == nil && s.Name != "" {
		p.serviceName = s.Name
	} else if err != nil {
		m.logger.Warn("service lookup failed for notification", "appointment_id", appt.ID, "err", err)
	}
	return p
}

func resolveErr(err error) error {
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("directory lookup: %w", err)
}

func storeErr(err error, id string) error {
	if storage.IsNotFound(err) {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return err
}
