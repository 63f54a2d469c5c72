package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/localbook/libs/db"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

const appointmentColumns = `id, customer_id, business_id, service_id, scheduled_at, status, notes,
	reminder_24h_sent, reminder_30m_sent, reminder_start_sent, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt model.Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, customer_id, business_id, service_id, scheduled_at, status, notes,
			 reminder_24h_sent, reminder_30m_sent, reminder_start_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, appt.ID, appt.CustomerID, appt.BusinessID, appt.ServiceID, appt.ScheduledAt, string(appt.Status), appt.Notes,
		appt.Reminder24hSent, appt.Reminder30mSent, appt.ReminderStartSent, appt.CreatedAt, appt.UpdatedAt)
	return err
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, err
}

// UpdateTransition locks the row, applies fn and writes the lifecycle fields back in one transaction.
func (r *AppointmentRepository) UpdateTransition(ctx context.Context, id string, fn model.TransitionFunc) (model.Appointment, error) {
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&appt); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2,
				scheduled_at = $3,
				notes = $4,
				reminder_24h_sent = $5,
				reminder_30m_sent = $6,
				reminder_start_sent = $7,
				updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`, id, string(appt.Status), appt.ScheduledAt, appt.Notes,
			appt.Reminder24hSent, appt.Reminder30mSent, appt.ReminderStartSent).Scan(&appt.UpdatedAt)
		if err != nil {
			return err
		}
		out = appt
		return nil
	})
	return out, err
}

// Delete removes the row once guard accepts the locked record.
func (r *AppointmentRepository) Delete(ctx context.Context, id string, guard model.TransitionFunc) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(&appt); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		return err
	})
}

// FindDueForReminder lists confirmed appointments in [from, to] whose kind flag is still unset.
func (r *AppointmentRepository) FindDueForReminder(ctx context.Context, kind model.ReminderKind, from, to time.Time) ([]model.Appointment, error) {
	column, err := reminderColumn(kind)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE status = $1
			AND %s = false
			AND scheduled_at >= $2
			AND scheduled_at <= $3
		ORDER BY scheduled_at ASC
	`, appointmentColumns, column), string(model.StatusConfirmed), from, to)
}

// List returns appointments matching f, ordered by scheduled time.
func (r *AppointmentRepository) List(ctx context.Context, f model.ListFilter) ([]model.Appointment, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.BusinessID != "" {
		add("business_id = $%d", f.BusinessID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("scheduled_at >= $%d", f.From)
	}
	if !f.Until.IsZero() {
		add("scheduled_at < $%d", f.Until)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(` ORDER BY scheduled_at %s LIMIT $%d`, order, len(args))
	return r.list(ctx, query, args...)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func lockAppointment(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	appt, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.CustomerID,
		&appt.BusinessID,
		&appt.ServiceID,
		&appt.ScheduledAt,
		&status,
		&appt.Notes,
		&appt.Reminder24hSent,
		&appt.Reminder30mSent,
		&appt.ReminderStartSent,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	return appt, nil
}
