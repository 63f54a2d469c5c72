package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/localbook/libs/db"
)

var ErrNotFound = errors.New("not found")

// Notification is one entry of a user's in-app inbox.
type Notification struct {
	ID            string
	UserID        string
	Type          string
	AppointmentID string
	Title         string
	Body          string
	Data          map[string]string
	Read          bool
	CreatedAt     time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert keeps the existing row when the id is already stored.
func (r *Repository) Insert(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, appointment_id, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.UserID, n.Type, n.AppointmentID, n.Title, n.Body, data, n.CreatedAt)
	return err
}

func (r *Repository) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, appointment_id, title, body, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2::boolean = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, unreadOnly, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n    Notification
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.AppointmentID, &n.Title, &n.Body, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&n)
	return n, err
}

func (r *Repository) MarkRead(ctx context.Context, userID, id string) error {
	var got string
	err := r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2
		RETURNING id
	`, id, userID).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 200:
		return 200
	}
	return limit
}
