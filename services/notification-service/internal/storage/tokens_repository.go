package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/localbook/libs/db"
)

// PushToken is the device token a user's notifications are delivered to.
// A user has at most one; registering again replaces it.
type PushToken struct {
	UserID    string
	Token     string
	Platform  string
	UpdatedAt time.Time
}

type TokenRepository struct {
	pool *db.Pool
}

func NewTokenRepository(pool *db.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Register(ctx context.Context, t PushToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO push_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, platform = EXCLUDED.platform, updated_at = now()
	`, t.UserID, t.Token, t.Platform)
	return err
}

func (r *TokenRepository) Get(ctx context.Context, userID string) (PushToken, error) {
	var t PushToken
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, token, platform, updated_at FROM push_tokens WHERE user_id = $1
	`, userID).Scan(&t.UserID, &t.Token, &t.Platform, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PushToken{}, ErrNotFound
	}
	return t, err
}

// Unregister removes the user's token. Passing a token only removes it if it
// is still the registered one.
func (r *TokenRepository) Unregister(ctx context.Context, userID, token string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM push_tokens WHERE user_id = $1 AND ($2::text = '' OR token = $2)
	`, userID, token)
	return err
}
