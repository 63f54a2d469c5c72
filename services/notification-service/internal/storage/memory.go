package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory implements both the inbox and the token registry in process.
type Memory struct {
	mu            sync.Mutex
	notifications map[string]Notification
	tokens        map[string]PushToken
}

func NewMemory() *Memory {
	return &Memory{notifications: map[string]Notification{}, tokens: map[string]PushToken{}}
}

func (m *Memory) Insert(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[n.ID]; !ok {
		m.notifications[n.ID] = n
	}
	return nil
}

func (m *Memory) List(_ context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.notifications {
		if v.UserID == userID && !v.Read {
			n++
		}
	}
	return n, nil
}

func (m *Memory) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for id, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (m *Memory) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *Memory) Register(_ context.Context, t PushToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.UpdatedAt = time.Now().UTC()
	m.tokens[t.UserID] = t
	return nil
}

func (m *Memory) Get(_ context.Context, userID string) (PushToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[userID]
	if !ok {
		return PushToken{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) Unregister(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[userID]; ok && (token == "" || t.Token == token) {
		delete(m.tokens, userID)
	}
	return nil
}
