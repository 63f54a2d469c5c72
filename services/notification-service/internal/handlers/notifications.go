package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/httpx"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/storage"
)

type Inbox interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]storage.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
}

type Tokens interface {
	Register(ctx context.Context, t storage.PushToken) error
	Get(ctx context.Context, userID string) (storage.PushToken, error)
	Unregister(ctx context.Context, userID, token string) error
}

type NotificationHandler struct {
	inbox  Inbox
	tokens Tokens
	sender push.Sender
	logger *slog.Logger
}

func NewNotificationHandler(inbox Inbox, tokens Tokens, sender push.Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, tokens: tokens, sender: sender, logger: logger}
}

func (h *NotificationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/notifications", httpx.RequireActor(h.List))
	mux.HandleFunc("/api/v1/notifications/unread-count", httpx.RequireActor(h.UnreadCount))
	mux.HandleFunc("/api/v1/notifications/read", httpx.RequireActor(h.MarkRead))
	mux.HandleFunc("/api/v1/notifications/read-all", httpx.RequireActor(h.MarkAllRead))
	mux.HandleFunc("/api/v1/notifications/delete", httpx.RequireActor(h.Delete))
	mux.HandleFunc("/api/v1/push-tokens", httpx.RequireActor(h.PushToken))
	mux.HandleFunc("/api/v1/push-tokens/test", httpx.RequireActor(h.SendTest))
}

type notificationItem struct {
	NotificationID string            `json:"notification_id"`
	Type           string            `json:"type,omitempty"`
	AppointmentID  string            `json:"appointment_id,omitempty"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
	Read           bool              `json:"read"`
	CreatedAt      string            `json:"created_at"`
}

type notificationIDRequest struct {
	NotificationID string `json:"notification_id"`
}

type pushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type testPushRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	unreadOnly := q.Get("unread") == "true"

	items, err := h.inbox.List(r.Context(), httpx.ActorFromContext(r.Context()), unreadOnly, limit)
	if err != nil {
		h.logger.Error("list notifications failed", "err", err)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	out := make([]notificationItem, 0, len(items))
	for _, n := range items {
		out = append(out, notificationItem{
			NotificationID: n.ID,
			Type:           n.Type,
			AppointmentID:  n.AppointmentID,
			Title:          n.Title,
			Body:           n.Body,
			Data:           n.Data,
			Read:           n.Read,
			CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := h.inbox.UnreadCount(r.Context(), httpx.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("unread count failed", "err", err)
		http.Error(w, "failed to count notifications", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "mark read", h.inbox.MarkRead)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "delete", h.inbox.Delete)
}

func (h *NotificationHandler) byID(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, userID, id string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req notificationIDRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.NotificationID)
	if id == "" {
		http.Error(w, "notification_id required", http.StatusBadRequest)
		return
	}
	if err := fn(r.Context(), httpx.ActorFromContext(r.Context()), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("notification "+op+" failed", "err", err)
		http.Error(w, "failed to update notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := h.inbox.MarkAllRead(r.Context(), httpx.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("mark all read failed", "err", err)
		http.Error(w, "failed to update notifications", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// PushToken registers (POST) or removes (DELETE) the actor's device token.
func (h *NotificationHandler) PushToken(w http.ResponseWriter, r *http.Request) {
	actor := httpx.ActorFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req pushTokenRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Token = strings.TrimSpace(req.Token)
		if req.Token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		err := h.tokens.Register(r.Context(), storage.PushToken{
			UserID:   actor,
			Token:    req.Token,
			Platform: strings.ToLower(strings.TrimSpace(req.Platform)),
		})
		if err != nil {
			h.logger.Error("register push token failed", "err", err)
			http.Error(w, "failed to register push token", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.tokens.Unregister(r.Context(), actor, ""); err != nil {
			h.logger.Error("unregister push token failed", "err", err)
			http.Error(w, "failed to unregister push token", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// SendTest pushes a test message to the actor's registered device. The body is
// optional; title and body fall back to a stock test message.
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req testPushRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = "Test Notification"
	}
	if strings.TrimSpace(req.Body) == "" {
		req.Body = "This is a test notification from LocalBook!"
	}

	actor := httpx.ActorFromContext(r.Context())
	token, err := h.tokens.Get(r.Context(), actor)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "no push token registered", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("push token lookup failed", "user_id", actor, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	err = h.sender.Send(r.Context(), push.Message{
		To:    token.Token,
		Title: req.Title,
		Body:  req.Body,
		Data: map[string]string{
			"type":      "test",
			"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
		},
	})
	switch {
	case errors.Is(err, push.ErrDeviceNotRegistered):
		if err := h.tokens.Unregister(r.Context(), actor, token.Token); err != nil {
			h.logger.Error("remove dead push token failed", "user_id", actor, "err", err)
		}
		http.Error(w, "push token no longer registered", http.StatusGone)
	case err != nil:
		h.logger.Error("test push failed", "user_id", actor, "err", err)
		http.Error(w, "push provider error", http.StatusBadGateway)
	default:
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}
