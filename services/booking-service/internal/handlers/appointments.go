package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/httpx"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// Lifecycle is the appointment surface the HTTP API drives.
type Lifecycle interface {
	Create(ctx context.Context, req lifecycle.CreateRequest) (model.Appointment, error)
	Cancel(ctx context.Context, appointmentID, actorID string) (model.Appointment, error)
	Complete(ctx context.Context, appointmentID, actorID string) (model.Appointment, error)
	Reschedule(ctx context.Context, appointmentID, actorID string, newWhen time.Time) (model.Appointment, error)
	Delete(ctx context.Context, appointmentID, actorID string) error
	Get(ctx context.Context, appointmentID, actorID string) (model.Appointment, error)
	ListForCustomer(ctx context.Context, actorID string, status model.Status, limit int) ([]model.Appointment, error)
	ListForBusiness(ctx context.Context, businessID, actorID string, status model.Status, limit int) ([]model.Appointment, error)
	UpcomingForCustomer(ctx context.Context, actorID string, limit int) ([]model.Appointment, error)
	PastForCustomer(ctx context.Context, actorID string, limit int) ([]model.Appointment, error)
	UpcomingForBusiness(ctx context.Context, businessID, actorID string, limit int) ([]model.Appointment, error)
	TodayForBusiness(ctx context.Context, businessID, actorID string) ([]model.Appointment, error)
	BookedSlots(ctx context.Context, businessID, date string) ([]string, error)
}

type AppointmentHandler struct {
	lc     Lifecycle
	logger *slog.Logger
}

func NewAppointmentHandler(lc Lifecycle, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{lc: lc, logger: logger}
}

func (h *AppointmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/appointments", httpx.RequireActor(h.Collection))
	mux.HandleFunc("/api/v1/appointments/get", httpx.RequireActor(h.Get))
	mux.HandleFunc("/api/v1/appointments/cancel", httpx.RequireActor(h.Cancel))
	mux.HandleFunc("/api/v1/appointments/complete", httpx.RequireActor(h.Complete))
	mux.HandleFunc("/api/v1/appointments/reschedule", httpx.RequireActor(h.Reschedule))
	mux.HandleFunc("/api/v1/appointments/delete", httpx.RequireActor(h.Delete))
	mux.HandleFunc("/api/v1/appointments/upcoming", httpx.RequireActor(h.Upcoming))
	mux.HandleFunc("/api/v1/appointments/past", httpx.RequireActor(h.Past))
	mux.HandleFunc("/api/v1/appointments/today", httpx.RequireActor(h.Today))
	mux.HandleFunc("/api/v1/appointments/booked-slots", httpx.RequireActor(h.BookedSlots))
}

type createAppointmentRequest struct {
	BusinessID  string `json:"business_id"`
	ServiceID   string `json:"service_id"`
	ScheduledAt string `json:"scheduled_at"`
	Notes       string `json:"notes"`
}

type appointmentActionRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	ScheduledAt   string `json:"scheduled_at"`
}

type appointmentResponse struct {
	AppointmentID     string `json:"appointment_id"`
	CustomerID        string `json:"customer_id"`
	BusinessID        string `json:"business_id"`
	ServiceID         string `json:"service_id"`
	ScheduledAt       string `json:"scheduled_at"`
	Status            string `json:"status"`
	Notes             string `json:"notes,omitempty"`
	Reminder24hSent   bool   `json:"reminder_24h_sent"`
	Reminder30mSent   bool   `json:"reminder_30m_sent"`
	ReminderStartSent bool   `json:"reminder_start_sent"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		AppointmentID:     a.ID,
		CustomerID:        a.CustomerID,
		BusinessID:        a.BusinessID,
		ServiceID:         a.ServiceID,
		ScheduledAt:       a.ScheduledAt.UTC().Format(time.RFC3339),
		Status:            string(a.Status),
		Notes:             a.Notes,
		Reminder24hSent:   a.Reminder24hSent,
		Reminder30mSent:   a.Reminder30mSent,
		ReminderStartSent: a.ReminderStartSent,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Collection serves GET (list) and POST (create) on the appointments resource.
func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.BusinessID == "" || req.ServiceID == "" || req.ScheduledAt == "" {
		http.Error(w, "business_id, service_id and scheduled_at required", http.StatusBadRequest)
		return
	}
	when, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		http.Error(w, "invalid scheduled_at", http.StatusBadRequest)
		return
	}

	appt, err := h.lc.Create(r.Context(), lifecycle.CreateRequest{
		CustomerID:  httpx.ActorFromContext(r.Context()),
		BusinessID:  req.BusinessID,
		ServiceID:   req.ServiceID,
		ScheduledAt: when,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.writeError(w, "create", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResponse(appt))
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	status := model.Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	actor := httpx.ActorFromContext(r.Context())
	var (
		items []model.Appointment
		err   error
	)
	if businessID := strings.TrimSpace(r.URL.Query().Get("business_id")); businessID != "" {
		items, err = h.lc.ListForBusiness(r.Context(), businessID, actor, status, limit)
	} else {
		items, err = h.lc.ListForCustomer(r.Context(), actor, status, limit)
	}
	if err != nil {
		h.writeError(w, "list", err)
		return
	}
	writeItems(w, items)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeItems(w http.ResponseWriter, items []model.Appointment) {
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	appt, err := h.lc.Get(r.Context(), id, httpx.ActorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "get", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "cancel", h.lc.Cancel)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "complete", h.lc.Complete)
}

func (h *AppointmentHandler) action(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id, actor string) (model.Appointment, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	appt, err := fn(r.Context(), id, httpx.ActorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" || req.ScheduledAt == "" {
		http.Error(w, "appointment_id and scheduled_at required", http.StatusBadRequest)
		return
	}
	when, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		http.Error(w, "invalid scheduled_at", http.StatusBadRequest)
		return
	}
	appt, err := h.lc.Reschedule(r.Context(), req.AppointmentID, httpx.ActorFromContext(r.Context()), when)
	if err != nil {
		h.writeError(w, "reschedule", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(appt))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	if err := h.lc.Delete(r.Context(), id, httpx.ActorFromContext(r.Context())); err != nil {
		h.writeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAppointmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req appointmentActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return "", false
	}
	id := strings.TrimSpace(req.AppointmentID)
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, lifecycle.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("appointment operation failed", "operation", op, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
