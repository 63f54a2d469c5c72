package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/localbook/libs/httpx"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/preferences"
)

type PreferenceService interface {
	Resolve(ctx context.Context, userID string) (model.NotificationPreference, error)
	Update(ctx context.Context, userID string, patch preferences.Patch) (model.NotificationPreference, error)
}

type PreferenceHandler struct {
	prefs  PreferenceService
	logger *slog.Logger
}

func NewPreferenceHandler(prefs PreferenceService, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, logger: logger}
}

func (h *PreferenceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/notification-settings", httpx.RequireActor(h.Settings))
}

type preferenceResponse struct {
	UserID                          string `json:"user_id"`
	Enable24hrReminder              bool   `json:"enable_24hr_reminder"`
	Enable30minReminder             bool   `json:"enable_30min_reminder"`
	EnableStartReminder             bool   `json:"enable_start_reminder"`
	EnableBookingNotifications      bool   `json:"enable_booking_notifications"`
	EnableCancellationNotifications bool   `json:"enable_cancellation_notifications"`
	EnableRescheduleNotifications   bool   `json:"enable_reschedule_notifications"`
}

func toPreferenceResponse(p model.NotificationPreference) preferenceResponse {
	return preferenceResponse{
		UserID:                          p.UserID,
		Enable24hrReminder:              p.Reminder24h,
		Enable30minReminder:             p.Reminder30m,
		EnableStartReminder:             p.ReminderStart,
		EnableBookingNotifications:      p.BookingNotifications,
		EnableCancellationNotifications: p.CancellationNotifications,
		EnableRescheduleNotifications:   p.RescheduleNotifications,
	}
}

// Settings returns (GET) or partially updates (PUT) the actor's notification preferences.
func (h *PreferenceHandler) Settings(w http.ResponseWriter, r *http.Request) {
	actor := httpx.ActorFromContext(r.Context())
	var (
		pref model.NotificationPreference
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		pref, err = h.prefs.Resolve(r.Context(), actor)
	case http.MethodPut, http.MethodPatch:
		var patch preferences.Patch
		if decodeErr := httpx.DecodeJSON(r, &patch); decodeErr != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		pref, err = h.prefs.Update(r.Context(), actor, patch)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		h.logger.Error("notification settings failed", "user_id", actor, "err", err)
		http.Error(w, "failed to load notification settings", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPreferenceResponse(pref))
}
