package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/httpx"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/model"
)

// Upcoming lists appointments from now on: the actor's own, or a business's
// when business_id is given and the actor owns it.
func (h *AppointmentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	actor := httpx.ActorFromContext(r.Context())
	var (
		items []model.Appointment
		err   error
	)
	if businessID := strings.TrimSpace(r.URL.Query().Get("business_id")); businessID != "" {
		items, err = h.lc.UpcomingForBusiness(r.Context(), businessID, actor, limit)
	} else {
		items, err = h.lc.UpcomingForCustomer(r.Context(), actor, limit)
	}
	if err != nil {
		h.writeError(w, "upcoming", err)
		return
	}
	writeItems(w, items)
}

func (h *AppointmentHandler) Past(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, err := h.lc.PastForCustomer(r.Context(), httpx.ActorFromContext(r.Context()), limit)
	if err != nil {
		h.writeError(w, "past", err)
		return
	}
	writeItems(w, items)
}

func (h *AppointmentHandler) Today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}
	items, err := h.lc.TodayForBusiness(r.Context(), businessID, httpx.ActorFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "today", err)
		return
	}
	writeItems(w, items)
}

type bookedSlotsResponse struct {
	BusinessID string   `json:"business_id"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
}

func (h *AppointmentHandler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" || date == "" {
		http.Error(w, "business_id and date required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(lifecycle.DateLayout, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	slots, err := h.lc.BookedSlots(r.Context(), businessID, date)
	if err != nil {
		h.writeError(w, "booked_slots", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bookedSlotsResponse{BusinessID: businessID, Date: date, Slots: slots})
}
