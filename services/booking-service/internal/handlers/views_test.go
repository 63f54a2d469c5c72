package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func createAt(t *testing.T, h http.Handler, when string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/appointments", "cust-1",
		`{"business_id":"biz-1","service_id":"svc-1","scheduled_at":"`+when+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create at %s: expected 201, got %d: %s", when, rec.Code, rec.Body.String())
	}
	var resp appointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.AppointmentID
}

func listItems(t *testing.T, h http.Handler, path, actor string) []appointmentResponse {
	t.Helper()
	rec := do(t, h, http.MethodGet, path, actor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
	}
	var resp struct {
		Items []appointmentResponse `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp.Items
}

func TestAppointmentViews(t *testing.T) {
	h := newTestServer(t)
	later := createAt(t, h, "2025-01-09T15:00:00Z")
	tomorrow := createAt(t, h, "2025-01-10T10:00:00Z")

	upcoming := listItems(t, h, "/api/v1/appointments/upcoming", "cust-1")
	if len(upcoming) != 2 || upcoming[0].AppointmentID != later || upcoming[1].AppointmentID != tomorrow {
		t.Fatalf("upcoming should be soonest first: %+v", upcoming)
	}
	if past := listItems(t, h, "/api/v1/appointments/past", "cust-1"); len(past) != 0 {
		t.Fatalf("expected no past appointments, got %+v", past)
	}

	today := listItems(t, h, "/api/v1/appointments/today?business_id=biz-1", "owner-1")
	if len(today) != 1 || today[0].AppointmentID != later {
		t.Fatalf("today: %+v", today)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/appointments/today?business_id=biz-1", "cust-1", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer today: expected 403, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/appointments/today", "owner-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("today without business: expected 400, got %d", rec.Code)
	}
	if got := listItems(t, h, "/api/v1/appointments/upcoming?business_id=biz-1", "owner-1"); len(got) != 2 {
		t.Fatalf("business upcoming: %+v", got)
	}
}

func TestListByStatusFilter(t *testing.T) {
	h := newTestServer(t)
	keep := createAt(t, h, "2025-01-10T10:00:00Z")
	drop := createAt(t, h, "2025-01-10T11:00:00Z")
	if rec := do(t, h, http.MethodPost, "/api/v1/appointments/cancel", "cust-1", `{"appointment_id":"`+drop+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d", rec.Code)
	}

	canceled := listItems(t, h, "/api/v1/appointments?status=canceled", "cust-1")
	if len(canceled) != 1 || canceled[0].AppointmentID != drop {
		t.Fatalf("canceled filter: %+v", canceled)
	}
	confirmed := listItems(t, h, "/api/v1/appointments?status=CONFIRMED&business_id=biz-1", "owner-1")
	if len(confirmed) != 1 || confirmed[0].AppointmentID != keep {
		t.Fatalf("confirmed filter: %+v", confirmed)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/appointments?status=PENDING", "cust-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", rec.Code)
	}
}

func TestBookedSlotsEndpoint(t *testing.T) {
	h := newTestServer(t)
	createAt(t, h, "2025-01-10T10:00:00Z")
	canceled := createAt(t, h, "2025-01-10T14:30:00Z")
	createAt(t, h, "2025-01-10T09:15:00Z")
	do(t, h, http.MethodPost, "/api/v1/appointments/cancel", "cust-1", `{"appointment_id":"`+canceled+`"}`)

	rec := do(t, h, http.MethodGet, "/api/v1/appointments/booked-slots?business_id=biz-1&date=2025-01-10", "someone", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp bookedSlotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Slots) != 2 || resp.Slots[0] != "09:15" || resp.Slots[1] != "10:00" {
		t.Fatalf("expected [09:15 10:00], got %v", resp.Slots)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/appointments/booked-slots?business_id=biz-1&date=10-01-2025", "someone", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/appointments/booked-slots?business_id=nope&date=2025-01-10", "someone", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown business: expected 404, got %d", rec.Code)
	}
}
