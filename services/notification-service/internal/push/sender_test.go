package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExpoSenderRequestShape(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":{"status":"ok","id":"ticket-1"}}`))
	}))
	defer srv.Close()

	s := NewExpoSender(srv.URL, "secret", 10)
	err := s.Send(context.Background(), Message{
		To:    "ExponentPushToken[abc]",
		Title: "Appointment Tomorrow",
		Body:  "Your appointment at Fade Studio is tomorrow",
		Data:  map[string]string{"type": "24hr_reminder"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	want := map[string]any{
		"to":        "ExponentPushToken[abc]",
		"sound":     "default",
		"title":     "Appointment Tomorrow",
		"priority":  "high",
		"channelId": "default",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}
	data, _ := got["data"].(map[string]any)
	if data["type"] != "24hr_reminder" {
		t.Fatalf("unexpected data %v", got["data"])
	}
}

func TestExpoSenderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"non-2xx", http.StatusBadGateway, `{}`, func(err error) bool { return err != nil }},
		{"dead token", http.StatusOK, `{"data":{"status":"error","message":"gone","details":{"error":"DeviceNotRegistered"}}}`,
			func(err error) bool { return errors.Is(err, ErrDeviceNotRegistered) }},
		{"rejected", http.StatusOK, `{"data":{"status":"error","message":"too big","details":{"error":"MessageTooBig"}}}`,
			func(err error) bool { return err != nil && !errors.Is(err, ErrDeviceNotRegistered) }},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		err := NewExpoSender(srv.URL, "", 10).Send(context.Background(), Message{To: "t"})
		srv.Close()
		if !tc.check(err) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
