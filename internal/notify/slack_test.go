package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, nil)
	if s == nil {
		t.Fatal("expected slack client")
	}
	err := s.Send(context.Background(), "Title", "Hello")
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got == "" || got[0] != '*' { // starts with "*Title*"
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, nil)
	err := s.Send(context.Background(), "X", "Y")
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_NotifyFiltersStatuses(t *testing.T) {
	var calls int
	var text string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		text = payload["text"]
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, []string{"error", " Warning "})
	at := time.Date(2026, 1, 9, 1, 58, 51, 0, time.UTC)

	if err := s.Notify(context.Background(), NewEvent("os", "h1", "alice", "success", at)); err != nil {
		t.Fatalf("notify success: %v", err)
	}
	if calls != 0 {
		t.Fatalf("success status must not alert")
	}
	if err := s.Notify(context.Background(), NewEvent("mariadb", "db1", "bob", "WARNING", at)); err != nil {
		t.Fatalf("notify warning: %v", err)
	}
	if calls != 1 || !strings.Contains(text, "MARIADB check WARNING on db1") {
		t.Fatalf("calls=%d text=%q", calls, text)
	}
}

func TestNewSlack_EmptyWebhookDisabled(t *testing.T) {
	if NewSlack("", []string{"error"}) != nil {
		t.Fatalf("expected nil notifier without webhook")
	}
	var s *Slack
	if err := s.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("nil slack must be a no-op: %v", err)
	}
}
