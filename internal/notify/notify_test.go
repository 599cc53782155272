package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	done   chan struct{}
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if r.done != nil {
		close(r.done)
	}
	return r.err
}

func TestMulti_CombinesErrors(t *testing.T) {
	a := &recorder{err: errors.New("a down")}
	b := &recorder{}
	c := &recorder{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Notify(context.Background(), Event{Type: EventNewCheckResult})
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("want 2 combined errors, got %d (%v)", got, err)
	}
	if len(b.events) != 1 {
		t.Fatalf("healthy notifier must still receive the event")
	}
}

func TestAsync_DeliversInBackground(t *testing.T) {
	r := &recorder{err: errors.New("boom"), done: make(chan struct{})}
	a := Async{Next: r, Timeout: time.Second, Log: zap.NewNop()}
	if err := a.Notify(context.Background(), Event{Hostname: "h1"}); err != nil {
		t.Fatalf("async must not report delivery errors: %v", err)
	}
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestNewEvent_JSONShape(t *testing.T) {
	ev := NewEvent("os", "h1", "alice", "success", time.Date(2026, 1, 9, 1, 58, 51, 0, time.UTC))
	b, _ := json.Marshal(ev)
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for k, want := range map[string]string{
		"type": "new_check_result", "check_type": "os", "hostname": "h1",
		"checker": "alice", "status": "success", "timestamp": "2026-01-09T01:58:51Z",
	} {
		if m[k] != want {
			t.Fatalf("%s = %q, want %q", k, m[k], want)
		}
	}
}
