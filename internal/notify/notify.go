package notify

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// EventNewCheckResult is the type tag pushed after every successful ingestion.
const EventNewCheckResult = "new_check_result"

// Event describes a stored check result to observers.
type Event struct {
	Type      string `json:"type"`
	CheckType string `json:"check_type"`
	Hostname  string `json:"hostname"`
	Checker   string `json:"checker"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewEvent builds a new_check_result event stamped with at.
func NewEvent(checkType, hostname, checker, status string, at time.Time) Event {
	return Event{
		Type:      EventNewCheckResult,
		CheckType: checkType,
		Hostname:  hostname,
		Checker:   checker,
		Status:    status,
		Timestamp: at.Format(time.RFC3339Nano),
	}
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi fans an event out to every notifier and combines their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, ev))
	}
	return err
}

// Async delivers through Next on a background goroutine so slow outbound
// calls never hold up the caller. Failures are logged.
type Async struct {
	Next    Notifier
	Timeout time.Duration
	Log     *zap.Logger
}

func (a Async) Notify(_ context.Context, ev Event) error {
	if a.Next == nil {
		return nil
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Next.Notify(ctx, ev); err != nil && a.Log != nil {
			a.Log.Warn("notify_failed", zap.String("check_type", ev.CheckType),
				zap.String("hostname", ev.Hostname), zap.Error(err))
		}
	}()
	return nil
}
