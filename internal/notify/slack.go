package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Slack struct {
	Webhook string
	Client  *http.Client
	// Statuses limits alerts to these check statuses; empty means all.
	Statuses map[string]bool
}

func NewSlack(webhook string, statuses []string) *Slack {
	if webhook == "" {
		return nil
	}
	s := &Slack{
		Webhook:  webhook,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Statuses: map[string]bool{},
	}
	for _, st := range statuses {
		if st = strings.ToLower(strings.TrimSpace(st)); st != "" {
			s.Statuses[st] = true
		}
	}
	return s
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify alerts on check results whose status is in Statuses.
func (s *Slack) Notify(ctx context.Context, ev Event) error {
	if s == nil {
		return nil
	}
	if len(s.Statuses) > 0 && !s.Statuses[strings.ToLower(ev.Status)] {
		return nil
	}
	title := fmt.Sprintf("%s check %s on %s", strings.ToUpper(ev.CheckType), strings.ToUpper(ev.Status), ev.Hostname)
	text := fmt.Sprintf("checker: %s\nat: %s", ev.Checker, ev.Timestamp)
	return s.Send(ctx, title, text)
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	body, _ := json.Marshal(slackPayload{Text: "*" + title + "*\n" + text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack non-2xx: %d", resp.StatusCode)
	}
	return nil
}
