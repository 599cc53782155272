// Package client talks to a running checkhub API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/checkhub/internal/domain"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx reply; Detail carries the server's message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string { return fmt.Sprintf("api %d: %s", e.Status, e.Detail) }

type Saved struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        int64  `json:"id"`
	CheckType string `json:"check_type"`
	Hostname  string `json:"hostname"`
	CheckTime string `json:"check_time"`
}

// Submit posts one check report.
func (c *Client) Submit(ctx context.Context, payload map[string]any) (*Saved, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out Saved
	if err := c.do(ctx, http.MethodPost, "/api/checks", bytes.NewReader(b), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Query struct {
	domain.Filter
	ID    int64
	Limit int
}

func (q Query) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("check_type", q.CheckType)
	set("hostname", q.Hostname)
	set("checker", q.Checker)
	if q.ID > 0 {
		v.Set("id", strconv.FormatInt(q.ID, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// List fetches stored records, newest first.
func (c *Client) List(ctx context.Context, q Query) ([]*domain.CheckRecord, error) {
	var out struct {
		Results []*domain.CheckRecord `json:"results"`
	}
	path := "/api/checks"
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Health returns the server's health timestamp.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return "", err
	}
	if out.Status != "healthy" {
		return "", fmt.Errorf("server reports %q", out.Status)
	}
	return out.Timestamp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Detail == "" {
			e.Detail = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
