// Package ingest validates incoming check reports, stores them and tells
// observers about them.
package ingest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/notify"
	"github.com/hamed0406/checkhub/internal/repo"
)

// requiredStrings are the top-level text fields every report carries.
var requiredStrings = []string{"check_type", "hostname", "check_time", "checker", "status"}

type Service struct {
	Store    repo.RecordStore
	Notifier notify.Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func New(store repo.RecordStore, n notify.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Store: store, Notifier: n, Log: log, Now: time.Now}
}

// Validate turns a decoded JSON body into a record, or a *domain.ValidationError.
func Validate(payload map[string]any) (*domain.CheckRecord, error) {
	if payload == nil {
		return nil, &domain.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	vals := make(map[string]string, len(requiredStrings))
	for _, f := range requiredStrings {
		raw, ok := payload[f]
		if !ok || raw == nil {
			return nil, &domain.ValidationError{Field: f, Reason: "field required"}
		}
		s, ok := raw.(string)
		if !ok {
			return nil, &domain.ValidationError{Field: f, Reason: "must be a string"}
		}
		vals[f] = s
	}
	for _, f := range []string{"check_type", "hostname"} {
		if strings.TrimSpace(vals[f]) == "" {
			return nil, &domain.ValidationError{Field: f, Reason: "must not be blank"}
		}
	}
	raw, ok := payload["results"]
	if !ok || raw == nil {
		return nil, &domain.ValidationError{Field: "results", Reason: "field required"}
	}
	results, ok := raw.(map[string]any)
	if !ok {
		return nil, &domain.ValidationError{Field: "results", Reason: "must be an object"}
	}
	return &domain.CheckRecord{
		CheckType: vals["check_type"],
		Hostname:  vals["hostname"],
		CheckTime: vals["check_time"],
		Checker:   vals["checker"],
		Status:    vals["status"],
		Results:   results,
	}, nil
}

// Ingest validates payload and stores it. Observers are told after the write;
// their failures are logged and never fail the call.
func (s *Service) Ingest(ctx context.Context, payload map[string]any) (*domain.CheckRecord, error) {
	rec, err := Validate(payload)
	if err != nil {
		return nil, err
	}
	if _, err := s.Store.Save(ctx, rec); err != nil {
		s.Log.Error("check_save_failed", zap.String("check_type", rec.CheckType),
			zap.String("hostname", rec.Hostname), zap.Error(err))
		return nil, err
	}
	s.Log.Info("check_ingested", zap.Int64("id", rec.ID), zap.String("check_type", rec.CheckType),
		zap.String("hostname", rec.Hostname), zap.String("status", rec.Status))

	s.publish(ctx, rec)
	return rec, nil
}

func (s *Service) publish(ctx context.Context, rec *domain.CheckRecord) {
	if s.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("notify_panic", zap.Any("panic", r))
		}
	}()
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ev := notify.NewEvent(rec.CheckType, rec.Hostname, rec.Checker, rec.Status, now())
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		s.Log.Warn("notify_failed", zap.Int64("id", rec.ID), zap.Error(err))
	}
}
