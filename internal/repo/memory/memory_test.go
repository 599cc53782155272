package memory

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hamed0406/checkhub/internal/domain"
)

func sample(checkType, host string) *domain.CheckRecord {
	return &domain.CheckRecord{
		CheckType: checkType,
		Hostname:  host,
		CheckTime: "2026-01-09T01:58:51Z",
		Checker:   "alice",
		Status:    "success",
		Results: map[string]any{
			"disk":  map[string]any{"all": "Filesystem Size Use% \n/dev/sda1 10G 95% /"},
			"count": json.Number("12"),
		},
	}
}

func TestMemoryStore_SaveAndQueryByID(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := sample(domain.TypeOS, "h1")
	id, err := s.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == 0 || in.ID != id || in.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at assigned, got id=%d rec=%+v", id, in)
	}

	got, err := s.QueryByID(ctx, id)
	if err != nil {
		t.Fatalf("QueryByID: %v", err)
	}
	want := sample(domain.TypeOS, "h1")
	want.ID, want.CreatedAt = got.ID, got.CreatedAt
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\nwant=%+v\ngot =%+v", want, got)
	}

	// mutating the returned copy must not leak into the store
	got.Results["count"] = "changed"
	again, _ := s.QueryByID(ctx, id)
	if again.Results["count"] != json.Number("12") {
		t.Fatalf("store shares state with caller: %v", again.Results["count"])
	}
}

func TestMemoryStore_QueryByID_NotFound(t *testing.T) {
	_, err := New().QueryByID(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_QueryOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	// frozen clock for the first two saves forces a created_at tie
	s.now = func() time.Time {
		tick++
		if tick <= 2 {
			return base
		}
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, ct := range []string{domain.TypeMariaDB, domain.TypeMariaDB, domain.TypeOS, domain.TypeMariaDB} {
		if _, err := s.Save(ctx, sample(ct, "h")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := s.Query(ctx, domain.Filter{}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("limit not honored: %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if domain.Newer(all[i], all[i-1]) {
			t.Fatalf("not sorted newest first at %d: %+v", i, all)
		}
	}

	latest, err := s.Query(ctx, domain.Filter{CheckType: domain.TypeMariaDB}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(latest) != 1 || latest[0].ID != 4 {
		t.Fatalf("expected most recent mariadb record id=4, got %+v", latest)
	}

	tied, _ := s.Query(ctx, domain.Filter{CheckType: domain.TypeMariaDB, Hostname: "h"}, 10)
	if len(tied) != 3 || tied[1].ID != 2 || tied[2].ID != 1 {
		t.Fatalf("ties must break on descending id: %+v", tied)
	}

	none, err := s.Query(ctx, domain.Filter{Checker: "nobody"}, 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", none, err)
	}
}

func TestMemoryStore_KeepsSuppliedCreatedAt(t *testing.T) {
	s := New()
	ts := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	r := sample(domain.TypeOS, "h")
	r.CreatedAt = ts
	if _, err := s.Save(context.Background(), r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.QueryByID(context.Background(), r.ID)
	if !got.CreatedAt.Equal(ts) {
		t.Fatalf("created_at overwritten: %v", got.CreatedAt)
	}
}
