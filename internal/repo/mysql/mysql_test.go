package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
)

func TestToRecord_DecodesResults(t *testing.T) {
	ts := time.Date(2026, 1, 9, 1, 0, 0, 0, time.UTC)
	rec, err := toRecord(&checkRow{
		ID: 3, CheckType: "cubrid", Hostname: "c1", CheckTime: "t", Checker: "bob", Status: "error",
		Results:   []byte(`{"database":{"db_list":"demodb testdb"},"n":5}`),
		CreatedAt: ts,
	})
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}
	db, _ := rec.Results["database"].(map[string]any)
	if rec.ID != 3 || db["db_list"] != "demodb testdb" || !rec.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := toRecord(&checkRow{Results: []byte(`{broken`)}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMySQLStore_Integration(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set; skipping MariaDB integration test")
	}
	ctx := context.Background()
	s, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	host := fmt.Sprintf("it-%d", time.Now().UnixNano())
	r := &domain.CheckRecord{CheckType: "mariadb", Hostname: host, CheckTime: "t", Checker: "c", Status: "success",
		Results: map[string]any{"listener": "tcp LISTEN 0 80 *:3306"}}
	if _, err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Query(ctx, domain.Filter{Hostname: host}, 5)
	if err != nil || len(got) != 1 || got[0].ID != r.ID {
		t.Fatalf("Query: %+v err=%v", got, err)
	}
	if _, err := s.QueryByID(ctx, -1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
}

func TestMySQLStore_ConcurrentSavesKeepOrder(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set; skipping MariaDB integration test")
	}
	ctx := context.Background()
	s, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	host := fmt.Sprintf("it-order-%d", time.Now().UnixNano())
	const n = 200
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := &domain.CheckRecord{CheckType: "os", Hostname: host, CheckTime: "t", Results: map[string]any{}}
			if _, err := s.Save(ctx, r); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Query(ctx, domain.Filter{Hostname: host}, n)
	if err != nil || len(got) != n {
		t.Fatalf("Query: %d rows err=%v", len(got), err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID >= got[i-1].ID || got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("row %d out of order: id %d at %v after id %d at %v",
				i, got[i].ID, got[i].CreatedAt, got[i-1].ID, got[i-1].CreatedAt)
		}
	}
}
