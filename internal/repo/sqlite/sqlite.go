package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/repo"
)

var (
	_ repo.RecordStore = (*Store)(nil)
	_ repo.Reconnector = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS check_results (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  check_type TEXT    NOT NULL,
  hostname   TEXT    NOT NULL,
  check_time TEXT    NOT NULL,
  checker    TEXT,
  status     TEXT,
  results    TEXT    NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_check_results_check_type ON check_results(check_type);
CREATE INDEX IF NOT EXISTS ix_check_results_hostname ON check_results(hostname);
CREATE INDEX IF NOT EXISTS ix_check_results_checker ON check_results(checker);
`

const columns = `id, check_type, hostname, check_time, checker, status, results, created_at`

// Store is a single-file SQLite backend. One connection is shared and
// serialized by database/sql; created_at is kept as unix nanoseconds.
type Store struct {
	path string
	log  *zap.Logger

	mu  sync.RWMutex
	db  *sql.DB
	seq repo.Sequencer
}

func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{path: path, log: log}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)
	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	var newest sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM check_results`).Scan(&newest); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read newest created_at: %w", err)
	}
	if newest.Valid {
		s.seq.Seed(time.Unix(0, newest.Int64))
	}
	return db, nil
}

func (s *Store) conn() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Reconnect reopens the database file.
func (s *Store) Reconnect(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.db
	s.db = db
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	s.log.Info("sqlite_reconnected", zap.String("path", s.path))
	return nil
}

func (s *Store) Close() error {
	if db := s.conn(); db != nil {
		return db.Close()
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r *domain.CheckRecord) (int64, error) {
	body, err := repo.EncodeResults(r.Results)
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: fmt.Errorf("encode results: %w", err)}
	}
	var id int64
	err = s.seq.Insert(r, func() error {
		res, err := s.conn().ExecContext(ctx,
			`INSERT INTO check_results (check_type, hostname, check_time, checker, status, results, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.CheckType, r.Hostname, r.CheckTime, r.Checker, r.Status, string(body), r.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert check result: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: err}
	}
	r.ID = id
	return id, nil
}

func (s *Store) Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	var b strings.Builder
	b.WriteString("SELECT " + columns + " FROM check_results")
	var (
		where []string
		args  []any
	)
	for _, c := range []struct{ col, v string }{
		{"check_type", f.CheckType},
		{"hostname", f.Hostname},
		{"checker", f.Checker},
	} {
		if c.v != "" {
			where = append(where, c.col+" = ?")
			args = append(args, c.v)
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.conn().QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, &domain.StorageError{Op: "query", Err: fmt.Errorf("list check results: %w", err)}
	}
	defer rows.Close()

	out := make([]*domain.CheckRecord, 0)
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, &domain.StorageError{Op: "query", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "query", Err: err}
	}
	return out, nil
}

func (s *Store) QueryByID(ctx context.Context, id int64) (*domain.CheckRecord, error) {
	row := s.conn().QueryRowContext(ctx, `SELECT `+columns+` FROM check_results WHERE id = ?`, id)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "query_by_id", Err: err}
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*domain.CheckRecord, error) {
	var (
		r       domain.CheckRecord
		checker sql.NullString
		status  sql.NullString
		body    string
		created int64
	)
	if err := row.Scan(&r.ID, &r.CheckType, &r.Hostname, &r.CheckTime, &checker, &status, &body, &created); err != nil {
		return nil, fmt.Errorf("scan check result: %w", err)
	}
	r.Checker = checker.String
	r.Status = status.String
	r.CreatedAt = time.Unix(0, created).UTC()
	results, err := repo.DecodeResults([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	r.Results = results
	return &r, nil
}
