package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/repo"
)

var (
	_ repo.RecordStore = (*Store)(nil)
	_ repo.Reconnector = (*Store)(nil)
)

// Schema is applied on startup. results is JSON (not JSONB) so the payload is
// kept byte for byte.
const Schema = `
CREATE TABLE IF NOT EXISTS check_results (
  id         BIGSERIAL PRIMARY KEY,
  check_type VARCHAR(50)  NOT NULL,
  hostname   VARCHAR(255) NOT NULL,
  check_time VARCHAR(50)  NOT NULL,
  checker    VARCHAR(100),
  status     VARCHAR(20),
  results    JSON         NOT NULL,
  created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_check_results_check_type ON check_results (check_type);
CREATE INDEX IF NOT EXISTS ix_check_results_hostname   ON check_results (hostname);
CREATE INDEX IF NOT EXISTS ix_check_results_checker    ON check_results (checker);
CREATE INDEX IF NOT EXISTS ix_check_results_created    ON check_results (created_at DESC, id DESC);
`

const columns = `id, check_type, hostname, check_time, checker, status, results::text, created_at`

type Store struct {
	dsn  string
	mu   sync.RWMutex
	pool *pgxpool.Pool
	log  *zap.Logger
	seq  repo.Sequencer
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{dsn: dsn, log: log}
	pool, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	var newest *time.Time
	if err := pool.QueryRow(ctx, `SELECT max(created_at) FROM check_results`).Scan(&newest); err != nil {
		pool.Close()
		return nil, fmt.Errorf("read newest created_at: %w", err)
	}
	if newest != nil {
		s.seq.Seed(*newest)
	}
	s.pool = pool
	return s, nil
}

func (s *Store) connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 15
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func (s *Store) current() *pgxpool.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

// Reconnect replaces the pool with a freshly dialed one.
func (s *Store) Reconnect(ctx context.Context) error {
	pool, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.pool
	s.pool = pool
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	s.log.Info("postgres_reconnected")
	return nil
}

func (s *Store) Close() error {
	if p := s.current(); p != nil {
		p.Close()
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
		return s.current().QueryRow(ctx,
			`INSERT INTO check_results
			   (check_type, hostname, check_time, checker, status, results, created_at)
			 VALUES
			   ($1, $2, $3, $4, $5, $6::json, $7)
			 RETURNING id`,
			r.CheckType, r.Hostname, r.CheckTime, r.Checker, r.Status, string(body), r.CreatedAt,
		).Scan(&id)
	})
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: fmt.Errorf("insert check result: %w", err)}
	}
	r.ID = id
	return id, nil
}

func (s *Store) Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, col+" = $"+strconv.Itoa(len(args)))
	}
	add("check_type", f.CheckType)
	add("hostname", f.Hostname)
	add("checker", f.Checker)

	var b strings.Builder
	b.WriteString("SELECT " + columns + " FROM check_results")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, limit)
	b.WriteString(" ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args)))

	rows, err := s.current().Query(ctx, b.String(), args...)
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
	row := s.current().QueryRow(ctx, `SELECT `+columns+` FROM check_results WHERE id = $1`, id)
	rec, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "query_by_id", Err: err}
	}
	return rec, nil
}

func scan(row pgx.Row) (*domain.CheckRecord, error) {
	var (
		r       domain.CheckRecord
		checker *string
		status  *string
		body    string
	)
	if err := row.Scan(&r.ID, &r.CheckType, &r.Hostname, &r.CheckTime, &checker, &status, &body, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan check result: %w", err)
	}
	if checker != nil {
		r.Checker = *checker
	}
	if status != nil {
		r.Status = *status
	}
	results, err := repo.DecodeResults([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	r.Results = results
	return &r, nil
}
