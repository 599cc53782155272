package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
)

// transientText lists driver messages that mean the link dropped. Matched
// only when no typed check decided.
var transientText = []string{
	"bad connection",
	"broken pipe",
	"conn closed",
	"connection refused",
	"connection reset",
	"database is closed",
	"server closed",
}

// IsConnectionError reports whether err looks like a lost or refused
// connection rather than a query problem.
func IsConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A server-side error proves the link is up, unless the server says otherwise.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.SafeToRetry(err) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, t := range transientText {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

type readRetry struct {
	RecordStore
	log *zap.Logger
}

// WithReadRetry wraps s so that a read failing on a connection error is
// retried exactly once after reconnecting. Writes are never retried.
func WithReadRetry(s RecordStore, log *zap.Logger) RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &readRetry{RecordStore: s, log: log}
}

func (r *readRetry) Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	out, err := r.RecordStore.Query(ctx, f, limit)
	if err == nil || !r.recover(ctx, "query", err) {
		return out, asStorage("query", err)
	}
	out, err = r.RecordStore.Query(ctx, f, limit)
	return out, asStorage("query", err)
}

func (r *readRetry) QueryByID(ctx context.Context, id int64) (*domain.CheckRecord, error) {
	out, err := r.RecordStore.QueryByID(ctx, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) || !r.recover(ctx, "query_by_id", err) {
		return out, asStorage("query_by_id", err)
	}
	out, err = r.RecordStore.QueryByID(ctx, id)
	return out, asStorage("query_by_id", err)
}

func (r *readRetry) Save(ctx context.Context, rec *domain.CheckRecord) (int64, error) {
	id, err := r.RecordStore.Save(ctx, rec)
	return id, asStorage("save", err)
}

// recover reconnects when err is a connection error and reports whether the
// read should be attempted again.
func (r *readRetry) recover(ctx context.Context, op string, err error) bool {
	if !IsConnectionError(err) {
		return false
	}
	rc, ok := r.RecordStore.(Reconnector)
	if !ok {
		return false
	}
	r.log.Warn("storage_read_retry", zap.String("op", op), zap.Error(err))
	if rerr := rc.Reconnect(ctx); rerr != nil {
		r.log.Error("storage_reconnect_failed", zap.String("op", op), zap.Error(rerr))
		return false
	}
	return true
}

func asStorage(op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || domain.IsStorage(err) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}
