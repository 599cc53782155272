package repo

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hamed0406/checkhub/internal/domain"
)

// RecordStore is the append-only port every backend implements.
type RecordStore interface {
	// Save assigns created_at (when zero) and id, then persists r in a single write.
	Save(ctx context.Context, r *domain.CheckRecord) (int64, error)
	// Query returns matching records newest first, at most limit of them.
	Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error)
	// QueryByID returns domain.ErrNotFound for an unknown id.
	QueryByID(ctx context.Context, id int64) (*domain.CheckRecord, error)
	Close() error
}

// Reconnector is implemented by backends that can re-establish their
// connection after a transient loss.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// EncodeResults serializes a results payload for storage.
func EncodeResults(results map[string]any) ([]byte, error) {
	if results == nil {
		results = map[string]any{}
	}
	return json.Marshal(results)
}

// DecodeResults parses a stored payload, keeping numbers as json.Number so a
// round trip never changes their literal form.
func DecodeResults(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
