package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/repo"
)

var _ repo.RecordStore = (*Store)(nil)

// Store keeps records in process memory. Records are copied on the way in and
// out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	last    time.Time
	records []*domain.CheckRecord
	now     func() time.Time
}

func New() *Store {
	return &Store{
		records: make([]*domain.CheckRecord, 0, 128),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Store) Save(ctx context.Context, r *domain.CheckRecord) (int64, error) {
	cp, err := clone(r)
	if err != nil {
		return 0, &domain.StorageError{Op: "save", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		now := m.now()
		// created_at must not run backwards relative to insertion order
		if now.Before(m.last) {
			now = m.last
		}
		m.last = now
		cp.CreatedAt = now
	}
	m.records = append(m.records, cp)

	r.ID = cp.ID
	r.CreatedAt = cp.CreatedAt
	return cp.ID, nil
}

func (m *Store) Query(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	m.mu.RLock()
	matched := make([]*domain.CheckRecord, 0)
	for _, r := range m.records {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return domain.Newer(matched[i], matched[j]) })
	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*domain.CheckRecord, 0, len(matched))
	for _, r := range matched {
		cp, err := clone(r)
		if err != nil {
			return nil, &domain.StorageError{Op: "query", Err: err}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *Store) QueryByID(ctx context.Context, id int64) (*domain.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.ID == id {
			return clone(r)
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Store) Close() error { return nil }

func clone(r *domain.CheckRecord) (*domain.CheckRecord, error) {
	cp := *r
	b, err := repo.EncodeResults(r.Results)
	if err != nil {
		return nil, err
	}
	if cp.Results, err = repo.DecodeResults(b); err != nil {
		return nil, err
	}
	return &cp, nil
}
