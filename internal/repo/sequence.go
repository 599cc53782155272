package repo

import (
	"sync"
	"time"

	"github.com/hamed0406/checkhub/internal/domain"
)

// Sequencer serializes created_at stamping with the insert that assigns the
// id, so a record with a higher id never carries an earlier created_at.
// Stamps are truncated to microseconds, the finest precision every backend
// stores, and never run backwards relative to the last stamp handed out.
type Sequencer struct {
	Now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Seed raises the floor to t, typically the newest created_at already stored.
func (q *Sequencer) Seed(t time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.After(q.last) {
		q.last = t.UTC()
	}
}

// Insert stamps r (when its created_at is zero) and runs insert while holding
// the sequence lock. A record that arrives with created_at set keeps it.
func (q *Sequencer) Insert(r *domain.CheckRecord, insert func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stamped := false
	if r.CreatedAt.IsZero() {
		now := time.Now
		if q.Now != nil {
			now = q.Now
		}
		t := now().UTC().Truncate(time.Microsecond)
		if t.Before(q.last) {
			t = q.last
		}
		r.CreatedAt = t
		stamped = true
	}
	if err := insert(); err != nil {
		if stamped {
			r.CreatedAt = time.Time{}
		}
		return err
	}
	if stamped {
		q.last = r.CreatedAt
	}
	return nil
}
