// Package report reads stored check records back for the list and tab views.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/extract"
	"github.com/hamed0406/checkhub/internal/repo"
)

// DefaultLimit applies when a caller passes a non-positive limit.
const DefaultLimit = 100

type Service struct {
	Store repo.RecordStore
}

func New(store repo.RecordStore) *Service { return &Service{Store: store} }

func limitOr(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// ListByType returns records matching f, newest first.
func (s *Service) ListByType(ctx context.Context, f domain.Filter, limit int) ([]*domain.CheckRecord, error) {
	return s.Store.Query(ctx, f, limitOr(limit))
}

// ListByID returns one record or domain.ErrNotFound.
func (s *Service) ListByID(ctx context.Context, id int64) (*domain.CheckRecord, error) {
	return s.Store.QueryByID(ctx, id)
}

// AggregateFamily merges the newest records of every check type in fam,
// drops duplicate ids, re-sorts newest first, truncates to limit and
// normalizes what remains.
func (s *Service) AggregateFamily(ctx context.Context, fam domain.Family, limit int) ([]extract.Summary, error) {
	types := fam.Types()
	if len(types) == 0 {
		return nil, &domain.ValidationError{Field: "family", Reason: fmt.Sprintf("unknown report family %q", fam)}
	}
	limit = limitOr(limit)

	seen := make(map[int64]bool)
	merged := make([]*domain.CheckRecord, 0, limit)
	for _, t := range types {
		recs, err := s.Store.Query(ctx, domain.Filter{CheckType: t}, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return domain.Newer(merged[i], merged[j]) })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return extract.NormalizeAll(merged), nil
}
