// Package migrate copies stored check results between backends, for example
// when moving an embedded SQLite file onto a shared PostgreSQL server.
package migrate

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/domain"
	"github.com/hamed0406/checkhub/internal/repo"
)

// scanAll is the limit used for full-table reads; every backend accepts it.
const scanAll = math.MaxInt32

// Stats reports what a Copy did.
type Stats struct {
	Copied  int
	Skipped int
}

type key struct{ checkType, hostname, checkTime string }

func keyOf(r *domain.CheckRecord) key { return key{r.CheckType, r.Hostname, r.CheckTime} }

// Copy writes every record of src into dst oldest first, keeping created_at.
// Records whose (check_type, hostname, check_time) already exist in dst are
// skipped, so an interrupted run can be repeated.
func Copy(ctx context.Context, src, dst repo.RecordStore, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var st Stats

	existing, err := dst.Query(ctx, domain.Filter{}, scanAll)
	if err != nil {
		return st, err
	}
	seen := make(map[key]struct{}, len(existing))
	for _, r := range existing {
		seen[keyOf(r)] = struct{}{}
	}

	recs, err := src.Query(ctx, domain.Filter{}, scanAll)
	if err != nil {
		return st, err
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		r := recs[i]
		k := keyOf(r)
		if _, dup := seen[k]; dup {
			st.Skipped++
			continue
		}
		srcID := r.ID
		r.ID = 0
		if _, err := dst.Save(ctx, r); err != nil {
			log.Error("migrate_save_failed", zap.Int64("src_id", srcID), zap.Error(err))
			return st, err
		}
		seen[k] = struct{}{}
		st.Copied++
	}
	log.Info("migrate_done", zap.Int("copied", st.Copied), zap.Int("skipped", st.Skipped))
	return st, nil
}
