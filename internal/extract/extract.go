// Package extract flattens raw check payloads into display-ready summaries.
//
// Each check type has its own extractor that decodes the sections it knows
// about and derives one column at a time. A derivation that meets an
// unexpected shape falls back to that column's default; it never affects
// other columns or other records.
package extract

import (
	"strings"

	"github.com/hamed0406/checkhub/internal/domain"
)

// extractor derives the type-specific columns of one record.
type extractor interface {
	extract(results node, s *sheet)
}

var extractors = map[string]extractor{
	domain.TypeOS:         osExtractor{},
	domain.TypeMariaDB:    mariadbExtractor{},
	domain.TypePostgreSQL: postgresExtractor{},
	domain.TypeCubrid:     cubridExtractor{},
	domain.TypeWAS:        wasExtractor{},
	domain.TypeTomcat:     wasExtractor{},
}

// Supported reports whether checkType has a dedicated extractor.
func Supported(checkType string) bool {
	_, ok := extractors[checkType]
	return ok
}

// Normalize projects r onto the column set of its report tab. Columns that do
// not apply to r's check type are present with the N/A sentinel. r is not
// modified and the raw results are carried through as-is.
func Normalize(r *domain.CheckRecord) Summary {
	cols := Columns(domain.FamilyOf(r.CheckType))

	s := newSheet()
	for _, c := range cols {
		s.set(c, NA)
	}
	s.set(ColCheckType, strings.ToUpper(r.CheckType))
	s.set(ColHostname, r.Hostname)
	s.derive(ColCheckTime, r.CheckTime, func() string { return FormatCheckTime(r.CheckTime) })
	s.set(ColRawTime, r.CheckTime)
	s.set(ColChecker, r.Checker)
	s.set(ColStatus, r.Status)

	if ex, ok := extractors[r.CheckType]; ok {
		ex.extract(node{v: r.Results}, s)
	}

	fields := make(map[string]string, len(cols))
	for _, c := range cols {
		fields[c] = s.fields[c]
	}
	return Summary{ID: r.ID, Fields: fields, Results: r.Results, order: cols}
}

// NormalizeAll applies Normalize to each record in order.
func NormalizeAll(records []*domain.CheckRecord) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}
