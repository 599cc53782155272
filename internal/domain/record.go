package domain

import "time"

// Check types reported by the probes. The set is open: unknown tags are stored
// and listed but normalize to the common columns only.
const (
	TypeOS         = "os"
	TypeWAS        = "was"
	TypeTomcat     = "tomcat"
	TypeMariaDB    = "mariadb"
	TypePostgreSQL = "postgresql"
	TypeCubrid     = "cubrid"
)

// CheckRecord is one stored report of a single probe run against one host.
// Records are never updated after insert.
type CheckRecord struct {
	ID        int64          `json:"id"`
	CheckType string         `json:"check_type"`
	Hostname  string         `json:"hostname"`
	CheckTime string         `json:"check_time"` // caller supplied, ISO-8601 expected
	Checker   string         `json:"checker"`
	Status    string         `json:"status"` // success | warning | error
	Results   map[string]any `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter narrows a record query. Empty fields match everything; set fields are ANDed.
type Filter struct {
	CheckType string
	Hostname  string
	Checker   string
}

// Match reports whether r satisfies every set field of f.
func (f Filter) Match(r *CheckRecord) bool {
	if f.CheckType != "" && r.CheckType != f.CheckType {
		return false
	}
	if f.Hostname != "" && r.Hostname != f.Hostname {
		return false
	}
	if f.Checker != "" && r.Checker != f.Checker {
		return false
	}
	return true
}

// Newer orders records by created_at descending, ties broken by descending id.
func Newer(a, b *CheckRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
