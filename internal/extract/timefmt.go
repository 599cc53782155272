package extract

import (
	"fmt"
	"strings"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

// FormatCheckTime renders an ISO-8601 probe timestamp in KST as
// "2026. 1. 9. 오전 10:58:51". Values without a 'T' and values that do not
// parse are returned unchanged; timestamps without an offset are taken as UTC.
func FormatCheckTime(s string) string {
	if s == "" || s == NA {
		return NA
	}
	if !strings.Contains(s, "T") {
		return s
	}
	t, ok := parseISO(strings.ReplaceAll(s, "Z", "+00:00"))
	if !ok {
		return s
	}
	t = t.In(kst)

	marker := "오전"
	if t.Hour() >= 12 {
		marker = "오후"
	}
	h := t.Hour()
	if h > 12 {
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), marker, h, t.Minute(), t.Second())
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
