package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NA is the sentinel rendered for fields that are absent or not applicable.
const NA = "N/A"

// node is a read-only view over one value of a decoded results payload.
// Lookups through missing keys or non-mapping values yield an empty node
// instead of failing, so derivations only decide what a value means.
type node struct {
	v any
}

func (n node) present() bool { return n.v != nil }

// get returns the child at key, or an empty node when n is not a mapping.
func (n node) get(key string) node {
	m, ok := n.v.(map[string]any)
	if !ok {
		return node{}
	}
	return node{v: m[key]}
}

// path walks nested keys.
func (n node) path(keys ...string) node {
	for _, k := range keys {
		n = n.get(k)
	}
	return n
}

// or returns the first present node, which lets callers express fallback keys.
func (n node) or(alt node) node {
	if n.present() {
		return n
	}
	return alt
}

func (n node) isMap() bool {
	_, ok := n.v.(map[string]any)
	return ok
}

func (n node) str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

// filled reports a string value that is neither blank nor the NA sentinel.
func (n node) filled() (string, bool) {
	s, ok := n.str()
	if !ok || strings.TrimSpace(s) == "" || s == NA {
		return "", false
	}
	return s, true
}

// number reports numeric values, decoded either as json.Number or float64.
func (n node) number() (float64, bool) {
	switch x := n.v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// text renders any value as display text; absent values render as "".
func (n node) text() string {
	switch x := n.v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(n.v)
	if err != nil {
		return ""
	}
	return string(b)
}

// textOr renders n, or def when the value is absent.
func (n node) textOr(def string) string {
	if !n.present() {
		return def
	}
	return n.text()
}

// truthy interprets flags that probes emit either as booleans or as strings.
func (n node) truthy() bool {
	switch x := n.v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "false", "no", "0":
			return false
		}
		return true
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	f, ok := n.number()
	return ok && f != 0
}

// clip hard-truncates s to max runes without adding an ellipsis.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// runeLen counts characters rather than bytes.
func runeLen(s string) int { return len([]rune(s)) }
