package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Keys holds the configured API keys. An admin key also grants read access.
type Keys struct {
	Public []string
	Admin  []string
}

type access int

const (
	noAccess access = iota
	readAccess
	adminAccess
)

func (k Keys) grants() map[string]access {
	m := make(map[string]access, len(k.Public)+len(k.Admin))
	for _, key := range k.Public {
		if key != "" {
			m[key] = readAccess
		}
	}
	for _, key := range k.Admin {
		if key != "" {
			m[key] = adminAccess
		}
	}
	return m
}

// Credential returns the API key carried by r: a bearer token, then
// X-API-Key, then the api_key query parameter that browser websocket
// clients fall back to.
func Credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > len("bearer ") && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	for _, v := range []string{r.Header.Get("X-API-Key"), r.URL.Query().Get("api_key")} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// WriteDetail writes the error body every route shares:
// {"success":false,"detail":"..."}.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Detail  string `json:"detail"`
	}{Detail: detail})
}

// gate admits requests whose key grants at least want. Unknown or missing
// keys get 401; a valid key without enough access gets 403.
func gate(keys Keys, want access, enforced bool) func(http.Handler) http.Handler {
	granted := keys.grants()
	return func(next http.Handler) http.Handler {
		if !enforced {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch got := granted[Credential(r)]; {
			case got >= want:
				next.ServeHTTP(w, r)
			case got == noAccess:
				WriteDetail(w, http.StatusUnauthorized, "unauthorized")
			default:
				WriteDetail(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

// RequireAny admits any configured key. With no keys configured at all the
// API runs open, which is how local deployments start.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return gate(keys, readAccess, len(keys.Public)+len(keys.Admin) > 0)
}

// RequireAdmin admits admin keys only, and runs open until an admin key is set.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return gate(keys, adminAccess, len(keys.Admin) > 0)
}
