package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// idleTTL is how long a client's bucket survives without traffic.
const idleTTL = 10 * time.Minute

// bucket holds one client's tokens. They refill continuously and cap at
// the limiter's burst.
type bucket struct {
	tokens float64
	seen   time.Time
}

type limiter struct {
	perSec float64
	burst  float64
	idle   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*bucket
	swept   time.Time
}

func newLimiter(perSec float64, burst int, idle time.Duration, now func() time.Time) *limiter {
	return &limiter{
		perSec:  perSec,
		burst:   float64(burst),
		idle:    idle,
		now:     now,
		clients: make(map[string]*bucket),
		swept:   now(),
	}
}

// take spends one token for client. When none is left it reports how long
// until the next one.
func (l *limiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.idle > 0 && now.Sub(l.swept) >= l.idle {
		l.forgetIdle(now)
	}
	b, ok := l.clients[client]
	if !ok {
		b = &bucket{tokens: l.burst}
		l.clients[client] = b
	} else {
		b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.perSec)
	}
	b.seen = now

	if b.tokens < 1 {
		return false, time.Duration((1 - b.tokens) / l.perSec * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

func (l *limiter) forgetIdle(now time.Time) {
	for client, b := range l.clients {
		if now.Sub(b.seen) > l.idle {
			delete(l.clients, client)
		}
	}
	l.swept = now
}

// RateLimit allows each client perMin requests a minute in bursts of up to
// burst. perMin <= 0 turns limiting off.
func RateLimit(perMin, burst int) func(http.Handler) http.Handler {
	if perMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(float64(perMin)/60, max(burst, 1), idleTTL, time.Now)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.take(clientKey(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteDetail(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the first X-Forwarded-For hop when a proxy set one,
// otherwise the peer address without its port.
func clientKey(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
