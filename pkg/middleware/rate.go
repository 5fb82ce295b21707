// Package middleware provides the HTTP middleware chain of the service.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/response"
)

// bucket counts requests from one client in a fixed window.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window, per-client-IP request limiter. Clients are
// keyed by the connection's remote address unless TrustForwardedFor is on.
type Limiter struct {
	max            int
	window         time.Duration
	now            func() time.Time
	trustForwarded bool

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows max requests per client per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// TrustForwardedFor keys clients by the first X-Forwarded-For entry. Only
// safe behind a proxy that overwrites the header.
func (l *Limiter) TrustForwardedFor(on bool) *Limiter {
	l.trustForwarded = on
	return l
}

// Allow records one request from key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}

	b.count++
	return b.count <= l.max
}

// Sweep drops buckets whose window has passed.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}

// Run sweeps expired buckets every window until stop is closed.
func (l *Limiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-stop:
			return
		}
	}
}

// Middleware rejects clients over the limit with 429. A non-positive max
// disables limiting.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l.max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r, l.trustForwarded)) {
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustForwarded && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
