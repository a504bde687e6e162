package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	general     *rate.Limiter
	destructive *rate.Limiter
	lastSeen    time.Time
}

// RateLimitMiddleware limits requests per client IP. Erasure and sweep
// endpoints draw from a separate, smaller budget.
type RateLimitMiddleware struct {
	generalRPM     int
	destructiveRPM int
	mu             sync.Mutex
	clients        map[string]*clientLimiter
}

// NewRateLimitMiddleware builds the limiter. generalRPM <= 0 disables the
// general budget; destructiveRPM <= 0 falls back to 10.
func NewRateLimitMiddleware(generalRPM int, destructiveRPM int) *RateLimitMiddleware {
	if destructiveRPM <= 0 {
		destructiveRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM:     generalRPM,
		destructiveRPM: destructiveRPM,
		clients:        map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		limiter := m.getLimiter(clientIP)

		target := limiter.general
		if isDestructive(r) {
			target = limiter.destructive
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeErrorJSON(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isDestructive(r *http.Request) bool {
	path := strings.ToLower(strings.TrimSuffix(r.URL.Path, "/"))

	switch {
	case r.Method == http.MethodDelete && strings.HasSuffix(path, "/permanent"):
		return true
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/trash/empty"):
		return true
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/retention/run"):
		return true
	}

	return false
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		destructive: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.destructiveRPM)), m.destructiveRPM),
		lastSeen:    time.Now(),
	}
	if m.generalRPM > 0 {
		created.general = rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
