package middleware

import (
	"net/http"
	"sync"
	"time"

	"taquilla/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// purgeInterval bounds how often expired windows are swept from a limiter.
const purgeInterval = 5 * time.Minute

// windowEntry tracks request counts per IP within a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// ipLimiter counts requests per client IP. Each limiter owns its map, so the
// login and general limiters never share counts.
type ipLimiter struct {
	name      string
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*windowEntry
	nextPurge time.Time
	now       func() time.Time
}

func newIPLimiter(name string, limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within the
// limit, plus the end of the current window.
func (l *ipLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &windowEntry{}
		l.entries[ip] = e
	}
	if now.After(e.windowEnd) {
		e.count = 0
		e.windowEnd = now.Add(l.window)
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops expired windows so IPs that never return do not accumulate.
func (l *ipLimiter) purge(now time.Time) {
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Str("limiter", l.name).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.entries)).
			Msg("rate limiter purged")
	}
}

func (l *ipLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to limit per minute per IP.
func LoginRateLimiter(limit int) gin.HandlerFunc {
	return newIPLimiter("login", limit, time.Minute).
		handler("Demasiados intentos de inicio de sesión. Intente en 1 minuto.")
}

// RateLimiter is the general per-IP limiter applied to every route.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newIPLimiter("api", limit, window).
		handler("Demasiadas solicitudes. Intente nuevamente en un momento.")
}
