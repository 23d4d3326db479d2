package http

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const headerRequestID = "X-Request-Id"

// RequestIDMiddleware ensures every request has a unique X-Request-Id.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set("request_id", id)
			return next(c)
		}
	}
}

// LoggingMiddleware logs each request with structured fields.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("request",
				"request_id", c.Get("request_id"),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// clientLimiters hands out one token bucket per client IP and drops buckets
// idle for longer than ttl.
type clientLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	limiters  map[string]*clientLimiter
}

func newClientLimiters(limit rate.Limit, burst int, ttl time.Duration, now func() time.Time) *clientLimiters {
	return &clientLimiters{
		limit:     limit,
		burst:     max(burst, 1),
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
		limiters:  make(map[string]*clientLimiter),
	}
}

func (l *clientLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweepLocked(now)
	}

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.lim.AllowN(now, 1)
}

func (l *clientLimiters) sweepLocked(now time.Time) {
	for key, cl := range l.limiters {
		if now.Sub(cl.lastSeen) >= l.ttl {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// IPExtractor returns the echo IP extractor used to key the rate limiter.
// With no trusted proxies the TCP peer address is used and forwarding headers
// are ignored. Otherwise X-Forwarded-For is honoured only for hops inside the
// given ranges.
func IPExtractor(trustedProxies []*net.IPNet) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range trustedProxies {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// RateLimitMiddleware throttles each client IP to rps requests per second with
// the given burst. A non-positive rps disables throttling. The client IP comes
// from c.RealIP(), so the server must set an IPExtractor (see IPExtractor).
func RateLimitMiddleware(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return rateLimit(newClientLimiters(rate.Limit(rps), burst, limiterIdleTTL, time.Now))
}

func rateLimit(limiters *clientLimiters) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiters.allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests", RetryAfterSeconds: 1})
			}
			return next(c)
		}
	}
}

// AdminAuthMiddleware requires "Authorization: Bearer <token>".
func AdminAuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid admin token"})
			}
			return next(c)
		}
	}
}
