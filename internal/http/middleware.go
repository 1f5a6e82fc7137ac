package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/grocery-pos/internal/terminal"
	"github.com/fjod/grocery-pos/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	cashierKey ctxKey = iota
	sessionKey
)

const (
	UserIDHeader       = "X-User-ID"
	TerminalQueryParam = "terminal_id"
)

// CashierMiddleware reads the cashier id set by the upstream login layer.
// A missing or malformed header leaves the cashier unset (0).
func CashierMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cashierID int64
		if v := r.Header.Get(UserIDHeader); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				cashierID = id
			}
		}
		ctx := context.WithValue(r.Context(), cashierKey, cashierID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCashierID(ctx context.Context) int64 {
	if id, ok := ctx.Value(cashierKey).(int64); ok {
		return id
	}
	return 0
}

// TerminalMiddleware resolves the terminal session from ?terminal_id= (default
// terminal when absent). New terminals are refused once the registry is full.
func TerminalMiddleware(registry *terminal.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := terminalID(r)
			if !ok {
				respondError(w, http.StatusBadRequest, "invalid_terminal_id", "terminal_id must be a positive integer")
				return
			}
			session, err := registry.Open(id)
			if err != nil {
				respondError(w, http.StatusTooManyRequests, "too_many_terminals", err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func terminalID(r *http.Request) (int64, bool) {
	v := r.URL.Query().Get(TerminalQueryParam)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func getSession(ctx context.Context) *terminal.Session {
	s, _ := ctx.Value(sessionKey).(*terminal.Session)
	return s
}

// RequestLogger logs one line per request with zap.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithContext(r.Context(), log).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-memory token bucket per terminal. Idle buckets are
// dropped after expiresIn.
type RateLimiter struct {
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

func NewRateLimiter(limit rate.Limit, burst int, expiresIn time.Duration) *RateLimiter {
	if expiresIn <= 0 {
		expiresIn = 3 * time.Minute
	}
	return &RateLimiter{
		limit:     limit,
		burst:     burst,
		expiresIn: expiresIn,
		now:       time.Now,
		limiters:  map[string]*limiterEntry{},
	}
}

func (l *RateLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.expiresIn {
			delete(l.limiters, k)
		}
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get(TerminalQueryParam)
		if key == "" {
			key = "default"
		}
		if !l.Allow(key) {
			respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
