package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// Config holds the middleware's limits.
type Config struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// Middleware limits requests per client IP. When the store is unreachable it
// fails open with a warning; check-ins must not depend on Redis availability.
func Middleware(store Store, cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := requestcontext.ClientIP(ctx)
			if key == "" {
				key = r.RemoteAddr
			}

			result, err := store.Allow(ctx, key, cfg.Limit, cfg.Window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed, allowing request",
					"client_ip", key,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many check-in attempts"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
