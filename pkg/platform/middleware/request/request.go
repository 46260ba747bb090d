// Package request assigns every request a stable ID for log correlation.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"rollcall/pkg/requestcontext"
)

// Header carries the request ID back to clients and accepts IDs minted by an
// upstream proxy.
const Header = "X-Request-ID"

// Middleware reuses an inbound request ID or mints a new one, storing it in
// the context and echoing it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
