// Package httpapi assembles the HTTP surface: public account and check-in
// endpoints, the organizer API behind bearer-token auth, and the operational
// endpoints (/healthz, /metrics).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mwauth "rollcall/pkg/platform/middleware/auth"
	"rollcall/pkg/platform/middleware/metadata"
	"rollcall/pkg/platform/middleware/request"
	"rollcall/pkg/platform/middleware/requesttime"
)

// Registrar mounts a handler's routes on a router. Every domain handler
// implements it.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries the handlers and cross-cutting pieces the router mounts.
type Deps struct {
	Auth       Registrar
	Events     Registrar
	Checkin    Registrar
	Attendance Registrar

	TokenValidator mwauth.TokenValidator
	RateLimit      func(http.Handler) http.Handler
	Health         func(ctx context.Context) error
	Logger         *slog.Logger
}

// NewRouter wires all endpoints. Check-in stays reachable without a token;
// everything an organizer does requires one.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth(d.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	d.Auth.Register(r)

	// Identity comes from a bearer token when one is presented; anonymous
	// submissions pass through with only client metadata.
	r.Group(func(r chi.Router) {
		r.Use(mwauth.OptionalAuth(d.TokenValidator, d.Logger))
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}
		d.Checkin.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mwauth.RequireAuth(d.TokenValidator, d.Logger))
		r.Use(mwauth.RequireRole(d.Logger, mwauth.RoleOrganizer))
		d.Events.Register(r)
		d.Attendance.Register(r)
	})

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
