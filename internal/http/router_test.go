package httpapi_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	httpapi "rollcall/internal/http"
	"rollcall/internal/ratelimit"
	mwauth "rollcall/pkg/platform/middleware/auth"
	"rollcall/pkg/requestcontext"
	"rollcall/pkg/testutil"
)

type routeFunc func(r chi.Router)

func (f routeFunc) Register(r chi.Router) { f(r) }

type tokenTable map[string]*mwauth.Claims

func (t tokenTable) ValidateToken(token string) (*mwauth.Claims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

// echoIdentity reports the identity the middleware chain resolved so tests
// can tell anonymous and authenticated requests apart.
func echoIdentity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID := requestcontext.UserID(r.Context())
	_, _ = w.Write([]byte(`{"user_id":"` + userID + `"}`))
}

func newTestDeps(tokens tokenTable) httpapi.Deps {
	logger := slog.New(slog.DiscardHandler)
	return httpapi.Deps{
		Auth: routeFunc(func(r chi.Router) {
			r.Post("/auth/token", echoIdentity)
		}),
		Events: routeFunc(func(r chi.Router) {
			r.Get("/events", echoIdentity)
		}),
		Checkin: routeFunc(func(r chi.Router) {
			r.Post("/events/{eventID}/checkin", echoIdentity)
		}),
		Attendance: routeFunc(func(r chi.Router) {
			r.Get("/events/{eventID}/attendances", echoIdentity)
		}),
		TokenValidator: tokens,
		Logger:         logger,
	}
}

func TestRouterOrganizerSurface(t *testing.T) {
	tokens := tokenTable{
		"organizer-token": {UserID: "org-1", Email: "org@ou.edu.vn", Role: mwauth.RoleOrganizer},
		"attendee-token":  {UserID: "att-1", Email: "sv@ou.edu.vn", Role: mwauth.RoleAttendee},
		"admin-token":     {UserID: "adm-1", Email: "root@rollcall.dev", Role: mwauth.RoleAdmin},
	}
	router := httpapi.NewRouter(newTestDeps(tokens))

	t.Run("rejects missing token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/events"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("rejects attendee role", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/events")
		req.Header.Set("Authorization", "Bearer attendee-token")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("admits organizer", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/events")
		req.Header.Set("Authorization", "Bearer organizer-token")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "user_id", "org-1")
	})

	t.Run("admin passes the organizer gate", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/events/evt-1/attendances")
		req.Header.Set("Authorization", "Bearer admin-token")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
	})
}

func TestRouterCheckinIdentity(t *testing.T) {
	tokens := tokenTable{
		"attendee-token": {UserID: "att-1", Email: "sv@ou.edu.vn", Role: mwauth.RoleAttendee},
	}
	router := httpapi.NewRouter(newTestDeps(tokens))

	t.Run("anonymous submission passes through", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/events/evt-1/checkin", map[string]any{})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "user_id", "")
	})

	t.Run("bearer token resolves identity", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/events/evt-1/checkin", map[string]any{})
		req.Header.Set("Authorization", "Bearer attendee-token")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "user_id", "att-1")
	})

	t.Run("presented but invalid token is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/events/evt-1/checkin", map[string]any{})
		req.Header.Set("Authorization", "Bearer forged")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}

func TestRouterRateLimitsCheckin(t *testing.T) {
	deps := newTestDeps(tokenTable{})
	deps.RateLimit = ratelimit.Middleware(ratelimit.NewMemoryStore(), ratelimit.Config{
		Enabled: true,
		Limit:   1,
		Window:  time.Minute,
	}, deps.Logger)
	router := httpapi.NewRouter(deps)

	first := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/events/evt-1/checkin", map[string]any{}))
	testutil.AssertStatusOK(t, first)

	second := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/events/evt-1/checkin", map[string]any{}))
	testutil.AssertStatus(t, second, http.StatusTooManyRequests)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Other routes are outside the limited group.
	token := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", map[string]any{}))
	testutil.AssertStatusOK(t, token)
}

func TestRouterHealth(t *testing.T) {
	t.Run("ok without a check", func(t *testing.T) {
		router := httpapi.NewRouter(newTestDeps(tokenTable{}))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("degraded when the check fails", func(t *testing.T) {
		deps := newTestDeps(tokenTable{})
		deps.Health = func(ctx context.Context) error { return errors.New("postgres down") }
		router := httpapi.NewRouter(deps)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(t, rr, "status", "degraded")
	})
}

func TestRouterExposesMetrics(t *testing.T) {
	router := httpapi.NewRouter(newTestDeps(tokenTable{}))
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}
