package audithttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

type fakeTimeline struct {
	filters audit.TimelineFilters
	result  audit.Result
	err     error
}

func (f *fakeTimeline) Timeline(_ context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	f.filters = filters
	return f.result, f.err
}

type headerGuard struct{}

func (headerGuard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get("X-Test-Email")
		if email == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: "u-" + email, Email: email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (headerGuard) RequirePrimaryAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := shared.IdentityFromContext(r.Context())
		if id.Email != "admin@rbac.it" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func serve(t *testing.T, svc TimelineService, email, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/audit", NewHandler(nil, svc, headerGuard{}).MountRoutes)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if email != "" {
		req.Header.Set("X-Test-Email", email)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestTimelineRequiresPrimaryAdmin(t *testing.T) {
	svc := &fakeTimeline{}
	assert.Equal(t, http.StatusUnauthorized, serve(t, svc, "", "/audit/events").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, svc, "someone@example.com", "/audit/events").Code)
}

func TestTimelineParsesFilters(t *testing.T) {
	svc := &fakeTimeline{result: audit.Result{
		Rows:   []audit.Entry{{ID: 1, ActorID: "admin", Action: audit.ActionCreate, Entity: audit.EntityRole, EntityID: "r-1"}},
		Paging: audit.PagingInfo{Page: 2, PageSize: 10, PrevPage: 1},
	}}
	rr := serve(t, svc, "admin@rbac.it", "/audit/events?from=2026-01-01&to=2026-01-31&page=2&pageSize=10&actor=admin&entity=role&action=create")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), svc.filters.From)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), svc.filters.To)
	assert.Equal(t, 2, svc.filters.Page)
	assert.Equal(t, 10, svc.filters.PageSize)
	assert.Equal(t, "admin", svc.filters.Actor)
	assert.Equal(t, "role", svc.filters.Entity)
	assert.Equal(t, "create", svc.filters.Action)

	var body audit.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "r-1", body.Rows[0].EntityID)
	assert.Equal(t, 1, body.Paging.PrevPage)
}

func TestTimelineRejectsBadQuery(t *testing.T) {
	cases := map[string]string{
		"/audit/events?from=yesterday":                "Invalid from",
		"/audit/events?to=2026-13-01":                 "Invalid to",
		"/audit/events?from=2026-02-01&to=2026-01-01": "Invalid range",
		"/audit/events?from=2024-01-01&to=2026-01-01": "Invalid range",
		"/audit/events?page=9223372036854775807":      "Invalid page",
		"/audit/events?page=100001":                   "Invalid page",
		"/audit/events?page=0":                        "Invalid page",
		"/audit/events?pageSize=abc":                  "Invalid pageSize",
	}
	for target, msg := range cases {
		svc := &fakeTimeline{}
		rr := serve(t, svc, "admin@rbac.it", target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), msg, target)
	}
}

func TestTimelineServiceFailure(t *testing.T) {
	svc := &fakeTimeline{err: errors.New("db down")}
	rr := serve(t, svc, "admin@rbac.it", "/audit/events")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to load audit events")
	assert.NotContains(t, rr.Body.String(), "db down")
}

func TestTimelineAcceptsLastAllowedPage(t *testing.T) {
	svc := &fakeTimeline{}
	rr := serve(t, svc, "admin@rbac.it", "/audit/events?page=100000&pageSize=100")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, maxPage, svc.filters.Page)
}
