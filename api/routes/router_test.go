package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwhitfield/wishlist-backend/pkg/config"
)

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	return NewRouter(RouterParams{Config: cfg})
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter()
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/children"},
		{http.MethodGet, "/api/v1/family"},
		{http.MethodGet, "/api/v1/items"},
		{http.MethodGet, "/api/v1/reservations"},
		{http.MethodGet, "/api/v1/equity"},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodPost, "/api/v1/auth/logout"},
	}
	for _, route := range paths {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
