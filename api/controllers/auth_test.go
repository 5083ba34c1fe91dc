package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwhitfield/wishlist-backend/api/middleware"
	"github.com/mwhitfield/wishlist-backend/internal/auth"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

type stubAuthService struct {
	loginResp *auth.LoginResponse
	loginErr  error
	routeResp *auth.RouteResponse
	routeErr  error
	loggedOut []string
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) ResolveRoute(context.Context, auth.RouteRequest) (*auth.RouteResponse, error) {
	return s.routeResp, s.routeErr
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = append(s.loggedOut, sessionID)
	return nil
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{AccessToken: "token-123"}}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"dad@example.com","password":"secret"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.AccessToken != "token-123" {
		t.Fatalf("unexpected token %q", payload.Data.AccessToken)
	}
}

func TestAuthLoginRejectsMalformedBody(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthLoginMapsUnauthorized(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"dad@example.com","password":"bad"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRouteMissIs200(t *testing.T) {
	svc := &stubAuthService{routeResp: &auth.RouteResponse{Resolved: false}}
	handler := AuthRoute(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/route", strings.NewReader(`{"route":"nobody"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("a route miss must be a 200, got %d", rec.Code)
	}
	var payload struct {
		Data auth.RouteResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Resolved {
		t.Fatal("expected resolved=false")
	}
}

func TestAuthLogoutUsesSessionFromContext(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithSessionID(req.Context(), "jti-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "jti-42" {
		t.Fatalf("expected logout of jti-42, got %v", svc.loggedOut)
	}
}
