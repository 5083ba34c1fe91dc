package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/mwhitfield/wishlist-backend/pkg/auth"
	"github.com/mwhitfield/wishlist-backend/pkg/config"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "wishlist-test",
	ExpirationMinutes: 60,
	SessionTTLMinutes: 120,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type stubUserRepo struct {
	byEmail      *models.User
	byRoute      *models.User
	emailErr     error
	routeErr     error
	lastLoginIDs []uuid.UUID
}

func (s *stubUserRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if s.emailErr != nil {
		return nil, s.emailErr
	}
	return s.byEmail, nil
}

func (s *stubUserRepo) FindByRoute(context.Context, string) (*models.User, error) {
	if s.routeErr != nil {
		return nil, s.routeErr
	}
	return s.byRoute, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.lastLoginIDs = append(s.lastLoginIDs, id)
	return nil
}

type stubChildRepo struct {
	byRoute  *models.Child
	routeErr error
	gotRoute string
}

func (s *stubChildRepo) FindByRoute(_ context.Context, route string) (*models.Child, error) {
	s.gotRoute = route
	if s.routeErr != nil {
		return nil, s.routeErr
	}
	return s.byRoute, nil
}

type stubSession struct {
	tracked []string
	revoked []string
}

func (s *stubSession) Track(_ context.Context, sessionID, _ string) error {
	s.tracked = append(s.tracked, sessionID)
	return nil
}

func (s *stubSession) Revoke(_ context.Context, sessionID string) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

func parentUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	email := "dad@example.com"
	return &models.User{
		ID:           uuid.New(),
		Name:         "Dad",
		Email:        &email,
		PasswordHash: hash,
		Role:         enums.RoleParent,
		IsActive:     true,
	}
}

func newTestService(t *testing.T, userRepo *stubUserRepo, childRepo *stubChildRepo, session *stubSession) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:  userRepo,
		ChildRepo: childRepo,
		Session:   session,
		JWTConfig: testJWTConfig,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func expectUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	user := parentUser(t, "hunter2!")
	userRepo := &stubUserRepo{byEmail: user, routeErr: gorm.ErrRecordNotFound}
	session := &stubSession{}
	svc := newTestService(t, userRepo, &stubChildRepo{routeErr: gorm.ErrRecordNotFound}, session)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Dad@Example.com", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
	if len(userRepo.lastLoginIDs) != 1 || userRepo.lastLoginIDs[0] != user.ID {
		t.Fatal("expected last login recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Role != enums.RoleParent || claims.SubjectID != user.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(session.tracked) != 1 || session.tracked[0] != claims.ID {
		t.Fatalf("expected tracked session %q, got %v", claims.ID, session.tracked)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := parentUser(t, "hunter2!")
	session := &stubSession{}
	svc := newTestService(t, &stubUserRepo{byEmail: user}, &stubChildRepo{}, session)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dad@example.com", Password: "wrong"})
	expectUnauthorized(t, err)
	if len(session.tracked) != 0 {
		t.Fatal("failed login must not create a session")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{emailErr: gorm.ErrRecordNotFound}, &stubChildRepo{}, &stubSession{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	expectUnauthorized(t, err)
}

func TestLoginRejectsNonParentEvenWithValidPassword(t *testing.T) {
	member := parentUser(t, "hunter2!")
	member.Role = enums.RoleFamilyMember
	session := &stubSession{}
	svc := newTestService(t, &stubUserRepo{byEmail: member}, &stubChildRepo{}, session)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dad@example.com", Password: "hunter2!"})
	expectUnauthorized(t, err)
	if len(session.tracked) != 0 {
		t.Fatal("non-parent login must not create a session")
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := parentUser(t, "hunter2!")
	user.IsActive = false
	svc := newTestService(t, &stubUserRepo{byEmail: user}, &stubChildRepo{}, &stubSession{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "dad@example.com", Password: "hunter2!"})
	expectUnauthorized(t, err)
}

func TestResolveRouteChildMatch(t *testing.T) {
	child := &models.Child{ID: uuid.New(), Name: "Max", Route: "max"}
	childRepo := &stubChildRepo{byRoute: child}
	session := &stubSession{}
	svc := newTestService(t, &stubUserRepo{routeErr: gorm.ErrRecordNotFound}, childRepo, session)

	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "  MAX  "})
	if err != nil {
		t.Fatalf("ResolveRoute returned error: %v", err)
	}
	if !resp.Resolved || resp.Kind != enums.RoleChild {
		t.Fatalf("expected child resolution, got %+v", resp)
	}
	if childRepo.gotRoute != "max" {
		t.Fatalf("expected normalized lookup, got %q", childRepo.gotRoute)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Role != enums.RoleChild || claims.SubjectID != child.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Route == nil || *claims.Route != "max" {
		t.Fatalf("expected route claim, got %v", claims.Route)
	}
	if len(session.tracked) != 1 {
		t.Fatal("expected tracked session")
	}
}

func TestResolveRouteChildShadowsFamilyMember(t *testing.T) {
	child := &models.Child{ID: uuid.New(), Name: "Max", Route: "max"}
	route := "max"
	member := &models.User{ID: uuid.New(), Name: "Other Max", Role: enums.RoleFamilyMember, Route: &route, IsActive: true}
	svc := newTestService(t, &stubUserRepo{byRoute: member}, &stubChildRepo{byRoute: child}, &stubSession{})

	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "max"})
	if err != nil {
		t.Fatalf("ResolveRoute returned error: %v", err)
	}
	if resp.Kind != enums.RoleChild {
		t.Fatalf("child namespace must win, got %+v", resp)
	}
}

func TestResolveRouteFamilyFallback(t *testing.T) {
	route := "grandma-sue"
	member := &models.User{ID: uuid.New(), Name: "Grandma Sue", Role: enums.RoleFamilyMember, Route: &route, IsActive: true}
	svc := newTestService(t, &stubUserRepo{byRoute: member}, &stubChildRepo{routeErr: gorm.ErrRecordNotFound}, &stubSession{})

	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "grandma-sue"})
	if err != nil {
		t.Fatalf("ResolveRoute returned error: %v", err)
	}
	if !resp.Resolved || resp.Kind != enums.RoleFamilyMember {
		t.Fatalf("expected family resolution, got %+v", resp)
	}
	if resp.Person == nil || resp.Person.Name != "Grandma Sue" {
		t.Fatalf("unexpected person %+v", resp.Person)
	}
}

func TestResolveRouteMissIsNotAnError(t *testing.T) {
	session := &stubSession{}
	svc := newTestService(t, &stubUserRepo{routeErr: gorm.ErrRecordNotFound}, &stubChildRepo{routeErr: gorm.ErrRecordNotFound}, session)

	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "nobody-here"})
	if err != nil {
		t.Fatalf("a route miss must not error: %v", err)
	}
	if resp.Resolved {
		t.Fatal("expected unresolved response")
	}
	if len(session.tracked) != 0 {
		t.Fatal("a miss must not create a session")
	}
}

func TestResolveRouteRejectsParentsAndInactiveMembers(t *testing.T) {
	route := "dad"
	parent := &models.User{ID: uuid.New(), Name: "Dad", Role: enums.RoleParent, Route: &route, IsActive: true}
	svc := newTestService(t, &stubUserRepo{byRoute: parent}, &stubChildRepo{routeErr: gorm.ErrRecordNotFound}, &stubSession{})

	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "dad"})
	if err != nil {
		t.Fatalf("ResolveRoute returned error: %v", err)
	}
	if resp.Resolved {
		t.Fatal("parent rows must not resolve through the route surface")
	}
}

func TestResolveRouteBadSlugIsUnresolved(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubChildRepo{}, &stubSession{})
	resp, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "bad slug!"})
	if err != nil {
		t.Fatalf("ResolveRoute returned error: %v", err)
	}
	if resp.Resolved {
		t.Fatal("expected unresolved response for invalid slug")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	session := &stubSession{}
	svc := newTestService(t, &stubUserRepo{}, &stubChildRepo{}, session)

	if err := svc.Logout(context.Background(), "some-jti"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), "some-jti"); err != nil {
		t.Fatalf("second Logout returned error: %v", err)
	}
	if len(session.revoked) != 2 {
		t.Fatalf("expected 2 revocations, got %d", len(session.revoked))
	}

	if err := svc.Logout(context.Background(), "  "); err != nil {
		t.Fatalf("blank session id must be a no-op: %v", err)
	}
	if len(session.revoked) != 2 {
		t.Fatal("blank session id must not hit the store")
	}
}

func TestResolveRouteDependencyError(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubChildRepo{routeErr: errors.New("db connection reset")}, &stubSession{})
	_, err := svc.ResolveRoute(context.Background(), RouteRequest{Route: "max"})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
}
