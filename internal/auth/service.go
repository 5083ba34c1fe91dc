package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/internal/routes"
	"github.com/mwhitfield/wishlist-backend/internal/users"
	pkgAuth "github.com/mwhitfield/wishlist-backend/pkg/auth"
	"github.com/mwhitfield/wishlist-backend/pkg/config"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/metrics"
	"github.com/mwhitfield/wishlist-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller. Every session
// kind (parent, child, family member) flows through the same token and
// session-marker machinery; only the lookup differs.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ResolveRoute(ctx context.Context, req RouteRequest) (*RouteResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByRoute(ctx context.Context, route string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type childRepository interface {
	FindByRoute(ctx context.Context, route string) (*models.Child, error)
}

type sessionManager interface {
	Track(ctx context.Context, sessionID, subjectID string) error
	Revoke(ctx context.Context, sessionID string) error
}

type service struct {
	users    userRepository
	children childRepository
	session  sessionManager
	jwtCfg   config.JWTConfig
	metrics  *metrics.APIMetrics
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo  userRepository
	ChildRepo childRepository
	Session   sessionManager
	JWTConfig config.JWTConfig
	Metrics   *metrics.APIMetrics
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.ChildRepo == nil {
		return nil, fmt.Errorf("child repository is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:    params.UserRepo,
		children: params.ChildRepo,
		session:  params.Session,
		jwtCfg:   params.JWTConfig,
		metrics:  params.Metrics,
	}, nil
}

// Login authenticates a parent by email and password. Family members carry a
// synthetic credentialless account, so any non-parent row is rejected even
// when a password would match.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.metrics.IncLoginAttempt("password", "failure")
		return nil, err
	}
	if user.Role != enums.RoleParent {
		s.metrics.IncLoginAttempt("password", "failure")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.mintSession(ctx, now, pkgAuth.AccessTokenPayload{
		SubjectID: user.ID,
		Role:      enums.RoleParent,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLoginAttempt("password", "success")
	return &LoginResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}

// ResolveRoute turns a wishlist slug into a session. Children shadow family
// members: the child namespace is checked first, and a miss in both is a
// normal unresolved response rather than an error.
func (s *service) ResolveRoute(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	route := routes.Normalize(req.Route)
	if err := routes.Validate(route); err != nil {
		return &RouteResponse{Resolved: false}, nil
	}

	now := time.Now().UTC()

	child, err := s.children.FindByRoute(ctx, route)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup child route")
	}
	if child != nil {
		token, err := s.mintSession(ctx, now, pkgAuth.AccessTokenPayload{
			SubjectID: child.ID,
			Role:      enums.RoleChild,
			Route:     &child.Route,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.IncLoginAttempt("route", "success")
		return &RouteResponse{
			Resolved: true,
			Kind:     enums.RoleChild,
			Person: &RoutePerson{
				ID:    child.ID.String(),
				Name:  child.Name,
				Route: child.Route,
			},
			AccessToken: token,
		}, nil
	}

	member, err := s.users.FindByRoute(ctx, route)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup member route")
	}
	if member == nil || member.Role != enums.RoleFamilyMember || !member.IsActive {
		s.metrics.IncLoginAttempt("route", "failure")
		return &RouteResponse{Resolved: false}, nil
	}

	token, err := s.mintSession(ctx, now, pkgAuth.AccessTokenPayload{
		SubjectID: member.ID,
		Role:      enums.RoleFamilyMember,
		Route:     member.Route,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncLoginAttempt("route", "success")

	memberRoute := ""
	if member.Route != nil {
		memberRoute = *member.Route
	}
	return &RouteResponse{
		Resolved: true,
		Kind:     enums.RoleFamilyMember,
		Person: &RoutePerson{
			ID:    member.ID.String(),
			Name:  member.Name,
			Route: memberRoute,
		},
		AccessToken: token,
	}, nil
}

// Logout revokes the session marker. Revoking an unknown or already-revoked
// session succeeds.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}

// mintSession issues the JWT and tracks its jti in the session store so the
// middleware can tell revoked tokens from live ones.
func (s *service) mintSession(ctx context.Context, now time.Time, payload pkgAuth.AccessTokenPayload) (string, error) {
	payload.JTI = uuid.NewString()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Track(ctx, payload.JTI, payload.SubjectID.String()); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track session")
	}
	return token, nil
}
