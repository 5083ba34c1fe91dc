package family

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/internal/routes"
	"github.com/mwhitfield/wishlist-backend/internal/users"
	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	RouteExists(ctx context.Context, route string, excludeID *uuid.UUID) (bool, error)
}

type childNamespace interface {
	RouteExists(ctx context.Context, route string, excludeID *uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the family member service.
type ServiceParams struct {
	UserRepo  userRepository
	ChildRepo childNamespace
}

// CreateMemberInput captures the fields for a new family member.
type CreateMemberInput struct {
	Name  string
	Route string
}

// UpdateMemberInput carries partial updates; nil fields are left untouched.
type UpdateMemberInput struct {
	Name  *string
	Route *string
}

// Service exposes business rules for family member management. Family
// members have no password; their route slug is their credential, so the
// stored email is a synthetic one derived from the slug.
type Service interface {
	Create(ctx context.Context, input CreateMemberInput) (*users.UserDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	List(ctx context.Context) ([]users.UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateMemberInput) (*users.UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	userRepo  userRepository
	childRepo childNamespace
}

// NewService builds a family member service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	if params.ChildRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "children repo is required")
	}
	return &service{userRepo: params.UserRepo, childRepo: params.ChildRepo}, nil
}

// Create validates the route slug and persists a passwordless family member.
func (s *service) Create(ctx context.Context, input CreateMemberInput) (*users.UserDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	route := routes.Normalize(input.Route)
	if err := routes.Validate(route); err != nil {
		return nil, err
	}
	if err := s.ensureRouteFree(ctx, route, nil); err != nil {
		return nil, err
	}

	email := routes.FamilyEmail(route)
	member, err := s.userRepo.Create(ctx, users.CreateUserDTO{
		Name:  input.Name,
		Email: &email,
		Role:  enums.RoleFamilyMember,
		Route: &route,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_route_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "route is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create family member")
	}
	return users.FromModel(member), nil
}

// GetByID loads a single family member.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	member, err := s.loadMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return users.FromModel(member), nil
}

// List returns every family member account.
func (s *service) List(ctx context.Context) ([]users.UserDTO, error) {
	list, err := s.userRepo.ListByRole(ctx, enums.RoleFamilyMember)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family members")
	}
	out := make([]users.UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *users.FromModel(&list[i]))
	}
	return out, nil
}

// Update applies partial changes. Renaming the route also refreshes the
// synthetic email so the two stay in sync.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateMemberInput) (*users.UserDTO, error) {
	member, err := s.loadMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		member.Name = *input.Name
	}
	if input.Route != nil {
		route := routes.Normalize(*input.Route)
		if err := routes.Validate(route); err != nil {
			return nil, err
		}
		if member.Route == nil || route != *member.Route {
			if err := s.ensureRouteFree(ctx, route, &member.ID); err != nil {
				return nil, err
			}
			email := routes.FamilyEmail(route)
			member.Route = &route
			member.Email = &email
		}
	}

	if err := s.userRepo.Update(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "users_route_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "route is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update family member")
	}
	return users.FromModel(member), nil
}

// Delete removes the family member. Their reservations cascade at the DB level.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadMember(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete family member")
	}
	return nil
}

func (s *service) loadMember(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "family member id is required")
	}
	member, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "family member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family member")
	}
	if member.Role != enums.RoleFamilyMember {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "family member not found")
	}
	return member, nil
}

func (s *service) ensureRouteFree(ctx context.Context, route string, excludeUserID *uuid.UUID) error {
	taken, err := s.userRepo.RouteExists(ctx, route, excludeUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user routes")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "route is already taken")
	}
	taken, err = s.childRepo.RouteExists(ctx, route, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check child routes")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "route is already taken")
	}
	return nil
}
