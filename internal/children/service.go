package children

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/internal/routes"
	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	dbtypes "github.com/mwhitfield/wishlist-backend/pkg/db/types"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

type childRepository interface {
	Create(ctx context.Context, input CreateChildInput) (*models.Child, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Child, error)
	List(ctx context.Context) ([]models.Child, error)
	Update(ctx context.Context, child *models.Child) error
	Delete(ctx context.Context, id uuid.UUID) error
	RouteExists(ctx context.Context, route string, excludeID *uuid.UUID) (bool, error)
}

type routeNamespace interface {
	RouteExists(ctx context.Context, route string, excludeID *uuid.UUID) (bool, error)
}

// ServiceParams groups dependencies for the children service.
type ServiceParams struct {
	Repo      childRepository
	UserRepo  routeNamespace
}

// Service exposes business rules for child account management.
type Service interface {
	Create(ctx context.Context, parentID uuid.UUID, input CreateChildInput) (*ChildDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChildDTO, error)
	List(ctx context.Context) ([]ChildDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateChildInput) (*ChildDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     childRepository
	userRepo routeNamespace
}

// NewService builds a children service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "children repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	return &service{repo: params.Repo, userRepo: params.UserRepo}, nil
}

// Create validates the route slug and persists a new child owned by parentID.
func (s *service) Create(ctx context.Context, parentID uuid.UUID, input CreateChildInput) (*ChildDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Age != nil && *input.Age < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "age cannot be negative")
	}
	if input.TargetBudget != nil && input.TargetBudget.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target budget cannot be negative")
	}

	route := routes.Normalize(input.Route)
	if err := routes.Validate(route); err != nil {
		return nil, err
	}
	if err := s.ensureRouteFree(ctx, route, nil); err != nil {
		return nil, err
	}
	input.Route = route

	if parentID != uuid.Nil && !containsID(input.ParentIDs, parentID) {
		input.ParentIDs = append(input.ParentIDs, parentID)
	}

	child, err := s.repo.Create(ctx, input)
	if err != nil {
		if db.IsUniqueViolation(err, "children_route_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "route is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create child")
	}
	return FromModel(child), nil
}

// GetByID loads a single child.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ChildDTO, error) {
	child, err := s.loadChild(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(child), nil
}

// List returns every child account.
func (s *service) List(ctx context.Context) ([]ChildDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list children")
	}
	return FromModels(list), nil
}

// Update applies partial changes; a route change re-runs slug validation and
// the cross-namespace uniqueness check.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateChildInput) (*ChildDTO, error) {
	child, err := s.loadChild(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		child.Name = *input.Name
	}
	if input.Age != nil {
		if *input.Age < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "age cannot be negative")
		}
		child.Age = input.Age
	}
	if input.TargetBudget != nil {
		if input.TargetBudget.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target budget cannot be negative")
		}
		child.TargetBudget = input.TargetBudget
	}
	if input.Route != nil {
		route := routes.Normalize(*input.Route)
		if err := routes.Validate(route); err != nil {
			return nil, err
		}
		if route != child.Route {
			if err := s.ensureRouteFree(ctx, route, &child.ID); err != nil {
				return nil, err
			}
			child.Route = route
		}
	}
	if input.ParentIDs != nil {
		if len(*input.ParentIDs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a child needs at least one parent")
		}
		child.ParentIDs = dbtypes.UUIDArray(*input.ParentIDs)
	}

	if err := s.repo.Update(ctx, child); err != nil {
		if db.IsUniqueViolation(err, "children_route_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "route is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update child")
	}
	return FromModel(child), nil
}

// Delete removes the child. Their items and any reservations on those items
// cascade with the row.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadChild(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete child")
	}
	return nil
}

func (s *service) loadChild(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "child id is required")
	}
	child, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "child not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load child")
	}
	return child, nil
}

// ensureRouteFree checks both route namespaces so a child slug can never
// shadow a family member slug and vice versa.
func (s *service) ensureRouteFree(ctx context.Context, route string, excludeChildID *uuid.UUID) error {
	taken, err := s.repo.RouteExists(ctx, route, excludeChildID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check child routes")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "route is already taken")
	}
	taken, err = s.userRepo.RouteExists(ctx, route, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user routes")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "route is already taken")
	}
	return nil
}

func containsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range list {
		if candidate == id {
			return true
		}
	}
	return false
}
