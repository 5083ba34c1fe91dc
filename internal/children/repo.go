package children

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	dbtypes "github.com/mwhitfield/wishlist-backend/pkg/db/types"
)

// Repository encapsulates child persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a children repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a child row.
func (r *Repository) Create(ctx context.Context, input CreateChildInput) (*models.Child, error) {
	child := &models.Child{
		Name:         input.Name,
		Age:          input.Age,
		Route:        input.Route,
		TargetBudget: input.TargetBudget,
		ParentIDs:    dbtypes.UUIDArray(input.ParentIDs),
	}
	if err := r.db.WithContext(ctx).Create(child).Error; err != nil {
		return nil, err
	}
	return child, nil
}

// FindByID loads a child by UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	var child models.Child
	if err := r.db.WithContext(ctx).First(&child, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

// FindByRoute loads the child owning the given route slug.
func (r *Repository) FindByRoute(ctx context.Context, route string) (*models.Child, error) {
	var child models.Child
	if err := r.db.WithContext(ctx).Where("route = ?", route).First(&child).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

// List returns every child, name ascending.
func (r *Repository) List(ctx context.Context) ([]models.Child, error) {
	var list []models.Child
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update persists the provided child model.
func (r *Repository) Update(ctx context.Context, child *models.Child) error {
	return r.db.WithContext(ctx).Save(child).Error
}

// Delete removes the child row. Items (and their reservations) cascade at
// the DB level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Child{}, "id = ?", id).Error
}

// RouteExists reports whether any child already owns the route slug.
func (r *Repository) RouteExists(ctx context.Context, route string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Child{}).Where("route = ?", route)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
