package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
)

// Repository encapsulates reservation persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reservations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the claim. The unique index on item_id makes this the
// single authoritative arbiter when two callers race for the same item.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindByID loads a reservation with its reserver expansion.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Reserver").
		First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByItem loads the claim on an item if one exists.
func (r *Repository) FindByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Reserver").
		Where("item_id = ?", itemID).
		First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// List returns reservations matching the filters, newest first, with the
// item and reserver expansions loaded.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Preload("Item").
		Preload("Item.Child").
		Preload("Reserver")

	if filters.ReservedBy != nil {
		query = query.Where("reserved_by = ?", *filters.ReservedBy)
	}
	if filters.ItemID != nil {
		query = query.Where("item_id = ?", *filters.ItemID)
	}
	if filters.ChildID != nil {
		query = query.Where("item_id IN (?)", r.db.Model(&models.Item{}).Select("id").Where("child_id = ?", *filters.ChildID))
	}

	var list []models.Reservation
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the claim.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id).Error
}

// SetPurchased flips the purchased flag.
func (r *Repository) SetPurchased(ctx context.Context, id uuid.UUID, purchased bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		UpdateColumn("purchased", purchased).Error
}
