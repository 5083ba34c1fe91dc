package items

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// missingPrioritySentinel pushes rows without a priority behind every
// explicitly ordered row.
const missingPrioritySentinel = 999999

// Repository encapsulates item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the item row.
func (r *Repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID loads an item with its owner and reservation expansions.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Preload("Child").
		Preload("Parent").
		Preload("Reservation").
		Preload("Reservation.Reserver").
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items matching the filters, ordered priority ascending with
// unprioritized rows last, then newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Item, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Preload("Child").
		Preload("Parent").
		Preload("Reservation").
		Preload("Reservation.Reserver")

	if filters.ChildID != nil {
		query = query.Where("child_id = ?", *filters.ChildID)
	}
	if filters.ParentID != nil {
		query = query.Where("parent_id = ?", *filters.ParentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ApprovedOnly {
		query = query.Where("status = ?", enums.ItemStatusApproved)
	}
	if !filters.IncludeSanta {
		query = query.Where("from_santa = ?", false)
	}

	var list []models.Item
	if err := query.
		Order(fmt.Sprintf("COALESCE(priority, %d) ASC", missingPrioritySentinel)).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update persists the provided item model.
func (r *Repository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes the item row; its reservation cascades.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error
}

// MaxSiblingPriority returns the highest priority on the owner's list, or
// nil when no sibling has one.
func (r *Repository) MaxSiblingPriority(ctx context.Context, owner Owner) (*int, error) {
	var row struct {
		Max *int
	}
	query := r.db.WithContext(ctx).Model(&models.Item{}).Select("MAX(priority) AS max")
	childID, parentID := owner.Columns()
	if childID != nil {
		query = query.Where("child_id = ?", *childID)
	} else if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	}
	if err := query.Scan(&row).Error; err != nil {
		return nil, err
	}
	return row.Max, nil
}

// UpdatePriorities applies the full set of position changes in one
// transaction so a failed permutation never half-applies.
func (r *Repository) UpdatePriorities(ctx context.Context, updates []PriorityUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			result := tx.Model(&models.Item{}).
				Where("id = ?", update.ItemID).
				UpdateColumn("priority", update.Priority)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

// SendToTop gives the item priority 0 and shifts every sibling down by one,
// preserving their relative order.
func (r *Repository) SendToTop(ctx context.Context, itemID uuid.UUID, owner Owner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		siblings := tx.Model(&models.Item{}).Where("id <> ?", itemID)
		childID, parentID := owner.Columns()
		if childID != nil {
			siblings = siblings.Where("child_id = ?", *childID)
		} else if parentID != nil {
			siblings = siblings.Where("parent_id = ?", *parentID)
		}

		var ordered []models.Item
		if err := siblings.
			Select("id", "priority", "created_at").
			Order(fmt.Sprintf("COALESCE(priority, %d) ASC", missingPrioritySentinel)).
			Order("created_at DESC").
			Find(&ordered).Error; err != nil {
			return err
		}

		for index := range ordered {
			if err := tx.Model(&models.Item{}).
				Where("id = ?", ordered[index].ID).
				UpdateColumn("priority", index+1).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.Item{}).Where("id = ?", itemID).UpdateColumn("priority", 0)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FixMissingPriorities backfills nil priorities per owner list, appending
// them after the highest existing priority in creation order.
func (r *Repository) FixMissingPriorities(ctx context.Context, owner Owner) (int, error) {
	fixed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := func(q *gorm.DB) *gorm.DB {
			childID, parentID := owner.Columns()
			if childID != nil {
				return q.Where("child_id = ?", *childID)
			}
			if parentID != nil {
				return q.Where("parent_id = ?", *parentID)
			}
			return q
		}

		var row struct {
			Max *int
		}
		if err := scope(tx.Model(&models.Item{})).Select("MAX(priority) AS max").Scan(&row).Error; err != nil {
			return err
		}
		next := 0
		if row.Max != nil {
			next = *row.Max + 1
		}

		var missing []models.Item
		if err := scope(tx.Model(&models.Item{})).
			Select("id", "created_at").
			Where("priority IS NULL").
			Order("created_at ASC").
			Find(&missing).Error; err != nil {
			return err
		}

		for i := range missing {
			if err := tx.Model(&models.Item{}).
				Where("id = ?", missing[i].ID).
				UpdateColumn("priority", next).Error; err != nil {
				return err
			}
			next++
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}

// UpdateStatus persists only the status transition fields.
func (r *Repository) UpdateStatus(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", item.ID).
		Select("status", "approved_at", "updated_at").
		Updates(map[string]any{
			"status":      item.Status,
			"approved_at": item.ApprovedAt,
			"updated_at":  time.Now().UTC(),
		}).Error
}
