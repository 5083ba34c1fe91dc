package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is one family member's claim on one item. The unique index on
// item_id is what enforces at-most-one-reservation-per-item; the service
// relies on the constraint, not on its pre-check.
type Reservation struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:reservations_item_id_key"`
	ReservedBy uuid.UUID `gorm:"column:reserved_by;type:uuid;not null;index:reservations_reserved_by_idx"`
	Purchased  bool      `gorm:"column:purchased;not null;default:false"`
	Item       *Item     `gorm:"foreignKey:ItemID"`
	Reserver   *User     `gorm:"foreignKey:ReservedBy"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
