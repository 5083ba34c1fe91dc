package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// Item is a single wishlist entry. Exactly one of ChildID/ParentID is set;
// the migration backs this with a CHECK constraint and the service validates
// it again through the Owner sum type.
type Item struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title            string           `gorm:"column:title;not null"`
	Description      *string          `gorm:"column:description"`
	URL              *string          `gorm:"column:url"`
	Price            decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL         *string          `gorm:"column:image_url"`
	ImageContentType *string          `gorm:"column:image_content_type"`
	Status           enums.ItemStatus `gorm:"column:status;type:text;not null;default:'pending';index:items_status_idx"`
	Priority         *int             `gorm:"column:priority"`
	FromSanta        bool             `gorm:"column:from_santa;not null;default:false"`
	ChildID          *uuid.UUID       `gorm:"column:child_id;type:uuid;index:items_child_id_idx"`
	ParentID         *uuid.UUID       `gorm:"column:parent_id;type:uuid;index:items_parent_id_idx"`
	ApprovedAt       *time.Time       `gorm:"column:approved_at"`
	Child            *Child           `gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE"`
	Parent           *User            `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Reservation      *Reservation     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
