package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/mwhitfield/wishlist-backend/pkg/db/types"
)

// Child is a kid whose wishlist is reviewed by their parents. The route slug
// doubles as their passwordless login key.
type Child struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Age          *int              `gorm:"column:age"`
	Route        string            `gorm:"column:route;type:text;not null;uniqueIndex:children_route_key"`
	TargetBudget *decimal.Decimal  `gorm:"column:target_budget;type:numeric(10,2)"`
	ParentIDs    dbtypes.UUIDArray `gorm:"type:uuid[];column:parent_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
