package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// User holds parent accounts and family-member accounts. Parents carry a
// password hash; family members authenticate only through their route slug.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        *string    `gorm:"column:email;type:text;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null;default:''"`
	Role         enums.Role `gorm:"column:role;type:text;not null"`
	Route        *string    `gorm:"column:route;type:text;uniqueIndex:users_route_key"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
