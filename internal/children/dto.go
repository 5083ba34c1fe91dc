package children

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
)

// ChildDTO is the transport shape for a child account.
type ChildDTO struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Age          *int             `json:"age,omitempty"`
	Route        string           `json:"route"`
	TargetBudget *decimal.Decimal `json:"target_budget,omitempty"`
	ParentIDs    []uuid.UUID      `json:"parent_ids"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateChildInput captures the fields a parent supplies for a new child.
type CreateChildInput struct {
	Name         string
	Age          *int
	Route        string
	TargetBudget *decimal.Decimal
	ParentIDs    []uuid.UUID
}

// UpdateChildInput carries partial updates; nil fields are left untouched.
type UpdateChildInput struct {
	Name         *string
	Age          *int
	Route        *string
	TargetBudget *decimal.Decimal
	ParentIDs    *[]uuid.UUID
}

func FromModel(c *models.Child) *ChildDTO {
	if c == nil {
		return nil
	}

	return &ChildDTO{
		ID:           c.ID,
		Name:         c.Name,
		Age:          c.Age,
		Route:        c.Route,
		TargetBudget: c.TargetBudget,
		ParentIDs:    append([]uuid.UUID(nil), []uuid.UUID(c.ParentIDs)...),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromModels(list []models.Child) []ChildDTO {
	out := make([]ChildDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
