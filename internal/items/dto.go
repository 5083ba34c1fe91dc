package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/internal/children"
	"github.com/mwhitfield/wishlist-backend/internal/users"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// ReservationSummary is the embedded view of a claim on an item.
type ReservationSummary struct {
	ID           uuid.UUID `json:"id"`
	ReservedBy   uuid.UUID `json:"reserved_by"`
	ReserverName string    `json:"reserver_name,omitempty"`
	Purchased    bool      `json:"purchased"`
	CreatedAt    time.Time `json:"created_at"`
}

// ItemDTO is the transport shape for a wishlist item with its expansions.
type ItemDTO struct {
	ID               uuid.UUID           `json:"id"`
	Title            string              `json:"title"`
	Description      *string             `json:"description,omitempty"`
	URL              *string             `json:"url,omitempty"`
	Price            decimal.Decimal     `json:"price"`
	ImageURL         *string             `json:"image_url,omitempty"`
	ImageContentType *string             `json:"image_content_type,omitempty"`
	Status           enums.ItemStatus    `json:"status"`
	Priority         *int                `json:"priority,omitempty"`
	FromSanta        bool                `json:"from_santa"`
	OwnerKind        OwnerKind           `json:"owner_kind"`
	OwnerID          uuid.UUID           `json:"owner_id"`
	Child            *children.ChildDTO  `json:"child,omitempty"`
	Parent           *users.UserDTO      `json:"parent,omitempty"`
	Reservation      *ReservationSummary `json:"reservation,omitempty"`
	ApprovedAt       *time.Time          `json:"approved_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// CreateItemInput captures a new wishlist entry. Exactly one of ChildID and
// ParentID must be set.
type CreateItemInput struct {
	Title       string
	Description *string
	URL         *string
	Price       decimal.Decimal
	ImageURL    *string
	FromSanta   bool
	ChildID     *uuid.UUID
	ParentID    *uuid.UUID
}

// UpdateItemInput carries partial edits; nil fields are left untouched.
type UpdateItemInput struct {
	Title       *string
	Description *string
	URL         *string
	Price       *decimal.Decimal
	ImageURL    *string
}

// ListFilters narrows an item listing.
type ListFilters struct {
	ChildID      *uuid.UUID
	ParentID     *uuid.UUID
	Status       *enums.ItemStatus
	ApprovedOnly bool
	// IncludeSanta is only honored for parent callers; everyone else never
	// sees from_santa rows.
	IncludeSanta bool
}

// PriorityUpdate pairs an item with its new position.
type PriorityUpdate struct {
	ItemID   uuid.UUID `json:"item_id"`
	Priority int       `json:"priority"`
}

func FromModel(m *models.Item) *ItemDTO {
	if m == nil {
		return nil
	}

	dto := &ItemDTO{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		URL:              m.URL,
		Price:            m.Price,
		ImageURL:         m.ImageURL,
		ImageContentType: m.ImageContentType,
		Status:           m.Status,
		Priority:         m.Priority,
		FromSanta:        m.FromSanta,
		Child:            children.FromModel(m.Child),
		Parent:           users.FromModel(m.Parent),
		ApprovedAt:       m.ApprovedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if owner, err := OwnerFromIDs(m.ChildID, m.ParentID); err == nil {
		dto.OwnerKind = owner.Kind()
		dto.OwnerID = owner.ID()
	}
	if m.Reservation != nil {
		summary := &ReservationSummary{
			ID:         m.Reservation.ID,
			ReservedBy: m.Reservation.ReservedBy,
			Purchased:  m.Reservation.Purchased,
			CreatedAt:  m.Reservation.CreatedAt,
		}
		if m.Reservation.Reserver != nil {
			summary.ReserverName = m.Reservation.Reserver.Name
		}
		dto.Reservation = summary
	}
	return dto
}

func FromModels(list []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
