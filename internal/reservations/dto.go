package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
)

// ReservationDTO is the transport shape for a reservation with expansions.
type ReservationDTO struct {
	ID           uuid.UUID      `json:"id"`
	ItemID       uuid.UUID      `json:"item_id"`
	ReservedBy   uuid.UUID      `json:"reserved_by"`
	ReserverName string         `json:"reserver_name,omitempty"`
	Purchased    bool           `json:"purchased"`
	Item         *items.ItemDTO `json:"item,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ListFilters narrows a reservation listing.
type ListFilters struct {
	ReservedBy *uuid.UUID
	ItemID     *uuid.UUID
	ChildID    *uuid.UUID
}

func FromModel(m *models.Reservation, item *models.Item) *ReservationDTO {
	if m == nil {
		return nil
	}
	dto := &ReservationDTO{
		ID:         m.ID,
		ItemID:     m.ItemID,
		ReservedBy: m.ReservedBy,
		Purchased:  m.Purchased,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Reserver != nil {
		dto.ReserverName = m.Reserver.Name
	}
	if item != nil {
		dto.Item = items.FromModel(item)
	}
	return dto
}
