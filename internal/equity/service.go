package equity

import (
	"context"

	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/internal/reservations"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

type childLister interface {
	List(ctx context.Context) ([]models.Child, error)
}

type itemLister interface {
	List(ctx context.Context, filters items.ListFilters) ([]models.Item, error)
}

type reservationLister interface {
	List(ctx context.Context, filters reservations.ListFilters) ([]models.Reservation, error)
}

// Service exposes the equity snapshot. It only reads; the aggregation itself
// lives in Compute.
type Service interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type service struct {
	children     childLister
	items        itemLister
	reservations reservationLister
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Children     childLister
	Items        itemLister
	Reservations reservationLister
}

func NewService(params ServiceParams) (Service, error) {
	if params.Children == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "children repo is required")
	}
	if params.Items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items repo is required")
	}
	if params.Reservations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservations repo is required")
	}
	return &service{
		children:     params.Children,
		items:        params.Items,
		reservations: params.Reservations,
	}, nil
}

// Snapshot loads fresh rows and aggregates them. Santa items count too: the
// endpoint is parent-only, so nothing here leaks to children.
func (s *service) Snapshot(ctx context.Context) (*Snapshot, error) {
	childRows, err := s.children.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list children")
	}
	itemRows, err := s.items.List(ctx, items.ListFilters{IncludeSanta: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	reservationRows, err := s.reservations.List(ctx, reservations.ListFilters{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}

	snapshot := Compute(childRows, itemRows, reservationRows)
	return &snapshot, nil
}
