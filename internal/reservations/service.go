package reservations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/feed"
	"github.com/mwhitfield/wishlist-backend/pkg/metrics"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

type reservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, filters ListFilters) ([]models.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetPurchased(ctx context.Context, id uuid.UUID, purchased bool) error
}

type itemLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// ServiceParams groups dependencies for the reservations service.
type ServiceParams struct {
	Repo     reservationRepository
	ItemRepo itemLoader
	Notifier feed.Notifier
	Metrics  *metrics.APIMetrics
}

// Service exposes business rules for the reservation ledger.
type Service interface {
	Reserve(ctx context.Context, actor types.Actor, itemID uuid.UUID) (*ReservationDTO, error)
	Unreserve(ctx context.Context, actor types.Actor, id uuid.UUID) error
	SetPurchased(ctx context.Context, actor types.Actor, id uuid.UUID, purchased bool) (*ReservationDTO, error)
	List(ctx context.Context, actor types.Actor, filters ListFilters) ([]ReservationDTO, error)
}

type service struct {
	repo     reservationRepository
	itemRepo itemLoader
	notifier feed.Notifier
	metrics  *metrics.APIMetrics
}

// NewService builds a reservations service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservations repo is required")
	}
	if params.ItemRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items repo is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed notifier is required")
	}
	return &service{
		repo:     params.Repo,
		itemRepo: params.ItemRepo,
		notifier: params.Notifier,
		metrics:  params.Metrics,
	}, nil
}

// Reserve claims an item for the actor. The pre-check gives racing callers a
// friendly answer in the common case; the unique index on item_id settles
// the race authoritatively.
func (s *service) Reserve(ctx context.Context, actor types.Actor, itemID uuid.UUID) (*ReservationDTO, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if actor.IsChild() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "children cannot reserve items")
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	if item.Status != enums.ItemStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only approved items can be reserved")
	}
	if item.FromSanta && !actor.IsParent() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if item.ParentID != nil && *item.ParentID == actor.ID && !item.FromSanta {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot reserve an item on your own list")
	}

	if item.Reservation != nil {
		s.metrics.IncReservationConflict("precheck")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this item is already reserved")
	}

	reservation := &models.Reservation{
		ItemID:     itemID,
		ReservedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		if db.IsUniqueViolation(err, "reservations_item_id_key") {
			s.metrics.IncReservationConflict("race")
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "this item was just reserved by another family member")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
	}

	s.notifier.Notify(ctx, feed.CollectionReservations, feed.ActionCreated, reservation.ID.String())
	return FromModel(reservation, item), nil
}

// Unreserve releases the claim. Only the holder can release it.
func (s *service) Unreserve(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return err
	}
	if reservation.ReservedBy != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the reserver can release a reservation")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reservation")
	}
	s.notifier.Notify(ctx, feed.CollectionReservations, feed.ActionDeleted, id.String())
	return nil
}

// SetPurchased flips the purchased flag on the holder's own claim.
func (s *service) SetPurchased(ctx context.Context, actor types.Actor, id uuid.UUID, purchased bool) (*ReservationDTO, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.ReservedBy != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the reserver can mark a purchase")
	}
	if err := s.repo.SetPurchased(ctx, id, purchased); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation")
	}
	reservation.Purchased = purchased
	s.notifier.Notify(ctx, feed.CollectionReservations, feed.ActionUpdated, id.String())
	return FromModel(reservation, nil), nil
}

// List returns reservations the actor may see. Children never see the
// ledger; what is reserved for them stays a surprise.
func (s *service) List(ctx context.Context, actor types.Actor, filters ListFilters) ([]ReservationDTO, error) {
	if actor.IsChild() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reservations are hidden from children")
	}

	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	out := make([]ReservationDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i], list[i].Item))
	}
	return out, nil
}

func (s *service) loadReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return reservation, nil
}
