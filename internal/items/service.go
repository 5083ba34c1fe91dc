package items

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/internal/images"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/feed"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, filters ListFilters) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	MaxSiblingPriority(ctx context.Context, owner Owner) (*int, error)
	UpdatePriorities(ctx context.Context, updates []PriorityUpdate) error
	SendToTop(ctx context.Context, itemID uuid.UUID, owner Owner) error
	FixMissingPriorities(ctx context.Context, owner Owner) (int, error)
	UpdateStatus(ctx context.Context, item *models.Item) error
}

type childFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Child, error)
}

type imageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*images.Result, error)
}

// ServiceParams groups dependencies for the items service.
type ServiceParams struct {
	Repo      itemRepository
	ChildRepo childFinder
	Images    imageFetcher
	Notifier  feed.Notifier
}

// FixPrioritiesInput selects the owner list to backfill.
type FixPrioritiesInput struct {
	ChildID  *uuid.UUID
	ParentID *uuid.UUID
}

// Service exposes business rules for the item lifecycle.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateItemInput) (*ItemDTO, string, error)
	GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*ItemDTO, error)
	List(ctx context.Context, actor types.Actor, filters ListFilters) ([]ItemDTO, error)
	ListApproved(ctx context.Context, actor types.Actor) ([]ItemDTO, error)
	Update(ctx context.Context, actor types.Actor, id uuid.UUID, input UpdateItemInput) (*ItemDTO, string, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
	ChangeStatus(ctx context.Context, actor types.Actor, id uuid.UUID, to enums.ItemStatus) (*ItemDTO, error)
	UpdatePriorities(ctx context.Context, actor types.Actor, updates []PriorityUpdate) error
	SendToTop(ctx context.Context, actor types.Actor, id uuid.UUID) error
	FixMissingPriorities(ctx context.Context, actor types.Actor, input FixPrioritiesInput) (int, error)
}

type service struct {
	repo      itemRepository
	childRepo childFinder
	images    imageFetcher
	notifier  feed.Notifier
}

// NewService builds an items service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items repo is required")
	}
	if params.ChildRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "children repo is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed notifier is required")
	}
	return &service{
		repo:      params.Repo,
		childRepo: params.ChildRepo,
		images:    params.Images,
		notifier:  params.Notifier,
	}, nil
}

// Create validates ownership, applies the initial status, assigns the next
// priority slot, and best-effort acquires the external image. The returned
// warning is non-empty when the image could not be fetched; the item is
// still created without it.
func (s *service) Create(ctx context.Context, actor types.Actor, input CreateItemInput) (*ItemDTO, string, error) {
	if input.Title == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	owner, err := OwnerFromIDs(input.ChildID, input.ParentID)
	if err != nil {
		return nil, "", err
	}

	switch actor.Role {
	case enums.RoleChild:
		if !owner.IsChild() || owner.ID() != actor.ID {
			return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "children can only add items to their own list")
		}
		if input.FromSanta {
			return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "only parents can add secret santa items")
		}
	case enums.RoleParent:
		if owner.IsParent() && owner.ID() != actor.ID {
			return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "parents can only add items to their own list")
		}
		if input.FromSanta && !owner.IsChild() {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "secret santa items live on a child's list")
		}
	default:
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "family members cannot create items")
	}

	if owner.IsChild() {
		if _, err := s.childRepo.FindByID(ctx, owner.ID()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "child not found")
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load child")
		}
	}

	priority, err := s.nextPriority(ctx, owner)
	if err != nil {
		return nil, "", err
	}

	childID, parentID := owner.Columns()
	item := &models.Item{
		Title:       input.Title,
		Description: input.Description,
		URL:         input.URL,
		Price:       input.Price,
		Status:      enums.ItemStatusPending,
		Priority:    &priority,
		FromSanta:   input.FromSanta,
		ChildID:     childID,
		ParentID:    parentID,
	}

	// parent-owned entries and santa gifts skip review
	if owner.IsParent() || input.FromSanta {
		stamp := time.Now().UTC()
		item.Status = enums.ItemStatusApproved
		item.ApprovedAt = &stamp
	}

	warning := ""
	if input.ImageURL != nil && *input.ImageURL != "" && s.images != nil {
		if result, err := s.images.Fetch(ctx, *input.ImageURL); err != nil {
			warning = "image could not be fetched; item saved without it"
		} else {
			item.ImageURL = input.ImageURL
			item.ImageContentType = &result.ContentType
		}
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionCreated, item.ID.String())
	return FromModel(item), warning, nil
}

// GetByID loads an item the actor is allowed to see.
func (s *service) GetByID(ctx context.Context, actor types.Actor, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.FromSanta && !actor.IsParent() {
		// hidden items are indistinguishable from missing ones
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return FromModel(item), nil
}

// List returns items scoped to what the actor may see. Children are pinned
// to their own list; family members see approved items only; santa rows
// never leave the parent view.
func (s *service) List(ctx context.Context, actor types.Actor, filters ListFilters) ([]ItemDTO, error) {
	switch actor.Role {
	case enums.RoleParent:
		// parents see everything, including the santa rows they planted
		filters.IncludeSanta = true
	case enums.RoleChild:
		ownID := actor.ID
		filters.ChildID = &ownID
		filters.ParentID = nil
		filters.IncludeSanta = false
	default:
		filters.ApprovedOnly = true
		filters.IncludeSanta = false
	}

	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return FromModels(list), nil
}

// ListApproved is the family-facing view of every reviewable list. Santa
// rows stay off this surface for every role, parents included.
func (s *service) ListApproved(ctx context.Context, actor types.Actor) ([]ItemDTO, error) {
	filters := ListFilters{ApprovedOnly: true}
	if actor.Role == enums.RoleChild {
		ownID := actor.ID
		filters.ChildID = &ownID
	}
	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return FromModels(list), nil
}

// Update applies partial edits under the role policy: parents edit anything,
// children only their own still-pending entries. Like Create, a failed image
// fetch degrades to a warning and the other edits still land.
func (s *service) Update(ctx context.Context, actor types.Actor, id uuid.UUID, input UpdateItemInput) (*ItemDTO, string, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch actor.Role {
	case enums.RoleParent:
	case enums.RoleChild:
		if item.ChildID == nil || *item.ChildID != actor.ID {
			return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "children can only edit their own items")
		}
		if item.Status != enums.ItemStatusPending {
			return nil, "", pkgerrors.New(pkgerrors.CodeStateConflict, "only pending items can be edited")
		}
	default:
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "family members cannot edit items")
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		item.Title = *input.Title
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.URL != nil {
		item.URL = input.URL
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		item.Price = *input.Price
	}

	warning := ""
	if input.ImageURL != nil {
		if *input.ImageURL == "" {
			item.ImageURL = nil
			item.ImageContentType = nil
		} else if s.images != nil {
			if result, err := s.images.Fetch(ctx, *input.ImageURL); err != nil {
				warning = "image could not be fetched; item saved without it"
			} else {
				item.ImageURL = input.ImageURL
				item.ImageContentType = &result.ContentType
			}
		}
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionUpdated, item.ID.String())
	return FromModel(item), warning, nil
}

// Delete enforces the removal policy: pending rows go freely, approved rows
// only off a parent's own list or when they are santa gifts.
func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return err
	}

	switch actor.Role {
	case enums.RoleChild:
		if item.ChildID == nil || *item.ChildID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "children can only remove their own items")
		}
		if item.Status != enums.ItemStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "approved items stay on the list until a parent removes them")
		}
	case enums.RoleParent:
		if item.Status == enums.ItemStatusApproved && !item.FromSanta {
			ownList := item.ParentID != nil && *item.ParentID == actor.ID
			if !ownList {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "unapprove the item before deleting it")
			}
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "family members cannot delete items")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionDeleted, id.String())
	return nil
}

// ChangeStatus walks one edge of the status machine. Moving an approved item
// back to pending is blocked while someone holds a reservation on it.
func (s *service) ChangeStatus(ctx context.Context, actor types.Actor, id uuid.UUID, to enums.ItemStatus) (*ItemDTO, error) {
	if !actor.IsParent() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only parents review items")
	}

	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if item.Status == enums.ItemStatusApproved && to == enums.ItemStatusPending && item.Reservation != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item has an active reservation; ask the reserver to release it first")
	}

	if err := applyTransition(item, to, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionUpdated, item.ID.String())
	return FromModel(item), nil
}

// UpdatePriorities applies a bulk reorder in a single transaction. Every
// referenced item must sit on a list the actor controls.
func (s *service) UpdatePriorities(ctx context.Context, actor types.Actor, updates []PriorityUpdate) error {
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no priority updates supplied")
	}

	seen := make(map[uuid.UUID]struct{}, len(updates))
	for _, update := range updates {
		if update.ItemID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
		}
		if update.Priority < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "priority cannot be negative")
		}
		if _, dup := seen[update.ItemID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate item in priority update")
		}
		seen[update.ItemID] = struct{}{}

		item, err := s.loadItem(ctx, update.ItemID)
		if err != nil {
			return err
		}
		if err := s.ensureListControl(actor, item); err != nil {
			return err
		}
	}

	if err := s.repo.UpdatePriorities(ctx, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update priorities")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionUpdated, "")
	return nil
}

// SendToTop moves the item to position zero and shifts its siblings down.
func (s *service) SendToTop(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureListControl(actor, item); err != nil {
		return err
	}
	owner, err := OwnerFromIDs(item.ChildID, item.ParentID)
	if err != nil {
		return err
	}
	if err := s.repo.SendToTop(ctx, id, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send item to top")
	}
	s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionUpdated, id.String())
	return nil
}

// FixMissingPriorities backfills nil priorities on one list, in creation
// order after the highest assigned slot.
func (s *service) FixMissingPriorities(ctx context.Context, actor types.Actor, input FixPrioritiesInput) (int, error) {
	owner, err := OwnerFromIDs(input.ChildID, input.ParentID)
	if err != nil {
		return 0, err
	}
	switch actor.Role {
	case enums.RoleParent:
	case enums.RoleChild:
		if !owner.IsChild() || owner.ID() != actor.ID {
			return 0, pkgerrors.New(pkgerrors.CodeForbidden, "children can only fix their own list")
		}
	default:
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "family members cannot reorder items")
	}

	fixed, err := s.repo.FixMissingPriorities(ctx, owner)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fix priorities")
	}
	if fixed > 0 {
		s.notifier.Notify(ctx, feed.CollectionItems, feed.ActionUpdated, "")
	}
	return fixed, nil
}

func (s *service) nextPriority(ctx context.Context, owner Owner) (int, error) {
	max, err := s.repo.MaxSiblingPriority(ctx, owner)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling priorities")
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func (s *service) loadItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) ensureListControl(actor types.Actor, item *models.Item) error {
	switch actor.Role {
	case enums.RoleParent:
		return nil
	case enums.RoleChild:
		if item.ChildID != nil && *item.ChildID == actor.ID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "children can only reorder their own list")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "family members cannot reorder items")
	}
}
