package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/api/middleware"
	"github.com/mwhitfield/wishlist-backend/api/responses"
	"github.com/mwhitfield/wishlist-backend/api/validators"
	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
)

type itemCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	URL         *string         `json:"url,omitempty" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	FromSanta   bool            `json:"from_santa"`
	ChildID     *uuid.UUID      `json:"child_id,omitempty"`
	ParentID    *uuid.UUID      `json:"parent_id,omitempty"`
}

type itemUpdateRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	URL         *string          `json:"url,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
}

type itemWriteResponse struct {
	Item         *items.ItemDTO `json:"item"`
	ImageWarning string         `json:"image_warning,omitempty"`
}

type prioritiesRequest struct {
	Updates []items.PriorityUpdate `json:"updates" validate:"required,min=1,dive"`
}

type fixPrioritiesRequest struct {
	ChildID  *uuid.UUID `json:"child_id,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ItemsCreate adds an item to a wishlist. Image acquisition is best effort:
// a failure surfaces as image_warning, never as an error.
func ItemsCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body itemCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, warning, err := svc.Create(r.Context(), actor, items.CreateItemInput{
			Title:       body.Title,
			Description: body.Description,
			URL:         body.URL,
			Price:       body.Price,
			ImageURL:    body.ImageURL,
			FromSanta:   body.FromSanta,
			ChildID:     body.ChildID,
			ParentID:    body.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, itemWriteResponse{
			Item:         dto,
			ImageWarning: warning,
		})
	}
}

// ItemsList returns items visible to the caller, honoring role-based santa
// and approval filtering in the service.
func ItemsList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		filters, err := parseItemFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ItemsListApproved is the family-facing list: approved items only, never
// santa surprises.
func ItemsListApproved(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		list, err := svc.ListApproved(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ItemsGet returns a single item, subject to santa visibility.
func ItemsGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ItemsUpdate applies partial edits under the ownership policy. A failed
// image fetch surfaces as image_warning, same as on create.
func ItemsUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, warning, err := svc.Update(r.Context(), actor, id, items.UpdateItemInput{
			Title:       body.Title,
			Description: body.Description,
			URL:         body.URL,
			Price:       body.Price,
			ImageURL:    body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, itemWriteResponse{
			Item:         dto,
			ImageWarning: warning,
		})
	}
}

// ItemsDelete removes an item under the lifecycle policy.
func ItemsDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ItemsChangeStatus maps the four review endpoints onto the status machine.
func ItemsChangeStatus(svc items.Service, logg *logger.Logger, to enums.ItemStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.ChangeStatus(r.Context(), actor, id, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ItemsPriorities applies a bulk priority permutation in one transaction.
func ItemsPriorities(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body prioritiesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdatePriorities(r.Context(), actor, body.Updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ItemsSendToTop moves one item to priority 0 and shifts its siblings.
func ItemsSendToTop(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SendToTop(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ItemsFixPriorities backfills missing priorities within one owner scope.
func ItemsFixPriorities(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body fixPrioritiesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fixed, err := svc.FixMissingPriorities(r.Context(), actor, items.FixPrioritiesInput{
			ChildID:  body.ChildID,
			ParentID: body.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"fixed": fixed})
	}
}

func parseItemFilters(r *http.Request) (items.ListFilters, error) {
	filters := items.ListFilters{}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("child_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid child_id")
		}
		filters.ChildID = &id
	}
	if raw := strings.TrimSpace(query.Get("parent_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent_id")
		}
		filters.ParentID = &id
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseItemStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	return filters, nil
}
