package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhitfield/wishlist-backend/api/middleware"
	"github.com/mwhitfield/wishlist-backend/api/responses"
	"github.com/mwhitfield/wishlist-backend/api/validators"
	"github.com/mwhitfield/wishlist-backend/internal/children"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
)

type childCreateRequest struct {
	Name         string           `json:"name" validate:"required,min=1,max=120"`
	Age          *int             `json:"age,omitempty" validate:"omitempty,min=0,max=21"`
	Route        string           `json:"route" validate:"required,min=1,max=64"`
	TargetBudget *decimal.Decimal `json:"target_budget,omitempty"`
	ParentIDs    []uuid.UUID      `json:"parent_ids,omitempty"`
}

type childUpdateRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Age          *int             `json:"age,omitempty" validate:"omitempty,min=0,max=21"`
	Route        *string          `json:"route,omitempty" validate:"omitempty,min=1,max=64"`
	TargetBudget *decimal.Decimal `json:"target_budget,omitempty"`
	ParentIDs    *[]uuid.UUID     `json:"parent_ids,omitempty"`
}

// ChildrenCreate registers a new child list owned by the calling parent.
func ChildrenCreate(svc children.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body childCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), actor.ID, children.CreateChildInput{
			Name:         body.Name,
			Age:          body.Age,
			Route:        body.Route,
			TargetBudget: body.TargetBudget,
			ParentIDs:    body.ParentIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ChildrenList returns every child.
func ChildrenList(svc children.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ChildrenGet returns a single child by id.
func ChildrenGet(svc children.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ChildrenUpdate applies partial edits to a child.
func ChildrenUpdate(svc children.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body childUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, children.UpdateChildInput{
			Name:         body.Name,
			Age:          body.Age,
			Route:        body.Route,
			TargetBudget: body.TargetBudget,
			ParentIDs:    body.ParentIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ChildrenDelete removes a child; items and reservations cascade in the DB.
func ChildrenDelete(svc children.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id")
	}
	return id, nil
}
