package controllers

import (
	"net/http"

	"github.com/mwhitfield/wishlist-backend/api/responses"
	"github.com/mwhitfield/wishlist-backend/api/validators"
	"github.com/mwhitfield/wishlist-backend/internal/family"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
)

type familyCreateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Route string `json:"route" validate:"required,min=1,max=64"`
}

type familyUpdateRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Route *string `json:"route,omitempty" validate:"omitempty,min=1,max=64"`
}

// FamilyCreate registers a passwordless family member account.
func FamilyCreate(svc family.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body familyCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), family.CreateMemberInput{
			Name:  body.Name,
			Route: body.Route,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// FamilyList returns all family member accounts.
func FamilyList(svc family.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FamilyGet returns a single family member by id.
func FamilyGet(svc family.Service, logg *logger.Logger) http.HandlerFunc {
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

// FamilyUpdate applies partial edits to a family member.
func FamilyUpdate(svc family.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body familyUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, family.UpdateMemberInput{
			Name:  body.Name,
			Route: body.Route,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// FamilyDelete removes a family member; their reservations cascade.
func FamilyDelete(svc family.Service, logg *logger.Logger) http.HandlerFunc {
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
