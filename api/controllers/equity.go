package controllers

import (
	"net/http"

	"github.com/mwhitfield/wishlist-backend/api/responses"
	"github.com/mwhitfield/wishlist-backend/internal/equity"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
)

// EquitySnapshot recomputes the cross-child fairness figures on every call.
func EquitySnapshot(svc equity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.Snapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
