package items

import (
	"time"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

// legalTransitions is the full status machine. Anything absent here is
// rejected server-side regardless of what the client asked for.
var legalTransitions = map[enums.ItemStatus][]enums.ItemStatus{
	enums.ItemStatusPending:  {enums.ItemStatusApproved, enums.ItemStatusRejected},
	enums.ItemStatusApproved: {enums.ItemStatusPending},
	enums.ItemStatusRejected: {enums.ItemStatusPending},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to enums.ItemStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// applyTransition mutates the item's status and approval timestamp. Entering
// approved stamps approved_at; leaving it clears the stamp.
func applyTransition(item *models.Item, to enums.ItemStatus, now time.Time) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown item status")
	}
	if !CanTransition(item.Status, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move item from "+item.Status.String()+" to "+to.String())
	}

	item.Status = to
	switch to {
	case enums.ItemStatusApproved:
		stamp := now.UTC()
		item.ApprovedAt = &stamp
	default:
		item.ApprovedAt = nil
	}
	return nil
}
