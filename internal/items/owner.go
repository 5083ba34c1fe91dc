package items

import (
	"github.com/google/uuid"

	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

// OwnerKind tags which list an item lives on.
type OwnerKind string

const (
	OwnerChild  OwnerKind = "child"
	OwnerParent OwnerKind = "parent"
)

// Owner is the exactly-one-of child/parent reference carried by every item.
// Constructing one through the helpers below is the only way to get a valid
// value, so an Owner in hand is already checked.
type Owner struct {
	kind OwnerKind
	id   uuid.UUID
}

// ChildOwner builds an owner pointing at a child's list.
func ChildOwner(childID uuid.UUID) (Owner, error) {
	if childID == uuid.Nil {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "child id is required")
	}
	return Owner{kind: OwnerChild, id: childID}, nil
}

// ParentOwner builds an owner pointing at a parent's own list.
func ParentOwner(parentID uuid.UUID) (Owner, error) {
	if parentID == uuid.Nil {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "parent id is required")
	}
	return Owner{kind: OwnerParent, id: parentID}, nil
}

// OwnerFromIDs validates the two optional references into an Owner. Exactly
// one must be set.
func OwnerFromIDs(childID, parentID *uuid.UUID) (Owner, error) {
	switch {
	case childID != nil && parentID != nil:
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "an item belongs to either a child or a parent, not both")
	case childID != nil:
		return ChildOwner(*childID)
	case parentID != nil:
		return ParentOwner(*parentID)
	default:
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "an item needs an owner")
	}
}

func (o Owner) Kind() OwnerKind { return o.kind }
func (o Owner) ID() uuid.UUID   { return o.id }

func (o Owner) IsChild() bool  { return o.kind == OwnerChild }
func (o Owner) IsParent() bool { return o.kind == OwnerParent }

// Columns splits the owner back into the two nullable DB references.
func (o Owner) Columns() (childID, parentID *uuid.UUID) {
	id := o.id
	switch o.kind {
	case OwnerChild:
		return &id, nil
	case OwnerParent:
		return nil, &id
	default:
		return nil, nil
	}
}
