package types

import (
	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// Actor identifies the authenticated caller for domain-layer policy checks.
// ID is the user row for parents and family members, and the child row for
// child route sessions.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

func (a Actor) IsParent() bool       { return a.Role == enums.RoleParent }
func (a Actor) IsChild() bool        { return a.Role == enums.RoleChild }
func (a Actor) IsFamilyMember() bool { return a.Role == enums.RoleFamilyMember }
