package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// SubjectID is the user row for parents and family members, and the
// child row for child route sessions.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	Role      enums.Role
	Route     *string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to every session kind.
type AccessTokenClaims struct {
	SubjectID uuid.UUID  `json:"subject_id"`
	Role      enums.Role `json:"role"`
	Route     *string    `json:"route,omitempty"`
	jwt.RegisteredClaims
}
