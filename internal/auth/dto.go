package auth

import (
	"github.com/mwhitfield/wishlist-backend/internal/users"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// LoginRequest captures the parent credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and profile produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RouteRequest carries the wishlist slug a visitor typed in.
type RouteRequest struct {
	Route string `json:"route" validate:"required"`
}

// RoutePerson is the minimal public profile behind a resolved route.
type RoutePerson struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Route string `json:"route"`
}

// RouteResponse reports whether a slug matched a child or family member.
// A miss is not an error: Resolved is false and the rest stays empty.
type RouteResponse struct {
	Resolved    bool         `json:"resolved"`
	Kind        enums.Role   `json:"kind,omitempty"`
	Person      *RoutePerson `json:"person,omitempty"`
	AccessToken string       `json:"access_token,omitempty"`
}
