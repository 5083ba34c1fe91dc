package routes

import (
	"regexp"
	"strings"

	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Normalize lowercases and trims a route slug before validation or lookup.
// Route matching is case-insensitive everywhere, so slugs are stored and
// compared in lowercase.
func Normalize(route string) string {
	return strings.ToLower(strings.TrimSpace(route))
}

// Validate checks the normalized slug against the allowed alphabet.
func Validate(route string) error {
	if route == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "route is required")
	}
	if !slugRe.MatchString(route) {
		return pkgerrors.New(pkgerrors.CodeValidation, "route may only contain lowercase letters, digits, and hyphens")
	}
	return nil
}

// FamilyEmail derives the synthetic email stored for a family member whose
// only credential is their route slug.
func FamilyEmail(route string) string {
	return route + "@family.local"
}
