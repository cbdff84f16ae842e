package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is private so other packages cannot collide with these keys.
type contextKey string

const (
	// UserContextKey stores the authenticated user's uuid.UUID.
	UserContextKey contextKey = "userID"
	// RolesContextKey stores the authenticated user's []string roles.
	RolesContextKey contextKey = "userRoles"
)

// GetUserIDFromContext extracts the user ID put there by the auth middleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GetRolesFromContext extracts the user's roles.
func GetRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(RolesContextKey).([]string)
	return roles, ok
}

// WithUser returns a copy of ctx carrying the user ID and roles.
func WithUser(ctx context.Context, userID uuid.UUID, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, userID)
	return context.WithValue(ctx, RolesContextKey, roles)
}
