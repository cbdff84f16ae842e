package interfaces

import (
	"context"

	"museo-server/shared/models"

	"github.com/google/uuid"
)

// UserAccount gives the progress service access to the points-bearing part of a user.
//
//go:generate mockery --name UserAccount --output ./mocks --outpkg mocks --case=underscore
type UserAccount interface {
	// GetUser returns models.ErrUserNotFound if the user does not exist.
	GetUser(ctx context.Context, querier DBTX, userID uuid.UUID) (*models.User, error)
	// LockUser loads the user and takes a row lock held until the surrounding
	// transaction ends. Returns models.ErrUserNotFound if the user does not exist.
	LockUser(ctx context.Context, querier DBTX, userID uuid.UUID) (*models.User, error)
	// AddPoints atomically increments total_points by delta and returns the new total.
	AddPoints(ctx context.Context, querier DBTX, userID uuid.UUID, delta int) (int, error)
	// GetStanding returns the 1-based position of a user holding points among all active users.
	GetStanding(ctx context.Context, querier DBTX, points int) (int, error)
}
