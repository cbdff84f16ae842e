package interfaces

import (
	"context"

	"museo-server/shared/models"
)

// CatalogWriter creates or updates catalog entries. Rooms are matched by name,
// hints by (room_id, title); the stored id is written back into the argument.
type CatalogWriter interface {
	UpsertRoom(ctx context.Context, querier DBTX, room *models.Room) error
	UpsertHint(ctx context.Context, querier DBTX, hint *models.Hint) error
}

// UserWriter creates accounts for seeding and tests.
type UserWriter interface {
	// EnsureUser inserts the user unless one with the same email exists.
	// user.ID is set to the stored id in both cases.
	EnsureUser(ctx context.Context, querier DBTX, user *models.User) (created bool, err error)
}
