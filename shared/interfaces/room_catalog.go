package interfaces

import (
	"context"

	"museo-server/shared/models"
)

// RoomCatalog gives read access to the static room and hint catalog.
//
//go:generate mockery --name RoomCatalog --output ./mocks --outpkg mocks --case=underscore
type RoomCatalog interface {
	// GetRoom returns models.ErrRoomNotFound if the room does not exist.
	GetRoom(ctx context.Context, roomID int) (*models.Room, error)
	// GetHint returns models.ErrHintNotFound if the hint does not exist.
	GetHint(ctx context.Context, hintID int) (*models.Hint, error)
	// GetNextRoomID returns the smallest room id greater than roomID.
	// ok is false when roomID is the last room.
	GetNextRoomID(ctx context.Context, roomID int) (nextID int, ok bool, err error)
	// ListRooms returns all rooms ordered by id.
	ListRooms(ctx context.Context) ([]models.Room, error)
	// ListHintsForRoom returns the hints of a room ordered by id.
	ListHintsForRoom(ctx context.Context, roomID int) ([]models.Hint, error)
	CountHintsForRoom(ctx context.Context, roomID int) (int, error)
}

// CatalogInvalidator is implemented by caching catalogs.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}
