package mocks

import (
	"context"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/stretchr/testify/mock"
)

// RoomCatalog is a testify mock for interfaces.RoomCatalog.
type RoomCatalog struct {
	mock.Mock
}

var _ interfaces.RoomCatalog = (*RoomCatalog)(nil)

func (m *RoomCatalog) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	var room *models.Room
	if r := args.Get(0); r != nil {
		room = r.(*models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomCatalog) GetHint(ctx context.Context, hintID int) (*models.Hint, error) {
	args := m.Called(ctx, hintID)
	var hint *models.Hint
	if h := args.Get(0); h != nil {
		hint = h.(*models.Hint)
	}
	return hint, args.Error(1)
}

func (m *RoomCatalog) GetNextRoomID(ctx context.Context, roomID int) (int, bool, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *RoomCatalog) ListRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	var rooms []models.Room
	if r := args.Get(0); r != nil {
		rooms = r.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomCatalog) ListHintsForRoom(ctx context.Context, roomID int) ([]models.Hint, error) {
	args := m.Called(ctx, roomID)
	var hints []models.Hint
	if h := args.Get(0); h != nil {
		hints = h.([]models.Hint)
	}
	return hints, args.Error(1)
}

func (m *RoomCatalog) CountHintsForRoom(ctx context.Context, roomID int) (int, error) {
	args := m.Called(ctx, roomID)
	return args.Int(0), args.Error(1)
}
