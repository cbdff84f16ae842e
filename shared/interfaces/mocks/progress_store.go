package mocks

import (
	"context"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ProgressStore is a testify mock for interfaces.ProgressStore.
type ProgressStore struct {
	mock.Mock
}

var _ interfaces.ProgressStore = (*ProgressStore)(nil)

func (m *ProgressStore) GetRoomStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (*models.UserRoomStatus, error) {
	args := m.Called(ctx, querier, userID, roomID)
	var status *models.UserRoomStatus
	if s := args.Get(0); s != nil {
		status = s.(*models.UserRoomStatus)
	}
	return status, args.Error(1)
}

func (m *ProgressStore) GetRoomStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (models.UserRoomStatus, error) {
	args := m.Called(ctx, querier, userID, roomID)
	return args.Get(0).(models.UserRoomStatus), args.Error(1)
}

func (m *ProgressStore) UpsertRoomStatus(ctx context.Context, querier interfaces.DBTX, status models.UserRoomStatus) error {
	args := m.Called(ctx, querier, status)
	return args.Error(0)
}

func (m *ProgressStore) ListRoomStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) ([]models.UserRoomStatus, error) {
	args := m.Called(ctx, querier, userID)
	var statuses []models.UserRoomStatus
	if s := args.Get(0); s != nil {
		statuses = s.([]models.UserRoomStatus)
	}
	return statuses, args.Error(1)
}

func (m *ProgressStore) GetHintStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (*models.UserHintStatus, error) {
	args := m.Called(ctx, querier, userID, hintID)
	var status *models.UserHintStatus
	if s := args.Get(0); s != nil {
		status = s.(*models.UserHintStatus)
	}
	return status, args.Error(1)
}

func (m *ProgressStore) GetHintStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (models.UserHintStatus, error) {
	args := m.Called(ctx, querier, userID, hintID)
	return args.Get(0).(models.UserHintStatus), args.Error(1)
}

func (m *ProgressStore) UpsertHintStatus(ctx context.Context, querier interfaces.DBTX, status models.UserHintStatus) error {
	args := m.Called(ctx, querier, status)
	return args.Error(0)
}

func (m *ProgressStore) ListHintStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintIDs []int) ([]models.UserHintStatus, error) {
	args := m.Called(ctx, querier, userID, hintIDs)
	var statuses []models.UserHintStatus
	if s := args.Get(0); s != nil {
		statuses = s.([]models.UserHintStatus)
	}
	return statuses, args.Error(1)
}

func (m *ProgressStore) CountCompletedHints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (int, error) {
	args := m.Called(ctx, querier, userID, roomID)
	return args.Int(0), args.Error(1)
}

func (m *ProgressStore) MarkHintCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (bool, error) {
	args := m.Called(ctx, querier, userID, hintID)
	return args.Bool(0), args.Error(1)
}

func (m *ProgressStore) MarkRoomCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	args := m.Called(ctx, querier, userID, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *ProgressStore) UnlockRoom(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	args := m.Called(ctx, querier, userID, roomID)
	return args.Bool(0), args.Error(1)
}
