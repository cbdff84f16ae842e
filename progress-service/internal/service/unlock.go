package service

import (
	"context"
	"fmt"

	"museo-server/shared/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UnlockEngine opens the room that follows a completed one.
type UnlockEngine struct {
	catalog interfaces.RoomCatalog
	store   interfaces.ProgressStore
	logger  *zap.Logger
}

func NewUnlockEngine(catalog interfaces.RoomCatalog, store interfaces.ProgressStore, logger *zap.Logger) *UnlockEngine {
	return &UnlockEngine{
		catalog: catalog,
		store:   store,
		logger:  logger.Named("UnlockEngine"),
	}
}

// UnlockNextRoomIfNeeded unlocks the room with the smallest id greater than
// completedRoomID. It returns that room's id only when this call unlocked it;
// a missing next room or an already unlocked one yields nil. Points are never touched.
func (e *UnlockEngine) UnlockNextRoomIfNeeded(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, completedRoomID int) (*int, error) {
	nextID, ok, err := e.catalog.GetNextRoomID(ctx, completedRoomID)
	if err != nil {
		return nil, fmt.Errorf("resolve room after %d: %w", completedRoomID, err)
	}
	if !ok {
		e.logger.Debug("No room after completed room", zap.Int("roomID", completedRoomID))
		return nil, nil
	}

	unlocked, err := e.store.UnlockRoom(ctx, querier, userID, nextID)
	if err != nil {
		return nil, fmt.Errorf("unlock room %d: %w", nextID, err)
	}
	if !unlocked {
		return nil, nil
	}
	e.logger.Info("Room unlocked", zap.Stringer("userID", userID), zap.Int("roomID", nextID))
	return &nextID, nil
}
