package service

import (
	"context"
	"fmt"

	"museo-server/shared/interfaces"

	"github.com/google/uuid"
)

// CompletionEvaluator decides whether a user's hints complete a room.
type CompletionEvaluator struct {
	catalog interfaces.RoomCatalog
	store   interfaces.ProgressStore
}

func NewCompletionEvaluator(catalog interfaces.RoomCatalog, store interfaces.ProgressStore) *CompletionEvaluator {
	return &CompletionEvaluator{catalog: catalog, store: store}
}

// EvaluateRoomCompletion reports whether the room has at least one hint and
// every one of them is completed by the user. It does not write.
func (e *CompletionEvaluator) EvaluateRoomCompletion(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	total, err := e.catalog.CountHintsForRoom(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("count hints of room %d: %w", roomID, err)
	}
	if total == 0 {
		return false, nil
	}
	done, err := e.store.CountCompletedHints(ctx, querier, userID, roomID)
	if err != nil {
		return false, fmt.Errorf("count completed hints of room %d: %w", roomID, err)
	}
	return done >= total, nil
}
