package interfaces

import (
	"context"

	"museo-server/shared/models"

	"github.com/google/uuid"
)

// ProgressStore persists per-user room and hint status.
// Absent rows are reported as models.ErrNotFound by Get* and as zero values by Get*OrDefault.
// Flags are monotonic: Upsert* never turns a true flag back to false.
//
//go:generate mockery --name ProgressStore --output ./mocks --outpkg mocks --case=underscore
type ProgressStore interface {
	GetRoomStatus(ctx context.Context, querier DBTX, userID uuid.UUID, roomID int) (*models.UserRoomStatus, error)
	GetRoomStatusOrDefault(ctx context.Context, querier DBTX, userID uuid.UUID, roomID int) (models.UserRoomStatus, error)
	UpsertRoomStatus(ctx context.Context, querier DBTX, status models.UserRoomStatus) error
	ListRoomStatuses(ctx context.Context, querier DBTX, userID uuid.UUID) ([]models.UserRoomStatus, error)

	GetHintStatus(ctx context.Context, querier DBTX, userID uuid.UUID, hintID int) (*models.UserHintStatus, error)
	GetHintStatusOrDefault(ctx context.Context, querier DBTX, userID uuid.UUID, hintID int) (models.UserHintStatus, error)
	UpsertHintStatus(ctx context.Context, querier DBTX, status models.UserHintStatus) error
	ListHintStatuses(ctx context.Context, querier DBTX, userID uuid.UUID, hintIDs []int) ([]models.UserHintStatus, error)

	// CountCompletedHints counts completed hints of the user that belong to roomID.
	CountCompletedHints(ctx context.Context, querier DBTX, userID uuid.UUID, roomID int) (int, error)

	// The Mark*/Unlock* methods are compare-and-set transitions.
	// They report true only for the call that flipped the flag from false to true.
	MarkHintCompleted(ctx context.Context, querier DBTX, userID uuid.UUID, hintID int) (bool, error)
	MarkRoomCompleted(ctx context.Context, querier DBTX, userID uuid.UUID, roomID int) (bool, error)
	UnlockRoom(ctx context.Context, querier DBTX, userID uuid.UUID, roomID int) (bool, error)
}
