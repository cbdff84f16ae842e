package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEventType names a committed progress transition.
type ProgressEventType string

const (
	EventHintCompleted ProgressEventType = "hint_completed"
	EventRoomCompleted ProgressEventType = "room_completed"
	EventRoomUnlocked  ProgressEventType = "room_unlocked"
)

// ProgressEvent is published after a progress transaction commits.
type ProgressEvent struct {
	EventID       string            `json:"event_id"`
	Type          ProgressEventType `json:"type"`
	UserID        uuid.UUID         `json:"user_id"`
	RoomID        int               `json:"room_id"`
	HintID        *int              `json:"hint_id,omitempty"`
	PointsAwarded int               `json:"points_awarded"`
	TotalPoints   int               `json:"total_points"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
