package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRoomStatus holds per-user flags for a room.
// A missing row is equivalent to the zero value: locked and not completed.
type UserRoomStatus struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	RoomID    int       `db:"room_id" json:"roomId"`
	Unlocked  bool      `db:"unlocked" json:"isUnlocked"`
	Completed bool      `db:"completed" json:"completed"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// UserHintStatus holds the per-user completion flag for a hint.
type UserHintStatus struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	HintID    int       `db:"hint_id" json:"hintId"`
	Completed bool      `db:"completed" json:"completed"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// HintCompletion is the outcome of reporting a hint as completed.
type HintCompletion struct {
	HintID           int  `json:"hintId"`
	RoomID           int  `json:"roomId"`
	HintCompletedNow bool `json:"hintCompletedNow"`
	RoomCompletedNow bool `json:"roomCompletedNow"`
	PointsAwarded    int  `json:"pointsAwarded"`
	UnlockedRoomID   *int `json:"unlockedRoomId,omitempty"`
	TotalPoints      int  `json:"totalPoints"`
}

// FinalCodeVerification is the outcome of a final-code submission.
// It never carries the stored code.
type FinalCodeVerification struct {
	RoomID           int  `json:"roomId"`
	Correct          bool `json:"correct"`
	RoomCompletedNow bool `json:"roomCompletedNow"`
	PointsAwarded    int  `json:"pointsAwarded"`
	UnlockedRoomID   *int `json:"unlockedRoomId,omitempty"`
	TotalPoints      int  `json:"totalPoints"`
}

// RoomView is a room as seen by one user.
type RoomView struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Completed   bool    `json:"completed"`
	IsUnlocked  bool    `json:"isUnlocked"`
}

// HintView is a hint as seen by one user.
type HintView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	SurveyURL   *string `json:"surveyUrl"`
	Completed   bool    `json:"completed"`
}

// RoomDetail is a room with its hints for one user.
type RoomDetail struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Hints []HintView `json:"hints"`
}

// ProgressSummary aggregates a user's standing.
type ProgressSummary struct {
	UserID         uuid.UUID `json:"userId"`
	TotalPoints    int       `json:"totalPoints"`
	GlobalPosition int       `json:"globalPosition"`
	RoomsCompleted int       `json:"roomsCompleted"`
	RoomsUnlocked  int       `json:"roomsUnlocked"`
	HintsCompleted int       `json:"hintsCompleted"`
}
