package models

import "time"

// CompletionMode defines which paths can complete a room.
type CompletionMode string

const (
	CompletionModeHintAggregation CompletionMode = "hint_aggregation"
	CompletionModeFinalCode       CompletionMode = "final_code"
	CompletionModeEither          CompletionMode = "either"
)

// AllowsHints reports whether completing every hint completes the room.
func (m CompletionMode) AllowsHints() bool {
	return m == CompletionModeHintAggregation || m == CompletionModeEither
}

// AllowsFinalCode reports whether the room accepts final-code verification.
func (m CompletionMode) AllowsFinalCode() bool {
	return m == CompletionModeFinalCode || m == CompletionModeEither
}

// Valid reports whether m is a known mode.
func (m CompletionMode) Valid() bool {
	switch m {
	case CompletionModeHintAggregation, CompletionModeFinalCode, CompletionModeEither:
		return true
	}
	return false
}

// Room is a themed content unit. Rooms are ordered by ID.
type Room struct {
	ID             int            `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	ImageURL       *string        `db:"image_url" json:"imageUrl"`
	FinalCode      *string        `db:"final_code" json:"-"` // never sent to clients
	CompletionMode CompletionMode `db:"completion_mode" json:"completionMode"`
	CreatedAt      time.Time      `db:"created_at" json:"-"`
}

// Hint belongs to exactly one room and is ordered by ID within it.
type Hint struct {
	ID          int       `db:"id" json:"id"`
	RoomID      int       `db:"room_id" json:"roomId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ImageURL    *string   `db:"image_url" json:"imageUrl"`
	SurveyURL   *string   `db:"survey_url" json:"surveyUrl"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}
