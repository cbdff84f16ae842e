package service

import (
	"context"
	"fmt"

	"museo-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListRooms returns every room ordered by id with the user's flags.
func (s *progressServiceImpl) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.RoomView, error) {
	if _, err := s.users.GetUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.store.ListRoomStatuses(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("list room statuses: %w", err)
	}
	byRoom := make(map[int]models.UserRoomStatus, len(statuses))
	for _, st := range statuses {
		byRoom[st.RoomID] = st
	}

	views := make([]models.RoomView, 0, len(rooms))
	for _, room := range rooms {
		st := byRoom[room.ID]
		views = append(views, models.RoomView{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			ImageURL:    room.ImageURL,
			Completed:   st.Completed,
			IsUnlocked:  st.Unlocked || st.Completed,
		})
	}
	return views, nil
}

// GetRoomHints returns the room's hints ordered by id with the user's completion flags.
// With RequirePriorUnlock a locked room is reported as forbidden.
func (s *progressServiceImpl) GetRoomHints(ctx context.Context, userID uuid.UUID, roomID int) (*models.RoomDetail, error) {
	room, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	if s.policy.RequirePriorUnlock {
		st, err := s.store.GetRoomStatusOrDefault(ctx, s.db, userID, roomID)
		if err != nil {
			return nil, fmt.Errorf("load room status: %w", err)
		}
		if !st.Unlocked {
			s.logger.Debug("Hints requested for locked room", zap.Stringer("userID", userID), zap.Int("roomID", roomID))
			return nil, fmt.Errorf("%w: %w", models.ErrForbidden, models.ErrRoomLocked)
		}
	}

	hints, err := s.catalog.ListHintsForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(hints))
	for i, h := range hints {
		ids[i] = h.ID
	}
	statuses, err := s.store.ListHintStatuses(ctx, s.db, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list hint statuses: %w", err)
	}
	done := make(map[int]bool, len(statuses))
	for _, st := range statuses {
		done[st.HintID] = st.Completed
	}

	detail := &models.RoomDetail{ID: room.ID, Name: room.Name, Hints: make([]models.HintView, 0, len(hints))}
	for _, h := range hints {
		detail.Hints = append(detail.Hints, models.HintView{
			ID:          h.ID,
			Title:       h.Title,
			Description: h.Description,
			ImageURL:    h.ImageURL,
			SurveyURL:   h.SurveyURL,
			Completed:   done[h.ID],
		})
	}
	return detail, nil
}

// GetProgress summarises the user's points, global position and completion counts.
func (s *progressServiceImpl) GetProgress(ctx context.Context, userID uuid.UUID) (*models.ProgressSummary, error) {
	user, err := s.users.GetUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	position, err := s.users.GetStanding(ctx, s.db, user.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("compute standing: %w", err)
	}
	rooms, err := s.store.ListRoomStatuses(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("list room statuses: %w", err)
	}
	hints, err := s.store.ListHintStatuses(ctx, s.db, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list hint statuses: %w", err)
	}

	summary := &models.ProgressSummary{
		UserID:         userID,
		TotalPoints:    user.TotalPoints,
		GlobalPosition: position,
	}
	for _, st := range rooms {
		if st.Completed {
			summary.RoomsCompleted++
		}
		if st.Unlocked || st.Completed {
			summary.RoomsUnlocked++
		}
	}
	for _, st := range hints {
		if st.Completed {
			summary.HintsCompleted++
		}
	}
	return summary, nil
}
