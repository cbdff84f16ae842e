package database

import (
	"context"
	"errors"
	"fmt"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.ProgressStore = (*pgProgressStore)(nil)

type pgProgressStore struct {
	logger *zap.Logger
}

// NewPgProgressStore creates a PostgreSQL-backed ProgressStore.
func NewPgProgressStore(logger *zap.Logger) interfaces.ProgressStore {
	return &pgProgressStore{logger: logger.Named("PgProgressStore")}
}

// --- Rooms ---

func (s *pgProgressStore) GetRoomStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (*models.UserRoomStatus, error) {
	query := `SELECT user_id, room_id, unlocked, completed, updated_at FROM user_rooms WHERE user_id = $1 AND room_id = $2`
	status := &models.UserRoomStatus{}
	if err := pgxscan.Get(ctx, querier, status, query, userID, roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("Failed to get room status", zap.Stringer("userID", userID), zap.Int("roomID", roomID), zap.Error(err))
		return nil, fmt.Errorf("failed to get room status: %w", err)
	}
	return status, nil
}

func (s *pgProgressStore) GetRoomStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (models.UserRoomStatus, error) {
	status, err := s.GetRoomStatus(ctx, querier, userID, roomID)
	if errors.Is(err, models.ErrNotFound) {
		return models.UserRoomStatus{UserID: userID, RoomID: roomID}, nil
	}
	if err != nil {
		return models.UserRoomStatus{}, err
	}
	return *status, nil
}

// UpsertRoomStatus merges the flags with OR, so a stored true is never cleared,
// and stores unlocked=true whenever completed is true.
func (s *pgProgressStore) UpsertRoomStatus(ctx context.Context, querier interfaces.DBTX, status models.UserRoomStatus) error {
	query := `
		INSERT INTO user_rooms (user_id, room_id, unlocked, completed, updated_at)
		VALUES ($1, $2, $3 OR $4, $4, NOW())
		ON CONFLICT (user_id, room_id) DO UPDATE SET
			unlocked = user_rooms.unlocked OR EXCLUDED.unlocked,
			completed = user_rooms.completed OR EXCLUDED.completed,
			updated_at = NOW()`
	if _, err := querier.Exec(ctx, query, status.UserID, status.RoomID, status.Unlocked, status.Completed); err != nil {
		logFields := []zap.Field{zap.Stringer("userID", status.UserID), zap.Int("roomID", status.RoomID), zap.Error(err)}
		s.logger.Error("Failed to upsert room status", logFields...)
		return fmt.Errorf("failed to upsert room status: %w", err)
	}
	return nil
}

func (s *pgProgressStore) ListRoomStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) ([]models.UserRoomStatus, error) {
	query := `SELECT user_id, room_id, unlocked, completed, updated_at FROM user_rooms WHERE user_id = $1 ORDER BY room_id ASC`
	var statuses []models.UserRoomStatus
	if err := pgxscan.Select(ctx, querier, &statuses, query, userID); err != nil {
		s.logger.Error("Failed to list room statuses", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list room statuses: %w", err)
	}
	return statuses, nil
}

func (s *pgProgressStore) MarkRoomCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	query := `
		INSERT INTO user_rooms (user_id, room_id, unlocked, completed, updated_at)
		VALUES ($1, $2, TRUE, TRUE, NOW())
		ON CONFLICT (user_id, room_id) DO UPDATE SET
			unlocked = TRUE,
			completed = TRUE,
			updated_at = NOW()
		WHERE user_rooms.completed = FALSE`
	return s.transition(ctx, querier, "complete room", query, userID, roomID)
}

func (s *pgProgressStore) UnlockRoom(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	query := `
		INSERT INTO user_rooms (user_id, room_id, unlocked, completed, updated_at)
		VALUES ($1, $2, TRUE, FALSE, NOW())
		ON CONFLICT (user_id, room_id) DO UPDATE SET
			unlocked = TRUE,
			updated_at = NOW()
		WHERE user_rooms.unlocked = FALSE`
	return s.transition(ctx, querier, "unlock room", query, userID, roomID)
}

// --- Hints ---

func (s *pgProgressStore) GetHintStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (*models.UserHintStatus, error) {
	query := `SELECT user_id, hint_id, completed, updated_at FROM user_hints WHERE user_id = $1 AND hint_id = $2`
	status := &models.UserHintStatus{}
	if err := pgxscan.Get(ctx, querier, status, query, userID, hintID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("Failed to get hint status", zap.Stringer("userID", userID), zap.Int("hintID", hintID), zap.Error(err))
		return nil, fmt.Errorf("failed to get hint status: %w", err)
	}
	return status, nil
}

func (s *pgProgressStore) GetHintStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (models.UserHintStatus, error) {
	status, err := s.GetHintStatus(ctx, querier, userID, hintID)
	if errors.Is(err, models.ErrNotFound) {
		return models.UserHintStatus{UserID: userID, HintID: hintID}, nil
	}
	if err != nil {
		return models.UserHintStatus{}, err
	}
	return *status, nil
}

func (s *pgProgressStore) UpsertHintStatus(ctx context.Context, querier interfaces.DBTX, status models.UserHintStatus) error {
	query := `
		INSERT INTO user_hints (user_id, hint_id, completed, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, hint_id) DO UPDATE SET
			completed = user_hints.completed OR EXCLUDED.completed,
			updated_at = NOW()`
	if _, err := querier.Exec(ctx, query, status.UserID, status.HintID, status.Completed); err != nil {
		logFields := []zap.Field{zap.Stringer("userID", status.UserID), zap.Int("hintID", status.HintID), zap.Error(err)}
		s.logger.Error("Failed to upsert hint status", logFields...)
		return fmt.Errorf("failed to upsert hint status: %w", err)
	}
	return nil
}

// ListHintStatuses returns the stored statuses of the user. A nil hintIDs lists every hint.
func (s *pgProgressStore) ListHintStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintIDs []int) ([]models.UserHintStatus, error) {
	query := `SELECT user_id, hint_id, completed, updated_at FROM user_hints WHERE user_id = $1`
	args := []interface{}{userID}
	if hintIDs != nil {
		ids := make([]int64, len(hintIDs))
		for i, id := range hintIDs {
			ids[i] = int64(id)
		}
		query += ` AND hint_id = ANY($2)`
		args = append(args, pq.Array(ids))
	}
	query += ` ORDER BY hint_id ASC`

	var statuses []models.UserHintStatus
	if err := pgxscan.Select(ctx, querier, &statuses, query, args...); err != nil {
		s.logger.Error("Failed to list hint statuses", zap.Stringer("userID", userID), zap.Ints("hintIDs", hintIDs), zap.Error(err))
		return nil, fmt.Errorf("failed to list hint statuses: %w", err)
	}
	return statuses, nil
}

func (s *pgProgressStore) CountCompletedHints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_hints uh
		JOIN hints h ON h.id = uh.hint_id
		WHERE uh.user_id = $1 AND h.room_id = $2 AND uh.completed`
	var count int
	if err := querier.QueryRow(ctx, query, userID, roomID).Scan(&count); err != nil {
		s.logger.Error("Failed to count completed hints", zap.Stringer("userID", userID), zap.Int("roomID", roomID), zap.Error(err))
		return 0, fmt.Errorf("failed to count completed hints: %w", err)
	}
	return count, nil
}

func (s *pgProgressStore) MarkHintCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (bool, error) {
	query := `
		INSERT INTO user_hints (user_id, hint_id, completed, updated_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (user_id, hint_id) DO UPDATE SET
			completed = TRUE,
			updated_at = NOW()
		WHERE user_hints.completed = FALSE`
	return s.transition(ctx, querier, "complete hint", query, userID, hintID)
}

// transition runs a conditional upsert; one affected row means this call flipped the flag.
func (s *pgProgressStore) transition(ctx context.Context, querier interfaces.DBTX, op, query string, userID uuid.UUID, id int) (bool, error) {
	commandTag, err := querier.Exec(ctx, query, userID, id)
	if err != nil {
		s.logger.Error("Failed to "+op, zap.Stringer("userID", userID), zap.Int("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}
	flipped := commandTag.RowsAffected() == 1
	s.logger.Debug("Progress transition", zap.String("op", op), zap.Stringer("userID", userID), zap.Int("id", id), zap.Bool("flipped", flipped))
	return flipped, nil
}
