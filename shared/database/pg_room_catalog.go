package database

import (
	"context"
	"errors"
	"fmt"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	roomColumns = `id, name, description, image_url, final_code, completion_mode, created_at`
	hintColumns = `id, room_id, title, description, image_url, survey_url, created_at`
)

var (
	_ interfaces.RoomCatalog   = (*pgRoomCatalog)(nil)
	_ interfaces.CatalogWriter = (*pgRoomCatalog)(nil)
)

type pgRoomCatalog struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// PgRoomCatalog is the concrete PostgreSQL catalog, exposing both read and write sides.
type PgRoomCatalog interface {
	interfaces.RoomCatalog
	interfaces.CatalogWriter
}

// NewPgRoomCatalog creates a PostgreSQL-backed room catalog.
func NewPgRoomCatalog(db interfaces.DBTX, logger *zap.Logger) PgRoomCatalog {
	return &pgRoomCatalog{
		db:     db,
		logger: logger.Named("PgRoomCatalog"),
	}
}

func (r *pgRoomCatalog) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	room := &models.Room{}
	err := pgxscan.Get(ctx, r.db, room, query, roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Room not found", zap.Int("roomID", roomID))
			return nil, models.ErrRoomNotFound
		}
		r.logger.Error("Failed to get room", zap.Int("roomID", roomID), zap.Error(err))
		return nil, fmt.Errorf("failed to get room %d: %w", roomID, err)
	}
	return room, nil
}

func (r *pgRoomCatalog) GetHint(ctx context.Context, hintID int) (*models.Hint, error) {
	query := `SELECT ` + hintColumns + ` FROM hints WHERE id = $1`
	hint := &models.Hint{}
	err := pgxscan.Get(ctx, r.db, hint, query, hintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Hint not found", zap.Int("hintID", hintID))
			return nil, models.ErrHintNotFound
		}
		r.logger.Error("Failed to get hint", zap.Int("hintID", hintID), zap.Error(err))
		return nil, fmt.Errorf("failed to get hint %d: %w", hintID, err)
	}
	return hint, nil
}

func (r *pgRoomCatalog) GetNextRoomID(ctx context.Context, roomID int) (int, bool, error) {
	query := `SELECT id FROM rooms WHERE id > $1 ORDER BY id ASC LIMIT 1`
	var nextID int
	err := r.db.QueryRow(ctx, query, roomID).Scan(&nextID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		r.logger.Error("Failed to get next room id", zap.Int("roomID", roomID), zap.Error(err))
		return 0, false, fmt.Errorf("failed to get room after %d: %w", roomID, err)
	}
	return nextID, true, nil
}

func (r *pgRoomCatalog) ListRooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY id ASC`
	var rooms []models.Room
	if err := pgxscan.Select(ctx, r.db, &rooms, query); err != nil {
		r.logger.Error("Failed to list rooms", zap.Error(err))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (r *pgRoomCatalog) ListHintsForRoom(ctx context.Context, roomID int) ([]models.Hint, error) {
	query := `SELECT ` + hintColumns + ` FROM hints WHERE room_id = $1 ORDER BY id ASC`
	var hints []models.Hint
	if err := pgxscan.Select(ctx, r.db, &hints, query, roomID); err != nil {
		r.logger.Error("Failed to list hints", zap.Int("roomID", roomID), zap.Error(err))
		return nil, fmt.Errorf("failed to list hints for room %d: %w", roomID, err)
	}
	return hints, nil
}

func (r *pgRoomCatalog) CountHintsForRoom(ctx context.Context, roomID int) (int, error) {
	query := `SELECT COUNT(*) FROM hints WHERE room_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, roomID).Scan(&count); err != nil {
		r.logger.Error("Failed to count hints", zap.Int("roomID", roomID), zap.Error(err))
		return 0, fmt.Errorf("failed to count hints for room %d: %w", roomID, err)
	}
	return count, nil
}

// UpsertRoom inserts a room or updates the one with the same name.
func (r *pgRoomCatalog) UpsertRoom(ctx context.Context, querier interfaces.DBTX, room *models.Room) error {
	if !room.CompletionMode.Valid() {
		return fmt.Errorf("%w: unknown completion mode %q", models.ErrBadRequest, room.CompletionMode)
	}
	query := `
		INSERT INTO rooms (name, description, image_url, final_code, completion_mode)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			final_code = EXCLUDED.final_code,
			completion_mode = EXCLUDED.completion_mode
		RETURNING id, created_at`
	err := querier.QueryRow(ctx, query,
		room.Name, room.Description, room.ImageURL, room.FinalCode, string(room.CompletionMode),
	).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert room", zap.String("name", room.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert room %q: %w", room.Name, err)
	}
	r.logger.Debug("Room upserted", zap.Int("roomID", room.ID), zap.String("name", room.Name))
	return nil
}

// UpsertHint inserts a hint or updates the one with the same room and title.
func (r *pgRoomCatalog) UpsertHint(ctx context.Context, querier interfaces.DBTX, hint *models.Hint) error {
	query := `
		INSERT INTO hints (room_id, title, description, image_url, survey_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, title) DO UPDATE SET
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			survey_url = EXCLUDED.survey_url
		RETURNING id, created_at`
	err := querier.QueryRow(ctx, query,
		hint.RoomID, hint.Title, hint.Description, hint.ImageURL, hint.SurveyURL,
	).Scan(&hint.ID, &hint.CreatedAt)
	if err != nil {
		logFields := []zap.Field{zap.Int("roomID", hint.RoomID), zap.String("title", hint.Title), zap.Error(err)}
		r.logger.Error("Failed to upsert hint", logFields...)
		return fmt.Errorf("failed to upsert hint %q: %w", hint.Title, err)
	}
	return nil
}
