package seeder

import (
	"context"
	"fmt"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"
	"museo-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserInitializer unlocks the bootstrap rooms of a user.
type UserInitializer interface {
	InitializeUser(ctx context.Context, userID uuid.UUID) ([]int, error)
}

// Result summarises one seeding run.
type Result struct {
	RoomIDs         []int
	HintCount       int
	UserID          uuid.UUID
	UserCreated     bool
	UnlockedRoomIDs []int
}

type Seeder struct {
	tx          interfaces.TransactionScope
	catalog     interfaces.CatalogWriter
	users       interfaces.UserWriter
	initializer UserInitializer
	invalidator interfaces.CatalogInvalidator
	logger      *zap.Logger
	hashCost    int
}

// NewSeeder creates a Seeder. invalidator may be nil when no cache is in use.
func NewSeeder(
	tx interfaces.TransactionScope,
	catalog interfaces.CatalogWriter,
	users interfaces.UserWriter,
	initializer UserInitializer,
	invalidator interfaces.CatalogInvalidator,
	logger *zap.Logger,
) *Seeder {
	return &Seeder{
		tx:          tx,
		catalog:     catalog,
		users:       users,
		initializer: initializer,
		invalidator: invalidator,
		logger:      logger.Named("Seeder"),
		hashCost:    bcrypt.DefaultCost,
	}
}

// Run upserts rooms by name and hints by (room, title), ensures the test user
// exists and unlocks its bootstrap rooms. Running it twice changes nothing.
func (s *Seeder) Run(ctx context.Context, cat *Catalog) (*Result, error) {
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cat.TestUser.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash test user password: %w", err)
	}

	var result *Result
	err = s.tx.RunAtomically(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		result = &Result{}
		for _, rs := range cat.Rooms {
			room := &models.Room{
				Name:           rs.Name,
				Description:    rs.Description,
				FinalCode:      models.StringPtr(rs.FinalCode),
				CompletionMode: rs.CompletionMode,
			}
			if err := s.catalog.UpsertRoom(ctx, tx, room); err != nil {
				return err
			}
			result.RoomIDs = append(result.RoomIDs, room.ID)

			for n := 1; n <= cat.HintsPerRoom; n++ {
				hint := &models.Hint{
					RoomID:    room.ID,
					Title:     fmt.Sprintf("Pista %d", n),
					SurveyURL: models.StringPtr(utils.JoinHostPath(cat.LimeSurveyHost, fmt.Sprintf("index.php/S%dP%d", room.ID, n))),
					ImageURL:  models.StringPtr(utils.JoinHostPath(cat.FilesHost, fmt.Sprintf("S%dP%d.png", room.ID, n))),
				}
				if err := s.catalog.UpsertHint(ctx, tx, hint); err != nil {
					return err
				}
				result.HintCount++
			}
			s.logger.Info("Room seeded", zap.Int("roomID", room.ID), zap.String("name", room.Name), zap.String("mode", string(room.CompletionMode)))
		}

		user := &models.User{
			FirstName:    cat.TestUser.FirstName,
			LastName:     cat.TestUser.LastName,
			Email:        cat.TestUser.Email,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
			IsActive:     true,
		}
		created, err := s.users.EnsureUser(ctx, tx, user)
		if err != nil {
			return err
		}
		result.UserID = user.ID
		result.UserCreated = created
		return nil
	})
	if err != nil {
		s.logger.Error("Seeding failed", zap.Error(err))
		return nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
		}
	}

	result.UnlockedRoomIDs, err = s.initializer.InitializeUser(ctx, result.UserID)
	if err != nil {
		return nil, fmt.Errorf("initialize test user progress: %w", err)
	}

	s.logger.Info("Seeding complete",
		zap.Ints("roomIDs", result.RoomIDs),
		zap.Int("hints", result.HintCount),
		zap.Stringer("userID", result.UserID),
		zap.Bool("userCreated", result.UserCreated),
		zap.Ints("unlockedRooms", result.UnlockedRoomIDs),
	)
	return result, nil
}
