package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// ProgressService is the single entry point for progress changes and per-user views.
type ProgressService interface {
	// CompleteHint records that the user finished a hint. Repeated calls are
	// no-ops that report hintCompletedNow=false and award nothing.
	CompleteHint(ctx context.Context, userID uuid.UUID, hintID int) (*models.HintCompletion, error)
	// VerifyFinalCode checks a final code for a room that accepts one.
	VerifyFinalCode(ctx context.Context, userID uuid.UUID, roomID int, code string) (*models.FinalCodeVerification, error)
	// InitializeUser unlocks the bootstrap rooms for a new account and returns
	// the ids of rooms this call unlocked.
	InitializeUser(ctx context.Context, userID uuid.UUID) ([]int, error)

	ListRooms(ctx context.Context, userID uuid.UUID) ([]models.RoomView, error)
	GetRoomHints(ctx context.Context, userID uuid.UUID, roomID int) (*models.RoomDetail, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*models.ProgressSummary, error)
}

type progressServiceImpl struct {
	db        interfaces.DBTX
	tx        interfaces.TransactionScope
	catalog   interfaces.RoomCatalog
	users     interfaces.UserAccount
	store     interfaces.ProgressStore
	publisher interfaces.ProgressEventPublisher
	unlocker  *UnlockEngine
	evaluator *CompletionEvaluator
	policy    Policy
	logger    *zap.Logger
}

// NewProgressService wires the progress state machine. db is used for reads
// outside of transactions. publisher may be nil, which disables events.
func NewProgressService(
	db interfaces.DBTX,
	tx interfaces.TransactionScope,
	catalog interfaces.RoomCatalog,
	users interfaces.UserAccount,
	store interfaces.ProgressStore,
	publisher interfaces.ProgressEventPublisher,
	policy Policy,
	logger *zap.Logger,
) ProgressService {
	if policy.BootstrapUnlockedRooms < 1 {
		policy.BootstrapUnlockedRooms = 1
	}
	return &progressServiceImpl{
		db:        db,
		tx:        tx,
		catalog:   catalog,
		users:     users,
		store:     store,
		publisher: publisher,
		unlocker:  NewUnlockEngine(catalog, store, logger),
		evaluator: NewCompletionEvaluator(catalog, store),
		policy:    policy,
		logger:    logger.Named("ProgressService"),
	}
}

func (s *progressServiceImpl) CompleteHint(ctx context.Context, userID uuid.UUID, hintID int) (*models.HintCompletion, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int("hintID", hintID))

	hint, err := s.catalog.GetHint(ctx, hintID)
	if err != nil {
		s.logFailure(log, "Failed to resolve hint", err)
		return nil, err
	}
	room, err := s.catalog.GetRoom(ctx, hint.RoomID)
	if err != nil {
		s.logFailure(log, "Failed to resolve room of hint", err)
		return nil, err
	}

	var (
		result *models.HintCompletion
		events []models.ProgressEvent
		via    string
	)
	err = s.tx.RunAtomically(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		// fn may be retried; start every attempt from scratch.
		result = &models.HintCompletion{HintID: hint.ID, RoomID: room.ID}
		events = nil

		user, err := s.users.LockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		result.TotalPoints = user.TotalPoints

		roomStatus, err := s.ensureRoomAccessible(ctx, tx, userID, room.ID)
		if err != nil {
			return err
		}

		completedNow, err := s.store.MarkHintCompleted(ctx, tx, userID, hint.ID)
		if err != nil {
			return fmt.Errorf("mark hint %d completed: %w", hint.ID, err)
		}
		if completedNow {
			points := s.policy.Scoring.PointsForHintCompletion()
			total, err := s.users.AddPoints(ctx, tx, userID, points)
			if err != nil {
				return fmt.Errorf("award hint points: %w", err)
			}
			result.HintCompletedNow = true
			result.PointsAwarded += points
			result.TotalPoints = total
			events = append(events, newProgressEvent(models.EventHintCompleted, userID, room.ID, &hint.ID, points, total))
		}

		if roomStatus.Completed || !room.CompletionMode.AllowsHints() {
			return nil
		}
		complete, err := s.evaluator.EvaluateRoomCompletion(ctx, tx, userID, room.ID)
		if err != nil {
			return err
		}
		if !complete {
			return nil
		}

		rc, err := s.completeRoom(ctx, tx, userID, room.ID)
		if err != nil {
			return err
		}
		if rc.completedNow {
			result.RoomCompletedNow = true
			result.PointsAwarded += rc.points
			result.TotalPoints = rc.totalPoints
			result.UnlockedRoomID = rc.unlockedRoomID
			events = append(events, rc.events...)
			via = "hints"
		}
		return nil
	})
	if err != nil {
		s.logFailure(log, "CompleteHint failed", err)
		return nil, err
	}

	if result.HintCompletedNow {
		hintsCompletedTotal.Inc()
		pointsAwardedTotal.WithLabelValues("hint").Add(float64(s.policy.Scoring.PointsForHintCompletion()))
	}
	if result.RoomCompletedNow {
		roomsCompletedTotal.WithLabelValues(via).Inc()
		pointsAwardedTotal.WithLabelValues("room").Add(float64(s.policy.Scoring.PointsForRoomCompletion()))
	}
	log.Info("Hint completion processed",
		zap.Int("roomID", room.ID),
		zap.Bool("hintCompletedNow", result.HintCompletedNow),
		zap.Bool("roomCompletedNow", result.RoomCompletedNow),
		zap.Int("pointsAwarded", result.PointsAwarded),
	)
	s.publish(ctx, events)
	return result, nil
}

func (s *progressServiceImpl) VerifyFinalCode(ctx context.Context, userID uuid.UUID, roomID int, code string) (*models.FinalCodeVerification, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int("roomID", roomID))

	room, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		s.logFailure(log, "Failed to resolve room", err)
		return nil, err
	}
	if !room.CompletionMode.AllowsFinalCode() {
		finalCodeAttemptsTotal.WithLabelValues("not_allowed").Inc()
		log.Warn("Final code submitted for room that does not accept one", zap.String("mode", string(room.CompletionMode)))
		return nil, fmt.Errorf("%w: %w", models.ErrForbidden, models.ErrFinalCodeNotAllowed)
	}
	correct := matchesFinalCode(room.FinalCode, code)

	var (
		result *models.FinalCodeVerification
		events []models.ProgressEvent
	)
	err = s.tx.RunAtomically(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		result = &models.FinalCodeVerification{RoomID: room.ID, Correct: correct}
		events = nil

		user, err := s.users.LockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		result.TotalPoints = user.TotalPoints

		status, err := s.store.GetRoomStatusOrDefault(ctx, tx, userID, room.ID)
		if err != nil {
			return fmt.Errorf("load room status: %w", err)
		}
		if status.Completed {
			return fmt.Errorf("%w: %w", models.ErrInvalidState, models.ErrRoomAlreadyComplete)
		}
		if !status.Unlocked && s.policy.RequirePriorUnlock {
			return fmt.Errorf("%w: %w", models.ErrForbidden, models.ErrRoomLocked)
		}
		if !correct {
			return nil
		}

		rc, err := s.completeRoom(ctx, tx, userID, room.ID)
		if err != nil {
			return err
		}
		if rc.completedNow {
			result.RoomCompletedNow = true
			result.PointsAwarded = rc.points
			result.TotalPoints = rc.totalPoints
			result.UnlockedRoomID = rc.unlockedRoomID
			events = rc.events
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			finalCodeAttemptsTotal.WithLabelValues("already_completed").Inc()
		}
		s.logFailure(log, "VerifyFinalCode failed", err)
		return nil, err
	}

	if correct {
		finalCodeAttemptsTotal.WithLabelValues("correct").Inc()
	} else {
		finalCodeAttemptsTotal.WithLabelValues("incorrect").Inc()
	}
	if result.RoomCompletedNow {
		roomsCompletedTotal.WithLabelValues("final_code").Inc()
		pointsAwardedTotal.WithLabelValues("room").Add(float64(result.PointsAwarded))
	}
	log.Info("Final code verified", zap.Bool("correct", correct), zap.Bool("roomCompletedNow", result.RoomCompletedNow))
	s.publish(ctx, events)
	return result, nil
}

func (s *progressServiceImpl) InitializeUser(ctx context.Context, userID uuid.UUID) ([]int, error) {
	log := s.logger.With(zap.Stringer("userID", userID))

	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		log.Error("Failed to list rooms", zap.Error(err))
		return nil, err
	}
	bootstrap := rooms
	if len(bootstrap) > s.policy.BootstrapUnlockedRooms {
		bootstrap = bootstrap[:s.policy.BootstrapUnlockedRooms]
	}

	var (
		unlocked []int
		events   []models.ProgressEvent
	)
	err = s.tx.RunAtomically(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		unlocked = make([]int, 0, len(bootstrap))
		events = nil

		user, err := s.users.LockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, room := range bootstrap {
			flipped, err := s.store.UnlockRoom(ctx, tx, userID, room.ID)
			if err != nil {
				return fmt.Errorf("unlock bootstrap room %d: %w", room.ID, err)
			}
			if flipped {
				unlocked = append(unlocked, room.ID)
				events = append(events, newProgressEvent(models.EventRoomUnlocked, userID, room.ID, nil, 0, user.TotalPoints))
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure(log, "InitializeUser failed", err)
		return nil, err
	}

	log.Info("User progress initialized", zap.Ints("unlockedRooms", unlocked))
	s.publish(ctx, events)
	return unlocked, nil
}

// ensureRoomAccessible loads the room status and, when prior unlock is not
// required, unlocks a locked room in place.
func (s *progressServiceImpl) ensureRoomAccessible(ctx context.Context, tx interfaces.DBTX, userID uuid.UUID, roomID int) (models.UserRoomStatus, error) {
	status, err := s.store.GetRoomStatusOrDefault(ctx, tx, userID, roomID)
	if err != nil {
		return status, fmt.Errorf("load room status: %w", err)
	}
	if status.Unlocked {
		return status, nil
	}
	if s.policy.RequirePriorUnlock {
		return status, fmt.Errorf("%w: %w", models.ErrForbidden, models.ErrRoomLocked)
	}
	if _, err := s.store.UnlockRoom(ctx, tx, userID, roomID); err != nil {
		return status, fmt.Errorf("unlock room %d: %w", roomID, err)
	}
	status.Unlocked = true
	return status, nil
}

type roomCompletion struct {
	completedNow   bool
	points         int
	totalPoints    int
	unlockedRoomID *int
	events         []models.ProgressEvent
}

// completeRoom flips the room to completed. Only the call that flips it
// awards points and unlocks the next room.
func (s *progressServiceImpl) completeRoom(ctx context.Context, tx interfaces.DBTX, userID uuid.UUID, roomID int) (*roomCompletion, error) {
	flipped, err := s.store.MarkRoomCompleted(ctx, tx, userID, roomID)
	if err != nil {
		return nil, fmt.Errorf("mark room %d completed: %w", roomID, err)
	}
	rc := &roomCompletion{}
	if !flipped {
		return rc, nil
	}

	points := s.policy.Scoring.PointsForRoomCompletion()
	total, err := s.users.AddPoints(ctx, tx, userID, points)
	if err != nil {
		return nil, fmt.Errorf("award room points: %w", err)
	}
	rc.completedNow = true
	rc.points = points
	rc.totalPoints = total
	rc.events = append(rc.events, newProgressEvent(models.EventRoomCompleted, userID, roomID, nil, points, total))

	next, err := s.unlocker.UnlockNextRoomIfNeeded(ctx, tx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		rc.unlockedRoomID = next
		rc.events = append(rc.events, newProgressEvent(models.EventRoomUnlocked, userID, *next, nil, 0, total))
	}
	return rc, nil
}

// publish sends events after commit. Failures are logged and counted only.
func (s *progressServiceImpl) publish(ctx context.Context, events []models.ProgressEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, event := range events {
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			eventPublishFailuresTotal.Inc()
			s.logger.Warn("Failed to publish progress event",
				zap.String("type", string(event.Type)),
				zap.Stringer("userID", event.UserID),
				zap.Int("roomID", event.RoomID),
				zap.Error(err),
			)
		}
	}
}

func (s *progressServiceImpl) logFailure(log *zap.Logger, msg string, err error) {
	switch {
	case models.IsNotFound(err):
		log.Info(msg, zap.Error(err))
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrInvalidState):
		log.Warn(msg, zap.Error(err))
	default:
		log.Error(msg, zap.Error(err))
	}
}

func matchesFinalCode(stored *string, submitted string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) == 1
}

func newProgressEvent(eventType models.ProgressEventType, userID uuid.UUID, roomID int, hintID *int, points, total int) models.ProgressEvent {
	return models.ProgressEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		UserID:        userID,
		RoomID:        roomID,
		HintID:        hintID,
		PointsAwarded: points,
		TotalPoints:   total,
		OccurredAt:    time.Now().UTC(),
	}
}
