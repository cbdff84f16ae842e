package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"museo-server/shared/interfaces"
	"museo-server/shared/interfaces/mocks"
	"museo-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const museumFinalCode = "1881-1904-1914-1999"

type museum struct {
	store  *memStore
	userID uuid.UUID
	// hints[i] are the hint ids of room i+1.
	hints [][]int
}

// newMuseum builds four rooms: room 1 is final-code only without hints,
// rooms 2-4 complete through five hints each. The user starts with room 1 unlocked.
func newMuseum(t *testing.T) *museum {
	t.Helper()
	store := newMemStore()
	m := &museum{store: store}
	_, h1 := store.addRoom(models.CompletionModeFinalCode, museumFinalCode, 0)
	_, h2 := store.addRoom(models.CompletionModeHintAggregation, "", 5)
	_, h3 := store.addRoom(models.CompletionModeHintAggregation, "", 5)
	_, h4 := store.addRoom(models.CompletionModeHintAggregation, "", 5)
	m.hints = [][]int{h1, h2, h3, h4}
	m.userID = store.addUser(0)
	_, err := store.UnlockRoom(context.Background(), nil, m.userID, 1)
	require.NoError(t, err)
	return m
}

func newTestService(store *memStore, policy Policy, publisher interfaces.ProgressEventPublisher) ProgressService {
	return NewProgressService(nil, store, store, store, store, publisher, policy, zap.NewNop())
}

func TestScenario_FinalCodeThenHints(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	// 1. Four of five hints in room 2.
	for i, hintID := range m.hints[1][:4] {
		res, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err)
		assert.True(t, res.HintCompletedNow)
		assert.False(t, res.RoomCompletedNow)
		assert.Equal(t, 30, res.PointsAwarded)
		assert.Equal(t, 30*(i+1), res.TotalPoints)
	}
	assert.Equal(t, 120, m.store.points(m.userID))

	// 2. Wrong code.
	res, err := svc.VerifyFinalCode(ctx, m.userID, 1, "wrong")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.PointsAwarded)
	assert.Equal(t, 120, m.store.points(m.userID))
	assert.False(t, m.store.room(m.userID, 1).Completed)

	// 3. Right code.
	res, err = svc.VerifyFinalCode(ctx, m.userID, 1, museumFinalCode)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.True(t, res.RoomCompletedNow)
	assert.Equal(t, 100, res.PointsAwarded)
	assert.Equal(t, 220, res.TotalPoints)
	assert.True(t, m.store.room(m.userID, 1).Completed)
	assert.True(t, m.store.room(m.userID, 2).Unlocked)

	// 4. Last hint of room 2.
	hintRes, err := svc.CompleteHint(ctx, m.userID, m.hints[1][4])
	require.NoError(t, err)
	assert.True(t, hintRes.HintCompletedNow)
	assert.True(t, hintRes.RoomCompletedNow)
	assert.Equal(t, 130, hintRes.PointsAwarded)
	assert.Equal(t, 350, hintRes.TotalPoints)
	require.NotNil(t, hintRes.UnlockedRoomID)
	assert.Equal(t, 3, *hintRes.UnlockedRoomID)
	assert.Equal(t, 350, m.store.points(m.userID))
	assert.True(t, m.store.room(m.userID, 2).Completed)
	assert.True(t, m.store.room(m.userID, 3).Unlocked)
}

func TestCompleteHint_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)
	hintID := m.hints[1][0]

	first, err := svc.CompleteHint(ctx, m.userID, hintID)
	require.NoError(t, err)
	second, err := svc.CompleteHint(ctx, m.userID, hintID)
	require.NoError(t, err)

	assert.True(t, first.HintCompletedNow)
	assert.False(t, second.HintCompletedNow)
	assert.False(t, second.RoomCompletedNow)
	assert.Equal(t, 0, second.PointsAwarded)
	assert.Equal(t, 30, second.TotalPoints)
	assert.Equal(t, 30, m.store.points(m.userID))
	assert.True(t, m.store.hint(m.userID, hintID).Completed)
}

func TestCompleteHint_ConcurrentDuplicatesScoreOnce(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)
	hintID := m.hints[1][0]

	const callers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		awarded   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CompleteHint(ctx, m.userID, hintID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.HintCompletedNow {
				completed++
			}
			awarded += res.PointsAwarded
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, completed)
	assert.Equal(t, 30, awarded)
	assert.Equal(t, 30, m.store.points(m.userID))
}

func TestCompleteHint_ConcurrentLastHintsCompleteRoomOnce(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	var wg sync.WaitGroup
	for _, hintID := range m.hints[1] {
		for dup := 0; dup < 3; dup++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_, err := svc.CompleteHint(ctx, m.userID, id)
				assert.NoError(t, err)
			}(hintID)
		}
	}
	wg.Wait()

	assert.Equal(t, 5*30+100, m.store.points(m.userID))
	assert.True(t, m.store.room(m.userID, 2).Completed)
	assert.True(t, m.store.room(m.userID, 3).Unlocked)
}

func TestEvaluateRoomCompletion_ImpliesAllHintsCompleted(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)
	evaluator := NewCompletionEvaluator(m.store, m.store)
	roomHints := m.hints[2]

	// Complete room 3 hints in a scrambled order, checking after each step.
	order := []int{roomHints[3], roomHints[0], roomHints[4], roomHints[1], roomHints[2]}
	for i, hintID := range order {
		_, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err)

		complete, err := evaluator.EvaluateRoomCompletion(ctx, nil, m.userID, 3)
		require.NoError(t, err)
		if complete {
			for _, id := range roomHints {
				assert.True(t, m.store.hint(m.userID, id).Completed, "hint %d must be completed", id)
			}
		}
		assert.Equal(t, i == len(order)-1, complete)
	}
}

func TestEvaluateRoomCompletion_EmptyRoomNeverComplete(t *testing.T) {
	m := newMuseum(t)
	evaluator := NewCompletionEvaluator(m.store, m.store)

	complete, err := evaluator.EvaluateRoomCompletion(context.Background(), nil, m.userID, 1)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestUnlockCascade_OnlyNextRoom(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	for _, hintID := range m.hints[1] {
		_, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err)
	}

	assert.True(t, m.store.room(m.userID, 2).Completed)
	assert.True(t, m.store.room(m.userID, 3).Unlocked)
	assert.False(t, m.store.room(m.userID, 3).Completed)
	assert.Equal(t, models.UserRoomStatus{}, m.store.room(m.userID, 4))
	assert.False(t, m.store.room(m.userID, 1).Completed, "earlier rooms are not affected")
}

func TestUnlockCascade_LastRoomHasNoNext(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	var last *models.HintCompletion
	for _, hintID := range m.hints[3] {
		res, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err)
		last = res
	}

	assert.True(t, last.RoomCompletedNow)
	assert.Nil(t, last.UnlockedRoomID)
}

func TestVerifyFinalCode_Exactness(t *testing.T) {
	ctx := context.Background()
	wrongCodes := []string{
		"",
		"1881-1904-1914-1998",
		"1881-1904-1914-199",
		"1881-1904-1914-19999",
		" 1881-1904-1914-1999",
		"1881-1904-1914-1999 ",
		"1881_1904_1914_1999",
	}
	for _, code := range wrongCodes {
		t.Run("wrong "+code, func(t *testing.T) {
			m := newMuseum(t)
			svc := newTestService(m.store, DefaultPolicy(), nil)

			res, err := svc.VerifyFinalCode(ctx, m.userID, 1, code)
			require.NoError(t, err)
			assert.False(t, res.Correct)
			assert.False(t, res.RoomCompletedNow)
			assert.Equal(t, 0, m.store.points(m.userID))
			assert.Equal(t, models.UserRoomStatus{UserID: m.userID, RoomID: 1, Unlocked: true}, m.store.room(m.userID, 1))
			assert.Equal(t, models.UserRoomStatus{}, m.store.room(m.userID, 2))
		})
	}

	t.Run("case sensitive", func(t *testing.T) {
		store := newMemStore()
		store.addRoom(models.CompletionModeFinalCode, "F-A-U-N-A", 0)
		userID := store.addUser(0)
		svc := newTestService(store, DefaultPolicy(), nil)

		res, err := svc.VerifyFinalCode(ctx, userID, 1, "f-a-u-n-a")
		require.NoError(t, err)
		assert.False(t, res.Correct)

		res, err = svc.VerifyFinalCode(ctx, userID, 1, "F-A-U-N-A")
		require.NoError(t, err)
		assert.True(t, res.Correct)
	})
}

func TestVerifyFinalCode_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	_, err := svc.VerifyFinalCode(ctx, m.userID, 1, museumFinalCode)
	require.NoError(t, err)

	_, err = svc.VerifyFinalCode(ctx, m.userID, 1, museumFinalCode)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.ErrorIs(t, err, models.ErrRoomAlreadyComplete)
	assert.Equal(t, 100, m.store.points(m.userID))
}

func TestVerifyFinalCode_RoomWithoutFinalCodeMode(t *testing.T) {
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	_, err := svc.VerifyFinalCode(context.Background(), m.userID, 2, museumFinalCode)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, err, models.ErrFinalCodeNotAllowed)
}

func TestVerifyFinalCode_NotFound(t *testing.T) {
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	_, err := svc.VerifyFinalCode(context.Background(), m.userID, 99, "x")
	assert.ErrorIs(t, err, models.ErrRoomNotFound)

	_, err = svc.VerifyFinalCode(context.Background(), uuid.New(), 1, museumFinalCode)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestVerifyFinalCode_RequirePriorUnlock(t *testing.T) {
	store := newMemStore()
	store.addRoom(models.CompletionModeHintAggregation, "", 1)
	store.addRoom(models.CompletionModeEither, "secret", 1)
	userID := store.addUser(0)
	policy := DefaultPolicy()
	policy.RequirePriorUnlock = true
	svc := newTestService(store, policy, nil)

	_, err := svc.VerifyFinalCode(context.Background(), userID, 2, "secret")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, err, models.ErrRoomLocked)
	assert.Equal(t, 0, store.points(userID))
}

func TestCompleteHint_NotFound(t *testing.T) {
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	_, err := svc.CompleteHint(context.Background(), m.userID, 999)
	assert.ErrorIs(t, err, models.ErrHintNotFound)
	assert.True(t, models.IsNotFound(err))

	_, err = svc.CompleteHint(context.Background(), uuid.New(), m.hints[1][0])
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestCompleteHint_LazyUnlockByDefault(t *testing.T) {
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)
	require.False(t, m.store.room(m.userID, 3).Unlocked)

	_, err := svc.CompleteHint(context.Background(), m.userID, m.hints[2][0])
	require.NoError(t, err)

	st := m.store.room(m.userID, 3)
	assert.True(t, st.Unlocked)
	assert.False(t, st.Completed)
}

func TestCompleteHint_RequirePriorUnlock(t *testing.T) {
	m := newMuseum(t)
	policy := DefaultPolicy()
	policy.RequirePriorUnlock = true
	svc := newTestService(m.store, policy, nil)

	_, err := svc.CompleteHint(context.Background(), m.userID, m.hints[1][0])
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, err, models.ErrRoomLocked)
	assert.False(t, m.store.hint(m.userID, m.hints[1][0]).Completed)
	assert.Equal(t, 0, m.store.points(m.userID))
}

func TestCompleteHint_FinalCodeRoomIgnoresHintAggregation(t *testing.T) {
	store := newMemStore()
	_, hints := store.addRoom(models.CompletionModeFinalCode, "code", 2)
	store.addRoom(models.CompletionModeHintAggregation, "", 1)
	userID := store.addUser(0)
	svc := newTestService(store, DefaultPolicy(), nil)

	for _, id := range hints {
		res, err := svc.CompleteHint(context.Background(), userID, id)
		require.NoError(t, err)
		assert.False(t, res.RoomCompletedNow)
	}
	assert.Equal(t, 60, store.points(userID))
	assert.False(t, store.room(userID, 1).Completed)
	assert.False(t, store.room(userID, 2).Unlocked)
}

func TestEitherMode_CodeThenHints(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	_, hints := store.addRoom(models.CompletionModeEither, "code", 1)
	store.addRoom(models.CompletionModeHintAggregation, "", 1)
	userID := store.addUser(0)
	svc := newTestService(store, DefaultPolicy(), nil)

	res, err := svc.VerifyFinalCode(ctx, userID, 1, "code")
	require.NoError(t, err)
	assert.True(t, res.RoomCompletedNow)
	require.NotNil(t, res.UnlockedRoomID)
	assert.Equal(t, 2, *res.UnlockedRoomID)

	hintRes, err := svc.CompleteHint(ctx, userID, hints[0])
	require.NoError(t, err)
	assert.True(t, hintRes.HintCompletedNow)
	assert.False(t, hintRes.RoomCompletedNow, "room already completed by code")
	assert.Equal(t, 130, store.points(userID))
}

func TestCompleteHint_RollsBackWhenRoomAwardFails(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)
	for _, hintID := range m.hints[1][:4] {
		_, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err)
	}

	storeErr := errors.New("disk full")
	m.store.failAddPointsAfter = m.store.addPointsCalls + 1
	m.store.failAddPointsErr = storeErr

	_, err := svc.CompleteHint(ctx, m.userID, m.hints[1][4])
	assert.ErrorIs(t, err, storeErr)

	assert.Equal(t, 120, m.store.points(m.userID))
	assert.False(t, m.store.hint(m.userID, m.hints[1][4]).Completed)
	assert.False(t, m.store.room(m.userID, 2).Completed)
	assert.False(t, m.store.room(m.userID, 3).Unlocked)
}

func TestMonotonicity_CompletedNeverReverts(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	svc := newTestService(m.store, DefaultPolicy(), nil)

	_, err := svc.VerifyFinalCode(ctx, m.userID, 1, museumFinalCode)
	require.NoError(t, err)
	_, err = svc.CompleteHint(ctx, m.userID, m.hints[1][0])
	require.NoError(t, err)

	require.NoError(t, m.store.UpsertRoomStatus(ctx, nil, models.UserRoomStatus{UserID: m.userID, RoomID: 1}))
	require.NoError(t, m.store.UpsertHintStatus(ctx, nil, models.UserHintStatus{UserID: m.userID, HintID: m.hints[1][0]}))
	_, _ = svc.VerifyFinalCode(ctx, m.userID, 1, "wrong")
	_, _ = svc.CompleteHint(ctx, m.userID, m.hints[1][0])

	assert.True(t, m.store.room(m.userID, 1).Completed)
	assert.True(t, m.store.room(m.userID, 1).Unlocked)
	assert.True(t, m.store.hint(m.userID, m.hints[1][0]).Completed)
	assert.Equal(t, 130, m.store.points(m.userID))
}

func TestInitializeUser(t *testing.T) {
	ctx := context.Background()

	t.Run("default unlocks first room once", func(t *testing.T) {
		store := newMemStore()
		store.addRoom(models.CompletionModeFinalCode, "x", 0)
		store.addRoom(models.CompletionModeHintAggregation, "", 1)
		userID := store.addUser(0)
		svc := newTestService(store, DefaultPolicy(), nil)

		unlocked, err := svc.InitializeUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, unlocked)

		unlocked, err = svc.InitializeUser(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, unlocked)
		assert.False(t, store.room(userID, 2).Unlocked)
	})

	t.Run("two bootstrap rooms", func(t *testing.T) {
		store := newMemStore()
		store.addRoom(models.CompletionModeFinalCode, "x", 0)
		store.addRoom(models.CompletionModeHintAggregation, "", 1)
		store.addRoom(models.CompletionModeHintAggregation, "", 1)
		userID := store.addUser(0)
		policy := DefaultPolicy()
		policy.BootstrapUnlockedRooms = 2
		svc := newTestService(store, policy, nil)

		unlocked, err := svc.InitializeUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, unlocked)
		assert.False(t, store.room(userID, 3).Unlocked)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := newMemStore()
		store.addRoom(models.CompletionModeFinalCode, "x", 0)
		svc := newTestService(store, DefaultPolicy(), nil)

		_, err := svc.InitializeUser(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestCompleteHint_PublishesEventsAfterCommit(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	publisher := new(mocks.ProgressEventPublisher)
	svc := newTestService(m.store, DefaultPolicy(), publisher)

	publisher.On("PublishProgressEvent", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventHintCompleted
	})).Return(nil).Times(5)
	publisher.On("PublishProgressEvent", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventRoomCompleted && e.RoomID == 2 && e.PointsAwarded == 100 && e.TotalPoints == 250
	})).Return(nil).Once()
	publisher.On("PublishProgressEvent", mock.Anything, mock.MatchedBy(func(e models.ProgressEvent) bool {
		return e.Type == models.EventRoomUnlocked && e.RoomID == 3
	})).Return(errors.New("broker down")).Once()

	for _, hintID := range m.hints[1] {
		_, err := svc.CompleteHint(ctx, m.userID, hintID)
		require.NoError(t, err, "publish failures must not fail the operation")
	}

	publisher.AssertExpectations(t)
	assert.Equal(t, 250, m.store.points(m.userID))
}

func TestCompleteHint_NoEventsForDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newMuseum(t)
	publisher := new(mocks.ProgressEventPublisher)
	publisher.On("PublishProgressEvent", mock.Anything, mock.Anything).Return(nil).Once()
	svc := newTestService(m.store, DefaultPolicy(), publisher)

	_, err := svc.CompleteHint(ctx, m.userID, m.hints[1][0])
	require.NoError(t, err)
	_, err = svc.CompleteHint(ctx, m.userID, m.hints[1][0])
	require.NoError(t, err)

	publisher.AssertNumberOfCalls(t, "PublishProgressEvent", 1)
}
