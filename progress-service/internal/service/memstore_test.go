package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/google/uuid"
)

type roomKey struct {
	userID uuid.UUID
	roomID int
}

type hintKey struct {
	userID uuid.UUID
	hintID int
}

// memStore is an in-memory catalog, account store, progress store and
// transaction scope. Transactions are serialised and rolled back on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rooms      []models.Room
	hints      []models.Hint
	users      map[uuid.UUID]models.User
	roomStatus map[roomKey]models.UserRoomStatus
	hintStatus map[hintKey]models.UserHintStatus

	// AddPoints fails with failAddPointsErr once failAddPointsAfter calls have succeeded.
	failAddPointsAfter int
	failAddPointsErr   error
	addPointsCalls     int
}

var (
	_ interfaces.RoomCatalog      = (*memStore)(nil)
	_ interfaces.UserAccount      = (*memStore)(nil)
	_ interfaces.ProgressStore    = (*memStore)(nil)
	_ interfaces.TransactionScope = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uuid.UUID]models.User),
		roomStatus: make(map[roomKey]models.UserRoomStatus),
		hintStatus: make(map[hintKey]models.UserHintStatus),
	}
}

// addRoom appends a room with hintCount hints and returns the room and its hint ids.
func (s *memStore) addRoom(mode models.CompletionMode, finalCode string, hintCount int) (models.Room, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := models.Room{
		ID:             len(s.rooms) + 1,
		Name:           fmt.Sprintf("Room %d", len(s.rooms)+1),
		FinalCode:      models.StringPtr(finalCode),
		CompletionMode: mode,
	}
	s.rooms = append(s.rooms, room)
	ids := make([]int, 0, hintCount)
	for i := 0; i < hintCount; i++ {
		hint := models.Hint{ID: len(s.hints) + 1, RoomID: room.ID, Title: fmt.Sprintf("Hint %d", i+1)}
		s.hints = append(s.hints, hint)
		ids = append(ids, hint.ID)
	}
	return room, ids
}

func (s *memStore) addUser(points int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = models.User{ID: id, Email: id.String() + "@example.com", IsActive: true, TotalPoints: points}
	return id
}

func (s *memStore) points(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].TotalPoints
}

func (s *memStore) room(userID uuid.UUID, roomID int) models.UserRoomStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomStatus[roomKey{userID, roomID}]
}

func (s *memStore) hint(userID uuid.UUID, hintID int) models.UserHintStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hintStatus[hintKey{userID, hintID}]
}

// --- TransactionScope ---

type memSnapshot struct {
	users      map[uuid.UUID]models.User
	roomStatus map[roomKey]models.UserRoomStatus
	hintStatus map[hintKey]models.UserHintStatus
}

func (s *memStore) RunAtomically(ctx context.Context, fn interfaces.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := memSnapshot{
		users:      make(map[uuid.UUID]models.User, len(s.users)),
		roomStatus: make(map[roomKey]models.UserRoomStatus, len(s.roomStatus)),
		hintStatus: make(map[hintKey]models.UserHintStatus, len(s.hintStatus)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.roomStatus {
		snap.roomStatus[k] = v
	}
	for k, v := range s.hintStatus {
		snap.hintStatus[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.users, s.roomStatus, s.hintStatus = snap.users, snap.roomStatus, snap.hintStatus
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- RoomCatalog ---

func (s *memStore) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.ID == roomID {
			room := r
			return &room, nil
		}
	}
	return nil, models.ErrRoomNotFound
}

func (s *memStore) GetHint(ctx context.Context, hintID int) (*models.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hints {
		if h.ID == hintID {
			hint := h
			return &hint, nil
		}
	}
	return nil, models.ErrHintNotFound
}

func (s *memStore) GetNextRoomID(ctx context.Context, roomID int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := 0, false
	for _, r := range s.rooms {
		if r.ID > roomID && (!ok || r.ID < next) {
			next, ok = r.ID, true
		}
	}
	return next, ok, nil
}

func (s *memStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := append([]models.Room(nil), s.rooms...)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (s *memStore) ListHintsForRoom(ctx context.Context, roomID int) ([]models.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hints []models.Hint
	for _, h := range s.hints {
		if h.RoomID == roomID {
			hints = append(hints, h)
		}
	}
	return hints, nil
}

func (s *memStore) CountHintsForRoom(ctx context.Context, roomID int) (int, error) {
	hints, _ := s.ListHintsForRoom(ctx, roomID)
	return len(hints), nil
}

// --- UserAccount ---

func (s *memStore) GetUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) LockUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	return s.GetUser(ctx, querier, userID)
}

func (s *memStore) AddPoints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAddPointsErr != nil && s.addPointsCalls >= s.failAddPointsAfter {
		return 0, s.failAddPointsErr
	}
	s.addPointsCalls++
	u, ok := s.users[userID]
	if !ok {
		return 0, models.ErrUserNotFound
	}
	u.TotalPoints += delta
	s.users[userID] = u
	return u.TotalPoints, nil
}

func (s *memStore) GetStanding(ctx context.Context, querier interfaces.DBTX, points int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position := 1
	for _, u := range s.users {
		if u.IsActive && u.TotalPoints > points {
			position++
		}
	}
	return position, nil
}

// --- ProgressStore ---

func (s *memStore) GetRoomStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (*models.UserRoomStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.roomStatus[roomKey{userID, roomID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &st, nil
}

func (s *memStore) GetRoomStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (models.UserRoomStatus, error) {
	st, err := s.GetRoomStatus(ctx, querier, userID, roomID)
	if err != nil {
		return models.UserRoomStatus{UserID: userID, RoomID: roomID}, nil
	}
	return *st, nil
}

func (s *memStore) UpsertRoomStatus(ctx context.Context, querier interfaces.DBTX, status models.UserRoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomKey{status.UserID, status.RoomID}
	cur := s.roomStatus[key]
	cur.UserID, cur.RoomID = status.UserID, status.RoomID
	cur.Completed = cur.Completed || status.Completed
	cur.Unlocked = cur.Unlocked || status.Unlocked || cur.Completed
	s.roomStatus[key] = cur
	return nil
}

func (s *memStore) ListRoomStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) ([]models.UserRoomStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserRoomStatus
	for k, v := range s.roomStatus {
		if k.userID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (s *memStore) GetHintStatus(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (*models.UserHintStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.hintStatus[hintKey{userID, hintID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &st, nil
}

func (s *memStore) GetHintStatusOrDefault(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (models.UserHintStatus, error) {
	st, err := s.GetHintStatus(ctx, querier, userID, hintID)
	if err != nil {
		return models.UserHintStatus{UserID: userID, HintID: hintID}, nil
	}
	return *st, nil
}

func (s *memStore) UpsertHintStatus(ctx context.Context, querier interfaces.DBTX, status models.UserHintStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hintKey{status.UserID, status.HintID}
	cur := s.hintStatus[key]
	cur.UserID, cur.HintID = status.UserID, status.HintID
	cur.Completed = cur.Completed || status.Completed
	s.hintStatus[key] = cur
	return nil
}

func (s *memStore) ListHintStatuses(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintIDs []int) ([]models.UserHintStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int]bool, len(hintIDs))
	for _, id := range hintIDs {
		wanted[id] = true
	}
	var out []models.UserHintStatus
	for k, v := range s.hintStatus {
		if k.userID == userID && (hintIDs == nil || wanted[k.hintID]) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HintID < out[j].HintID })
	return out, nil
}

func (s *memStore) CountCompletedHints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, h := range s.hints {
		if h.RoomID == roomID && s.hintStatus[hintKey{userID, h.ID}].Completed {
			count++
		}
	}
	return count, nil
}

func (s *memStore) MarkHintCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, hintID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hintKey{userID, hintID}
	cur := s.hintStatus[key]
	if cur.Completed {
		return false, nil
	}
	s.hintStatus[key] = models.UserHintStatus{UserID: userID, HintID: hintID, Completed: true}
	return true, nil
}

func (s *memStore) MarkRoomCompleted(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomKey{userID, roomID}
	cur := s.roomStatus[key]
	if cur.Completed {
		return false, nil
	}
	s.roomStatus[key] = models.UserRoomStatus{UserID: userID, RoomID: roomID, Unlocked: true, Completed: true}
	return true, nil
}

func (s *memStore) UnlockRoom(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, roomID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomKey{userID, roomID}
	cur := s.roomStatus[key]
	if cur.Unlocked {
		return false, nil
	}
	cur.UserID, cur.RoomID, cur.Unlocked = userID, roomID, true
	s.roomStatus[key] = cur
	return true, nil
}
