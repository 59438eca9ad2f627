package roommanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// ============================================================================
// Моки для PresenceManager
// ============================================================================

// MockRoomRepoForPresence реализует repository.RoomRepository
type MockRoomRepoForPresence struct {
	mock.Mock
}

func (m *MockRoomRepoForPresence) Create(room *entity.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockRoomRepoForPresence) GetByID(id uint) (*entity.Room, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepoForPresence) GetByCode(code string) (*entity.Room, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepoForPresence) UpdateSettings(roomID uint, settings repository.RoomSettings) error {
	args := m.Called(roomID, settings)
	return args.Error(0)
}

func (m *MockRoomRepoForPresence) SetEndedAt(roomID uint, endedAt time.Time) error {
	args := m.Called(roomID, endedAt)
	return args.Error(0)
}

// MockBroadcasterForPresence реализует Broadcaster
type MockBroadcasterForPresence struct {
	mock.Mock
}

func (m *MockBroadcasterForPresence) BroadcastEventToRoom(roomID uint, eventType string, data interface{}) error {
	args := m.Called(roomID, eventType, data)
	return args.Error(0)
}

func (m *MockBroadcasterForPresence) SendEventToUser(userID string, eventType string, data interface{}) error {
	args := m.Called(userID, eventType, data)
	return args.Error(0)
}

// ============================================================================
// Хелперы
// ============================================================================

func newTestPresence(t *testing.T, room *entity.Room) (*PresenceManager, *MockRoomRepoForPresence, *MockBroadcasterForPresence) {
	t.Helper()

	roomRepo := new(MockRoomRepoForPresence)
	broadcaster := new(MockBroadcasterForPresence)
	if room != nil {
		roomRepo.On("GetByCode", room.Code).Return(room, nil)
	}
	broadcaster.On("BroadcastEventToRoom", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	deps := &Dependencies{
		RoomRepo:    roomRepo,
		Broadcaster: broadcaster,
	}
	return NewPresenceManager(DefaultConfig(), deps), roomRepo, broadcaster
}

// ============================================================================
// Тесты
// ============================================================================

func TestPresenceManager_JoinAssignsMonotonicSeq(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4}
	pm, _, _ := newTestPresence(t, room)

	_, members, err := pm.Join(context.Background(), "ABC234", 10, "alice")
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, uint64(1), members[0].JoinSeq)

	_, members, err = pm.Join(context.Background(), "ABC234", 20, "bob")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, uint64(2), members[1].JoinSeq)
}

func TestPresenceManager_LeaderIsLowestSeq(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4}
	pm, _, _ := newTestPresence(t, room)

	pm.Join(context.Background(), "ABC234", 10, "alice")
	pm.Join(context.Background(), "ABC234", 20, "bob")
	pm.Join(context.Background(), "ABC234", 30, "carol")

	leader, ok := pm.Leader(1)
	require.True(t, ok)
	assert.Equal(t, uint(10), leader.UserID)
	assert.True(t, pm.IsLeader(1, 10))
	assert.False(t, pm.IsLeader(1, 20))
}

func TestPresenceManager_LeadershipTransfersOnLeave(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4}
	pm, _, _ := newTestPresence(t, room)

	pm.Join(context.Background(), "ABC234", 10, "alice")
	pm.Join(context.Background(), "ABC234", 20, "bob")
	pm.Join(context.Background(), "ABC234", 30, "carol")

	pm.Leave(context.Background(), 1, 10)

	leader, ok := pm.Leader(1)
	require.True(t, ok)
	assert.Equal(t, uint(20), leader.UserID)
}

func TestPresenceManager_CapacityEnforced(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 2}
	pm, _, _ := newTestPresence(t, room)

	_, _, err := pm.Join(context.Background(), "ABC234", 10, "alice")
	require.NoError(t, err)
	_, _, err = pm.Join(context.Background(), "ABC234", 20, "bob")
	require.NoError(t, err)

	_, _, err = pm.Join(context.Background(), "ABC234", 30, "carol")
	assert.ErrorIs(t, err, apperrors.ErrRoomFull)
	assert.Equal(t, 2, pm.Count(1))
}

func TestPresenceManager_RejoinIsIdempotent(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 2}
	pm, _, _ := newTestPresence(t, room)

	_, first, err := pm.Join(context.Background(), "ABC234", 10, "alice")
	require.NoError(t, err)
	_, second, err := pm.Join(context.Background(), "ABC234", 10, "alice")
	require.NoError(t, err)

	assert.Len(t, second, 1)
	assert.Equal(t, first[0].JoinSeq, second[0].JoinSeq)
}

func TestPresenceManager_EndedRoomRejectsJoin(t *testing.T) {
	endedAt := time.Now().Add(-time.Minute)
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4, EndedAt: &endedAt}
	pm, _, _ := newTestPresence(t, room)

	_, _, err := pm.Join(context.Background(), "ABC234", 10, "alice")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPresenceManager_EmptyRoomTornDown(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4}
	pm, _, _ := newTestPresence(t, room)

	var emptiedRoomID uint
	pm.SetRoomEmptyHandler(func(roomID uint) {
		emptiedRoomID = roomID
	})

	pm.Join(context.Background(), "ABC234", 10, "alice")
	pm.Leave(context.Background(), 1, 10)

	assert.Equal(t, uint(1), emptiedRoomID)
	assert.Equal(t, 0, pm.Count(1))
	_, ok := pm.Leader(1)
	assert.False(t, ok)
}

func TestPresenceManager_LeaveUnknownUserIsNoop(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 4}
	pm, _, _ := newTestPresence(t, room)

	pm.Join(context.Background(), "ABC234", 10, "alice")
	pm.Leave(context.Background(), 1, 99)

	assert.Equal(t, 1, pm.Count(1))
}

func TestPresenceManager_MembersSortedByJoinSeq(t *testing.T) {
	room := &entity.Room{ID: 1, Code: "ABC234", MaxPlayers: 10}
	pm, _, _ := newTestPresence(t, room)

	for i, userID := range []uint{50, 10, 30, 20} {
		_, _, err := pm.Join(context.Background(), "ABC234", userID, "user")
		require.NoError(t, err, "join %d", i)
	}

	members := pm.Members(1)
	require.Len(t, members, 4)
	assert.Equal(t, []uint{50, 10, 30, 20}, []uint{
		members[0].UserID, members[1].UserID, members[2].UserID, members[3].UserID,
	})
	assert.True(t, members[0].IsLeader)
	assert.False(t, members[1].IsLeader)
}
