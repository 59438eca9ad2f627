package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
	ws "github.com/yourusername/intelliq-api/internal/websocket"
)

func newRoomFixture() (*RoomService, *MockRoomRepo, *MockBroadcaster, *roommanager.PresenceManager) {
	roomRepo := new(MockRoomRepo)
	broadcaster := new(MockBroadcaster)
	broadcaster.On("BroadcastEventToRoom", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := roommanager.DefaultConfig()
	presence := roommanager.NewPresenceManager(cfg, &roommanager.Dependencies{
		RoomRepo:    roomRepo,
		Broadcaster: broadcaster,
	})

	svc := NewRoomService(roomRepo, presence, broadcaster, testRoomConfig())
	return svc, roomRepo, broadcaster, presence
}

func TestRoomService_CreateRoom_Defaults(t *testing.T) {
	svc, roomRepo, _, _ := newRoomFixture()

	var created *entity.Room
	roomRepo.On("Create", mock.AnythingOfType("*entity.Room")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*entity.Room)
		created.ID = 1
	}).Return(nil)

	room, err := svc.CreateRoom(context.Background(), 10, CreateRoomInput{Topic: "История"})
	require.NoError(t, err)

	assert.Equal(t, entity.DefaultMaxPlayers, room.MaxPlayers)
	assert.Equal(t, entity.DefaultNumQuestions, room.NumQuestions)
	assert.Equal(t, entity.DefaultTimeLimitSec, room.TimeLimitSec)
	assert.Equal(t, "en", room.Language)
	assert.Equal(t, uint(10), room.HostUserID)
	assert.Len(t, room.Code, entity.RoomCodeLength)
	for _, ch := range room.Code {
		assert.Contains(t, roomCodeAlphabet, string(ch))
	}
}

func TestRoomService_CreateRoom_RetriesOnCodeCollision(t *testing.T) {
	svc, roomRepo, _, _ := newRoomFixture()

	// первая вставка натыкается на занятый код, вторая проходит
	roomRepo.On("Create", mock.AnythingOfType("*entity.Room")).Return(apperrors.ErrConflict).Once()
	roomRepo.On("Create", mock.AnythingOfType("*entity.Room")).Return(nil).Once()

	_, err := svc.CreateRoom(context.Background(), 10, CreateRoomInput{})
	require.NoError(t, err)
	roomRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestRoomService_CreateRoom_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, roomRepo, _, _ := newRoomFixture()

	roomRepo.On("Create", mock.AnythingOfType("*entity.Room")).Return(apperrors.ErrConflict)

	_, err := svc.CreateRoom(context.Background(), 10, CreateRoomInput{})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	roomRepo.AssertNumberOfCalls(t, "Create", maxCodeAttempts)
}

func TestRoomService_CreateRoom_ValidatesBounds(t *testing.T) {
	svc, _, _, _ := newRoomFixture()

	tests := []struct {
		name  string
		input CreateRoomInput
	}{
		{"слишком много игроков", CreateRoomInput{MaxPlayers: 11}},
		{"слишком много вопросов", CreateRoomInput{NumQuestions: 21}},
		{"лимит времени меньше минимума", CreateRoomInput{TimeLimitSec: 3}},
		{"лимит времени больше максимума", CreateRoomInput{TimeLimitSec: 600}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRoom(context.Background(), 10, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestRoomService_UpdateSettings_OnlyHost(t *testing.T) {
	svc, roomRepo, _, _ := newRoomFixture()

	roomRepo.On("GetByID", uint(1)).Return(&entity.Room{
		ID: 1, Code: "ABC234", HostUserID: 10,
		MaxPlayers: 4, NumQuestions: 5, TimeLimitSec: 30,
	}, nil)

	newMax := 6
	_, err := svc.UpdateSettings(context.Background(), 1, 99, UpdateSettingsInput{MaxPlayers: &newMax})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoomService_UpdateSettings_PersistsThenBroadcasts(t *testing.T) {
	svc, roomRepo, broadcaster, _ := newRoomFixture()

	roomRepo.On("GetByID", uint(1)).Return(&entity.Room{
		ID: 1, Code: "ABC234", HostUserID: 10,
		MaxPlayers: 4, NumQuestions: 5, TimeLimitSec: 30,
	}, nil).Once()
	roomRepo.On("UpdateSettings", uint(1), mock.MatchedBy(func(s repository.RoomSettings) bool {
		return s.MaxPlayers != nil && *s.MaxPlayers == 6 && s.NumQuestions == nil
	})).Return(nil)
	roomRepo.On("GetByID", uint(1)).Return(&entity.Room{
		ID: 1, Code: "ABC234", HostUserID: 10,
		MaxPlayers: 6, NumQuestions: 5, TimeLimitSec: 30,
	}, nil).Once()

	newMax := 6
	updated, err := svc.UpdateSettings(context.Background(), 1, 10, UpdateSettingsInput{MaxPlayers: &newMax})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.MaxPlayers)

	broadcaster.AssertCalled(t, "BroadcastEventToRoom", uint(1), ws.ROOM_SETTINGS_UPDATE, mock.Anything)
	broadcaster.AssertCalled(t, "BroadcastEventToRoom", uint(1), ws.ROOM_CHANGE_MAX_PLAYERS, mock.Anything)
}

func TestRoomService_UpdateSettings_CapacityBelowOccupancy(t *testing.T) {
	svc, roomRepo, _, presence := newRoomFixture()

	room := &entity.Room{
		ID: 1, Code: "ABC234", HostUserID: 10,
		MaxPlayers: 4, NumQuestions: 5, TimeLimitSec: 30,
	}
	roomRepo.On("GetByCode", "ABC234").Return(room, nil)
	roomRepo.On("GetByID", uint(1)).Return(room, nil)

	for _, uid := range []uint{10, 11, 12} {
		_, _, err := presence.Join(context.Background(), "ABC234", uid, "player")
		require.NoError(t, err)
	}

	newMax := 2
	_, err := svc.UpdateSettings(context.Background(), 1, 10, UpdateSettingsInput{MaxPlayers: &newMax})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	roomRepo.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything)
}

func TestRoomService_UpdateSettings_EndedRoomRejected(t *testing.T) {
	svc, roomRepo, _, _ := newRoomFixture()

	endedAt := time.Now()
	roomRepo.On("GetByID", uint(1)).Return(&entity.Room{
		ID: 1, Code: "ABC234", HostUserID: 10,
		MaxPlayers: 4, NumQuestions: 5, TimeLimitSec: 30,
		EndedAt: &endedAt,
	}, nil)

	topic := "Космос"
	_, err := svc.UpdateSettings(context.Background(), 1, 10, UpdateSettingsInput{Topic: &topic})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGenerateRoomCode_AlphabetAndLength(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateRoomCode(entity.RoomCodeLength)
		require.NoError(t, err)
		assert.Len(t, code, entity.RoomCodeLength)
		assert.Equal(t, -1, strings.IndexFunc(code, func(r rune) bool {
			return !strings.ContainsRune(roomCodeAlphabet, r)
		}))
		seen[code] = true
	}
	// 50 кодов из пространства 31^6 практически не могут совпасть
	assert.Greater(t, len(seen), 45)
}
