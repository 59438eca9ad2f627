package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/yourusername/intelliq-api/internal/config"
	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
	ws "github.com/yourusername/intelliq-api/internal/websocket"
)

// roomCodeAlphabet не содержит похожих символов (0/O, 1/I/L),
// чтобы код удобно было диктовать вслух
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// maxCodeAttempts - число попыток генерации кода при коллизиях
const maxCodeAttempts = 5

// RoomService предоставляет методы для управления комнатами
type RoomService struct {
	roomRepo    repository.RoomRepository
	presence    *roommanager.PresenceManager
	broadcaster roommanager.Broadcaster
	roomConfig  config.RoomConfig
}

// NewRoomService создает новый сервис комнат
func NewRoomService(
	roomRepo repository.RoomRepository,
	presence *roommanager.PresenceManager,
	broadcaster roommanager.Broadcaster,
	roomConfig config.RoomConfig,
) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		presence:    presence,
		broadcaster: broadcaster,
		roomConfig:  roomConfig,
	}
}

// CreateRoomInput - параметры создания комнаты; нулевые значения
// заменяются значениями по умолчанию
type CreateRoomInput struct {
	MaxPlayers   int
	NumQuestions int
	TimeLimitSec int
	Topic        string
	Language     string
}

// CreateRoom создает комнату с уникальным коротким кодом.
// Коллизия кода маловероятна, но возможна, поэтому генерация
// повторяется до maxCodeAttempts раз.
func (s *RoomService) CreateRoom(ctx context.Context, hostUserID uint, input CreateRoomInput) (*entity.Room, error) {
	if input.MaxPlayers == 0 {
		input.MaxPlayers = entity.DefaultMaxPlayers
	}
	if input.NumQuestions == 0 {
		input.NumQuestions = entity.DefaultNumQuestions
	}
	if input.TimeLimitSec == 0 {
		input.TimeLimitSec = entity.DefaultTimeLimitSec
	}
	if input.Language == "" {
		input.Language = "en"
	}

	if err := s.validateSettings(input.MaxPlayers, input.NumQuestions, input.TimeLimitSec); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateRoomCode(entity.RoomCodeLength)
		if err != nil {
			return nil, fmt.Errorf("ошибка генерации кода комнаты: %w", err)
		}

		room := &entity.Room{
			Code:         code,
			HostUserID:   hostUserID,
			MaxPlayers:   input.MaxPlayers,
			NumQuestions: input.NumQuestions,
			TimeLimitSec: input.TimeLimitSec,
			Topic:        input.Topic,
			Language:     input.Language,
		}

		if err := s.roomRepo.Create(room); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		log.Printf("[RoomService] Создана комната %d (код %s, хост %d)", room.ID, room.Code, hostUserID)
		return room, nil
	}

	return nil, fmt.Errorf("не удалось подобрать уникальный код комнаты: %w", lastErr)
}

// GetRoomByCode возвращает комнату по её короткому коду
func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*entity.Room, error) {
	return s.roomRepo.GetByCode(code)
}

// GetRoomByID возвращает комнату по ID
func (s *RoomService) GetRoomByID(ctx context.Context, id uint) (*entity.Room, error) {
	return s.roomRepo.GetByID(id)
}

// UpdateSettingsInput - запрос на изменение настроек; nil означает "не менять"
type UpdateSettingsInput struct {
	MaxPlayers   *int
	NumQuestions *int
	TimeLimitSec *int
	Topic        *string
}

// UpdateSettings изменяет настройки комнаты. Доступно только хосту.
// Настройки сначала сохраняются в БД и лишь затем рассылаются
// участникам: при падении между этими шагами клиенты просто получат
// актуальное значение при следующей синхронизации.
func (s *RoomService) UpdateSettings(ctx context.Context, roomID uint, requestedBy uint, input UpdateSettingsInput) (*entity.Room, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsHost(requestedBy) {
		return nil, fmt.Errorf("изменение настроек доступно только хосту комнаты: %w", apperrors.ErrForbidden)
	}
	if room.IsEnded() {
		return nil, fmt.Errorf("комната %d уже завершена: %w", roomID, apperrors.ErrForbidden)
	}

	maxPlayers := room.MaxPlayers
	if input.MaxPlayers != nil {
		maxPlayers = *input.MaxPlayers
	}
	numQuestions := room.NumQuestions
	if input.NumQuestions != nil {
		numQuestions = *input.NumQuestions
	}
	timeLimit := room.TimeLimitSec
	if input.TimeLimitSec != nil {
		timeLimit = *input.TimeLimitSec
	}

	if err := s.validateSettings(maxPlayers, numQuestions, timeLimit); err != nil {
		return nil, err
	}

	// нельзя опустить вместимость ниже текущего числа участников
	if current := s.presence.Count(roomID); maxPlayers < current {
		return nil, fmt.Errorf("в комнате уже %d участников, нельзя установить лимит %d: %w",
			current, maxPlayers, apperrors.ErrValidation)
	}

	settings := repository.RoomSettings{
		MaxPlayers:   input.MaxPlayers,
		NumQuestions: input.NumQuestions,
		TimeLimitSec: input.TimeLimitSec,
		Topic:        input.Topic,
	}
	if err := s.roomRepo.UpdateSettings(roomID, settings); err != nil {
		return nil, err
	}

	updated, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, err
	}

	log.Printf("[RoomService] Настройки комнаты %d обновлены хостом %d", roomID, requestedBy)

	s.broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_SETTINGS_UPDATE, map[string]interface{}{
		"room_id":        roomID,
		"max_players":    updated.MaxPlayers,
		"num_questions":  updated.NumQuestions,
		"time_limit_sec": updated.TimeLimitSec,
		"topic":          updated.Topic,
	})
	if input.MaxPlayers != nil {
		s.broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_CHANGE_MAX_PLAYERS, map[string]interface{}{
			"room_id":     roomID,
			"max_players": updated.MaxPlayers,
		})
	}

	return updated, nil
}

func (s *RoomService) validateSettings(maxPlayers, numQuestions, timeLimitSec int) error {
	if maxPlayers < 1 || maxPlayers > s.roomConfig.MaxPlayersLimit {
		return fmt.Errorf("max_players должен быть в диапазоне [1, %d]: %w",
			s.roomConfig.MaxPlayersLimit, apperrors.ErrValidation)
	}
	if numQuestions < 1 || numQuestions > s.roomConfig.MaxQuestions {
		return fmt.Errorf("num_questions должен быть в диапазоне [1, %d]: %w",
			s.roomConfig.MaxQuestions, apperrors.ErrValidation)
	}
	if timeLimitSec < s.roomConfig.MinTimeLimitSec || timeLimitSec > s.roomConfig.MaxTimeLimitSec {
		return fmt.Errorf("time_limit_sec должен быть в диапазоне [%d, %d]: %w",
			s.roomConfig.MinTimeLimitSec, s.roomConfig.MaxTimeLimitSec, apperrors.ErrValidation)
	}
	return nil
}

// generateRoomCode возвращает случайный код из roomCodeAlphabet
func generateRoomCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
