package repository

import (
	"time"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// RoomSettings описывает изменяемые хостом настройки комнаты.
// Nil-поле означает "не менять". Все настройки персистятся на сервере
// до рассылки broadcast-события, чтобы локальное и серверное состояние
// не могли разойтись.
type RoomSettings struct {
	MaxPlayers   *int
	NumQuestions *int
	TimeLimitSec *int
	Topic        *string
}

// RoomRepository определяет методы для работы с комнатами
type RoomRepository interface {
	Create(room *entity.Room) error
	GetByID(id uint) (*entity.Room, error)
	GetByCode(code string) (*entity.Room, error)
	UpdateSettings(roomID uint, settings RoomSettings) error
	// SetEndedAt помечает сессию комнаты завершённой
	SetEndedAt(roomID uint, endedAt time.Time) error
}
