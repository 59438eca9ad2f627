package entity

import (
	"time"
)

// Значения настроек комнаты по умолчанию
const (
	DefaultMaxPlayers   = 4
	DefaultNumQuestions = 5
	DefaultTimeLimitSec = 30

	// RoomCodeLength - длина человекочитаемого кода комнаты
	RoomCodeLength = 6
)

// Room представляет мультиплеерное лобби, идентифицируемое коротким кодом
type Room struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"size:10;not null;uniqueIndex" json:"code"`
	HostUserID   uint       `gorm:"not null;index" json:"host_user_id"`
	MaxPlayers   int        `gorm:"not null;default:4" json:"max_players"`
	NumQuestions int        `gorm:"not null;default:5" json:"num_questions"`
	TimeLimitSec int        `gorm:"not null;default:30" json:"time_limit_sec"`
	Topic        string     `gorm:"size:200;not null;default:''" json:"topic"`
	Language     string     `gorm:"size:5;not null;default:'en'" json:"language"`
	EndedAt      *time.Time `gorm:"type:timestamp" json:"ended_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Room) TableName() string {
	return "rooms"
}

// IsHost проверяет, является ли пользователь хостом комнаты
func (r *Room) IsHost(userID uint) bool {
	return r.HostUserID == userID
}

// IsEnded проверяет, завершена ли сессия комнаты
func (r *Room) IsEnded() bool {
	return r.EndedAt != nil
}

// TimeLimitMs возвращает лимит времени на вопрос в миллисекундах
func (r *Room) TimeLimitMs() int64 {
	return int64(r.TimeLimitSec) * 1000
}
